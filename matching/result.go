package matching

// MatchUser is the public profile projection embedded in every match.
// Only fields a stranger may see; never email or visibility flags.
type MatchUser struct {
	ID             string              `json:"id"`
	DisplayName    string              `json:"display_name"`
	Avatar         string              `json:"avatar"`
	Bio            string              `json:"bio"`
	HomeLocation   string              `json:"home_location"`
	RiskTolerance  RiskTolerance       `json:"risk_tolerance"`
	Disciplines    []DisciplineSummary `json:"disciplines"`
	ExperienceTags []string            `json:"experience_tags"`
}

// DisciplineSummary mirrors the discipline profile fields shown on a public
// profile.
type DisciplineSummary struct {
	ID              string      `json:"id"`
	Discipline      Discipline  `json:"discipline"`
	GradeSystem     GradeSystem `json:"grade_system"`
	GradeMin        string      `json:"comfortable_grade_min_display"`
	GradeMax        string      `json:"comfortable_grade_max_display"`
	ProjectingGrade string      `json:"projecting_grade_display"`
	YearsExperience int         `json:"years_experience"`
	CanLead         bool        `json:"can_lead"`
	CanBelay        bool        `json:"can_belay"`
	CanBuildAnchors bool        `json:"can_build_anchors"`
	Notes           string      `json:"notes"`
}

// MatchTrip is the lightweight trip projection used in match responses.
type MatchTrip struct {
	ID                   string           `json:"id"`
	Destination          MatchDestination `json:"destination"`
	StartDate            string           `json:"start_date"`
	EndDate              string           `json:"end_date"`
	PreferredDisciplines []Discipline     `json:"preferred_disciplines"`
}

// MatchDestination identifies a destination in match responses.
type MatchDestination struct {
	Slug    string `json:"slug"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// OverlapDates is the inclusive window both trips cover.
type OverlapDates struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Days  int    `json:"days"`
}

// MatchResult is one entry of a match list: who matched, on which of their
// trips, how strongly, and why.
type MatchResult struct {
	MatchedUser         MatchUser    `json:"matched_user"`
	Trip                MatchTrip    `json:"trip"`
	Score               int          `json:"score"`
	CommonDisciplines   []Discipline `json:"common_disciplines"`
	SkillMatch          string       `json:"skill_match"`
	AvailabilityOverlap int          `json:"availability_overlap"`
	Reasons             []string     `json:"reasons"`
	OverlapDates        OverlapDates `json:"overlap_dates"`
}

// DayAvailability lists the shared non-rest time blocks of one day.
type DayAvailability struct {
	Date       string      `json:"date"`
	TimeBlocks []TimeBlock `json:"time_blocks"`
}

// GradeOverlap is the raw comfort-range overlap for one shared discipline.
// Scores are on the normalized 0-100 scale; the HTTP layer renders them as
// display grades in the viewer's grade system.
type GradeOverlap struct {
	Discipline    Discipline  `json:"discipline"`
	System        GradeSystem `json:"grade_system"`
	ScoreLow      int         `json:"-"`
	ScoreHigh     int         `json:"-"`
	Ratio         float64     `json:"-"`
	Compatibility string      `json:"compatibility"`
}

// MatchDetail extends MatchResult with the per-day availability overlap and
// grade compatibility the detail endpoint exposes.
type MatchDetail struct {
	MatchResult
	AvailabilityBlocks []DayAvailability `json:"availability_blocks"`
	SharedDisciplines  []Discipline      `json:"shared_disciplines"`
	GradeOverlaps      []GradeOverlap    `json:"-"`
}

// NewMatchUser projects a climber's public fields. Exported because the
// public profile endpoint reuses the projection, keeping the two surfaces in
// agreement about what a stranger may see.
func NewMatchUser(c *Climber) MatchUser {
	summaries := make([]DisciplineSummary, 0, len(c.Disciplines))
	for _, p := range c.Disciplines {
		summaries = append(summaries, DisciplineSummary{
			ID:              p.ID.String(),
			Discipline:      p.Discipline,
			GradeSystem:     p.GradeSystem,
			GradeMin:        p.GradeMinDisplay,
			GradeMax:        p.GradeMaxDisplay,
			ProjectingGrade: p.ProjectingGrade,
			YearsExperience: p.YearsExperience,
			CanLead:         p.CanLead,
			CanBelay:        p.CanBelay,
			CanBuildAnchors: p.CanBuildAnchors,
			Notes:           p.Notes,
		})
	}
	tags := c.ExperienceTags
	if tags == nil {
		tags = []string{}
	}
	return MatchUser{
		ID:             c.ID.String(),
		DisplayName:    c.DisplayName,
		Avatar:         c.Avatar,
		Bio:            c.Bio,
		HomeLocation:   c.HomeLocation,
		RiskTolerance:  c.RiskTolerance,
		Disciplines:    summaries,
		ExperienceTags: tags,
	}
}

// NewMatchTrip projects a trip for a match response. Exported because the
// HTTP layer wraps match lists with the viewer's own trip.
func NewMatchTrip(t *Trip) MatchTrip {
	prefs := t.PreferredDisciplines
	if prefs == nil {
		prefs = []Discipline{}
	}
	return MatchTrip{
		ID: t.ID.String(),
		Destination: MatchDestination{
			Slug:    t.Destination.Slug,
			Name:    t.Destination.Name,
			Country: t.Destination.Country,
		},
		StartDate:            fmtDate(t.StartDate),
		EndDate:              fmtDate(t.EndDate),
		PreferredDisciplines: prefs,
	}
}
