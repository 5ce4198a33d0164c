package matching

import (
	"time"

	"github.com/google/uuid"
)

// Discipline is a climbing style a user can have a profile for and a trip
// can prefer.
type Discipline string

const (
	DisciplineSport      Discipline = "sport"
	DisciplineTrad       Discipline = "trad"
	DisciplineBouldering Discipline = "bouldering"
	DisciplineMultipitch Discipline = "multipitch"
	DisciplineGym        Discipline = "gym"
)

// GradeSystem identifies which grading scale a discipline profile uses.
type GradeSystem string

const (
	GradeSystemYDS    GradeSystem = "yds"
	GradeSystemFrench GradeSystem = "french"
	GradeSystemVScale GradeSystem = "v_scale"
)

// RiskTolerance is a coarse self-assessment used by the scorer.
type RiskTolerance string

const (
	RiskConservative RiskTolerance = "conservative"
	RiskBalanced     RiskTolerance = "balanced"
	RiskAggressive   RiskTolerance = "aggressive"
)

// TimeBlock is one slot of a trip day. Rest blocks exist so users can mark
// days off; they never count toward availability overlap.
type TimeBlock string

const (
	TimeBlockMorning   TimeBlock = "morning"
	TimeBlockAfternoon TimeBlock = "afternoon"
	TimeBlockFullDay   TimeBlock = "full_day"
	TimeBlockRest      TimeBlock = "rest"
)

// dateLayout is the wire format for all dates (trip ranges, availability,
// overlap windows).
const dateLayout = "2006-01-02"

// Climber is the engine's view of a user: the public profile fields plus the
// visibility flags the candidate filter needs. Email itself is deliberately
// absent so it can never leak into a result.
type Climber struct {
	ID             uuid.UUID
	DisplayName    string
	Avatar         string
	Bio            string
	HomeLocation   string
	RiskTolerance  RiskTolerance
	Disciplines    []DisciplineProfile
	ExperienceTags []string
	ProfileVisible bool
	EmailVerified  bool
	CreatedAt      time.Time
}

// disciplineProfile returns the climber's profile for a discipline, if any.
func (c *Climber) disciplineProfile(d Discipline) (DisciplineProfile, bool) {
	for _, p := range c.Disciplines {
		if p.Discipline == d {
			return p, true
		}
	}
	return DisciplineProfile{}, false
}

// DisciplineProfile holds a climber's comfort range for one discipline.
// Display grades are what the user typed ("5.10a", "6b+", "V4"); the score
// fields are the normalized 0-100 values the scorer compares.
type DisciplineProfile struct {
	ID              uuid.UUID
	Discipline      Discipline
	GradeSystem     GradeSystem
	GradeMinDisplay string
	GradeMaxDisplay string
	ProjectingGrade string
	ScoreMin        int
	ScoreMax        int
	YearsExperience int
	CanLead         bool
	CanBelay        bool
	CanBuildAnchors bool
	Notes           string
}

// Destination is a climbing area trips point at.
type Destination struct {
	Slug    string
	Name    string
	Country string
}

// AvailabilitySlot is one (date, time block) entry of a trip's availability.
type AvailabilitySlot struct {
	Date  time.Time
	Block TimeBlock
}

// Trip is a user's planned visit to a destination. Dates are inclusive.
type Trip struct {
	ID                   uuid.UUID
	OwnerID              uuid.UUID
	Destination          Destination
	StartDate            time.Time
	EndDate              time.Time
	PreferredDisciplines []Discipline
	PreferredCrags       []string // crag slugs; empty means flexible
	Availability         []AvailabilitySlot
	IsActive             bool
	CreatedAt            time.Time
}

// Candidate pairs a climber with the trip of theirs that qualified them.
type Candidate struct {
	Climber *Climber
	Trip    *Trip
}

func fmtDate(t time.Time) string {
	return t.Format(dateLayout)
}

// dateOnly drops the time-of-day component, keeping dates comparable no
// matter what zone a timestamp arrived in.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
