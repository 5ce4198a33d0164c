package matching

import (
	"fmt"
	"sort"
	"strings"
)

// breakdown carries one candidate's sub-scores plus everything the result
// contract needs (reasons, overlap window, shared disciplines, detail data).
type breakdown struct {
	Location     int
	Dates        int
	Disciplines  int
	Grades       int
	Risk         int
	Availability int
	Total        int

	Reasons     []string
	Overlap     OverlapDates
	Shared      []Discipline
	SharedDays  []DayAvailability
	GradeRanges []GradeOverlap
}

// scorePair runs all six sub-scores for one viewer/candidate trip pair and
// assembles the reason strings in sub-score order.
func scorePair(viewer *Climber, trip *Trip, cand *Climber, candTrip *Trip) breakdown {
	var b breakdown

	b.Location = scoreLocation(trip, candTrip)
	if b.Location > 0 {
		b.Reasons = append(b.Reasons, "Both in "+trip.Destination.Name)
	}

	b.Dates, b.Overlap = scoreDateOverlap(trip, candTrip)
	if b.Dates > 0 {
		b.Reasons = append(b.Reasons, fmt.Sprintf("%d day overlap", b.Overlap.Days))
	}

	b.Disciplines, b.Shared = scoreDisciplines(trip, candTrip, viewer, cand)
	if len(b.Shared) > 0 {
		b.Reasons = append(b.Reasons, "Both climb "+joinDisciplines(b.Shared))
	}

	b.Grades = scoreGrades(viewer, cand, b.Shared)
	if b.Grades > 10 {
		b.Reasons = append(b.Reasons, "Similar grades")
	}

	b.Risk = scoreRisk(viewer.RiskTolerance, cand.RiskTolerance)
	if b.Risk == 10 {
		b.Reasons = append(b.Reasons, "Same risk tolerance")
	}

	// No reason string for availability; it is a small tiebreaker bonus.
	b.Availability, b.SharedDays = scoreAvailability(trip, candTrip)

	b.GradeRanges = gradeOverlaps(viewer, cand, b.Shared)

	b.Total = b.Location + b.Dates + b.Disciplines + b.Grades + b.Risk + b.Availability
	return b
}

// scoreLocation scores destination and crag agreement:
//
//	30  same destination, overlapping crag preferences
//	25  same destination, at least one trip has no crag preference
//	20  same destination, crag preferences disjoint
//	 0  different destinations (the candidate filter already prevents this;
//	    kept so bad data scores harmlessly instead of mattering)
func scoreLocation(trip, candTrip *Trip) int {
	if trip.Destination.Slug != candTrip.Destination.Slug {
		return 0
	}
	if len(trip.PreferredCrags) == 0 || len(candTrip.PreferredCrags) == 0 {
		return 25
	}
	mine := make(map[string]struct{}, len(trip.PreferredCrags))
	for _, slug := range trip.PreferredCrags {
		mine[slug] = struct{}{}
	}
	for _, slug := range candTrip.PreferredCrags {
		if _, ok := mine[slug]; ok {
			return 30
		}
	}
	return 20
}

// scoreDateOverlap awards 4 points per shared day, capped at 20, and returns
// the inclusive overlap window.
func scoreDateOverlap(trip, candTrip *Trip) (int, OverlapDates) {
	start := trip.StartDate
	if candTrip.StartDate.After(start) {
		start = candTrip.StartDate
	}
	end := trip.EndDate
	if candTrip.EndDate.Before(end) {
		end = candTrip.EndDate
	}
	if start.After(end) {
		return 0, OverlapDates{}
	}

	days := int(end.Sub(start).Hours()/24) + 1
	score := days * 4
	if score > 20 {
		score = 20
	}
	return score, OverlapDates{Start: fmtDate(start), End: fmtDate(end), Days: days}
}

// scoreDisciplines compares trip preferences first, then user profiles:
//
//	20  both trips and both profiles share a discipline (shared = that set)
//	 5  the trips agree but the profiles don't back it up (shared = the
//	    trip-level set, so the reason can still name it)
//	 0  the trips have no discipline in common
//
// Returned slices are sorted so downstream picks are deterministic.
func scoreDisciplines(trip, candTrip *Trip, viewer, cand *Climber) (int, []Discipline) {
	tripShared := intersectDisciplines(trip.PreferredDisciplines, candTrip.PreferredDisciplines)
	if len(tripShared) == 0 {
		return 0, nil
	}

	mine := profiledDisciplines(viewer)
	theirs := profiledDisciplines(cand)

	var shared []Discipline
	for _, d := range tripShared {
		if _, ok := mine[d]; !ok {
			continue
		}
		if _, ok := theirs[d]; !ok {
			continue
		}
		shared = append(shared, d)
	}
	if len(shared) > 0 {
		return 20, shared
	}
	return 5, tripShared
}

// scoreGrades rates comfort-range overlap on the first shared discipline:
// 15 * (overlap width / average range width), floored. Missing profiles,
// disjoint ranges, and zero-width averages all score 0.
func scoreGrades(viewer, cand *Climber, shared []Discipline) int {
	if len(shared) == 0 {
		return 0
	}
	d := shared[0]

	mine, ok := viewer.disciplineProfile(d)
	if !ok {
		return 0
	}
	theirs, ok := cand.disciplineProfile(d)
	if !ok {
		return 0
	}

	lo := mine.ScoreMin
	if theirs.ScoreMin > lo {
		lo = theirs.ScoreMin
	}
	hi := mine.ScoreMax
	if theirs.ScoreMax < hi {
		hi = theirs.ScoreMax
	}
	if lo > hi {
		return 0
	}

	avg := float64((mine.ScoreMax-mine.ScoreMin)+(theirs.ScoreMax-theirs.ScoreMin)) / 2
	if avg <= 0 {
		return 0
	}
	return int(15 * float64(hi-lo) / avg)
}

var riskRank = map[RiskTolerance]int{
	RiskConservative: 0,
	RiskBalanced:     1,
	RiskAggressive:   2,
}

// scoreRisk rewards matching attitudes and penalizes opposite ones:
// same 10, adjacent 3, opposite ends -10. Unknown labels score 0 rather
// than failing the whole request.
func scoreRisk(a, b RiskTolerance) int {
	ra, ok := riskRank[a]
	rb, ok2 := riskRank[b]
	if !ok || !ok2 {
		return 0
	}
	diff := ra - rb
	if diff < 0 {
		diff = -diff
	}
	switch diff {
	case 0:
		return 10
	case 1:
		return 3
	default:
		return -10
	}
}

// scoreAvailability counts (date, time block) pairs both trips marked,
// ignoring rest blocks, capped at 5. It also returns the shared slots
// grouped by day for the match-detail view.
func scoreAvailability(trip, candTrip *Trip) (int, []DayAvailability) {
	type slotKey struct {
		day   string
		block TimeBlock
	}

	mine := make(map[slotKey]struct{}, len(trip.Availability))
	for _, s := range trip.Availability {
		if s.Block == TimeBlockRest {
			continue
		}
		mine[slotKey{fmtDate(s.Date), s.Block}] = struct{}{}
	}

	count := 0
	byDay := make(map[string][]TimeBlock)
	for _, s := range candTrip.Availability {
		if s.Block == TimeBlockRest {
			continue
		}
		k := slotKey{fmtDate(s.Date), s.Block}
		if _, ok := mine[k]; !ok {
			continue
		}
		delete(mine, k) // count duplicate rows once
		count++
		byDay[k.day] = append(byDay[k.day], k.block)
	}

	days := make([]DayAvailability, 0, len(byDay))
	for day, blocks := range byDay {
		sortTimeBlocks(blocks)
		days = append(days, DayAvailability{Date: day, TimeBlocks: blocks})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	score := count
	if score > 5 {
		score = 5
	}
	return score, days
}

// gradeOverlaps computes the comfort-range overlap for every shared
// discipline where both climbers have a profile. Disciplines with disjoint
// ranges are skipped; the first entry backs the grade sub-score.
func gradeOverlaps(viewer, cand *Climber, shared []Discipline) []GradeOverlap {
	var out []GradeOverlap
	for _, d := range shared {
		mine, ok := viewer.disciplineProfile(d)
		if !ok {
			continue
		}
		theirs, ok := cand.disciplineProfile(d)
		if !ok {
			continue
		}

		lo := mine.ScoreMin
		if theirs.ScoreMin > lo {
			lo = theirs.ScoreMin
		}
		hi := mine.ScoreMax
		if theirs.ScoreMax < hi {
			hi = theirs.ScoreMax
		}
		if lo > hi {
			continue
		}

		ratio := 0.0
		avg := float64((mine.ScoreMax-mine.ScoreMin)+(theirs.ScoreMax-theirs.ScoreMin)) / 2
		if avg > 0 {
			ratio = float64(hi-lo) / avg
		}
		out = append(out, GradeOverlap{
			Discipline:    d,
			System:        mine.GradeSystem,
			ScoreLow:      lo,
			ScoreHigh:     hi,
			Ratio:         ratio,
			Compatibility: compatibilityLabel(ratio),
		})
	}
	return out
}

// compatibilityLabel buckets a grade overlap ratio for display.
func compatibilityLabel(ratio float64) string {
	switch {
	case ratio >= 2.0/3.0:
		return "high"
	case ratio >= 1.0/3.0:
		return "medium"
	default:
		return "low"
	}
}

// intersectDisciplines returns the sorted intersection of two preference
// lists, deduplicated.
func intersectDisciplines(a, b []Discipline) []Discipline {
	inA := make(map[Discipline]struct{}, len(a))
	for _, d := range a {
		inA[d] = struct{}{}
	}
	seen := make(map[Discipline]struct{})
	var out []Discipline
	for _, d := range b {
		if _, ok := inA[d]; !ok {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func profiledDisciplines(c *Climber) map[Discipline]struct{} {
	set := make(map[Discipline]struct{}, len(c.Disciplines))
	for _, p := range c.Disciplines {
		set[p.Discipline] = struct{}{}
	}
	return set
}

func joinDisciplines(ds []Discipline) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = string(d)
	}
	return strings.Join(parts, ", ")
}

var timeBlockOrder = map[TimeBlock]int{
	TimeBlockMorning:   0,
	TimeBlockAfternoon: 1,
	TimeBlockFullDay:   2,
	TimeBlockRest:      3,
}

func sortTimeBlocks(blocks []TimeBlock) {
	sort.Slice(blocks, func(i, j int) bool {
		return timeBlockOrder[blocks[i]] < timeBlockOrder[blocks[j]]
	})
}
