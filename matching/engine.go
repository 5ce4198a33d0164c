// Package matching implements the partner-matching engine for climbing
// trips: candidate filtering with bilateral block exclusion, six-factor
// pairwise scoring, and assembly of ranked match results.
package matching

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is used when a caller passes no limit (or a nonsense one).
	DefaultLimit = 10
	// MaxLimit caps how many matches a single request may return.
	MaxLimit = 50

	// scoreThreshold is the strict minimum: a candidate must score more
	// than this to appear at all.
	scoreThreshold = 20
)

// Service runs the matching pipeline against a Directory.
type Service struct {
	dir Directory
	now func() time.Time
}

// NewService returns a Service backed by the given directory.
func NewService(dir Directory) *Service {
	return &Service{dir: dir, now: time.Now}
}

// ClampLimit normalizes a requested result count to 1..MaxLimit, applying
// DefaultLimit for zero or negative values.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// NextTrip resolves the viewer's soonest upcoming active trip, the fallback
// used when a request names no trip. Returns ErrNoUpcomingTrips.
func (s *Service) NextTrip(ctx context.Context, viewerID uuid.UUID) (*Trip, error) {
	return s.dir.NextTripForOwner(ctx, viewerID, dateOnly(s.now()))
}

// GetMatches scores every eligible candidate for the viewer's trip and
// returns the trip plus the top results, ordered by score descending.
// Returns ErrTripNotFound when the trip is missing or not the viewer's.
// An empty slice is a valid answer, not an error.
func (s *Service) GetMatches(ctx context.Context, viewerID, tripID uuid.UUID, limit int) (*Trip, []MatchResult, error) {
	trip, scored, err := s.matchTrip(ctx, viewerID, tripID)
	if err != nil {
		return nil, nil, err
	}

	limit = ClampLimit(limit)
	if len(scored) > limit {
		scored = scored[:limit]
	}

	results := make([]MatchResult, 0, len(scored))
	for _, sc := range scored {
		results = append(results, buildResult(sc))
	}
	return trip, results, nil
}

// GetMatch returns the detailed result for one matched user on the viewer's
// trip. The candidate must rank within the top MaxLimit matches; otherwise
// ErrMatchNotFound.
func (s *Service) GetMatch(ctx context.Context, viewerID, tripID, matchedUserID uuid.UUID) (*Trip, *MatchDetail, error) {
	trip, scored, err := s.matchTrip(ctx, viewerID, tripID)
	if err != nil {
		return nil, nil, err
	}

	if len(scored) > MaxLimit {
		scored = scored[:MaxLimit]
	}
	for _, sc := range scored {
		if sc.cand.Climber.ID == matchedUserID {
			detail := buildDetail(sc)
			return trip, &detail, nil
		}
	}
	return nil, nil, ErrMatchNotFound
}

// scoredCandidate keeps a candidate together with its score breakdown while
// the list is filtered and sorted.
type scoredCandidate struct {
	cand Candidate
	b    breakdown
}

func (s *Service) matchTrip(ctx context.Context, viewerID, tripID uuid.UUID) (*Trip, []scoredCandidate, error) {
	trip, err := s.dir.TripForOwner(ctx, viewerID, tripID)
	if err != nil {
		return nil, nil, err
	}
	viewer, err := s.dir.ClimberByID(ctx, viewerID)
	if err != nil {
		return nil, nil, err
	}

	// The exclusion set is computed once, up front. Nothing in it may ever
	// reach the scorer, independent of what Candidates returns.
	excluded, err := s.dir.ExcludedIDs(ctx, viewerID)
	if err != nil {
		return nil, nil, err
	}

	candidates, err := s.dir.Candidates(ctx, trip)
	if err != nil {
		return nil, nil, err
	}

	var scored []scoredCandidate
	for _, cand := range candidates {
		if cand.Climber == nil || cand.Trip == nil {
			continue
		}
		if cand.Climber.ID == viewerID {
			continue
		}
		if _, blocked := excluded[cand.Climber.ID]; blocked {
			continue
		}

		b := scorePair(viewer, trip, cand.Climber, cand.Trip)
		if b.Total > scoreThreshold {
			scored = append(scored, scoredCandidate{cand: cand, b: b})
		}
	}

	// Highest score first; ties break on candidate id so the order is
	// stable across runs.
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].b.Total != scored[j].b.Total {
			return scored[i].b.Total > scored[j].b.Total
		}
		return scored[i].cand.Climber.ID.String() < scored[j].cand.Climber.ID.String()
	})

	if len(scored) > 0 {
		sum := 0
		for _, sc := range scored {
			sum += sc.b.Total
		}
		avg := float64(sum) / float64(len(scored))
		log.Printf("Generated %d matches for trip %s (avg score %.1f, top score %d, viewer %s)",
			len(scored), trip.ID, avg, scored[0].b.Total, viewerID)
	} else {
		log.Printf("No matches found for trip %s (viewer %s)", trip.ID, viewerID)
	}

	return trip, scored, nil
}

func buildResult(sc scoredCandidate) MatchResult {
	reasons := sc.b.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	common := sc.cand.Trip.PreferredDisciplines
	if common == nil {
		common = []Discipline{}
	}
	return MatchResult{
		MatchedUser:         NewMatchUser(sc.cand.Climber),
		Trip:                NewMatchTrip(sc.cand.Trip),
		Score:               sc.b.Total,
		CommonDisciplines:   common,
		SkillMatch:          skillMatchReason(reasons),
		AvailabilityOverlap: sc.b.Overlap.Days,
		Reasons:             reasons,
		OverlapDates:        sc.b.Overlap,
	}
}

func buildDetail(sc scoredCandidate) MatchDetail {
	blocks := sc.b.SharedDays
	if blocks == nil {
		blocks = []DayAvailability{}
	}
	shared := sc.b.Shared
	if shared == nil {
		shared = []Discipline{}
	}
	return MatchDetail{
		MatchResult:        buildResult(sc),
		AvailabilityBlocks: blocks,
		SharedDisciplines:  shared,
		GradeOverlaps:      sc.b.GradeRanges,
	}
}

// skillMatchReason picks the grade-related reason, if any, for the
// skill_match response field.
func skillMatchReason(reasons []string) string {
	for _, r := range reasons {
		lower := strings.ToLower(r)
		if strings.Contains(lower, "grade") || strings.Contains(lower, "skill") {
			return r
		}
	}
	return ""
}
