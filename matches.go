package main

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonnyvector/send-buddy-sub000/matching"
)

// parseLimit reads the ?limit query parameter, falling back to the engine
// default when absent or malformed. The engine clamps it to its maximum.
func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return matching.DefaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return matching.DefaultLimit
	}
	return n
}

// tripIDFromRequest resolves the ?trip parameter. When absent, the viewer's
// soonest upcoming active trip is used, same as the mobile app's home screen.
func tripIDFromRequest(r *http.Request, svc *matching.Service, viewerID uuid.UUID) (uuid.UUID, error) {
	raw := r.URL.Query().Get("trip")
	if raw != "" {
		tripID, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, matching.ErrTripNotFound
		}
		return tripID, nil
	}
	trip, err := svc.NextTrip(r.Context(), viewerID)
	if err != nil {
		return uuid.Nil, err
	}
	return trip.ID, nil
}

// writeMatchError maps engine errors onto HTTP responses and counts the
// outcome. Not-found keeps the original wording so clients can show it as-is.
func writeMatchError(w http.ResponseWriter, endpoint string, err error) {
	switch {
	case errors.Is(err, matching.ErrTripNotFound):
		matchRequestsTotal.WithLabelValues(endpoint, "not_found").Inc()
		writeError(w, http.StatusNotFound, "Trip not found")
	case errors.Is(err, matching.ErrNoUpcomingTrips):
		matchRequestsTotal.WithLabelValues(endpoint, "not_found").Inc()
		writeError(w, http.StatusNotFound, "No upcoming trips")
	case errors.Is(err, matching.ErrMatchNotFound):
		matchRequestsTotal.WithLabelValues(endpoint, "not_found").Inc()
		writeError(w, http.StatusNotFound, "Match not found")
	default:
		matchRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		writeError(w, http.StatusInternalServerError, "db_error")
		log.Println("match", endpoint, "error:", err)
	}
}

// GET /matches?trip=<uuid>&limit=n
// Runs the matching engine for one of the viewer's trips and returns the trip
// together with its ranked matches.
func matchesHandler(db *sql.DB, svc *matching.Service) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		viewerID, ok := viewerFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tripID, err := tripIDFromRequest(r, svc, viewerID)
		if err != nil {
			writeMatchError(w, "list", err)
			return
		}

		start := time.Now()
		trip, results, err := svc.GetMatches(r.Context(), viewerID, tripID, parseLimit(r))
		if err != nil {
			writeMatchError(w, "list", err)
			return
		}
		matchDuration.Observe(time.Since(start).Seconds())
		matchRequestsTotal.WithLabelValues("list", "ok").Inc()
		matchesReturned.Observe(float64(len(results)))
		for _, m := range results {
			matchScores.Observe(float64(m.Score))
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"trip":    matching.NewMatchTrip(trip),
			"matches": results,
		})
	})
}

type gradeCompatibility struct {
	OverlapRange  string `json:"overlap_range"`
	Compatibility string `json:"compatibility"`
}

type matchDetailResponse struct {
	matching.MatchDetail
	GradeCompatibility map[string]gradeCompatibility `json:"grade_compatibility"`
}

// gradeCompatibilityMap renders each shared discipline's comfort-range
// overlap as display grades in the viewer's grade system, e.g.
// "5.10a - 5.11c" with a high/medium/low label.
func gradeCompatibilityMap(db *sql.DB, detail *matching.MatchDetail) map[string]gradeCompatibility {
	out := map[string]gradeCompatibility{}
	for _, g := range detail.GradeOverlaps {
		entry := gradeCompatibility{Compatibility: g.Compatibility}

		low, lerr := scoreToGrade(db, g.ScoreLow, g.System, g.Discipline)
		high, herr := scoreToGrade(db, g.ScoreHigh, g.System, g.Discipline)
		if lerr != nil || herr != nil {
			log.Println("gradeCompatibilityMap conversion error:", lerr, herr)
		} else if low != "" && high != "" {
			if low == high {
				entry.OverlapRange = low
			} else {
				entry.OverlapRange = low + " - " + high
			}
		}

		out[string(g.Discipline)] = entry
	}
	return out
}

// GET /matches/{user_id}?trip=<uuid>
// Detail view for a single match: everything the list returns plus per-day
// availability overlap and grade compatibility per shared discipline.
func matchDetailHandler(db *sql.DB, svc *matching.Service) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// Expect: /matches/{user_id}
		if len(parts) != 2 || parts[0] != "matches" {
			http.NotFound(w, r)
			return
		}
		matchedUserID, err := uuid.Parse(parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, "Match not found")
			return
		}

		viewerID, ok := viewerFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		tripID, err := tripIDFromRequest(r, svc, viewerID)
		if err != nil {
			writeMatchError(w, "detail", err)
			return
		}

		start := time.Now()
		_, detail, err := svc.GetMatch(r.Context(), viewerID, tripID, matchedUserID)
		if err != nil {
			writeMatchError(w, "detail", err)
			return
		}
		matchDuration.Observe(time.Since(start).Seconds())
		matchRequestsTotal.WithLabelValues("detail", "ok").Inc()

		writeJSON(w, http.StatusOK, matchDetailResponse{
			MatchDetail:        *detail,
			GradeCompatibility: gradeCompatibilityMap(db, detail),
		})
	})
}
