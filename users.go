package main

import (
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonnyvector/send-buddy-sub000/matching"
)

// GET /users/{id}
// Public profile of another user: the page a match notification's action_url
// opens. Private profiles return 403; a block in either direction answers
// "User not found" so a block never reveals itself.
func userHandler(db *sql.DB, store *pgDirectory) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			return
		}
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// Expect: /users/{id}
		if len(parts) != 2 || parts[0] != "users" {
			http.NotFound(w, r)
			return
		}
		targetID, err := uuid.Parse(parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		requesterID, ok := viewerFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var c matching.Climber
		var gradeSystem matching.GradeSystem
		err = db.QueryRow(`
			SELECT id, display_name, avatar, bio, home_location, risk_tolerance,
			       preferred_grade_system, profile_visible, created_at
			FROM users
			WHERE id = $1
		`, targetID).Scan(
			&c.ID, &c.DisplayName, &c.Avatar, &c.Bio, &c.HomeLocation, &c.RiskTolerance,
			&gradeSystem, &c.ProfileVisible, &c.CreatedAt,
		)
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "User not found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("userHandler query error:", err)
			return
		}

		if !c.ProfileVisible {
			writeError(w, http.StatusForbidden, "This profile is private")
			return
		}

		var blocked bool
		if err := db.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM blocks
				WHERE (blocker_id = $1 AND blocked_id = $2)
				   OR (blocker_id = $2 AND blocked_id = $1)
			)
		`, requesterID, targetID).Scan(&blocked); err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("userHandler block check error:", err)
			return
		}
		if blocked {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}

		if c.Disciplines, err = store.loadDisciplineProfiles(r.Context(), targetID); err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("userHandler disciplines error:", err)
			return
		}
		if c.ExperienceTags, err = store.loadExperienceTags(r.Context(), targetID); err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("userHandler tags error:", err)
			return
		}

		type publicProfile struct {
			matching.MatchUser
			PreferredGradeSystem matching.GradeSystem `json:"preferred_grade_system"`
			CreatedAt            time.Time            `json:"created_at"`
		}
		writeJSON(w, http.StatusOK, publicProfile{
			MatchUser:            matching.NewMatchUser(&c),
			PreferredGradeSystem: gradeSystem,
			CreatedAt:            c.CreatedAt,
		})
	})
}
