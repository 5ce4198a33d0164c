package main

import (
	"database/sql"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Handler functions for the block list, the write side of the privacy filter.
//
// TERMINOLOGY
// block: blocker hides themself from blocked and vice versa; matching excludes
// the pair in both directions.
// unblock: removes MY block only. A block held by the other side still hides us
// from each other.

// A dispatcher router function for all /blocks... requests
func blocksRouter(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.Trim(r.URL.Path, "/")
		parts := strings.Split(path, "/")
		if len(parts) < 1 || parts[0] != "blocks" {
			http.NotFound(w, r)
			return
		}

		// GET /blocks → list users I have blocked
		if r.Method == http.MethodGet && len(parts) == 1 {
			blockedUsersHandler(db).ServeHTTP(w, r)
			return
		}

		// POST /blocks/{id} → block, DELETE /blocks/{id} → unblock
		if len(parts) == 2 {
			switch r.Method {
			case http.MethodPost:
				blockUserHandler(db).ServeHTTP(w, r)
			case http.MethodDelete:
				unblockUserHandler(db).ServeHTTP(w, r)
			default:
				writeError(w, http.StatusMethodNotAllowed, "invalid_method")
			}
			return
		}

		// Anything else under /blocks/ → 404
		http.NotFound(w, r)
	}
}

// POST /blocks/{id}
// Creates a block from the authenticated user to {id}. Idempotent: blocking an
// already-blocked user succeeds without creating a second row.
func blockUserHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		// Expect: /blocks/{id}
		if len(parts) != 2 || parts[0] != "blocks" {
			http.NotFound(w, r)
			return
		}
		targetID, err := uuid.Parse(parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}

		me, ok := viewerFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if targetID == me {
			writeError(w, http.StatusBadRequest, "Cannot block yourself")
			return
		}

		// Ensure target exists before writing anything.
		displayName, avatar, err := fetchUserSummary(db, targetID)
		if err == sql.ErrNoRows {
			writeError(w, http.StatusNotFound, "User not found")
			return
		} else if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("blockUserHandler lookup error:", err)
			return
		}

		err = withTx(r.Context(), db, func(tx *sql.Tx) error {
			row, err := loadBlockForUpdate(tx, me, targetID)
			if err != nil {
				return err
			}
			if row != nil {
				// Already blocked → idempotent OK
				return nil
			}
			_, err = tx.Exec(`
				INSERT INTO blocks (blocker_id, blocked_id)
				VALUES ($1, $2)
				ON CONFLICT (blocker_id, blocked_id) DO NOTHING
			`, me, targetID)
			return err
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("blockUserHandler tx error:", err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"message": "User blocked successfully",
			"blocked_user": map[string]string{
				"id":           targetID.String(),
				"display_name": displayName,
				"avatar":       avatar,
			},
		})
	})
}

// DELETE /blocks/{id}
// Removes the authenticated user's block on {id}. 404 when no such block
// exists; a block in the other direction is not mine to remove.
func unblockUserHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[0] != "blocks" {
			http.NotFound(w, r)
			return
		}
		targetID, err := uuid.Parse(parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, "User not blocked")
			return
		}

		me, ok := viewerFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		removed := false
		err = withTx(r.Context(), db, func(tx *sql.Tx) error {
			row, err := loadBlockForUpdate(tx, me, targetID)
			if err != nil {
				return err
			}
			if row == nil {
				return nil
			}
			if _, err := tx.Exec(`DELETE FROM blocks WHERE id = $1`, row.ID); err != nil {
				return err
			}
			removed = true
			return nil
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("unblockUserHandler tx error:", err)
			return
		}
		if !removed {
			writeError(w, http.StatusNotFound, "User not blocked")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "User unblocked successfully"})
	})
}

// GET /blocks
// Lists the users blocked by the authenticated user, newest block first.
func blockedUsersHandler(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		me, ok := viewerFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		rows, err := db.Query(`
			SELECT b.id, b.created_at, u.id, u.display_name, u.avatar
			FROM blocks b
			JOIN users u ON u.id = b.blocked_id
			WHERE b.blocker_id = $1
			ORDER BY b.created_at DESC, b.id DESC
		`, me)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("blockedUsersHandler query error:", err)
			return
		}
		defer rows.Close()

		type blockedUser struct {
			ID          string `json:"id"`
			DisplayName string `json:"display_name"`
			Avatar      string `json:"avatar"`
		}
		type blockEntry struct {
			ID          int64       `json:"id"`
			BlockedUser blockedUser `json:"blocked_user"`
			CreatedAt   time.Time   `json:"created_at"`
		}

		blocked := []blockEntry{}
		for rows.Next() {
			var e blockEntry
			var userID uuid.UUID
			if err := rows.Scan(&e.ID, &e.CreatedAt, &userID, &e.BlockedUser.DisplayName, &e.BlockedUser.Avatar); err != nil {
				writeError(w, http.StatusInternalServerError, "db_error")
				log.Println("blockedUsersHandler scan error:", err)
				return
			}
			e.BlockedUser.ID = userID.String()
			blocked = append(blocked, e)
		}
		if err := rows.Err(); err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("blockedUsersHandler rows error:", err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{"blocked": blocked})
	})
}
