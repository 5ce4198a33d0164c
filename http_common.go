package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// --- Response helpers ---
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func fetchUserSummary(db *sql.DB, userID uuid.UUID) (displayName, avatar string, err error) {
	err = db.QueryRow(
		"SELECT display_name, avatar FROM users WHERE id = $1",
		userID,
	).Scan(&displayName, &avatar)
	return
}

// withTx wraps a function in a database transaction.
// - Ensures COMMIT on success, ROLLBACK on errors or panics.
// - Keeps handler bodies tiny and all state changes atomic.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}

	defer func() {
		// If the callback panics, make sure to rollback before re-panicking
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// BlockRow represents one direction of a block between two users
type BlockRow struct {
	ID        int64
	BlockerID uuid.UUID
	BlockedID uuid.UUID
	CreatedAt time.Time
}

// loadBlockForUpdate returns the block row from blocker to blocked (one
// direction only; blocks are not symmetric at the storage level), and takes a
// row lock (`FOR UPDATE`) so no other concurrent request can modify it until
// our transaction finishes.
//   - Returns (nil, nil) if no row exists yet.
func loadBlockForUpdate(tx *sql.Tx, blocker, blocked uuid.UUID) (*BlockRow, error) {

	row := tx.QueryRow(`
		SELECT id, blocker_id, blocked_id, created_at
		FROM blocks
		WHERE blocker_id = $1 AND blocked_id = $2
		FOR UPDATE
	`, blocker, blocked)

	var b BlockRow
	if err := row.Scan(&b.ID, &b.BlockerID, &b.BlockedID, &b.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}
