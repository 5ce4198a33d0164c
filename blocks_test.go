package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

// ============================================================================
// BLOCK LIST TEST SUITE
// ============================================================================

func TestBlockingSuite(t *testing.T) {
	requireDB(t)

	userA := createTestUser(t, "block_a@example.com", "Blocker A")
	userB := createTestUser(t, "block_b@example.com", "Blocked B")
	defer cleanupTestData(userA.Email, userB.Email)

	t.Run("Block User", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/blocks/"+userB.ID.String(), userA.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
		}

		var resp struct {
			Message     string `json:"message"`
			BlockedUser struct {
				ID          string `json:"id"`
				DisplayName string `json:"display_name"`
			} `json:"blocked_user"`
		}
		decodeBody(t, w, &resp)

		if resp.Message != "User blocked successfully" {
			t.Errorf("expected block confirmation, got %q", resp.Message)
		}
		if resp.BlockedUser.ID != userB.ID.String() {
			t.Errorf("expected blocked user %s, got %s", userB.ID, resp.BlockedUser.ID)
		}
		if resp.BlockedUser.DisplayName != "Blocked B" {
			t.Errorf("expected display name Blocked B, got %q", resp.BlockedUser.DisplayName)
		}
	})

	t.Run("Blocking Twice Is Idempotent", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/blocks/"+userB.ID.String(), userA.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("expected status 201 on repeat block, got %d", w.Code)
		}

		var count int
		err := db.QueryRow(`SELECT COUNT(*) FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`,
			userA.ID, userB.ID).Scan(&count)
		if err != nil {
			t.Fatalf("count query failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected exactly one block row, got %d", count)
		}
	})

	t.Run("List Blocked Users", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/blocks", userA.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}

		var resp struct {
			Blocked []struct {
				BlockedUser struct {
					ID string `json:"id"`
				} `json:"blocked_user"`
			} `json:"blocked"`
		}
		decodeBody(t, w, &resp)

		found := false
		for _, e := range resp.Blocked {
			if e.BlockedUser.ID == userB.ID.String() {
				found = true
			}
		}
		if !found {
			t.Errorf("expected user B in the block list, got %+v", resp.Blocked)
		}
	})

	t.Run("Block List Is Per Viewer", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/blocks", userB.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", w.Code)
		}
		var resp struct {
			Blocked []struct{} `json:"blocked"`
		}
		decodeBody(t, w, &resp)
		if len(resp.Blocked) != 0 {
			t.Errorf("expected B's block list empty, got %d entries", len(resp.Blocked))
		}
	})

	t.Run("Cannot Block Yourself", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/blocks/"+userA.ID.String(), userA.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
		var resp map[string]string
		decodeBody(t, w, &resp)
		if resp["error"] != "Cannot block yourself" {
			t.Errorf("expected Cannot block yourself, got %v", resp)
		}
	})

	t.Run("Block Unknown User", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/blocks/"+uuid.NewString(), userA.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", w.Code)
		}
	})

	t.Run("Block Malformed ID", func(t *testing.T) {
		req := authedRequest(http.MethodPost, "/blocks/not-a-uuid", userA.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", w.Code)
		}
	})

	t.Run("Other Side Cannot Remove My Block", func(t *testing.T) {
		// A still blocks B; B holds no block of their own to delete.
		req := authedRequest(http.MethodDelete, "/blocks/"+userA.ID.String(), userB.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", w.Code)
		}
		var resp map[string]string
		decodeBody(t, w, &resp)
		if resp["error"] != "User not blocked" {
			t.Errorf("expected User not blocked, got %v", resp)
		}
	})

	t.Run("Unblock User", func(t *testing.T) {
		req := authedRequest(http.MethodDelete, "/blocks/"+userB.ID.String(), userA.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp map[string]string
		decodeBody(t, w, &resp)
		if resp["message"] != "User unblocked successfully" {
			t.Errorf("expected unblock confirmation, got %v", resp)
		}
	})

	t.Run("Unblock Without A Block", func(t *testing.T) {
		req := authedRequest(http.MethodDelete, "/blocks/"+userB.ID.String(), userA.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", w.Code)
		}
		var resp map[string]string
		decodeBody(t, w, &resp)
		if resp["error"] != "User not blocked" {
			t.Errorf("expected User not blocked, got %v", resp)
		}
	})

	t.Run("Invalid Method", func(t *testing.T) {
		req := authedRequest(http.MethodPut, "/blocks/"+userB.ID.String(), userA.Token)
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected status 405, got %d", w.Code)
		}
	})

	t.Run("Unauthorized", func(t *testing.T) {
		req := authedRequest(http.MethodGet, "/blocks", "")
		w := httptest.NewRecorder()

		blocksRouter(db).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", w.Code)
		}
	})
}
