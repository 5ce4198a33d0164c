package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func init() {
	jwtSecret = []byte("test-secret-key-for-testing")
}

// TestUser bundles what the handler tests need about a seeded user.
type TestUser struct {
	ID    uuid.UUID
	Email string
	Token string
}

func makeTestToken(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwtSecret)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

// createTestUser inserts a visible, verified user and returns it with a
// valid bearer token.
func createTestUser(t *testing.T, email, displayName string) TestUser {
	t.Helper()
	id := uuid.New()
	_, err := db.Exec(`
		INSERT INTO users (id, email, display_name, risk_tolerance, profile_visible, email_verified)
		VALUES ($1, $2, $3, 'balanced', TRUE, TRUE)`,
		id, email, displayName)
	if err != nil {
		t.Fatalf("failed to create test user %s: %v", email, err)
	}
	return TestUser{ID: id, Email: email, Token: makeTestToken(t, id)}
}

func setUserFlags(t *testing.T, userID uuid.UUID, visible, verified bool) {
	t.Helper()
	_, err := db.Exec(`UPDATE users SET profile_visible = $2, email_verified = $3 WHERE id = $1`,
		userID, visible, verified)
	if err != nil {
		t.Fatalf("failed to update user flags: %v", err)
	}
}

func createDisciplineProfile(t *testing.T, userID uuid.UUID, discipline, system, minDisplay, maxDisplay string, minScore, maxScore int) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO discipline_profiles (
			id, user_id, discipline, grade_system,
			comfortable_grade_min_display, comfortable_grade_max_display,
			comfortable_grade_min_score, comfortable_grade_max_score,
			years_experience, can_lead
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 3, TRUE)`,
		uuid.New(), userID, discipline, system, minDisplay, maxDisplay, minScore, maxScore)
	if err != nil {
		t.Fatalf("failed to create discipline profile: %v", err)
	}
}

func addExperienceTag(t *testing.T, userID uuid.UUID, slug, label string) {
	t.Helper()
	if _, err := db.Exec(`
		INSERT INTO experience_tags (slug, label) VALUES ($1, $2)
		ON CONFLICT (slug) DO NOTHING`, slug, label); err != nil {
		t.Fatalf("failed to seed experience tag: %v", err)
	}
	if _, err := db.Exec(`
		INSERT INTO user_experience_tags (user_id, tag_slug) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, userID, slug); err != nil {
		t.Fatalf("failed to link experience tag: %v", err)
	}
}

func ensureTestDestination(t *testing.T, slug, name, country string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO destinations (slug, name, country)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name, country = EXCLUDED.country`,
		slug, name, country)
	if err != nil {
		t.Fatalf("failed to seed destination %s: %v", slug, err)
	}
}

func createTestTrip(t *testing.T, userID uuid.UUID, destSlug, start, end string, disciplines []string) uuid.UUID {
	t.Helper()
	prefs, err := json.Marshal(disciplines)
	if err != nil {
		t.Fatalf("failed to marshal disciplines: %v", err)
	}
	id := uuid.New()
	_, err = db.Exec(`
		INSERT INTO trips (id, user_id, destination_slug, start_date, end_date, preferred_disciplines, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)`,
		id, userID, destSlug, start, end, prefs)
	if err != nil {
		t.Fatalf("failed to create test trip: %v", err)
	}
	return id
}

func addAvailability(t *testing.T, tripID uuid.UUID, date, block string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO availability_blocks (trip_id, date, time_block) VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`,
		tripID, date, block)
	if err != nil {
		t.Fatalf("failed to add availability: %v", err)
	}
}

func seedGradeRow(t *testing.T, discipline string, score int, yds, french, vScale string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO grade_conversions (discipline, score, yds_grade, french_grade, v_scale_grade)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (discipline, score) DO UPDATE
		SET yds_grade = EXCLUDED.yds_grade,
		    french_grade = EXCLUDED.french_grade,
		    v_scale_grade = EXCLUDED.v_scale_grade`,
		discipline, score, yds, french, vScale)
	if err != nil {
		t.Fatalf("failed to seed grade conversion: %v", err)
	}
}

// cleanupTestData removes test users by email; the schema cascades take the
// profiles, trips, availability and blocks with them.
func cleanupTestData(emails ...string) {
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// authedRequest builds a request carrying the user's bearer token.
func authedRequest(method, target, token string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(into); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}
