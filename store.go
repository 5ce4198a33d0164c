package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonnyvector/send-buddy-sub000/matching"
)

// pgDirectory is the Postgres implementation of matching.Directory. Inline SQL
// against the schema in migrations/; one query per concern, no ORM.
type pgDirectory struct {
	db *sql.DB
}

func newPGDirectory(db *sql.DB) *pgDirectory {
	return &pgDirectory{db: db}
}

func (s *pgDirectory) ClimberByID(ctx context.Context, id uuid.UUID) (*matching.Climber, error) {
	var c matching.Climber
	err := s.db.QueryRowContext(ctx, `
		SELECT id, display_name, avatar, bio, home_location, risk_tolerance,
		       profile_visible, email_verified, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.DisplayName, &c.Avatar, &c.Bio, &c.HomeLocation, &c.RiskTolerance,
		&c.ProfileVisible, &c.EmailVerified, &c.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, matching.ErrClimberNotFound
	} else if err != nil {
		return nil, err
	}

	if c.Disciplines, err = s.loadDisciplineProfiles(ctx, id); err != nil {
		return nil, err
	}
	if c.ExperienceTags, err = s.loadExperienceTags(ctx, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *pgDirectory) loadDisciplineProfiles(ctx context.Context, userID uuid.UUID) ([]matching.DisciplineProfile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, discipline, grade_system,
		       comfortable_grade_min_display, comfortable_grade_max_display,
		       projecting_grade_display,
		       comfortable_grade_min_score, comfortable_grade_max_score,
		       years_experience, can_lead, can_belay, can_build_anchors, notes
		FROM discipline_profiles
		WHERE user_id = $1
		ORDER BY discipline
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := []matching.DisciplineProfile{}
	for rows.Next() {
		var p matching.DisciplineProfile
		if err := rows.Scan(
			&p.ID, &p.Discipline, &p.GradeSystem,
			&p.GradeMinDisplay, &p.GradeMaxDisplay, &p.ProjectingGrade,
			&p.ScoreMin, &p.ScoreMax,
			&p.YearsExperience, &p.CanLead, &p.CanBelay, &p.CanBuildAnchors, &p.Notes,
		); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

func (s *pgDirectory) loadExperienceTags(ctx context.Context, userID uuid.UUID) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag_slug FROM user_experience_tags
		WHERE user_id = $1
		ORDER BY tag_slug
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []string{}
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		tags = append(tags, slug)
	}
	return tags, rows.Err()
}

// tripColumns is the SELECT list every trip query shares; scanTrip is its
// counterpart.
const tripColumns = `
	t.id, t.user_id, t.start_date, t.end_date, t.preferred_disciplines,
	t.is_active, t.created_at, d.slug, d.name, d.country`

func scanTrip(row interface{ Scan(...interface{}) error }) (*matching.Trip, error) {
	var t matching.Trip
	var prefs []byte
	if err := row.Scan(
		&t.ID, &t.OwnerID, &t.StartDate, &t.EndDate, &prefs,
		&t.IsActive, &t.CreatedAt,
		&t.Destination.Slug, &t.Destination.Name, &t.Destination.Country,
	); err != nil {
		return nil, err
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &t.PreferredDisciplines); err != nil {
			log.Println("scanTrip: bad preferred_disciplines for trip", t.ID, ":", err)
			t.PreferredDisciplines = nil
		}
	}
	return &t, nil
}

func (s *pgDirectory) TripForOwner(ctx context.Context, ownerID, tripID uuid.UUID) (*matching.Trip, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+tripColumns+`
		FROM trips t
		JOIN destinations d ON d.slug = t.destination_slug
		WHERE t.id = $1 AND t.user_id = $2
	`, tripID, ownerID)

	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, matching.ErrTripNotFound
	} else if err != nil {
		return nil, err
	}
	if err := s.loadTripExtras(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *pgDirectory) NextTripForOwner(ctx context.Context, ownerID uuid.UUID, from time.Time) (*matching.Trip, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT`+tripColumns+`
		FROM trips t
		JOIN destinations d ON d.slug = t.destination_slug
		WHERE t.user_id = $1 AND t.is_active AND t.start_date >= $2
		ORDER BY t.start_date, t.created_at
		LIMIT 1
	`, ownerID, from)

	t, err := scanTrip(row)
	if err == sql.ErrNoRows {
		return nil, matching.ErrNoUpcomingTrips
	} else if err != nil {
		return nil, err
	}
	if err := s.loadTripExtras(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// loadTripExtras fills the crag and availability lists for a trip.
func (s *pgDirectory) loadTripExtras(ctx context.Context, t *matching.Trip) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.slug
		FROM trip_crags tc
		JOIN crags c ON c.id = tc.crag_id
		WHERE tc.trip_id = $1
		ORDER BY c.slug
	`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	t.PreferredCrags = nil
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return err
		}
		t.PreferredCrags = append(t.PreferredCrags, slug)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	avRows, err := s.db.QueryContext(ctx, `
		SELECT date, time_block
		FROM availability_blocks
		WHERE trip_id = $1
		ORDER BY date, time_block
	`, t.ID)
	if err != nil {
		return err
	}
	defer avRows.Close()
	t.Availability = nil
	for avRows.Next() {
		var slot matching.AvailabilitySlot
		if err := avRows.Scan(&slot.Date, &slot.Block); err != nil {
			return err
		}
		t.Availability = append(t.Availability, slot)
	}
	return avRows.Err()
}

func (s *pgDirectory) ExcludedIDs(ctx context.Context, viewerID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CASE WHEN blocker_id = $1 THEN blocked_id ELSE blocker_id END
		FROM blocks
		WHERE blocker_id = $1 OR blocked_id = $1
	`, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	excluded := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		excluded[id] = struct{}{}
	}
	return excluded, rows.Err()
}

// Candidates selects, per other user, the first active trip to the same
// destination whose dates overlap the viewer's trip. Visibility, email
// verification, and blocks (either direction) are filtered in SQL so excluded
// users never leave the database.
func (s *pgDirectory) Candidates(ctx context.Context, trip *matching.Trip) ([]matching.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT ON (t.user_id)`+tripColumns+`
		FROM trips t
		JOIN destinations d ON d.slug = t.destination_slug
		JOIN users u ON u.id = t.user_id
		WHERE t.destination_slug = $1
		  AND t.is_active
		  AND t.user_id <> $2
		  AND t.start_date <= $3
		  AND t.end_date >= $4
		  AND u.profile_visible
		  AND u.email_verified
		  AND NOT EXISTS (
		      SELECT 1
		      FROM blocks b
		      WHERE (b.blocker_id = $2 AND b.blocked_id = t.user_id)
		         OR (b.blocker_id = t.user_id AND b.blocked_id = $2)
		  )
		ORDER BY t.user_id, t.start_date, t.created_at
	`, trip.Destination.Slug, trip.OwnerID, trip.EndDate, trip.StartDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*matching.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	candidates := make([]matching.Candidate, 0, len(trips))
	for _, t := range trips {
		if err := s.loadTripExtras(ctx, t); err != nil {
			return nil, err
		}
		climber, err := s.ClimberByID(ctx, t.OwnerID)
		if err != nil {
			if err == matching.ErrClimberNotFound {
				continue
			}
			return nil, err
		}
		candidates = append(candidates, matching.Candidate{Climber: climber, Trip: t})
	}
	return candidates, nil
}
