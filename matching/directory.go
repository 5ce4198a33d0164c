package matching

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors returned by the engine and its Directory implementations.
// "Not found" deliberately covers both a missing trip and a trip owned by
// somebody else, so callers cannot probe for other users' trip ids.
var (
	ErrTripNotFound    = errors.New("trip not found")
	ErrNoUpcomingTrips = errors.New("no upcoming trips")
	ErrClimberNotFound = errors.New("climber not found")
	ErrMatchNotFound   = errors.New("match not found")
)

// Directory is the engine's data-access seam. The Postgres store implements
// it for production and MemoryDirectory implements it for tests and local
// development.
type Directory interface {
	// ClimberByID loads a climber with discipline profiles and tags.
	// Returns ErrClimberNotFound when the id is unknown.
	ClimberByID(ctx context.Context, id uuid.UUID) (*Climber, error)

	// TripForOwner loads a trip only if it belongs to ownerID, fully
	// populated (destination, crags, availability). Returns ErrTripNotFound
	// when the trip does not exist or is owned by someone else.
	TripForOwner(ctx context.Context, ownerID, tripID uuid.UUID) (*Trip, error)

	// NextTripForOwner returns the owner's soonest active trip starting on
	// or after the given date, or ErrNoUpcomingTrips.
	NextTripForOwner(ctx context.Context, ownerID uuid.UUID, from time.Time) (*Trip, error)

	// ExcludedIDs returns every user id involved in a block with viewerID,
	// in either direction.
	ExcludedIDs(ctx context.Context, viewerID uuid.UUID) (map[uuid.UUID]struct{}, error)

	// Candidates returns visible, email-verified climbers (other than the
	// trip owner) together with their first active trip to the same
	// destination whose dates overlap the given trip inclusively.
	// Implementations also drop users blocked by or blocking the owner;
	// the engine re-applies that exclusion before scoring regardless.
	Candidates(ctx context.Context, trip *Trip) ([]Candidate, error)
}
