package matching

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryDirectory is an in-memory implementation of Directory used for unit
// testing the engine and for running the backend without a database.
type MemoryDirectory struct {
	mu       sync.RWMutex
	climbers map[uuid.UUID]*Climber
	trips    map[uuid.UUID]*Trip
	blocks   map[uuid.UUID]map[uuid.UUID]struct{} // blocker -> blocked set
}

// NewMemoryDirectory returns an empty directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		climbers: make(map[uuid.UUID]*Climber),
		trips:    make(map[uuid.UUID]*Trip),
		blocks:   make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// AddClimber stores or replaces a climber.
func (m *MemoryDirectory) AddClimber(c *Climber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.climbers[c.ID] = c
}

// AddTrip stores or replaces a trip.
func (m *MemoryDirectory) AddTrip(t *Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[t.ID] = t
}

// Block records a directed block from blocker to blocked.
func (m *MemoryDirectory) Block(blocker, blocked uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blocks[blocker] == nil {
		m.blocks[blocker] = make(map[uuid.UUID]struct{})
	}
	m.blocks[blocker][blocked] = struct{}{}
}

// Unblock removes a directed block if present.
func (m *MemoryDirectory) Unblock(blocker, blocked uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blocks[blocker], blocked)
}

func (m *MemoryDirectory) ClimberByID(_ context.Context, id uuid.UUID) (*Climber, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.climbers[id]
	if !ok {
		return nil, ErrClimberNotFound
	}
	return c, nil
}

func (m *MemoryDirectory) TripForOwner(_ context.Context, ownerID, tripID uuid.UUID) (*Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.trips[tripID]
	if !ok || t.OwnerID != ownerID {
		return nil, ErrTripNotFound
	}
	return t, nil
}

func (m *MemoryDirectory) NextTripForOwner(_ context.Context, ownerID uuid.UUID, from time.Time) (*Trip, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var next *Trip
	for _, t := range m.trips {
		if t.OwnerID != ownerID || !t.IsActive || t.StartDate.Before(from) {
			continue
		}
		if next == nil || t.StartDate.Before(next.StartDate) {
			next = t
		}
	}
	if next == nil {
		return nil, ErrNoUpcomingTrips
	}
	return next, nil
}

func (m *MemoryDirectory) ExcludedIDs(_ context.Context, viewerID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[uuid.UUID]struct{})
	for blocked := range m.blocks[viewerID] {
		out[blocked] = struct{}{}
	}
	for blocker, set := range m.blocks {
		if _, ok := set[viewerID]; ok {
			out[blocker] = struct{}{}
		}
	}
	return out, nil
}

func (m *MemoryDirectory) Candidates(_ context.Context, trip *Trip) ([]Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	excluded := make(map[uuid.UUID]struct{})
	for blocked := range m.blocks[trip.OwnerID] {
		excluded[blocked] = struct{}{}
	}
	for blocker, set := range m.blocks {
		if _, ok := set[trip.OwnerID]; ok {
			excluded[blocker] = struct{}{}
		}
	}

	// Group each user's eligible trips, then keep the earliest one.
	eligible := make(map[uuid.UUID][]*Trip)
	for _, t := range m.trips {
		if t.OwnerID == trip.OwnerID || !t.IsActive {
			continue
		}
		if t.Destination.Slug != trip.Destination.Slug {
			continue
		}
		if t.StartDate.After(trip.EndDate) || t.EndDate.Before(trip.StartDate) {
			continue
		}
		if _, ok := excluded[t.OwnerID]; ok {
			continue
		}
		eligible[t.OwnerID] = append(eligible[t.OwnerID], t)
	}

	var out []Candidate
	for ownerID, trips := range eligible {
		c, ok := m.climbers[ownerID]
		if !ok || !c.ProfileVisible || !c.EmailVerified {
			continue
		}
		sort.Slice(trips, func(i, j int) bool {
			if !trips[i].StartDate.Equal(trips[j].StartDate) {
				return trips[i].StartDate.Before(trips[j].StartDate)
			}
			return trips[i].CreatedAt.Before(trips[j].CreatedAt)
		})
		out = append(out, Candidate{Climber: c, Trip: trips[0]})
	}

	// Deterministic order for tests; the engine re-sorts by score anyway.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Climber.ID.String() < out[j].Climber.ID.String()
	})
	return out, nil
}
