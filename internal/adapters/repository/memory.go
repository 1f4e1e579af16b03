package repository

import (
	"context"
	"sync"

	"github.com/pathwise/engine/internal/domain/profile"
)

// MemoryStore keeps profiles in process memory. Profiles are cloned on
// the way in and out so callers never share mutable state with the
// store.
type MemoryStore struct {
	mu       sync.RWMutex
	profiles map[string]*profile.Profile
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles: make(map[string]*profile.Profile),
	}
}

// Load implements Store.
func (s *MemoryStore) Load(ctx context.Context, userID string) (*profile.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

// Save implements Store.
func (s *MemoryStore) Save(ctx context.Context, p *profile.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p == nil || p.UserID == "" {
		return ErrInvalidProfile
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.UserID] = p.Clone()
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of stored profiles.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}
