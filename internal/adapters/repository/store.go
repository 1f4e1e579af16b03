// Package repository persists behavioral profiles. Two backends are
// provided: an in-memory store for single-node deployments and tests,
// and a Redis store for shared state.
package repository

import (
	"context"

	"github.com/pathwise/engine/internal/domain/profile"
)

// Store provides read/write access to persisted profiles.
type Store interface {
	// Load returns the profile for userID.
	// Returns ErrNotFound when the user has no stored profile.
	Load(ctx context.Context, userID string) (*profile.Profile, error)

	// Save persists the profile, replacing any previous version.
	Save(ctx context.Context, p *profile.Profile) error

	// Close releases backend resources.
	Close() error
}
