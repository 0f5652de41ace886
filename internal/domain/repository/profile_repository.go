// Package repository defines the persistence interfaces for the domain.
// The backing store is the single source of truth and the sole
// synchronization point; no implementation may keep cross-request state.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/domain/models"
)

// ProfileRepository persists monitored profiles and owns the score ledger.
type ProfileRepository interface {
	// FindByID returns the profile by its identifier, or a not-found error.
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	// FindByUser resolves the profile for a user within an organization.
	FindByUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Profile, error)

	// Save persists a new profile.
	Save(ctx context.Context, profile *models.Profile) error

	// Deactivate soft-deactivates a profile. Profiles are never deleted
	// while activity history references them.
	Deactivate(ctx context.Context, id uuid.UUID) error

	// ApplyScoreDelta atomically reads the profile's score, clamps
	// current+delta into the valid range, persists the new score with its
	// update timestamp, and appends a score history entry carrying both the
	// previous and the new value. Concurrent deltas against the same
	// profile must all be applied in some serial order.
	ApplyScoreDelta(ctx context.Context, profileID uuid.UUID, delta int, reason string) (previous, current int, err error)

	// ScoreHistory returns the append-only history for a profile, newest
	// first, capped by limit when limit > 0.
	ScoreHistory(ctx context.Context, profileID uuid.UUID, limit int) ([]*models.ScoreHistoryEntry, error)
}
