package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/domain/models"
)

// ActivityRepository persists immutable activity events.
type ActivityRepository interface {
	// Create appends a new activity event. Events are never mutated.
	Create(ctx context.Context, event *models.ActivityEvent) error

	// FindByID returns an activity event, or a not-found error.
	FindByID(ctx context.Context, id uuid.UUID) (*models.ActivityEvent, error)

	// ListByProfile returns a profile's events, newest first, capped by
	// limit when limit > 0.
	ListByProfile(ctx context.Context, profileID uuid.UUID, limit int) ([]*models.ActivityEvent, error)
}
