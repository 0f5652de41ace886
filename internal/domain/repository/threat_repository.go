package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/pkg/constants"
)

// ThreatFilter narrows threat detection listings.
type ThreatFilter struct {
	OrganizationID uuid.UUID
	ProfileID      *uuid.UUID
	RiskLevel      constants.RiskLevel
	Resolved       *bool
	Limit          int
}

// ThreatRepository persists threat detections.
type ThreatRepository interface {
	// Create stores a new, unresolved detection.
	Create(ctx context.Context, threat *models.ThreatDetection) error

	// FindByID returns a detection, or a not-found error.
	FindByID(ctx context.Context, id uuid.UUID) (*models.ThreatDetection, error)

	// List returns detections matching the filter, newest first.
	List(ctx context.Context, filter ThreatFilter) ([]*models.ThreatDetection, error)

	// Resolve performs the single unresolved-to-resolved transition as a
	// conditional write: it succeeds only when the detection is currently
	// unresolved and returns a conflict error otherwise.
	Resolve(ctx context.Context, id, resolverID uuid.UUID, note string) error
}
