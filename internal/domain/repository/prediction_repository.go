package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/pkg/constants"
)

// PredictionFilter narrows ML prediction listings.
type PredictionFilter struct {
	ProfileID      *uuid.UUID
	ThreatClass    constants.ThreatClass
	RequiresReview *bool
	Limit          int
}

// PredictionRepository stores externally-produced ML ensemble predictions.
// Rows arrive from the external service; this core writes back only the
// terminal review transition.
type PredictionRepository interface {
	// Upsert stores or refreshes a prediction row from the external feed.
	// Review fields are never touched by an upsert.
	Upsert(ctx context.Context, prediction *models.MLPrediction) error

	// FindByID returns a prediction, or a not-found error.
	FindByID(ctx context.Context, id uuid.UUID) (*models.MLPrediction, error)

	// List returns predictions matching the filter, newest first, joined
	// with activity and profile summaries.
	List(ctx context.Context, filter PredictionFilter) ([]*models.PredictionView, error)

	// MarkReviewed performs the terminal review transition as a
	// conditional write: it succeeds only when the prediction has no
	// reviewer yet and returns a conflict error otherwise, so two
	// concurrent reviewers can never both succeed.
	MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) error
}
