package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/pkg/constants"
)

// ExplainRequest is the input to the external explanation service.
type ExplainRequest struct {
	ProfileID     uuid.UUID
	ActivityType  constants.ActivityType
	Description   string
	Score         int
	PreviousScore int
	ThreatLevel   constants.RiskLevel
}

// ExplanationService turns a score-drop event into a longer human-readable
// explanation by calling an external language-model service. The call is
// bounded in time; any failure is an explicit error the caller must treat
// as "no explanation" rather than a pipeline failure.
type ExplanationService interface {
	Generate(ctx context.Context, req ExplainRequest) (string, error)
}

// ActivityPublisher fans persisted activity events out to the downstream
// ML feature pipeline. Publishing is best-effort: a failure is logged by
// the implementation and must never abort ingestion.
type ActivityPublisher interface {
	Publish(ctx context.Context, event *models.ActivityEvent) error
	Close() error
}

// PredictionFeed propagates prediction change markers so dashboards can
// re-fetch near-real-time state. Triggers are idempotent; redundant
// notifications are harmless.
type PredictionFeed interface {
	// NotifyChanged publishes a change marker for a prediction row.
	NotifyChanged(ctx context.Context, predictionID uuid.UUID) error

	// Subscribe delivers change markers until ctx is done. Each received
	// marker invokes onChange with the changed prediction's identifier.
	Subscribe(ctx context.Context, onChange func(predictionID uuid.UUID)) error
}
