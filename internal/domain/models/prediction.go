package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/pkg/constants"
)

// MLPrediction is a row produced by the external model ensemble for one
// activity. The service consumes it read-only except for the single
// terminal review transition: ReviewedAt and ReviewedBy are set together
// at most once and never change afterwards.
//
// The sub-scores and the combined probability come from a service this
// core does not own; the combination formula is deliberately not
// reimplemented here.
type MLPrediction struct {
	ID                uuid.UUID
	ActivityID        uuid.UUID
	ProfileID         uuid.UUID
	SupervisedScore   float64
	IsolationScore    float64
	SequenceScore     float64
	ThreatProbability float64
	ThreatClass       constants.ThreatClass
	ThreatLevel       constants.RiskLevel
	ThreatType        string
	Confidence        float64
	FeatureImportance map[string]float64
	AutoBlocked       bool
	RequiresReview    bool
	ReviewedAt        *time.Time
	ReviewedBy        *uuid.UUID
	CreatedAt         time.Time
}

// PredictionView is a prediction joined with summaries of the activity it
// scored and the profile it concerns, as consumed by dashboards.
type PredictionView struct {
	MLPrediction

	ProfileName         string
	ProfileScore        int
	ActivityType        constants.ActivityType
	ActivityDescription string
	ActivityOccurredAt  time.Time
}

// Reviewed reports whether the prediction reached its terminal review state.
func (p *MLPrediction) Reviewed() bool {
	return p.ReviewedAt != nil && p.ReviewedBy != nil
}

// PendingReview reports whether the prediction still awaits a reviewer.
func (p *MLPrediction) PendingReview() bool {
	return p.RequiresReview && !p.Reviewed()
}

// HighConfidence reports whether the ensemble's confidence exceeds the
// high-confidence threshold.
func (p *MLPrediction) HighConfidence() bool {
	return p.Confidence > constants.HighConfidenceThreshold
}
