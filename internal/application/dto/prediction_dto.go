package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/pkg/constants"
)

// IngestPredictionRequest is one row from the external ML ensemble feed.
type IngestPredictionRequest struct {
	ID                uuid.UUID          `json:"id"`
	ActivityID        uuid.UUID          `json:"activity_id" binding:"required"`
	ProfileID         uuid.UUID          `json:"profile_id" binding:"required"`
	SupervisedScore   float64            `json:"supervised_score" binding:"min=0,max=1"`
	IsolationScore    float64            `json:"isolation_score"`
	SequenceScore     float64            `json:"sequence_score"`
	ThreatProbability float64            `json:"threat_probability" binding:"min=0,max=1"`
	ThreatClass       string             `json:"threat_class" binding:"required,oneof=safe threat"`
	ThreatLevel       string             `json:"threat_level,omitempty"`
	ThreatType        string             `json:"threat_type,omitempty"`
	Confidence        float64            `json:"confidence" binding:"min=0,max=1"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
	AutoBlocked       bool               `json:"auto_blocked"`
	RequiresReview    bool               `json:"requires_review"`
	CreatedAt         *time.Time         `json:"created_at,omitempty"`
}

// ToModel builds the domain prediction. Missing identifiers and timestamps
// are filled in because the external feed may omit them.
func (r *IngestPredictionRequest) ToModel() *models.MLPrediction {
	id := r.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	createdAt := time.Now().UTC()
	if r.CreatedAt != nil {
		createdAt = r.CreatedAt.UTC()
	}
	return &models.MLPrediction{
		ID:                id,
		ActivityID:        r.ActivityID,
		ProfileID:         r.ProfileID,
		SupervisedScore:   r.SupervisedScore,
		IsolationScore:    r.IsolationScore,
		SequenceScore:     r.SequenceScore,
		ThreatProbability: r.ThreatProbability,
		ThreatClass:       constants.ThreatClass(r.ThreatClass),
		ThreatLevel:       constants.RiskLevel(r.ThreatLevel),
		ThreatType:        r.ThreatType,
		Confidence:        r.Confidence,
		FeatureImportance: r.FeatureImportance,
		AutoBlocked:       r.AutoBlocked,
		RequiresReview:    r.RequiresReview,
		CreatedAt:         createdAt,
	}
}

// PredictionDTO is an ML prediction in API form.
type PredictionDTO struct {
	ID                uuid.UUID          `json:"id"`
	ActivityID        uuid.UUID          `json:"activity_id"`
	ProfileID         uuid.UUID          `json:"profile_id"`
	SupervisedScore   float64            `json:"supervised_score"`
	IsolationScore    float64            `json:"isolation_score"`
	SequenceScore     float64            `json:"sequence_score"`
	ThreatProbability float64            `json:"threat_probability"`
	ThreatClass       string             `json:"threat_class"`
	ThreatLevel       string             `json:"threat_level,omitempty"`
	ThreatType        string             `json:"threat_type,omitempty"`
	Confidence        float64            `json:"confidence"`
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
	AutoBlocked       bool               `json:"auto_blocked"`
	RequiresReview    bool               `json:"requires_review"`
	ReviewedAt        *time.Time         `json:"reviewed_at,omitempty"`
	ReviewedBy        *uuid.UUID         `json:"reviewed_by,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`
}

// PredictionFromModel converts a prediction.
func PredictionFromModel(p *models.MLPrediction) PredictionDTO {
	return PredictionDTO{
		ID:                p.ID,
		ActivityID:        p.ActivityID,
		ProfileID:         p.ProfileID,
		SupervisedScore:   p.SupervisedScore,
		IsolationScore:    p.IsolationScore,
		SequenceScore:     p.SequenceScore,
		ThreatProbability: p.ThreatProbability,
		ThreatClass:       string(p.ThreatClass),
		ThreatLevel:       string(p.ThreatLevel),
		ThreatType:        p.ThreatType,
		Confidence:        p.Confidence,
		FeatureImportance: p.FeatureImportance,
		AutoBlocked:       p.AutoBlocked,
		RequiresReview:    p.RequiresReview,
		ReviewedAt:        p.ReviewedAt,
		ReviewedBy:        p.ReviewedBy,
		CreatedAt:         p.CreatedAt,
	}
}

// PredictionViewDTO is a prediction joined with the profile and activity
// summaries dashboards render alongside it.
type PredictionViewDTO struct {
	PredictionDTO

	ProfileName         string    `json:"profile_name"`
	ProfileScore        int       `json:"profile_score"`
	ActivityType        string    `json:"activity_type,omitempty"`
	ActivityDescription string    `json:"activity_description,omitempty"`
	ActivityOccurredAt  time.Time `json:"activity_occurred_at,omitempty"`
}

// PredictionViewFromModel converts a joined prediction view.
func PredictionViewFromModel(v *models.PredictionView) PredictionViewDTO {
	return PredictionViewDTO{
		PredictionDTO:       PredictionFromModel(&v.MLPrediction),
		ProfileName:         v.ProfileName,
		ProfileScore:        v.ProfileScore,
		ActivityType:        string(v.ActivityType),
		ActivityDescription: v.ActivityDescription,
		ActivityOccurredAt:  v.ActivityOccurredAt,
	}
}

// PredictionStatsDTO is the derived fleet-wide view of the fetched set.
type PredictionStatsDTO struct {
	Total                 int     `json:"total"`
	Threats               int     `json:"threats"`
	Safe                  int     `json:"safe"`
	PendingReview         int     `json:"pending_review"`
	AutoBlocked           int     `json:"auto_blocked"`
	HighConfidence        int     `json:"high_confidence"`
	MeanThreatProbability float64 `json:"mean_threat_probability"`
}

// PredictionListResponse bundles the fetched window with its derived stats.
type PredictionListResponse struct {
	Predictions []PredictionViewDTO `json:"predictions"`
	Stats       PredictionStatsDTO  `json:"stats"`
}
