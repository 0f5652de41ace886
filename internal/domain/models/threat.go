package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/pkg/constants"
)

// ThreatDetection is created when an activity's rule-based assessment yields
// a risk level of medium or above. ResolvedAt and ResolvedBy are set
// together exactly once; a resolved detection never reverts.
type ThreatDetection struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ProfileID      uuid.UUID
	ActivityID     *uuid.UUID
	ThreatType     string
	RiskLevel      constants.RiskLevel
	RiskScore      int
	Description    string
	AIExplanation  string
	ResolvedAt     *time.Time
	ResolvedBy     *uuid.UUID
	ResolutionNote string
	CreatedAt      time.Time
}

// NewThreatDetection creates an unresolved detection for an activity.
func NewThreatDetection(orgID, profileID uuid.UUID, activityID *uuid.UUID, threatType string, level constants.RiskLevel, riskScore int, description, explanation string) *ThreatDetection {
	return &ThreatDetection{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ProfileID:      profileID,
		ActivityID:     activityID,
		ThreatType:     threatType,
		RiskLevel:      level,
		RiskScore:      riskScore,
		Description:    description,
		AIExplanation:  explanation,
		CreatedAt:      time.Now().UTC(),
	}
}

// Resolved reports whether the detection reached its terminal state.
func (t *ThreatDetection) Resolved() bool {
	return t.ResolvedAt != nil && t.ResolvedBy != nil
}
