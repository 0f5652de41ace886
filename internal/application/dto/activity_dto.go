package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/pkg/constants"
)

// RecordActivityRequest is the inbound server-to-server ingestion payload.
type RecordActivityRequest struct {
	OrganizationID uuid.UUID               `json:"organization_id"`
	UserID         uuid.UUID               `json:"user_id"`
	ActivityType   constants.ActivityType  `json:"activity_type"`
	Description    string                  `json:"description"`
	ResourceType   string                  `json:"resource_type,omitempty"`
	ResourceID     string                  `json:"resource_id,omitempty"`
	Metadata       models.ActivityMetadata `json:"metadata,omitempty"`
	Timestamp      *time.Time              `json:"timestamp,omitempty"`
}

// ThreatAnalysisDTO mirrors the analyzer's output in the response.
type ThreatAnalysisDTO struct {
	ScoreImpact int    `json:"score_impact"`
	RiskLevel   string `json:"risk_level,omitempty"`
	ThreatType  string `json:"threat_type,omitempty"`
	Reason      string `json:"reason"`
	Explanation string `json:"explanation,omitempty"`
}

// RecordActivityResponse reports the ingestion verdict. SecurityScore is
// the profile's score after the event, changed or not.
type RecordActivityResponse struct {
	ActivityID     uuid.UUID         `json:"activity_id"`
	SecurityScore  int               `json:"security_score"`
	ThreatAnalysis ThreatAnalysisDTO `json:"threat_analysis"`
}

// ScoreHistoryEntryDTO is one ledger entry in API form.
type ScoreHistoryEntryDTO struct {
	PreviousScore int       `json:"previous_score"`
	NewScore      int       `json:"new_score"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at"`
}

// ScoreHistoryEntryFromModel converts a ledger entry.
func ScoreHistoryEntryFromModel(e *models.ScoreHistoryEntry) ScoreHistoryEntryDTO {
	return ScoreHistoryEntryDTO{
		PreviousScore: e.PreviousScore,
		NewScore:      e.NewScore,
		Reason:        e.Reason,
		CreatedAt:     e.CreatedAt,
	}
}

// ThreatDetectionDTO is a threat detection in API form.
type ThreatDetectionDTO struct {
	ID            uuid.UUID  `json:"id"`
	ProfileID     uuid.UUID  `json:"profile_id"`
	ActivityID    *uuid.UUID `json:"activity_id,omitempty"`
	ThreatType    string     `json:"threat_type"`
	RiskLevel     string     `json:"risk_level"`
	RiskScore     int        `json:"risk_score"`
	Description   string     `json:"description"`
	AIExplanation string     `json:"ai_explanation,omitempty"`
	Resolved      bool       `json:"resolved"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy    *uuid.UUID `json:"resolved_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ThreatDetectionFromModel converts a detection.
func ThreatDetectionFromModel(t *models.ThreatDetection) ThreatDetectionDTO {
	return ThreatDetectionDTO{
		ID:            t.ID,
		ProfileID:     t.ProfileID,
		ActivityID:    t.ActivityID,
		ThreatType:    t.ThreatType,
		RiskLevel:     string(t.RiskLevel),
		RiskScore:     t.RiskScore,
		Description:   t.Description,
		AIExplanation: t.AIExplanation,
		Resolved:      t.Resolved(),
		ResolvedAt:    t.ResolvedAt,
		ResolvedBy:    t.ResolvedBy,
		CreatedAt:     t.CreatedAt,
	}
}

// ResolveThreatRequest carries the operator's resolution note.
type ResolveThreatRequest struct {
	Note string `json:"note"`
}

// NotificationDTO is a security notification in API form.
type NotificationDTO struct {
	ID            uuid.UUID `json:"id"`
	ProfileID     uuid.UUID `json:"profile_id"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Severity      string    `json:"severity"`
	AIExplanation string    `json:"ai_explanation,omitempty"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

// NotificationFromModel converts a notification.
func NotificationFromModel(n *models.SecurityNotification) NotificationDTO {
	return NotificationDTO{
		ID:            n.ID,
		ProfileID:     n.ProfileID,
		Title:         n.Title,
		Message:       n.Message,
		Severity:      string(n.Severity),
		AIExplanation: n.AIExplanation,
		Read:          n.Read,
		CreatedAt:     n.CreatedAt,
	}
}
