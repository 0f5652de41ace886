package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/pkg/constants"
)

// SecurityNotification is created when a profile's score crosses downward
// below the notification threshold. It is created unread and mutated only
// by marking it read; the core never deletes notifications.
type SecurityNotification struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ProfileID      uuid.UUID
	Title          string
	Message        string
	Severity       constants.RiskLevel
	AIExplanation  string
	Read           bool
	CreatedAt      time.Time
}

// NewScoreDropNotification builds the notification for a threshold crossing.
// The severity defaults to medium when the analyzer returned no risk level.
func NewScoreDropNotification(orgID, profileID uuid.UUID, previous, current int, severity constants.RiskLevel, explanation string) *SecurityNotification {
	if severity == constants.RiskLevelNone {
		severity = constants.RiskLevelMedium
	}
	return &SecurityNotification{
		ID:             uuid.New(),
		OrganizationID: orgID,
		ProfileID:      profileID,
		Title:          "Security score dropped",
		Message: fmt.Sprintf("Security score fell from %d to %d, below the review threshold of %d.",
			previous, current, constants.NotificationThreshold),
		Severity:      severity,
		AIExplanation: explanation,
		Read:          false,
		CreatedAt:     time.Now().UTC(),
	}
}
