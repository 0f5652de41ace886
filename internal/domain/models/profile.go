package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/pkg/constants"
)

// Profile is a monitored person within an organization. The security score
// is mutated only through the score ledger and always stays in [ScoreMin,
// ScoreMax]. Profiles are soft-deactivated, never deleted, so that activity
// history keeps a valid reference.
type Profile struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	DisplayName    string
	SecurityScore  int
	ScoreUpdatedAt time.Time
	Active         bool
	CreatedAt      time.Time
}

// NewProfile creates a monitored profile with the initial security score.
func NewProfile(orgID, userID uuid.UUID, displayName string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		ID:             uuid.New(),
		OrganizationID: orgID,
		UserID:         userID,
		DisplayName:    displayName,
		SecurityScore:  constants.ScoreInitial,
		ScoreUpdatedAt: now,
		Active:         true,
		CreatedAt:      now,
	}
}

// ClampScore forces a score into the valid [ScoreMin, ScoreMax] range.
func ClampScore(score int) int {
	if score < constants.ScoreMin {
		return constants.ScoreMin
	}
	if score > constants.ScoreMax {
		return constants.ScoreMax
	}
	return score
}

// CrossedBelowThreshold reports whether a score change moved from at or
// above the notification threshold to below it. Deltas that start below the
// threshold do not qualify, so at most one notification fires per crossing.
func CrossedBelowThreshold(previous, current int) bool {
	return previous >= constants.NotificationThreshold && current < constants.NotificationThreshold
}
