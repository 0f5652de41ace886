package models

import (
	"time"

	"github.com/google/uuid"
)

// ScoreHistoryEntry is an append-only record of a security score mutation.
// Entries are never updated or deleted; the profile's current score is the
// materialized latest value of this history.
type ScoreHistoryEntry struct {
	ID            uuid.UUID
	ProfileID     uuid.UUID
	PreviousScore int
	NewScore      int
	Reason        string
	CreatedAt     time.Time
}

// NewScoreHistoryEntry records a single score-affecting event.
func NewScoreHistoryEntry(profileID uuid.UUID, previous, current int, reason string) *ScoreHistoryEntry {
	return &ScoreHistoryEntry{
		ID:            uuid.New(),
		ProfileID:     profileID,
		PreviousScore: previous,
		NewScore:      current,
		Reason:        reason,
		CreatedAt:     time.Now().UTC(),
	}
}
