package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/pkg/constants"
)

// ActivityEvent is an immutable fact about a monitored person's action.
// It is created exactly once by the ingestion pipeline and never mutated.
type ActivityEvent struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	ProfileID      uuid.UUID
	UserID         uuid.UUID
	ActivityType   constants.ActivityType
	Description    string
	ResourceType   string
	ResourceID     string
	Metadata       ActivityMetadata
	OccurredAt     time.Time
	CreatedAt      time.Time
}

// ActivityMetadata is the optional structured context attached to an event.
// Keys the analyzer understands are exposed through typed accessors; every
// other key travels through untouched.
type ActivityMetadata map[string]interface{}

// Int reads a numeric metadata value, tolerating the float64 typing JSON
// decoding produces.
func (m ActivityMetadata) Int(key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// Bool reads a boolean metadata value. Absent keys read as false.
func (m ActivityMetadata) Bool(key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// FileCount returns the number of files touched by the event, if recorded.
func (m ActivityMetadata) FileCount() (int, bool) {
	return m.Int("file_count")
}

// FailedAttempts returns the recorded failed login attempts, if any.
func (m ActivityMetadata) FailedAttempts() (int, bool) {
	return m.Int("failed_attempts")
}

// Approved reports whether the event was marked as an approved change.
func (m ActivityMetadata) Approved() bool {
	return m.Bool("approved")
}

// IsOffHours reports whether the event happened outside the normal working
// window: hour below OffHoursStart or above OffHoursEnd, local to the
// event's timestamp.
func (e *ActivityEvent) IsOffHours() bool {
	hour := e.OccurredAt.Hour()
	return hour < constants.OffHoursStart || hour > constants.OffHoursEnd
}
