// Package constants defines system-wide constants for the Sentra monitoring service.
// This package provides type-safe constant definitions used across all modules.
package constants

import "time"

// ================================================================================
// Activity Type Constants
// ================================================================================

// ActivityType represents the kind of monitored business activity.
type ActivityType string

const (
	ActivityLogin          ActivityType = "login"
	ActivityLogout         ActivityType = "logout"
	ActivityFileAccess     ActivityType = "file_access"
	ActivityFileDownload   ActivityType = "file_download"
	ActivityFileUpload     ActivityType = "file_upload"
	ActivityDocumentView   ActivityType = "document_view"
	ActivityReportGenerate ActivityType = "report_generate"
	ActivityUserManagement ActivityType = "user_management"
	ActivitySystemConfig   ActivityType = "system_config"
	ActivityDataExport     ActivityType = "data_export"
)

// KnownActivityTypes enumerates every activity kind the service accepts.
var KnownActivityTypes = []ActivityType{
	ActivityLogin,
	ActivityLogout,
	ActivityFileAccess,
	ActivityFileDownload,
	ActivityFileUpload,
	ActivityDocumentView,
	ActivityReportGenerate,
	ActivityUserManagement,
	ActivitySystemConfig,
	ActivityDataExport,
}

// IsKnownActivityType reports whether t is one of the enumerated activity kinds.
func IsKnownActivityType(t ActivityType) bool {
	for _, known := range KnownActivityTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ================================================================================
// Risk Level Constants
// ================================================================================

// RiskLevel represents the severity classification of a threat assessment.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"

	// RiskLevelNone is the zero value used when an assessment carries no risk.
	RiskLevelNone RiskLevel = ""
)

// riskRank orders risk levels for threshold comparisons.
var riskRank = map[RiskLevel]int{
	RiskLevelNone:     0,
	RiskLevelLow:      1,
	RiskLevelMedium:   2,
	RiskLevelHigh:     3,
	RiskLevelCritical: 4,
}

// AtLeast reports whether l is at or above the severity of other.
func (l RiskLevel) AtLeast(other RiskLevel) bool {
	return riskRank[l] >= riskRank[other]
}

// ================================================================================
// Threat Class Constants (external ML ensemble output)
// ================================================================================

// ThreatClass is the binary classification attached to an ML prediction.
type ThreatClass string

const (
	ThreatClassSafe   ThreatClass = "safe"
	ThreatClassThreat ThreatClass = "threat"
)

// ================================================================================
// Role Constants
// ================================================================================

// Role represents the caller's authorization role.
type Role string

const (
	RoleEmployee        Role = "employee"
	RoleSecurityAnalyst Role = "security_analyst"
	RoleAdmin           Role = "admin"
)

// IsElevated reports whether the role may see every profile's data.
func (r Role) IsElevated() bool {
	return r == RoleAdmin || r == RoleSecurityAnalyst
}

// ================================================================================
// Scoring Constants
// ================================================================================

const (
	// ScoreMin is the floor of a profile's security score.
	ScoreMin = 0

	// ScoreMax is the ceiling of a profile's security score.
	ScoreMax = 100

	// ScoreInitial is the score assigned to newly monitored profiles.
	ScoreInitial = 100

	// NotificationThreshold is the score below which a downward crossing
	// produces a security notification.
	NotificationThreshold = 70

	// OffHoursStart and OffHoursEnd bound the normal working window:
	// an event hour below OffHoursStart or above OffHoursEnd is off-hours.
	OffHoursStart = 6
	OffHoursEnd   = 22

	// HighConfidenceThreshold marks an ML prediction as high confidence.
	HighConfidenceThreshold = 0.8

	// RiskScoreFactor converts a score impact magnitude into a threat risk score.
	RiskScoreFactor = 10
)

// ================================================================================
// Error Code Constants
// ================================================================================

// ErrorCode identifies an error category in API responses.
type ErrorCode string

const (
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeUnauthorized   ErrorCode = "unauthorized"
	ErrCodeForbidden      ErrorCode = "forbidden"
	ErrCodeNotFound       ErrorCode = "not_found"
	ErrCodeConflict       ErrorCode = "conflict"
	ErrCodeServerError    ErrorCode = "server_error"
	ErrCodeUnavailable    ErrorCode = "service_unavailable"
)

// ================================================================================
// Context Key Constants
// ================================================================================

// ContextKey is the type used for values carried in request contexts.
type ContextKey string

const (
	ContextKeyRequestID ContextKey = "request_id"
	ContextKeyOrgID     ContextKey = "org_id"
	ContextKeyUserID    ContextKey = "user_id"
	ContextKeyRole      ContextKey = "role"
)

// ================================================================================
// Timeout and Channel Defaults
// ================================================================================

const (
	// ExplainDefaultTimeout bounds a single explanation-service call.
	ExplainDefaultTimeout = 10 * time.Second

	// StatsCacheTTL bounds how long derived prediction stats may be served
	// without recomputation.
	StatsCacheTTL = 5 * time.Second

	// PredictionChangeChannel is the Redis pub/sub channel carrying
	// prediction insert/update markers.
	PredictionChangeChannel = "sentra:predictions:changed"

	// ActivityStreamTopic is the Kafka topic receiving persisted activity
	// events for the downstream ML feature pipeline.
	ActivityStreamTopic = "sentra.activity.events"
)

// ================================================================================
// Audit Event Type Constants
// ================================================================================

// AuditEventType labels structured audit log entries.
type AuditEventType string

const (
	AuditEventActivityRecorded    AuditEventType = "activity_recorded"
	AuditEventScoreChanged        AuditEventType = "score_changed"
	AuditEventThreatDetected      AuditEventType = "threat_detected"
	AuditEventThreatResolved      AuditEventType = "threat_resolved"
	AuditEventNotificationCreated AuditEventType = "notification_created"
	AuditEventPredictionReviewed  AuditEventType = "prediction_reviewed"
)
