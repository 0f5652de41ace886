// Package service contains domain services for activity risk scoring.
package service

import (
	"fmt"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/pkg/constants"
)

// Assessment is the outcome of the rule-based analysis of one activity.
// RiskLevel is RiskLevelNone when the activity carries no classified risk.
type Assessment struct {
	ScoreImpact int
	RiskLevel   constants.RiskLevel
	ThreatType  string
	Reason      string
	Explanation string
}

// ThreatAnalyzer converts an activity event into a score impact and risk
// classification. It is pure: no I/O, no clock access, deterministic for a
// given event and score.
type ThreatAnalyzer interface {
	Analyze(event *models.ActivityEvent, currentScore int) Assessment
}

// rule is one (predicate, effect) pair. Rules for an activity kind are
// evaluated in order and the first matching rule wins; the ordering encodes
// the documented precedence (a burst of failed logins outranks the
// off-hours classification of the same login).
type rule struct {
	match       func(e *models.ActivityEvent) bool
	impact      int
	level       constants.RiskLevel
	threatType  string
	reason      string
	explanation string
}

func always(*models.ActivityEvent) bool { return true }

func offHours(e *models.ActivityEvent) bool { return e.IsOffHours() }

var fileActivityRules = []rule{
	{
		match:       offHours,
		impact:      -15,
		level:       constants.RiskLevelHigh,
		threatType:  "off_hours_file_activity",
		reason:      "file activity outside working hours",
		explanation: "Files were accessed or downloaded outside the normal working window, which is a common pattern ahead of data exfiltration.",
	},
	{
		match: func(e *models.ActivityEvent) bool {
			count, ok := e.Metadata.FileCount()
			return ok && count > 10
		},
		impact:      -10,
		level:       constants.RiskLevelMedium,
		threatType:  "bulk_file_activity",
		reason:      "large number of files touched in one operation",
		explanation: "A single operation touched an unusually large number of files, which may indicate bulk collection.",
	},
	{
		match:  always,
		impact: -2,
		reason: "routine file activity",
	},
}

var ruleTable = map[constants.ActivityType][]rule{
	constants.ActivityFileAccess:   fileActivityRules,
	constants.ActivityFileDownload: fileActivityRules,

	constants.ActivityLogin: {
		{
			match: func(e *models.ActivityEvent) bool {
				attempts, ok := e.Metadata.FailedAttempts()
				return ok && attempts > 3
			},
			impact:      -20,
			level:       constants.RiskLevelCritical,
			threatType:  "failed_login_burst",
			reason:      "repeated failed login attempts before success",
			explanation: "The account logged in after repeated failures, which may indicate credential guessing or a compromised password.",
		},
		{
			match:       offHours,
			impact:      -8,
			level:       constants.RiskLevelMedium,
			threatType:  "off_hours_login",
			reason:      "login outside working hours",
			explanation: "The account authenticated outside the normal working window.",
		},
		{
			match:  always,
			impact: 1,
			reason: "routine login",
		},
	},

	constants.ActivityDataExport: {
		{
			match:       always,
			impact:      -25,
			level:       constants.RiskLevelCritical,
			threatType:  "data_export",
			reason:      "bulk data export",
			explanation: "Data was exported out of the platform. Exports are always treated as critical and reviewed.",
		},
	},

	constants.ActivitySystemConfig: {
		{
			match: func(e *models.ActivityEvent) bool {
				return !e.Metadata.Approved()
			},
			impact:      -30,
			level:       constants.RiskLevelCritical,
			threatType:  "unapproved_config_change",
			reason:      "system configuration changed without approval",
			explanation: "A system configuration change was made without an approval on record.",
		},
		{
			match:  always,
			impact: 0,
			reason: "approved configuration change",
		},
	},
}

type ruleBasedAnalyzer struct{}

// NewThreatAnalyzer returns the rule-based analyzer.
func NewThreatAnalyzer() ThreatAnalyzer {
	return &ruleBasedAnalyzer{}
}

// Analyze evaluates the ordered rules for the event's activity kind.
// Unknown kinds, and kinds without rules, yield zero impact and no risk
// level. The current score is informational only; it never changes which
// rule fires.
func (a *ruleBasedAnalyzer) Analyze(event *models.ActivityEvent, currentScore int) Assessment {
	rules, ok := ruleTable[event.ActivityType]
	if !ok {
		return Assessment{
			Reason: fmt.Sprintf("no scoring rules for activity type %q", event.ActivityType),
		}
	}

	for _, r := range rules {
		if r.match(event) {
			return Assessment{
				ScoreImpact: r.impact,
				RiskLevel:   r.level,
				ThreatType:  r.threatType,
				Reason:      r.reason,
				Explanation: r.explanation,
			}
		}
	}

	// Every rule list ends with a catch-all, so this is unreachable.
	return Assessment{Reason: "no rule matched"}
}
