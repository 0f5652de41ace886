package postgres

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/pkg/constants"
)

// Database mapping structs. Domain models stay persistence-agnostic; the
// converters below translate in both directions at the repository boundary.

type profileDBM struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index:idx_profiles_org_user,unique;index"`
	UserID         uuid.UUID `gorm:"type:uuid;index:idx_profiles_org_user,unique"`
	DisplayName    string    `gorm:"size:255"`
	SecurityScore  int       `gorm:"not null"`
	ScoreUpdatedAt time.Time
	Active         bool `gorm:"not null;default:true"`
	CreatedAt      time.Time
}

func (profileDBM) TableName() string { return "profiles" }

func (m *profileDBM) toDomain() *models.Profile {
	return &models.Profile{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		DisplayName:    m.DisplayName,
		SecurityScore:  m.SecurityScore,
		ScoreUpdatedAt: m.ScoreUpdatedAt,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
	}
}

func profileFromDomain(p *models.Profile) *profileDBM {
	return &profileDBM{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		UserID:         p.UserID,
		DisplayName:    p.DisplayName,
		SecurityScore:  p.SecurityScore,
		ScoreUpdatedAt: p.ScoreUpdatedAt,
		Active:         p.Active,
		CreatedAt:      p.CreatedAt,
	}
}

type scoreHistoryDBM struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProfileID     uuid.UUID `gorm:"type:uuid;index"`
	PreviousScore int       `gorm:"not null"`
	NewScore      int       `gorm:"not null"`
	Reason        string    `gorm:"size:512"`
	CreatedAt     time.Time `gorm:"index"`
}

func (scoreHistoryDBM) TableName() string { return "score_history" }

func (m *scoreHistoryDBM) toDomain() *models.ScoreHistoryEntry {
	return &models.ScoreHistoryEntry{
		ID:            m.ID,
		ProfileID:     m.ProfileID,
		PreviousScore: m.PreviousScore,
		NewScore:      m.NewScore,
		Reason:        m.Reason,
		CreatedAt:     m.CreatedAt,
	}
}

func scoreHistoryFromDomain(e *models.ScoreHistoryEntry) *scoreHistoryDBM {
	return &scoreHistoryDBM{
		ID:            e.ID,
		ProfileID:     e.ProfileID,
		PreviousScore: e.PreviousScore,
		NewScore:      e.NewScore,
		Reason:        e.Reason,
		CreatedAt:     e.CreatedAt,
	}
}

type activityDBM struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index"`
	ProfileID      uuid.UUID `gorm:"type:uuid;index:idx_activities_profile_occurred"`
	UserID         uuid.UUID `gorm:"type:uuid"`
	ActivityType   string    `gorm:"size:64;index"`
	Description    string    `gorm:"size:1024"`
	ResourceType   string    `gorm:"size:128"`
	ResourceID     string    `gorm:"size:255"`
	Metadata       string    `gorm:"type:jsonb"`
	OccurredAt     time.Time `gorm:"index:idx_activities_profile_occurred"`
	CreatedAt      time.Time
}

func (activityDBM) TableName() string { return "activity_events" }

func (m *activityDBM) toDomain() (*models.ActivityEvent, error) {
	var metadata models.ActivityMetadata
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, err
		}
	}
	return &models.ActivityEvent{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		ProfileID:      m.ProfileID,
		UserID:         m.UserID,
		ActivityType:   constants.ActivityType(m.ActivityType),
		Description:    m.Description,
		ResourceType:   m.ResourceType,
		ResourceID:     m.ResourceID,
		Metadata:       metadata,
		OccurredAt:     m.OccurredAt,
		CreatedAt:      m.CreatedAt,
	}, nil
}

func activityFromDomain(e *models.ActivityEvent) (*activityDBM, error) {
	metadata := ""
	if len(e.Metadata) > 0 {
		raw, err := json.Marshal(e.Metadata)
		if err != nil {
			return nil, err
		}
		metadata = string(raw)
	}
	return &activityDBM{
		ID:             e.ID,
		OrganizationID: e.OrganizationID,
		ProfileID:      e.ProfileID,
		UserID:         e.UserID,
		ActivityType:   string(e.ActivityType),
		Description:    e.Description,
		ResourceType:   e.ResourceType,
		ResourceID:     e.ResourceID,
		Metadata:       metadata,
		OccurredAt:     e.OccurredAt,
		CreatedAt:      e.CreatedAt,
	}, nil
}

type threatDBM struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID  `gorm:"type:uuid;index"`
	ProfileID      uuid.UUID  `gorm:"type:uuid;index"`
	ActivityID     *uuid.UUID `gorm:"type:uuid"`
	ThreatType     string     `gorm:"size:128"`
	RiskLevel      string     `gorm:"size:32;index"`
	RiskScore      int        `gorm:"not null"`
	Description    string     `gorm:"size:1024"`
	AIExplanation  string     `gorm:"type:text"`
	ResolvedAt     *time.Time
	ResolvedBy     *uuid.UUID `gorm:"type:uuid"`
	ResolutionNote string     `gorm:"size:1024"`
	CreatedAt      time.Time  `gorm:"index"`
}

func (threatDBM) TableName() string { return "threat_detections" }

func (m *threatDBM) toDomain() *models.ThreatDetection {
	return &models.ThreatDetection{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		ProfileID:      m.ProfileID,
		ActivityID:     m.ActivityID,
		ThreatType:     m.ThreatType,
		RiskLevel:      constants.RiskLevel(m.RiskLevel),
		RiskScore:      m.RiskScore,
		Description:    m.Description,
		AIExplanation:  m.AIExplanation,
		ResolvedAt:     m.ResolvedAt,
		ResolvedBy:     m.ResolvedBy,
		ResolutionNote: m.ResolutionNote,
		CreatedAt:      m.CreatedAt,
	}
}

func threatFromDomain(t *models.ThreatDetection) *threatDBM {
	return &threatDBM{
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		ProfileID:      t.ProfileID,
		ActivityID:     t.ActivityID,
		ThreatType:     t.ThreatType,
		RiskLevel:      string(t.RiskLevel),
		RiskScore:      t.RiskScore,
		Description:    t.Description,
		AIExplanation:  t.AIExplanation,
		ResolvedAt:     t.ResolvedAt,
		ResolvedBy:     t.ResolvedBy,
		ResolutionNote: t.ResolutionNote,
		CreatedAt:      t.CreatedAt,
	}
}

type notificationDBM struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index"`
	ProfileID      uuid.UUID `gorm:"type:uuid;index:idx_notifications_profile_read"`
	Title          string    `gorm:"size:255"`
	Message        string    `gorm:"size:1024"`
	Severity       string    `gorm:"size:32"`
	AIExplanation  string    `gorm:"type:text"`
	Read           bool      `gorm:"not null;default:false;index:idx_notifications_profile_read"`
	CreatedAt      time.Time `gorm:"index"`
}

func (notificationDBM) TableName() string { return "security_notifications" }

func (m *notificationDBM) toDomain() *models.SecurityNotification {
	return &models.SecurityNotification{
		ID:             m.ID,
		OrganizationID: m.OrganizationID,
		ProfileID:      m.ProfileID,
		Title:          m.Title,
		Message:        m.Message,
		Severity:       constants.RiskLevel(m.Severity),
		AIExplanation:  m.AIExplanation,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}

func notificationFromDomain(n *models.SecurityNotification) *notificationDBM {
	return &notificationDBM{
		ID:             n.ID,
		OrganizationID: n.OrganizationID,
		ProfileID:      n.ProfileID,
		Title:          n.Title,
		Message:        n.Message,
		Severity:       string(n.Severity),
		AIExplanation:  n.AIExplanation,
		Read:           n.Read,
		CreatedAt:      n.CreatedAt,
	}
}

type predictionDBM struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	ActivityID        uuid.UUID `gorm:"type:uuid;index"`
	ProfileID         uuid.UUID `gorm:"type:uuid;index"`
	SupervisedScore   float64
	IsolationScore    float64
	SequenceScore     float64
	ThreatProbability float64
	ThreatClass       string `gorm:"size:32;index"`
	ThreatLevel       string `gorm:"size:32"`
	ThreatType        string `gorm:"size:128"`
	Confidence        float64
	FeatureImportance string `gorm:"type:jsonb"`
	AutoBlocked       bool   `gorm:"not null;default:false"`
	RequiresReview    bool   `gorm:"not null;default:false;index"`
	ReviewedAt        *time.Time
	ReviewedBy        *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time  `gorm:"index"`
}

func (predictionDBM) TableName() string { return "ml_predictions" }

func (m *predictionDBM) toDomain() (*models.MLPrediction, error) {
	var importance map[string]float64
	if m.FeatureImportance != "" {
		if err := json.Unmarshal([]byte(m.FeatureImportance), &importance); err != nil {
			return nil, err
		}
	}
	return &models.MLPrediction{
		ID:                m.ID,
		ActivityID:        m.ActivityID,
		ProfileID:         m.ProfileID,
		SupervisedScore:   m.SupervisedScore,
		IsolationScore:    m.IsolationScore,
		SequenceScore:     m.SequenceScore,
		ThreatProbability: m.ThreatProbability,
		ThreatClass:       constants.ThreatClass(m.ThreatClass),
		ThreatLevel:       constants.RiskLevel(m.ThreatLevel),
		ThreatType:        m.ThreatType,
		Confidence:        m.Confidence,
		FeatureImportance: importance,
		AutoBlocked:       m.AutoBlocked,
		RequiresReview:    m.RequiresReview,
		ReviewedAt:        m.ReviewedAt,
		ReviewedBy:        m.ReviewedBy,
		CreatedAt:         m.CreatedAt,
	}, nil
}

func predictionFromDomain(p *models.MLPrediction) (*predictionDBM, error) {
	importance := ""
	if len(p.FeatureImportance) > 0 {
		raw, err := json.Marshal(p.FeatureImportance)
		if err != nil {
			return nil, err
		}
		importance = string(raw)
	}
	return &predictionDBM{
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
		FeatureImportance: importance,
		AutoBlocked:       p.AutoBlocked,
		RequiresReview:    p.RequiresReview,
		ReviewedAt:        p.ReviewedAt,
		ReviewedBy:        p.ReviewedBy,
		CreatedAt:         p.CreatedAt,
	}, nil
}

// predictionRowDBM is the joined row shape behind PredictionView listings.
// The prediction columns are spelled out rather than embedded: gorm's Scan
// maps columns onto top-level fields only. The activity columns are
// pointers because the activity side of the join is optional.
type predictionRowDBM struct {
	ID                uuid.UUID
	ActivityID        uuid.UUID
	ProfileID         uuid.UUID
	SupervisedScore   float64
	IsolationScore    float64
	SequenceScore     float64
	ThreatProbability float64
	ThreatClass       string
	ThreatLevel       string
	ThreatType        string
	Confidence        float64
	FeatureImportance string
	AutoBlocked       bool
	RequiresReview    bool
	ReviewedAt        *time.Time
	ReviewedBy        *uuid.UUID
	CreatedAt         time.Time

	ProfileName         string
	ProfileScore        int
	ActivityType        *string
	ActivityDescription *string
	ActivityOccurredAt  *time.Time
}

func (m *predictionRowDBM) toDomain() (*models.PredictionView, error) {
	var importance map[string]float64
	if m.FeatureImportance != "" {
		if err := json.Unmarshal([]byte(m.FeatureImportance), &importance); err != nil {
			return nil, err
		}
	}
	view := &models.PredictionView{
		MLPrediction: models.MLPrediction{
			ID:                m.ID,
			ActivityID:        m.ActivityID,
			ProfileID:         m.ProfileID,
			SupervisedScore:   m.SupervisedScore,
			IsolationScore:    m.IsolationScore,
			SequenceScore:     m.SequenceScore,
			ThreatProbability: m.ThreatProbability,
			ThreatClass:       constants.ThreatClass(m.ThreatClass),
			ThreatLevel:       constants.RiskLevel(m.ThreatLevel),
			ThreatType:        m.ThreatType,
			Confidence:        m.Confidence,
			FeatureImportance: importance,
			AutoBlocked:       m.AutoBlocked,
			RequiresReview:    m.RequiresReview,
			ReviewedAt:        m.ReviewedAt,
			ReviewedBy:        m.ReviewedBy,
			CreatedAt:         m.CreatedAt,
		},
		ProfileName:  m.ProfileName,
		ProfileScore: m.ProfileScore,
	}
	if m.ActivityType != nil {
		view.ActivityType = constants.ActivityType(*m.ActivityType)
	}
	if m.ActivityDescription != nil {
		view.ActivityDescription = *m.ActivityDescription
	}
	if m.ActivityOccurredAt != nil {
		view.ActivityOccurredAt = *m.ActivityOccurredAt
	}
	return view, nil
}
