// Package service provides application-level services that orchestrate
// domain services and repositories.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/application/dto"
	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/internal/domain/repository"
	domainservice "github.com/sentrasec/sentra/internal/domain/service"
	"github.com/sentrasec/sentra/internal/infrastructure/monitoring"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// ActivityService is the ingestion pipeline: it validates an inbound
// activity event, persists it, runs the rule-based analysis, updates the
// score ledger, and fans out the best-effort side effects.
type ActivityService interface {
	// Record runs the pipeline for one inbound event.
	Record(ctx context.Context, req *dto.RecordActivityRequest) (*dto.RecordActivityResponse, error)

	// ScoreHistory returns a profile's score ledger, newest first.
	ScoreHistory(ctx context.Context, profileID uuid.UUID, limit int) ([]*models.ScoreHistoryEntry, error)
}

type activityServiceImpl struct {
	profiles       repository.ProfileRepository
	activities     repository.ActivityRepository
	threats        repository.ThreatRepository
	notifications  repository.NotificationRepository
	analyzer       domainservice.ThreatAnalyzer
	explainer      domainservice.ExplanationService
	publisher      domainservice.ActivityPublisher
	metrics        *monitoring.Metrics
	logger         logger.Logger
	audit          *logger.AuditLogger
	explainTimeout time.Duration
}

// NewActivityService creates the ingestion pipeline service. The publisher
// may be nil when the activity stream is disabled.
func NewActivityService(
	profiles repository.ProfileRepository,
	activities repository.ActivityRepository,
	threats repository.ThreatRepository,
	notifications repository.NotificationRepository,
	analyzer domainservice.ThreatAnalyzer,
	explainer domainservice.ExplanationService,
	publisher domainservice.ActivityPublisher,
	metrics *monitoring.Metrics,
	log logger.Logger,
	explainTimeout time.Duration,
) ActivityService {
	if explainTimeout <= 0 {
		explainTimeout = constants.ExplainDefaultTimeout
	}
	return &activityServiceImpl{
		profiles:       profiles,
		activities:     activities,
		threats:        threats,
		notifications:  notifications,
		analyzer:       analyzer,
		explainer:      explainer,
		publisher:      publisher,
		metrics:        metrics,
		logger:         log.WithComponent("activity_service"),
		audit:          logger.NewAuditLogger(log),
		explainTimeout: explainTimeout,
	}
}

// Record implements the staged pipeline. Stages 1-3 are strict: any error
// rejects the request with nothing (or nothing further) persisted. After
// the activity commit, the score update and fan-out are each individually
// recovered so that one failing side effect can neither roll back committed
// state nor prevent the other side effects from being attempted.
func (s *activityServiceImpl) Record(ctx context.Context, req *dto.RecordActivityRequest) (*dto.RecordActivityResponse, error) {
	// 1. Validate required fields.
	if err := validateRecordRequest(req); err != nil {
		return nil, err
	}

	// 2. Resolve the monitored profile.
	profile, err := s.profiles.FindByUser(ctx, req.OrganizationID, req.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.ErrProfileNotFound(req.UserID.String())
		}
		return nil, errors.ErrPersistence("profile lookup", err)
	}

	// 3. Persist the activity event. Failure here is fatal to the request.
	occurredAt := time.Now().UTC()
	if req.Timestamp != nil {
		occurredAt = *req.Timestamp
	}
	event := &models.ActivityEvent{
		ID:             uuid.New(),
		OrganizationID: req.OrganizationID,
		ProfileID:      profile.ID,
		UserID:         req.UserID,
		ActivityType:   req.ActivityType,
		Description:    req.Description,
		ResourceType:   req.ResourceType,
		ResourceID:     req.ResourceID,
		Metadata:       req.Metadata,
		OccurredAt:     occurredAt,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.activities.Create(ctx, event); err != nil {
		s.logger.Error(ctx, "Failed to persist activity event", err,
			logger.String("activity_type", string(req.ActivityType)))
		return nil, errors.ErrPersistence("activity create", err)
	}
	s.audit.LogAuditEvent(ctx, constants.AuditEventActivityRecorded,
		logger.String("activity_id", event.ID.String()),
		logger.String("profile_id", profile.ID.String()),
		logger.String("activity_type", string(event.ActivityType)),
	)

	// 4. Analyze. Pure, cannot fail.
	assessment := s.analyzer.Analyze(event, profile.SecurityScore)

	// 5. Apply the score delta and, on a downward threshold crossing,
	// create the notification (with a best-effort explanation).
	score := profile.SecurityScore
	if assessment.ScoreImpact != 0 {
		score = s.applyScore(ctx, profile, event, assessment)
	}

	// 6. Create a threat detection for medium or higher risk. This trigger
	// is independent of the notification threshold above.
	if assessment.RiskLevel.AtLeast(constants.RiskLevelMedium) {
		s.createThreat(ctx, profile, event, assessment)
	}

	// Fan the event out to the ML feature pipeline.
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Warn(ctx, "Failed to publish activity to stream",
				logger.Error(err), logger.String("activity_id", event.ID.String()))
			s.metrics.RecordSideEffectFailure("stream")
		}
	}

	// 7. The outward verdict covers the activity log itself; side-effect
	// failures were logged above and do not surface here.
	return &dto.RecordActivityResponse{
		ActivityID:    event.ID,
		SecurityScore: score,
		ThreatAnalysis: dto.ThreatAnalysisDTO{
			ScoreImpact: assessment.ScoreImpact,
			RiskLevel:   string(assessment.RiskLevel),
			ThreatType:  assessment.ThreatType,
			Reason:      assessment.Reason,
			Explanation: assessment.Explanation,
		},
	}, nil
}

func validateRecordRequest(req *dto.RecordActivityRequest) error {
	switch {
	case req.OrganizationID == uuid.Nil:
		return errors.ErrMissingField("organization_id")
	case req.UserID == uuid.Nil:
		return errors.ErrMissingField("user_id")
	case req.ActivityType == "":
		return errors.ErrMissingField("activity_type")
	case req.Description == "":
		return errors.ErrMissingField("description")
	}
	return nil
}

// applyScore commits the delta through the ledger and handles the
// notification crossing. A ledger failure leaves the already-persisted
// activity in place and the response reports the prior score.
func (s *activityServiceImpl) applyScore(ctx context.Context, profile *models.Profile, event *models.ActivityEvent, assessment domainservice.Assessment) int {
	previous, current, err := s.profiles.ApplyScoreDelta(ctx, profile.ID, assessment.ScoreImpact, assessment.Reason)
	if err != nil {
		s.logger.Error(ctx, "Failed to apply score delta", err,
			logger.String("profile_id", profile.ID.String()),
			logger.Int("delta", assessment.ScoreImpact))
		s.metrics.RecordSideEffectFailure("ledger")
		return profile.SecurityScore
	}
	s.metrics.RecordScoreDelta(assessment.ScoreImpact)
	s.audit.LogScoreChange(ctx, profile.ID.String(), previous, current, assessment.Reason)

	if models.CrossedBelowThreshold(previous, current) {
		s.notifyScoreDrop(ctx, profile, event, assessment, previous, current)
	}
	return current
}

// notifyScoreDrop creates the crossing notification. The explanation call
// is bounded in time and strictly best-effort: on failure the notification
// carries an empty explanation instead of aborting.
func (s *activityServiceImpl) notifyScoreDrop(ctx context.Context, profile *models.Profile, event *models.ActivityEvent, assessment domainservice.Assessment, previous, current int) {
	explanation := s.generateExplanation(ctx, domainservice.ExplainRequest{
		ProfileID:     profile.ID,
		ActivityType:  event.ActivityType,
		Description:   event.Description,
		Score:         current,
		PreviousScore: previous,
		ThreatLevel:   assessment.RiskLevel,
	})

	notification := models.NewScoreDropNotification(
		profile.OrganizationID, profile.ID, previous, current, assessment.RiskLevel, explanation)
	if err := s.notifications.Create(ctx, notification); err != nil {
		s.logger.Error(ctx, "Failed to create security notification", err,
			logger.String("profile_id", profile.ID.String()))
		s.metrics.RecordSideEffectFailure("notification")
		return
	}
	s.metrics.NotificationsSent.Inc()
	s.audit.LogAuditEvent(ctx, constants.AuditEventNotificationCreated,
		logger.String("profile_id", profile.ID.String()),
		logger.Int("previous_score", previous),
		logger.Int("new_score", current),
	)
}

func (s *activityServiceImpl) generateExplanation(ctx context.Context, req domainservice.ExplainRequest) string {
	if s.explainer == nil {
		return ""
	}
	explainCtx, cancel := context.WithTimeout(ctx, s.explainTimeout)
	defer cancel()

	start := time.Now()
	explanation, err := s.explainer.Generate(explainCtx, req)
	if err != nil {
		s.logger.Warn(ctx, "Explanation service failed, continuing without explanation",
			logger.Error(err), logger.String("profile_id", req.ProfileID.String()))
		s.metrics.RecordSideEffectFailure("explanation")
		s.metrics.RecordExplain("failure", time.Since(start))
		return ""
	}
	s.metrics.RecordExplain("success", time.Since(start))
	return explanation
}

func (s *activityServiceImpl) createThreat(ctx context.Context, profile *models.Profile, event *models.ActivityEvent, assessment domainservice.Assessment) {
	riskScore := assessment.ScoreImpact
	if riskScore < 0 {
		riskScore = -riskScore
	}
	riskScore *= constants.RiskScoreFactor

	activityID := event.ID
	threat := models.NewThreatDetection(
		profile.OrganizationID, profile.ID, &activityID,
		assessment.ThreatType, assessment.RiskLevel, riskScore,
		assessment.Reason, assessment.Explanation)
	if err := s.threats.Create(ctx, threat); err != nil {
		s.logger.Error(ctx, "Failed to create threat detection", err,
			logger.String("profile_id", profile.ID.String()),
			logger.String("risk_level", string(assessment.RiskLevel)))
		s.metrics.RecordSideEffectFailure("threat")
		return
	}
	s.metrics.RecordThreatDetected(assessment.RiskLevel)
	s.audit.LogThreatDetected(ctx, profile.ID.String(), assessment.RiskLevel, riskScore)
}

func (s *activityServiceImpl) ScoreHistory(ctx context.Context, profileID uuid.UUID, limit int) ([]*models.ScoreHistoryEntry, error) {
	return s.profiles.ScoreHistory(ctx, profileID, limit)
}
