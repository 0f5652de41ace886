package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sentrasec/sentra/internal/application/dto"
	"github.com/sentrasec/sentra/internal/domain/models"
	domainservice "github.com/sentrasec/sentra/internal/domain/service"
	"github.com/sentrasec/sentra/internal/infrastructure/monitoring"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

type activityFixture struct {
	profiles      *mockProfileRepo
	activities    *mockActivityRepo
	threats       *mockThreatRepo
	notifications *mockNotificationRepo
	explainer     *mockExplainer
	publisher     *mockPublisher
	service       ActivityService
}

func newActivityFixture(t *testing.T) *activityFixture {
	t.Helper()

	f := &activityFixture{
		profiles:      &mockProfileRepo{},
		activities:    &mockActivityRepo{},
		threats:       &mockThreatRepo{},
		notifications: &mockNotificationRepo{},
		explainer:     &mockExplainer{},
		publisher:     &mockPublisher{},
	}
	f.service = NewActivityService(
		f.profiles, f.activities, f.threats, f.notifications,
		domainservice.NewThreatAnalyzer(), f.explainer, f.publisher,
		monitoring.NewMetrics(prometheus.NewRegistry()),
		logger.NewNoopLogger(), time.Second,
	)
	return f
}

func fixtureProfile(score int) *models.Profile {
	profile := models.NewProfile(uuid.New(), uuid.New(), "Dana Reyes")
	profile.SecurityScore = score
	return profile
}

func recordRequest(profile *models.Profile, activityType constants.ActivityType, occurredAt time.Time, metadata models.ActivityMetadata) *dto.RecordActivityRequest {
	return &dto.RecordActivityRequest{
		OrganizationID: profile.OrganizationID,
		UserID:         profile.UserID,
		ActivityType:   activityType,
		Description:    "recorded by test fixture",
		Metadata:       metadata,
		Timestamp:      &occurredAt,
	}
}

func TestRecord_RejectsMissingFields(t *testing.T) {
	f := newActivityFixture(t)

	cases := []*dto.RecordActivityRequest{
		{UserID: uuid.New(), ActivityType: constants.ActivityLogin, Description: "x"},
		{OrganizationID: uuid.New(), ActivityType: constants.ActivityLogin, Description: "x"},
		{OrganizationID: uuid.New(), UserID: uuid.New(), Description: "x"},
		{OrganizationID: uuid.New(), UserID: uuid.New(), ActivityType: constants.ActivityLogin},
	}
	for _, req := range cases {
		_, err := f.service.Record(context.Background(), req)
		require.Error(t, err)
		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.True(t, errors.IsClientError(appErr))
	}

	// Nothing may be persisted for a rejected request.
	f.activities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecord_UnknownProfile(t *testing.T) {
	f := newActivityFixture(t)
	profile := fixtureProfile(80)

	f.profiles.On("FindByUser", mock.Anything, profile.OrganizationID, profile.UserID).
		Return(nil, errors.ErrProfileNotFound(profile.UserID.String()))

	_, err := f.service.Record(context.Background(),
		recordRequest(profile, constants.ActivityLogin, time.Now(), nil))
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	f.activities.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecord_ActivityPersistFailureIsFatal(t *testing.T) {
	f := newActivityFixture(t)
	profile := fixtureProfile(80)

	f.profiles.On("FindByUser", mock.Anything, profile.OrganizationID, profile.UserID).Return(profile, nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(fmt.Errorf("connection reset"))

	_, err := f.service.Record(context.Background(),
		recordRequest(profile, constants.ActivityLogin, time.Now(), nil))
	require.Error(t, err)
	f.profiles.AssertNotCalled(t, "ApplyScoreDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecord_FullPipeline_OffHoursBulkDownload(t *testing.T) {
	f := newActivityFixture(t)
	profile := fixtureProfile(80)
	occurredAt := time.Date(2025, 11, 3, 2, 30, 0, 0, time.UTC)

	f.profiles.On("FindByUser", mock.Anything, profile.OrganizationID, profile.UserID).Return(profile, nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.profiles.On("ApplyScoreDelta", mock.Anything, profile.ID, -15, mock.Anything).Return(80, 65, nil)
	f.explainer.On("Generate", mock.Anything, mock.Anything).
		Return("150 files at 02:30 deviates sharply from the baseline.", nil)
	f.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *models.SecurityNotification) bool {
		return n.Severity == constants.RiskLevelHigh &&
			n.AIExplanation != "" &&
			n.ProfileID == profile.ID
	})).Return(nil)
	f.threats.On("Create", mock.Anything, mock.MatchedBy(func(th *models.ThreatDetection) bool {
		return th.RiskLevel == constants.RiskLevelHigh && th.RiskScore == 150
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.Record(context.Background(),
		recordRequest(profile, constants.ActivityFileDownload, occurredAt,
			models.ActivityMetadata{"file_count": 150}))
	require.NoError(t, err)

	assert.Equal(t, 65, resp.SecurityScore)
	assert.Equal(t, -15, resp.ThreatAnalysis.ScoreImpact)
	assert.Equal(t, "high", resp.ThreatAnalysis.RiskLevel)

	f.notifications.AssertExpectations(t)
	f.threats.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestRecord_NoNotificationWithoutCrossing(t *testing.T) {
	f := newActivityFixture(t)
	profile := fixtureProfile(65)
	occurredAt := time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC)

	f.profiles.On("FindByUser", mock.Anything, profile.OrganizationID, profile.UserID).Return(profile, nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	// 65 -> 63 starts below the threshold; no crossing, no notification.
	f.profiles.On("ApplyScoreDelta", mock.Anything, profile.ID, -2, mock.Anything).Return(65, 63, nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.Record(context.Background(),
		recordRequest(profile, constants.ActivityFileAccess, occurredAt,
			models.ActivityMetadata{"file_count": 3}))
	require.NoError(t, err)
	assert.Equal(t, 63, resp.SecurityScore)

	f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.explainer.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestRecord_ThreatWithoutNotification(t *testing.T) {
	// A critical event high above the threshold creates a detection but no
	// notification: the two triggers are independent.
	f := newActivityFixture(t)
	profile := fixtureProfile(100)
	occurredAt := time.Date(2025, 11, 3, 14, 0, 0, 0, time.UTC)

	f.profiles.On("FindByUser", mock.Anything, profile.OrganizationID, profile.UserID).Return(profile, nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.profiles.On("ApplyScoreDelta", mock.Anything, profile.ID, -25, mock.Anything).Return(100, 75, nil)
	f.threats.On("Create", mock.Anything, mock.MatchedBy(func(th *models.ThreatDetection) bool {
		return th.RiskLevel == constants.RiskLevelCritical && th.RiskScore == 250
	})).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.Record(context.Background(),
		recordRequest(profile, constants.ActivityDataExport, occurredAt, nil))
	require.NoError(t, err)
	assert.Equal(t, 75, resp.SecurityScore)

	f.threats.AssertExpectations(t)
	f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecord_ExplanationFailureStillNotifies(t *testing.T) {
	f := newActivityFixture(t)
	profile := fixtureProfile(72)
	occurredAt := time.Date(2025, 11, 3, 23, 30, 0, 0, time.UTC)

	f.profiles.On("FindByUser", mock.Anything, profile.OrganizationID, profile.UserID).Return(profile, nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.profiles.On("ApplyScoreDelta", mock.Anything, profile.ID, -15, mock.Anything).Return(72, 57, nil)
	f.explainer.On("Generate", mock.Anything, mock.Anything).Return("", fmt.Errorf("model overloaded"))
	f.notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *models.SecurityNotification) bool {
		return n.AIExplanation == ""
	})).Return(nil)
	f.threats.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.Record(context.Background(),
		recordRequest(profile, constants.ActivityFileAccess, occurredAt,
			models.ActivityMetadata{"file_count": 2}))
	require.NoError(t, err)
	assert.Equal(t, 57, resp.SecurityScore)

	f.notifications.AssertExpectations(t)
}

func TestRecord_LedgerFailureReportsPriorScore(t *testing.T) {
	f := newActivityFixture(t)
	profile := fixtureProfile(80)
	occurredAt := time.Date(2025, 11, 3, 2, 0, 0, 0, time.UTC)

	f.profiles.On("FindByUser", mock.Anything, profile.OrganizationID, profile.UserID).Return(profile, nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.profiles.On("ApplyScoreDelta", mock.Anything, profile.ID, -15, mock.Anything).
		Return(0, 0, fmt.Errorf("deadlock detected"))
	f.threats.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.Record(context.Background(),
		recordRequest(profile, constants.ActivityFileDownload, occurredAt,
			models.ActivityMetadata{"file_count": 1}))
	require.NoError(t, err, "a ledger failure must not fail the committed activity")
	assert.Equal(t, 80, resp.SecurityScore)

	// The remaining side effects still run.
	f.threats.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
	f.notifications.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecord_PublisherFailureIsSwallowed(t *testing.T) {
	f := newActivityFixture(t)
	profile := fixtureProfile(90)
	occurredAt := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)

	f.profiles.On("FindByUser", mock.Anything, profile.OrganizationID, profile.UserID).Return(profile, nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(fmt.Errorf("broker unavailable"))

	resp, err := f.service.Record(context.Background(),
		recordRequest(profile, constants.ActivityLogout, occurredAt, nil))
	require.NoError(t, err)
	assert.Equal(t, 90, resp.SecurityScore)
	assert.Zero(t, resp.ThreatAnalysis.ScoreImpact)
}

func TestRecord_UnknownActivityTypeIsNeutral(t *testing.T) {
	f := newActivityFixture(t)
	profile := fixtureProfile(55)
	occurredAt := time.Date(2025, 11, 3, 11, 0, 0, 0, time.UTC)

	f.profiles.On("FindByUser", mock.Anything, profile.OrganizationID, profile.UserID).Return(profile, nil)
	f.activities.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.service.Record(context.Background(),
		recordRequest(profile, constants.ActivityType("badge_swipe"), occurredAt, nil))
	require.NoError(t, err)
	assert.Equal(t, 55, resp.SecurityScore)
	assert.Zero(t, resp.ThreatAnalysis.ScoreImpact)

	f.profiles.AssertNotCalled(t, "ApplyScoreDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.threats.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestScoreHistory_PassesThrough(t *testing.T) {
	f := newActivityFixture(t)
	profileID := uuid.New()
	entries := []*models.ScoreHistoryEntry{
		models.NewScoreHistoryEntry(profileID, 80, 65, "off-hours download"),
	}
	f.profiles.On("ScoreHistory", mock.Anything, profileID, 10).Return(entries, nil)

	got, err := f.service.ScoreHistory(context.Background(), profileID, 10)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}
