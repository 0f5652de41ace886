package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/internal/domain/repository"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// newTestDB opens an in-memory SQLite database. A single connection keeps
// the memory database alive and serializes transactions, which stands in
// for the row locking the PostgreSQL dialect uses.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return db
}

func seedProfile(t *testing.T, repo repository.ProfileRepository, score int) *models.Profile {
	t.Helper()

	profile := models.NewProfile(uuid.New(), uuid.New(), "Dana Reyes")
	profile.SecurityScore = score
	require.NoError(t, repo.Save(context.Background(), profile))
	return profile
}

func TestProfileRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	profile := seedProfile(t, repo, 82)

	found, err := repo.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, found.ID)
	assert.Equal(t, 82, found.SecurityScore)
	assert.True(t, found.Active)

	byUser, err := repo.FindByUser(ctx, profile.OrganizationID, profile.UserID)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, byUser.ID)
}

func TestProfileRepository_FindByUser_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db, logger.NewNoopLogger())

	_, err := repo.FindByUser(context.Background(), uuid.New(), uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestProfileRepository_Deactivate(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	profile := seedProfile(t, repo, 90)
	require.NoError(t, repo.Deactivate(ctx, profile.ID))

	found, err := repo.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.False(t, found.Active)

	err = repo.Deactivate(ctx, uuid.New())
	assert.True(t, errors.IsNotFound(err))
}

func TestProfileRepository_ApplyScoreDelta(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	profile := seedProfile(t, repo, 80)

	previous, current, err := repo.ApplyScoreDelta(ctx, profile.ID, -15, "off-hours file download")
	require.NoError(t, err)
	assert.Equal(t, 80, previous)
	assert.Equal(t, 65, current)

	found, err := repo.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 65, found.SecurityScore)

	history, err := repo.ScoreHistory(ctx, profile.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 80, history[0].PreviousScore)
	assert.Equal(t, 65, history[0].NewScore)
	assert.Equal(t, "off-hours file download", history[0].Reason)
}

func TestProfileRepository_ApplyScoreDelta_ClampsAtBounds(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	low := seedProfile(t, repo, 10)
	previous, current, err := repo.ApplyScoreDelta(ctx, low.ID, -25, "data export")
	require.NoError(t, err)
	assert.Equal(t, 10, previous)
	assert.Equal(t, constants.ScoreMin, current)

	high := seedProfile(t, repo, 98)
	previous, current, err = repo.ApplyScoreDelta(ctx, high.ID, +10, "sustained normal activity")
	require.NoError(t, err)
	assert.Equal(t, 98, previous)
	assert.Equal(t, constants.ScoreMax, current)

	// The history entry records the clamped value, not the raw sum.
	history, err := repo.ScoreHistory(ctx, high.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, constants.ScoreMax, history[0].NewScore)
}

func TestProfileRepository_ApplyScoreDelta_UnknownProfile(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db, logger.NewNoopLogger())

	_, _, err := repo.ApplyScoreDelta(context.Background(), uuid.New(), -5, "x")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestProfileRepository_ApplyScoreDelta_ConcurrentDeltasAllApply(t *testing.T) {
	db := newTestDB(t)
	repo := NewProfileRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	profile := seedProfile(t, repo, 50)

	var group errgroup.Group
	for i := 0; i < 20; i++ {
		group.Go(func() error {
			_, _, err := repo.ApplyScoreDelta(ctx, profile.ID, -1, "routine file access")
			return err
		})
	}
	require.NoError(t, group.Wait())

	found, err := repo.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, found.SecurityScore, "no delta may be lost")

	history, err := repo.ScoreHistory(ctx, profile.ID, 0)
	require.NoError(t, err)
	assert.Len(t, history, 20)
}

func TestActivityRepository_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewActivityRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	event := &models.ActivityEvent{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		ProfileID:      uuid.New(),
		UserID:         uuid.New(),
		ActivityType:   constants.ActivityFileDownload,
		Description:    "bulk report download",
		ResourceType:   "report",
		ResourceID:     "q3-financials",
		Metadata:       models.ActivityMetadata{"file_count": 150},
		OccurredAt:     time.Date(2025, 11, 3, 2, 30, 0, 0, time.UTC),
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, event))

	found, err := repo.FindByID(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.ActivityFileDownload, found.ActivityType)
	count, ok := found.Metadata.FileCount()
	require.True(t, ok)
	assert.Equal(t, 150, count)
	assert.True(t, found.IsOffHours())
}

func TestActivityRepository_ListByProfile_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewActivityRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	profileID := uuid.New()
	base := time.Date(2025, 11, 3, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		event := &models.ActivityEvent{
			ID:             uuid.New(),
			OrganizationID: uuid.New(),
			ProfileID:      profileID,
			UserID:         uuid.New(),
			ActivityType:   constants.ActivityLogin,
			OccurredAt:     base.Add(time.Duration(i) * time.Hour),
			CreatedAt:      time.Now().UTC(),
		}
		require.NoError(t, repo.Create(ctx, event))
	}

	events, err := repo.ListByProfile(ctx, profileID, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.True(t, events[0].OccurredAt.After(events[1].OccurredAt))
}

func TestThreatRepository_ResolveOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewThreatRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	activityID := uuid.New()
	threat := models.NewThreatDetection(uuid.New(), uuid.New(), &activityID,
		"excessive_file_access", constants.RiskLevelHigh, 150, "off-hours bulk access", "")
	require.NoError(t, repo.Create(ctx, threat))

	resolver := uuid.New()
	require.NoError(t, repo.Resolve(ctx, threat.ID, resolver, "reviewed with manager"))

	found, err := repo.FindByID(ctx, threat.ID)
	require.NoError(t, err)
	require.True(t, found.Resolved())
	assert.Equal(t, resolver, *found.ResolvedBy)
	assert.Equal(t, "reviewed with manager", found.ResolutionNote)

	// The second resolver loses the conditional write.
	err = repo.Resolve(ctx, threat.ID, uuid.New(), "me too")
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	err = repo.Resolve(ctx, uuid.New(), resolver, "")
	assert.True(t, errors.IsNotFound(err))
}

func TestThreatRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewThreatRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	orgID := uuid.New()
	profileID := uuid.New()
	high := models.NewThreatDetection(orgID, profileID, nil, "excessive_file_access", constants.RiskLevelHigh, 150, "", "")
	critical := models.NewThreatDetection(orgID, profileID, nil, "data_exfiltration", constants.RiskLevelCritical, 250, "", "")
	other := models.NewThreatDetection(uuid.New(), uuid.New(), nil, "brute_force", constants.RiskLevelCritical, 200, "", "")
	require.NoError(t, repo.Create(ctx, high))
	require.NoError(t, repo.Create(ctx, critical))
	require.NoError(t, repo.Create(ctx, other))
	require.NoError(t, repo.Resolve(ctx, critical.ID, uuid.New(), "contained"))

	all, err := repo.List(ctx, repository.ThreatFilter{OrganizationID: orgID})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	unresolved := false
	open, err := repo.List(ctx, repository.ThreatFilter{OrganizationID: orgID, Resolved: &unresolved})
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, high.ID, open[0].ID)

	criticalOnly, err := repo.List(ctx, repository.ThreatFilter{OrganizationID: orgID, RiskLevel: constants.RiskLevelCritical})
	require.NoError(t, err)
	require.Len(t, criticalOnly, 1)
	assert.Equal(t, critical.ID, criticalOnly[0].ID)
}

func TestNotificationRepository_MarkRead(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	notification := models.NewScoreDropNotification(uuid.New(), uuid.New(), 75, 65, constants.RiskLevelHigh, "")
	require.NoError(t, repo.Create(ctx, notification))

	require.NoError(t, repo.MarkRead(ctx, notification.ID))
	// Marking again is a no-op, not an error.
	require.NoError(t, repo.MarkRead(ctx, notification.ID))

	unread, err := repo.ListByProfile(ctx, notification.ProfileID, true, 0)
	require.NoError(t, err)
	assert.Empty(t, unread)

	err = repo.MarkRead(ctx, uuid.New())
	assert.True(t, errors.IsNotFound(err))
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	db := newTestDB(t)
	repo := NewNotificationRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	profileID := uuid.New()
	orgID := uuid.New()
	for i := 0; i < 3; i++ {
		notification := models.NewScoreDropNotification(orgID, profileID, 72, 60, constants.RiskLevelMedium, "")
		require.NoError(t, repo.Create(ctx, notification))
	}

	affected, err := repo.MarkAllRead(ctx, profileID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	affected, err = repo.MarkAllRead(ctx, profileID)
	require.NoError(t, err)
	assert.Zero(t, affected)
}

func seedPrediction(activityID, profileID uuid.UUID) *models.MLPrediction {
	return &models.MLPrediction{
		ID:                uuid.New(),
		ActivityID:        activityID,
		ProfileID:         profileID,
		SupervisedScore:   0.91,
		IsolationScore:    0.74,
		SequenceScore:     0.66,
		ThreatProbability: 0.82,
		ThreatClass:       constants.ThreatClassThreat,
		ThreatLevel:       constants.RiskLevelHigh,
		ThreatType:        "data_exfiltration",
		Confidence:        0.88,
		FeatureImportance: map[string]float64{"file_count": 0.61, "hour_of_day": 0.24},
		RequiresReview:    true,
		CreatedAt:         time.Now().UTC(),
	}
}

func TestPredictionRepository_UpsertPreservesReview(t *testing.T) {
	db := newTestDB(t)
	repo := NewPredictionRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	prediction := seedPrediction(uuid.New(), uuid.New())
	require.NoError(t, repo.Upsert(ctx, prediction))

	reviewer := uuid.New()
	require.NoError(t, repo.MarkReviewed(ctx, prediction.ID, reviewer))

	// A later feed refresh updates the scores but must not clear the review.
	prediction.ThreatProbability = 0.95
	require.NoError(t, repo.Upsert(ctx, prediction))

	found, err := repo.FindByID(ctx, prediction.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.95, found.ThreatProbability)
	require.True(t, found.Reviewed())
	assert.Equal(t, reviewer, *found.ReviewedBy)
}

func TestPredictionRepository_MarkReviewedOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewPredictionRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	prediction := seedPrediction(uuid.New(), uuid.New())
	require.NoError(t, repo.Upsert(ctx, prediction))

	require.NoError(t, repo.MarkReviewed(ctx, prediction.ID, uuid.New()))

	err := repo.MarkReviewed(ctx, prediction.ID, uuid.New())
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))

	err = repo.MarkReviewed(ctx, uuid.New(), uuid.New())
	assert.True(t, errors.IsNotFound(err))
}

func TestPredictionRepository_ListJoinsActivityAndProfile(t *testing.T) {
	db := newTestDB(t)
	profiles := NewProfileRepository(db, logger.NewNoopLogger())
	activities := NewActivityRepository(db, logger.NewNoopLogger())
	repo := NewPredictionRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	profile := seedProfile(t, profiles, 64)
	event := &models.ActivityEvent{
		ID:             uuid.New(),
		OrganizationID: profile.OrganizationID,
		ProfileID:      profile.ID,
		UserID:         profile.UserID,
		ActivityType:   constants.ActivityDataExport,
		Description:    "customer table export",
		OccurredAt:     time.Date(2025, 11, 4, 23, 10, 0, 0, time.UTC),
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, activities.Create(ctx, event))

	prediction := seedPrediction(event.ID, profile.ID)
	require.NoError(t, repo.Upsert(ctx, prediction))

	safe := seedPrediction(event.ID, profile.ID)
	safe.ThreatClass = constants.ThreatClassSafe
	safe.RequiresReview = false
	require.NoError(t, repo.Upsert(ctx, safe))

	views, err := repo.List(ctx, repository.PredictionFilter{ProfileID: &profile.ID})
	require.NoError(t, err)
	require.Len(t, views, 2)

	flagged := true
	reviewQueue, err := repo.List(ctx, repository.PredictionFilter{RequiresReview: &flagged})
	require.NoError(t, err)
	require.Len(t, reviewQueue, 1)
	view := reviewQueue[0]
	assert.Equal(t, prediction.ID, view.ID)
	assert.Equal(t, constants.ThreatClassThreat, view.ThreatClass)
	assert.Equal(t, 0.82, view.ThreatProbability)
	assert.Equal(t, 0.88, view.Confidence)
	assert.True(t, view.RequiresReview)
	assert.False(t, view.Reviewed())
	assert.Equal(t, "Dana Reyes", view.ProfileName)
	assert.Equal(t, 64, view.ProfileScore)
	assert.Equal(t, constants.ActivityDataExport, view.ActivityType)
	assert.Equal(t, "customer table export", view.ActivityDescription)
	assert.InDelta(t, 0.61, view.FeatureImportance["file_count"], 1e-9)

	threats, err := repo.List(ctx, repository.PredictionFilter{ThreatClass: constants.ThreatClassThreat, Limit: 5})
	require.NoError(t, err)
	assert.Len(t, threats, 1)
}

func TestPredictionRepository_ListKeepsReviewedRowsInReviewFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewPredictionRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	profiles := NewProfileRepository(db, logger.NewNoopLogger())
	profile := seedProfile(t, profiles, 64)

	prediction := seedPrediction(uuid.New(), profile.ID)
	require.NoError(t, repo.Upsert(ctx, prediction))

	reviewer := uuid.New()
	require.NoError(t, repo.MarkReviewed(ctx, prediction.ID, reviewer))

	// The filter selects on the flag alone; reviewed rows stay visible
	// with their review state intact.
	flagged := true
	views, err := repo.List(ctx, repository.PredictionFilter{RequiresReview: &flagged})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.True(t, views[0].Reviewed())
	assert.Equal(t, reviewer, *views[0].ReviewedBy)
}
