package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/internal/domain/repository"
	domainservice "github.com/sentrasec/sentra/internal/domain/service"
)

type mockProfileRepo struct{ mock.Mock }

func (m *mockProfileRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockProfileRepo) FindByUser(ctx context.Context, orgID, userID uuid.UUID) (*models.Profile, error) {
	args := m.Called(ctx, orgID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *mockProfileRepo) Save(ctx context.Context, profile *models.Profile) error {
	return m.Called(ctx, profile).Error(0)
}

func (m *mockProfileRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProfileRepo) ApplyScoreDelta(ctx context.Context, profileID uuid.UUID, delta int, reason string) (int, int, error) {
	args := m.Called(ctx, profileID, delta, reason)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *mockProfileRepo) ScoreHistory(ctx context.Context, profileID uuid.UUID, limit int) ([]*models.ScoreHistoryEntry, error) {
	args := m.Called(ctx, profileID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ScoreHistoryEntry), args.Error(1)
}

type mockActivityRepo struct{ mock.Mock }

func (m *mockActivityRepo) Create(ctx context.Context, event *models.ActivityEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockActivityRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ActivityEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ActivityEvent), args.Error(1)
}

func (m *mockActivityRepo) ListByProfile(ctx context.Context, profileID uuid.UUID, limit int) ([]*models.ActivityEvent, error) {
	args := m.Called(ctx, profileID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ActivityEvent), args.Error(1)
}

type mockThreatRepo struct{ mock.Mock }

func (m *mockThreatRepo) Create(ctx context.Context, threat *models.ThreatDetection) error {
	return m.Called(ctx, threat).Error(0)
}

func (m *mockThreatRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.ThreatDetection, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ThreatDetection), args.Error(1)
}

func (m *mockThreatRepo) List(ctx context.Context, filter repository.ThreatFilter) ([]*models.ThreatDetection, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ThreatDetection), args.Error(1)
}

func (m *mockThreatRepo) Resolve(ctx context.Context, id, resolverID uuid.UUID, note string) error {
	return m.Called(ctx, id, resolverID, note).Error(0)
}

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.SecurityNotification) error {
	return m.Called(ctx, notification).Error(0)
}

func (m *mockNotificationRepo) ListByProfile(ctx context.Context, profileID uuid.UUID, unreadOnly bool, limit int) ([]*models.SecurityNotification, error) {
	args := m.Called(ctx, profileID, unreadOnly, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SecurityNotification), args.Error(1)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, profileID uuid.UUID) (int64, error) {
	args := m.Called(ctx, profileID)
	return args.Get(0).(int64), args.Error(1)
}

type mockPredictionRepo struct{ mock.Mock }

func (m *mockPredictionRepo) Upsert(ctx context.Context, prediction *models.MLPrediction) error {
	return m.Called(ctx, prediction).Error(0)
}

func (m *mockPredictionRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.MLPrediction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MLPrediction), args.Error(1)
}

func (m *mockPredictionRepo) List(ctx context.Context, filter repository.PredictionFilter) ([]*models.PredictionView, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PredictionView), args.Error(1)
}

func (m *mockPredictionRepo) MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) error {
	return m.Called(ctx, id, reviewerID).Error(0)
}

type mockExplainer struct{ mock.Mock }

func (m *mockExplainer) Generate(ctx context.Context, req domainservice.ExplainRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, event *models.ActivityEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

type mockFeed struct{ mock.Mock }

func (m *mockFeed) NotifyChanged(ctx context.Context, predictionID uuid.UUID) error {
	return m.Called(ctx, predictionID).Error(0)
}

func (m *mockFeed) Subscribe(ctx context.Context, onChange func(predictionID uuid.UUID)) error {
	return m.Called(ctx, onChange).Error(0)
}
