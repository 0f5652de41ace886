package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/internal/domain/repository"
	domainservice "github.com/sentrasec/sentra/internal/domain/service"
	"github.com/sentrasec/sentra/internal/infrastructure/monitoring"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// Caller identifies the authenticated requester for role-based scoping.
type Caller struct {
	OrganizationID uuid.UUID
	UserID         uuid.UUID
	Role           constants.Role
}

// PredictionStats is the derived view of one fetched prediction window.
// The values are recomputed from the window, never persisted.
type PredictionStats struct {
	Total                 int
	Threats               int
	Safe                  int
	PendingReview         int
	AutoBlocked           int
	HighConfidence        int
	MeanThreatProbability float64
}

// ComputeStats derives the aggregate view from a fetched window.
func ComputeStats(predictions []*models.PredictionView) PredictionStats {
	stats := PredictionStats{Total: len(predictions)}
	if stats.Total == 0 {
		return stats
	}

	var probabilitySum float64
	for _, p := range predictions {
		switch p.ThreatClass {
		case constants.ThreatClassThreat:
			stats.Threats++
		case constants.ThreatClassSafe:
			stats.Safe++
		}
		if p.PendingReview() {
			stats.PendingReview++
		}
		if p.AutoBlocked {
			stats.AutoBlocked++
		}
		if p.HighConfidence() {
			stats.HighConfidence++
		}
		probabilitySum += p.ThreatProbability
	}
	stats.MeanThreatProbability = probabilitySum / float64(stats.Total)
	return stats
}

// PredictionService consumes externally-produced ML ensemble predictions:
// role-scoped fetch, derived stats, the terminal review transition, and the
// live-update refresh loop.
type PredictionService interface {
	// List fetches the caller-visible predictions with derived stats. The
	// stats always describe the window returned alongside them.
	List(ctx context.Context, caller Caller, filter repository.PredictionFilter) ([]*models.PredictionView, PredictionStats, error)

	// Stats returns the derived aggregate for the caller's scope, served
	// from a short-lived cache that change markers invalidate.
	Stats(ctx context.Context, caller Caller, filter repository.PredictionFilter) (PredictionStats, error)

	// Ingest stores one row from the external feed and publishes a change
	// marker.
	Ingest(ctx context.Context, prediction *models.MLPrediction) error

	// MarkReviewed performs the single-use review transition. Reviewing an
	// already-reviewed prediction returns a conflict error.
	MarkReviewed(ctx context.Context, predictionID, reviewerID uuid.UUID) error

	// Watch consumes change markers until ctx is done, invalidating cached
	// stats and invoking registered refresh hooks.
	Watch(ctx context.Context) error

	// OnChange registers a hook invoked after each change marker.
	OnChange(hook func(predictionID uuid.UUID))
}

type predictionServiceImpl struct {
	predictions repository.PredictionRepository
	profiles    repository.ProfileRepository
	feed        domainservice.PredictionFeed
	metrics     *monitoring.Metrics
	logger      logger.Logger
	audit       *logger.AuditLogger
	statsCache  *gocache.Cache
	hooks       []func(predictionID uuid.UUID)
}

// NewPredictionService creates the prediction workflow service. The feed
// may be nil when live updates are disabled.
func NewPredictionService(
	predictions repository.PredictionRepository,
	profiles repository.ProfileRepository,
	feed domainservice.PredictionFeed,
	metrics *monitoring.Metrics,
	log logger.Logger,
) PredictionService {
	return &predictionServiceImpl{
		predictions: predictions,
		profiles:    profiles,
		feed:        feed,
		metrics:     metrics,
		logger:      log.WithComponent("prediction_service"),
		audit:       logger.NewAuditLogger(log),
		statsCache:  gocache.New(constants.StatsCacheTTL, 2*constants.StatsCacheTTL),
	}
}

// scopeFilter applies role scoping: elevated callers see every profile's
// predictions, everyone else is forced onto their own profile regardless of
// the client-supplied filter.
func (s *predictionServiceImpl) scopeFilter(ctx context.Context, caller Caller, filter repository.PredictionFilter) (repository.PredictionFilter, error) {
	if caller.Role.IsElevated() {
		return filter, nil
	}
	profile, err := s.profiles.FindByUser(ctx, caller.OrganizationID, caller.UserID)
	if err != nil {
		if errors.IsNotFound(err) {
			return filter, errors.ErrProfileNotFound(caller.UserID.String())
		}
		return filter, errors.ErrPersistence("profile lookup", err)
	}
	filter.ProfileID = &profile.ID
	return filter, nil
}

// List fetches the scoped window and derives the stats from that same
// window, so a response never pairs a fresh list with stale aggregates.
// The computed stats refresh the cache behind Stats as a side effect.
func (s *predictionServiceImpl) List(ctx context.Context, caller Caller, filter repository.PredictionFilter) ([]*models.PredictionView, PredictionStats, error) {
	filter, err := s.scopeFilter(ctx, caller, filter)
	if err != nil {
		return nil, PredictionStats{}, err
	}

	predictions, err := s.predictions.List(ctx, filter)
	if err != nil {
		return nil, PredictionStats{}, errors.ErrPersistence("prediction list", err)
	}

	stats := ComputeStats(predictions)
	s.statsCache.SetDefault(statsCacheKey(caller, filter), stats)
	return predictions, stats, nil
}

// Stats serves the derived aggregate, from cache when a recent fetch or
// Stats call already computed it for the same scope.
func (s *predictionServiceImpl) Stats(ctx context.Context, caller Caller, filter repository.PredictionFilter) (PredictionStats, error) {
	filter, err := s.scopeFilter(ctx, caller, filter)
	if err != nil {
		return PredictionStats{}, err
	}

	cacheKey := statsCacheKey(caller, filter)
	if cached, ok := s.statsCache.Get(cacheKey); ok {
		return cached.(PredictionStats), nil
	}

	predictions, err := s.predictions.List(ctx, filter)
	if err != nil {
		return PredictionStats{}, errors.ErrPersistence("prediction list", err)
	}
	stats := ComputeStats(predictions)
	s.statsCache.SetDefault(cacheKey, stats)
	return stats, nil
}

func statsCacheKey(caller Caller, filter repository.PredictionFilter) string {
	profileID := "all"
	if filter.ProfileID != nil {
		profileID = filter.ProfileID.String()
	}
	review := "any"
	if filter.RequiresReview != nil {
		review = fmt.Sprintf("%t", *filter.RequiresReview)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%d", caller.OrganizationID, profileID, filter.ThreatClass, review, filter.Limit)
}

func (s *predictionServiceImpl) Ingest(ctx context.Context, prediction *models.MLPrediction) error {
	if err := s.predictions.Upsert(ctx, prediction); err != nil {
		return errors.ErrPersistence("prediction upsert", err)
	}
	s.statsCache.Flush()

	if s.feed != nil {
		if err := s.feed.NotifyChanged(ctx, prediction.ID); err != nil {
			// Consumers fall back to their next poll; the row is committed.
			s.logger.Warn(ctx, "Failed to publish prediction change marker",
				logger.Error(err), logger.String("prediction_id", prediction.ID.String()))
		}
	}
	return nil
}

func (s *predictionServiceImpl) MarkReviewed(ctx context.Context, predictionID, reviewerID uuid.UUID) error {
	if err := s.predictions.MarkReviewed(ctx, predictionID, reviewerID); err != nil {
		if errors.IsConflict(err) || errors.IsNotFound(err) {
			s.metrics.RecordReview("rejected")
			return err
		}
		s.metrics.RecordReview("error")
		return errors.ErrPersistence("prediction review", err)
	}

	s.metrics.RecordReview("success")
	s.audit.LogPredictionReviewed(ctx, predictionID.String(), reviewerID.String())
	s.statsCache.Flush()

	if s.feed != nil {
		if err := s.feed.NotifyChanged(ctx, predictionID); err != nil {
			s.logger.Warn(ctx, "Failed to publish prediction change marker",
				logger.Error(err), logger.String("prediction_id", predictionID.String()))
		}
	}
	return nil
}

// Watch blocks consuming change markers. Each marker drops the cached
// stats so the next fetch recomputes, then runs the registered hooks.
// Redundant markers are harmless.
func (s *predictionServiceImpl) Watch(ctx context.Context) error {
	if s.feed == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return s.feed.Subscribe(ctx, func(predictionID uuid.UUID) {
		s.statsCache.Flush()
		s.metrics.FeedRefreshes.Inc()
		for _, hook := range s.hooks {
			hook(predictionID)
		}
	})
}

func (s *predictionServiceImpl) OnChange(hook func(predictionID uuid.UUID)) {
	s.hooks = append(s.hooks, hook)
}
