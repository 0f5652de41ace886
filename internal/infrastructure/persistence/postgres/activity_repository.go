package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sentrasec/sentra/internal/domain/models"
	"github.com/sentrasec/sentra/internal/domain/repository"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

type activityRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewActivityRepository creates the PostgreSQL-backed activity repository.
func NewActivityRepository(db *gorm.DB, log logger.Logger) repository.ActivityRepository {
	return &activityRepository{db: db, logger: log}
}

func (r *activityRepository) Create(ctx context.Context, event *models.ActivityEvent) error {
	row, err := activityFromDomain(event)
	if err != nil {
		return errors.ErrPersistence("encode activity", err)
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		r.logger.Error(ctx, "Failed to persist activity event", err,
			logger.String("activity_id", event.ID.String()),
			logger.String("profile_id", event.ProfileID.String()),
		)
		return errors.ErrPersistence("create activity", err)
	}
	return nil
}

func (r *activityRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.ActivityEvent, error) {
	var row activityDBM
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrNotFound("activity", id.String())
		}
		r.logger.Error(ctx, "Failed to load activity event", err, logger.String("activity_id", id.String()))
		return nil, errors.ErrPersistence("find activity", err)
	}
	event, err := row.toDomain()
	if err != nil {
		return nil, errors.ErrPersistence("decode activity", err)
	}
	return event, nil
}

func (r *activityRepository) ListByProfile(ctx context.Context, profileID uuid.UUID, limit int) ([]*models.ActivityEvent, error) {
	query := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []activityDBM
	if err := query.Find(&rows).Error; err != nil {
		r.logger.Error(ctx, "Failed to list activity events", err,
			logger.String("profile_id", profileID.String()),
		)
		return nil, errors.ErrPersistence("list activities", err)
	}

	events := make([]*models.ActivityEvent, 0, len(rows))
	for i := range rows {
		event, err := rows[i].toDomain()
		if err != nil {
			return nil, errors.ErrPersistence("decode activity", err)
		}
		events = append(events, event)
	}
	return events, nil
}
