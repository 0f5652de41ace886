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

type notificationRepository struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewNotificationRepository creates the PostgreSQL-backed notification repository.
func NewNotificationRepository(db *gorm.DB, log logger.Logger) repository.NotificationRepository {
	return &notificationRepository{db: db, logger: log}
}

func (r *notificationRepository) Create(ctx context.Context, notification *models.SecurityNotification) error {
	if err := r.db.WithContext(ctx).Create(notificationFromDomain(notification)).Error; err != nil {
		r.logger.Error(ctx, "Failed to persist notification", err,
			logger.String("notification_id", notification.ID.String()),
			logger.String("profile_id", notification.ProfileID.String()),
		)
		return errors.ErrPersistence("create notification", err)
	}
	return nil
}

func (r *notificationRepository) ListByProfile(ctx context.Context, profileID uuid.UUID, unreadOnly bool, limit int) ([]*models.SecurityNotification, error) {
	query := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []notificationDBM
	if err := query.Find(&rows).Error; err != nil {
		r.logger.Error(ctx, "Failed to list notifications", err,
			logger.String("profile_id", profileID.String()),
		)
		return nil, errors.ErrPersistence("list notifications", err)
	}

	notifications := make([]*models.SecurityNotification, 0, len(rows))
	for i := range rows {
		notifications = append(notifications, rows[i].toDomain())
	}
	return notifications, nil
}

// MarkRead is idempotent: marking an already-read notification changes
// nothing and reports success.
func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&notificationDBM{}).
		Where("id = ?", id).
		Update("read", true)
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to mark notification read", result.Error,
			logger.String("notification_id", id.String()),
		)
		return errors.ErrPersistence("mark notification read", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&notificationDBM{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return errors.ErrPersistence("mark notification read", err)
		}
		if count == 0 {
			return errors.ErrNotFound("notification", id.String())
		}
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, profileID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&notificationDBM{}).
		Where("profile_id = ? AND read = ?", profileID, false).
		Update("read", true)
	if result.Error != nil {
		r.logger.Error(ctx, "Failed to mark notifications read", result.Error,
			logger.String("profile_id", profileID.String()),
		)
		return 0, errors.ErrPersistence("mark all notifications read", result.Error)
	}
	return result.RowsAffected, nil
}
