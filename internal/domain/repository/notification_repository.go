package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/domain/models"
)

// NotificationRepository persists security notifications.
type NotificationRepository interface {
	// Create stores a new, unread notification.
	Create(ctx context.Context, notification *models.SecurityNotification) error

	// ListByProfile returns a profile's notifications, newest first,
	// optionally only the unread ones.
	ListByProfile(ctx context.Context, profileID uuid.UUID, unreadOnly bool, limit int) ([]*models.SecurityNotification, error)

	// MarkRead marks one notification as read. Marking an already-read
	// notification is a harmless no-op.
	MarkRead(ctx context.Context, id uuid.UUID) error

	// MarkAllRead marks every unread notification for a profile as read
	// and returns how many were affected.
	MarkAllRead(ctx context.Context, profileID uuid.UUID) (int64, error)
}
