package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/application/dto"
	"github.com/sentrasec/sentra/internal/domain/repository"
	"github.com/sentrasec/sentra/internal/interfaces/http/middleware"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// NotificationHandler exposes security notifications. Employees only reach
// their own profile's notifications; elevated callers may address any
// profile in their organization.
type NotificationHandler struct {
	notifications repository.NotificationRepository
	profiles      repository.ProfileRepository
	logger        logger.Logger
}

// NewNotificationHandler creates the notification handler.
func NewNotificationHandler(notifications repository.NotificationRepository, profiles repository.ProfileRepository, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		profiles:      profiles,
		logger:        log,
	}
}

// resolveProfileID picks the profile the request addresses: the path
// parameter for elevated callers, always the caller's own profile otherwise.
func (h *NotificationHandler) resolveProfileID(c *gin.Context) (uuid.UUID, error) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		return uuid.Nil, errors.ErrUnauthorized("missing caller identity")
	}

	if caller.Role.IsElevated() {
		if raw := c.Param("profile_id"); raw != "" {
			profileID, err := uuid.Parse(raw)
			if err != nil {
				return uuid.Nil, errors.ErrInvalidRequest("invalid profile_id")
			}
			return profileID, nil
		}
	}

	profile, err := h.profiles.FindByUser(c.Request.Context(), caller.OrganizationID, caller.UserID)
	if err != nil {
		return uuid.Nil, err
	}
	return profile.ID, nil
}

// List returns notifications, newest first.
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	profileID, err := h.resolveProfileID(c)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.notifications.ListByProfile(c.Request.Context(), profileID, unreadOnly, queryInt(c, "limit", 50))
	if err != nil {
		dto.SendError(c, err)
		return
	}

	out := make([]dto.NotificationDTO, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, dto.NotificationFromModel(notification))
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"notifications": out})
}

// MarkRead marks one notification read. Re-marking is a harmless no-op.
// POST /api/v1/notifications/:notification_id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := uuid.Parse(c.Param("notification_id"))
	if err != nil {
		dto.SendError(c, errors.ErrInvalidRequest("invalid notification_id"))
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), notificationID); err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"read": true})
}

// MarkAllRead marks every unread notification for the addressed profile.
// POST /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	profileID, err := h.resolveProfileID(c)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	affected, err := h.notifications.MarkAllRead(c.Request.Context(), profileID)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"marked_read": affected})
}
