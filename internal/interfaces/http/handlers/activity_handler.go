// Package handlers implements the gin HTTP handlers of the API.
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/application/dto"
	"github.com/sentrasec/sentra/internal/application/service"
	"github.com/sentrasec/sentra/internal/infrastructure/monitoring"
	"github.com/sentrasec/sentra/internal/interfaces/http/middleware"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// ActivityHandler exposes the ingestion pipeline and the score ledger.
type ActivityHandler struct {
	activities service.ActivityService
	metrics    *monitoring.Metrics
	logger     logger.Logger
}

// NewActivityHandler creates the activity handler.
func NewActivityHandler(activities service.ActivityService, metrics *monitoring.Metrics, log logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		metrics:    metrics,
		logger:     log,
	}
}

// Record ingests one activity event.
// POST /api/v1/activities
func (h *ActivityHandler) Record(c *gin.Context) {
	start := time.Now()

	var req dto.RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn(c.Request.Context(), "Invalid activity payload", logger.Error(err))
		dto.SendError(c, errors.ErrInvalidRequest("malformed activity payload").WithCause(err))
		return
	}

	caller, ok := middleware.CallerFrom(c)
	if !ok {
		dto.SendError(c, errors.ErrUnauthorized("missing caller identity"))
		return
	}
	if req.OrganizationID == uuid.Nil {
		req.OrganizationID = caller.OrganizationID
	} else if req.OrganizationID != caller.OrganizationID {
		dto.SendError(c, errors.ErrForbidden("organization mismatch"))
		return
	}

	resp, err := h.activities.Record(c.Request.Context(), &req)
	if err != nil {
		h.metrics.RecordIngest(req.ActivityType, "error", time.Since(start))
		dto.SendError(c, err)
		return
	}

	h.metrics.RecordIngest(req.ActivityType, "ok", time.Since(start))
	dto.SendSuccess(c, http.StatusCreated, resp)
}

// ScoreHistory returns a profile's score ledger, newest first.
// GET /api/v1/profiles/:profile_id/score-history
func (h *ActivityHandler) ScoreHistory(c *gin.Context) {
	profileID, err := uuid.Parse(c.Param("profile_id"))
	if err != nil {
		dto.SendError(c, errors.ErrInvalidRequest("invalid profile_id"))
		return
	}
	limit := queryInt(c, "limit", 50)

	entries, err := h.activities.ScoreHistory(c.Request.Context(), profileID, limit)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	history := make([]dto.ScoreHistoryEntryDTO, 0, len(entries))
	for _, entry := range entries {
		history = append(history, dto.ScoreHistoryEntryFromModel(entry))
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"history": history})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
