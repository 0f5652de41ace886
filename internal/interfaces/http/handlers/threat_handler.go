package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/application/dto"
	"github.com/sentrasec/sentra/internal/domain/repository"
	"github.com/sentrasec/sentra/internal/interfaces/http/middleware"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// ThreatHandler exposes threat detections to analysts.
type ThreatHandler struct {
	threats repository.ThreatRepository
	logger  logger.Logger
}

// NewThreatHandler creates the threat handler.
func NewThreatHandler(threats repository.ThreatRepository, log logger.Logger) *ThreatHandler {
	return &ThreatHandler{threats: threats, logger: log}
}

// List returns the caller organization's threat detections, newest first.
// GET /api/v1/threats
func (h *ThreatHandler) List(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		dto.SendError(c, errors.ErrUnauthorized("missing caller identity"))
		return
	}

	filter := repository.ThreatFilter{
		OrganizationID: caller.OrganizationID,
		RiskLevel:      constants.RiskLevel(c.Query("risk_level")),
		Limit:          queryInt(c, "limit", 100),
	}
	if raw := c.Query("profile_id"); raw != "" {
		profileID, err := uuid.Parse(raw)
		if err != nil {
			dto.SendError(c, errors.ErrInvalidRequest("invalid profile_id"))
			return
		}
		filter.ProfileID = &profileID
	}
	if raw := c.Query("resolved"); raw != "" {
		resolved := raw == "true"
		filter.Resolved = &resolved
	}

	threats, err := h.threats.List(c.Request.Context(), filter)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	out := make([]dto.ThreatDetectionDTO, 0, len(threats))
	for _, threat := range threats {
		out = append(out, dto.ThreatDetectionFromModel(threat))
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"threats": out})
}

// Resolve marks a detection resolved. The transition is single-use; a
// second resolve attempt reports a conflict.
// POST /api/v1/threats/:threat_id/resolve
func (h *ThreatHandler) Resolve(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		dto.SendError(c, errors.ErrUnauthorized("missing caller identity"))
		return
	}

	threatID, err := uuid.Parse(c.Param("threat_id"))
	if err != nil {
		dto.SendError(c, errors.ErrInvalidRequest("invalid threat_id"))
		return
	}

	var req dto.ResolveThreatRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		dto.SendError(c, errors.ErrInvalidRequest("malformed resolution payload").WithCause(err))
		return
	}

	if err := h.threats.Resolve(c.Request.Context(), threatID, caller.UserID, req.Note); err != nil {
		dto.SendError(c, err)
		return
	}

	threat, err := h.threats.FindByID(c.Request.Context(), threatID)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, dto.ThreatDetectionFromModel(threat))
}
