package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sentrasec/sentra/internal/application/dto"
	"github.com/sentrasec/sentra/internal/application/service"
	"github.com/sentrasec/sentra/internal/domain/repository"
	"github.com/sentrasec/sentra/internal/interfaces/http/middleware"
	"github.com/sentrasec/sentra/pkg/constants"
	"github.com/sentrasec/sentra/pkg/errors"
	"github.com/sentrasec/sentra/pkg/logger"
)

// PredictionHandler exposes the ML ensemble prediction workflow.
type PredictionHandler struct {
	predictions service.PredictionService
	logger      logger.Logger
}

// NewPredictionHandler creates the prediction handler.
func NewPredictionHandler(predictions service.PredictionService, log logger.Logger) *PredictionHandler {
	return &PredictionHandler{predictions: predictions, logger: log}
}

// List returns the caller-visible predictions with derived stats.
// GET /api/v1/predictions
func (h *PredictionHandler) List(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		dto.SendError(c, errors.ErrUnauthorized("missing caller identity"))
		return
	}

	filter, err := predictionFilterFromQuery(c)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	predictions, stats, err := h.predictions.List(c.Request.Context(), caller, filter)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	out := make([]dto.PredictionViewDTO, 0, len(predictions))
	for _, prediction := range predictions {
		out = append(out, dto.PredictionViewFromModel(prediction))
	}
	dto.SendSuccess(c, http.StatusOK, dto.PredictionListResponse{
		Predictions: out,
		Stats:       statsDTO(stats),
	})
}

// Stats returns only the derived aggregate for the caller's scope.
// GET /api/v1/predictions/stats
func (h *PredictionHandler) Stats(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		dto.SendError(c, errors.ErrUnauthorized("missing caller identity"))
		return
	}

	filter, err := predictionFilterFromQuery(c)
	if err != nil {
		dto.SendError(c, err)
		return
	}

	stats, err := h.predictions.Stats(c.Request.Context(), caller, filter)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, statsDTO(stats))
}

func predictionFilterFromQuery(c *gin.Context) (repository.PredictionFilter, error) {
	filter := repository.PredictionFilter{
		ThreatClass: constants.ThreatClass(c.Query("threat_class")),
		Limit:       queryInt(c, "limit", 100),
	}
	if raw := c.Query("profile_id"); raw != "" {
		profileID, err := uuid.Parse(raw)
		if err != nil {
			return filter, errors.ErrInvalidRequest("invalid profile_id")
		}
		filter.ProfileID = &profileID
	}
	if raw := c.Query("requires_review"); raw != "" {
		requiresReview := raw == "true"
		filter.RequiresReview = &requiresReview
	}
	return filter, nil
}

func statsDTO(stats service.PredictionStats) dto.PredictionStatsDTO {
	return dto.PredictionStatsDTO{
		Total:                 stats.Total,
		Threats:               stats.Threats,
		Safe:                  stats.Safe,
		PendingReview:         stats.PendingReview,
		AutoBlocked:           stats.AutoBlocked,
		HighConfidence:        stats.HighConfidence,
		MeanThreatProbability: stats.MeanThreatProbability,
	}
}

// Review performs the single-use review transition.
// POST /api/v1/predictions/:prediction_id/review
func (h *PredictionHandler) Review(c *gin.Context) {
	caller, ok := middleware.CallerFrom(c)
	if !ok {
		dto.SendError(c, errors.ErrUnauthorized("missing caller identity"))
		return
	}

	predictionID, err := uuid.Parse(c.Param("prediction_id"))
	if err != nil {
		dto.SendError(c, errors.ErrInvalidRequest("invalid prediction_id"))
		return
	}

	if err := h.predictions.MarkReviewed(c.Request.Context(), predictionID, caller.UserID); err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, gin.H{"reviewed": true})
}

// Ingest accepts one prediction row from the external model service.
// POST /internal/ml/predictions
func (h *PredictionHandler) Ingest(c *gin.Context) {
	var req dto.IngestPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn(c.Request.Context(), "Invalid prediction payload", logger.Error(err))
		dto.SendError(c, errors.ErrInvalidRequest("malformed prediction payload").WithCause(err))
		return
	}

	prediction := req.ToModel()
	if err := h.predictions.Ingest(c.Request.Context(), prediction); err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusAccepted, gin.H{"id": prediction.ID})
}
