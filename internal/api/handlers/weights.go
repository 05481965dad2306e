package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/trendpulse/internal/logging"
	"github.com/irfndi/trendpulse/internal/models"
	"github.com/irfndi/trendpulse/internal/services"
)

type WeightsHandler struct {
	scoring *services.ScoringService
	logger  logging.Logger
}

func NewWeightsHandler(scoring *services.ScoringService, logger logging.Logger) *WeightsHandler {
	return &WeightsHandler{scoring: scoring, logger: handlerLogger(logger)}
}

// GetWeights handles GET /api/v1/weights/:contentType.
func (h *WeightsHandler) GetWeights(c *gin.Context) {
	ct, w, err := h.scoring.Weights(c.Param("contentType"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.WeightsResponse{ContentType: ct, Weights: roundWeights(w)})
}

// ReportPerformance handles POST /api/v1/weights/:contentType/performance.
func (h *WeightsHandler) ReportPerformance(c *gin.Context) {
	var req models.PerformanceReport
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	updated, err := h.scoring.ReportPerformance(c.Request.Context(), c.Param("contentType"), req.Metric, req.Performance)
	if err != nil {
		respondError(c, err)
		return
	}

	ct, _ := services.NormalizeKey("content_type", c.Param("contentType"))
	h.logger.LogWeightUpdate(ct, req.Metric, req.Performance, updated)
	c.JSON(http.StatusOK, models.WeightsResponse{ContentType: ct, Weights: roundWeights(updated)})
}

// ResetWeights handles DELETE /api/v1/weights/:contentType.
func (h *WeightsHandler) ResetWeights(c *gin.Context) {
	ct, defaults, err := h.scoring.Reset(c.Request.Context(), c.Param("contentType"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.LogBusinessEvent("weights_reset", map[string]interface{}{
		"content_type": ct,
		"weights":      defaults,
	})
	c.JSON(http.StatusOK, models.WeightsResponse{ContentType: ct, Weights: roundWeights(defaults)})
}

// Score handles POST /api/v1/scores/:contentType.
func (h *WeightsHandler) Score(c *gin.Context) {
	var req models.ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	score, w, err := h.scoring.Score(c.Param("contentType"), req.Subscores)
	if err != nil {
		respondError(c, err)
		return
	}

	ct, _ := services.NormalizeKey("content_type", c.Param("contentType"))
	h.logger.WithContentType(ct).Debug("Content scored", "score", score)
	c.JSON(http.StatusOK, models.ScoreResponse{
		ContentType: ct,
		Score:       services.Round4(score),
		Weights:     roundWeights(w),
	})
}
