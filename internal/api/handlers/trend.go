package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/irfndi/trendpulse/internal/logging"
	"github.com/irfndi/trendpulse/internal/models"
	"github.com/irfndi/trendpulse/internal/pattern"
	"github.com/irfndi/trendpulse/internal/services"
	"github.com/shopspring/decimal"
)

type TrendHandler struct {
	service *services.TrendService
	parser  *services.SeriesParser
	logger  logging.Logger
}

// PatternView is the feature snapshot as rendered over HTTP, rounded to four
// decimal places. Features that could not be computed, such as those of a
// series with missing observations, are omitted rather than reported as 0.
type PatternView struct {
	Momentum            *decimal.Decimal    `json:"momentum,omitempty"`
	Volatility          *decimal.Decimal    `json:"volatility,omitempty"`
	TrendStrength       *decimal.Decimal    `json:"trend_strength,omitempty"`
	BreakoutProbability *decimal.Decimal    `json:"breakout_probability,omitempty"`
	ReversalProbability *decimal.Decimal    `json:"reversal_probability,omitempty"`
	Seasonality         *decimal.Decimal    `json:"seasonality,omitempty"`
	ConfidenceScore     *decimal.Decimal    `json:"confidence_score,omitempty"`
	SupportLevel        *decimal.Decimal    `json:"support_level,omitempty"`
	ResistanceLevel     *decimal.Decimal    `json:"resistance_level,omitempty"`
	DominantCycle       string              `json:"dominant_cycle,omitempty"`
	PatternType         pattern.PatternType `json:"pattern_type"`
	DataPoints          int                 `json:"data_points"`
}

type ClassifyResponse struct {
	Topic             string               `json:"topic"`
	Variant           pattern.TrendPattern `json:"variant"`
	Metadata          pattern.Metadata     `json:"metadata"`
	RecommendedAction pattern.Action       `json:"recommended_action"`
	Flags             services.Flags       `json:"flags"`
	Pattern           PatternView          `json:"pattern"`
	RecordID          *uuid.UUID           `json:"record_id,omitempty"`
}

type HistoryResponse struct {
	Topic    string                      `json:"topic"`
	Patterns []models.TrendPatternRecord `json:"patterns"`
	Count    int                         `json:"count"`
}

type VariantCountsResponse struct {
	Since  time.Time             `json:"since"`
	Counts []models.VariantCount `json:"counts"`
}

type PatternInfo struct {
	Name     pattern.TrendPattern `json:"name"`
	Metadata pattern.Metadata     `json:"metadata"`
}

func NewTrendHandler(service *services.TrendService, parser *services.SeriesParser, logger logging.Logger) *TrendHandler {
	if parser == nil {
		parser = services.NewSeriesParser(services.DefaultMaxSeriesSize)
	}
	return &TrendHandler{service: service, parser: parser, logger: handlerLogger(logger)}
}

// Classify handles POST /api/v1/trends/classify.
func (h *TrendHandler) Classify(c *gin.Context) {
	var req models.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	series, err := h.parser.FromValues(req.Values, req.Timestamps)
	if err != nil {
		respondError(c, err)
		return
	}

	start := time.Now()
	result, err := h.service.Analyze(c.Request.Context(), req.Topic, series)
	if err != nil {
		respondError(c, err)
		return
	}
	h.logger.LogClassification(result.Topic, string(result.Variant), result.Pattern.ConfidenceScore, time.Since(start).Milliseconds())

	c.JSON(http.StatusOK, NewClassifyResponse(result))
}

// NewClassifyResponse renders an analysis result with rounded features.
func NewClassifyResponse(result *services.AnalysisResult) ClassifyResponse {
	p := result.Pattern
	view := PatternView{
		Momentum:            services.RoundFinite(p.Momentum),
		Volatility:          services.RoundFinite(p.Volatility),
		TrendStrength:       services.RoundFinite(p.TrendStrength),
		BreakoutProbability: services.RoundFinite(p.BreakoutProbability),
		ReversalProbability: services.RoundFinite(p.ReversalProbability),
		Seasonality:         services.RoundFinite(p.Seasonality),
		ConfidenceScore:     services.RoundFinite(p.ConfidenceScore),
		DominantCycle:       p.DominantCycle,
		PatternType:         p.PatternType,
		DataPoints:          p.DataPoints,
	}
	if p.HasSupportResistance {
		view.SupportLevel = services.RoundFinite(p.SupportLevel)
		view.ResistanceLevel = services.RoundFinite(p.ResistanceLevel)
	}

	return ClassifyResponse{
		Topic:             result.Topic,
		Variant:           result.Variant,
		Metadata:          result.Metadata,
		RecommendedAction: result.RecommendedAction,
		Flags:             result.Flags,
		RecordID:          result.RecordID,
		Pattern:           view,
	}
}

// History handles GET /api/v1/trends/:topic/history.
func (h *TrendHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer", Field: "limit"})
			return
		}
		limit = parsed
	}

	topic := c.Param("topic")
	records, err := h.service.History(c.Request.Context(), topic, limit)
	if err != nil {
		if isInternal(err) {
			h.logger.WithTopic(topic).Error("Failed to load trend history", "error", err.Error())
		}
		respondError(c, err)
		return
	}
	if records == nil {
		records = []models.TrendPatternRecord{}
	}

	c.JSON(http.StatusOK, HistoryResponse{Topic: topic, Patterns: records, Count: len(records)})
}

// VariantCounts handles GET /api/v1/trends/variants. since is RFC3339 and
// defaults to 24 hours ago.
func (h *TrendHandler) VariantCounts(c *gin.Context) {
	since := time.Now().Add(-24 * time.Hour).UTC()
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "since must be an RFC3339 timestamp", Field: "since"})
			return
		}
		since = parsed
	}

	counts, err := h.service.VariantCounts(c.Request.Context(), since)
	if err != nil {
		if isInternal(err) {
			h.logger.WithOperation("variant_counts").Error("Failed to count trend variants", "error", err.Error())
		}
		respondError(c, err)
		return
	}
	if counts == nil {
		counts = []models.VariantCount{}
	}

	c.JSON(http.StatusOK, VariantCountsResponse{Since: since, Counts: counts})
}

// Patterns handles GET /api/v1/patterns, listing every variant with its
// guidance.
func (h *TrendHandler) Patterns(c *gin.Context) {
	all := pattern.AllPatterns()
	infos := make([]PatternInfo, 0, len(all))
	for _, p := range all {
		infos = append(infos, PatternInfo{Name: p, Metadata: p.Metadata()})
	}
	c.JSON(http.StatusOK, gin.H{"patterns": infos, "count": len(infos)})
}
