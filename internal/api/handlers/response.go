package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/trendpulse/internal/logging"
	"github.com/irfndi/trendpulse/internal/services"
	"github.com/irfndi/trendpulse/internal/utils"
	"github.com/shopspring/decimal"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondError maps validation failures to 400, missing storage to 503 and
// everything else to 500. Internal errors are attached to the context so the
// tracing middleware records them.
func respondError(c *gin.Context, err error) {
	var ve *utils.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, services.ErrStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Pattern storage is not configured"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

func roundWeights(w map[string]float64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(w))
	for metric, v := range w {
		out[metric] = services.Round4(v)
	}
	return out
}

// handlerLogger falls back to a discarding logger so handlers never check
// for nil.
func handlerLogger(logger logging.Logger) logging.Logger {
	if logger == nil {
		return logging.NewSlogLogger(slog.New(slog.DiscardHandler))
	}
	return logger
}

// isInternal reports whether err is a failure of the service rather than of
// the request.
func isInternal(err error) bool {
	return !utils.IsValidationError(err) && !errors.Is(err, services.ErrStorageDisabled)
}
