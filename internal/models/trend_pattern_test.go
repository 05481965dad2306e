package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrendPatternRecord_JSONOmitsUnsetBands(t *testing.T) {
	record := TrendPatternRecord{
		ID:              uuid.MustParse("6f1c1f5e-8a4e-4c53-9a36-1d2b0f7f3c11"),
		Topic:           "golang",
		Variant:         "STEADY_RISE",
		PatternType:     "CONTINUATION",
		ConfidenceScore: decimal.RequireFromString("0.8125"),
		CreatedAt:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(record)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "golang", decoded["topic"])
	assert.Equal(t, "0.8125", decoded["confidence_score"])
	assert.NotContains(t, decoded, "support_level")
	assert.NotContains(t, decoded, "dominant_cycle")

	support := decimal.NewFromInt(12)
	record.SupportLevel = &support
	data, err = json.Marshal(record)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"support_level":"12"`)
}

func TestClassifyRequest_DecodesMixedValues(t *testing.T) {
	var req ClassifyRequest
	err := json.Unmarshal([]byte(`{"topic":"ai","values":[1,"2.5",null],"timestamps":["2024-01-01T00:00:00Z"]}`), &req)
	require.NoError(t, err)

	assert.Equal(t, "ai", req.Topic)
	assert.Equal(t, []any{float64(1), "2.5", nil}, req.Values)
	require.Len(t, req.Timestamps, 1)
	assert.Equal(t, 2024, req.Timestamps[0].Year())
}
