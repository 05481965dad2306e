package services

import (
	"math"
	"testing"
	"time"

	"github.com/irfndi/trendpulse/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesParser_Parse(t *testing.T) {
	p := NewSeriesParser(0)

	series, err := p.Parse([]byte(`{"values": [10, "12.5", null, " 1,200 ", 0]}`))
	require.NoError(t, err)
	require.Equal(t, 5, series.Len())
	assert.Equal(t, 10.0, series.Values[0])
	assert.Equal(t, 12.5, series.Values[1])
	assert.True(t, math.IsNaN(series.Values[2]))
	assert.Equal(t, 1200.0, series.Values[3])
	assert.Equal(t, 0.0, series.Values[4])
	assert.Nil(t, series.Timestamps)
}

func TestSeriesParser_ParseWithTimestamps(t *testing.T) {
	p := NewSeriesParser(0)

	series, err := p.Parse([]byte(`{
		"values": [1, 2],
		"timestamps": ["2024-06-01T00:00:00Z", "2024-06-02T00:00:00Z"]
	}`))
	require.NoError(t, err)
	require.Len(t, series.Timestamps, 2)
	assert.Equal(t, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), series.Timestamps[1])
}

func TestSeriesParser_Rejects(t *testing.T) {
	p := NewSeriesParser(3)

	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{"malformed json", `{"values": [1, 2`, ""},
		{"empty", `{"values": []}`, "values"},
		{"too long", `{"values": [1, 2, 3, 4]}`, "values"},
		{"negative", `{"values": [1, -2]}`, "values"},
		{"word", `{"values": [1, "many"]}`, "values"},
		{"bool", `{"values": [true]}`, "values"},
		{"object", `{"values": [{"v": 1}]}`, "values"},
		{"nan string", `{"values": ["NaN"]}`, "values"},
		{"decimal comma", `{"values": ["1,5"]}`, "values"},
		{"bad grouping", `{"values": ["12,34"]}`, "values"},
		{"trailing comma", `{"values": ["1,"]}`, "values"},
		{"length mismatch", `{"values": [1, 2], "timestamps": ["2024-06-01T00:00:00Z"]}`, "timestamps"},
		{"decreasing timestamps", `{"values": [1, 2], "timestamps": ["2024-06-02T00:00:00Z", "2024-06-01T00:00:00Z"]}`, "timestamps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.payload))
			require.Error(t, err)

			var ve *utils.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSeriesParser_FromValues(t *testing.T) {
	p := NewSeriesParser(0)

	series, err := p.FromValues([]any{1, int64(2), float32(3.5), 4.0}, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3.5, 4}, series.Values)

	ts := []time.Time{time.Unix(0, 0), time.Unix(0, 0)}
	series, err = p.FromFloats([]float64{1, 1}, ts)
	require.NoError(t, err, "equal timestamps are non-decreasing")
	ts[0] = time.Unix(100, 0)
	assert.Equal(t, time.Unix(0, 0), series.Timestamps[0], "timestamps are copied")
}

func TestSeriesParser_InfiniteFloat(t *testing.T) {
	_, err := NewSeriesParser(0).FromFloats([]float64{1, math.Inf(1)}, nil)
	assert.True(t, utils.IsValidationError(err))
}

func TestSeriesParser_ThousandsGrouping(t *testing.T) {
	series, err := NewSeriesParser(0).Parse([]byte(`{"values": ["1,200", "12,345.5", "1,000,000"]}`))
	require.NoError(t, err)
	assert.Equal(t, []float64{1200, 12345.5, 1000000}, series.Values)
}
