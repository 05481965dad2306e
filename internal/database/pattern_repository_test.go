package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/trendpulse/internal/models"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var patternColumns = []string{
	"id", "topic", "variant", "pattern_type", "momentum", "volatility", "trend_strength",
	"breakout_probability", "reversal_probability", "seasonality", "confidence_score",
	"support_level", "resistance_level", "dominant_cycle", "recommended_action", "data_points", "created_at",
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool
}

func TestPatternRepository_EnsureSchema(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPatternRepository(mockPool)

	mockPool.ExpectExec(`CREATE TABLE IF NOT EXISTS trend_patterns`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPatternRepository_Save(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPatternRepository(mockPool)

	support := decimal.RequireFromString("3")
	record := &models.TrendPatternRecord{
		Topic:               "golang",
		Variant:             "VOLATILE_RISE",
		PatternType:         "BREAKOUT",
		Momentum:            decimal.RequireFromString("0.1111"),
		Volatility:          decimal.RequireFromString("3.0277"),
		TrendStrength:       decimal.RequireFromString("0.5"),
		BreakoutProbability: decimal.RequireFromString("1"),
		ConfidenceScore:     decimal.RequireFromString("0.5"),
		SupportLevel:        &support,
		DominantCycle:       "32.0 periods",
		RecommendedAction:   "HIGH_VOLATILITY_CAUTION",
		DataPoints:          10,
	}
	createdAt := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	supportArg := 3.0

	mockPool.ExpectQuery(`INSERT INTO trend_patterns`).
		WithArgs(pgxmock.AnyArg(), "golang", "VOLATILE_RISE", "BREAKOUT",
			0.1111, 3.0277, 0.5, 1.0, 0.0, 0.0, 0.5,
			&supportArg, (*float64)(nil), "32.0 periods", "HIGH_VOLATILITY_CAUTION", 10).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(createdAt))

	require.NoError(t, repo.Save(context.Background(), record))
	assert.NotEqual(t, uuid.Nil, record.ID)
	assert.Equal(t, createdAt, record.CreatedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPatternRepository_Save_KeepsExistingID(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPatternRepository(mockPool)

	id := uuid.New()
	record := &models.TrendPatternRecord{ID: id, Topic: "rust", Variant: "CONSOLIDATION"}

	mockPool.ExpectQuery(`INSERT INTO trend_patterns`).
		WithArgs(id, "rust", "CONSOLIDATION", "", 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
			(*float64)(nil), (*float64)(nil), "", "", 0).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	require.NoError(t, repo.Save(context.Background(), record))
	assert.Equal(t, id, record.ID)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPatternRepository_Save_Error(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPatternRepository(mockPool)

	insertArgs := make([]interface{}, 16)
	for i := range insertArgs {
		insertArgs[i] = pgxmock.AnyArg()
	}
	mockPool.ExpectQuery(`INSERT INTO trend_patterns`).
		WithArgs(insertArgs...).
		WillReturnError(errors.New("connection reset"))

	err := repo.Save(context.Background(), &models.TrendPatternRecord{Topic: "golang"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save trend pattern for golang")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPatternRepository_ListByTopic(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPatternRepository(mockPool)

	id := uuid.New()
	createdAt := time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC)
	resistance := 8.0

	rows := pgxmock.NewRows(patternColumns).
		AddRow(id.String(), "golang", "STEADY_RISE", "CONTINUATION",
			0.05, 0.2, 0.75, 0.1, 0.0, 0.0, 0.8,
			nil, &resistance, "", "MAINTAIN_CURRENT_STRATEGY", 24, createdAt)

	mockPool.ExpectQuery(`FROM trend_patterns WHERE topic`).
		WithArgs("golang", DefaultListLimit).
		WillReturnRows(rows)

	records, err := repo.ListByTopic(context.Background(), "golang", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)

	got := records[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "STEADY_RISE", got.Variant)
	assert.True(t, decimal.RequireFromString("0.75").Equal(got.TrendStrength))
	assert.True(t, decimal.RequireFromString("0.8").Equal(got.ConfidenceScore))
	assert.Nil(t, got.SupportLevel)
	require.NotNil(t, got.ResistanceLevel)
	assert.True(t, decimal.NewFromInt(8).Equal(*got.ResistanceLevel))
	assert.Equal(t, 24, got.DataPoints)
	assert.Equal(t, createdAt, got.CreatedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPatternRepository_ListByTopic_QueryError(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPatternRepository(mockPool)

	mockPool.ExpectQuery(`FROM trend_patterns WHERE topic`).
		WithArgs("golang", 5).
		WillReturnError(errors.New("timeout"))

	_, err := repo.ListByTopic(context.Background(), "golang", 5)
	assert.ErrorContains(t, err, "failed to query trend patterns")
}

func TestPatternRepository_ListByTopic_BadID(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPatternRepository(mockPool)

	rows := pgxmock.NewRows(patternColumns).
		AddRow("not-a-uuid", "golang", "STEADY_RISE", "CONTINUATION",
			0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0,
			nil, nil, "", "", 1, time.Now())
	mockPool.ExpectQuery(`FROM trend_patterns WHERE topic`).
		WithArgs("golang", 1).
		WillReturnRows(rows)

	_, err := repo.ListByTopic(context.Background(), "golang", 1)
	assert.ErrorContains(t, err, "invalid trend pattern id")
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPatternRepository_CountByVariant(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPatternRepository(mockPool)
	since := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectQuery(`SELECT variant`).
		WithArgs(since).
		WillReturnRows(pgxmock.NewRows([]string{"variant", "count"}).
			AddRow("STEADY_RISE", int64(7)).
			AddRow("BREAKOUT", int64(2)))

	counts, err := repo.CountByVariant(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, []models.VariantCount{
		{Variant: "STEADY_RISE", Count: 7},
		{Variant: "BREAKOUT", Count: 2},
	}, counts)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestPatternRepository_DeleteOlderThan(t *testing.T) {
	mockPool := newMockPool(t)
	repo := NewPatternRepository(mockPool)
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mockPool.ExpectExec(`DELETE FROM trend_patterns WHERE created_at`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteOlderThan(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}
