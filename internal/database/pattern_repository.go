package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/irfndi/trendpulse/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DatabasePool is the subset of pgxpool.Pool used by repositories, so that
// tests can substitute pgxmock.
type DatabasePool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

const createTrendPatternsTable = `
	CREATE TABLE IF NOT EXISTS trend_patterns (
		id UUID PRIMARY KEY,
		topic TEXT NOT NULL,
		variant TEXT NOT NULL,
		pattern_type TEXT NOT NULL,
		momentum DOUBLE PRECISION NOT NULL,
		volatility DOUBLE PRECISION NOT NULL,
		trend_strength DOUBLE PRECISION NOT NULL,
		breakout_probability DOUBLE PRECISION NOT NULL,
		reversal_probability DOUBLE PRECISION NOT NULL,
		seasonality DOUBLE PRECISION NOT NULL,
		confidence_score DOUBLE PRECISION NOT NULL,
		support_level DOUBLE PRECISION,
		resistance_level DOUBLE PRECISION,
		dominant_cycle TEXT NOT NULL DEFAULT '',
		recommended_action TEXT NOT NULL,
		data_points INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_trend_patterns_topic_created ON trend_patterns (topic, created_at DESC);`

const insertTrendPattern = `
	INSERT INTO trend_patterns (
		id, topic, variant, pattern_type, momentum, volatility, trend_strength,
		breakout_probability, reversal_probability, seasonality, confidence_score,
		support_level, resistance_level, dominant_cycle, recommended_action, data_points
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	RETURNING created_at`

const selectTrendPatternsByTopic = `
	SELECT id::text, topic, variant, pattern_type, momentum, volatility, trend_strength,
		breakout_probability, reversal_probability, seasonality, confidence_score,
		support_level, resistance_level, dominant_cycle, recommended_action, data_points, created_at
	FROM trend_patterns
	WHERE topic = $1
	ORDER BY created_at DESC
	LIMIT $2`

const countTrendPatternsByVariant = `
	SELECT variant, COUNT(*)
	FROM trend_patterns
	WHERE created_at >= $1
	GROUP BY variant
	ORDER BY COUNT(*) DESC, variant`

const deleteTrendPatternsBefore = `DELETE FROM trend_patterns WHERE created_at < $1`

// DefaultListLimit caps history queries without an explicit limit.
const DefaultListLimit = 50

// PatternRepository stores classification results.
type PatternRepository struct {
	pool DatabasePool
}

func NewPatternRepository(pool DatabasePool) *PatternRepository {
	return &PatternRepository{pool: pool}
}

// EnsureSchema creates the trend_patterns table if it does not exist.
func (r *PatternRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, createTrendPatternsTable); err != nil {
		return fmt.Errorf("failed to create trend_patterns table: %w", err)
	}
	return nil
}

// Save inserts record, assigning an ID when it has none, and fills in the
// stored creation time.
func (r *PatternRepository) Save(ctx context.Context, record *models.TrendPatternRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, insertTrendPattern,
		record.ID,
		record.Topic,
		record.Variant,
		record.PatternType,
		record.Momentum.InexactFloat64(),
		record.Volatility.InexactFloat64(),
		record.TrendStrength.InexactFloat64(),
		record.BreakoutProbability.InexactFloat64(),
		record.ReversalProbability.InexactFloat64(),
		record.Seasonality.InexactFloat64(),
		record.ConfidenceScore.InexactFloat64(),
		optionalFloat(record.SupportLevel),
		optionalFloat(record.ResistanceLevel),
		record.DominantCycle,
		record.RecommendedAction,
		record.DataPoints,
	).Scan(&record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save trend pattern for %s: %w", record.Topic, err)
	}

	return nil
}

// ListByTopic returns the most recent records for topic, newest first.
func (r *PatternRepository) ListByTopic(ctx context.Context, topic string, limit int) ([]models.TrendPatternRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.pool.Query(ctx, selectTrendPatternsByTopic, topic, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query trend patterns: %w", err)
	}
	defer rows.Close()

	var records []models.TrendPatternRecord
	for rows.Next() {
		var (
			id                                          string
			momentum, volatility, strength              float64
			breakout, reversal, seasonality, confidence float64
			support, resistance                         *float64
			record                                      models.TrendPatternRecord
		)

		err := rows.Scan(
			&id, &record.Topic, &record.Variant, &record.PatternType,
			&momentum, &volatility, &strength,
			&breakout, &reversal, &seasonality, &confidence,
			&support, &resistance,
			&record.DominantCycle, &record.RecommendedAction, &record.DataPoints, &record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trend pattern: %w", err)
		}

		record.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("invalid trend pattern id %q: %w", id, err)
		}
		record.Momentum = decimal.NewFromFloat(momentum)
		record.Volatility = decimal.NewFromFloat(volatility)
		record.TrendStrength = decimal.NewFromFloat(strength)
		record.BreakoutProbability = decimal.NewFromFloat(breakout)
		record.ReversalProbability = decimal.NewFromFloat(reversal)
		record.Seasonality = decimal.NewFromFloat(seasonality)
		record.ConfidenceScore = decimal.NewFromFloat(confidence)
		record.SupportLevel = optionalDecimal(support)
		record.ResistanceLevel = optionalDecimal(resistance)

		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trend patterns: %w", err)
	}

	return records, nil
}

// CountByVariant tallies records created at or after since.
func (r *PatternRepository) CountByVariant(ctx context.Context, since time.Time) ([]models.VariantCount, error) {
	rows, err := r.pool.Query(ctx, countTrendPatternsByVariant, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count trend patterns: %w", err)
	}
	defer rows.Close()

	var counts []models.VariantCount
	for rows.Next() {
		var c models.VariantCount
		if err := rows.Scan(&c.Variant, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan variant count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate variant counts: %w", err)
	}

	return counts, nil
}

// DeleteOlderThan removes records created before cutoff.
func (r *PatternRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteTrendPatternsBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old trend patterns: %w", err)
	}
	return tag.RowsAffected(), nil
}

func optionalFloat(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

func optionalDecimal(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}
