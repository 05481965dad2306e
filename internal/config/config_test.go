package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Environment: "test",
		LogLevel:    "debug",
		Server:      ServerConfig{Port: 8080, ShutdownTimeout: "10s"},
		Database:    DatabaseConfig{Enabled: true},
		Redis:       RedisConfig{Enabled: true},
		Weights:     WeightsConfig{Persist: true, CheckpointInterval: "30s"},
		Patterns:    PatternsConfig{MinDataPoints: 10, Store: true},
		Telemetry:   TelemetryConfig{Exporter: "otlp"},
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	config, err := Load()
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, config.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Second, config.Server.Timeout())
	assert.True(t, config.Database.Enabled)
	assert.Equal(t, "localhost", config.Database.Host)
	assert.Equal(t, 5432, config.Database.Port)
	assert.Equal(t, "trendpulse", config.Database.DBName)
	assert.Equal(t, "disable", config.Database.SSLMode)
	assert.Equal(t, 25, config.Database.MaxOpenConns)
	assert.Equal(t, "300s", config.Database.ConnMaxLifetime)
	assert.Equal(t, "localhost", config.Redis.Host)
	assert.Equal(t, 6379, config.Redis.Port)
	assert.Equal(t, 0, config.Redis.DB)
	assert.True(t, config.Weights.Persist)
	assert.Equal(t, 30*time.Second, config.Weights.Interval())
	assert.Equal(t, 10, config.Patterns.MinDataPoints)
	assert.Equal(t, 10000, config.Patterns.MaxSeriesSize)
	assert.Equal(t, 720*time.Hour, config.Patterns.RetentionPeriod())
	assert.False(t, config.Telemetry.Enabled)
	assert.Equal(t, "otlp", config.Telemetry.Exporter)
	assert.Equal(t, "trendpulse", config.Telemetry.ServiceName)
	assert.False(t, config.Sentry.Enabled)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("ENVIRONMENT", "PRODUCTION")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("DATABASE_HOST", "prod-db.example.com")
	t.Setenv("DATABASE_PORT", "5433")
	t.Setenv("REDIS_HOST", "prod-redis.example.com")
	t.Setenv("REDIS_DB", "1")
	t.Setenv("WEIGHTS_CHECKPOINT_INTERVAL", "2m")
	t.Setenv("PATTERNS_MIN_DATA_POINTS", "20")
	t.Setenv("TELEMETRY_EXPORTER", "stdout")
	t.Setenv("SENTRY_DSN", "https://key@sentry.example.com/1")
	t.Setenv("ADMIN_API_KEY", "prod-admin-key")

	config, err := Load()
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "production", config.Environment)
	assert.Equal(t, "error", config.LogLevel)
	assert.Equal(t, 9000, config.Server.Port)
	assert.Equal(t, "prod-db.example.com", config.Database.Host)
	assert.Equal(t, 5433, config.Database.Port)
	assert.Equal(t, "prod-redis.example.com", config.Redis.Host)
	assert.Equal(t, 1, config.Redis.DB)
	assert.Equal(t, 2*time.Minute, config.Weights.Interval())
	assert.Equal(t, 20, config.Patterns.MinDataPoints)
	assert.Equal(t, "stdout", config.Telemetry.Exporter)
	assert.Equal(t, "https://key@sentry.example.com/1", config.Sentry.DSN)
	assert.Equal(t, "prod-admin-key", config.Server.AdminAPIKey)
}

func TestLoad_InvalidInterval(t *testing.T) {
	t.Setenv("WEIGHTS_CHECKPOINT_INTERVAL", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint interval")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"port too low", func(c *Config) { c.Server.Port = 0 }, "server port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "server port"},
		{"bad shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = "later" }, "shutdown timeout"},
		{"negative interval", func(c *Config) { c.Weights.CheckpointInterval = "-1s" }, "must be positive"},
		{"persist without redis", func(c *Config) { c.Redis.Enabled = false }, "requires redis"},
		{"store without database", func(c *Config) { c.Database.Enabled = false }, "requires the database"},
		{"no minimum", func(c *Config) { c.Patterns.MinDataPoints = 0 }, "min_data_points"},
		{"bad retention", func(c *Config) { c.Patterns.Retention = "forever" }, "retention"},
		{"sample rate", func(c *Config) { c.Sentry.TracesSampleRate = 1.5 }, "sample rate"},
		{"exporter", func(c *Config) { c.Telemetry.Exporter = "zipkin" }, "exporter"},
		{"production without admin key", func(c *Config) { c.Environment = "production" }, "admin API key"},
		{"persistence off tolerates no redis", func(c *Config) {
			c.Weights.Persist = false
			c.Redis.Enabled = false
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)

			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDurations_FallBack(t *testing.T) {
	assert.Equal(t, 30*time.Second, WeightsConfig{}.Interval())
	assert.Equal(t, 30*time.Second, WeightsConfig{CheckpointInterval: "bogus"}.Interval())
	assert.Equal(t, 5*time.Second, WeightsConfig{CheckpointInterval: "5s"}.Interval())
	assert.Equal(t, 30*time.Second, ServerConfig{}.Timeout())
	assert.Equal(t, time.Minute, ServerConfig{ShutdownTimeout: "1m"}.Timeout())
	assert.Equal(t, time.Duration(0), PatternsConfig{}.RetentionPeriod())
	assert.Equal(t, 48*time.Hour, PatternsConfig{Retention: "48h"}.RetentionPeriod())
	assert.Equal(t, time.Hour, PatternsConfig{}.CleanupEvery())
	assert.Equal(t, 10*time.Minute, PatternsConfig{CleanupInterval: "10m"}.CleanupEvery())
}
