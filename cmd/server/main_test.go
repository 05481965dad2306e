package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/trendpulse/internal/config"
	"github.com/irfndi/trendpulse/internal/testutil"
	"github.com/irfndi/trendpulse/internal/weights"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		LogLevel:    "error",
		Server:      config.ServerConfig{Port: 8080, ShutdownTimeout: "1s"},
		Patterns:    config.PatternsConfig{MinDataPoints: 10, MaxSeriesSize: 100},
		Telemetry:   config.TelemetryConfig{Exporter: "otlp"},
	}
}

func TestNewHTTPServer(t *testing.T) {
	srv := newHTTPServer(9090, http.NotFoundHandler())

	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, srv.WriteTimeout)
	assert.Equal(t, 5*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 15*time.Second, srv.IdleTimeout)
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig()
	assert.NotNil(t, newLogger(cfg).Logger())

	cfg.Telemetry.Enabled = true
	cfg.Telemetry.OTLPEndpoint = "not a url"
	logger := newLogger(cfg)
	require.NotNil(t, logger)
	assert.NoError(t, logger.Shutdown(context.Background()))
}

func TestNewApplication_WithoutBackends(t *testing.T) {
	cfg := testConfig()
	log, _ := logtest.NewNullLogger()

	app, err := newApplication(context.Background(), cfg, newLogger(cfg), log)
	require.NoError(t, err)
	defer app.Close()

	app.Start(context.Background())
	defer app.Stop()

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"disabled"`)

	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/weights/blog", nil))
	assert.Equal(t, http.StatusOK, w.Code, "no admin key configured")
}

func TestNewApplication_RestoresCheckpoint(t *testing.T) {
	mr, client := testutil.NewTestRedis(t)

	// Seed a checkpoint as a previous process would have left it.
	seeded := weights.NewStore(nil)
	seeded.ReportPerformance("news", weights.MetricTrend, 0.9)
	_, err := weights.NewCheckpointer(seeded, client, time.Minute, nil).Save(context.Background())
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Redis = testutil.RedisConfig(t, mr)
	cfg.Weights = config.WeightsConfig{Persist: true, CheckpointInterval: "1h"}
	cfg.Server.AdminAPIKey = "secret"
	log, _ := logtest.NewNullLogger()

	app, err := newApplication(context.Background(), cfg, newLogger(cfg), log)
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, seeded.GetWeights("news"), app.store.GetWeights("news"))

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/weights/news", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	app.Start(context.Background())
	app.store.ReportPerformance("social", weights.MetricEngagement, 1)
	app.Stop()
	assert.True(t, mr.Exists(weights.DefaultKeyPrefix+"social"), "stopping writes a final checkpoint")
}

func TestNewApplication_RedisUnavailable(t *testing.T) {
	cfg := testConfig()
	cfg.Redis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}
	log, _ := logtest.NewNullLogger()

	_, err := newApplication(context.Background(), cfg, newLogger(cfg), log)
	assert.ErrorContains(t, err, "failed to connect to Redis")
}
