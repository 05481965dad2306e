package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/trendpulse/internal/api/handlers"
	"github.com/irfndi/trendpulse/internal/logging"
	"github.com/irfndi/trendpulse/internal/metrics"
	"github.com/irfndi/trendpulse/internal/middleware"
	"github.com/irfndi/trendpulse/internal/services"
	"github.com/irfndi/trendpulse/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Dependencies are the services exposed over HTTP. Health may be nil, in
// which case every backend is reported as disabled.
type Dependencies struct {
	Trends  *services.TrendService
	Scoring *services.ScoringService
	Parser  *services.SeriesParser
	Admin   *middleware.AdminMiddleware
	Health  *handlers.HealthHandler
	Metrics *metrics.Metrics
	Logger  logging.Logger
}

var untracedPaths = map[string]bool{
	"/health":      true,
	"/health/live": true,
	"/metrics":     true,
}

// NewRouter builds the engine with the shared middleware chain and every
// route registered.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(otelgin.Middleware(telemetry.ServiceName, otelgin.WithFilter(func(r *http.Request) bool {
		return !untracedPaths[r.URL.Path]
	})))
	if deps.Logger != nil {
		router.Use(middleware.AccessLog(deps.Logger))
	}
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}

	SetupRoutes(router, deps)
	return router
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	health := deps.Health
	if health == nil {
		health = handlers.NewHealthHandler(nil, nil, telemetry.ServiceVersion)
	}
	router.GET("/health", health.HealthCheck)
	router.GET("/health/live", health.LivenessCheck)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	admin := deps.Admin
	if admin == nil {
		admin = middleware.NewAdminMiddleware("")
	}

	trendHandler := handlers.NewTrendHandler(deps.Trends, deps.Parser, deps.Logger)
	weightsHandler := handlers.NewWeightsHandler(deps.Scoring, deps.Logger)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.TelemetryMiddleware())
	{
		v1.GET("/patterns", trendHandler.Patterns)

		trends := v1.Group("/trends")
		{
			trends.POST("/classify", trendHandler.Classify)
			trends.GET("/variants", trendHandler.VariantCounts)
			trends.GET("/:topic/history", trendHandler.History)
		}

		weights := v1.Group("/weights")
		{
			weights.GET("/:contentType", weightsHandler.GetWeights)
			weights.POST("/:contentType/performance", admin.RequireAdminAuth(), weightsHandler.ReportPerformance)
			weights.DELETE("/:contentType", admin.RequireAdminAuth(), weightsHandler.ResetWeights)
		}

		v1.POST("/scores/:contentType", weightsHandler.Score)
	}
}
