package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/trendpulse/internal/api"
	"github.com/irfndi/trendpulse/internal/api/handlers"
	"github.com/irfndi/trendpulse/internal/config"
	"github.com/irfndi/trendpulse/internal/database"
	"github.com/irfndi/trendpulse/internal/logging"
	"github.com/irfndi/trendpulse/internal/metrics"
	"github.com/irfndi/trendpulse/internal/middleware"
	"github.com/irfndi/trendpulse/internal/pattern"
	"github.com/irfndi/trendpulse/internal/services"
	"github.com/irfndi/trendpulse/internal/telemetry"
	"github.com/irfndi/trendpulse/internal/weights"
	"github.com/sirupsen/logrus"
)

// application owns the backends and background workers behind the router.
type application struct {
	log     *logrus.Logger
	metrics *metrics.Metrics

	db    *database.PostgresDB
	redis *database.RedisClient

	store        *weights.Store
	checkpointer *weights.Checkpointer
	cleanup      *services.CleanupService

	router *gin.Engine
}

func newApplication(ctx context.Context, cfg *config.Config, logger logging.Logger, log *logrus.Logger) (*application, error) {
	app := &application{
		log:     log,
		metrics: metrics.New(),
		store:   weights.NewStore(log),
	}

	var patternStore services.PatternStore
	if cfg.Database.Enabled {
		db, err := database.NewPostgresConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		app.db = db

		if cfg.Patterns.Store {
			repo := database.NewPatternRepository(database.NewTracedPool(db.Pool, telemetry.GetDatabaseTracer()))
			if err := repo.EnsureSchema(ctx); err != nil {
				app.Close()
				return nil, err
			}
			patternStore = repo
			app.cleanup = services.NewCleanupService(repo, cfg.Patterns.RetentionPeriod(), cfg.Patterns.CleanupEvery(), log)
		}
	}

	if cfg.Redis.Enabled {
		rdb, err := database.NewRedisConnection(ctx, cfg.Redis)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.redis = rdb

		if cfg.Weights.Persist {
			app.checkpointer = weights.NewCheckpointer(app.store, rdb.Client, cfg.Weights.Interval(), log)
			app.checkpointer.SetObserver(app.metrics.ObserveCheckpoint)

			restored, err := app.checkpointer.Load(ctx)
			app.metrics.ObserveCheckpoint("load", err)
			if err != nil {
				log.WithError(err).Warn("Failed to load weight checkpoints, starting from defaults")
			} else {
				log.WithField("profiles", restored).Info("Restored adaptive weights")
			}
		}
	}

	assigner := pattern.NewVariantAssigner()
	assigner.MinDataPoints = cfg.Patterns.MinDataPoints

	scoring := services.NewScoringService(app.store, app.metrics, log)
	scoring.PublishAll()

	admin := middleware.NewAdminMiddleware(cfg.Server.AdminAPIKey)
	if !admin.Enabled() {
		logger.WithComponent("admin").Warn("No admin API key configured, weight mutation endpoints are unauthenticated")
	}

	app.router = api.NewRouter(api.Dependencies{
		Trends:  services.NewTrendService(assigner, patternStore, app.metrics, log),
		Scoring: scoring,
		Parser:  services.NewSeriesParser(cfg.Patterns.MaxSeriesSize),
		Admin:   admin,
		Health:  handlers.NewHealthHandler(app.healthCheckers()),
		Metrics: app.metrics,
		Logger:  logger,
	})

	return app, nil
}

// healthCheckers returns nil interfaces for backends that are not
// connected, so they are reported as disabled.
func (a *application) healthCheckers() (db, redis handlers.HealthChecker, version string) {
	if a.db != nil {
		db = a.db
	}
	if a.redis != nil {
		redis = a.redis
	}
	return db, redis, telemetry.ServiceVersion
}

// Start launches the background workers.
func (a *application) Start(ctx context.Context) {
	if a.checkpointer != nil {
		a.checkpointer.Start(ctx)
	}
	if a.cleanup != nil {
		a.cleanup.Start(ctx)
	}
}

// Stop waits for the background workers. The checkpointer writes a final
// checkpoint on the way out.
func (a *application) Stop() {
	if a.cleanup != nil {
		a.cleanup.Stop()
	}
	if a.checkpointer != nil {
		a.checkpointer.Stop()
		stats := a.checkpointer.Stats()
		a.log.WithFields(logrus.Fields{
			"saves":    stats.Saves,
			"loads":    stats.Loads,
			"failures": stats.Failures,
		}).Info("Weight checkpointer stopped")
	}
}

// Close releases the backend connections.
func (a *application) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
