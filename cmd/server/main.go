package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/irfndi/trendpulse/internal/config"
	"github.com/irfndi/trendpulse/internal/logging"
	"github.com/irfndi/trendpulse/internal/observability"
	"github.com/irfndi/trendpulse/internal/telemetry"
	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := telemetry.Init(ctx, cfg.Telemetry, cfg.Environment)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to shutdown telemetry: %v\n", err)
		}
	}()

	logger := newLogger(cfg)
	defer func() {
		_ = logger.Shutdown(context.Background())
	}()
	logrusLogger := logging.NewLogrusLogger(cfg.LogLevel)

	if err := observability.InitSentry(cfg.Sentry, telemetry.ServiceVersion, cfg.Environment); err != nil {
		logrusLogger.WithError(err).Warn("Failed to initialize Sentry")
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		observability.Flush(flushCtx)
	}()

	app, err := newApplication(ctx, cfg, logger, logrusLogger)
	if err != nil {
		return err
	}
	defer app.Close()
	app.Start(ctx)

	srv := newHTTPServer(cfg.Server.Port, app.router)
	serverErr := make(chan error, 1)
	go func() {
		logger.LogStartup(telemetry.ServiceName, telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.LogShutdown(telemetry.ServiceName, "signal received")
	case err := <-serverErr:
		app.Stop()
		return fmt.Errorf("failed to start server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server did not drain before the shutdown timeout")
		app.Stop()
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	app.Stop()

	logrusLogger.Info("Server exited gracefully")
	return nil
}

func newLogger(cfg *config.Config) *logging.StandardLogger {
	if !cfg.Telemetry.Enabled {
		return logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
	}

	endpoint, err := telemetry.OTLPHost(cfg.Telemetry.OTLPEndpoint)
	if err != nil {
		logger := logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
		logger.WithService(telemetry.ServiceName).Warn("Invalid OTLP endpoint, logging to stdout", "error", err.Error())
		return logger
	}

	return logging.NewStandardOTLPLogger(logging.OTLPConfig{
		Enabled:        true,
		Endpoint:       endpoint,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: telemetry.ServiceVersion,
		Environment:    cfg.Environment,
		LogLevel:       cfg.Telemetry.LogLevel,
	})
}

// newHTTPServer applies the read and write timeouts every listener uses.
func newHTTPServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       15 * time.Second,
	}
}
