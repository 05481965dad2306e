// Package observability reports unexpected failures to Sentry.
package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/irfndi/trendpulse/internal/config"
)

// InitSentry configures the Sentry SDK. It is a no-op unless Sentry is
// enabled and a DSN is set.
func InitSentry(cfg config.SentryConfig, fallbackRelease string, fallbackEnv string) error {
	if !Enabled(cfg) {
		return nil
	}
	return sentry.Init(clientOptions(cfg, fallbackRelease, fallbackEnv))
}

// Enabled reports whether cfg would initialise the SDK.
func Enabled(cfg config.SentryConfig) bool {
	return cfg.Enabled && cfg.DSN != ""
}

func clientOptions(cfg config.SentryConfig, fallbackRelease, fallbackEnv string) sentry.ClientOptions {
	release := cfg.Release
	if release == "" {
		release = fallbackRelease
	}

	environment := cfg.Environment
	if environment == "" {
		environment = fallbackEnv
	}

	return sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      environment,
		Release:          release,
		EnableTracing:    cfg.TracesSampleRate > 0,
		TracesSampleRate: cfg.TracesSampleRate,
		AttachStacktrace: true,
	}
}

// Flush drains buffered events within the context deadline, or two seconds
// when there is none.
func Flush(ctx context.Context) bool {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
		if timeout < 0 {
			timeout = 0
		}
	}
	return sentry.Flush(timeout)
}

// CaptureException sends err to Sentry, using the hub in ctx when present.
func CaptureException(ctx context.Context, err error) {
	if err == nil {
		return
	}
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		hub.CaptureException(err)
		return
	}
	sentry.CaptureException(err)
}

// CaptureWithTags is CaptureException with scope tags, e.g. the topic or
// content type being processed.
func CaptureWithTags(ctx context.Context, err error, tags map[string]string) {
	if err == nil {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		hub.CaptureException(err)
	})
}
