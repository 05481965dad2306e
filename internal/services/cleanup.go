package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// PatternPruner deletes stored classifications older than a cutoff.
type PatternPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupService periodically prunes stored classifications past their
// retention period.
type CleanupService struct {
	pruner    PatternPruner
	retention time.Duration
	interval  time.Duration
	logger    *logrus.Logger
	now       func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewCleanupService(pruner PatternPruner, retention, interval time.Duration, logger *logrus.Logger) *CleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CleanupService{
		pruner:    pruner,
		retention: retention,
		interval:  interval,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs one cleanup immediately and then every interval until ctx is
// cancelled or Stop is called. A zero retention disables the service.
func (c *CleanupService) Start(ctx context.Context) {
	if c.retention <= 0 {
		c.logger.Info("Pattern retention disabled, cleanup service not started")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	c.logger.WithFields(logrus.Fields{
		"retention": c.retention.String(),
		"interval":  c.interval.String(),
	}).Info("Starting pattern cleanup service")

	go c.loop(ctx, c.done)
}

func (c *CleanupService) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.runAndLog(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.runAndLog(ctx)
		}
	}
}

func (c *CleanupService) runAndLog(ctx context.Context) {
	if _, err := c.RunCleanup(ctx); err != nil && ctx.Err() == nil {
		c.logger.WithError(err).Warn("Pattern cleanup failed")
	}
}

// Stop cancels the loop and waits for it to exit.
func (c *CleanupService) Stop() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	c.logger.Info("Stopped pattern cleanup service")
}

// RunCleanup deletes everything older than the retention period.
func (c *CleanupService) RunCleanup(ctx context.Context) (int64, error) {
	cutoff := c.now().Add(-c.retention)
	deleted, err := c.pruner.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		c.logger.WithFields(logrus.Fields{
			"deleted": deleted,
			"cutoff":  cutoff.Format(time.RFC3339),
		}).Info("Cleaned up old trend patterns")
	}
	return deleted, nil
}
