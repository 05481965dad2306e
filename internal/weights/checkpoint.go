package weights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultKeyPrefix namespaces checkpointed profiles in Redis.
	DefaultKeyPrefix = "trend_weights:"
	// DefaultCheckpointInterval is used when a non-positive interval is given.
	DefaultCheckpointInterval = 30 * time.Second
)

// CheckpointStats counts checkpoint activity.
type CheckpointStats struct {
	Saves    int64 `json:"saves"`
	Loads    int64 `json:"loads"`
	Failures int64 `json:"failures"`
}

// Checkpointer periodically copies a Store's profiles to Redis and restores
// them on startup. Store operations never wait on Redis.
type Checkpointer struct {
	store    *Store
	redis    *redis.Client
	prefix   string
	interval time.Duration
	logger   *logrus.Logger
	observe  func(operation string, err error)

	saves    atomic.Int64
	loads    atomic.Int64
	failures atomic.Int64

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// NewCheckpointer creates a checkpointer for store backed by client.
func NewCheckpointer(store *Store, client *redis.Client, interval time.Duration, logger *logrus.Logger) *Checkpointer {
	if interval <= 0 {
		interval = DefaultCheckpointInterval
	}
	if logger == nil {
		logger = store.logger
	}
	return &Checkpointer{
		store:    store,
		redis:    client,
		prefix:   DefaultKeyPrefix,
		interval: interval,
		logger:   logger,
	}
}

// SetObserver registers fn to be called after every periodic save.
func (c *Checkpointer) SetObserver(fn func(operation string, err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observe = fn
}

// Key returns the Redis key holding contentType's profile.
func (c *Checkpointer) Key(contentType string) string {
	return c.prefix + contentType
}

// Save writes every initialized profile in one pipeline and returns how many
// were written.
func (c *Checkpointer) Save(ctx context.Context) (int, error) {
	profiles := c.store.Snapshot()
	if len(profiles) == 0 {
		return 0, nil
	}

	pipe := c.redis.Pipeline()
	for _, p := range profiles {
		data, err := json.Marshal(p)
		if err != nil {
			c.failures.Add(1)
			return 0, fmt.Errorf("failed to marshal profile %s: %w", p.ContentType, err)
		}
		pipe.Set(ctx, c.Key(p.ContentType), data, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.failures.Add(1)
		return 0, fmt.Errorf("failed to write weight checkpoint: %w", err)
	}

	c.saves.Add(1)
	return len(profiles), nil
}

// Load restores every checkpointed profile found in Redis into the store and
// returns how many were restored. Malformed entries are skipped with a
// warning.
func (c *Checkpointer) Load(ctx context.Context) (int, error) {
	var keys []string
	iter := c.redis.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.failures.Add(1)
		return 0, fmt.Errorf("failed to scan weight checkpoints: %w", err)
	}

	restored := 0
	for _, key := range keys {
		data, err := c.redis.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			c.failures.Add(1)
			return restored, fmt.Errorf("failed to read %s: %w", key, err)
		}

		var profile Profile
		if err := json.Unmarshal(data, &profile); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Skipping malformed weight checkpoint")
			continue
		}
		if profile.ContentType == "" {
			profile.ContentType = strings.TrimPrefix(key, c.prefix)
		}
		if err := c.store.Restore(profile); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Skipping invalid weight checkpoint")
			continue
		}
		restored++
	}

	c.loads.Add(1)
	c.logger.WithFields(logrus.Fields{
		"restored": restored,
		"found":    len(keys),
	}).Info("Loaded weight checkpoints")

	return restored, nil
}

// Start runs Save every interval until ctx is cancelled or Stop is called.
// A final Save runs on the way out.
func (c *Checkpointer) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true

	go c.loop(ctx, c.done)
}

// Stop cancels the loop started by Start and waits for the final Save.
func (c *Checkpointer) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	cancel, done := c.cancel, c.done
	c.running = false
	c.mu.Unlock()

	cancel()
	<-done
}

func (c *Checkpointer) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.saveAndLog(ctx)
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.saveAndLog(flushCtx)
			cancel()
			return
		}
	}
}

func (c *Checkpointer) saveAndLog(ctx context.Context) {
	n, err := c.Save(ctx)

	c.mu.Lock()
	observe := c.observe
	c.mu.Unlock()
	if observe != nil {
		observe("save", err)
	}

	if err != nil {
		c.logger.WithError(err).Error("Weight checkpoint failed")
		return
	}
	c.logger.WithField("profiles", n).Debug("Weight checkpoint written")
}

// Stats returns the checkpoint counters.
func (c *Checkpointer) Stats() CheckpointStats {
	return CheckpointStats{
		Saves:    c.saves.Load(),
		Loads:    c.loads.Load(),
		Failures: c.failures.Load(),
	}
}
