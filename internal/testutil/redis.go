// Package testutil holds helpers shared by tests that need a Redis server.
package testutil

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/irfndi/trendpulse/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewTestRedis starts an in-process Redis and a client for it. Both are
// closed when the test ends.
func NewTestRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return mr, client
}

// RedisConfig points a redis config section at mr.
func RedisConfig(t testing.TB, mr *miniredis.Miniredis) config.RedisConfig {
	t.Helper()

	port, err := strconv.Atoi(mr.Port())
	if err != nil {
		t.Fatalf("invalid miniredis port %q: %v", mr.Port(), err)
	}
	return config.RedisConfig{Enabled: true, Host: mr.Host(), Port: port}
}
