// Package hub owns the process-wide connection handles shared by all components:
// the Postgres pool (durable store) and the Redis client (fast cache tier).
// A Hub is constructed once at process start and injected as a dependency;
// it is never created per request.
package hub

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"analytics-pipeline/ingestcore/internal/config"
	"analytics-pipeline/ingestcore/internal/db"
	"analytics-pipeline/ingestcore/internal/redis"
)

// Hub holds shared connection handles. DB is always set; Redis is nil when
// REDIS_URL is unset, in which case callers run without a fast tier.
type Hub struct {
	DB    *sql.DB
	Redis *goredis.Client
}

// New opens the Postgres pool and, if configured, the Redis client.
// Both connections are verified before New returns. Call Close on shutdown.
func New(ctx context.Context, cfg *config.Config) (*Hub, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("hub: DATABASE_URL is not set")
	}
	pool, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("hub: postgres: %w", err)
	}

	h := &Hub{DB: pool}
	if cfg.RedisURL != "" {
		client, err := redis.Open(ctx, cfg.RedisURL)
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("hub: redis: %w", err)
		}
		h.Redis = client
	}
	return h, nil
}

// Close releases both connections. Safe to call once at shutdown.
func (h *Hub) Close() error {
	var lastErr error
	if h.Redis != nil {
		if err := h.Redis.Close(); err != nil {
			lastErr = err
		}
	}
	if h.DB != nil {
		if err := h.DB.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Ready pings both stores; used by the readiness probe.
// A missing Redis client is not an error (fast tier is optional).
func (h *Hub) Ready(ctx context.Context) error {
	if err := h.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if h.Redis != nil {
		if err := h.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
