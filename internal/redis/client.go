// Package redis opens the fast-cache Redis client used for element-chain lookups.
package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// Open connects to Redis using the given URL (e.g. redis://localhost:6379/0) and
// verifies the connection with a ping. Caller must call Close when done.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
