package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewStore returns the configured backend. Redis is pinged before use.
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", "memory":
		return NewMemoryStore(opts.TTL), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return NewRedisStore(client, opts.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported conversation backend %q", opts.Backend)
	}
}
