package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis shares one window per key across every replica.
type Redis struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedis(client *redis.Client, prefix string, limit int, window time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, limit: limit, window: window}
}

func (r *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	k := r.prefix + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		// only the first hit of a window sets the expiry
		p.ExpireNX(ctx, k, r.window)
		ttl = p.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %q: %w", key, err)
	}

	count := int(incr.Val())
	if count > r.limit {
		retry := ttl.Val()
		if retry < 0 {
			retry = r.window
		}
		return Decision{Allowed: false, RetryAfter: retry}, nil
	}

	return Decision{Allowed: true, Remaining: r.limit - count}, nil
}
