package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a Limiter shared by every instance talking to the same Redis.
// Each window is a counter key whose TTL is the window length.
type Redis struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedis creates a Redis-backed limiter. If prefix is empty, it uses "ratelimit".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &Redis{client: client, prefix: prefix, now: time.Now}
}

func (r *Redis) key(key string) string {
	return r.prefix + ":" + key
}

// Check increments the counter and sets the window TTL on the first attempt.
// The attempt that pushes the counter past max is denied.
func (r *Redis) Check(ctx context.Context, key string, max int, window time.Duration) (Result, error) {
	k := r.key(key)

	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate limiter incr: %w", err)
	}

	ttl := window
	if count == 1 {
		if err := r.client.PExpire(ctx, k, window).Err(); err != nil {
			return Result{}, fmt.Errorf("rate limiter expire: %w", err)
		}
	} else {
		ttl, err = r.client.PTTL(ctx, k).Result()
		if err != nil {
			return Result{}, fmt.Errorf("rate limiter ttl: %w", err)
		}
		// A counter without TTL would never reset.
		if ttl < 0 {
			ttl = window
			if err := r.client.PExpire(ctx, k, window).Err(); err != nil {
				return Result{}, fmt.Errorf("rate limiter expire: %w", err)
			}
		}
	}

	res := Result{
		Allowed:   count <= int64(max),
		Remaining: max - int(count),
		ResetAt:   r.now().Add(ttl),
	}
	if res.Remaining < 0 {
		res.Remaining = 0
	}
	return res, nil
}

// Reset deletes the counter for key.
func (r *Redis) Reset(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("rate limiter reset: %w", err)
	}
	return nil
}
