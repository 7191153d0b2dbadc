package ratelimit

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"fyp-portal/internal/config"
)

// Limiter tracks failed authentication attempts per (role, identifier)
// in redis. With a nil client every check passes, so deployments without
// redis simply run without lockout.
type Limiter struct {
	client      *redis.Client
	maxAttempts int
	cfg         config.Config
}

func NewLoginLimiter(client *redis.Client, cfg config.Config) *Limiter {
	return &Limiter{client: client, maxAttempts: cfg.LoginMaxAttempts, cfg: cfg}
}

// Allow reports whether another authentication attempt may proceed.
func (l *Limiter) Allow(ctx context.Context, role, identifier string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	count, err := l.client.Get(ctx, attemptKey(role, identifier)).Int()
	if err != nil {
		if err == redis.Nil {
			return true, nil
		}
		return true, err
	}
	return count < l.maxAttempts, nil
}

// RecordFailure counts a failed attempt; the counter expires after the
// lockout window so stale failures age out on their own.
func (l *Limiter) RecordFailure(ctx context.Context, role, identifier string) error {
	if l == nil || l.client == nil {
		return nil
	}
	key := attemptKey(role, identifier)
	pipe := l.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.cfg.LoginLockoutWindow)
	_, err := pipe.Exec(ctx)
	return err
}

// Reset clears the counter after a successful login.
func (l *Limiter) Reset(ctx context.Context, role, identifier string) error {
	if l == nil || l.client == nil {
		return nil
	}
	return l.client.Del(ctx, attemptKey(role, identifier)).Err()
}

func attemptKey(role, identifier string) string {
	return fmt.Sprintf("login_attempts:%s:%s", role, identifier)
}
