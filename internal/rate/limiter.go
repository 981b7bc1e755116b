// Package rate enforces login attempt budgets using Redis counters.
package rate

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rodalabs/roda-auth/internal/shared"
)

// Config holds limiter tuning parameters.
type Config struct {
	MaxLoginAttempts int
	LoginCooldown    time.Duration
}

// Limiter counts failed login attempts per cedula and per origin IP. Counters
// expire after the cooldown window and reset on successful login.
type Limiter struct {
	redis redis.UniversalClient
	cfg   Config
}

// New creates a Limiter backed by the given Redis client.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	if cfg.MaxLoginAttempts <= 0 {
		cfg.MaxLoginAttempts = 10
	}
	if cfg.LoginCooldown <= 0 {
		cfg.LoginCooldown = 15 * time.Minute
	}
	return &Limiter{redis: client, cfg: cfg}
}

// CheckLogin returns ErrRateLimited when the cedula or IP has exhausted its
// attempt budget. Redis outages fail open: a broken throttle must not lock
// everyone out.
func (l *Limiter) CheckLogin(ctx context.Context, cedula, ip string) error {
	for _, key := range loginKeys(cedula, ip) {
		count, err := l.redis.Get(ctx, key).Int64()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil
		}
		if count >= int64(l.cfg.MaxLoginAttempts) {
			return shared.ErrRateLimited
		}
	}
	return nil
}

// RecordFailure increments the failed-attempt counters for the pair.
func (l *Limiter) RecordFailure(ctx context.Context, cedula, ip string) {
	for _, key := range loginKeys(cedula, ip) {
		pipe := l.redis.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, l.cfg.LoginCooldown)
		if _, err := pipe.Exec(ctx); err != nil {
			return
		}
		_ = incr.Val()
	}
}

// Reset clears the counters after a successful login.
func (l *Limiter) Reset(ctx context.Context, cedula, ip string) {
	keys := loginKeys(cedula, ip)
	if len(keys) > 0 {
		l.redis.Del(ctx, keys...)
	}
}

func loginKeys(cedula, ip string) []string {
	keys := make([]string, 0, 2)
	if cedula != "" {
		keys = append(keys, fmt.Sprintf("rodaauth:login:cedula:%s", cedula))
	}
	if ip != "" {
		keys = append(keys, fmt.Sprintf("rodaauth:login:ip:%s", ip))
	}
	return keys
}
