package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodalabs/roda-auth/internal/shared"
)

func newTestLimiter(t *testing.T, max int) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, Config{MaxLoginAttempts: max, LoginCooldown: time.Minute}), mr
}

func TestCheckLoginUnderBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, 3)
	ctx := context.Background()

	require.NoError(t, limiter.CheckLogin(ctx, "12345678", "10.0.0.1"))
	limiter.RecordFailure(ctx, "12345678", "10.0.0.1")
	limiter.RecordFailure(ctx, "12345678", "10.0.0.1")
	require.NoError(t, limiter.CheckLogin(ctx, "12345678", "10.0.0.1"))
}

func TestCheckLoginExhaustedBudget(t *testing.T) {
	limiter, _ := newTestLimiter(t, 2)
	ctx := context.Background()

	limiter.RecordFailure(ctx, "12345678", "10.0.0.1")
	limiter.RecordFailure(ctx, "12345678", "10.0.0.1")

	err := limiter.CheckLogin(ctx, "12345678", "10.0.0.1")
	assert.ErrorIs(t, err, shared.ErrRateLimited)

	// A different cedula from a different IP is unaffected.
	require.NoError(t, limiter.CheckLogin(ctx, "87654321", "10.0.0.2"))
}

func TestResetClearsCounters(t *testing.T) {
	limiter, _ := newTestLimiter(t, 1)
	ctx := context.Background()

	limiter.RecordFailure(ctx, "12345678", "10.0.0.1")
	require.ErrorIs(t, limiter.CheckLogin(ctx, "12345678", "10.0.0.1"), shared.ErrRateLimited)

	limiter.Reset(ctx, "12345678", "10.0.0.1")
	require.NoError(t, limiter.CheckLogin(ctx, "12345678", "10.0.0.1"))
}

func TestCountersExpireAfterCooldown(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1)
	ctx := context.Background()

	limiter.RecordFailure(ctx, "12345678", "")
	require.ErrorIs(t, limiter.CheckLogin(ctx, "12345678", ""), shared.ErrRateLimited)

	mr.FastForward(2 * time.Minute)
	require.NoError(t, limiter.CheckLogin(ctx, "12345678", ""))
}

func TestFailsOpenWhenRedisDown(t *testing.T) {
	limiter, mr := newTestLimiter(t, 1)
	ctx := context.Background()
	mr.Close()

	require.NoError(t, limiter.CheckLogin(ctx, "12345678", "10.0.0.1"))
	limiter.RecordFailure(ctx, "12345678", "10.0.0.1")
	limiter.Reset(ctx, "12345678", "10.0.0.1")
}
