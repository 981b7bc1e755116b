package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodalabs/roda-auth/internal/observability"
)

type stubSweeper struct {
	revoked int64
	err     error
	calls   int
}

func (s *stubSweeper) SweepExpired(ctx context.Context) (int64, error) {
	s.calls++
	return s.revoked, s.err
}

func TestTokenSweepHandler(t *testing.T) {
	sweeper := &stubSweeper{revoked: 4}
	handler := NewTokenSweepHandler(sweeper, observability.NewMetrics(), slog.Default())

	task, err := NewTokenSweepTask(TokenSweepPayload{Reason: "cron"})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	assert.Equal(t, 1, sweeper.calls)
}

func TestTokenSweepHandlerPropagatesStoreError(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("db down")}
	handler := NewTokenSweepHandler(sweeper, observability.NewMetrics(), slog.Default())

	task, err := NewTokenSweepTask(TokenSweepPayload{})
	require.NoError(t, err)

	assert.Error(t, handler(context.Background(), task))
}

func TestTokenSweepHandlerSkipsRetryOnBadPayload(t *testing.T) {
	sweeper := &stubSweeper{}
	handler := NewTokenSweepHandler(sweeper, observability.NewMetrics(), slog.Default())

	bad := asynq.NewTask(TaskTokenSweep, []byte("{not json"))
	err := handler(context.Background(), bad)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, sweeper.calls)
}
