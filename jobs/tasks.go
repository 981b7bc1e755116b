package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/rodalabs/roda-auth/internal/jobs"
	"github.com/rodalabs/roda-auth/internal/observability"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTokenSweep revokes refresh tokens whose expiry has passed.
	TaskTokenSweep = "token:sweep"
)

// TokenSweepPayload parameterizes a sweep run. Empty payloads use defaults.
type TokenSweepPayload struct {
	Reason string `json:"reason,omitempty"`
}

// TokenSweeper is the persistence boundary the sweep task needs.
type TokenSweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

// NewTokenSweepTask constructs an Asynq task for a sweep run.
func NewTokenSweepTask(payload TokenSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTokenSweep, data), nil
}

// NewTokenSweepHandler builds the handler that flips expired rows to revoked.
// Expired tokens already fail validation on read; the sweep keeps the live-row
// predicate cheap and the metrics honest.
func NewTokenSweepHandler(store TokenSweeper, metrics *observability.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	jobStats := jobmetrics.NewMetrics(metrics.Registerer())
	return func(ctx context.Context, t *asynq.Task) error {
		var payload TokenSweepPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}
		tracker := jobStats.Track(TaskTokenSweep)
		revoked, err := store.SweepExpired(ctx)
		if err != nil {
			logger.Error("token sweep failed", slog.Any("error", err))
			return tracker.End(err)
		}
		_ = tracker.End(nil)
		metrics.ObserveSweep(revoked)
		logger.Info("token sweep complete",
			slog.Int64("revoked", revoked),
			slog.String("reason", payload.Reason))
		return nil
	}
}
