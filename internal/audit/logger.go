package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Action tags recorded by the token lifecycle engine.
const (
	ActionRegister    = "register"
	ActionLogin       = "login"
	ActionLoginFailed = "login_failed"
	ActionRefresh     = "token_refresh"
	ActionLogout      = "logout"
)

// Entry represents a record stored in audit_logs. UserID is nil for
// unauthenticated failures.
type Entry struct {
	UserID    *uuid.UUID
	Action    string
	Resource  string
	Details   map[string]any
	IPAddress string
	UserAgent string
	At        time.Time
}

// Logger writes records into the append-only audit_logs table.
type Logger struct {
	pool *pgxpool.Pool
}

// NewLogger returns a new audit Logger.
func NewLogger(pool *pgxpool.Pool) *Logger {
	return &Logger{pool: pool}
}

// Record persists the entry. Rows are only ever inserted, never updated or
// deleted.
func (l *Logger) Record(ctx context.Context, entry Entry) error {
	if l == nil || l.pool == nil {
		return errors.New("audit logger not initialised")
	}
	if entry.Action == "" {
		return errors.New("audit entry requires an action")
	}
	var details []byte
	if entry.Details != nil {
		var err error
		details, err = json.Marshal(entry.Details)
		if err != nil {
			return err
		}
	}
	at := entry.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err := l.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, action, resource, details, ip_address, user_agent, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, NULLIF($6, ''), NULLIF($7, ''), $8)`,
		uuid.New(), entry.UserID, entry.Action, entry.Resource, details, entry.IPAddress, entry.UserAgent, at,
	)
	return err
}

// Recorder is the boundary the token engine depends on.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// BestEffort wraps a Recorder so failures are logged locally and swallowed.
// Audit emission must never fail the primary operation.
type BestEffort struct {
	recorder Recorder
	logger   *slog.Logger
}

// NewBestEffort builds the fire-and-forget wrapper used by the engine.
func NewBestEffort(recorder Recorder, logger *slog.Logger) *BestEffort {
	return &BestEffort{recorder: recorder, logger: logger}
}

// Record attempts to persist the entry and only logs on failure.
func (b *BestEffort) Record(ctx context.Context, entry Entry) {
	if b == nil || b.recorder == nil {
		return
	}
	if err := b.recorder.Record(ctx, entry); err != nil && b.logger != nil {
		b.logger.Error("audit record failed",
			slog.String("action", entry.Action),
			slog.Any("error", err))
	}
}
