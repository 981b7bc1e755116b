package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rodalabs/roda-auth/internal/shared"
)

// Repository defines persistence operations for refresh tokens. The store is
// the sole server-side revocation mechanism: a token can be codec-valid yet
// store-revoked, and the store always wins.
type Repository interface {
	CreateRefreshToken(ctx context.Context, rec *RefreshToken) error
	ActiveRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	ConsumeRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) (bool, error)
	SweepExpired(ctx context.Context) (int64, error)
}

const refreshColumns = `id, user_id, token, expires_at, is_revoked, created_at, COALESCE(created_by_ip, '')`

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateRefreshToken inserts a new row. The token string is stored exactly as
// issued; the unique index turns a collision into ErrDuplicateToken instead of
// silently overwriting another session's credential.
func (r *PGRepository) CreateRefreshToken(ctx context.Context, rec *RefreshToken) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, is_revoked, created_at, created_by_ip)
		VALUES ($1, $2, $3, $4, false, NOW(), NULLIF($5, ''))`,
		rec.ID, rec.UserID, rec.Token, rec.ExpiresAt.UTC(), rec.CreatedByIP,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrDuplicateToken
		}
		return fmt.Errorf("auth: create refresh token: %w", err)
	}
	return nil
}

// ActiveRefreshToken returns the row only while it is unrevoked and unexpired.
func (r *PGRepository) ActiveRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+refreshColumns+` FROM refresh_tokens
		WHERE token = $1 AND is_revoked = false AND expires_at > NOW()`, token)
	return scanRefreshToken(row)
}

// ConsumeRefreshToken atomically revokes a live token and returns its record.
// The conditional UPDATE is the check-and-set guarding rotation: of two
// concurrent refresh attempts with the same token exactly one sees a row,
// the other gets ErrTokenNotFound.
func (r *PGRepository) ConsumeRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE refresh_tokens SET is_revoked = true
		WHERE token = $1 AND is_revoked = false AND expires_at > NOW()
		RETURNING `+refreshColumns, token)
	rec, err := scanRefreshToken(row)
	if err != nil {
		if errors.Is(err, shared.ErrTokenNotFound) {
			return nil, shared.ErrTokenNotFound
		}
		return nil, err
	}
	rec.IsRevoked = true
	return rec, nil
}

// RevokeRefreshToken idempotently marks the token revoked. It reports whether
// a live row was flipped; absence is not an error.
func (r *PGRepository) RevokeRefreshToken(ctx context.Context, token string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens SET is_revoked = true
		WHERE token = $1 AND is_revoked = false`, token)
	if err != nil {
		return false, fmt.Errorf("auth: revoke refresh token: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SweepExpired flips is_revoked on rows whose expiry has passed. Rows stay in
// place for audit history.
func (r *PGRepository) SweepExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE refresh_tokens SET is_revoked = true
		WHERE is_revoked = false AND expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("auth: sweep expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRefreshToken(row pgx.Row) (*RefreshToken, error) {
	var rec RefreshToken
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Token, &rec.ExpiresAt, &rec.IsRevoked, &rec.CreatedAt, &rec.CreatedByIP)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrTokenNotFound
		}
		return nil, fmt.Errorf("auth: scan refresh token: %w", err)
	}
	return &rec, nil
}

var _ Repository = (*PGRepository)(nil)
