package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rodalabs/roda-auth/internal/audit"
	"github.com/rodalabs/roda-auth/internal/observability"
	"github.com/rodalabs/roda-auth/internal/shared"
	"github.com/rodalabs/roda-auth/internal/token"
	"github.com/rodalabs/roda-auth/internal/users"
)

// CredentialStore is the boundary to the user account collaborator.
type CredentialStore interface {
	Authenticate(ctx context.Context, cedula, password string) (*users.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*users.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service orchestrates the token lifecycle: login, refresh, logout, verify.
// It holds no state of its own; all durable state lives in the credential
// store and the refresh token store.
type Service struct {
	codec   *token.Codec
	users   CredentialStore
	repo    Repository
	audit   *audit.BestEffort
	metrics *observability.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService constructs the lifecycle engine. Metrics may be nil.
func NewService(codec *token.Codec, credentials CredentialStore, repo Repository, auditor *audit.BestEffort, metrics *observability.Metrics, logger *slog.Logger) *Service {
	return &Service{
		codec:   codec,
		users:   credentials,
		repo:    repo,
		audit:   auditor,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the time source, useful for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Login verifies credentials and issues a fresh access/refresh pair. Unknown
// cedula and wrong password are indistinguishable to the caller; the failed
// attempt is audited without a user id either way.
func (s *Service) Login(ctx context.Context, cedula, password string, meta RequestMeta) (*TokenPair, error) {
	user, err := s.users.Authenticate(ctx, cedula, password)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			s.audit.Record(ctx, audit.Entry{
				Action:    audit.ActionLoginFailed,
				Resource:  "user",
				Details:   map[string]any{"cedula": cedula},
				IPAddress: meta.IPAddress,
				UserAgent: meta.UserAgent,
			})
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CanAuthenticate() {
		s.audit.Record(ctx, audit.Entry{
			Action:    audit.ActionLoginFailed,
			Resource:  "user",
			Details:   map[string]any{"cedula": cedula, "reason": "account_disabled"},
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
		})
		return nil, shared.ErrInvalidCredentials
	}

	pair, err := s.mintPair(ctx, user, meta)
	if err != nil {
		return nil, err
	}

	if err := s.users.TouchLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logger.Warn("update last login", slog.Any("error", err))
	}
	s.audit.Record(ctx, audit.Entry{
		UserID:    &user.ID,
		Action:    audit.ActionLogin,
		Resource:  "user",
		Details:   map[string]any{"cedula": user.Cedula},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	return pair, nil
}

// AuditRegister records a successful account registration.
func (s *Service) AuditRegister(ctx context.Context, user *users.User, meta RequestMeta) {
	s.audit.Record(ctx, audit.Entry{
		UserID:    &user.ID,
		Action:    audit.ActionRegister,
		Resource:  "user",
		Details:   map[string]any{"cedula": user.Cedula},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
}

// Refresh rotates a refresh token: the presented token is atomically revoked
// and a new pair issued. Each refresh token is single-use; a replayed token
// fails with ErrTokenNotFound no matter how time-valid its signature still is.
func (s *Service) Refresh(ctx context.Context, refreshToken string, meta RequestMeta) (*TokenPair, error) {
	if _, err := s.codec.Validate(refreshToken, token.KindRefresh); err != nil {
		return nil, mapCodecErr(err)
	}

	rec, err := s.repo.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, rec.UserID)
	if err != nil {
		return nil, err
	}
	if !user.CanAuthenticate() {
		return nil, shared.ErrUserNotFound
	}

	pair, err := s.mintPair(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Entry{
		UserID:    &user.ID,
		Action:    audit.ActionRefresh,
		Resource:  "user",
		IPAddress: meta.IPAddress,
	})
	return pair, nil
}

// Logout requires a currently valid access token to resolve the acting user.
// The supplied refresh token, if any, is revoked best-effort; other sessions
// the user holds survive independently.
func (s *Service) Logout(ctx context.Context, accessToken, refreshToken string, meta RequestMeta) error {
	claims, err := s.codec.Validate(accessToken, token.KindAccess)
	if err != nil {
		return mapCodecErr(err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return shared.ErrTokenInvalid
	}

	if refreshToken != "" {
		if _, err := s.repo.RevokeRefreshToken(ctx, refreshToken); err != nil {
			s.logger.Warn("revoke refresh token on logout", slog.Any("error", err))
		}
	}

	s.audit.Record(ctx, audit.Entry{
		UserID:    &userID,
		Action:    audit.ActionLogout,
		Resource:  "user",
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	})
	return nil
}

// Verify validates an access token and re-resolves its subject, guarding
// against tokens outliving a deleted or disabled account within their
// remaining TTL window.
func (s *Service) Verify(ctx context.Context, accessToken string) (*VerifyResult, *users.User, error) {
	claims, err := s.codec.Validate(accessToken, token.KindAccess)
	if err != nil {
		return nil, nil, mapCodecErr(err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, shared.ErrTokenInvalid
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !user.CanAuthenticate() {
		return nil, nil, shared.ErrUserNotFound
	}
	result := &VerifyResult{
		Subject: userID,
		Cedula:  claims.Cedula,
		Role:    claims.Role,
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}
	return result, user, nil
}

func (s *Service) mintPair(ctx context.Context, user *users.User, meta RequestMeta) (*TokenPair, error) {
	identity := token.Identity{
		Subject: user.ID.String(),
		Cedula:  user.Cedula,
		Role:    string(user.Role),
	}
	accessToken, err := s.codec.IssueAccess(identity)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.codec.IssueRefresh(identity)
	if err != nil {
		return nil, err
	}
	rec := &RefreshToken{
		ID:          uuid.New(),
		UserID:      user.ID,
		Token:       refreshToken,
		ExpiresAt:   s.now().UTC().Add(s.codec.RefreshTTL()),
		CreatedByIP: meta.IPAddress,
	}
	if err := s.repo.CreateRefreshToken(ctx, rec); err != nil {
		return nil, err
	}
	s.metrics.ObserveTokenIssued(string(token.KindAccess))
	s.metrics.ObserveTokenIssued(string(token.KindRefresh))
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.codec.AccessTTL().Seconds()),
	}, nil
}

func mapCodecErr(err error) error {
	if errors.Is(err, token.ErrExpired) {
		return shared.ErrTokenExpired
	}
	return shared.ErrTokenInvalid
}
