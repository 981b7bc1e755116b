package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind distinguishes access tokens from refresh tokens. A token of one kind
// is never accepted where the other is required.
type Kind string

const (
	// KindAccess marks short-lived stateless credentials.
	KindAccess Kind = "access"
	// KindRefresh marks long-lived server-tracked credentials.
	KindRefresh Kind = "refresh"
)

// Validation errors returned by Validate.
var (
	// ErrMalformed indicates the token could not be parsed.
	ErrMalformed = errors.New("token malformed")
	// ErrInvalidSignature indicates the signature did not verify.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrExpired indicates the embedded expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrWrongKind indicates a kind mismatch (access vs refresh).
	ErrWrongKind = errors.New("token kind mismatch")
)

// Claims carries the identity payload embedded in signed tokens.
type Claims struct {
	Cedula string `json:"cedula,omitempty"`
	Role   string `json:"role,omitempty"`
	Kind   Kind   `json:"kind"`
	jwt.RegisteredClaims
}

// Config holds codec parameters. The secret is read-only after startup and
// shared by all concurrent operations without locking.
type Config struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec signs and validates expiring HS256 tokens. Operations are pure
// functions of input, secret, and clock; the codec keeps no server-side state.
type Codec struct {
	cfg Config
	now func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source, useful for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

// NewCodec constructs a Codec and validates its configuration.
func NewCodec(cfg Config, opts ...Option) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("token: signing secret is required")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token: ttl values must be positive")
	}
	c := &Codec{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AccessTTL returns the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.cfg.AccessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL }

// Identity is the caller-supplied portion of the claim set.
type Identity struct {
	Subject string
	Cedula  string
	Role    string
}

// Issue signs a token of the given kind with an absolute expiry of now+ttl.
// The jti claim is randomized so two tokens for the same identity never
// collide.
func (c *Codec) Issue(id Identity, kind Kind, ttl time.Duration) (string, error) {
	if id.Subject == "" {
		return "", errors.New("token: subject is required")
	}
	if ttl <= 0 {
		return "", errors.New("token: ttl must be positive")
	}
	now := c.now().UTC()
	claims := Claims{
		Cedula: id.Cedula,
		Role:   id.Role,
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// IssueAccess signs an access token with the configured access TTL.
func (c *Codec) IssueAccess(id Identity) (string, error) {
	return c.Issue(id, KindAccess, c.cfg.AccessTTL)
}

// IssueRefresh signs a refresh token with the configured refresh TTL.
func (c *Codec) IssueRefresh(id Identity) (string, error) {
	return c.Issue(id, KindRefresh, c.cfg.RefreshTTL)
}

// Validate verifies signature, expiry, and kind, and returns the claim set.
// The kind check runs on every call so a leaked refresh token can never be
// replayed as an access token or vice versa.
func (c *Codec) Validate(tokenStr string, expected Kind) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	parsed, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.cfg.Secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformed
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrMalformed
	}
	if claims.Subject == "" {
		return nil, ErrMalformed
	}
	if c.cfg.Issuer != "" && claims.Issuer != c.cfg.Issuer {
		return nil, ErrInvalidSignature
	}
	if claims.Kind != expected {
		return nil, ErrWrongKind
	}
	return claims, nil
}
