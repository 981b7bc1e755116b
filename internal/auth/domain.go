package auth

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is a persisted record of an issued refresh token. Rows are
// never physically deleted; revocation is monotonic (false to true, never
// reversed) and the history is retained for forensics.
type RefreshToken struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Token       string
	ExpiresAt   time.Time
	IsRevoked   bool
	CreatedAt   time.Time
	CreatedByIP string
}

// Usable reports whether the token may still be exchanged at the given time.
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}

// TokenPair is the response shape for login and refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// VerifyResult carries the authenticated identity resolved from an access
// token.
type VerifyResult struct {
	Subject   uuid.UUID
	Cedula    string
	Role      string
	ExpiresAt time.Time
}

// RequestMeta carries origin information attached to audit entries and token
// records.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}
