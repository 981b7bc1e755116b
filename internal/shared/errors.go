package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. The same value covers
	// unknown cedula and wrong password so responses cannot be used to
	// enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates the token subject no longer resolves to a user.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenInvalid indicates a malformed, tampered, or wrong-kind token.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired indicates the embedded expiry has passed.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenNotFound indicates the refresh token is absent, revoked, or
	// expired on the store side.
	ErrTokenNotFound = errors.New("refresh token not found")
	// ErrDuplicateToken indicates a refresh token string collision on insert.
	ErrDuplicateToken = errors.New("duplicate refresh token")
	// ErrDuplicateCedula indicates the cedula is already registered.
	ErrDuplicateCedula = errors.New("cedula already registered")
	// ErrStoreUnavailable indicates an I/O failure talking to a backing store.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrRateLimited indicates the caller exceeded the attempt budget.
	ErrRateLimited = errors.New("rate limited")
)
