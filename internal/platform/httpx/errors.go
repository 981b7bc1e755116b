// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/rodalabs/roda-auth/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. Token
// failures deliberately share one generic title so responses cannot be used
// to probe whether a token is expired, revoked, or never issued.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		Problem(w, http.StatusUnauthorized, "Invalid Credentials", "cedula or password is incorrect")
	case errors.Is(err, shared.ErrTokenExpired),
		errors.Is(err, shared.ErrTokenInvalid),
		errors.Is(err, shared.ErrTokenNotFound),
		errors.Is(err, shared.ErrUserNotFound):
		Problem(w, http.StatusUnauthorized, "Invalid Token", "token is invalid or no longer usable")
	case errors.Is(err, shared.ErrDuplicateCedula):
		Problem(w, http.StatusConflict, "Already Registered", "cedula is already registered")
	case errors.Is(err, shared.ErrDuplicateToken):
		Problem(w, http.StatusConflict, "Conflict", "token could not be issued")
	case errors.Is(err, shared.ErrRateLimited):
		Problem(w, http.StatusTooManyRequests, "Too Many Attempts", "retry later")
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", "")
	default:
		// Store I/O failures and anything unclassified surface as 5xx.
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
