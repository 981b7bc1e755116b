package users

import (
	"time"

	"github.com/google/uuid"
)

// Role enumerates the access levels a user can hold.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleAgent    Role = "agent"
)

// Status enumerates account lifecycle states.
type Status string

const (
	StatusActive              Status = "active"
	StatusInactive            Status = "inactive"
	StatusSuspended           Status = "suspended"
	StatusPendingVerification Status = "pending_verification"
)

// User represents an account record. The cedula is the immutable natural key;
// the surrogate id is never reused. PasswordHash is opaque and must never be
// logged.
type User struct {
	ID              uuid.UUID
	Cedula          string
	PasswordHash    string
	FirstName       string
	LastName        string
	Phone           string
	Address         string
	ProfilePhotoURL string
	Role            Role
	Status          Status
	IsVerified      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastLogin       *time.Time
}

// Profile is the response shape exposed to authenticated callers. Fields are
// enumerated statically; the password hash never crosses this boundary.
type Profile struct {
	ID              string     `json:"id"`
	Cedula          string     `json:"cedula"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	ProfilePhotoURL string     `json:"profile_photo_url,omitempty"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	IsVerified      bool       `json:"is_verified"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
}

// Profile projects the full entity onto its public shape.
func (u *User) Profile() Profile {
	return Profile{
		ID:              u.ID.String(),
		Cedula:          u.Cedula,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Phone:           u.Phone,
		Address:         u.Address,
		ProfilePhotoURL: u.ProfilePhotoURL,
		Role:            string(u.Role),
		Status:          string(u.Status),
		IsVerified:      u.IsVerified,
		CreatedAt:       u.CreatedAt,
		LastLogin:       u.LastLogin,
	}
}

// CanAuthenticate reports whether the account may hold valid tokens. Suspended
// and inactive accounts are cut off on every token-validating operation, not
// just at login. Accounts pending verification may still authenticate; their
// verified flag stays false until approval.
func (u *User) CanAuthenticate() bool {
	return u.Status == StatusActive || u.Status == StatusPendingVerification
}
