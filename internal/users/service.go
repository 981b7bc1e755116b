package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/rodalabs/roda-auth/internal/shared"
)

// RepositoryPort defines data access methods for user accounts.
type RepositoryPort interface {
	FindByCedula(ctx context.Context, cedula string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Create(ctx context.Context, user *User) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Service handles account business logic for the token engine.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies a cedula/password pair. Unknown cedula and wrong
// password both return ErrInvalidCredentials so the caller cannot tell them
// apart.
func (s *Service) Authenticate(ctx context.Context, cedula, password string) (*User, error) {
	user, err := s.repo.FindByCedula(ctx, cedula)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// FindByID resolves a user by surrogate id, mapping absence to ErrUserNotFound.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// RegisterInput carries validated registration fields.
type RegisterInput struct {
	Cedula    string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Address   string
}

// Register creates a new customer account pending verification.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &User{
		ID:           uuid.New(),
		Cedula:       in.Cedula,
		PasswordHash: string(hash),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Address:      in.Address,
		Role:         RoleCustomer,
		Status:       StatusPendingVerification,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// TouchLastLogin stamps the latest successful login time.
func (s *Service) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.repo.UpdateLastLogin(ctx, id, at)
}
