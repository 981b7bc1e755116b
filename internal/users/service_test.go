package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/rodalabs/roda-auth/internal/shared"
)

type mockRepository struct {
	byCedula map[string]*User
	byID     map[uuid.UUID]*User
	touched  map[uuid.UUID]time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byCedula: make(map[string]*User),
		byID:     make(map[uuid.UUID]*User),
		touched:  make(map[uuid.UUID]time.Time),
	}
}

func (m *mockRepository) FindByCedula(ctx context.Context, cedula string) (*User, error) {
	u, ok := m.byCedula[cedula]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) Create(ctx context.Context, user *User) error {
	if _, exists := m.byCedula[user.Cedula]; exists {
		return shared.ErrDuplicateCedula
	}
	m.byCedula[user.Cedula] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.touched[id] = at
	return nil
}

func seedUser(t *testing.T, repo *mockRepository, cedula, password string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &User{
		ID:           uuid.New(),
		Cedula:       cedula,
		PasswordHash: string(hash),
		Role:         RoleCustomer,
		Status:       StatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestAuthenticateSuccess(t *testing.T) {
	repo := newMockRepository()
	seeded := seedUser(t, repo, "12345678", "sup3r-secret")
	svc := NewService(repo)

	user, err := svc.Authenticate(context.Background(), "12345678", "sup3r-secret")
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, user.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "12345678", "sup3r-secret")
	svc := NewService(repo)

	_, err := svc.Authenticate(context.Background(), "12345678", "not-it")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestAuthenticateUnknownCedula(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.Authenticate(context.Background(), "00000000", "whatever")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRegisterHashesPassword(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	user, err := svc.Register(context.Background(), RegisterInput{
		Cedula:    "87654321",
		Password:  "plain-text-pw",
		FirstName: "Ana",
		LastName:  "Gomez",
		Phone:     "0981111222",
		Address:   "Asuncion",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "plain-text-pw", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("plain-text-pw")))
	assert.Equal(t, RoleCustomer, user.Role)
	assert.Equal(t, StatusPendingVerification, user.Status)
	assert.False(t, user.IsVerified)
}

func TestRegisterDuplicateCedula(t *testing.T) {
	repo := newMockRepository()
	seedUser(t, repo, "12345678", "whatever-pw")
	svc := NewService(repo)

	_, err := svc.Register(context.Background(), RegisterInput{Cedula: "12345678", Password: "another-pw"})
	assert.ErrorIs(t, err, shared.ErrDuplicateCedula)
}

func TestFindByIDMapsNotFound(t *testing.T) {
	svc := NewService(newMockRepository())

	_, err := svc.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestProfileOmitsPasswordHash(t *testing.T) {
	repo := newMockRepository()
	user := seedUser(t, repo, "12345678", "sup3r-secret")
	user.FirstName = "Juan"

	profile := user.Profile()
	assert.Equal(t, user.ID.String(), profile.ID)
	assert.Equal(t, "Juan", profile.FirstName)
	assert.Equal(t, "customer", profile.Role)
}
