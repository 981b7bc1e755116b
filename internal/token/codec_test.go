package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	codec, err := NewCodec(Config{
		Secret:     []byte("test-signing-secret"),
		Issuer:     "roda-auth",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, opts...)
	require.NoError(t, err)
	return codec
}

func TestNewCodecRejectsInvalidConfig(t *testing.T) {
	_, err := NewCodec(Config{AccessTTL: time.Minute, RefreshTTL: time.Hour})
	require.Error(t, err)

	_, err = NewCodec(Config{Secret: []byte("s"), RefreshTTL: time.Hour})
	require.Error(t, err)
}

func TestIssueValidateRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	id := Identity{Subject: "d2c1a9e4-0000-4000-8000-000000000001", Cedula: "12345678", Role: "customer"}
	signed, err := codec.IssueAccess(id)
	require.NoError(t, err)

	claims, err := codec.Validate(signed, KindAccess)
	require.NoError(t, err)
	assert.Equal(t, id.Subject, claims.Subject)
	assert.Equal(t, id.Cedula, claims.Cedula)
	assert.Equal(t, id.Role, claims.Role)
	assert.Equal(t, KindAccess, claims.Kind)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateRejectsWrongKind(t *testing.T) {
	codec := newTestCodec(t)
	id := Identity{Subject: "user-1", Cedula: "12345678", Role: "customer"}

	refresh, err := codec.IssueRefresh(id)
	require.NoError(t, err)
	_, err = codec.Validate(refresh, KindAccess)
	assert.ErrorIs(t, err, ErrWrongKind)

	access, err := codec.IssueAccess(id)
	require.NoError(t, err)
	_, err = codec.Validate(access, KindRefresh)
	assert.ErrorIs(t, err, ErrWrongKind)
}

func TestValidateRejectsExpired(t *testing.T) {
	current := time.Now().UTC()
	codec := newTestCodec(t, WithClock(func() time.Time { return current }))

	signed, err := codec.Issue(Identity{Subject: "user-1"}, KindAccess, time.Minute)
	require.NoError(t, err)

	current = current.Add(2 * time.Minute)
	_, err = codec.Validate(signed, KindAccess)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestValidateRejectsTamperedSignature(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec(Config{
		Secret:     []byte("another-secret"),
		Issuer:     "roda-auth",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	require.NoError(t, err)

	signed, err := other.IssueAccess(Identity{Subject: "user-1"})
	require.NoError(t, err)

	_, err = codec.Validate(signed, KindAccess)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestValidateRejectsGarbage(t *testing.T) {
	codec := newTestCodec(t)
	_, err := codec.Validate("not-a-token", KindAccess)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = codec.Validate("", KindRefresh)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestIssueRequiresSubject(t *testing.T) {
	codec := newTestCodec(t)
	_, err := codec.IssueAccess(Identity{})
	require.Error(t, err)
}
