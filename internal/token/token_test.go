package token

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/eventix/internal/config"
	"github.com/Shivanand-hulikatti/eventix/internal/model"
)

func newManager(t *testing.T, secret string) *Manager {
	t.Helper()
	m, err := NewManager(config.AuthConfig{Secret: secret, Issuer: "eventix", TokenTTL: time.Hour}, nil)
	require.NoError(t, err)
	return m
}

var alice = model.Identity{ID: "user-1", Email: "alice@example.com"}

func TestIssueAndParse(t *testing.T) {
	m := newManager(t, "s3cret")

	raw, expires, err := m.Issue(alice, model.RoleOrganizer)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := m.Parse(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, model.RoleOrganizer, claims.Role)
	assert.NotEmpty(t, claims.ID)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	raw, _, err := newManager(t, "one").Issue(alice, model.RoleAttendee)
	require.NoError(t, err)

	_, err = newManager(t, "two").Parse(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsExpired(t *testing.T) {
	m := newManager(t, "s3cret")
	raw, _, err := m.Issue(alice, model.RoleAttendee)
	require.NoError(t, err)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = m.Parse(context.Background(), raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokedTokenIsRejected(t *testing.T) {
	m := newManager(t, "s3cret")
	ctx := context.Background()
	raw, _, err := m.Issue(alice, model.RoleAttendee)
	require.NoError(t, err)
	claims, err := m.Parse(ctx, raw)
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, claims))

	_, err = m.Parse(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := NewManager(config.AuthConfig{TokenTTL: time.Hour}, nil)
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestMemoryRevocationsForgetExpired(t *testing.T) {
	r := NewMemoryRevocations()
	ctx := context.Background()
	now := time.Now()
	r.now = func() time.Time { return now }

	require.NoError(t, r.Revoke(ctx, "a", now.Add(time.Minute)))
	revoked, err := r.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, err = r.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)
}
