package session_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/storefront-orders/internal/storefront/session"
)

func signed(t *testing.T, sub string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(exp.Add(-time.Hour)),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestJWTSession(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	tok := signed(t, "user-42", now.Add(time.Hour))

	s := session.New(tok, session.WithClock(clock))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, "user-42", s.Subject())
	assert.Equal(t, tok, s.Token())
	assert.Equal(t, now.Add(time.Hour).Unix(), s.ExpiresAt().Unix())

	expired := session.New(signed(t, "user-42", now.Add(-time.Minute)), session.WithClock(clock))
	assert.False(t, expired.IsAuthenticated())
}

func TestOpaqueAndAnonymousSessions(t *testing.T) {
	opaque := session.New("dev-token-alice")
	assert.True(t, opaque.IsAuthenticated())
	assert.Equal(t, "dev-token-alice", opaque.Subject())

	assert.False(t, session.Anonymous().IsAuthenticated())
	assert.False(t, session.New("   ").IsAuthenticated())
}

func TestFromAuthorization(t *testing.T) {
	assert.Equal(t, "abc", session.FromAuthorization("Bearer abc").Token())
	assert.Equal(t, "abc", session.FromAuthorization("bearer abc").Token())
	assert.False(t, session.FromAuthorization("Basic abc").IsAuthenticated())
	assert.False(t, session.FromAuthorization("").IsAuthenticated())
}
