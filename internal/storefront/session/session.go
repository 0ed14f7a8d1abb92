// Package session implements ports.Session over the storefront's bearer token.
//
// The gateway never holds the signing key, so the token is decoded without
// verification only to learn its subject and expiry. The backend verifies it
// on every call.
package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/jcmexdev/storefront-orders/internal/storefront/core/ports"
)

var _ ports.Session = (*Session)(nil)

type Session struct {
	token   string
	subject string
	expires time.Time
	now     func() time.Time
}

// Option customises a Session.
type Option func(*Session)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New builds a session from a raw token. Tokens that are not JWTs are kept
// as opaque credentials with no known expiry.
func New(token string, opts ...Option) *Session {
	s := &Session{token: strings.TrimSpace(token), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.token == "" {
		return s
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(s.token, claims); err != nil {
		s.subject = s.token
		return s
	}
	s.subject = claims.Subject
	if s.subject == "" {
		s.subject = s.token
	}
	if claims.ExpiresAt != nil {
		s.expires = claims.ExpiresAt.Time
	}
	return s
}

// Anonymous is a session with no credentials.
func Anonymous() *Session { return New("") }

// FromAuthorization parses an "Authorization: Bearer <token>" header value.
func FromAuthorization(header string, opts ...Option) *Session {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return New(header[len(prefix):], opts...)
	}
	return Anonymous()
}

func (s *Session) Token() string { return s.token }

func (s *Session) Subject() string { return s.subject }

func (s *Session) ExpiresAt() time.Time { return s.expires }

func (s *Session) IsAuthenticated() bool {
	if s == nil || s.token == "" {
		return false
	}
	return s.expires.IsZero() || s.now().Before(s.expires)
}
