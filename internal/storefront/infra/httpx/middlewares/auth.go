package middlewares

import (
	"context"
	"net/http"

	"github.com/jcmexdev/storefront-orders/internal/storefront/session"
)

type sessionKey struct{}

// Authenticate attaches the caller's session. Requests without a bearer token
// get an anonymous session; the components they reach decide what that means.
func Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s := session.FromAuthorization(r.Header.Get("Authorization"))
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

// Session returns the session attached by Authenticate, or an anonymous one.
func Session(ctx context.Context) *session.Session {
	if s, ok := ctx.Value(sessionKey{}).(*session.Session); ok {
		return s
	}
	return session.Anonymous()
}
