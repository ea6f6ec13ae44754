package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/familiarcat/aegis/pkg/slogx"
)

// Principal is the authenticated caller behind a bearer token.
type Principal struct {
	UserID    string
	SessionID string
	Scopes    []string
}

// BearerValidator resolves a bearer token to the caller it belongs to.
type BearerValidator interface {
	ValidateBearer(ctx context.Context, token string) (Principal, bool)
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return tok, tok != ""
}

// AuthnMiddleware rejects requests without a valid bearer token and stores the
// caller's user ID, session ID and scopes in the request context.
func AuthnMiddleware(v BearerValidator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			p, ok := v.ValidateBearer(ctx, raw)
			if !ok {
				slogx.FromContext(ctx).Warn("bearer token rejected")
				writeBearerError(w, "the access token is missing, invalid or expired")
				return
			}

			ctx = context.WithValue(ctx, CtxKeyUserID, p.UserID)
			ctx = context.WithValue(ctx, CtxKeySessionID, p.SessionID)
			ctx = context.WithValue(ctx, CtxKeyScopes, p.Scopes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750 error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": desc,
	})
}
