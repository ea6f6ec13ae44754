package httpx

import (
	"net/http"
	"strings"

	"github.com/familiarcat/aegis/pkg/slogx"
)

// RequireAnyScope the caller must have at least one of the provided scopes.
// It runs after AuthnMiddleware.
func RequireAnyScope(required ...string) Middleware {
	want := make(map[string]struct{}, len(required))
	for _, s := range required {
		want[s] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, s := range scopesFromCtx(r.Context()) {
				if _, ok := want[s]; ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			slogx.FromContext(r.Context()).Warn("insufficient scope",
				"user_id", UserIDFromContext(r.Context()),
				"required", required,
			)
			writeBearerScopeError(w, required...)
		})
	}
}

// RFC 6750 insufficient_scope response.
func writeBearerScopeError(w http.ResponseWriter, required ...string) {
	scope := strings.Join(required, " ")
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+scope+`"`)
	WriteJSON(w, http.StatusForbidden, map[string]string{
		"error":             "insufficient_scope",
		"error_description": "requires scope " + scope,
	})
}
