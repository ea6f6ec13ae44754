package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/internal/security/threat"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/securitysdk"
	"github.com/familiarcat/aegis/pkg/slogx"
)

// Health endpoints and docs are never rate limited, scored or blocked.
var guardExempt = []string{"/livez", "/readyz", "/metrics", "/swagger/"}

func exempt(path string) bool {
	for _, p := range guardExempt {
		if path == p || (strings.HasSuffix(p, "/") && strings.HasPrefix(path, p)) {
			return true
		}
	}
	return false
}

// Guard runs every request through the API security pipeline: block set,
// per-source rate limit, threat score. Rejected requests never reach the
// handler. The request body is read for scoring and replayed to the handler.
// When API security is disabled requests pass through untouched.
func Guard(orch *service.Orchestrator, trustForwarded bool) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if exempt(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			log := slogx.FromContext(ctx)

			body, err := readBody(r)
			if err != nil {
				log.Warn("failed to read request body", "err", err)
				securitysdk.ErrInvalidRequest.With("request body could not be read").WriteError(w)
				return
			}

			decision, err := orch.EvaluateRequest(ctx, threat.Request{
				SourceAddr: httpx.ClientIP(r, trustForwarded),
				UserAgent:  r.UserAgent(),
				Method:     r.Method,
				Endpoint:   r.URL.RequestURI(),
				Headers:    r.Header,
				Body:       string(body),
			})
			if errors.Is(err, service.ErrSubsystemDisabled) {
				next.ServeHTTP(w, r)
				return
			}

			if rl := decision.RateLimit; rl.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.Limit))
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining))
				w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(rl.ResetAt.Unix(), 10))
			}

			if err != nil {
				writeError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// readBody drains up to MaxJSONBody bytes and restores r.Body so the
// handler sees the same bytes.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, httpx.MaxJSONBody+1))
	_ = r.Body.Close()
	if err != nil {
		return nil, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
