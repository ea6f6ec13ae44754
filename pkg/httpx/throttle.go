package httpx

import (
	"math"
	"net/http"
	"strconv"

	"github.com/familiarcat/aegis/pkg/slogx"
	"golang.org/x/time/rate"
)

// ThrottleConfig bounds the total request rate the process accepts,
// independent of any per-client limit.
type ThrottleConfig struct {
	RatePerSecond float64
	Burst         int
}

// Throttle sheds load with a single token bucket shared by all clients.
// A non-positive rate disables it.
func Throttle(cfg ThrottleConfig) Middleware {
	if cfg.RatePerSecond <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	burst := max(cfg.Burst, 1)
	limiter := rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			retryAfter := max(int(math.Ceil(1/cfg.RatePerSecond)), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			slogx.FromContext(r.Context()).Warn("global throttle engaged", "endpoint", r.URL.Path)
			WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error":             "server_busy",
				"error_description": "The service is under heavy load. Please try again later.",
			})
		})
	}
}
