package httpx

import (
	"net"
	"net/http"
	"strings"
)

// KeyExtractor derives a rate-limiting or audit key from a request.
type KeyExtractor func(*http.Request) string

// ClientIP returns the peer address of r. When trustForwarded is set the
// first X-Forwarded-For hop, then X-Real-IP, take precedence; only enable it
// behind a proxy that overwrites those headers.
func ClientIP(r *http.Request, trustForwarded bool) string {
	if trustForwarded {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IPKeyExtractor returns a KeyExtractor built on ClientIP.
func IPKeyExtractor(trustForwarded bool) KeyExtractor {
	return func(r *http.Request) string { return ClientIP(r, trustForwarded) }
}
