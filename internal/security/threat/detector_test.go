package threat

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedCounter int

func (c fixedCounter) CountSince(string, time.Time) int { return int(c) }

func TestSQLInjectionInBody(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig(), nil)
	a := d.Score(Request{
		SourceAddr: "192.0.2.10",
		UserAgent:  chromeUA,
		Method:     http.MethodPost,
		Endpoint:   "/v1/auth/login",
		Body:       "' OR 1=1 --",
	}, t0)

	require.True(t, a.Suspicious)
	require.Contains(t, a.Flags, string(SQLInjection))
	require.Greater(t, a.RiskScore, 0)
	require.Equal(t, 20, a.RiskScore)
	require.False(t, a.Block)
}

func TestCleanRequest(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig(), fixedCounter(3))
	a := d.Score(Request{
		SourceAddr: "192.0.2.10",
		UserAgent:  chromeUA,
		Method:     http.MethodPost,
		Endpoint:   "/v1/users?lang=en",
		Headers:    http.Header{"X-Forwarded-For": {"203.0.113.7, 10.0.0.1"}},
		Body:       `{"username":"alice","email":"alice@example.com"}`,
	}, t0)

	require.False(t, a.Suspicious)
	require.Empty(t, a.Flags)
	require.Zero(t, a.RiskScore)
}

func TestPatternCategories(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig(), nil)
	tests := []struct {
		name  string
		input string
		want  Category
	}{
		{"union select", "id=1 UNION ALL SELECT password FROM users", SQLInjection},
		{"stacked drop", "1; DROP TABLE users", SQLInjection},
		{"script tag", "<script>alert(1)</script>", XSS},
		{"javascript uri", `<a href="javascript:alert(1)">`, XSS},
		{"event handler", `<img src=x onerror=alert(1)>`, XSS},
		{"dot dot slash", "../../etc/passwd", PathTraversal},
		{"encoded traversal", "%2e%2e%2f%2e%2e%2fetc", PathTraversal},
		{"double encoded traversal", "%252e%252e%252fsecret", PathTraversal},
		{"chained command", "file.txt; cat /etc/hosts", CommandInjection},
		{"command substitution", "$(whoami)", CommandInjection},
		{"metadata ssrf", "http://169.254.169.254/latest/meta-data", SSRF},
		{"localhost ssrf", `{"url":"http://localhost:6379/"}`, SSRF},
		{"fullwidth script", "＜script＞", XSS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Contains(t, d.match(tt.input), tt.want)
		})
	}
}

func TestEndpointMatchUsesEndpointWeight(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig(), nil)
	a := d.Score(Request{Endpoint: "/files?path=../../etc/passwd", UserAgent: chromeUA}, t0)

	require.Equal(t, []string{"endpoint_path_traversal"}, a.Flags)
	require.Equal(t, 10, a.RiskScore)
}

func TestMalformedEscapeDoesNotHidePayload(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig(), nil)
	tests := []struct {
		name     string
		endpoint string
		want     Category
	}{
		{"sql injection", "/search?q=%27%20OR%201%3D1%20--", SQLInjection},
		{"sql injection with trailing percent", "/search?q=%27%20OR%201%3D1%20--&x=%", SQLInjection},
		{"script tag", "/search?q=%3Cscript%3Ealert(1)%3C/script%3E", XSS},
		{"script tag with bad escape", "/search?q=%3Cscript%3Ealert(1)%3C/script%3E&x=%zz", XSS},
		{"double encoded with bad escape", "/files?p=%252e%252e%252fetc%252fpasswd&x=%g1", PathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := d.Score(Request{Endpoint: tt.endpoint, UserAgent: chromeUA}, t0)
			require.True(t, a.Suspicious)
			require.Contains(t, a.Flags, "endpoint_"+string(tt.want))
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	require.Equal(t, "<b> %zz %", normalize("%3Cb%3E+%zz+%"))
	require.Equal(t, "../", normalize("%252e%252e%252f"))
	require.Equal(t, "<script>", normalize("%EF%BC%9Cscript%EF%BC%9E"))
	require.Equal(t, "ab", normalize("a%00b"))
}

func TestUserAgentHeuristic(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig(), nil)
	for _, ua := range []string{"sqlmap/1.7.2#stable (https://sqlmap.org)", "curl/8.4.0", "python-requests/2.31.0", "Googlebot/2.1 (+http://www.google.com/bot.html)"} {
		a := d.Score(Request{UserAgent: ua}, t0)
		require.Equal(t, []string{FlagSuspiciousUserAgent}, a.Flags, ua)
		require.Equal(t, 15, a.RiskScore)
	}

	a := d.Score(Request{UserAgent: chromeUA}, t0)
	require.False(t, a.Suspicious)
}

func TestForwardingHeaders(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig(), nil)
	tests := []struct {
		name    string
		headers http.Header
		flagged bool
	}{
		{"single ip", http.Header{"X-Forwarded-For": {"203.0.113.7"}}, false},
		{"three hops", http.Header{"X-Forwarded-For": {"203.0.113.7, 10.0.0.1, 10.0.0.2"}}, false},
		{"ipv6", http.Header{"X-Forwarded-For": {"2001:db8::1"}}, false},
		{"four hops", http.Header{"X-Forwarded-For": {"1.1.1.1, 2.2.2.2, 3.3.3.3, 4.4.4.4"}}, true},
		{"non numeric", http.Header{"X-Forwarded-For": {"evil.example.com"}}, true},
		{"injected", http.Header{"X-Forwarded-For": {"1.1.1.1; DROP"}}, true},
		{"bad real ip", http.Header{"X-Real-Ip": {"not-an-ip"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.flagged, d.hasMalformedForwarding(tt.headers))
		})
	}
}

func TestFrequencyHeuristic(t *testing.T) {
	t.Parallel()

	// 99 earlier requests plus this one is exactly the limit.
	atLimit := NewDetector(DefaultConfig(), fixedCounter(99))
	require.False(t, atLimit.Score(Request{SourceAddr: "a"}, t0).Suspicious)

	over := NewDetector(DefaultConfig(), fixedCounter(100))
	a := over.Score(Request{SourceAddr: "a"}, t0)
	require.Equal(t, []string{FlagHighFrequency}, a.Flags)
	require.Equal(t, 25, a.RiskScore)
}

func TestScoreIsCappedAndBlocks(t *testing.T) {
	t.Parallel()

	d := NewDetector(DefaultConfig(), fixedCounter(500))
	a := d.Score(Request{
		SourceAddr: "198.51.100.4",
		UserAgent:  "sqlmap/1.7",
		Endpoint:   "/search?q=%3Cscript%3E",
		Headers:    http.Header{"X-Forwarded-For": {"garbage"}},
		Body:       "' OR 1=1 -- ; cat /etc/passwd <script>alert(1)</script> http://127.0.0.1/",
	}, t0)

	require.Equal(t, 100, a.RiskScore)
	require.True(t, a.Block)
}

func TestConfigurableWeights(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Weights.Body = 90
	cfg.BlockThreshold = 90
	d := NewDetector(cfg, nil)

	a := d.Score(Request{Body: "<script>x</script>"}, t0)
	require.Equal(t, 90, a.RiskScore)
	require.True(t, a.Block)
}
