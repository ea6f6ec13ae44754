//go:build e2e

package security_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/familiarcat/aegis/pkg/securitysdk"
	"github.com/stretchr/testify/require"
)

func sendFrom(t *testing.T, baseURL, method, path, source, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, baseURL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0")
	req.Header.Set("X-Forwarded-For", source)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var e securitysdk.APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e.Code
}

// TestRateLimitPerSource verifies the fixed window rejects the request past
// the limit and that other sources are unaffected.
func TestRateLimitPerSource(t *testing.T) {
	baseURL, cleanup := setupSecurityContainer(t, map[string]string{
		"RATELIMIT_MAX_REQUESTS": "5",
		"TRUST_PROXY_HEADERS":    "true",
	})
	defer cleanup()

	for i := range 5 {
		resp := sendFrom(t, baseURL, http.MethodGet, "/v1/auth/session", "198.51.100.1", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "request %d should reach the handler", i+1)
	}

	resp := sendFrom(t, baseURL, http.MethodGet, "/v1/auth/session", "198.51.100.1", "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
	require.Equal(t, securitysdk.ErrorCodeRateLimitExceeded, errorCode(t, resp))

	resp = sendFrom(t, baseURL, http.MethodGet, "/v1/auth/session", "198.51.100.2", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// TestAttackBlocksSource sends a payload combining several injection
// techniques and verifies the source is blocked until an operator unblocks it.
func TestAttackBlocksSource(t *testing.T) {
	baseURL, cleanup := setupSecurityContainer(t, map[string]string{
		"TRUST_PROXY_HEADERS": "true",
	})
	defer cleanup()

	client := securitysdk.NewSDKClient(baseURL)
	ctx := context.Background()
	admin := registerAndLogin(t, client, "root")

	const attacker = "203.0.113.7"
	body := `{"username":"x' OR 1=1 --","email":"<script>alert(1)</script>","password":"../../etc/passwd; cat /etc/shadow"}`

	resp := sendFrom(t, baseURL, http.MethodPost, "/v1/users", attacker, body)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, securitysdk.ErrorCodeSuspiciousRequest, errorCode(t, resp))

	resp = sendFrom(t, baseURL, http.MethodGet, "/livez", attacker, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "Health endpoints are exempt from blocking")

	resp = sendFrom(t, baseURL, http.MethodGet, "/v1/auth/session", attacker, "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	blocks, err := admin.BlockedSources(ctx)
	require.NoError(t, err)
	require.Len(t, blocks.Blocks, 1)
	require.Equal(t, attacker, blocks.Blocks[0].Address)

	user := registerAndLogin(t, client, "grace")
	_, err = user.Unblock(ctx, attacker)
	assertAPIError(t, err, http.StatusForbidden, securitysdk.ErrorCodeInsufficientScope)

	removed, err := admin.Unblock(ctx, attacker)
	require.NoError(t, err)
	require.True(t, removed)

	resp = sendFrom(t, baseURL, http.MethodGet, "/v1/auth/session", attacker, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
