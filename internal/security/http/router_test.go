package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/familiarcat/aegis/internal/security/audit"
	"github.com/familiarcat/aegis/internal/security/dlp"
	securityhttp "github.com/familiarcat/aegis/internal/security/http"
	"github.com/familiarcat/aegis/internal/security/metrics"
	"github.com/familiarcat/aegis/internal/security/ratelimit"
	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/internal/security/store/drivers/memory"
	"github.com/familiarcat/aegis/internal/security/threat"
	"github.com/familiarcat/aegis/pkg/cryptox"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/jwtx"
	"github.com/familiarcat/aegis/pkg/securitysdk"
	"github.com/familiarcat/aegis/pkg/slogx"
	"github.com/pquerna/otp/totp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Correct-Horse-9"

type testServer struct {
	url    string
	client *securitysdk.SDKClient
	api    *service.APISecurityService
}

func newTestServer(t *testing.T, cfg service.OrchestratorConfig, maxRequests int) *testServer {
	t.Helper()

	st := memory.NewStore()
	signer, err := jwtx.NewHMACSigner(bytes.Repeat([]byte{0x42}, jwtx.MinKeySize), "aegis-test")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	sessions := &service.SessionService{
		Store:      st,
		Signer:     signer,
		Timeout:    time.Hour,
		Metrics:    m,
		AdminUsers: []string{"root"},
	}
	mfa := &service.MFAService{Store: st, Issuer: "Aegis", Metrics: m}
	auth := &service.AuthService{
		Store:             st,
		Hasher:            cryptox.BcryptHasher{Cost: bcrypt.MinCost},
		Sessions:          sessions,
		MFA:               mfa,
		Signer:            signer,
		Metrics:           m,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
	}
	log := audit.New(1000)
	api := &service.APISecurityService{
		Limiter:  ratelimit.New(ratelimit.Config{Window: time.Minute, MaxRequests: maxRequests}),
		Detector: threat.NewDetector(threat.DefaultConfig(), log),
		Audit:    log,
		Metrics:  m,
	}
	scanner, err := dlp.NewScanner(dlp.Config{})
	require.NoError(t, err)

	orch, err := service.NewOrchestrator(cfg, service.OrchestratorDeps{
		Store:       st,
		Auth:        auth,
		Sessions:    sessions,
		MFA:         mfa,
		APISecurity: api,
		Scanner:     scanner,
		Metrics:     m,
	})
	require.NoError(t, err)

	logger := slogx.New(slogx.Config{Service: "aegis-test", Level: "error", Output: io.Discard})
	router := securityhttp.NewRouter(orch, st, signer, "test", logger, securityhttp.Options{
		Headers:        httpx.HeaderConfig{Enabled: true},
		TrustForwarded: true,
		Gatherer:       reg,
	})
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{url: srv.URL, client: securitysdk.NewSDKClient(srv.URL), api: api}
}

var allEnabled = service.OrchestratorConfig{EnableAuth: true, EnableAPISecurity: true, EnableDLP: true}

// raw sends a request from a spoofed source address.
func (s *testServer) raw(t *testing.T, method, path, source, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.url+path, strings.NewReader(body))
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

func decodeError(t *testing.T, resp *http.Response) securitysdk.APIError {
	t.Helper()
	var e securitysdk.APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func (s *testServer) login(t *testing.T, username string) *securitysdk.Session {
	t.Helper()
	ctx := context.Background()
	_, err := s.client.Register(ctx, securitysdk.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)

	session, err := s.client.Login(ctx, securitysdk.LoginRequest{Identifier: username, Password: testPassword})
	require.NoError(t, err)
	return session
}

func TestRegisterLoginLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestServer(t, allEnabled, 1000)

	user, err := s.client.Register(ctx, securitysdk.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: testPassword,
	})
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.False(t, user.MFAEnabled)

	var apiErr *securitysdk.APIError
	_, err = s.client.Register(ctx, securitysdk.RegisterRequest{Username: "alice", Email: "other@example.com", Password: testPassword})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, securitysdk.ErrorCodeDuplicateIdentity, apiErr.Code)

	_, err = s.client.Register(ctx, securitysdk.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "short"})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, securitysdk.ErrorCodeInvalidInput, apiErr.Code)
	require.Equal(t, service.RulePasswordLength, apiErr.Rule)

	_, err = s.client.Login(ctx, securitysdk.LoginRequest{Identifier: "alice", Password: "Wrong-Horse-9"})
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, securitysdk.ErrorCodeInvalidCredentials, apiErr.Code)

	session, err := s.client.Login(ctx, securitysdk.LoginRequest{Identifier: "alice@example.com", Password: testPassword, ClientID: "web"})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token())
	require.Equal(t, user.ID, session.User().ID)

	v, err := session.Validate(ctx)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, "web", v.Session.ClientID)
	require.Equal(t, "127.0.0.1", v.Session.SourceAddr)

	token := session.Token()
	require.NoError(t, session.Logout(ctx))

	_, err = s.client.NewSessionFromToken(token).Validate(ctx)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, securitysdk.ErrorCodeInvalidToken, apiErr.Code)
}

func TestRejectsMalformedBodies(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, allEnabled, 1000)

	resp := s.raw(t, http.MethodPost, "/v1/users", "192.0.2.1", `{"username":"alice","extra":true}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, securitysdk.ErrorCodeInvalidRequest, decodeError(t, resp).Code)

	resp = s.raw(t, http.MethodPost, "/v1/auth/login", "192.0.2.1", `{"identifier":"alice"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLockoutOverHTTP(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestServer(t, allEnabled, 1000)
	s.login(t, "carol")

	for range 5 {
		_, err := s.client.Login(ctx, securitysdk.LoginRequest{Identifier: "carol", Password: "Wrong-Horse-9"})
		require.Error(t, err)
	}

	_, err := s.client.Login(ctx, securitysdk.LoginRequest{Identifier: "carol", Password: testPassword})
	var apiErr *securitysdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusLocked, apiErr.StatusCode)
	require.Equal(t, securitysdk.ErrorCodeAccountLocked, apiErr.Code)
	require.NotNil(t, apiErr.LockedUntil)
	require.True(t, apiErr.LockedUntil.After(time.Now()))
}

func TestMFAFlow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestServer(t, allEnabled, 1000)
	session := s.login(t, "dave")

	enabled, err := session.EnableMFA(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, enabled.Secret)
	require.Len(t, enabled.BackupCodes, 10)
	require.Equal(t, "Aegis", enabled.Issuer)

	_, err = session.EnableMFA(ctx)
	var apiErr *securitysdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, securitysdk.ErrorCodeMFAAlreadyEnabled, apiErr.Code)

	_, err = s.client.Login(ctx, securitysdk.LoginRequest{Identifier: "dave", Password: testPassword})
	var challenge *securitysdk.MFARequiredError
	require.ErrorAs(t, err, &challenge)
	require.Equal(t, []string{"totp", "backup_code"}, challenge.Methods)

	_, err = s.client.CompleteMFA(ctx, challenge, "not-a-code", "")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, securitysdk.ErrorCodeInvalidMFACode, apiErr.Code)

	code, err := totp.GenerateCode(enabled.Secret, time.Now())
	require.NoError(t, err)
	mfaSession, err := s.client.CompleteMFA(ctx, challenge, code, "cli")
	require.NoError(t, err)
	require.True(t, mfaSession.User().MFAEnabled)

	_, err = s.client.CompleteMFA(ctx, challenge, code, "cli")
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, securitysdk.ErrorCodeInvalidToken, apiErr.Code, "ticket is single use")

	codes, err := mfaSession.RegenerateBackupCodes(ctx, code)
	require.NoError(t, err)
	require.Len(t, codes.Codes, 10)

	require.NoError(t, mfaSession.DisableMFA(ctx, codes.Codes[0]))

	_, err = s.client.Login(ctx, securitysdk.LoginRequest{Identifier: "dave", Password: testPassword})
	require.NoError(t, err)
}

func TestDLPEndpoints(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestServer(t, allEnabled, 1000)
	session := s.login(t, "erin")

	scan, err := session.Scan(ctx, "card 4111-1111-1111-1111 for alice@example.com")
	require.NoError(t, err)
	require.True(t, scan.HasSensitiveData)
	require.NotContains(t, scan.RedactedContent, "4111-1111-1111-1111")
	require.Positive(t, scan.RiskScore)
	for _, f := range scan.Findings {
		require.NotEmpty(t, f.RedactedValue)
	}

	c, err := session.Classify(ctx, "the weather is nice")
	require.NoError(t, err)
	require.Equal(t, "PUBLIC", c.Level)
	require.Empty(t, c.DominantCategory)

	_, err = s.client.NewSessionFromToken("garbage").Scan(ctx, "hello")
	var apiErr *securitysdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestDisabledSubsystem(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestServer(t, service.OrchestratorConfig{EnableAuth: true}, 1)
	session := s.login(t, "frank")

	_, err := session.Scan(ctx, "hello")
	var apiErr *securitysdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	require.Equal(t, securitysdk.ErrorCodeSubsystemDisabled, apiErr.Code)

	// With API security off the one-request limit never applies.
	resp := s.raw(t, http.MethodGet, "/v1/auth/session", "192.0.2.5", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, resp.Header.Get("X-RateLimit-Limit"))
}

func TestGuardRateLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, allEnabled, 3)

	for i := range 3 {
		resp := s.raw(t, http.MethodGet, "/v1/auth/session", "198.51.100.1", "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Equal(t, "3", resp.Header.Get("X-RateLimit-Limit"))
		require.Equal(t, []string{"2", "1", "0"}[i], resp.Header.Get("X-RateLimit-Remaining"))
	}

	resp := s.raw(t, http.MethodGet, "/v1/auth/session", "198.51.100.1", "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
	e := decodeError(t, resp)
	require.Equal(t, securitysdk.ErrorCodeRateLimitExceeded, e.Code)
	require.Positive(t, e.RetryAfter)

	resp = s.raw(t, http.MethodGet, "/v1/auth/session", "198.51.100.2", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "limits are per source")

	resp = s.raw(t, http.MethodGet, "/livez", "198.51.100.1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode, "health endpoints are exempt")
}

func TestGuardBlocksAttacks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestServer(t, allEnabled, 1000)
	admin := s.login(t, "root")

	const attacker = "203.0.113.7"
	body := `{"username":"x' OR 1=1 --","email":"<script>alert(1)</script>","password":"../../etc/passwd; cat /etc/shadow"}`
	resp := s.raw(t, http.MethodPost, "/v1/users", attacker, body)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Equal(t, securitysdk.ErrorCodeSuspiciousRequest, decodeError(t, resp).Code)

	resp = s.raw(t, http.MethodGet, "/v1/auth/session", attacker, "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode, "source stays blocked")

	blocks, err := admin.BlockedSources(ctx)
	require.NoError(t, err)
	require.Len(t, blocks.Blocks, 1)
	require.Equal(t, attacker, blocks.Blocks[0].Address)
	require.GreaterOrEqual(t, blocks.Blocks[0].RiskScore, 80)
	require.Nil(t, blocks.Blocks[0].Until)

	audits, err := admin.RecentAudits(ctx, 10)
	require.NoError(t, err)
	var blocked int
	for _, e := range audits.Entries {
		if e.SourceAddr == attacker {
			require.Equal(t, "blocked", e.Status)
			blocked++
		}
	}
	require.Equal(t, 2, blocked)

	removed, err := admin.Unblock(ctx, attacker)
	require.NoError(t, err)
	require.True(t, removed)

	resp = s.raw(t, http.MethodGet, "/v1/auth/session", attacker, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	s.api.Block("192.0.2.99", "manual")
	resp = s.raw(t, http.MethodGet, "/v1/auth/session", "192.0.2.99", "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSuspiciousRequestIsFlaggedNotBlocked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestServer(t, allEnabled, 1000)
	admin := s.login(t, "root")

	resp := s.raw(t, http.MethodGet, "/v1/auth/session?q=1%27%20UNION%20SELECT%20password%20FROM%20users", "192.0.2.20", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	audits, err := admin.RecentAudits(ctx, 5)
	require.NoError(t, err)
	var found bool
	for _, e := range audits.Entries {
		if e.SourceAddr == "192.0.2.20" {
			found = true
			require.Equal(t, "flagged", e.Status)
			require.Contains(t, e.Flags, "endpoint_sql_injection")
		}
	}
	require.True(t, found)
}

func TestSecurityReport(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestServer(t, allEnabled, 1000)
	admin := s.login(t, "root")

	selftest, err := admin.RunSelfTests(ctx)
	require.NoError(t, err)
	require.Zero(t, selftest.Failed)
	require.Equal(t, 1.0, selftest.PassRate)
	require.Len(t, selftest.Results, 3)

	rep, err := admin.Report(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]bool{"auth": true, "api_security": true, "dlp": true}, rep.Enabled)
	require.NotNil(t, rep.Users)
	require.Equal(t, 1, rep.Users.Total)
	require.Equal(t, 1, rep.ActiveSessions)
	require.NotNil(t, rep.Audit)
	require.Positive(t, rep.Audit.Total)
	require.NotEmpty(t, rep.Recommendations)
	require.Equal(t, "high", rep.Recommendations[0].Priority)

	resp := s.raw(t, http.MethodGet, "/v1/security/audit?limit=abc", "192.0.2.30", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "bearer checked before query parsing")
}

func TestSecurityRoutesRequireAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestServer(t, allEnabled, 1000)
	admin := s.login(t, "root")
	mallory := s.login(t, "mallory")

	v, err := admin.Validate(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{service.ScopeSecurityAdmin}, v.Scopes)
	v, err = mallory.Validate(ctx)
	require.NoError(t, err)
	require.Empty(t, v.Scopes)

	s.api.Block("203.0.113.9", "manual")

	requireForbidden := func(t *testing.T, err error) {
		t.Helper()
		var apiErr *securitysdk.APIError
		require.ErrorAs(t, err, &apiErr)
		require.Equal(t, http.StatusForbidden, apiErr.StatusCode)
		require.Equal(t, securitysdk.ErrorCodeInsufficientScope, apiErr.Code)
	}

	_, err = mallory.Unblock(ctx, "203.0.113.9")
	requireForbidden(t, err)
	_, err = mallory.BlockedSources(ctx)
	requireForbidden(t, err)
	_, err = mallory.RecentAudits(ctx, 10)
	requireForbidden(t, err)
	_, err = mallory.Report(ctx)
	requireForbidden(t, err)
	_, err = mallory.RunSelfTests(ctx)
	requireForbidden(t, err)

	require.True(t, s.api.IsBlocked("203.0.113.9"), "a plain user cannot lift a block")

	_, err = mallory.Scan(ctx, "nothing to see here")
	require.NoError(t, err, "dlp routes only need a session")

	removed, err := admin.Unblock(ctx, "203.0.113.9")
	require.NoError(t, err)
	require.True(t, removed)
}

func TestSystemEndpoints(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestServer(t, allEnabled, 1000)

	live, err := s.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := s.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Store)

	resp := s.raw(t, http.MethodGet, "/livez", "192.0.2.40", "")
	require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	s.login(t, "judy")
	resp = s.raw(t, http.MethodGet, "/metrics", "192.0.2.40", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "aegis_auth_attempts_total")
	require.Contains(t, string(raw), "aegis_request_decisions_total")

	resp = s.raw(t, http.MethodGet, "/swagger/doc.json", "192.0.2.40", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(raw), "/v1/auth/login")
}
