package securitysdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// ErrSessionExpired is returned before any request is sent once the
// session's known expiry has passed. Log in again to continue.
var ErrSessionExpired = errors.New("session expired")

// Session is an authenticated session. Sessions are not refreshed: when
// the server-side session ends, every call fails with invalid_token.
type Session struct {
	client *SDKClient

	mu        sync.RWMutex
	token     string
	sessionID string
	expiresAt time.Time
	user      UserResponse
}

func newSession(client *SDKClient, resp *SessionResponse) *Session {
	return &Session{
		client:    client,
		token:     resp.Token,
		sessionID: resp.SessionID,
		expiresAt: resp.ExpiresAt,
		user:      resp.User,
	}
}

func (s *Session) validToken() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", errors.New("session has no token")
	}
	if !s.expiresAt.IsZero() && !time.Now().Before(s.expiresAt) {
		return "", ErrSessionExpired
	}
	return s.token, nil
}

// Token returns the bearer token.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

func (s *Session) ExpiresAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expiresAt
}

// User returns the account as of login or the last Validate.
func (s *Session) User() UserResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// ============================================================================
// Session lifecycle
// ============================================================================

// Validate asks the server whether the token is still valid and refreshes
// the cached user and expiry on success.
func (s *Session) Validate(ctx context.Context) (*TokenValidationResponse, error) {
	var resp TokenValidationResponse
	if err := s.doAuthJSON(ctx, http.MethodGet, "/v1/auth/session", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}

	if resp.Valid && resp.User != nil && resp.Session != nil {
		s.mu.Lock()
		s.user = *resp.User
		s.sessionID = resp.Session.ID
		s.expiresAt = resp.Session.ExpiresAt
		s.mu.Unlock()
	}
	return &resp, nil
}

// Logout ends the session on the server. The session is unusable afterwards.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.doAuthJSON(ctx, http.MethodPost, "/v1/auth/logout", nil, nil, http.StatusOK); err != nil {
		return err
	}

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	return nil
}

// ============================================================================
// MFA
// ============================================================================

// EnableMFA turns on TOTP for the session's account. The secret and backup
// codes in the response are shown only once.
func (s *Session) EnableMFA(ctx context.Context) (*MFAEnableResponse, error) {
	var resp MFAEnableResponse
	if err := s.doAuthJSON(ctx, http.MethodPost, "/v1/mfa/enable", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DisableMFA turns MFA off. code may be a TOTP or a backup code.
func (s *Session) DisableMFA(ctx context.Context, code string) error {
	return s.doAuthJSON(ctx, http.MethodDelete, "/v1/mfa", MFACodeRequest{Code: code}, nil, http.StatusNoContent)
}

// RegenerateBackupCodes replaces all backup codes. It requires a TOTP code.
func (s *Session) RegenerateBackupCodes(ctx context.Context, totpCode string) (*BackupCodesResponse, error) {
	var resp BackupCodesResponse
	if err := s.doAuthJSON(ctx, http.MethodPost, "/v1/mfa/backup-codes", MFACodeRequest{Code: totpCode}, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ============================================================================
// DLP
// ============================================================================

func (s *Session) Scan(ctx context.Context, content string) (*ScanResponse, error) {
	var resp ScanResponse
	if err := s.doAuthJSON(ctx, http.MethodPost, "/v1/dlp/scan", ContentRequest{Content: content}, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Session) Classify(ctx context.Context, content string) (*ClassifyResponse, error) {
	var resp ClassifyResponse
	if err := s.doAuthJSON(ctx, http.MethodPost, "/v1/dlp/classify", ContentRequest{Content: content}, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ============================================================================
// Security operations
// ============================================================================

func (s *Session) Report(ctx context.Context) (*ReportResponse, error) {
	var resp ReportResponse
	if err := s.doAuthJSON(ctx, http.MethodGet, "/v1/security/report", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Session) RunSelfTests(ctx context.Context) (*SelfTestResponse, error) {
	var resp SelfTestResponse
	if err := s.doAuthJSON(ctx, http.MethodPost, "/v1/security/selftest", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecentAudits returns up to limit audit entries, newest first. A
// non-positive limit uses the server default.
func (s *Session) RecentAudits(ctx context.Context, limit int) (*AuditResponse, error) {
	path := "/v1/security/audit"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var resp AuditResponse
	if err := s.doAuthJSON(ctx, http.MethodGet, path, nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *Session) BlockedSources(ctx context.Context) (*BlocksResponse, error) {
	var resp BlocksResponse
	if err := s.doAuthJSON(ctx, http.MethodGet, "/v1/security/blocks", nil, &resp, http.StatusOK); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Unblock lifts a block on addr. It reports whether addr was blocked.
func (s *Session) Unblock(ctx context.Context, addr string) (bool, error) {
	var resp UnblockResponse
	path := "/v1/security/blocks/" + url.PathEscape(addr)
	if err := s.doAuthJSON(ctx, http.MethodDelete, path, nil, &resp, http.StatusOK); err != nil {
		return false, err
	}
	return resp.Removed, nil
}
