package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/metrics"
	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/pkg/cryptox"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/jwtx"
	"github.com/familiarcat/aegis/pkg/slogx"
	"github.com/google/uuid"
)

const DefaultSessionTimeout = time.Hour

// ScopeSecurityAdmin grants the operational security routes: reports, self
// tests, the audit trail and the block list.
const ScopeSecurityAdmin = "security:admin"

// TokenValidation is the outcome of ValidateToken. User and Session are set
// only when Valid is true.
type TokenValidation struct {
	Valid   bool            `json:"valid"`
	User    *domain.User    `json:"user,omitempty"`
	Session *domain.Session `json:"session,omitempty"`
	Scopes  []string        `json:"scopes,omitempty"`
}

type SessionService struct {
	Store   store.Store
	Signer  *jwtx.HMACSigner
	Timeout time.Duration
	Metrics *metrics.Metrics
	Now     func() time.Time

	// AdminUsers are the usernames granted ScopeSecurityAdmin. Scopes are
	// resolved on every validation, so edits apply to live sessions.
	AdminUsers []string
}

func (s *SessionService) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultSessionTimeout
	}
	return s.Timeout
}

// CreateSession persists a new session for user and returns it with the
// signed bearer token. The returned session carries the opaque token; the
// store keeps only its fingerprint.
func (s *SessionService) CreateSession(ctx context.Context, user domain.User, sourceAddr, clientID string) (domain.Session, string, error) {
	now := nowOr(s.Now)

	opaque, err := cryptox.GenerateHexToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Session{}, "", err
	}

	sess := domain.Session{
		ID:           uuid.NewString(),
		UserID:       user.ID,
		Token:        opaque,
		TokenHash:    cryptox.FingerprintToken(opaque),
		SourceAddr:   sourceAddr,
		ClientID:     clientID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.timeout()),
		LastActivity: now,
	}

	if err := s.Store.Sessions().CreateSession(ctx, sess); err != nil {
		return domain.Session{}, "", fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.Signer.Sign(jwtx.NewSessionClaims(user.ID, sess.ID, sess.TokenHash, s.Signer.Issuer(), now, sess.ExpiresAt))
	if err != nil {
		_, _ = s.Store.Sessions().DeleteSession(ctx, sess.ID)
		return domain.Session{}, "", err
	}

	s.Metrics.IncrementSessionsCreated()
	slogx.FromContext(ctx).Info("session created", "user_id", user.ID, "session_id", sess.ID, "source_addr", sourceAddr)
	return sess, token, nil
}

// ValidateToken verifies token and its backing session. Every failure,
// whatever the cause, yields Valid=false. A successful validation stamps
// LastActivity but never extends ExpiresAt.
func (s *SessionService) ValidateToken(ctx context.Context, token string) TokenValidation {
	sess, user, err := s.validate(ctx, token)
	if err != nil {
		slogx.FromContext(ctx).Debug("token rejected", "reason", err.Error())
		return TokenValidation{}
	}
	return TokenValidation{Valid: true, User: &user, Session: &sess, Scopes: s.scopesFor(user)}
}

// ValidateBearer adapts ValidateToken for the authentication middleware.
func (s *SessionService) ValidateBearer(ctx context.Context, token string) (httpx.Principal, bool) {
	v := s.ValidateToken(ctx, token)
	if !v.Valid {
		return httpx.Principal{}, false
	}
	return httpx.Principal{UserID: v.User.ID, SessionID: v.Session.ID, Scopes: v.Scopes}, true
}

func (s *SessionService) scopesFor(user domain.User) []string {
	if slices.Contains(s.AdminUsers, user.Username) {
		return []string{ScopeSecurityAdmin}
	}
	return nil
}

func (s *SessionService) validate(ctx context.Context, token string) (domain.Session, domain.User, error) {
	now := nowOr(s.Now)

	claims, err := s.Signer.Verify(token, jwtx.PurposeSession, now)
	if err != nil {
		return domain.Session{}, domain.User{}, err
	}

	sess, err := s.Store.Sessions().GetSession(ctx, claims.SID)
	if err != nil {
		return domain.Session{}, domain.User{}, err
	}
	if sess.UserID != claims.Subject {
		return domain.Session{}, domain.User{}, errors.New("subject mismatch")
	}
	if subtle.ConstantTimeCompare([]byte(sess.TokenHash), []byte(claims.ID)) != 1 {
		return domain.Session{}, domain.User{}, errors.New("token fingerprint mismatch")
	}
	if !sess.IsValid(now) {
		return domain.Session{}, domain.User{}, errors.New("session expired")
	}

	user, err := s.Store.Users().GetUserByID(ctx, sess.UserID)
	if err != nil {
		return domain.Session{}, domain.User{}, err
	}

	if err := s.Store.Sessions().TouchSession(ctx, sess.ID, now); err != nil {
		return domain.Session{}, domain.User{}, err
	}
	sess.LastActivity = now

	return sess, user, nil
}

// DeleteSession reports whether a session was removed.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	return s.Store.Sessions().DeleteSession(ctx, sessionID)
}

func (s *SessionService) RevokeUserSessions(ctx context.Context, userID string) (int, error) {
	return s.Store.Sessions().DeleteUserSessions(ctx, userID)
}

// CleanupExpiredSessions removes every session whose expiry has passed.
func (s *SessionService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	n, err := s.Store.Sessions().DeleteExpiredSessions(ctx, nowOr(s.Now))
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	s.Metrics.AddExpiredSessions(n)
	return n, nil
}

func (s *SessionService) CountActiveSessions(ctx context.Context) (int, error) {
	return s.Store.Sessions().CountActiveSessions(ctx, nowOr(s.Now))
}
