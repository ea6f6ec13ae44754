package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/metrics"
	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/pkg/cryptox"
	"github.com/familiarcat/aegis/pkg/idx"
	"github.com/familiarcat/aegis/pkg/jwtx"
	"github.com/familiarcat/aegis/pkg/slogx"
	"github.com/familiarcat/aegis/pkg/syncx"
)

const (
	DefaultMaxFailedAttempts = 5
	DefaultLockoutDuration   = 15 * time.Minute
	DefaultMFATicketTTL      = 5 * time.Minute
)

// Auth attempt outcomes recorded in metrics.
const (
	outcomeSuccess     = "success"
	outcomeMFARequired = "mfa_required"
	outcomeInvalid     = "invalid_credentials"
	outcomeLocked      = "locked"
)

// AuthResult is the outcome of a successful password step. Exactly one of
// Session or Challenge is set.
type AuthResult struct {
	User    domain.User     `json:"user"`
	Session *domain.Session `json:"session,omitempty"`
	Token   string          `json:"token,omitempty"`

	MFARequired bool                 `json:"mfa_required"`
	Challenge   *domain.MFAChallenge `json:"challenge,omitempty"`
	// MFATicket binds the second factor to this password success.
	MFATicket string `json:"mfa_ticket,omitempty"`
}

type AuthService struct {
	Store    store.Store
	Hasher   cryptox.PasswordHasher
	Sessions *SessionService
	MFA      *MFAService
	Signer   *jwtx.HMACSigner
	Metrics  *metrics.Metrics

	MaxFailedAttempts int
	LockoutDuration   time.Duration
	MFATicketTTL      time.Duration

	Now func() time.Time

	dummyOnce sync.Once
	dummyHash string

	ticketsOnce sync.Once
	usedTickets *syncx.ShardedMap[time.Time]
}

func (s *AuthService) maxAttempts() int {
	if s.MaxFailedAttempts <= 0 {
		return DefaultMaxFailedAttempts
	}
	return s.MaxFailedAttempts
}

func (s *AuthService) lockout() time.Duration {
	if s.LockoutDuration <= 0 {
		return DefaultLockoutDuration
	}
	return s.LockoutDuration
}

func (s *AuthService) ticketTTL() time.Duration {
	if s.MFATicketTTL <= 0 {
		return DefaultMFATicketTTL
	}
	return s.MFATicketTTL
}

// Register validates the input, hashes the password and stores a new user.
// Nothing is persisted when a rule is violated.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	if err := ValidateRegistration(username, email, password); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := nowOr(s.Now).UTC()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateIdentity
		}
		return domain.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", u.ID, "username", u.Username)
	return u, nil
}

// VerifyPassword reports whether plaintext matches the user's stored hash.
func (s *AuthService) VerifyPassword(user domain.User, plaintext string) bool {
	return s.Hasher.Verify(plaintext, user.PasswordHash) == nil
}

// Authenticate runs the password step of a login. identifier is matched
// exactly against the username first, then the email.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password, sourceAddr, clientID string) (*AuthResult, error) {
	l := slogx.FromContext(ctx)
	now := nowOr(s.Now)

	user, err := s.lookup(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		// Spend the same hashing time as a real check.
		_ = s.Hasher.Verify(password, s.dummy())
		s.Metrics.IncrementAuthAttempt(outcomeInvalid)
		l.Info("login failed", "reason", "unknown_identifier", "source_addr", sourceAddr)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if user.IsLocked(now) {
		return nil, s.rejectLocked(ctx, user, now)
	}

	if !s.VerifyPassword(user, password) {
		if err := s.recordFailure(ctx, user.ID, now); err != nil {
			return nil, err
		}
		s.Metrics.IncrementAuthAttempt(outcomeInvalid)
		return nil, ErrInvalidCredentials
	}

	// A concurrent failure may have locked the account during the hash check.
	user, err = s.Store.Users().RecordLoginSuccess(ctx, user.ID, now)
	if errors.Is(err, store.ErrLocked) {
		return nil, s.rejectLocked(ctx, user, now)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	if user.MFAEnabled {
		ticket, err := s.Signer.Sign(jwtx.NewMFAClaims(user.ID, s.Signer.Issuer(), now, s.ticketTTL()))
		if err != nil {
			return nil, err
		}
		ch := s.MFA.Challenge(user)
		s.Metrics.IncrementAuthAttempt(outcomeMFARequired)
		l.Info("login pending mfa", "user_id", user.ID)
		return &AuthResult{User: user, MFARequired: true, Challenge: &ch, MFATicket: ticket}, nil
	}

	sess, token, err := s.Sessions.CreateSession(ctx, user, sourceAddr, clientID)
	if err != nil {
		return nil, err
	}
	s.Metrics.IncrementAuthAttempt(outcomeSuccess)
	l.Info("login succeeded", "user_id", user.ID, "session_id", sess.ID)
	return &AuthResult{User: user, Session: &sess, Token: token}, nil
}

// VerifyMFA checks a second-factor code for userID. An invalid code counts
// towards the lockout the same way a wrong password does.
func (s *AuthService) VerifyMFA(ctx context.Context, userID, code string) error {
	now := nowOr(s.Now)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !user.MFAEnabled {
		return ErrMFANotEnabled
	}
	if user.IsLocked(now) {
		return s.rejectLocked(ctx, user, now)
	}

	if _, err := s.MFA.VerifyUserCode(ctx, user, code); err != nil {
		if errors.Is(err, ErrInvalidMFACode) {
			if ferr := s.recordFailure(ctx, user.ID, now); ferr != nil {
				return ferr
			}
		}
		return err
	}

	if current, err := s.Store.Users().RecordLoginSuccess(ctx, user.ID, now); errors.Is(err, store.ErrLocked) {
		return s.rejectLocked(ctx, current, now)
	} else if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// CompleteMFA finishes an MFA login: it verifies the ticket issued by
// Authenticate, checks the code and creates the session. A ticket is spent
// once a code has been accepted for it.
func (s *AuthService) CompleteMFA(ctx context.Context, ticket, code, sourceAddr, clientID string) (*AuthResult, error) {
	now := nowOr(s.Now)

	claims, err := s.Signer.Verify(ticket, jwtx.PurposeMFA, now)
	if err != nil {
		slogx.FromContext(ctx).Debug("mfa ticket rejected", "reason", err.Error())
		return nil, ErrTokenInvalid
	}

	if !s.claimTicket(claims.ID, claims.ExpiresAt.Time) {
		return nil, ErrTokenInvalid
	}

	if err := s.VerifyMFA(ctx, claims.Subject, code); err != nil {
		s.releaseTicket(claims.ID)
		return nil, err
	}

	user, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	sess, token, err := s.Sessions.CreateSession(ctx, user, sourceAddr, clientID)
	if err != nil {
		return nil, err
	}
	s.Metrics.IncrementAuthAttempt(outcomeSuccess)
	slogx.FromContext(ctx).Info("mfa login succeeded", "user_id", user.ID, "session_id", sess.ID)
	return &AuthResult{User: user, Session: &sess, Token: token}, nil
}

// Logout removes the session. It reports false when the session was already gone.
func (s *AuthService) Logout(ctx context.Context, sessionID string) (bool, error) {
	removed, err := s.Sessions.DeleteSession(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to delete session: %w", err)
	}
	if removed {
		slogx.FromContext(ctx).Info("session logged out", "session_id", sessionID)
	}
	return removed, nil
}

// SweepTickets forgets spent MFA tickets that have expired anyway.
func (s *AuthService) SweepTickets(now time.Time) int {
	return s.tickets().DeleteFunc(func(_ string, exp time.Time) bool {
		return !now.Before(exp)
	})
}

func (s *AuthService) lookup(ctx context.Context, identifier string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByUsername(ctx, identifier)
	if errors.Is(err, store.ErrNotFound) {
		return s.Store.Users().GetUserByEmail(ctx, identifier)
	}
	return u, err
}

// recordFailure counts a failed attempt. It returns an *AccountLockedError
// when the account was already locked by the time the failure was stored.
func (s *AuthService) recordFailure(ctx context.Context, userID string, now time.Time) error {
	updated, err := s.Store.Users().RecordLoginFailure(ctx, userID, s.maxAttempts(), s.lockout(), now)
	if errors.Is(err, store.ErrLocked) {
		return s.rejectLocked(ctx, updated, now)
	}
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}

	l := slogx.FromContext(ctx)
	// Failures are refused while locked, so a lock here was set by this one.
	if updated.IsLocked(now) {
		s.Metrics.IncrementLockouts()
		l.Warn("account locked", "user_id", userID, "failed_attempts", updated.FailedAttempts, "until", *updated.LockedUntil)
		return nil
	}
	l.Info("login failed", "user_id", userID, "failed_attempts", updated.FailedAttempts)
	return nil
}

func (s *AuthService) rejectLocked(ctx context.Context, user domain.User, now time.Time) error {
	until := now
	if user.LockedUntil != nil {
		until = *user.LockedUntil
	}
	s.Metrics.IncrementAuthAttempt(outcomeLocked)
	slogx.FromContext(ctx).Warn("login rejected: account locked", "user_id", user.ID, "until", until)
	return &AccountLockedError{Until: until}
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.Hasher.Hash("dummy-password-for-timing")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

func (s *AuthService) tickets() *syncx.ShardedMap[time.Time] {
	s.ticketsOnce.Do(func() {
		s.usedTickets = syncx.NewShardedMap[time.Time]()
	})
	return s.usedTickets
}

var errTicketUsed = errors.New("ticket_used")

func (s *AuthService) claimTicket(jti string, exp time.Time) bool {
	_, err := s.tickets().Update(jti, func(cur time.Time, ok bool) (time.Time, error) {
		if ok {
			return cur, errTicketUsed
		}
		return exp, nil
	})
	return err == nil
}

func (s *AuthService) releaseTicket(jti string) {
	s.tickets().Delete(jti)
}
