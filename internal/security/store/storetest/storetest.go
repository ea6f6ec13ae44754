// Package storetest holds a behavioural suite every store driver must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, migrated store.
type Factory func(t *testing.T) store.Store

var epoch = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// NewUser builds a user with unique identifiers suitable for insertion.
func NewUser(name string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "$2a$04$placeholder",
		CreatedAt:    epoch,
		UpdatedAt:    epoch,
	}
}

// NewSession builds a session for userID that expires an hour after epoch.
func NewSession(userID string) domain.Session {
	return domain.Session{
		ID:           idx.New().String(),
		UserID:       userID,
		TokenHash:    "hash-" + userID,
		CreatedAt:    epoch,
		ExpiresAt:    epoch.Add(time.Hour),
		LastActivity: epoch,
	}
}

// Run exercises users, sessions and backup codes against the store from newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("lockout", func(t *testing.T) { testLockout(t, newStore(t)) })
	t.Run("mfa", func(t *testing.T) { testMFA(t, newStore(t)) })
	t.Run("sessions", func(t *testing.T) { testSessions(t, newStore(t)) })
	t.Run("backup codes", func(t *testing.T) { testBackupCodes(t, newStore(t)) })
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("alice")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Username, got.Username)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, u.PasswordHash, got.PasswordHash)
	require.True(t, got.CreatedAt.Equal(epoch))
	require.Nil(t, got.LockedUntil)

	got, err = s.Users().GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	got, err = s.Users().GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	dupName := NewUser("alice")
	dupName.Email = "other@example.com"
	require.ErrorIs(t, s.Users().CreateUser(ctx, dupName), store.ErrAlreadyExists)

	dupEmail := NewUser("bob")
	dupEmail.Email = u.Email
	require.ErrorIs(t, s.Users().CreateUser(ctx, dupEmail), store.ErrAlreadyExists)

	_, err = s.Users().GetUserByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Users().GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, store.ErrNotFound)

	st, err := s.Users().Stats(ctx, epoch)
	require.NoError(t, err)
	require.Equal(t, domain.UserStats{Total: 1}, st)
}

func testLockout(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("carol")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	now := epoch.Add(time.Minute)
	for i := 1; i < 5; i++ {
		got, err := s.Users().RecordLoginFailure(ctx, u.ID, 5, 15*time.Minute, now)
		require.NoError(t, err)
		require.Equal(t, i, got.FailedAttempts)
		require.False(t, got.IsLocked(now))
	}

	got, err := s.Users().RecordLoginFailure(ctx, u.ID, 5, 15*time.Minute, now)
	require.NoError(t, err)
	require.Equal(t, 5, got.FailedAttempts)
	require.True(t, got.IsLocked(now))
	require.True(t, got.LockedUntil.Equal(now.Add(15*time.Minute)))
	require.False(t, got.IsLocked(now.Add(15*time.Minute)))

	got, err = s.Users().RecordLoginFailure(ctx, u.ID, 5, 15*time.Minute, now.Add(time.Minute))
	require.ErrorIs(t, err, store.ErrLocked)
	require.Equal(t, 5, got.FailedAttempts, "locked failures do not count")
	require.True(t, got.LockedUntil.Equal(now.Add(15*time.Minute)))

	got, err = s.Users().RecordLoginSuccess(ctx, u.ID, now.Add(time.Minute))
	require.ErrorIs(t, err, store.ErrLocked)
	require.Equal(t, u.ID, got.ID)
	require.True(t, got.IsLocked(now))

	st, err := s.Users().Stats(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, st.Locked)

	later := now.Add(time.Hour)
	got, err = s.Users().RecordLoginSuccess(ctx, u.ID, later)
	require.NoError(t, err)
	require.Zero(t, got.FailedAttempts)
	require.Nil(t, got.LockedUntil)
	require.NotNil(t, got.LastLogin)
	require.True(t, got.LastLogin.Equal(later))

	_, err = s.Users().RecordLoginFailure(ctx, idx.New().String(), 5, time.Minute, now)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Users().RecordLoginSuccess(ctx, idx.New().String(), now)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testMFA(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("dave")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	require.NoError(t, s.Users().EnableMFA(ctx, u.ID, "JBSWY3DPEHPK3PXP", epoch))
	require.ErrorIs(t, s.Users().EnableMFA(ctx, u.ID, "OTHER", epoch), store.ErrAlreadyExists)
	require.ErrorIs(t, s.Users().EnableMFA(ctx, idx.New().String(), "X", epoch), store.ErrNotFound)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.MFAEnabled)
	require.Equal(t, "JBSWY3DPEHPK3PXP", got.MFASecret)

	st, err := s.Users().Stats(ctx, epoch)
	require.NoError(t, err)
	require.Equal(t, 1, st.MFAEnabled)
	require.InDelta(t, 1.0, st.MFAAdoption(), 1e-9)

	require.NoError(t, s.Users().DisableMFA(ctx, u.ID, epoch))
	got, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, got.MFAEnabled)
	require.Empty(t, got.MFASecret)
}

func testSessions(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("erin")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	live := domain.Session{
		ID:           idx.New().String(),
		UserID:       u.ID,
		Token:        "raw-token",
		TokenHash:    "hash-live",
		SourceAddr:   "192.0.2.1",
		ClientID:     "cli",
		CreatedAt:    epoch,
		ExpiresAt:    epoch.Add(time.Hour),
		LastActivity: epoch,
	}
	expired := live
	expired.ID = idx.New().String()
	expired.TokenHash = "hash-expired"
	expired.ExpiresAt = epoch.Add(time.Minute)

	require.NoError(t, s.Sessions().CreateSession(ctx, live))
	require.NoError(t, s.Sessions().CreateSession(ctx, expired))
	require.ErrorIs(t, s.Sessions().CreateSession(ctx, live), store.ErrAlreadyExists)

	got, err := s.Sessions().GetSession(ctx, live.ID)
	require.NoError(t, err)
	require.Empty(t, got.Token)
	require.Equal(t, "hash-live", got.TokenHash)
	require.Equal(t, "192.0.2.1", got.SourceAddr)
	require.True(t, got.ExpiresAt.Equal(live.ExpiresAt))

	touched := epoch.Add(30 * time.Second)
	require.NoError(t, s.Sessions().TouchSession(ctx, live.ID, touched))
	got, err = s.Sessions().GetSession(ctx, live.ID)
	require.NoError(t, err)
	require.True(t, got.LastActivity.Equal(touched))
	require.True(t, got.ExpiresAt.Equal(live.ExpiresAt))
	require.ErrorIs(t, s.Sessions().TouchSession(ctx, "missing", touched), store.ErrNotFound)

	now := epoch.Add(2 * time.Minute)
	n, err := s.Sessions().CountActiveSessions(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	n, err = s.Sessions().DeleteExpiredSessions(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	_, err = s.Sessions().GetSession(ctx, expired.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	ok, err := s.Sessions().DeleteSession(ctx, live.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = s.Sessions().DeleteSession(ctx, live.ID)
	require.NoError(t, err)
	require.False(t, ok)

	for i := 0; i < 3; i++ {
		sess := live
		sess.ID = idx.New().String()
		require.NoError(t, s.Sessions().CreateSession(ctx, sess))
	}
	n, err = s.Sessions().DeleteUserSessions(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func testBackupCodes(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("frank")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	require.NoError(t, s.BackupCodes().ReplaceBackupCodes(ctx, u.ID, []string{"a", "b", "c"}))
	n, err := s.BackupCodes().CountBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	ok, err := s.BackupCodes().ConsumeBackupCode(ctx, u.ID, "b")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.BackupCodes().ConsumeBackupCode(ctx, u.ID, "b")
	require.NoError(t, err)
	require.False(t, ok)

	n, err = s.BackupCodes().CountBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	require.NoError(t, s.BackupCodes().ReplaceBackupCodes(ctx, u.ID, []string{"x"}))
	ok, err = s.BackupCodes().ConsumeBackupCode(ctx, u.ID, "a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.BackupCodes().DeleteAllBackupCodes(ctx, u.ID))
	n, err = s.BackupCodes().CountBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, n)
}
