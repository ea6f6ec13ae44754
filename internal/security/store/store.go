package store

import (
	"context"
	"errors"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrLocked        = errors.New("store: locked")
)

// Store is the root data access interface implemented by the memory and
// sqlite drivers. Every mutating method is atomic for the key it touches;
// there are no cross-key transactions.
type Store interface {
	Users() Users
	Sessions() Sessions
	BackupCodes() BackupCodes

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error
}

type Users interface {
	// CreateUser inserts u. Returns ErrAlreadyExists when the username or
	// email is already taken.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// RecordLoginFailure increments the failed-attempt counter and, once it
	// reaches maxAttempts, sets LockedUntil to now+lockout. Returns the
	// updated user. While the user is locked at now nothing changes and the
	// current user is returned with ErrLocked.
	RecordLoginFailure(ctx context.Context, id string, maxAttempts int, lockout time.Duration, now time.Time) (domain.User, error)

	// RecordLoginSuccess resets the counter, clears an expired lock and
	// stamps LastLogin. Returns the updated user, or the current user with
	// ErrLocked when a lock is still in force at now.
	RecordLoginSuccess(ctx context.Context, id string, now time.Time) (domain.User, error)

	// EnableMFA stores secret and marks MFA enabled. Returns ErrAlreadyExists
	// when MFA is already enabled.
	EnableMFA(ctx context.Context, id, secret string, now time.Time) error
	DisableMFA(ctx context.Context, id string, now time.Time) error

	Stats(ctx context.Context, now time.Time) (domain.UserStats, error)
}

type Sessions interface {
	CreateSession(ctx context.Context, s domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)

	// TouchSession updates LastActivity. It never extends ExpiresAt.
	TouchSession(ctx context.Context, id string, now time.Time) error

	// DeleteSession reports whether a session was removed.
	DeleteSession(ctx context.Context, id string) (bool, error)
	DeleteUserSessions(ctx context.Context, userID string) (int, error)
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
	CountActiveSessions(ctx context.Context, now time.Time) (int, error)
}

// BackupCodes stores fingerprints of single-use MFA recovery codes.
type BackupCodes interface {
	// ReplaceBackupCodes discards existing codes for userID and stores hashes.
	ReplaceBackupCodes(ctx context.Context, userID string, hashes []string) error

	// ConsumeBackupCode deletes the matching code and reports whether one existed.
	ConsumeBackupCode(ctx context.Context, userID, hash string) (bool, error)

	CountBackupCodes(ctx context.Context, userID string) (int, error)
	DeleteAllBackupCodes(ctx context.Context, userID string) error
}
