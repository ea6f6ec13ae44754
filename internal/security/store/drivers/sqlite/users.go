package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/store"
)

const userColumns = `id, username, email, password_hash, mfa_enabled, mfa_secret,
	failed_attempts, locked_until, last_login, created_at, updated_at`

type usersRepo struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                      domain.User
		mfaSecret              sql.NullString
		lockedUntil, lastLogin sql.NullInt64
		createdAt, updatedAt   int64
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.MFAEnabled, &mfaSecret,
		&u.FailedAttempts, &lockedUntil, &lastLogin, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.MFASecret = mapNullString(mfaSecret)
	u.LockedUntil = fromNullMillis(lockedUntil)
	u.LastLogin = fromNullMillis(lastLogin)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.MFAEnabled, mapStringNull(u.MFASecret),
		u.FailedAttempts, toNullMillis(u.LockedUntil), toNullMillis(u.LastLogin),
		toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) RecordLoginFailure(ctx context.Context, id string, maxAttempts int, lockout time.Duration, now time.Time) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET
			failed_attempts = failed_attempts + 1,
			locked_until = CASE WHEN failed_attempts + 1 >= ? THEN ? ELSE locked_until END,
			updated_at = ?
		WHERE id = ? AND (locked_until IS NULL OR locked_until <= ?)
		RETURNING `+userColumns,
		maxAttempts, toMillis(now.Add(lockout)), toMillis(now), id, toMillis(now),
	))
	return r.lockedOrMissing(ctx, id, u, err)
}

func (r *usersRepo) RecordLoginSuccess(ctx context.Context, id string, now time.Time) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET
			failed_attempts = 0,
			locked_until = NULL,
			last_login = ?,
			updated_at = ?
		WHERE id = ? AND (locked_until IS NULL OR locked_until <= ?)
		RETURNING `+userColumns,
		toMillis(now), toMillis(now), id, toMillis(now),
	))
	return r.lockedOrMissing(ctx, id, u, err)
}

// lockedOrMissing tells a lock-guarded update that matched no row because
// the user is locked apart from one that matched none because it is absent.
func (r *usersRepo) lockedOrMissing(ctx context.Context, id string, u domain.User, err error) (domain.User, error) {
	if !errors.Is(err, store.ErrNotFound) {
		return u, err
	}
	cur, gerr := r.GetUserByID(ctx, id)
	if gerr != nil {
		return domain.User{}, gerr
	}
	return cur, store.ErrLocked
}

func (r *usersRepo) EnableMFA(ctx context.Context, id, secret string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET mfa_enabled = 1, mfa_secret = ?, updated_at = ?
		WHERE id = ? AND mfa_enabled = 0`,
		secret, toMillis(now), id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n == 1 {
		return err
	}
	if _, err := r.GetUserByID(ctx, id); err != nil {
		return err
	}
	return store.ErrAlreadyExists
}

func (r *usersRepo) DisableMFA(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET mfa_enabled = 0, mfa_secret = NULL, updated_at = ?
		WHERE id = ?`,
		toMillis(now), id,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) Stats(ctx context.Context, now time.Time) (domain.UserStats, error) {
	var st domain.UserStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(mfa_enabled), 0),
			COALESCE(SUM(CASE WHEN locked_until > ? THEN 1 ELSE 0 END), 0)
		FROM users`,
		toMillis(now),
	).Scan(&st.Total, &st.MFAEnabled, &st.Locked)
	return st, err
}
