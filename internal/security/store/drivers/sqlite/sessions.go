package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/store"
)

type sessionsRepo struct {
	db *sql.DB
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, source_addr, client_id, created_at, expires_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.UserID, s.TokenHash, s.SourceAddr, s.ClientID,
		toMillis(s.CreatedAt), toMillis(s.ExpiresAt), toMillis(s.LastActivity),
	)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSession(ctx context.Context, id string) (domain.Session, error) {
	var (
		s                                  domain.Session
		createdAt, expiresAt, lastActivity int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, token_hash, source_addr, client_id, created_at, expires_at, last_activity
		FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.TokenHash, &s.SourceAddr, &s.ClientID, &createdAt, &expiresAt, &lastActivity)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	s.CreatedAt = fromMillis(createdAt)
	s.ExpiresAt = fromMillis(expiresAt)
	s.LastActivity = fromMillis(lastActivity)
	return s, nil
}

func (r *sessionsRepo) TouchSession(ctx context.Context, id string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET last_activity = ? WHERE id = ?`, toMillis(now), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) DeleteSession(ctx context.Context, id string) (bool, error) {
	n, err := execCount(ctx, r.db, `DELETE FROM sessions WHERE id = ?`, id)
	return n > 0, err
}

func (r *sessionsRepo) DeleteUserSessions(ctx context.Context, userID string) (int, error) {
	return execCount(ctx, r.db, `DELETE FROM sessions WHERE user_id = ?`, userID)
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	return execCount(ctx, r.db, `DELETE FROM sessions WHERE expires_at <= ?`, toMillis(now))
}

func (r *sessionsRepo) CountActiveSessions(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions WHERE expires_at > ?`, toMillis(now)).Scan(&n)
	return n, err
}

func execCount(ctx context.Context, db *sql.DB, query string, args ...any) (int, error) {
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
