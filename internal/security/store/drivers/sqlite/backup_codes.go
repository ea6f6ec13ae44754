package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type backupCodesRepo struct {
	db *sql.DB
}

func (r *backupCodesRepo) ReplaceBackupCodes(ctx context.Context, userID string, hashes []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM backup_codes WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete backup codes: %w", err)
	}

	now := toMillis(time.Now())
	for _, h := range hashes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO backup_codes (user_id, code_hash, created_at) VALUES (?, ?, ?)`,
			userID, h, now,
		); err != nil {
			return fmt.Errorf("insert backup code: %w", mapConstraint(err))
		}
	}

	return tx.Commit()
}

func (r *backupCodesRepo) ConsumeBackupCode(ctx context.Context, userID, hash string) (bool, error) {
	n, err := execCount(ctx, r.db, `DELETE FROM backup_codes WHERE user_id = ? AND code_hash = ?`, userID, hash)
	return n == 1, err
}

func (r *backupCodesRepo) CountBackupCodes(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM backup_codes WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

func (r *backupCodesRepo) DeleteAllBackupCodes(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM backup_codes WHERE user_id = ?`, userID)
	return err
}
