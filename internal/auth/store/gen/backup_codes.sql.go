package gen

import "context"

const createBackupCode = `INSERT INTO backup_codes (user_id, code_hash) VALUES (?, ?)`

func (q *Queries) CreateBackupCode(ctx context.Context, userID int64, codeHash string) error {
	_, err := q.db.ExecContext(ctx, createBackupCode, userID, codeHash)
	return err
}

const deleteBackupCode = `DELETE FROM backup_codes WHERE user_id = ? AND code_hash = ?`

// DeleteBackupCode returns the number of rows removed, which doubles as the
// existence check when consuming a code.
func (q *Queries) DeleteBackupCode(ctx context.Context, userID int64, codeHash string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteBackupCode, userID, codeHash))
}

const deleteAllBackupCodes = `DELETE FROM backup_codes WHERE user_id = ?`

func (q *Queries) DeleteAllBackupCodes(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, deleteAllBackupCodes, userID)
	return err
}

const countBackupCodes = `SELECT COUNT(*) FROM backup_codes WHERE user_id = ?`

func (q *Queries) CountBackupCodes(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countBackupCodes, userID).Scan(&n)
	return n, err
}
