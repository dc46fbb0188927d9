package sqldb

import (
	"context"

	"github.com/chefstream/auth/internal/auth/store/gen"
)

type backupCodesRepo struct {
	q *gen.Queries
	d Dialect
}

func (r *backupCodesRepo) CreateBackupCode(ctx context.Context, userID int64, codeHash string) error {
	return r.d.mapWriteErr(r.q.CreateBackupCode(ctx, userID, codeHash))
}

// ConsumeBackupCode deletes in one statement so two concurrent uses of the
// same code can't both succeed.
func (r *backupCodesRepo) ConsumeBackupCode(ctx context.Context, userID int64, codeHash string) (bool, error) {
	n, err := r.q.DeleteBackupCode(ctx, userID, codeHash)
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *backupCodesRepo) DeleteAllBackupCodes(ctx context.Context, userID int64) error {
	return r.q.DeleteAllBackupCodes(ctx, userID)
}

func (r *backupCodesRepo) CountBackupCodes(ctx context.Context, userID int64) (int, error) {
	n, err := r.q.CountBackupCodes(ctx, userID)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
