package sqldb

import (
	"context"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/store/gen"
)

type usersRepo struct {
	q *gen.Queries
	d Dialect
}

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	row, err := r.q.GetUserByID(ctx, id)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row, err := r.q.GetUserByEmail(ctx, email)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	created := u.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	provider := u.AuthProvider
	if provider == "" {
		provider = domain.ProviderEmail
	}

	row, err := r.q.CreateUser(ctx, gen.CreateUserParams{
		Email:                        u.Email,
		FullName:                     u.FullName,
		PasswordHash:                 nullString(u.PasswordHash),
		AuthProvider:                 provider,
		ProviderID:                   nullString(u.ProviderID),
		IsActive:                     u.IsActive,
		SecurityNotificationsEnabled: u.SecurityNotificationsEnabled,
		CreatedAt:                    created,
	})
	if err != nil {
		return domain.User{}, r.d.mapWriteErr(err)
	}
	return mapUser(row), nil
}

func (r *usersRepo) UpdateLoginMetadata(ctx context.Context, id int64, ip string, at time.Time) error {
	return requireRow(r.q.UpdateUserLoginMetadata(ctx, id, ip, at))
}

func (r *usersRepo) UpdateNotificationPreference(ctx context.Context, id int64, enabled bool, at time.Time) error {
	return requireRow(r.q.UpdateUserNotificationPreference(ctx, id, enabled, at))
}

func (r *usersRepo) EnableMFA(ctx context.Context, id int64, secret string, at time.Time) error {
	return requireRow(r.q.EnableUserMFA(ctx, id, secret, at))
}

func (r *usersRepo) DisableMFA(ctx context.Context, id int64, at time.Time) error {
	return requireRow(r.q.DisableUserMFA(ctx, id, at))
}

func mapUser(row gen.User) domain.User {
	return domain.User{
		ID:                           row.ID,
		Email:                        row.Email,
		FullName:                     row.FullName,
		PasswordHash:                 row.PasswordHash.String,
		AuthProvider:                 row.AuthProvider,
		ProviderID:                   row.ProviderID.String,
		IsActive:                     row.IsActive,
		MFAEnabled:                   row.MfaEnabled,
		TOTPSecret:                   row.TotpSecret.String,
		SecurityNotificationsEnabled: row.SecurityNotificationsEnabled,
		LastLoginAt:                  timePtr(row.LastLoginAt),
		LastLoginIP:                  row.LastLoginIp.String,
		CreatedAt:                    row.CreatedAt.UTC(),
		UpdatedAt:                    row.UpdatedAt.UTC(),
	}
}
