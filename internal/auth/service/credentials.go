package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/pkg/cryptox"
	"github.com/chefstream/auth/pkg/slogx"
)

// CredentialService checks passwords and creates principals.
type CredentialService struct {
	Store store.Store
}

// VerifyPassword returns the user and true only when the account exists, is
// active, has a password and the password matches. Every other outcome is
// false with a nil error, and costs one argon2id derivation either way.
func (s *CredentialService) VerifyPassword(ctx context.Context, email, plaintext string) (domain.User, bool, error) {
	u, err := s.Store.Users().GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.BurnPasswordCheck(plaintext)
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}

	if !u.HasPassword() {
		cryptox.BurnPasswordCheck(plaintext)
		return domain.User{}, false, nil
	}

	if err := cryptox.VerifyPassword(plaintext, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			slogx.FromContext(ctx).Warn("stored password hash unreadable", "user_id", u.ID, slogx.Err(err))
		}
		return domain.User{}, false, nil
	}

	if !u.IsActive {
		return domain.User{}, false, nil
	}
	return u, true, nil
}

// RegisterLocal creates an email/password account. It returns false when the
// email is taken, including when a concurrent registration wins the race.
func (s *CredentialService) RegisterLocal(ctx context.Context, email, plaintext, fullName string) (domain.User, bool, error) {
	email = strings.TrimSpace(email)

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return domain.User{}, false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, false, err
	}

	hash, err := cryptox.HashPassword(plaintext)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u, err := s.Store.Users().CreateUser(ctx, domain.User{
		Email:                        email,
		FullName:                     strings.TrimSpace(fullName),
		PasswordHash:                 hash,
		AuthProvider:                 domain.ProviderEmail,
		IsActive:                     true,
		SecurityNotificationsEnabled: true,
		CreatedAt:                    now,
		UpdatedAt:                    now,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return u, true, nil
}

// FindOrCreateExternal links an external identity to a principal by email,
// creating a password-less account the first time it is seen.
func (s *CredentialService) FindOrCreateExternal(ctx context.Context, provider, subject, email, fullName string) (domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return domain.User{}, fmt.Errorf("%w: provider returned no email", ErrOAuthFailed)
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	u, err = s.Store.Users().CreateUser(ctx, domain.User{
		Email:                        email,
		FullName:                     strings.TrimSpace(fullName),
		AuthProvider:                 provider,
		ProviderID:                   subject,
		IsActive:                     true,
		SecurityNotificationsEnabled: true,
		CreatedAt:                    now,
		UpdatedAt:                    now,
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		// lost a race with another first login
		return s.Store.Users().GetUserByEmail(ctx, email)
	}
	if err != nil {
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("external principal created", "user_id", u.ID, "provider", provider)
	return u, nil
}
