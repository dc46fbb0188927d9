package service

import (
	"context"
	"testing"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestVerifyPassword(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.register(t, "cook@example.com", "correct horse battery")

	t.Run("match", func(t *testing.T) {
		got, ok, err := e.creds.VerifyPassword(ctx, "cook@example.com", "correct horse battery")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, u.ID, got.ID)
	})

	rejected := []struct {
		name, email, password string
	}{
		{"wrong password", "cook@example.com", "nope"},
		{"unknown email", "ghost@example.com", "correct horse battery"},
		{"email is case sensitive", "Cook@example.com", "correct horse battery"},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := e.creds.VerifyPassword(ctx, tt.email, tt.password)
			require.NoError(t, err)
			require.False(t, ok)
			require.Zero(t, got.ID)
		})
	}

	t.Run("external account has no password", func(t *testing.T) {
		_, err := e.creds.FindOrCreateExternal(ctx, domain.ProviderGoogle, "sub-1", "g@example.com", "G")
		require.NoError(t, err)
		_, ok, err := e.creds.VerifyPassword(ctx, "g@example.com", "")
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("inactive account", func(t *testing.T) {
		_, err := e.store.Users().CreateUser(ctx, domain.User{
			Email:        "off@example.com",
			PasswordHash: u.PasswordHash,
			IsActive:     false,
			CreatedAt:    time.Now().UTC(),
		})
		require.NoError(t, err)
		_, ok, err := e.creds.VerifyPassword(ctx, "off@example.com", "correct horse battery")
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func TestRegisterLocal(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	u, ok, err := e.creds.RegisterLocal(ctx, " chef@example.com ", "pw-123456", "Chef")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "chef@example.com", u.Email)
	require.Equal(t, domain.ProviderEmail, u.AuthProvider)
	require.True(t, u.SecurityNotificationsEnabled)
	require.NotEqual(t, "pw-123456", u.PasswordHash)

	_, ok, err = e.creds.RegisterLocal(ctx, "chef@example.com", "other", "Chef 2")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = e.auth.RegisterLocal(ctx, "chef@example.com", "other", "Chef 2")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestFindOrCreateExternal(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)

	created, err := e.creds.FindOrCreateExternal(ctx, domain.ProviderGoogle, "google-1", "g@example.com", "Gee")
	require.NoError(t, err)
	require.Equal(t, domain.ProviderGoogle, created.AuthProvider)
	require.Equal(t, "google-1", created.ProviderID)
	require.False(t, created.HasPassword())

	again, err := e.creds.FindOrCreateExternal(ctx, domain.ProviderGoogle, "google-1", "g@example.com", "Gee")
	require.NoError(t, err)
	require.Equal(t, created.ID, again.ID)

	// an existing local account is reused, not duplicated
	local := e.register(t, "local@example.com", "pw-123456")
	linked, err := e.creds.FindOrCreateExternal(ctx, domain.ProviderGoogle, "google-2", "local@example.com", "")
	require.NoError(t, err)
	require.Equal(t, local.ID, linked.ID)

	_, err = e.creds.FindOrCreateExternal(ctx, domain.ProviderGoogle, "google-3", "", "")
	require.ErrorIs(t, err, ErrOAuthFailed)
}
