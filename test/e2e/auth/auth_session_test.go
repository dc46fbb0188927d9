//go:build e2e

package auth_test

import (
	"testing"

	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestPasswordLoginLifecycle walks register, login, me, logout and checks
// the token dies with its session.
func TestPasswordLoginLifecycle(t *testing.T) {
	client := setupAuthContainer(t)
	ctx := t.Context()

	session := registerAndLogin(t, client, "lifecycle@example.com")

	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "lifecycle@example.com", me.Email)
	require.True(t, me.SecurityNotificationsEnabled)

	token := session.AccessToken()
	require.NoError(t, session.Logout(ctx))

	_, err = client.NewSession(token).Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrSessionRevoked)
}

func TestDuplicateRegistration(t *testing.T) {
	client := setupAuthContainer(t)
	registerAndLogin(t, client, "dup@example.com")

	_, err := client.Register(t.Context(), authsdk.RegisterRequest{Email: "dup@example.com", Password: testPassword})
	require.ErrorIs(t, err, authsdk.ErrEmailTaken)
}

func TestSessionManagement(t *testing.T) {
	client := setupAuthContainer(t)
	ctx := t.Context()

	first := registerAndLogin(t, client, "sessions@example.com")
	second, err := client.AuthenticateWithPassword(ctx, "sessions@example.com", testPassword)
	require.NoError(t, err)
	third, err := client.AuthenticateWithPassword(ctx, "sessions@example.com", testPassword)
	require.NoError(t, err)

	sessions, err := first.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	var secondID string
	theirs, err := second.ListSessions(ctx)
	require.NoError(t, err)
	for _, s := range theirs {
		if s.IsCurrent {
			secondID = s.ID
		}
	}
	require.NotEmpty(t, secondID)

	require.NoError(t, first.RevokeSession(ctx, secondID))
	_, err = second.Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrSessionRevoked)

	n, err := first.RevokeOtherSessions(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = third.Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrSessionRevoked)

	events, err := first.ListEvents(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "other_sessions_revoked", events[0].Type)
	require.Equal(t, "1", events[0].Metadata["count"])
}
