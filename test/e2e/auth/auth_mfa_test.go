//go:build e2e

package auth_test

import (
	"errors"
	"testing"

	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestTwoFactorLogin(t *testing.T) {
	client := setupAuthContainer(t)
	ctx := t.Context()

	session := registerAndLogin(t, client, "mfa@example.com")
	secret, backupCodes := enableTwoFactor(t, session)

	_, err := client.AuthenticateWithPassword(ctx, "mfa@example.com", testPassword)
	var challenge *authsdk.TwoFactorRequiredError
	require.True(t, errors.As(err, &challenge), "password alone should need a second factor")

	// the challenge cannot be used as an access token
	_, err = client.NewSession(challenge.ChallengeToken).Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrInvalidToken)

	viaTOTP, err := client.CompleteTwoFactor(ctx, challenge, totpCode(t, secret))
	require.NoError(t, err)
	_, err = viaTOTP.Me(ctx)
	require.NoError(t, err)

	_, err = client.AuthenticateWithPassword(ctx, "mfa@example.com", testPassword)
	require.True(t, errors.As(err, &challenge))

	viaBackup, err := client.CompleteTwoFactor(ctx, challenge, backupCodes[0])
	require.NoError(t, err)
	_, err = viaBackup.Me(ctx)
	require.NoError(t, err)

	_, err = client.CompleteTwoFactor(ctx, challenge, backupCodes[0])
	require.ErrorIs(t, err, authsdk.ErrInvalidCode, "backup codes are single use")
}

func TestTwoFactorDisable(t *testing.T) {
	client := setupAuthContainer(t)
	ctx := t.Context()

	session := registerAndLogin(t, client, "disable@example.com")
	enableTwoFactor(t, session)

	require.NoError(t, session.DisableTwoFactor(ctx))

	again, err := client.AuthenticateWithPassword(ctx, "disable@example.com", testPassword)
	require.NoError(t, err, "login needs no second factor once disabled")

	me, err := again.Me(ctx)
	require.NoError(t, err)
	require.False(t, me.Is2FAEnabled)
}
