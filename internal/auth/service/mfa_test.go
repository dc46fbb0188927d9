package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/guard"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestMFAEnrolment(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.register(t, "cook@example.com", "pw-123456")

	setup, err := e.mfa.BeginSetup(ctx, u.ID)
	require.NoError(t, err)
	require.NotEmpty(t, setup.Secret)
	require.True(t, strings.HasPrefix(setup.OTPAuthURL, "otpauth://totp/ChefStream:"))
	require.True(t, strings.HasPrefix(setup.QRCodePNG, "data:image/png;base64,"))

	t.Run("nothing stored before confirm", func(t *testing.T) {
		got, err := e.store.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.MFAEnabled)
		require.Empty(t, got.TOTPSecret)
	})

	t.Run("wrong code changes nothing", func(t *testing.T) {
		_, err := e.mfa.ConfirmSetup(ctx, u.ID, setup.Secret, "000000")
		if err == nil {
			t.Skip("000000 happened to be the current code")
		}
		require.ErrorIs(t, err, ErrInvalidCode)
		got, err := e.store.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.MFAEnabled)
	})

	codes, err := e.mfa.ConfirmSetup(ctx, u.ID, setup.Secret, currentCode(t, setup.Secret))
	require.NoError(t, err)
	require.Len(t, codes, backupCodeCount)
	for _, c := range codes {
		require.Regexp(t, `^[0-9A-F]{5}-[0-9A-F]{5}$`, c)
	}

	got, err := e.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, got.MFAEnabled)
	require.Equal(t, setup.Secret, got.TOTPSecret)
	require.Contains(t, eventTypes(t, e.store, u.ID), domain.EventMFAEnabled)
	require.Contains(t, e.mailer.kinds(), NotifyMFAEnabled)

	t.Run("already enabled", func(t *testing.T) {
		_, err := e.mfa.BeginSetup(ctx, u.ID)
		require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
		_, err = e.mfa.ConfirmSetup(ctx, u.ID, setup.Secret, currentCode(t, setup.Secret))
		require.ErrorIs(t, err, ErrMFAAlreadyEnabled)
	})

	t.Run("regenerate needs totp", func(t *testing.T) {
		_, err := e.mfa.RegenerateBackupCodes(ctx, u.ID, codes[0])
		require.ErrorIs(t, err, ErrInvalidCode)

		fresh, err := e.mfa.RegenerateBackupCodes(ctx, u.ID, currentCode(t, setup.Secret))
		require.NoError(t, err)
		require.Len(t, fresh, backupCodeCount)
		require.NotEqual(t, codes, fresh)

		n, err := e.store.BackupCodes().CountBackupCodes(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, backupCodeCount, n)
	})

	t.Run("disable", func(t *testing.T) {
		require.NoError(t, e.mfa.Disable(ctx, u.ID))
		require.ErrorIs(t, e.mfa.Disable(ctx, u.ID), ErrMFANotEnabled)

		got, err := e.store.Users().GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		require.False(t, got.MFAEnabled)
		require.Empty(t, got.TOTPSecret)

		n, err := e.store.BackupCodes().CountBackupCodes(ctx, u.ID)
		require.NoError(t, err)
		require.Zero(t, n)
		require.Contains(t, e.mailer.kinds(), NotifyMFADisabled)

		_, err = e.mfa.RegenerateBackupCodes(ctx, u.ID, "123456")
		require.ErrorIs(t, err, ErrMFANotEnabled)
	})
}

func TestVerifyChallenge(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	u := e.register(t, "cook@example.com", "pw-123456")
	secret, codes := e.enableMFA(t, u.ID)

	challenge, err := e.tokens.IssueChallengeToken(u.ID)
	require.NoError(t, err)

	t.Run("totp", func(t *testing.T) {
		got, err := e.mfa.VerifyChallenge(ctx, challenge, currentCode(t, secret))
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
	})

	t.Run("backup code is single use", func(t *testing.T) {
		lower := strings.ToLower(strings.ReplaceAll(codes[0], "-", ""))
		_, err := e.mfa.VerifyChallenge(ctx, challenge, lower)
		require.NoError(t, err)

		_, err = e.mfa.VerifyChallenge(ctx, challenge, codes[0])
		require.ErrorIs(t, err, ErrInvalidCode)
		require.Contains(t, eventTypes(t, e.store, u.ID), domain.EventBackupCodeUsed)
	})

	t.Run("wrong code", func(t *testing.T) {
		_, err := e.mfa.VerifyChallenge(ctx, challenge, "ZZZZZ-ZZZZZ")
		require.ErrorIs(t, err, ErrInvalidCode)
		_, err = e.mfa.VerifyChallenge(ctx, challenge, "")
		require.ErrorIs(t, err, ErrInvalidCode)
	})

	t.Run("access token is not a challenge", func(t *testing.T) {
		access, _, err := e.tokens.IssueAccessToken(u.ID)
		require.NoError(t, err)
		_, err = e.mfa.VerifyChallenge(ctx, access, currentCode(t, secret))
		require.ErrorIs(t, err, ErrInvalidChallenge)
	})

	t.Run("garbage and unknown subject", func(t *testing.T) {
		_, err := e.mfa.VerifyChallenge(ctx, "garbage", "123456")
		require.ErrorIs(t, err, ErrInvalidChallenge)

		ghost, err := e.tokens.IssueChallengeToken(424242)
		require.NoError(t, err)
		_, err = e.mfa.VerifyChallenge(ctx, ghost, "123456")
		require.ErrorIs(t, err, ErrInvalidChallenge)
	})

	t.Run("mfa off", func(t *testing.T) {
		plain := e.register(t, "plain@example.com", "pw-123456")
		tok, err := e.tokens.IssueChallengeToken(plain.ID)
		require.NoError(t, err)
		_, err = e.mfa.VerifyChallenge(ctx, tok, "123456")
		require.ErrorIs(t, err, ErrInvalidChallenge)
	})
}

func TestVerifyChallengeWithGuard(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	e.mfa.Guard = guard.New(client, true)

	// each case gets its own account so attempt counters do not leak
	enrolled := func(t *testing.T, email string) (domain.User, string, []string) {
		u := e.register(t, email, "pw-123456")
		secret, codes := e.enableMFA(t, u.ID)
		return u, secret, codes
	}

	t.Run("replay rejected", func(t *testing.T) {
		u, secret, _ := enrolled(t, "replay@example.com")
		challenge := e.challenge(t, u.ID)

		_, err := e.mfa.VerifyChallenge(ctx, challenge, currentCode(t, secret))
		require.NoError(t, err)
		_, err = e.mfa.VerifyChallenge(ctx, challenge, currentCode(t, secret))
		require.ErrorIs(t, err, ErrInvalidChallenge)
	})

	t.Run("replay keeps backup codes", func(t *testing.T) {
		u, secret, codes := enrolled(t, "backup@example.com")
		challenge := e.challenge(t, u.ID)

		_, err := e.mfa.VerifyChallenge(ctx, challenge, currentCode(t, secret))
		require.NoError(t, err)

		_, err = e.mfa.VerifyChallenge(ctx, challenge, codes[0])
		require.ErrorIs(t, err, ErrInvalidChallenge)

		left, err := e.store.BackupCodes().CountBackupCodes(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, len(codes), left)

		// the code is still good on a fresh challenge
		_, err = e.mfa.VerifyChallenge(ctx, e.challenge(t, u.ID), codes[0])
		require.NoError(t, err)
	})

	t.Run("wrong backup code leaves challenge usable", func(t *testing.T) {
		u, secret, _ := enrolled(t, "typo@example.com")
		challenge := e.challenge(t, u.ID)

		_, err := e.mfa.VerifyChallenge(ctx, challenge, "00000-00000")
		require.ErrorIs(t, err, ErrInvalidCode)
		_, err = e.mfa.VerifyChallenge(ctx, challenge, currentCode(t, secret))
		require.NoError(t, err)
	})

	t.Run("success resets the counter", func(t *testing.T) {
		u, secret, _ := enrolled(t, "reset@example.com")
		for i := 0; i < guard.DefaultMaxAttempts-1; i++ {
			_, err := e.mfa.VerifyChallenge(ctx, e.challenge(t, u.ID), "ZZZZZ-ZZZZZ")
			require.ErrorIs(t, err, ErrInvalidCode)
		}
		_, err := e.mfa.VerifyChallenge(ctx, e.challenge(t, u.ID), currentCode(t, secret))
		require.NoError(t, err)
		require.False(t, mr.Exists("att:"+strconv.FormatInt(u.ID, 10)))
	})

	t.Run("too many attempts", func(t *testing.T) {
		u, secret, _ := enrolled(t, "brute@example.com")
		challenge := e.challenge(t, u.ID)
		for i := 0; i < guard.DefaultMaxAttempts; i++ {
			_, err := e.mfa.VerifyChallenge(ctx, challenge, "ZZZZZ-ZZZZZ")
			require.ErrorIs(t, err, ErrInvalidCode)
		}
		_, err := e.mfa.VerifyChallenge(ctx, challenge, currentCode(t, secret))
		require.ErrorIs(t, err, ErrTooManyAttempts)
	})

	t.Run("concurrent wrong codes stay within the limit", func(t *testing.T) {
		u, _, _ := enrolled(t, "parallel@example.com")
		challenge := e.challenge(t, u.ID)

		var (
			wg        sync.WaitGroup
			evaluated atomic.Int64
			throttled atomic.Int64
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := e.mfa.VerifyChallenge(ctx, challenge, "ZZZZZ-ZZZZZ")
				switch {
				case errors.Is(err, ErrInvalidCode):
					evaluated.Add(1)
				case errors.Is(err, ErrTooManyAttempts):
					throttled.Add(1)
				}
			}()
		}
		wg.Wait()

		require.EqualValues(t, guard.DefaultMaxAttempts, evaluated.Load())
		require.EqualValues(t, 50-guard.DefaultMaxAttempts, throttled.Load())
	})
}
