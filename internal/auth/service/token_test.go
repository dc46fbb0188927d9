package service

import (
	"errors"
	"testing"
	"time"

	"github.com/chefstream/auth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestTokenService(t *testing.T) {
	t.Parallel()

	tokens, err := NewTokenService(testSecret, "chefstream-test", time.Minute, 0)
	require.NoError(t, err)
	require.Equal(t, jwtx.DefaultChallengeTokenTTL, tokens.ChallengeTTL)
	require.EqualValues(t, 60, tokens.ExpiresIn())

	t.Run("access token carries subject and jti", func(t *testing.T) {
		tok, jti, err := tokens.IssueAccessToken(42)
		require.NoError(t, err)
		require.NotEmpty(t, jti)

		claims, err := tokens.Parse(tok)
		require.NoError(t, err)
		require.Equal(t, "42", claims.Subject)
		require.Equal(t, jti, claims.ID)
		require.False(t, claims.IsChallenge())
	})

	t.Run("challenge token has type and no jti", func(t *testing.T) {
		tok, err := tokens.IssueChallengeToken(42)
		require.NoError(t, err)

		claims, err := tokens.Parse(tok)
		require.NoError(t, err)
		require.True(t, claims.IsChallenge())
		require.Empty(t, claims.ID)
		require.WithinDuration(t, time.Now().Add(5*time.Minute), claims.ExpiresAt.Time, 5*time.Second)
	})

	t.Run("every failure is ErrInvalidToken", func(t *testing.T) {
		other, err := NewTokenService([]byte("ffffffffffffffffffffffffffffffff"), "chefstream-test", 0, 0)
		require.NoError(t, err)
		foreign, _, err := other.IssueAccessToken(1)
		require.NoError(t, err)

		expired := *tokens
		expired.Now = func() time.Time { return time.Now().Add(-time.Hour) }
		stale, _, err := expired.IssueAccessToken(1)
		require.NoError(t, err)

		for _, tok := range []string{"", "garbage", foreign, stale} {
			_, err := tokens.Parse(tok)
			require.True(t, errors.Is(err, ErrInvalidToken), "token %q", tok)
		}
	})

	t.Run("short secret refused", func(t *testing.T) {
		_, err := NewTokenService([]byte("short"), "x", 0, 0)
		require.ErrorIs(t, err, jwtx.ErrWeakSecret)
	})
}
