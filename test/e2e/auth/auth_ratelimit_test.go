//go:build e2e

package auth_test

import (
	"testing"

	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitTokenEndpoint runs with production limits: the strict
// profile allows five login attempts a minute per address and email.
func TestRateLimitTokenEndpoint(t *testing.T) {
	client := authsdk.NewSDKClient(startAuth(t, nil))
	ctx := t.Context()

	for i := range 5 {
		_, err := client.Login(ctx, "nobody@example.com", "wrong")
		require.ErrorIs(t, err, authsdk.ErrInvalidCredentials, "request %d should not be rate limited", i+1)
	}

	_, err := client.Login(ctx, "nobody@example.com", "wrong")
	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 429, apiErr.StatusCode)
}
