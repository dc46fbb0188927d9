package idp_test

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/idp"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	issuer   = "https://issuer.test"
	clientID = "chefstream-web"
)

// newGoogle serves a token endpoint that answers with idToken.
func newGoogle(t *testing.T, key *rsa.PrivateKey, idToken func() string) *idp.Google {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "at",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idToken(),
		})
	}))
	t.Cleanup(srv.Close)

	keys := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{&key.PublicKey}}
	return &idp.Google{
		OAuth2: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{AuthURL: issuer + "/auth", TokenURL: srv.URL + "/token"},
			RedirectURL:  "http://localhost/callback",
			Scopes:       []string{oidc.ScopeOpenID, "email"},
		},
		Verifier: oidc.NewVerifier(issuer, keys, &oidc.Config{ClientID: clientID}),
	}
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":            issuer,
		"aud":            clientID,
		"sub":            "google-123",
		"email":          "cook@example.com",
		"email_verified": true,
		"name":           "Cook",
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
	}
}

func TestGoogleExchange(t *testing.T) {
	ctx := context.Background()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	t.Run("verified identity", func(t *testing.T) {
		g := newGoogle(t, key, func() string { return sign(t, key, baseClaims()) })

		require.Contains(t, g.AuthCodeURL("st4te"), "state=st4te")

		ident, err := g.Exchange(ctx, "good-code")
		require.NoError(t, err)
		require.Equal(t, domain.ExternalIdentity{
			Provider: domain.ProviderGoogle,
			Subject:  "google-123",
			Email:    "cook@example.com",
			Name:     "Cook",
		}, ident)
	})

	t.Run("bad code", func(t *testing.T) {
		g := newGoogle(t, key, func() string { return sign(t, key, baseClaims()) })
		_, err := g.Exchange(ctx, "bad-code")
		require.Error(t, err)
	})

	t.Run("wrong audience", func(t *testing.T) {
		g := newGoogle(t, key, func() string {
			c := baseClaims()
			c["aud"] = "someone-else"
			return sign(t, key, c)
		})
		_, err := g.Exchange(ctx, "good-code")
		require.Error(t, err)
	})

	t.Run("foreign key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		g := newGoogle(t, key, func() string { return sign(t, other, baseClaims()) })
		_, err = g.Exchange(ctx, "good-code")
		require.Error(t, err)
	})

	t.Run("unverified email", func(t *testing.T) {
		g := newGoogle(t, key, func() string {
			c := baseClaims()
			c["email_verified"] = false
			return sign(t, key, c)
		})
		_, err := g.Exchange(ctx, "good-code")
		require.ErrorIs(t, err, idp.ErrEmailUnverified)
	})
}
