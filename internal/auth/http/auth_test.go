package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginMeLogout(t *testing.T) {
	srv := newServer(t, nil)
	ctx := context.Background()

	u, err := srv.Client.Register(ctx, authsdk.RegisterRequest{Email: testEmail, Password: testPassword, FullName: "Test Cook"})
	require.NoError(t, err)
	require.Equal(t, testEmail, u.Email)
	require.Equal(t, "email", u.AuthProvider)
	require.False(t, u.Is2FAEnabled)

	_, err = srv.Client.Register(ctx, authsdk.RegisterRequest{Email: testEmail, Password: "another one"})
	require.ErrorIs(t, err, authsdk.ErrEmailTaken)

	tok, err := srv.Client.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.False(t, tok.RequiresTwoFactor)
	require.Equal(t, "bearer", tok.TokenType)
	require.Equal(t, 1800, tok.ExpiresIn)

	sess := srv.Client.NewSession(tok.AccessToken)
	me, err := sess.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, u.ID, me.ID)
	require.NotNil(t, me.LastLoginAt)

	require.NoError(t, sess.Logout(ctx))

	// the old token is dead once its session is revoked
	_, err = srv.Client.NewSession(tok.AccessToken).Me(ctx)
	require.ErrorIs(t, err, authsdk.ErrSessionRevoked)
}

func TestLoginFailures(t *testing.T) {
	srv := newServer(t, nil)
	ctx := context.Background()
	srv.signUp(t)

	_, err := srv.Client.Login(ctx, testEmail, "wrong")
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	_, err = srv.Client.Login(ctx, "nobody@example.com", testPassword)
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)

	var apiErr *authsdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Equal(t, "Incorrect email or password", apiErr.Description)

	_, err = srv.Client.Login(ctx, "", "")
	require.ErrorIs(t, err, authsdk.ErrInvalidRequest)
}

func TestFormLoginSetsCookie(t *testing.T) {
	srv := newServer(t, nil)
	srv.signUp(t)

	form := url.Values{"username": {testEmail}, "password": {testPassword}}
	resp, err := http.PostForm(srv.URL+"/v1/auth/token", form)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)
	require.Equal(t, 1800, cookie.MaxAge)
	require.Equal(t, http.SameSiteLaxMode, cookie.SameSite)

	// the cookie alone authenticates
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/auth/me", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	me, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer me.Body.Close()
	require.Equal(t, http.StatusOK, me.StatusCode)
}

func TestLogoutClearsCookieWithoutToken(t *testing.T) {
	srv := newServer(t, nil)

	resp, err := http.Post(srv.URL+"/v1/auth/logout", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" && c.MaxAge < 0 {
			cleared = true
		}
	}
	require.True(t, cleared)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	srv := newServer(t, nil)

	for _, path := range []string{"/v1/auth/me", "/v1/security/sessions", "/v1/security/events"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		require.True(t, strings.HasPrefix(resp.Header.Get("WWW-Authenticate"), "Bearer"), path)
	}

	_, err := srv.Client.NewSession("not-a-jwt").Me(context.Background())
	require.ErrorIs(t, err, authsdk.ErrInvalidToken)
}
