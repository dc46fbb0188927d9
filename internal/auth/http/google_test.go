package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{}

func (stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (stubProvider) Exchange(_ context.Context, code string) (domain.ExternalIdentity, error) {
	if code != "good" {
		return domain.ExternalIdentity{}, errors.New("bad code")
	}
	return domain.ExternalIdentity{
		Provider: domain.ProviderGoogle,
		Subject:  "google-123",
		Email:    "chef@example.com",
		Name:     "Google Chef",
	}, nil
}

func noRedirects() *http.Client {
	return &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestGoogleLoginRoundTrip(t *testing.T) {
	srv := newServer(t, stubProvider{})
	client := noRedirects()

	resp, err := client.Get(srv.URL + "/v1/auth/google/login")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusTemporaryRedirect, resp.StatusCode)

	state := cookieNamed(resp, "oauth_state")
	require.NotNil(t, state)
	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	require.Equal(t, state.Value, loc.Query().Get("state"))

	callback := func(code, st string, withCookie bool) *http.Response {
		q := url.Values{"code": {code}, "state": {st}}
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/auth/google/callback?"+q.Encode(), nil)
		require.NoError(t, err)
		if withCookie {
			req.AddCookie(state)
		}
		resp, err := client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp
	}

	require.Equal(t, http.StatusBadRequest, callback("good", "forged", true).StatusCode)
	require.Equal(t, http.StatusBadRequest, callback("good", state.Value, false).StatusCode)
	require.Equal(t, http.StatusBadRequest, callback("bad", state.Value, true).StatusCode)

	ok := callback("good", state.Value, true)
	require.Equal(t, http.StatusTemporaryRedirect, ok.StatusCode)
	require.Equal(t, "http://frontend.test/dashboard", ok.Header.Get("Location"))

	access := cookieNamed(ok, "access_token")
	require.NotNil(t, access)
	me, err := srv.Client.NewSession(access.Value).Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "chef@example.com", me.Email)
	require.Equal(t, "google", me.AuthProvider)
}

func TestGoogleNotConfigured(t *testing.T) {
	srv := newServer(t, nil)

	resp, err := noRedirects().Get(srv.URL + "/v1/auth/google/login")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Nil(t, cookieNamed(resp, "oauth_state"))

	var body authsdk.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, authsdk.ErrorCodeOAuthFailed, body.Error)
}
