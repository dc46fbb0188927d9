package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chefstream/auth/pkg/httpx"
	"github.com/stretchr/testify/require"
)

type teapotError struct{}

func (teapotError) Error() string { return "teapot" }

func (teapotError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusTeapot, map[string]string{"error": "teapot"})
}

func TestAuthnMiddleware(t *testing.T) {
	auth := httpx.AuthenticatorFunc(func(_ context.Context, raw string) (httpx.Identity, error) {
		switch raw {
		case "good":
			return httpx.Identity{Subject: "42", SessionJTI: "jti-1"}, nil
		case "custom":
			return httpx.Identity{}, teapotError{}
		default:
			return httpx.Identity{}, errors.New("nope")
		}
	})

	var seen httpx.Identity
	h := httpx.Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = httpx.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}), httpx.AuthnMiddleware(auth))

	t.Run("missing token", func(t *testing.T) {
		rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer good")
		require.Equal(t, http.StatusNoContent, serve(h, req).Code)
		require.Equal(t, "42", seen.Subject)
		require.Equal(t, "jti-1", seen.SessionJTI)
	})

	t.Run("cookie wins over header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: httpx.AuthCookieName, Value: "good"})
		req.Header.Set("Authorization", "Bearer bad")
		require.Equal(t, http.StatusNoContent, serve(h, req).Code)
	})

	t.Run("rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer bad")
		rec := serve(h, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), "Could not validate credentials")
	})

	t.Run("error renders itself", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer custom")
		require.Equal(t, http.StatusTeapot, serve(h, req).Code)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	serve(httpx.Chain(okHandler, mw("outer"), mw("inner")), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestAuthCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.SetAuthCookie(rec, "tok", 30*time.Minute, true)
	httpx.ClearAuthCookie(rec, true)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	set := cookies[0]
	require.Equal(t, httpx.AuthCookieName, set.Name)
	require.Equal(t, "tok", set.Value)
	require.Equal(t, 1800, set.MaxAge)
	require.True(t, set.HttpOnly)
	require.True(t, set.Secure)

	require.Less(t, cookies[1].MaxAge, 0)
}
