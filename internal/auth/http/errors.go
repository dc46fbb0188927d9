package http

import (
	"errors"
	"net/http"

	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/chefstream/auth/pkg/slogx"
)

var serviceErrors = []struct {
	err error
	api *authsdk.APIError
}{
	{service.ErrInvalidCredentials, authsdk.ErrInvalidCredentials},
	{service.ErrInvalidToken, authsdk.ErrInvalidToken},
	{service.ErrSessionRevoked, authsdk.ErrSessionRevoked},
	{service.ErrPrincipalNotFound, authsdk.ErrUserNotFound},
	{service.ErrEmailTaken, authsdk.ErrEmailTaken},
	{service.ErrMFAAlreadyEnabled, authsdk.ErrMFAAlreadyEnabled},
	{service.ErrMFANotEnabled, authsdk.ErrMFANotEnabled},
	{service.ErrInvalidCode, authsdk.ErrInvalidCode},
	{service.ErrInvalidChallenge, authsdk.ErrInvalidChallenge},
	{service.ErrTooManyAttempts, authsdk.ErrTooManyAttempts},
	{service.ErrOAuthFailed, authsdk.ErrOAuthFailed},
}

// apiError maps a service error to its wire form. Unknown errors become
// server_error.
func apiError(err error) *authsdk.APIError {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			return m.api
		}
	}
	return authsdk.ErrServerError
}

// writeError renders err and logs anything that maps to a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e := apiError(err)
	if e.StatusCode >= http.StatusInternalServerError {
		slogx.FromContext(r.Context()).Error("request failed", slogx.Err(err))
	}
	e.WriteError(w)
}
