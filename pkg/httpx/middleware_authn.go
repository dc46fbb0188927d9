package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/chefstream/auth/pkg/slogx"
)

// Authenticator turns a raw bearer credential into an Identity.
type Authenticator interface {
	Authenticate(ctx context.Context, raw string) (Identity, error)
}

// AuthenticatorFunc adapts a plain function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, raw string) (Identity, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, raw string) (Identity, error) {
	return f(ctx, raw)
}

// errorWriter is implemented by errors that know how to render themselves,
// such as authsdk.APIError.
type errorWriter interface {
	WriteError(w http.ResponseWriter)
}

// AuthnMiddleware resolves the caller from the auth cookie or the bearer
// header and stores the Identity in the request context.
func AuthnMiddleware(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := TokenFromRequest(r)
			if raw == "" {
				writeBearerError(w, "missing bearer token")
				return
			}

			id, err := a.Authenticate(ctx, raw)
			if err != nil {
				log.Info("authentication rejected", slogx.Err(err))
				var ew errorWriter
				if errors.As(err, &ew) {
					w.Header().Set("WWW-Authenticate", "Bearer")
					ew.WriteError(w)
					return
				}
				writeBearerError(w, "token verification failed")
				return
			}

			ctx = WithIdentity(ctx, id)
			ctx = slogx.With(ctx, "user_id", id.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteJSON(w, http.StatusUnauthorized, map[string]string{
		"error":             "invalid_token",
		"error_description": "Could not validate credentials",
	})
}
