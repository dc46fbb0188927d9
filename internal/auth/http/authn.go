package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/chefstream/auth/internal/auth/domain"
	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/pkg/httpx"
)

// authenticator adapts AuthService to httpx.Authenticator. Failures come
// back as *authsdk.APIError so the middleware renders the precise reason.
func authenticator(auth *service.AuthService) httpx.Authenticator {
	return httpx.AuthenticatorFunc(func(ctx context.Context, raw string) (httpx.Identity, error) {
		p, err := auth.Authenticate(ctx, raw)
		if err != nil {
			return httpx.Identity{}, apiError(err)
		}
		return httpx.Identity{
			Subject:    strconv.FormatInt(p.User.ID, 10),
			SessionJTI: p.SessionJTI,
			Principal:  p,
		}, nil
	})
}

// principal returns the caller resolved by AuthnMiddleware.
func principal(r *http.Request) (domain.Principal, bool) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := id.Principal.(domain.Principal)
	return p, ok
}

// clientMeta captures where a login request came from.
func clientMeta(r *http.Request) service.ClientMeta {
	return service.ClientMeta{
		UserAgent: r.UserAgent(),
		IPAddress: httpx.ClientIP(r),
	}
}
