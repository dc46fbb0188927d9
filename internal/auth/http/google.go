package http

import (
	"crypto/subtle"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/chefstream/auth/pkg/cryptox"
	"github.com/chefstream/auth/pkg/httpx"
	"github.com/chefstream/auth/pkg/slogx"
)

const (
	stateCookieName = "oauth_state"
	stateCookieTTL  = 5 * time.Minute
	stateSize       = 32
)

// GoogleHandler runs the browser redirect flow for Google sign-in.
type GoogleHandler struct {
	Auth         *service.AuthService
	FrontendURL  string
	CookieTTL    time.Duration
	CookieSecure bool
}

// HandleLogin handles GET /v1/auth/google/login
//
//	@Summary		Start Google sign-in
//	@Description	Sets a short-lived oauth_state cookie and redirects to Google.
//	@Tags			Auth
//	@Success		307
//	@Failure		400	{object}	authsdk.ErrorResponse	"Google sign-in is not configured"
//	@Router			/v1/auth/google/login [get].
func (h *GoogleHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := cryptox.GenerateToken(stateSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	target, err := h.Auth.ExternalLoginURL(state)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// HandleCallback handles GET /v1/auth/google/callback
//
//	@Summary		Finish Google sign-in
//	@Description	Checks the state cookie, exchanges the code and redirects to the frontend.
//	@Description	Accounts with 2FA are sent to the frontend's 2FA page with a challenge_token.
//	@Tags			Auth
//	@Param			code	query	string	true	"Authorization code"
//	@Param			state	query	string	true	"State echoed by Google"
//	@Success		307
//	@Failure		400	{object}	authsdk.ErrorResponse	"OAuth failure"
//	@Router			/v1/auth/google/callback [get].
func (h *GoogleHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")
	if !h.validState(r, state) || code == "" {
		log.Warn("google callback state mismatch")
		authsdk.ErrOAuthFailed.WriteError(w)
		return
	}
	h.clearState(w)

	res, err := h.Auth.LoginExternal(r.Context(), code, clientMeta(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if res.RequiresTwoFactor {
		v := url.Values{"challenge_token": {res.ChallengeToken}}
		http.Redirect(w, r, h.frontend("/login/2fa")+"?"+v.Encode(), http.StatusTemporaryRedirect)
		return
	}
	httpx.SetAuthCookie(w, res.AccessToken, h.CookieTTL, h.CookieSecure)
	http.Redirect(w, r, h.frontend("/dashboard"), http.StatusTemporaryRedirect)
}

func (h *GoogleHandler) validState(r *http.Request, state string) bool {
	c, err := r.Cookie(stateCookieName)
	if err != nil || c.Value == "" || state == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) == 1
}

func (h *GoogleHandler) clearState(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *GoogleHandler) frontend(path string) string {
	return strings.TrimSuffix(h.FrontendURL, "/") + path
}
