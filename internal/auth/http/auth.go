package http

import (
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/chefstream/auth/pkg/httpx"
	"github.com/chefstream/auth/pkg/slogx"
)

// AuthHandler serves the credential endpoints under /v1/auth.
type AuthHandler struct {
	Auth         *service.AuthService
	CookieTTL    time.Duration
	CookieSecure bool
}

// HandleRegister handles POST /v1/auth/register
//
//	@Summary		Register a local account
//	@Description	Creates an email and password account. The email must be unused.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegisterRequest	true	"Account details"
//	@Success		201		{object}	authsdk.UserResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Malformed request or email already registered"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Rate limited"
//	@Router			/v1/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		slogx.FromContext(r.Context()).Debug("bad register body", slogx.Err(err))
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	u, err := h.Auth.RegisterLocal(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, userResponse(u))
}

// HandleToken handles POST /v1/auth/token
//
//	@Summary		Password login
//	@Description	Checks email and password. Accepts a JSON body or an OAuth2 password form (username, password).
//	@Description	Accounts with 2FA get requires_2fa and a challenge_token instead of an access token.
//	@Description	On success the access token is also set as an HttpOnly cookie.
//	@Tags			Auth
//	@Accept			json
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			request		body		authsdk.LoginRequest	false	"JSON credentials"
//	@Param			username	formData	string					false	"Email (form login)"
//	@Param			password	formData	string					false	"Password (form login)"
//	@Success		200			{object}	authsdk.TokenResponse
//	@Failure		400			{object}	authsdk.ErrorResponse	"Malformed request"
//	@Failure		401			{object}	authsdk.ErrorResponse	"Incorrect email or password"
//	@Failure		429			{object}	authsdk.ErrorResponse	"Rate limited"
//	@Header			200			{string}	Cache-Control			"no-store"
//	@Router			/v1/auth/token [post].
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	email, password, ok := loginCredentials(r)
	if !ok {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res, err := h.Auth.Login(r.Context(), email, password, clientMeta(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeLogin(w, res)
}

// loginCredentials reads email and password from a JSON body or a password
// grant form.
func loginCredentials(r *http.Request) (email, password string, ok bool) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return "", "", false
		}
		email, password = r.PostForm.Get("username"), r.PostForm.Get("password")
	default:
		var req authsdk.LoginRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return "", "", false
		}
		email, password = req.Email, req.Password
	}
	return email, password, email != "" && password != ""
}

// HandleVerifyTwoFactor handles POST /v1/auth/verify-2fa
//
//	@Summary		Complete a 2FA login
//	@Description	Exchanges a challenge token and a TOTP or backup code for an access token.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.VerifyTwoFactorRequest	true	"Challenge and code"
//	@Success		200		{object}	authsdk.TokenResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid code or challenge"
//	@Failure		429		{object}	authsdk.ErrorResponse	"Too many failed attempts"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/v1/auth/verify-2fa [post].
func (h *AuthHandler) HandleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req authsdk.VerifyTwoFactorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.ChallengeToken == "" || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res, err := h.Auth.VerifyTwoFactor(r.Context(), req.ChallengeToken, req.Code, clientMeta(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.writeLogin(w, res)
}

func (h *AuthHandler) writeLogin(w http.ResponseWriter, res service.LoginResult) {
	if !res.RequiresTwoFactor {
		httpx.SetAuthCookie(w, res.AccessToken, h.CookieTTL, h.CookieSecure)
	}
	httpx.WriteJSON(w, http.StatusOK, tokenResponse(res))
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out
//	@Description	Revokes the caller's session when the token is still valid and clears the cookie. Always succeeds.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.StatusResponse
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if raw := httpx.TokenFromRequest(r); raw != "" {
		_ = h.Auth.Logout(r.Context(), raw)
	}
	httpx.ClearAuthCookie(w, h.CookieSecure)
	httpx.WriteJSON(w, http.StatusOK, authsdk.StatusResponse{Status: "success", Message: "Logged out"})
}

// HandleMe handles GET /v1/auth/me
//
//	@Summary		Current user
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.UserResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Invalid token or revoked session"
//	@Router			/v1/auth/me [get].
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResponse(p.User))
}
