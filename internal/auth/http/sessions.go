package http

import (
	"net/http"

	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/chefstream/auth/pkg/httpx"
)

// SessionsHandler lets a user see and sign out their devices.
type SessionsHandler struct {
	Auth *service.AuthService
}

// HandleList handles GET /v1/security/sessions
//
//	@Summary		List active sessions
//	@Description	Most recently active first. The session making the request has is_current set.
//	@Tags			Security
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		authsdk.SessionResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/v1/security/sessions [get].
func (h *SessionsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	views, err := h.Auth.ListSessions(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponses(views))
}

// HandleRevoke handles POST /v1/security/sessions/{id}/revoke
//
//	@Summary		Revoke a session
//	@Tags			Security
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	authsdk.StatusResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		404	{object}	authsdk.ErrorResponse	"No active session with that id"
//	@Router			/v1/security/sessions/{id}/revoke [post].
func (h *SessionsHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	id := r.PathValue("id")
	revoked, err := h.Auth.RevokeSession(r.Context(), p, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !revoked {
		authsdk.ErrSessionNotFound.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.StatusResponse{Status: "success", Message: "Session revoked"})
}

// HandleRevokeOthers handles POST /v1/security/sessions/revoke-others
//
//	@Summary		Sign out everywhere else
//	@Description	Revokes every active session except the one making the request.
//	@Tags			Security
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.RevokeOthersResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/v1/security/sessions/revoke-others [post].
func (h *SessionsHandler) HandleRevokeOthers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	n, err := h.Auth.RevokeOtherSessions(r.Context(), p)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.RevokeOthersResponse{Status: "success", RevokedCount: n})
}
