package http

import (
	"net/http"
	"strconv"

	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/chefstream/auth/pkg/httpx"
)

// NotificationsHandler stores the security notification preference and
// serves the security event history.
type NotificationsHandler struct {
	Auth *service.AuthService
}

// HandleToggle handles POST /v1/security/notifications/toggle
//
//	@Summary		Toggle security notifications
//	@Description	Takes a JSON body or an enabled query parameter. The query parameter wins when both are sent.
//	@Tags			Security
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			enabled	query		bool								false	"New value"
//	@Param			request	body		authsdk.NotificationToggleRequest	false	"New value"
//	@Success		200		{object}	authsdk.NotificationToggleResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Router			/v1/security/notifications/toggle [post].
func (h *NotificationsHandler) HandleToggle(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var enabled bool
	if raw := r.URL.Query().Get("enabled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		enabled = v
	} else {
		var req authsdk.NotificationToggleRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		enabled = req.Enabled
	}

	got, err := h.Auth.SetNotifications(r.Context(), p.User.ID, enabled)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.NotificationToggleResponse{Status: "success", Enabled: got})
}

// HandleEvents handles GET /v1/security/events
//
//	@Summary		Security history
//	@Description	Newest first. limit is clamped to 1..100 and defaults to 20.
//	@Tags			Security
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of events"
//	@Success		200		{array}		authsdk.EventResponse
//	@Failure		400		{object}	authsdk.ErrorResponse
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Router			/v1/security/events [get].
func (h *NotificationsHandler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			authsdk.ErrInvalidRequest.WriteError(w)
			return
		}
		limit = n
	}

	events, err := h.Auth.ListEvents(r.Context(), p.User.ID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, eventResponses(events))
}
