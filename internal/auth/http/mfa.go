package http

import (
	"net/http"

	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/pkg/authsdk"
	"github.com/chefstream/auth/pkg/httpx"
)

// MFAHandler handles the 2FA enrolment endpoints.
type MFAHandler struct {
	MFA *service.MFAService
}

// HandleSetup handles POST /v1/security/2fa/setup
//
//	@Summary		Start TOTP enrolment
//	@Description	Returns a fresh secret, its otpauth URL and a QR code. Nothing is stored until enable.
//	@Tags			Two-factor
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TwoFactorSetupResponse
//	@Failure		400	{object}	authsdk.ErrorResponse	"2FA already enabled"
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/v1/security/2fa/setup [post].
func (h *MFAHandler) HandleSetup(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	setup, err := h.MFA.BeginSetup(r.Context(), p.User.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.TwoFactorSetupResponse{
		Secret:       setup.Secret,
		OTPAuthURL:   setup.OTPAuthURL,
		QRCodeBase64: setup.QRCodePNG,
	})
}

// HandleEnable handles POST /v1/security/2fa/enable
//
//	@Summary		Confirm TOTP enrolment
//	@Description	Stores the secret once a code generated from it checks out. Returns backup codes, shown once.
//	@Tags			Two-factor
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.EnableTwoFactorRequest	true	"Secret from setup and a current code"
//	@Success		200		{object}	authsdk.BackupCodesResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid code or 2FA already enabled"
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Router			/v1/security/2fa/enable [post].
func (h *MFAHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.EnableTwoFactorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Secret == "" || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	codes, err := h.MFA.ConfirmSetup(r.Context(), p.User.ID, req.Secret, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.BackupCodesResponse{Status: "success", BackupCodes: codes})
}

// HandleDisable handles POST /v1/security/2fa/disable
//
//	@Summary		Turn off 2FA
//	@Description	Clears the TOTP secret and deletes every backup code.
//	@Tags			Two-factor
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.StatusResponse
//	@Failure		400	{object}	authsdk.ErrorResponse	"2FA not enabled"
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Router			/v1/security/2fa/disable [post].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	if err := h.MFA.Disable(r.Context(), p.User.ID); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.StatusResponse{Status: "success", Message: "2FA disabled"})
}

// HandleRegenerateBackupCodes handles POST /v1/security/2fa/backup-codes
//
//	@Summary		Regenerate backup codes
//	@Description	Replaces every backup code. Needs a current TOTP code.
//	@Tags			Two-factor
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.RegenerateBackupCodesRequest	true	"Current TOTP code"
//	@Success		200		{object}	authsdk.BackupCodesResponse
//	@Failure		400		{object}	authsdk.ErrorResponse	"Invalid code or 2FA not enabled"
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Router			/v1/security/2fa/backup-codes [post].
func (h *MFAHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(r)
	if !ok {
		authsdk.ErrInvalidToken.WriteError(w)
		return
	}

	var req authsdk.RegenerateBackupCodesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Code == "" {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	codes, err := h.MFA.RegenerateBackupCodes(r.Context(), p.User.ID, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.BackupCodesResponse{Status: "success", BackupCodes: codes})
}
