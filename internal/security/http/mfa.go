package http

import (
	"net/http"

	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/securitysdk"
)

// MFAHandler handles all MFA management endpoints.
type MFAHandler struct {
	Orchestrator *service.Orchestrator
}

// HandleEnable handles POST /v1/mfa/enable
//
//	@Summary		Enable TOTP MFA
//	@Description	Generates a TOTP secret and ten single-use backup codes and turns MFA on.
//	@Description	The secret and codes are returned only in this response.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	securitysdk.MFAEnableResponse	"Secret, provisioning URI and backup codes"
//	@Failure		401	{object}	securitysdk.APIError			"Invalid or missing token"
//	@Failure		409	{object}	securitysdk.APIError			"MFA already enabled"
//	@Router			/v1/mfa/enable [post].
func (h *MFAHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	ch, err := h.Orchestrator.EnableMFA(ctx, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, securitysdk.MFAEnableResponse{
		Secret:          ch.Secret,
		ProvisioningURI: ch.ProvisioningURI,
		Issuer:          ch.Issuer,
		Account:         ch.Account,
		Methods:         ch.Methods,
		BackupCodes:     ch.BackupCodes,
	})
}

// HandleDisable handles DELETE /v1/mfa
//
//	@Summary		Disable MFA
//	@Description	Turns MFA off and deletes the secret and backup codes. Requires a current TOTP or backup code.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Param			request	body	securitysdk.MFACodeRequest	true	"Current code"
//	@Success		204
//	@Failure		400	{object}	securitysdk.APIError	"MFA not enabled"
//	@Failure		401	{object}	securitysdk.APIError	"Invalid token or code"
//	@Router			/v1/mfa [delete].
func (h *MFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	var req securitysdk.MFACodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Orchestrator.DisableMFA(ctx, userID, req.Code); err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleRegenerateBackupCodes handles POST /v1/mfa/backup-codes
//
//	@Summary		Regenerate backup codes
//	@Description	Replaces every backup code with a fresh set. Requires a current TOTP code; backup codes are not accepted.
//	@Tags			MFA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		securitysdk.MFACodeRequest		true	"Current TOTP code"
//	@Success		200		{object}	securitysdk.BackupCodesResponse	"New backup codes (shown once)"
//	@Failure		400		{object}	securitysdk.APIError			"MFA not enabled"
//	@Failure		401		{object}	securitysdk.APIError			"Invalid token or code"
//	@Router			/v1/mfa/backup-codes [post].
func (h *MFAHandler) HandleRegenerateBackupCodes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpx.UserIDFromContext(ctx)

	var req securitysdk.MFACodeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	codes, err := h.Orchestrator.RegenerateBackupCodes(ctx, userID, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, securitysdk.BackupCodesResponse{Codes: codes})
}
