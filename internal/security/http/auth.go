package http

import (
	"net/http"

	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/securitysdk"
	"github.com/familiarcat/aegis/pkg/slogx"
)

// AuthHandler handles login, MFA completion, logout and session lookup.
type AuthHandler struct {
	Orchestrator   *service.Orchestrator
	TrustForwarded bool
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in with a password
//	@Description	Authenticates by username or email. Accounts with MFA enabled get 409 mfa_required with a
//	@Description	single-use ticket to submit to /v1/auth/mfa. Repeated failures lock the account.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		securitysdk.LoginRequest		true	"Credentials"
//	@Success		200		{object}	securitysdk.SessionResponse		"Session issued"
//	@Failure		400		{object}	securitysdk.APIError			"Malformed request"
//	@Failure		401		{object}	securitysdk.APIError			"Invalid credentials"
//	@Failure		409		{object}	securitysdk.MFARequiredError	"Second factor required"
//	@Failure		423		{object}	securitysdk.APIError			"Account locked; locked_until says when"
//	@Failure		429		{object}	securitysdk.APIError			"Rate limit exceeded"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req securitysdk.LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Identifier == "" || req.Password == "" {
		securitysdk.ErrInvalidRequest.With("identifier and password are required").WriteError(w)
		return
	}

	res, err := h.Orchestrator.Authenticate(ctx, req.Identifier, req.Password, httpx.ClientIP(r, h.TrustForwarded), req.ClientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if res.MFARequired {
		slogx.FromContext(ctx).Info("mfa challenge issued", "user_id", res.User.ID)
		(&securitysdk.MFARequiredError{
			MFATicket: res.MFATicket,
			Methods:   res.Challenge.Methods,
			UserID:    res.User.ID,
		}).WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(res))
}

// HandleCompleteMFA handles POST /v1/auth/mfa
//
//	@Summary		Complete an MFA login
//	@Description	Exchanges the ticket from a 409 login response and a TOTP or backup code for a session.
//	@Description	A wrong code counts as a failed login attempt; the ticket stays usable until it expires.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		securitysdk.MFACompleteRequest	true	"Ticket and code"
//	@Success		200		{object}	securitysdk.SessionResponse		"Session issued"
//	@Failure		401		{object}	securitysdk.APIError			"Invalid code or ticket"
//	@Failure		423		{object}	securitysdk.APIError			"Account locked"
//	@Router			/v1/auth/mfa [post].
func (h *AuthHandler) HandleCompleteMFA(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req securitysdk.MFACompleteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.MFATicket == "" || req.Code == "" {
		securitysdk.ErrInvalidRequest.With("mfa_ticket and code are required").WriteError(w)
		return
	}

	res, err := h.Orchestrator.CompleteMFA(ctx, req.MFATicket, req.Code, httpx.ClientIP(r, h.TrustForwarded), req.ClientID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toSessionResponse(res))
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out
//	@Description	Ends the session behind the bearer token. The token is rejected afterwards.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	securitysdk.LogoutResponse	"Whether a session was removed"
//	@Failure		401	{object}	securitysdk.APIError		"Invalid or missing token"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	removed, err := h.Orchestrator.Logout(ctx, httpx.SessionIDFromContext(ctx))
	if err != nil {
		writeError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("logged out", "user_id", httpx.UserIDFromContext(ctx))
	httpx.WriteJSON(w, http.StatusOK, securitysdk.LogoutResponse{Removed: removed})
}

// HandleSession handles GET /v1/auth/session
//
//	@Summary		Validate the bearer token
//	@Description	Returns the account and session behind the token and records activity on the session.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	securitysdk.TokenValidationResponse	"Valid token"
//	@Failure		401	{object}	securitysdk.APIError				"Invalid or missing token"
//	@Router			/v1/auth/session [get].
func (h *AuthHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	token, ok := httpx.BearerToken(r)
	if !ok {
		securitysdk.ErrInvalidToken.WriteError(w)
		return
	}

	v := h.Orchestrator.ValidateToken(r.Context(), token)
	if !v.Valid {
		securitysdk.ErrInvalidToken.WriteError(w)
		return
	}

	user := toUserResponse(*v.User)
	session := toSessionInfo(*v.Session)
	httpx.WriteJSON(w, http.StatusOK, securitysdk.TokenValidationResponse{
		Valid:   true,
		User:    &user,
		Session: &session,
		Scopes:  v.Scopes,
	})
}
