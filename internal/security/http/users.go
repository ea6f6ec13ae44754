package http

import (
	"net/http"

	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/securitysdk"
	"github.com/familiarcat/aegis/pkg/slogx"
)

type UsersHandler struct {
	Orchestrator *service.Orchestrator
}

// HandleRegister handles POST /v1/users
//
//	@Summary		Register a user
//	@Description	Creates an account. Usernames are 3 to 32 characters of letters, digits, underscore or dash.
//	@Description	Passwords need 8 to 72 bytes with an upper-case letter, a lower-case letter and a digit.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		securitysdk.RegisterRequest	true	"Account details"
//	@Success		201		{object}	securitysdk.UserResponse	"Created account"
//	@Failure		400		{object}	securitysdk.APIError		"Invalid input; rule names the violated rule"
//	@Failure		409		{object}	securitysdk.APIError		"Username or email already registered"
//	@Failure		429		{object}	securitysdk.APIError		"Rate limit exceeded"
//	@Router			/v1/users [post].
func (h *UsersHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req securitysdk.RegisterRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.Orchestrator.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", user.ID)
	httpx.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}
