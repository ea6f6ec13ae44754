package http

import (
	"errors"
	"net/http"

	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/securitysdk"
	"github.com/familiarcat/aegis/pkg/slogx"
)

// writeError maps a service error onto its wire form. Unknown errors are
// logged and reported as server_error without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalid *service.InvalidInputError
		locked  *service.AccountLockedError
		limited *service.RateLimitError
	)

	switch {
	case errors.As(err, &invalid):
		e := securitysdk.ErrInvalidInput.With("input violates rule " + invalid.Rule)
		e.Rule = invalid.Rule
		e.WriteError(w)
	case errors.As(err, &locked):
		e := securitysdk.ErrAccountLocked.With("account is temporarily locked")
		until := locked.Until.UTC()
		e.LockedUntil = &until
		e.WriteError(w)
	case errors.As(err, &limited):
		e := securitysdk.ErrRateLimitExceeded.With("too many requests")
		e.RetryAfter = limited.RetryAfter
		e.WriteError(w)
	case errors.Is(err, httpx.ErrInvalidJSON):
		securitysdk.ErrInvalidRequest.With("invalid JSON body").WriteError(w)
	case errors.Is(err, service.ErrDuplicateIdentity):
		securitysdk.ErrDuplicateIdentity.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		securitysdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrInvalidMFACode):
		securitysdk.ErrInvalidMFACode.WriteError(w)
	case errors.Is(err, service.ErrMFANotEnabled):
		securitysdk.ErrMFANotEnabled.WriteError(w)
	case errors.Is(err, service.ErrMFAAlreadyEnabled):
		securitysdk.ErrMFAAlreadyEnabled.WriteError(w)
	case errors.Is(err, service.ErrTokenInvalid):
		securitysdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		securitysdk.ErrNotFound.With("user not found").WriteError(w)
	case errors.Is(err, service.ErrSuspiciousRequest):
		securitysdk.ErrSuspiciousRequest.WriteError(w)
	case errors.Is(err, service.ErrSubsystemDisabled):
		securitysdk.ErrSubsystemDisabled.WriteError(w)
	default:
		slogx.FromContext(r.Context()).Error("request failed", "err", err)
		securitysdk.ErrServerError.WriteError(w)
	}
}
