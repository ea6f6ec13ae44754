package securitysdk

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/familiarcat/aegis/pkg/httpx"
)

// ============================================================================
// Error Codes
// ============================================================================

const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidInput       = "invalid_input"
	ErrorCodeDuplicateIdentity  = "duplicate_identity"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeAccountLocked      = "account_locked"
	ErrorCodeMFARequired        = "mfa_required"
	ErrorCodeInvalidMFACode     = "invalid_mfa_code"
	ErrorCodeMFANotEnabled      = "mfa_not_enabled"
	ErrorCodeMFAAlreadyEnabled  = "mfa_already_enabled"
	ErrorCodeInvalidToken       = "invalid_token"
	ErrorCodeInsufficientScope  = "insufficient_scope"
	ErrorCodeRateLimitExceeded  = "rate_limit_exceeded"
	ErrorCodeSuspiciousRequest  = "suspicious_request_blocked"
	ErrorCodeSubsystemDisabled  = "subsystem_disabled"
	ErrorCodeNotFound           = "not_found"
	ErrorCodeServerError        = "server_error"
)

// ============================================================================
// APIError
// ============================================================================

// APIError is the error body every endpoint returns. It is written by the
// server handlers and parsed back by the SDK client.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g., "invalid_credentials")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`

	// Rule names the violated input rule for invalid_input errors
	Rule string `json:"rule,omitempty"`

	// RetryAfter is the whole seconds to wait for rate_limit_exceeded errors
	RetryAfter int `json:"retry_after,omitempty"`

	// LockedUntil is when an account_locked lockout ends
	LockedUntil *time.Time `json:"locked_until,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes the error as a JSON body with its status code. A
// positive RetryAfter is also sent as the Retry-After header.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	if e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(e.RetryAfter))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(e)
}

// With returns a copy of e carrying a different description.
func (e *APIError) With(description string) *APIError {
	c := *e
	c.Description = description
	return &c
}

// ============================================================================
// Predefined Errors
// ============================================================================

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request is malformed or missing required parameters",
	}

	ErrInvalidInput = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidInput,
		Description: "the input does not satisfy the registration rules",
	}

	ErrDuplicateIdentity = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeDuplicateIdentity,
		Description: "username or email already registered",
	}

	// ErrInvalidCredentials never says which of identifier or password was wrong.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid credentials",
	}

	ErrAccountLocked = &APIError{
		StatusCode:  http.StatusLocked,
		Code:        ErrorCodeAccountLocked,
		Description: "account is temporarily locked",
	}

	ErrInvalidMFACode = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidMFACode,
		Description: "invalid multi-factor code",
	}

	ErrMFANotEnabled = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeMFANotEnabled,
		Description: "multi-factor authentication is not enabled",
	}

	ErrMFAAlreadyEnabled = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeMFAAlreadyEnabled,
		Description: "multi-factor authentication is already enabled",
	}

	ErrInvalidToken = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidToken,
		Description: "the token is missing, invalid, expired or revoked",
	}

	ErrRateLimitExceeded = &APIError{
		StatusCode:  http.StatusTooManyRequests,
		Code:        ErrorCodeRateLimitExceeded,
		Description: "too many requests",
	}

	ErrSuspiciousRequest = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeSuspiciousRequest,
		Description: "request blocked by security policy",
	}

	ErrSubsystemDisabled = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeSubsystemDisabled,
		Description: "the requested security subsystem is disabled",
	}

	ErrNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeNotFound,
		Description: "resource not found",
	}

	ErrMethodNotAllowed = &APIError{
		StatusCode:  http.StatusMethodNotAllowed,
		Code:        ErrorCodeInvalidRequest,
		Description: "method not allowed",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// NewAPIError creates an APIError with the given status code, error code and description.
func NewAPIError(statusCode int, code, description string) *APIError {
	return &APIError{
		StatusCode:  statusCode,
		Code:        code,
		Description: description,
	}
}

// ============================================================================
// MFA Error Response
// ============================================================================

// MFARequiredError is returned by login when the password was correct but the
// account has MFA enabled. It is sent as 409 Conflict: the request is valid
// but the account state requires a second step. Submit MFATicket with a code
// to CompleteMFA.
type MFARequiredError struct {
	// MFATicket binds the second step to this password success
	MFATicket string `json:"mfa_ticket"`

	// Methods lists the accepted second factors (e.g., ["totp", "backup_code"])
	Methods []string `json:"mfa_methods"`

	// UserID is the account awaiting its second factor
	UserID string `json:"user_id,omitempty"`
}

// Error implements the error interface.
func (e *MFARequiredError) Error() string {
	return fmt.Sprintf("MFA required: available methods=%v", e.Methods)
}

// WriteError writes the MFA challenge as a 409 Conflict.
func (e *MFARequiredError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error":             ErrorCodeMFARequired,
		"error_description": "multi-factor authentication is required to complete this login",
		"mfa_ticket":        e.MFATicket,
		"mfa_methods":       e.Methods,
		"user_id":           e.UserID,
	})
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a non-2xx response into an *MFARequiredError or
// an *APIError. It returns nil for 2xx responses.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	if resp.StatusCode == http.StatusConflict {
		var mfaResp struct {
			Error      string   `json:"error"`
			MFATicket  string   `json:"mfa_ticket"`
			MFAMethods []string `json:"mfa_methods"`
			UserID     string   `json:"user_id"`
		}
		if err := json.Unmarshal(body, &mfaResp); err == nil {
			if mfaResp.Error == ErrorCodeMFARequired && mfaResp.MFATicket != "" {
				return &MFARequiredError{
					MFATicket: mfaResp.MFATicket,
					Methods:   mfaResp.MFAMethods,
					UserID:    mfaResp.UserID,
				}
			}
		}
	}

	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode
		if apiErr.RetryAfter == 0 {
			apiErr.RetryAfter, _ = strconv.Atoi(resp.Header.Get("Retry-After"))
		}
		return &apiErr
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
