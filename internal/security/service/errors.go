package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput       = errors.New("invalid_input")
	ErrDuplicateIdentity  = errors.New("duplicate_identity")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountLocked      = errors.New("account_locked")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrMFANotEnabled      = errors.New("mfa_not_enabled")
	ErrMFAAlreadyEnabled  = errors.New("mfa_already_enabled")
	ErrInvalidMFACode     = errors.New("invalid_mfa_code")
	ErrRateLimitExceeded  = errors.New("rate_limit_exceeded")
	ErrTokenInvalid       = errors.New("token_invalid")
	ErrSuspiciousRequest  = errors.New("suspicious_request_blocked")
	ErrSubsystemDisabled  = errors.New("subsystem_disabled")
)

// InvalidInputError names the registration rule that was violated.
type InvalidInputError struct {
	Rule string
}

func (e *InvalidInputError) Error() string { return fmt.Sprintf("invalid_input: %s", e.Rule) }
func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// AccountLockedError carries the time the lockout ends.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account_locked: until %s", e.Until.UTC().Format(time.RFC3339))
}
func (e *AccountLockedError) Unwrap() error { return ErrAccountLocked }

// RateLimitError carries the whole seconds until the caller may retry.
type RateLimitError struct {
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate_limit_exceeded: retry after %ds", e.RetryAfter)
}
func (e *RateLimitError) Unwrap() error { return ErrRateLimitExceeded }

func nowOr(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now()
}
