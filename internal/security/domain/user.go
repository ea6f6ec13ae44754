package domain

import "time"

// User is a registered principal. PasswordHash and MFASecret never leave the
// service boundary; the JSON tags keep them out of any response body.
type User struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	PasswordHash   string     `json:"-"`
	MFAEnabled     bool       `json:"mfa_enabled"`
	MFASecret      string     `json:"-"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsLocked reports whether the lockout is still in force at now.
func (u User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// UserStats summarises the user population for security reports.
type UserStats struct {
	Total      int `json:"total"`
	MFAEnabled int `json:"mfa_enabled"`
	Locked     int `json:"locked"`
}

// MFAAdoption is the fraction of users with MFA enabled, 1 when there are none.
func (s UserStats) MFAAdoption() float64 {
	if s.Total == 0 {
		return 1
	}
	return float64(s.MFAEnabled) / float64(s.Total)
}
