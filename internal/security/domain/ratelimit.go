package domain

import "time"

// RateLimitEntry is the counter of one identifier within its current window.
type RateLimitEntry struct {
	Identifier string    `json:"identifier"`
	Count      int       `json:"count"`
	ResetAt    time.Time `json:"reset_at"`
}

// RateLimitResult is the outcome of a single check-and-consume.
type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
	// RetryAfter is whole seconds until the window resets, set when denied.
	RetryAfter int `json:"retry_after,omitempty"`
}
