package domain

import "time"

// Session is an authenticated login. Token holds the opaque random token
// only on the value returned at creation; the store keeps TokenHash.
type Session struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Token        string    `json:"-"`
	TokenHash    string    `json:"-"`
	SourceAddr   string    `json:"source_addr"`
	ClientID     string    `json:"client_id"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
}

// IsValid reports whether the session has not yet expired at now.
func (s Session) IsValid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
