package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes carried in the "pur" claim.
const (
	PurposeSession = "session"
	PurposeMFA     = "mfa"
)

// Claims are the claims of every token minted by the security service.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID, empty for MFA tickets.
	SID string `json:"sid,omitempty"`

	// Purpose separates session tokens from short-lived MFA tickets so one
	// can never be replayed as the other.
	Purpose string `json:"pur"`
}

// NewSessionClaims binds a token to a session. jti carries the fingerprint
// of the session's opaque token, exp equals the session expiry.
func NewSessionClaims(subject, sid, fingerprint, issuer string, issuedAt, expiresAt time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        fingerprint,
		},
		SID:     sid,
		Purpose: PurposeSession,
	}
}

// NewMFAClaims builds the claims of a pending-MFA ticket for subject.
func NewMFAClaims(subject, issuer string, now time.Time, ttl time.Duration) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Purpose: PurposeMFA,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
