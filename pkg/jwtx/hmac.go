package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeySize is the shortest HMAC key accepted, in bytes.
const MinKeySize = 32

var (
	ErrKeyTooShort  = fmt.Errorf("jwtx: hmac key must be at least %d bytes", MinKeySize)

	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrPurpose      = errors.New("jwtx: wrong token purpose")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HMACSigner signs and verifies HS256 tokens with a shared secret.
type HMACSigner struct {
	key    []byte
	issuer string
}

func NewHMACSigner(key []byte, issuer string) (*HMACSigner, error) {
	if len(key) < MinKeySize {
		return nil, ErrKeyTooShort
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &HMACSigner{key: k, issuer: issuer}, nil
}

func (s *HMACSigner) Issuer() string { return s.issuer }

func (s *HMACSigner) Sign(c Claims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer, purpose and the exp/nbf window against
// now. Errors wrap one of the package sentinels.
func (s *HMACSigner) Verify(token, purpose string, now time.Time) (Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
	)
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	if c.Purpose != purpose {
		return Claims{}, ErrPurpose
	}
	if c.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidClaim)
	}
	return c, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return ErrIssuer
	default:
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	}
}
