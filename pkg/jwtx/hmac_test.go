package jwtx_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/familiarcat/aegis/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testKey = bytes.Repeat([]byte{0x42}, jwtx.MinKeySize)

func newSigner(t *testing.T) *jwtx.HMACSigner {
	t.Helper()
	s, err := jwtx.NewHMACSigner(testKey, "aegis")
	require.NoError(t, err)
	return s
}

func TestNewHMACSignerRejectsShortKeys(t *testing.T) {
	_, err := jwtx.NewHMACSigner([]byte("short"), "aegis")
	require.ErrorIs(t, err, jwtx.ErrKeyTooShort)
}

func TestSessionTokenRoundTrip(t *testing.T) {
	s := newSigner(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := s.Sign(jwtx.NewSessionClaims("user-1", "sid-1", "fp", "aegis", now, now.Add(time.Hour)))
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(tok, "."))

	c, err := s.Verify(tok, jwtx.PurposeSession, now.Add(30*time.Minute))
	require.NoError(t, err)
	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "sid-1", c.SID)
	require.Equal(t, "fp", c.ID)
}

func TestVerifyFailures(t *testing.T) {
	s := newSigner(t)
	now := time.Unix(1700000000, 0).UTC()
	tok, err := s.Sign(jwtx.NewSessionClaims("user-1", "sid-1", "fp", "aegis", now, now.Add(time.Hour)))
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		_, err := s.Verify(tok, jwtx.PurposeSession, now.Add(2*time.Hour))
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("not yet valid", func(t *testing.T) {
		_, err := s.Verify(tok, jwtx.PurposeSession, now.Add(-time.Hour))
		require.ErrorIs(t, err, jwtx.ErrNotYetValid)
	})

	t.Run("wrong purpose", func(t *testing.T) {
		_, err := s.Verify(tok, jwtx.PurposeMFA, now)
		require.ErrorIs(t, err, jwtx.ErrPurpose)
	})

	t.Run("tampered signature", func(t *testing.T) {
		_, err := s.Verify(tok[:len(tok)-2]+"xx", jwtx.PurposeSession, now)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("other key", func(t *testing.T) {
		other, err := jwtx.NewHMACSigner(bytes.Repeat([]byte{0x24}, jwtx.MinKeySize), "aegis")
		require.NoError(t, err)
		_, err = other.Verify(tok, jwtx.PurposeSession, now)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("other issuer", func(t *testing.T) {
		other, err := jwtx.NewHMACSigner(testKey, "someone-else")
		require.NoError(t, err)
		_, err = other.Verify(tok, jwtx.PurposeSession, now)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Verify("not.a.jwt", jwtx.PurposeSession, now)
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestMFATicket(t *testing.T) {
	s := newSigner(t)
	now := time.Unix(1700000000, 0).UTC()

	tok, err := s.Sign(jwtx.NewMFAClaims("user-1", "aegis", now, 5*time.Minute))
	require.NoError(t, err)

	c, err := s.Verify(tok, jwtx.PurposeMFA, now.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, "user-1", c.Subject)
	require.Empty(t, c.SID)

	_, err = s.Verify(tok, jwtx.PurposeSession, now)
	require.ErrorIs(t, err, jwtx.ErrPurpose)

	_, err = s.Verify(tok, jwtx.PurposeMFA, now.Add(6*time.Minute))
	require.ErrorIs(t, err, jwtx.ErrExpired)
}
