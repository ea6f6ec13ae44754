package service

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/familiarcat/aegis/internal/security/audit"
	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/ratelimit"
	"github.com/familiarcat/aegis/internal/security/store/drivers/memory"
	"github.com/familiarcat/aegis/internal/security/threat"
	"github.com/familiarcat/aegis/pkg/cryptox"
	"github.com/familiarcat/aegis/pkg/jwtx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// t0 is aligned to a 30-second TOTP step.
var t0 = time.Unix(1700000010, 0).UTC()

const testPassword = "Correct-Horse-9"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	clock    *testClock
	store    *memory.Store
	signer   *jwtx.HMACSigner
	sessions *SessionService
	mfa      *MFAService
	auth     *AuthService
	api      *APISecurityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &testClock{now: t0}
	st := memory.NewStore()
	signer, err := jwtx.NewHMACSigner(bytes.Repeat([]byte{0x5a}, jwtx.MinKeySize), "aegis-test")
	require.NoError(t, err)

	sessions := &SessionService{Store: st, Signer: signer, Timeout: time.Hour, Now: clock.Now}
	mfa := &MFAService{Store: st, Issuer: "Aegis", Now: clock.Now}
	auth := &AuthService{
		Store:             st,
		Hasher:            cryptox.BcryptHasher{Cost: bcrypt.MinCost},
		Sessions:          sessions,
		MFA:               mfa,
		Signer:            signer,
		MaxFailedAttempts: 5,
		LockoutDuration:   15 * time.Minute,
		MFATicketTTL:      5 * time.Minute,
		Now:               clock.Now,
	}

	log := audit.New(100)
	api := &APISecurityService{
		Limiter:  ratelimit.New(ratelimit.Config{Window: time.Minute, MaxRequests: 3}),
		Detector: threat.NewDetector(threat.DefaultConfig(), log),
		Audit:    log,
		Now:      clock.Now,
	}

	return &testEnv{
		clock:    clock,
		store:    st,
		signer:   signer,
		sessions: sessions,
		mfa:      mfa,
		auth:     auth,
		api:      api,
	}
}

func (e *testEnv) register(t *testing.T, username string) domain.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), username, username+"@example.com", testPassword)
	require.NoError(t, err)
	return u
}

// totpCode returns the code for secret at the env's current time.
func (e *testEnv) totpCode(t *testing.T, secret string) string {
	t.Helper()
	return codeAt(t, secret, e.clock.Now())
}

func codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()
	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    30,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	require.NoError(t, err)
	return code
}

// wrongCode returns a six-digit code that differs from code in every digit.
func wrongCode(code string) string {
	b := []byte(code)
	for i := range b {
		b[i] = '0' + (b[i]-'0'+5)%10
	}
	return string(b)
}
