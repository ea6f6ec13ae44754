package service

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/pkg/cryptox"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

func TestEnableMFA(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.register(t, "alice")

	ch, err := env.mfa.EnableMFA(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, ch.UserID)
	require.Equal(t, "Aegis", ch.Issuer)
	require.Equal(t, []string{domain.MFAMethodTOTP, domain.MFAMethodBackupCode}, ch.Methods)
	require.Len(t, ch.Secret, 32, "20 random bytes base32-encoded")

	key, err := otp.NewKeyFromURL(ch.ProvisioningURI)
	require.NoError(t, err)
	require.Equal(t, "Aegis", key.Issuer())
	require.Equal(t, "alice", key.AccountName())
	require.Equal(t, ch.Secret, key.Secret())

	require.Len(t, ch.BackupCodes, 10)
	hex8 := regexp.MustCompile(`^[0-9A-F]{8}$`)
	seen := make(map[string]bool)
	for _, c := range ch.BackupCodes {
		require.Regexp(t, hex8, c)
		require.False(t, seen[c], "backup codes are unique")
		seen[c] = true
	}

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, stored.MFAEnabled)
	require.Equal(t, ch.Secret, stored.MFASecret)

	_, err = env.mfa.EnableMFA(ctx, u.ID)
	require.ErrorIs(t, err, ErrMFAAlreadyEnabled)

	_, err = env.mfa.EnableMFA(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestSealedMFASecret(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	sealer, err := cryptox.NewSealer([]byte(strings.Repeat("k", cryptox.MinSecretSize)), "mfa")
	require.NoError(t, err)
	env.mfa.Sealer = sealer
	u := env.register(t, "alice")

	ch, err := env.mfa.EnableMFA(ctx, u.ID)
	require.NoError(t, err)

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotEqual(t, ch.Secret, stored.MFASecret)
	require.NotContains(t, stored.MFASecret, ch.Secret)

	code, err := totp.GenerateCode(ch.Secret, env.clock.Now())
	require.NoError(t, err)
	method, err := env.mfa.VerifyUserCode(ctx, stored, code)
	require.NoError(t, err)
	require.Equal(t, domain.MFAMethodTOTP, method)

	codes, err := env.mfa.RegenerateBackupCodes(ctx, u.ID, code)
	require.NoError(t, err)
	require.Len(t, codes, 10)
}

func TestVerifyCodeWindow(t *testing.T) {
	t.Parallel()

	const secret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	// Mid-step, so that ±30s stays inside the adjacent steps.
	issued := t0.Add(15 * time.Second)
	code := codeAt(t, secret, issued)

	tests := []struct {
		name   string
		offset time.Duration
		want   bool
	}{
		{"same step", 0, true},
		{"previous step", -30 * time.Second, true},
		{"next step", 30 * time.Second, true},
		{"two steps back", -60 * time.Second, false},
		{"two steps ahead", 60 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, VerifyCodeAt(secret, code, issued.Add(tt.offset)))
		})
	}

	require.False(t, VerifyCodeAt(secret, "12345", issued))
	require.False(t, VerifyCodeAt(secret, "abcdef", issued))
	require.True(t, VerifyCodeAt(secret, " "+code+" ", issued))
}

func TestVerifyCodeUsesClock(t *testing.T) {
	t.Parallel()

	const secret = "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"
	clock := &testClock{now: t0}
	svc := &MFAService{Now: clock.Now}

	code := codeAt(t, secret, t0)
	require.True(t, svc.VerifyCode(secret, code))

	clock.Advance(90 * time.Second)
	require.False(t, svc.VerifyCode(secret, code))
}

func TestDisableMFA(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.register(t, "alice")

	require.ErrorIs(t, env.mfa.DisableMFA(ctx, u.ID, "123456"), ErrMFANotEnabled)

	ch, err := env.mfa.EnableMFA(ctx, u.ID)
	require.NoError(t, err)

	require.ErrorIs(t, env.mfa.DisableMFA(ctx, u.ID, wrongCode(env.totpCode(t, ch.Secret))), ErrInvalidMFACode)
	require.NoError(t, env.mfa.DisableMFA(ctx, u.ID, strings.ToLower(ch.BackupCodes[3])))

	stored, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.False(t, stored.MFAEnabled)
	require.Empty(t, stored.MFASecret)

	n, err := env.mfa.RemainingBackupCodes(ctx, u.ID)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = env.mfa.EnableMFA(ctx, u.ID)
	require.NoError(t, err, "MFA can be enabled again")
}

func TestRegenerateBackupCodes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.register(t, "alice")

	_, err := env.mfa.RegenerateBackupCodes(ctx, u.ID, "123456")
	require.ErrorIs(t, err, ErrMFANotEnabled)

	ch, err := env.mfa.EnableMFA(ctx, u.ID)
	require.NoError(t, err)

	_, err = env.mfa.RegenerateBackupCodes(ctx, u.ID, ch.BackupCodes[0])
	require.ErrorIs(t, err, ErrInvalidMFACode, "backup codes cannot mint new ones")

	codes, err := env.mfa.RegenerateBackupCodes(ctx, u.ID, env.totpCode(t, ch.Secret))
	require.NoError(t, err)
	require.Len(t, codes, 10)

	user, err := env.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)

	_, err = env.mfa.VerifyUserCode(ctx, user, ch.BackupCodes[0])
	require.ErrorIs(t, err, ErrInvalidMFACode, "old codes are discarded")

	method, err := env.mfa.VerifyUserCode(ctx, user, codes[0])
	require.NoError(t, err)
	require.Equal(t, domain.MFAMethodBackupCode, method)
}
