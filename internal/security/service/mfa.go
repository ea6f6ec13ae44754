package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/metrics"
	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/pkg/cryptox"
	"github.com/familiarcat/aegis/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	backupCodeCount = 10
	backupCodeBytes = cryptox.TokenSize32

	totpPeriod     = 30
	totpSkew       = 1
	totpSecretSize = 20
)

var totpValidateOpts = totp.ValidateOpts{
	Period:    totpPeriod,
	Skew:      totpSkew,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

type MFAService struct {
	Store   store.Store
	Issuer  string // Issuer name shown in authenticator apps
	Metrics *metrics.Metrics
	Sealer  *cryptox.Sealer // Optional: seals TOTP secrets at rest
	Now     func() time.Time
}

// EnableMFA generates a TOTP secret and backup codes for the user and turns
// MFA on. The returned challenge is the only place the secret and plaintext
// backup codes are ever exposed.
func (s *MFAService) EnableMFA(ctx context.Context, userID string) (domain.MFAChallenge, error) {
	now := nowOr(s.Now)

	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.MFAChallenge{}, ErrUserNotFound
		}
		return domain.MFAChallenge{}, err
	}
	if user.MFAEnabled {
		return domain.MFAChallenge{}, ErrMFAAlreadyEnabled
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.Issuer,
		AccountName: user.Username,
		Period:      totpPeriod,
		SecretSize:  totpSecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return domain.MFAChallenge{}, fmt.Errorf("failed to generate TOTP key: %w", err)
	}

	codes, hashes, err := generateBackupCodes()
	if err != nil {
		return domain.MFAChallenge{}, err
	}

	stored, err := s.sealSecret(key.Secret())
	if err != nil {
		return domain.MFAChallenge{}, fmt.Errorf("failed to seal TOTP secret: %w", err)
	}

	if err := s.Store.Users().EnableMFA(ctx, userID, stored, now); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.MFAChallenge{}, ErrMFAAlreadyEnabled
		}
		return domain.MFAChallenge{}, fmt.Errorf("failed to enable MFA: %w", err)
	}

	if err := s.Store.BackupCodes().ReplaceBackupCodes(ctx, userID, hashes); err != nil {
		_ = s.Store.Users().DisableMFA(ctx, userID, now)
		return domain.MFAChallenge{}, fmt.Errorf("failed to store backup codes: %w", err)
	}

	slogx.FromContext(ctx).Info("mfa enabled", "user_id", userID)

	ch := s.Challenge(user)
	ch.Secret = key.Secret()
	ch.ProvisioningURI = key.URL()
	ch.BackupCodes = codes
	return ch, nil
}

// Challenge re-derives the public part of a user's MFA challenge.
func (s *MFAService) Challenge(user domain.User) domain.MFAChallenge {
	return domain.MFAChallenge{
		UserID:  user.ID,
		Issuer:  s.Issuer,
		Account: user.Username,
		Methods: []string{domain.MFAMethodTOTP, domain.MFAMethodBackupCode},
	}
}

// VerifyCode checks code against secret at the current time.
func (s *MFAService) VerifyCode(secret, code string) bool {
	return VerifyCodeAt(secret, code, nowOr(s.Now))
}

// VerifyCodeAt accepts the code for the 30-second step containing t and for
// one step either side of it.
func VerifyCodeAt(secret, code string, t time.Time) bool {
	ok, err := totp.ValidateCustom(strings.TrimSpace(code), secret, t, totpValidateOpts)
	return err == nil && ok
}

// VerifyUserCode accepts either a current TOTP code or an unused backup code
// for user, consuming the backup code on success. It returns the method used.
func (s *MFAService) VerifyUserCode(ctx context.Context, user domain.User, code string) (string, error) {
	if !user.MFAEnabled || user.MFASecret == "" {
		return "", ErrMFANotEnabled
	}

	secret, err := s.totpSecret(user)
	if err != nil {
		return "", err
	}

	code = strings.TrimSpace(code)
	if len(code) == int(otp.DigitsSix) && s.VerifyCode(secret, code) {
		s.Metrics.IncrementMFAVerification(domain.MFAMethodTOTP, "success")
		return domain.MFAMethodTOTP, nil
	}

	if code != "" {
		ok, err := s.Store.BackupCodes().ConsumeBackupCode(ctx, user.ID, cryptox.FingerprintToken(strings.ToUpper(code)))
		if err != nil {
			return "", fmt.Errorf("failed to consume backup code: %w", err)
		}
		if ok {
			s.Metrics.IncrementMFAVerification(domain.MFAMethodBackupCode, "success")
			slogx.FromContext(ctx).Info("backup code consumed", "user_id", user.ID)
			return domain.MFAMethodBackupCode, nil
		}
	}

	s.Metrics.IncrementMFAVerification("any", "failure")
	return "", ErrInvalidMFACode
}

// DisableMFA turns MFA off after the user proves possession of a factor.
func (s *MFAService) DisableMFA(ctx context.Context, userID, code string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := s.VerifyUserCode(ctx, user, code); err != nil {
		return err
	}

	if err := s.Store.BackupCodes().DeleteAllBackupCodes(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete backup codes: %w", err)
	}
	if err := s.Store.Users().DisableMFA(ctx, userID, nowOr(s.Now)); err != nil {
		return fmt.Errorf("failed to disable MFA: %w", err)
	}

	slogx.FromContext(ctx).Info("mfa disabled", "user_id", userID)
	return nil
}

// RegenerateBackupCodes replaces the user's backup codes after verifying a
// TOTP code. Backup codes cannot be used to mint new ones.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID, totpCode string) ([]string, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.MFAEnabled {
		return nil, ErrMFANotEnabled
	}
	secret, err := s.totpSecret(user)
	if err != nil {
		return nil, err
	}
	if !s.VerifyCode(secret, totpCode) {
		return nil, ErrInvalidMFACode
	}

	codes, hashes, err := generateBackupCodes()
	if err != nil {
		return nil, err
	}
	if err := s.Store.BackupCodes().ReplaceBackupCodes(ctx, userID, hashes); err != nil {
		return nil, fmt.Errorf("failed to store backup codes: %w", err)
	}
	return codes, nil
}

// RemainingBackupCodes counts unused backup codes.
func (s *MFAService) RemainingBackupCodes(ctx context.Context, userID string) (int, error) {
	return s.Store.BackupCodes().CountBackupCodes(ctx, userID)
}

func (s *MFAService) sealSecret(secret string) (string, error) {
	if s.Sealer == nil {
		return secret, nil
	}
	return s.Sealer.SealString(secret)
}

func (s *MFAService) totpSecret(user domain.User) (string, error) {
	if s.Sealer == nil {
		return user.MFASecret, nil
	}
	secret, err := s.Sealer.OpenString(user.MFASecret)
	if err != nil {
		return "", fmt.Errorf("failed to open TOTP secret: %w", err)
	}
	return secret, nil
}

func (s *MFAService) getUser(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// generateBackupCodes returns plaintext codes (8 upper-case hex characters)
// and their fingerprints.
func generateBackupCodes() ([]string, []string, error) {
	codes := make([]string, backupCodeCount)
	hashes := make([]string, backupCodeCount)
	for i := range backupCodeCount {
		code, err := cryptox.GenerateHexToken(backupCodeBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate backup code: %w", err)
		}
		codes[i] = strings.ToUpper(code)
		hashes[i] = cryptox.FingerprintToken(codes[i])
	}
	return codes, hashes, nil
}
