//go:build e2e

package security_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/familiarcat/aegis/pkg/securitysdk"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"
)

// TestMFAEnrolmentAndLogin enables TOTP, logs in with a code and with a
// backup code, and checks that a backup code works only once.
func TestMFAEnrolmentAndLogin(t *testing.T) {
	baseURL, cleanup := setupSecurityContainer(t, nil)
	defer cleanup()

	client := securitysdk.NewSDKClient(baseURL)
	ctx := context.Background()

	session := registerAndLogin(t, client, "dave")

	enabled, err := session.EnableMFA(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, enabled.Secret)
	require.Contains(t, enabled.ProvisioningURI, "otpauth://totp/")
	require.Len(t, enabled.BackupCodes, 10)

	_, err = client.Login(ctx, securitysdk.LoginRequest{Identifier: "dave", Password: testPassword})
	var challenge *securitysdk.MFARequiredError
	require.ErrorAs(t, err, &challenge, "Login should require a second factor")
	require.NotEmpty(t, challenge.MFATicket)

	code, err := totp.GenerateCode(enabled.Secret, time.Now())
	require.NoError(t, err)

	mfaSession, err := client.CompleteMFA(ctx, challenge, code, "e2e")
	require.NoError(t, err)
	require.True(t, mfaSession.User().MFAEnabled)

	backup := enabled.BackupCodes[0]
	for i := range 2 {
		_, err = client.Login(ctx, securitysdk.LoginRequest{Identifier: "dave", Password: testPassword})
		require.ErrorAs(t, err, &challenge)

		_, err = client.CompleteMFA(ctx, challenge, backup, "e2e")
		if i == 0 {
			require.NoError(t, err, "Backup code should be accepted once")
		} else {
			assertAPIError(t, err, http.StatusUnauthorized, securitysdk.ErrorCodeInvalidMFACode)
		}
	}
}
