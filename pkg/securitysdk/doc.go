/*
Package securitysdk provides a client SDK for the Aegis security service.

# Overview

The package is organised around two types:

  - SDKClient: unauthenticated operations (register, login, health) and
    creation of Sessions
  - Session: operations that carry a bearer token

	client := securitysdk.NewSDKClient("https://security.example.com")

	user, err := client.Register(ctx, securitysdk.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Correct-Horse-9",
	})

# Login and MFA

Login returns a Session directly for accounts without MFA. For accounts with
MFA enabled the server answers 409 and Login returns an *MFARequiredError
holding a short-lived ticket:

	session, err := client.Login(ctx, securitysdk.LoginRequest{
		Identifier: "alice",
		Password:   password,
	})
	var mfaErr *securitysdk.MFARequiredError
	if errors.As(err, &mfaErr) {
		session, err = client.CompleteMFA(ctx, mfaErr, totpCode, "")
	}

The ticket is single use. A wrong code counts as a failed login attempt and
repeated failures lock the account.

# Errors

Every failed call returns an *APIError (or *MFARequiredError) carrying the
HTTP status and a stable error code:

	var apiErr *securitysdk.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case securitysdk.ErrorCodeAccountLocked:
			// apiErr.LockedUntil says when to try again
		case securitysdk.ErrorCodeRateLimitExceeded:
			// apiErr.RetryAfter is in seconds
		}
	}

# Sessions

Sessions are not refreshed. Once the server-side session expires or is
logged out, calls fail with invalid_token and the caller logs in again.
*/
package securitysdk
