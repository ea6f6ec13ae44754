//go:build e2e

package security_test

import (
	"context"
	"testing"

	"github.com/familiarcat/aegis/pkg/securitysdk"
	"github.com/stretchr/testify/require"
)

// TestScanAndClassify verifies redaction and classification over HTTP.
func TestScanAndClassify(t *testing.T) {
	baseURL, cleanup := setupSecurityContainer(t, nil)
	defer cleanup()

	client := securitysdk.NewSDKClient(baseURL)
	ctx := context.Background()
	session := registerAndLogin(t, client, "erin")

	scan, err := session.Scan(ctx, "SSN 123-45-6789, card 4111 1111 1111 1111")
	require.NoError(t, err)
	require.True(t, scan.HasSensitiveData)
	require.NotContains(t, scan.RedactedContent, "123-45-6789")
	require.NotContains(t, scan.RedactedContent, "4111 1111 1111 1111")
	require.NotEmpty(t, scan.Recommendations)

	c, err := session.Classify(ctx, "SSN 123-45-6789")
	require.NoError(t, err)
	require.Equal(t, "SECRET", c.Level)

	c, err = session.Classify(ctx, "lunch is at noon")
	require.NoError(t, err)
	require.Equal(t, "PUBLIC", c.Level)
}

// TestReportAndSelfTests verifies the orchestrator endpoints.
func TestReportAndSelfTests(t *testing.T) {
	baseURL, cleanup := setupSecurityContainer(t, nil)
	defer cleanup()

	client := securitysdk.NewSDKClient(baseURL)
	ctx := context.Background()
	session := registerAndLogin(t, client, "root")

	st, err := session.RunSelfTests(ctx)
	require.NoError(t, err)
	require.Zero(t, st.Failed)
	require.InDelta(t, 1.0, st.PassRate, 0.001)

	report, err := session.Report(ctx)
	require.NoError(t, err)
	require.True(t, report.Enabled["auth"])
	require.NotNil(t, report.Users)
	require.Equal(t, 1, report.Users.Total)
	require.Positive(t, report.ActiveSessions)
	require.NotEmpty(t, report.Recommendations)
}
