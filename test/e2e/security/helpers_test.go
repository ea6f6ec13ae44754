//go:build e2e

package security_test

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/familiarcat/aegis/pkg/securitysdk"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

/*
 * Common constants and helper functions for security service end-to-end
 * tests: image build, container setup, account setup and assertions.
 */

const (
	testImageName = "aegis-security-test:latest"

	testPassword = "Correct-Horse-9"
)

// TestMain builds the Docker image once before all tests and removes it
// after they complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building Security Service Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up Security Service Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/security/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// setupSecurityContainer starts the service with relaxed rate limits and
// returns the base URL. overrides replace or extend the default environment.
func setupSecurityContainer(t *testing.T, overrides map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	env := map[string]string{
		"ENV":                    "test",
		"LOG_LEVEL":              "info",
		"LOG_FORMAT":             "json",
		"STORE_DRIVER":           "sqlite",
		"PASSWORD_HASH_COST":     "10",
		"RATELIMIT_WINDOW":       "1m",
		"RATELIMIT_MAX_REQUESTS": "1000",
		"SECURITY_ADMIN_USERS":   "root",
	}
	maps.Copy(env, overrides)

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8080/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8080/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8080")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// registerAndLogin creates an account and returns a logged-in session.
func registerAndLogin(t *testing.T, client *securitysdk.SDKClient, username string) *securitysdk.Session {
	t.Helper()
	ctx := context.Background()

	user, err := client.Register(ctx, securitysdk.RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: testPassword,
	})
	require.NoError(t, err, "Register should succeed")
	require.NotEmpty(t, user.ID)

	session, err := client.Login(ctx, securitysdk.LoginRequest{Identifier: username, Password: testPassword})
	require.NoError(t, err, "Login should succeed")
	require.NotEmpty(t, session.Token())

	return session
}

// assertAPIError verifies err is an API error with the given status and code.
func assertAPIError(t *testing.T, err error, status int, code string) *securitysdk.APIError {
	t.Helper()
	var apiErr *securitysdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.StatusCode, "unexpected status for %s", apiErr.Error())
	require.Equal(t, code, apiErr.Code)
	return apiErr
}

// assertHealthy verifies a health check response is OK.
func assertHealthy(t *testing.T, health *securitysdk.HealthResponse, err error) {
	t.Helper()
	require.NoError(t, err)
	require.NotNil(t, health)
	require.Equal(t, "ok", health.Status)
}
