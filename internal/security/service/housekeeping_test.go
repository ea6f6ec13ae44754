package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeepingRunOnce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newTestEnv(t)
	env.api.BlockDuration = time.Minute
	u := env.register(t, "alice")

	_, _, err := env.sessions.CreateSession(ctx, u, "10.0.0.1", "cli")
	require.NoError(t, err)
	env.api.CheckRateLimit("10.0.0.1")
	env.api.Block("10.0.0.2", "manual")

	hk := NewHousekeepingService(env.sessions, env.api, env.auth, nil, nil, time.Minute)
	hk.Now = env.clock.Now

	res := hk.RunOnce(ctx)
	require.Zero(t, res.ExpiredSessions)
	require.Zero(t, res.ExpiredRateLimit)
	require.Zero(t, res.ExpiredBlocks)

	env.clock.Advance(time.Hour)
	res = hk.RunOnce(ctx)
	require.Equal(t, 1, res.ExpiredSessions)
	require.Equal(t, 1, res.ExpiredRateLimit)
	require.Equal(t, 1, res.ExpiredBlocks)
	require.Zero(t, res.Failures)
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	hk := NewHousekeepingService(env.sessions, nil, nil, nil, nil, 0)
	require.Equal(t, DefaultHousekeepingInterval, hk.Interval)

	hk.Start()
	hk.Stop()
}
