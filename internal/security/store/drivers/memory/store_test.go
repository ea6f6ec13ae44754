package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/internal/security/store/drivers/memory"
	"github.com/familiarcat/aegis/internal/security/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) store.Store {
		s := memory.NewStore()
		require.NoError(t, s.ApplyMigrations())
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestConcurrentLoginFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memory.NewStore()
	u := storetest.NewUser("racer")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	now := time.Now()
	errs := make(chan error, 50)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Users().RecordLoginFailure(ctx, u.ID, 5, time.Minute, now)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	locked := 0
	for err := range errs {
		if errors.Is(err, store.ErrLocked) {
			locked++
			continue
		}
		require.NoError(t, err)
	}
	require.Equal(t, 45, locked)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.FailedAttempts)
	require.True(t, got.IsLocked(now))
}
