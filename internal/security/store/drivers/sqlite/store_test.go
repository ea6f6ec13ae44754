package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/internal/security/store/drivers/sqlite"
	"github.com/familiarcat/aegis/internal/security/store/storetest"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()

	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore(t *testing.T) {
	t.Parallel()

	storetest.Run(t, func(t *testing.T) store.Store { return newStore(t) })
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestFileDatabasePersists(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "security.db")
	u := storetest.NewUser("persisted")

	s, err := sqlite.NewStore(path)
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Users().CreateUser(ctx, u))
	require.NoError(t, s.Close())

	s, err = sqlite.NewStore(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.ApplyMigrations())

	got, err := s.Users().GetUserByUsername(ctx, "persisted")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}

func TestSessionRequiresExistingUser(t *testing.T) {
	t.Parallel()

	s := newStore(t)
	err := s.Sessions().CreateSession(context.Background(), storetest.NewSession("missing-user"))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentLoginFailures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newStore(t)
	u := storetest.NewUser("racer")
	require.NoError(t, s.Users().CreateUser(ctx, u))

	now := time.Now()
	errs := make(chan error, 20)
	var wg sync.WaitGroup
	for range 20 {
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
	require.Equal(t, 15, locked)
	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, 5, got.FailedAttempts)
}
