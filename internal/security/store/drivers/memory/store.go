// Package memory is the default in-process Store. State lives in sharded
// maps so that updates to one user or session never block another.
package memory

import (
	"context"
	"sync"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/pkg/syncx"
)

type Store struct {
	users       *syncx.ShardedMap[domain.User]
	sessions    *syncx.ShardedMap[domain.Session]
	backupCodes *syncx.ShardedMap[map[string]struct{}]

	// idxMu guards the uniqueness indexes below. It is only taken when a
	// user is created or looked up by name, never on the login hot path
	// after the user ID is known.
	idxMu      sync.RWMutex
	byUsername map[string]string
	byEmail    map[string]string
}

var _ store.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		users:       syncx.NewShardedMap[domain.User](),
		sessions:    syncx.NewShardedMap[domain.Session](),
		backupCodes: syncx.NewShardedMap[map[string]struct{}](),
		byUsername:  make(map[string]string),
		byEmail:     make(map[string]string),
	}
}

func (s *Store) Users() store.Users             { return &usersRepo{s: s} }
func (s *Store) Sessions() store.Sessions       { return &sessionsRepo{s: s} }
func (s *Store) BackupCodes() store.BackupCodes { return &backupCodesRepo{s: s} }

// ApplyMigrations is a no-op; the memory store has no schema.
func (s *Store) ApplyMigrations() error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
