package memory

import (
	"context"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/store"
)

type usersRepo struct {
	s *Store
}

func (r *usersRepo) CreateUser(_ context.Context, u domain.User) error {
	r.s.idxMu.Lock()
	defer r.s.idxMu.Unlock()

	if _, taken := r.s.byUsername[u.Username]; taken {
		return store.ErrAlreadyExists
	}
	if _, taken := r.s.byEmail[u.Email]; taken {
		return store.ErrAlreadyExists
	}
	if _, taken := r.s.users.Load(u.ID); taken {
		return store.ErrAlreadyExists
	}

	r.s.users.Store(u.ID, u)
	r.s.byUsername[u.Username] = u.ID
	r.s.byEmail[u.Email] = u.ID
	return nil
}

func (r *usersRepo) GetUserByID(_ context.Context, id string) (domain.User, error) {
	u, ok := r.s.users.Load(id)
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (domain.User, error) {
	r.s.idxMu.RLock()
	id, ok := r.s.byUsername[username]
	r.s.idxMu.RUnlock()
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return r.GetUserByID(ctx, id)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	r.s.idxMu.RLock()
	id, ok := r.s.byEmail[email]
	r.s.idxMu.RUnlock()
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return r.GetUserByID(ctx, id)
}

// update applies fn to the user under its shard lock. When fn fails the
// unmodified user is returned with the error.
func (r *usersRepo) update(id string, now time.Time, fn func(u *domain.User) error) (domain.User, error) {
	var cur domain.User
	next, err := r.s.users.Update(id, func(u domain.User, ok bool) (domain.User, error) {
		if !ok {
			return u, store.ErrNotFound
		}
		cur = u
		if err := fn(&u); err != nil {
			return u, err
		}
		u.UpdatedAt = now
		return u, nil
	})
	if err != nil {
		return cur, err
	}
	return next, nil
}

func (r *usersRepo) RecordLoginFailure(_ context.Context, id string, maxAttempts int, lockout time.Duration, now time.Time) (domain.User, error) {
	return r.update(id, now, func(u *domain.User) error {
		if u.IsLocked(now) {
			return store.ErrLocked
		}
		u.FailedAttempts++
		if u.FailedAttempts >= maxAttempts {
			until := now.Add(lockout)
			u.LockedUntil = &until
		}
		return nil
	})
}

func (r *usersRepo) RecordLoginSuccess(_ context.Context, id string, now time.Time) (domain.User, error) {
	return r.update(id, now, func(u *domain.User) error {
		if u.IsLocked(now) {
			return store.ErrLocked
		}
		u.FailedAttempts = 0
		u.LockedUntil = nil
		at := now
		u.LastLogin = &at
		return nil
	})
}

func (r *usersRepo) EnableMFA(_ context.Context, id, secret string, now time.Time) error {
	_, err := r.update(id, now, func(u *domain.User) error {
		if u.MFAEnabled {
			return store.ErrAlreadyExists
		}
		u.MFAEnabled = true
		u.MFASecret = secret
		return nil
	})
	return err
}

func (r *usersRepo) DisableMFA(_ context.Context, id string, now time.Time) error {
	_, err := r.update(id, now, func(u *domain.User) error {
		u.MFAEnabled = false
		u.MFASecret = ""
		return nil
	})
	return err
}

func (r *usersRepo) Stats(_ context.Context, now time.Time) (domain.UserStats, error) {
	var st domain.UserStats
	r.s.users.Range(func(_ string, u domain.User) bool {
		st.Total++
		if u.MFAEnabled {
			st.MFAEnabled++
		}
		if u.IsLocked(now) {
			st.Locked++
		}
		return true
	})
	return st, nil
}
