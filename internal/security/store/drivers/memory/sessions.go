package memory

import (
	"context"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/store"
)

type sessionsRepo struct {
	s *Store
}

func (r *sessionsRepo) CreateSession(_ context.Context, sess domain.Session) error {
	_, err := r.s.sessions.Update(sess.ID, func(_ domain.Session, exists bool) (domain.Session, error) {
		if exists {
			return sess, store.ErrAlreadyExists
		}
		sess.Token = ""
		return sess, nil
	})
	return err
}

func (r *sessionsRepo) GetSession(_ context.Context, id string) (domain.Session, error) {
	sess, ok := r.s.sessions.Load(id)
	if !ok {
		return domain.Session{}, store.ErrNotFound
	}
	return sess, nil
}

func (r *sessionsRepo) TouchSession(_ context.Context, id string, now time.Time) error {
	_, err := r.s.sessions.Update(id, func(sess domain.Session, ok bool) (domain.Session, error) {
		if !ok {
			return sess, store.ErrNotFound
		}
		sess.LastActivity = now
		return sess, nil
	})
	return err
}

func (r *sessionsRepo) DeleteSession(_ context.Context, id string) (bool, error) {
	return r.s.sessions.Delete(id), nil
}

func (r *sessionsRepo) DeleteUserSessions(_ context.Context, userID string) (int, error) {
	return r.s.sessions.DeleteFunc(func(_ string, sess domain.Session) bool {
		return sess.UserID == userID
	}), nil
}

func (r *sessionsRepo) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	return r.s.sessions.DeleteFunc(func(_ string, sess domain.Session) bool {
		return !sess.IsValid(now)
	}), nil
}

func (r *sessionsRepo) CountActiveSessions(_ context.Context, now time.Time) (int, error) {
	n := 0
	r.s.sessions.Range(func(_ string, sess domain.Session) bool {
		if sess.IsValid(now) {
			n++
		}
		return true
	})
	return n, nil
}
