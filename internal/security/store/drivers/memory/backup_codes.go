package memory

import (
	"context"
	"errors"
)

type backupCodesRepo struct {
	s *Store
}

var errNoCode = errors.New("no such backup code")

func (r *backupCodesRepo) ReplaceBackupCodes(_ context.Context, userID string, hashes []string) error {
	set := make(map[string]struct{}, len(hashes))
	for _, h := range hashes {
		set[h] = struct{}{}
	}
	r.s.backupCodes.Store(userID, set)
	return nil
}

func (r *backupCodesRepo) ConsumeBackupCode(_ context.Context, userID, hash string) (bool, error) {
	_, err := r.s.backupCodes.Update(userID, func(set map[string]struct{}, ok bool) (map[string]struct{}, error) {
		if !ok {
			return set, errNoCode
		}
		if _, found := set[hash]; !found {
			return set, errNoCode
		}
		// Copy on write: readers hold the old map outside the shard lock.
		next := make(map[string]struct{}, len(set)-1)
		for h := range set {
			if h != hash {
				next[h] = struct{}{}
			}
		}
		return next, nil
	})
	if errors.Is(err, errNoCode) {
		return false, nil
	}
	return err == nil, err
}

func (r *backupCodesRepo) CountBackupCodes(_ context.Context, userID string) (int, error) {
	set, _ := r.s.backupCodes.Load(userID)
	return len(set), nil
}

func (r *backupCodesRepo) DeleteAllBackupCodes(_ context.Context, userID string) error {
	r.s.backupCodes.Delete(userID)
	return nil
}
