// Package syncx holds concurrency helpers shared by the in-memory stores.
package syncx

import "sync"

const shardCount = 32

// ShardedMap is a string-keyed map split over a fixed number of shards, each
// with its own lock. Operations on one key are serialised; unrelated keys
// rarely contend.
type ShardedMap[V any] struct {
	shards [shardCount]mapShard[V]
}

type mapShard[V any] struct {
	mu sync.RWMutex
	m  map[string]V
}

func NewShardedMap[V any]() *ShardedMap[V] {
	s := &ShardedMap[V]{}
	for i := range s.shards {
		s.shards[i].m = make(map[string]V)
	}
	return s
}

func (s *ShardedMap[V]) shard(key string) *mapShard[V] {
	return &s.shards[ShardFor(key)]
}

func (s *ShardedMap[V]) Load(key string) (V, bool) {
	sh := s.shard(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	v, ok := sh.m[key]
	return v, ok
}

func (s *ShardedMap[V]) Store(key string, v V) {
	sh := s.shard(key)
	sh.mu.Lock()
	sh.m[key] = v
	sh.mu.Unlock()
}

// Delete removes key and reports whether it was present.
func (s *ShardedMap[V]) Delete(key string) bool {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	_, ok := sh.m[key]
	delete(sh.m, key)
	return ok
}

// Update runs fn with the current value under the key's shard lock and
// stores the result. If fn returns an error nothing is stored.
func (s *ShardedMap[V]) Update(key string, fn func(cur V, ok bool) (V, error)) (V, error) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	cur, ok := sh.m[key]
	next, err := fn(cur, ok)
	if err != nil {
		var zero V
		return zero, err
	}
	sh.m[key] = next
	return next, nil
}

// WithShard runs fn with exclusive access to the shard that owns key.
// fn may read and mutate any entry of that shard.
func (s *ShardedMap[V]) WithShard(key string, fn func(m map[string]V)) {
	sh := s.shard(key)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	fn(sh.m)
}

// Range calls fn for every entry, one shard at a time, until fn returns false.
func (s *ShardedMap[V]) Range(fn func(key string, v V) bool) {
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		for k, v := range sh.m {
			if !fn(k, v) {
				sh.mu.RUnlock()
				return
			}
		}
		sh.mu.RUnlock()
	}
}

// DeleteFunc removes every entry for which del returns true and returns the count.
func (s *ShardedMap[V]) DeleteFunc(del func(key string, v V) bool) int {
	removed := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for k, v := range sh.m {
			if del(k, v) {
				delete(sh.m, k)
				removed++
			}
		}
		sh.mu.Unlock()
	}
	return removed
}

func (s *ShardedMap[V]) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.m)
		sh.mu.RUnlock()
	}
	return n
}

// ShardFor returns the shard index for key. Empty keys map to shard 0.
func ShardFor(key string) int {
	if key == "" {
		return 0
	}
	return int(hashString(key) % shardCount)
}

// hashString is a djb2-style hash, good enough for shard selection.
func hashString(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*31 + uint32(s[i])
	}
	return h
}
