package syncx

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShardForIsStable(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, ShardFor(""))
	for _, key := range []string{"alice", "10.0.0.1", "session-123"} {
		first := ShardFor(key)
		require.Equal(t, first, ShardFor(key))
		require.GreaterOrEqual(t, first, 0)
		require.Less(t, first, shardCount)
	}
}

func TestShardedMapBasics(t *testing.T) {
	t.Parallel()

	m := NewShardedMap[int]()
	_, ok := m.Load("a")
	require.False(t, ok)

	m.Store("a", 1)
	m.Store("b", 2)
	v, ok := m.Load("a")
	require.True(t, ok)
	require.Equal(t, 1, v)
	require.Equal(t, 2, m.Len())

	require.True(t, m.Delete("a"))
	require.False(t, m.Delete("a"))

	sum := 0
	m.Range(func(_ string, v int) bool {
		sum += v
		return true
	})
	require.Equal(t, 2, sum)
}

func TestShardedMapUpdateIsAtomic(t *testing.T) {
	t.Parallel()

	m := NewShardedMap[int]()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				_, _ = m.Update("counter", func(cur int, _ bool) (int, error) { return cur + 1, nil })
			}
		}()
	}
	wg.Wait()

	v, _ := m.Load("counter")
	require.Equal(t, 5000, v)
}

func TestShardedMapUpdateErrorLeavesValue(t *testing.T) {
	t.Parallel()

	m := NewShardedMap[string]()
	m.Store("k", "old")

	boom := errors.New("boom")
	_, err := m.Update("k", func(string, bool) (string, error) { return "new", boom })
	require.ErrorIs(t, err, boom)

	v, _ := m.Load("k")
	require.Equal(t, "old", v)
}

func TestShardedMapDeleteFunc(t *testing.T) {
	t.Parallel()

	m := NewShardedMap[int]()
	for i := range 10 {
		m.Store(string(rune('a'+i)), i)
	}

	removed := m.DeleteFunc(func(_ string, v int) bool { return v%2 == 0 })
	require.Equal(t, 5, removed)
	require.Equal(t, 5, m.Len())
}
