// Package audit keeps a bounded, append-only trail of security decisions.
package audit

import (
	"sync"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/google/uuid"
)

const DefaultCapacity = 10000

// Log is a ring buffer; once full, each append evicts the oldest entry.
type Log struct {
	mu    sync.RWMutex
	buf   []domain.SecurityAudit
	next  int
	full  bool
	total uint64
}

func New(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{buf: make([]domain.SecurityAudit, capacity)}
}

// Append stores e, assigning an ID when it has none, and returns the stored entry.
func (l *Log) Append(e domain.SecurityAudit) domain.SecurityAudit {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	l.mu.Lock()
	l.buf[l.next] = e
	l.next = (l.next + 1) % len(l.buf)
	if l.next == 0 {
		l.full = true
	}
	l.total++
	l.mu.Unlock()

	return e
}

// Len is the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lenLocked()
}

// Total counts every append, including evicted entries.
func (l *Log) Total() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total
}

func (l *Log) Capacity() int { return len(l.buf) }

// Recent returns up to n entries, newest first. n <= 0 returns all of them.
func (l *Log) Recent(n int) []domain.SecurityAudit {
	l.mu.RLock()
	defer l.mu.RUnlock()

	size := l.lenLocked()
	if n <= 0 || n > size {
		n = size
	}

	out := make([]domain.SecurityAudit, 0, n)
	l.eachNewest(func(e domain.SecurityAudit) bool {
		out = append(out, e)
		return len(out) < n
	})
	return out
}

// CountSince counts entries from source with a timestamp at or after since.
func (l *Log) CountSince(source string, since time.Time) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count := 0
	l.eachNewest(func(e domain.SecurityAudit) bool {
		if e.Timestamp.Before(since) {
			return false
		}
		if e.SourceAddr == source {
			count++
		}
		return true
	})
	return count
}

// Stats summarises the retained entries.
type Stats struct {
	Retained int                        `json:"retained"`
	Total    uint64                     `json:"total"`
	ByStatus map[domain.AuditStatus]int `json:"by_status"`
	ByFlag   map[string]int             `json:"by_flag"`
	Sources  int                        `json:"distinct_sources"`
}

func (l *Log) Stats() Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	st := Stats{
		Retained: l.lenLocked(),
		Total:    l.total,
		ByStatus: make(map[domain.AuditStatus]int),
		ByFlag:   make(map[string]int),
	}
	sources := make(map[string]struct{})
	l.eachNewest(func(e domain.SecurityAudit) bool {
		st.ByStatus[e.Status]++
		for _, f := range e.Flags {
			st.ByFlag[f]++
		}
		sources[e.SourceAddr] = struct{}{}
		return true
	})
	st.Sources = len(sources)
	return st
}

func (l *Log) lenLocked() int {
	if l.full {
		return len(l.buf)
	}
	return l.next
}

// eachNewest walks retained entries newest first until fn returns false.
func (l *Log) eachNewest(fn func(e domain.SecurityAudit) bool) {
	size := l.lenLocked()
	for i := 0; i < size; i++ {
		idx := (l.next - 1 - i + len(l.buf)) % len(l.buf)
		if !fn(l.buf[idx]) {
			return
		}
	}
}
