package audit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func entry(src string, at time.Time, status domain.AuditStatus, flags ...string) domain.SecurityAudit {
	return domain.SecurityAudit{
		Timestamp:  at,
		SourceAddr: src,
		Method:     "GET",
		Endpoint:   "/",
		Status:     status,
		Flags:      flags,
	}
}

func TestAppendAssignsID(t *testing.T) {
	t.Parallel()

	l := New(4)
	e := l.Append(entry("a", t0, domain.AuditAllowed))
	require.NotEmpty(t, e.ID)

	kept := l.Append(domain.SecurityAudit{ID: "fixed", Timestamp: t0})
	require.Equal(t, "fixed", kept.ID)
}

func TestRingEvictsOldest(t *testing.T) {
	t.Parallel()

	l := New(3)
	for i := 0; i < 5; i++ {
		l.Append(entry(fmt.Sprintf("src-%d", i), t0.Add(time.Duration(i)*time.Second), domain.AuditAllowed))
	}

	require.Equal(t, 3, l.Len())
	require.Equal(t, uint64(5), l.Total())

	recent := l.Recent(0)
	require.Len(t, recent, 3)
	require.Equal(t, "src-4", recent[0].SourceAddr)
	require.Equal(t, "src-3", recent[1].SourceAddr)
	require.Equal(t, "src-2", recent[2].SourceAddr)

	require.Len(t, l.Recent(2), 2)
	require.Len(t, l.Recent(10), 3)
}

func TestCountSince(t *testing.T) {
	t.Parallel()

	l := New(0)
	require.Equal(t, DefaultCapacity, l.Capacity())

	for i := 0; i < 120; i++ {
		l.Append(entry("10.0.0.1", t0.Add(time.Duration(i)*time.Second), domain.AuditAllowed))
		l.Append(entry("10.0.0.2", t0.Add(time.Duration(i)*time.Second), domain.AuditAllowed))
	}

	now := t0.Add(119 * time.Second)
	require.Equal(t, 60, l.CountSince("10.0.0.1", now.Add(-59*time.Second)))
	require.Equal(t, 120, l.CountSince("10.0.0.2", t0))
	require.Zero(t, l.CountSince("10.0.0.3", t0))
}

func TestStats(t *testing.T) {
	t.Parallel()

	l := New(10)
	l.Append(entry("a", t0, domain.AuditAllowed))
	l.Append(entry("a", t0, domain.AuditFlagged, "sql_injection", "suspicious_user_agent"))
	l.Append(entry("b", t0, domain.AuditBlocked, "sql_injection"))

	st := l.Stats()
	require.Equal(t, 3, st.Retained)
	require.Equal(t, 2, st.Sources)
	require.Equal(t, 1, st.ByStatus[domain.AuditFlagged])
	require.Equal(t, 2, st.ByFlag["sql_injection"])
}

func TestConcurrentAppend(t *testing.T) {
	t.Parallel()

	l := New(100)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				l.Append(entry("x", t0, domain.AuditAllowed))
				_ = l.Recent(5)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 100, l.Len())
	require.Equal(t, uint64(1000), l.Total())
}
