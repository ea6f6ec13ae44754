package service

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/familiarcat/aegis/internal/security/audit"
	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/metrics"
	"github.com/familiarcat/aegis/internal/security/ratelimit"
	"github.com/familiarcat/aegis/internal/security/threat"
	"github.com/familiarcat/aegis/pkg/slogx"
	"github.com/familiarcat/aegis/pkg/syncx"
)

// BlockedSource is an entry of the block set. A zero Until means the block
// lasts until an administrator lifts it.
type BlockedSource struct {
	Address   string    `json:"address"`
	Reason    string    `json:"reason"`
	RiskScore int       `json:"risk_score"`
	Since     time.Time `json:"since"`
	Until     time.Time `json:"until,omitzero"`
}

func (b BlockedSource) activeAt(now time.Time) bool {
	return b.Until.IsZero() || now.Before(b.Until)
}

// Decision is the audited outcome of one inbound request.
type Decision struct {
	Allowed    bool                   `json:"allowed"`
	Status     domain.AuditStatus     `json:"status"`
	RateLimit  domain.RateLimitResult `json:"rate_limit"`
	Assessment threat.Assessment      `json:"assessment"`
	AuditID    string                 `json:"audit_id"`
}

// APISecurityService composes the rate limiter and the threat detector into
// one decision per request and keeps the block set.
type APISecurityService struct {
	Limiter  *ratelimit.FixedWindow
	Detector *threat.Detector
	Audit    *audit.Log
	Metrics  *metrics.Metrics
	Logger   *slog.Logger

	// BlockDuration bounds automatic blocks. Zero blocks until Unblock.
	BlockDuration time.Duration

	Now func() time.Time

	blocksOnce sync.Once
	blocked    *syncx.ShardedMap[BlockedSource]
}

func (s *APISecurityService) blocks() *syncx.ShardedMap[BlockedSource] {
	s.blocksOnce.Do(func() {
		s.blocked = syncx.NewShardedMap[BlockedSource]()
	})
	return s.blocked
}

// CheckRateLimit consumes one request from identifier's window.
func (s *APISecurityService) CheckRateLimit(identifier string) domain.RateLimitResult {
	res := s.Limiter.Allow(identifier, nowOr(s.Now))
	if !res.Allowed {
		s.Metrics.IncrementRateLimitRejected()
	}
	return res
}

// ScoreRequest scores req and, when the score reaches the block threshold,
// adds the source address to the block set.
func (s *APISecurityService) ScoreRequest(req threat.Request) threat.Assessment {
	return s.score(req, nowOr(s.Now))
}

func (s *APISecurityService) score(req threat.Request, now time.Time) threat.Assessment {
	a := s.Detector.Score(req, now)
	s.Metrics.IncrementThreatFlags(a.Flags)
	if a.Block && req.SourceAddr != "" {
		s.block(req.SourceAddr, "risk score "+strconv.Itoa(a.RiskScore), a.RiskScore, now)
	}
	return a
}

// IsBlocked reports whether addr is in the block set.
func (s *APISecurityService) IsBlocked(addr string) bool {
	return s.isBlockedAt(addr, nowOr(s.Now))
}

func (s *APISecurityService) isBlockedAt(addr string, now time.Time) bool {
	b, ok := s.blocks().Load(addr)
	return ok && b.activeAt(now)
}

// Block adds addr to the block set by hand.
func (s *APISecurityService) Block(addr, reason string) {
	s.block(addr, reason, 0, nowOr(s.Now))
}

func (s *APISecurityService) block(addr, reason string, score int, now time.Time) {
	b := BlockedSource{Address: addr, Reason: reason, RiskScore: score, Since: now}
	if s.BlockDuration > 0 {
		b.Until = now.Add(s.BlockDuration)
	}
	s.blocks().Store(addr, b)
	s.Metrics.SetBlockedSources(s.blocks().Len())
	s.logger().Warn("source blocked", "source_addr", addr, "reason", reason, "risk_score", score)
}

// Unblock lifts a block and reports whether one existed.
func (s *APISecurityService) Unblock(addr string) bool {
	ok := s.blocks().Delete(addr)
	if ok {
		s.Metrics.SetBlockedSources(s.blocks().Len())
		s.logger().Info("source unblocked", "source_addr", addr)
	}
	return ok
}

// BlockedAddresses lists active blocks ordered by address.
func (s *APISecurityService) BlockedAddresses() []BlockedSource {
	now := nowOr(s.Now)
	out := []BlockedSource{}
	s.blocks().Range(func(_ string, b BlockedSource) bool {
		if b.activeAt(now) {
			out = append(out, b)
		}
		return true
	})
	slices.SortFunc(out, func(a, b BlockedSource) int { return strings.Compare(a.Address, b.Address) })
	return out
}

// PurgeExpiredBlocks drops timed blocks that have run out.
func (s *APISecurityService) PurgeExpiredBlocks(now time.Time) int {
	n := s.blocks().DeleteFunc(func(_ string, b BlockedSource) bool {
		return !b.activeAt(now)
	})
	if n > 0 {
		s.Metrics.SetBlockedSources(s.blocks().Len())
	}
	return n
}

// RecentAudits returns up to n audit entries, newest first.
func (s *APISecurityService) RecentAudits(n int) []domain.SecurityAudit {
	return s.Audit.Recent(n)
}

// Evaluate runs the full request pipeline: block set, rate limit, threat
// score. Every decision is appended to the audit log. A rejected request
// returns ErrSuspiciousRequest or a *RateLimitError alongside the decision.
func (s *APISecurityService) Evaluate(ctx context.Context, req threat.Request) (Decision, error) {
	now := nowOr(s.Now)
	l := slogx.FromContext(ctx)

	var d Decision
	record := func(status domain.AuditStatus) {
		d.Status = status
		d.Allowed = status == domain.AuditAllowed || status == domain.AuditFlagged
		entry := s.Audit.Append(domain.SecurityAudit{
			Timestamp:  now,
			SourceAddr: req.SourceAddr,
			UserAgent:  req.UserAgent,
			Method:     req.Method,
			Endpoint:   req.Endpoint,
			Status:     status,
			Flags:      d.Assessment.Flags,
			RiskScore:  d.Assessment.RiskScore,
		})
		d.AuditID = entry.ID
		s.Metrics.IncrementDecision(string(status))
	}

	if s.isBlockedAt(req.SourceAddr, now) {
		record(domain.AuditBlocked)
		l.Info("request from blocked source", "source_addr", req.SourceAddr, "endpoint", req.Endpoint)
		return d, ErrSuspiciousRequest
	}

	d.RateLimit = s.Limiter.Allow(req.SourceAddr, now)
	if !d.RateLimit.Allowed {
		s.Metrics.IncrementRateLimitRejected()
		record(domain.AuditRateLimited)
		l.Info("rate limit exceeded", "source_addr", req.SourceAddr, "retry_after", d.RateLimit.RetryAfter)
		return d, &RateLimitError{RetryAfter: d.RateLimit.RetryAfter}
	}

	d.Assessment = s.score(req, now)
	switch {
	case d.Assessment.Block:
		record(domain.AuditBlocked)
		return d, ErrSuspiciousRequest
	case d.Assessment.Suspicious:
		record(domain.AuditFlagged)
		l.Info("suspicious request", "source_addr", req.SourceAddr, "flags", d.Assessment.Flags, "risk_score", d.Assessment.RiskScore)
	default:
		record(domain.AuditAllowed)
	}
	return d, nil
}

func (s *APISecurityService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
