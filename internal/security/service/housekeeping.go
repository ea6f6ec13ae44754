package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/familiarcat/aegis/internal/security/metrics"
)

const DefaultHousekeepingInterval = 5 * time.Minute

// HousekeepingResult counts what one sweep removed.
type HousekeepingResult struct {
	ExpiredSessions  int
	ExpiredRateLimit int
	ExpiredBlocks    int
	ExpiredTickets   int
	Failures         int
}

// HousekeepingService periodically sweeps expired sessions, rate-limit
// windows, timed blocks and spent MFA tickets. Nil dependencies are skipped.
type HousekeepingService struct {
	Sessions    *SessionService
	APISecurity *APISecurityService
	Auth        *AuthService
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Interval    time.Duration
	Now         func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping worker. A non-positive
// interval falls back to DefaultHousekeepingInterval.
func NewHousekeepingService(sessions *SessionService, api *APISecurityService, auth *AuthService, m *metrics.Metrics, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HousekeepingService{
		Sessions:    sessions,
		APISecurity: api,
		Auth:        auth,
		Metrics:     m,
		Logger:      logger,
		Interval:    interval,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start runs the worker in the background. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())

	for {
		select {
		case <-ticker.C:
			s.RunOnce(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single sweep. Each step is independent: a failure in
// one does not stop the others.
func (s *HousekeepingService) RunOnce(ctx context.Context) HousekeepingResult {
	start := time.Now()
	now := nowOr(s.Now)
	var res HousekeepingResult

	if s.Sessions != nil {
		n, err := s.Sessions.CleanupExpiredSessions(ctx)
		if err != nil {
			s.Logger.Error("failed to delete expired sessions", "error", err)
			res.Failures++
		} else {
			res.ExpiredSessions = n
		}

		active, err := s.Sessions.CountActiveSessions(ctx)
		if err != nil {
			s.Logger.Error("failed to count active sessions", "error", err)
			res.Failures++
		} else {
			s.Metrics.SetActiveSessions(active)
		}
	}

	if s.APISecurity != nil {
		res.ExpiredRateLimit = s.APISecurity.Limiter.Sweep(now)
		res.ExpiredBlocks = s.APISecurity.PurgeExpiredBlocks(now)
	}

	if s.Auth != nil {
		res.ExpiredTickets = s.Auth.SweepTickets(now)
	}

	status := "success"
	if res.Failures > 0 {
		status = "partial"
	}
	s.Metrics.IncrementHousekeepingRuns(status)
	s.Metrics.ObserveHousekeepingDuration(time.Since(start).Seconds())

	s.Logger.Info("housekeeping cleanup completed",
		"expired_sessions", res.ExpiredSessions,
		"expired_rate_limits", res.ExpiredRateLimit,
		"expired_blocks", res.ExpiredBlocks,
		"expired_tickets", res.ExpiredTickets,
		"failures", res.Failures,
	)
	return res
}
