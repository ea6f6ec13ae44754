package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the security collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	AuthAttemptsTotal       *prometheus.CounterVec
	AuthLockoutsTotal       prometheus.Counter
	MFAVerificationsTotal   *prometheus.CounterVec
	SessionsCreatedTotal    prometheus.Counter
	SessionsActive          prometheus.Gauge
	SessionsExpiredTotal    prometheus.Counter
	RateLimitRejectedTotal  prometheus.Counter
	ThreatFlagsTotal        *prometheus.CounterVec
	RequestDecisionsTotal   *prometheus.CounterVec
	BlockedSources          prometheus.Gauge
	DLPFindingsTotal        *prometheus.CounterVec
	HousekeepingRunsTotal   *prometheus.CounterVec
	HousekeepingDurationSec prometheus.Histogram
}

// New registers every collector with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		AuthAttemptsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_auth_attempts_total",
			Help: "Authentication attempts by outcome",
		}, []string{"outcome"}),
		AuthLockoutsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "aegis_auth_lockouts_total",
			Help: "Accounts locked after repeated failed logins",
		}),
		MFAVerificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_mfa_verifications_total",
			Help: "Second-factor verifications by method and outcome",
		}, []string{"method", "outcome"}),
		SessionsCreatedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "aegis_sessions_created_total",
			Help: "Sessions issued",
		}),
		SessionsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_sessions_active",
			Help: "Unexpired sessions as of the last housekeeping run",
		}),
		SessionsExpiredTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "aegis_sessions_expired_total",
			Help: "Expired sessions removed by housekeeping",
		}),
		RateLimitRejectedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "aegis_ratelimit_rejected_total",
			Help: "Requests rejected by the fixed-window limiter",
		}),
		ThreatFlagsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_threat_flags_total",
			Help: "Threat signals raised, by flag",
		}, []string{"flag"}),
		RequestDecisionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_request_decisions_total",
			Help: "API security decisions, by audit status",
		}, []string{"status"}),
		BlockedSources: f.NewGauge(prometheus.GaugeOpts{
			Name: "aegis_blocked_sources",
			Help: "Source addresses currently in the block set",
		}),
		DLPFindingsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_dlp_findings_total",
			Help: "Sensitive-data findings by category and severity",
		}, []string{"category", "severity"}),
		HousekeepingRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "aegis_housekeeping_runs_total",
			Help: "Housekeeping runs by status",
		}, []string{"status"}),
		HousekeepingDurationSec: f.NewHistogram(prometheus.HistogramOpts{
			Name: "aegis_housekeeping_duration_seconds",
			Help: "Duration of housekeeping runs in seconds",
		}),
	}
}

func (m *Metrics) IncrementAuthAttempt(outcome string) {
	if m == nil {
		return
	}
	m.AuthAttemptsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementLockouts() {
	if m == nil {
		return
	}
	m.AuthLockoutsTotal.Inc()
}

func (m *Metrics) IncrementMFAVerification(method, outcome string) {
	if m == nil {
		return
	}
	m.MFAVerificationsTotal.WithLabelValues(method, outcome).Inc()
}

func (m *Metrics) IncrementSessionsCreated() {
	if m == nil {
		return
	}
	m.SessionsCreatedTotal.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsActive.Set(float64(n))
}

func (m *Metrics) AddExpiredSessions(n int) {
	if m == nil {
		return
	}
	m.SessionsExpiredTotal.Add(float64(n))
}

func (m *Metrics) IncrementRateLimitRejected() {
	if m == nil {
		return
	}
	m.RateLimitRejectedTotal.Inc()
}

func (m *Metrics) IncrementThreatFlags(flags []string) {
	if m == nil {
		return
	}
	for _, f := range flags {
		m.ThreatFlagsTotal.WithLabelValues(f).Inc()
	}
}

func (m *Metrics) IncrementDecision(status string) {
	if m == nil {
		return
	}
	m.RequestDecisionsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SetBlockedSources(n int) {
	if m == nil {
		return
	}
	m.BlockedSources.Set(float64(n))
}

func (m *Metrics) IncrementDLPFinding(category, severity string) {
	if m == nil {
		return
	}
	m.DLPFindingsTotal.WithLabelValues(category, severity).Inc()
}

func (m *Metrics) IncrementHousekeepingRuns(status string) {
	if m == nil {
		return
	}
	m.HousekeepingRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveHousekeepingDuration(seconds float64) {
	if m == nil {
		return
	}
	m.HousekeepingDurationSec.Observe(seconds)
}
