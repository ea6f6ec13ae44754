package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/familiarcat/aegis/internal/security/audit"
	"github.com/familiarcat/aegis/internal/security/dlp"
	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/metrics"
	"github.com/familiarcat/aegis/internal/security/ratelimit"
	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/internal/security/threat"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/jwtx"
	"github.com/familiarcat/aegis/pkg/slogx"
	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/sync/errgroup"
)

// Subsystem names used in self tests and reports.
const (
	SubsystemAuth        = "auth"
	SubsystemAPISecurity = "api_security"
	SubsystemDLP         = "dlp"
)

// Recommendation priorities, highest first.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Recurring credential findings at or above this count trigger a key
// rotation recommendation.
const credentialFindingsRecurrence = 2

type OrchestratorConfig struct {
	EnableAuth        bool
	EnableAPISecurity bool
	EnableDLP         bool
}

// OrchestratorDeps are the subsystems the orchestrator fronts. Only the
// ones matching an enabled flag are required.
type OrchestratorDeps struct {
	Store       store.Store
	Auth        *AuthService
	Sessions    *SessionService
	MFA         *MFAService
	APISecurity *APISecurityService
	Scanner     *dlp.Scanner
	Metrics     *metrics.Metrics
	Now         func() time.Time
}

// Orchestrator is the single entry point over authentication, API security
// and data-loss prevention.
type Orchestrator struct {
	cfg  OrchestratorConfig
	deps OrchestratorDeps

	scans              atomic.Int64
	credentialFindings atomic.Int64
}

func NewOrchestrator(cfg OrchestratorConfig, deps OrchestratorDeps) (*Orchestrator, error) {
	if cfg.EnableAuth && (deps.Store == nil || deps.Auth == nil || deps.Sessions == nil || deps.MFA == nil) {
		return nil, errors.New("auth enabled without store, auth, session and mfa services")
	}
	if cfg.EnableAPISecurity && deps.APISecurity == nil {
		return nil, errors.New("api security enabled without api security service")
	}
	if cfg.EnableDLP && deps.Scanner == nil {
		return nil, errors.New("dlp enabled without scanner")
	}
	return &Orchestrator{cfg: cfg, deps: deps}, nil
}

// Enabled reports the on/off state of each subsystem.
func (o *Orchestrator) Enabled() map[string]bool {
	return map[string]bool{
		SubsystemAuth:        o.cfg.EnableAuth,
		SubsystemAPISecurity: o.cfg.EnableAPISecurity,
		SubsystemDLP:         o.cfg.EnableDLP,
	}
}

func (o *Orchestrator) now() time.Time { return nowOr(o.deps.Now) }

func (o *Orchestrator) requireAuth() error {
	if !o.cfg.EnableAuth {
		return fmt.Errorf("%w: %s", ErrSubsystemDisabled, SubsystemAuth)
	}
	return nil
}

func (o *Orchestrator) requireAPISecurity() error {
	if !o.cfg.EnableAPISecurity {
		return fmt.Errorf("%w: %s", ErrSubsystemDisabled, SubsystemAPISecurity)
	}
	return nil
}

func (o *Orchestrator) requireDLP() error {
	if !o.cfg.EnableDLP {
		return fmt.Errorf("%w: %s", ErrSubsystemDisabled, SubsystemDLP)
	}
	return nil
}

func (o *Orchestrator) Register(ctx context.Context, username, email, password string) (domain.User, error) {
	if err := o.requireAuth(); err != nil {
		return domain.User{}, err
	}
	return o.deps.Auth.Register(ctx, username, email, password)
}

func (o *Orchestrator) Authenticate(ctx context.Context, identifier, password, sourceAddr, clientID string) (*AuthResult, error) {
	if err := o.requireAuth(); err != nil {
		return nil, err
	}
	return o.deps.Auth.Authenticate(ctx, identifier, password, sourceAddr, clientID)
}

func (o *Orchestrator) VerifyMFA(ctx context.Context, userID, code string) error {
	if err := o.requireAuth(); err != nil {
		return err
	}
	return o.deps.Auth.VerifyMFA(ctx, userID, code)
}

func (o *Orchestrator) CompleteMFA(ctx context.Context, ticket, code, sourceAddr, clientID string) (*AuthResult, error) {
	if err := o.requireAuth(); err != nil {
		return nil, err
	}
	return o.deps.Auth.CompleteMFA(ctx, ticket, code, sourceAddr, clientID)
}

func (o *Orchestrator) Logout(ctx context.Context, sessionID string) (bool, error) {
	if err := o.requireAuth(); err != nil {
		return false, err
	}
	return o.deps.Auth.Logout(ctx, sessionID)
}

// ValidateToken reports an invalid token when auth is disabled.
func (o *Orchestrator) ValidateToken(ctx context.Context, token string) TokenValidation {
	if o.requireAuth() != nil {
		return TokenValidation{}
	}
	return o.deps.Sessions.ValidateToken(ctx, token)
}

// ValidateBearer lets the orchestrator back the authentication middleware.
func (o *Orchestrator) ValidateBearer(ctx context.Context, token string) (httpx.Principal, bool) {
	if o.requireAuth() != nil {
		return httpx.Principal{}, false
	}
	return o.deps.Sessions.ValidateBearer(ctx, token)
}

func (o *Orchestrator) EnableMFA(ctx context.Context, userID string) (domain.MFAChallenge, error) {
	if err := o.requireAuth(); err != nil {
		return domain.MFAChallenge{}, err
	}
	return o.deps.MFA.EnableMFA(ctx, userID)
}

func (o *Orchestrator) DisableMFA(ctx context.Context, userID, code string) error {
	if err := o.requireAuth(); err != nil {
		return err
	}
	return o.deps.MFA.DisableMFA(ctx, userID, code)
}

func (o *Orchestrator) RegenerateBackupCodes(ctx context.Context, userID, code string) ([]string, error) {
	if err := o.requireAuth(); err != nil {
		return nil, err
	}
	return o.deps.MFA.RegenerateBackupCodes(ctx, userID, code)
}

func (o *Orchestrator) CheckRateLimit(identifier string) (domain.RateLimitResult, error) {
	if err := o.requireAPISecurity(); err != nil {
		return domain.RateLimitResult{}, err
	}
	return o.deps.APISecurity.CheckRateLimit(identifier), nil
}

func (o *Orchestrator) ScoreRequest(req threat.Request) (threat.Assessment, error) {
	if err := o.requireAPISecurity(); err != nil {
		return threat.Assessment{}, err
	}
	return o.deps.APISecurity.ScoreRequest(req), nil
}

func (o *Orchestrator) IsBlocked(addr string) (bool, error) {
	if err := o.requireAPISecurity(); err != nil {
		return false, err
	}
	return o.deps.APISecurity.IsBlocked(addr), nil
}

// EvaluateRequest runs the API security pipeline for one request.
func (o *Orchestrator) EvaluateRequest(ctx context.Context, req threat.Request) (Decision, error) {
	if err := o.requireAPISecurity(); err != nil {
		return Decision{}, err
	}
	return o.deps.APISecurity.Evaluate(ctx, req)
}

func (o *Orchestrator) Unblock(addr string) (bool, error) {
	if err := o.requireAPISecurity(); err != nil {
		return false, err
	}
	return o.deps.APISecurity.Unblock(addr), nil
}

func (o *Orchestrator) BlockedAddresses() ([]BlockedSource, error) {
	if err := o.requireAPISecurity(); err != nil {
		return nil, err
	}
	return o.deps.APISecurity.BlockedAddresses(), nil
}

func (o *Orchestrator) RecentAudits(n int) ([]domain.SecurityAudit, error) {
	if err := o.requireAPISecurity(); err != nil {
		return nil, err
	}
	return o.deps.APISecurity.RecentAudits(n), nil
}

// ScanContent scans text and tracks credential findings for reporting.
func (o *Orchestrator) ScanContent(ctx context.Context, text string) (dlp.Result, error) {
	if err := o.requireDLP(); err != nil {
		return dlp.Result{}, err
	}

	res := o.deps.Scanner.Scan(text)
	o.scans.Add(1)
	for _, f := range res.Findings {
		o.deps.Metrics.IncrementDLPFinding(string(f.Category), f.Severity.String())
		if f.Category == dlp.CategoryCredential {
			o.credentialFindings.Add(1)
		}
	}
	if res.HasSensitiveData {
		slogx.FromContext(ctx).Info("sensitive data detected", "findings", len(res.Findings), "risk_score", res.RiskScore)
	}
	return res, nil
}

func (o *Orchestrator) ClassifyContent(_ context.Context, text string) (dlp.Classification, error) {
	if err := o.requireDLP(); err != nil {
		return dlp.Classification{}, err
	}
	return o.deps.Scanner.Classify(text), nil
}

// SelfTestResult holds the smoke-check outcome for one subsystem.
type SelfTestResult struct {
	Subsystem string   `json:"subsystem"`
	Enabled   bool     `json:"enabled"`
	Passed    int      `json:"passed"`
	Failed    int      `json:"failed"`
	Failures  []string `json:"failures,omitempty"`
}

type SelfTestReport struct {
	RanAt    time.Time        `json:"ran_at"`
	Results  []SelfTestResult `json:"results"`
	Passed   int              `json:"passed"`
	Failed   int              `json:"failed"`
	PassRate float64          `json:"pass_rate"`
}

type selfCheck struct {
	name string
	run  func(ctx context.Context) error
}

// RunSelfTests runs smoke checks against each enabled subsystem in
// parallel. It never touches persisted state.
func (o *Orchestrator) RunSelfTests(ctx context.Context) SelfTestReport {
	suites := []struct {
		subsystem string
		enabled   bool
		checks    func() []selfCheck
	}{
		{SubsystemAuth, o.cfg.EnableAuth, o.authChecks},
		{SubsystemAPISecurity, o.cfg.EnableAPISecurity, o.apiSecurityChecks},
		{SubsystemDLP, o.cfg.EnableDLP, o.dlpChecks},
	}

	results := make([]SelfTestResult, len(suites))
	g, gctx := errgroup.WithContext(ctx)
	for i, suite := range suites {
		results[i] = SelfTestResult{Subsystem: suite.subsystem, Enabled: suite.enabled}
		if !suite.enabled {
			continue
		}
		g.Go(func() error {
			r := &results[i]
			for _, c := range suite.checks() {
				if err := c.run(gctx); err != nil {
					r.Failed++
					r.Failures = append(r.Failures, c.name+": "+err.Error())
					continue
				}
				r.Passed++
			}
			return nil
		})
	}
	_ = g.Wait()

	rep := SelfTestReport{RanAt: o.now(), Results: results}
	for _, r := range results {
		rep.Passed += r.Passed
		rep.Failed += r.Failed
	}
	if total := rep.Passed + rep.Failed; total > 0 {
		rep.PassRate = float64(rep.Passed) / float64(total)
	}

	slogx.FromContext(ctx).Info("self tests completed", "passed", rep.Passed, "failed", rep.Failed)
	return rep
}

func (o *Orchestrator) authChecks() []selfCheck {
	return []selfCheck{
		{"password_hash_roundtrip", func(context.Context) error {
			const pw = "Self-Test-Passw0rd!"
			hash, err := o.deps.Auth.Hasher.Hash(pw)
			if err != nil {
				return err
			}
			if hash == pw {
				return errors.New("hash equals plaintext")
			}
			if o.deps.Auth.Hasher.Verify(pw, hash) != nil {
				return errors.New("correct password rejected")
			}
			if o.deps.Auth.Hasher.Verify(pw+"x", hash) == nil {
				return errors.New("wrong password accepted")
			}
			return nil
		}},
		{"totp_window", func(context.Context) error {
			key, err := totp.Generate(totp.GenerateOpts{Issuer: "self-test", AccountName: "self-test"})
			if err != nil {
				return err
			}
			t0 := time.Unix(1700000010, 0)
			code, err := totp.GenerateCodeCustom(key.Secret(), t0, totp.ValidateOpts{
				Period: totpPeriod, Digits: otp.DigitsSix, Algorithm: otp.AlgorithmSHA1,
			})
			if err != nil {
				return err
			}
			if !VerifyCodeAt(key.Secret(), code, t0.Add(totpPeriod*time.Second)) {
				return errors.New("adjacent step rejected")
			}
			if VerifyCodeAt(key.Secret(), code, t0.Add(2*totpPeriod*time.Second)) {
				return errors.New("code accepted two steps later")
			}
			return nil
		}},
		{"session_token_roundtrip", func(context.Context) error {
			signer := o.deps.Sessions.Signer
			now := o.now()
			tok, err := signer.Sign(jwtx.NewSessionClaims("self-test", "self-test", "fp", signer.Issuer(), now, now.Add(time.Minute)))
			if err != nil {
				return err
			}
			if _, err := signer.Verify(tok, jwtx.PurposeSession, now); err != nil {
				return err
			}
			if _, err := signer.Verify(tok, jwtx.PurposeSession, now.Add(2*time.Minute)); err == nil {
				return errors.New("expired token accepted")
			}
			return nil
		}},
		{"store_reachable", func(ctx context.Context) error {
			return o.deps.Store.Ping(ctx)
		}},
	}
}

func (o *Orchestrator) apiSecurityChecks() []selfCheck {
	return []selfCheck{
		{"rate_limit_boundary", func(context.Context) error {
			l := ratelimit.New(ratelimit.Config{Window: time.Minute, MaxRequests: 3})
			now := o.now()
			for i := range 3 {
				if r := l.Allow("self-test", now); !r.Allowed || r.Remaining != 2-i {
					return fmt.Errorf("request %d rejected", i+1)
				}
			}
			if r := l.Allow("self-test", now); r.Allowed || r.RetryAfter <= 0 {
				return errors.New("request over limit allowed")
			}
			return nil
		}},
		{"sql_injection_detected", func(context.Context) error {
			d := threat.NewDetector(o.deps.APISecurity.Detector.Config(), nil)
			a := d.Score(threat.Request{Method: "POST", Endpoint: "/login", Body: "' OR 1=1 --"}, o.now())
			if !a.Suspicious || !slices.Contains(a.Flags, string(threat.SQLInjection)) {
				return errors.New("sql injection not flagged")
			}
			return nil
		}},
		{"clean_request_allowed", func(context.Context) error {
			d := threat.NewDetector(o.deps.APISecurity.Detector.Config(), nil)
			a := d.Score(threat.Request{
				Method:    "GET",
				Endpoint:  "/v1/profile",
				UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
			}, o.now())
			if a.Suspicious {
				return fmt.Errorf("clean request flagged: %v", a.Flags)
			}
			return nil
		}},
	}
}

func (o *Orchestrator) dlpChecks() []selfCheck {
	return []selfCheck{
		{"card_detected", func(context.Context) error {
			res := o.deps.Scanner.Scan("4111-1111-1111-1111")
			if len(res.Findings) != 1 || res.Findings[0].Category != dlp.CategoryFinancial {
				return fmt.Errorf("expected one financial finding, got %d", len(res.Findings))
			}
			return nil
		}},
		{"clean_text", func(context.Context) error {
			if res := o.deps.Scanner.Scan("This is just normal text with no sensitive data"); res.HasSensitiveData {
				return errors.New("clean text flagged")
			}
			return nil
		}},
	}
}

type Recommendation struct {
	Priority  string `json:"priority"`
	Subsystem string `json:"subsystem"`
	Message   string `json:"message"`
}

type DLPStats struct {
	Scans              int64 `json:"scans"`
	CredentialFindings int64 `json:"credential_findings"`
}

// Report is the consolidated security posture.
type Report struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	Enabled         map[string]bool   `json:"enabled"`
	SelfTests       SelfTestReport    `json:"self_tests"`
	PassRate        float64           `json:"pass_rate"`
	Users           *domain.UserStats `json:"users,omitempty"`
	ActiveSessions  int               `json:"active_sessions"`
	Audit           *audit.Stats      `json:"audit,omitempty"`
	BlockedSources  int               `json:"blocked_sources"`
	DLP             *DLPStats         `json:"dlp,omitempty"`
	Recommendations []Recommendation  `json:"recommendations"`
}

// GenerateReport runs the self tests and combines them with live statistics
// into a report with recommendations ordered by priority.
func (o *Orchestrator) GenerateReport(ctx context.Context) (Report, error) {
	rep := Report{
		GeneratedAt: o.now(),
		Enabled:     o.Enabled(),
		SelfTests:   o.RunSelfTests(ctx),
	}
	rep.PassRate = rep.SelfTests.PassRate

	if o.cfg.EnableAuth {
		st, err := o.deps.Store.Users().Stats(ctx, rep.GeneratedAt)
		if err != nil {
			return Report{}, fmt.Errorf("failed to collect user stats: %w", err)
		}
		rep.Users = &st

		active, err := o.deps.Sessions.CountActiveSessions(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("failed to count sessions: %w", err)
		}
		rep.ActiveSessions = active
	}

	if o.cfg.EnableAPISecurity {
		st := o.deps.APISecurity.Audit.Stats()
		rep.Audit = &st
		rep.BlockedSources = len(o.deps.APISecurity.BlockedAddresses())
	}

	if o.cfg.EnableDLP {
		rep.DLP = &DLPStats{Scans: o.scans.Load(), CredentialFindings: o.credentialFindings.Load()}
	}

	rep.Recommendations = o.recommend(rep)
	return rep, nil
}

func (o *Orchestrator) recommend(rep Report) []Recommendation {
	var recs []Recommendation
	add := func(priority, subsystem, msg string) {
		recs = append(recs, Recommendation{Priority: priority, Subsystem: subsystem, Message: msg})
	}

	for _, name := range []string{SubsystemAuth, SubsystemAPISecurity, SubsystemDLP} {
		if !rep.Enabled[name] {
			add(PriorityHigh, name, "Enable the "+name+" subsystem.")
		}
	}

	for _, r := range rep.SelfTests.Results {
		if r.Failed > 0 {
			add(PriorityHigh, r.Subsystem, fmt.Sprintf("Investigate %d failing self test(s).", r.Failed))
		}
	}

	if u := rep.Users; u != nil && u.Total > 0 {
		switch adoption := u.MFAAdoption(); {
		case adoption < 0.5:
			add(PriorityHigh, SubsystemAuth, fmt.Sprintf("Enable MFA: only %.0f%% of users have it turned on.", adoption*100))
		case adoption < 1:
			add(PriorityMedium, SubsystemAuth, fmt.Sprintf("Enable MFA for the remaining %d user(s).", u.Total-u.MFAEnabled))
		}
		if u.Locked > 0 {
			add(PriorityMedium, SubsystemAuth, fmt.Sprintf("Review %d locked account(s) for brute-force activity.", u.Locked))
		}
	}

	if d := rep.DLP; d != nil && d.CredentialFindings >= credentialFindingsRecurrence {
		add(PriorityHigh, SubsystemDLP, fmt.Sprintf("Rotate API keys: credential-shaped data was found %d times.", d.CredentialFindings))
	}

	if rep.BlockedSources > 0 {
		add(PriorityMedium, SubsystemAPISecurity, fmt.Sprintf("Review %d blocked source address(es).", rep.BlockedSources))
	}

	if a := rep.Audit; a != nil && a.Retained > 0 {
		flagged := a.ByStatus[domain.AuditFlagged] + a.ByStatus[domain.AuditBlocked]
		if float64(flagged)/float64(a.Retained) > 0.1 {
			add(PriorityMedium, SubsystemAPISecurity, fmt.Sprintf("%d of the last %d requests were flagged or blocked.", flagged, a.Retained))
		}
	}

	if len(recs) == 0 {
		add(PriorityLow, "", "No action required.")
	}

	rank := map[string]int{PriorityHigh: 0, PriorityMedium: 1, PriorityLow: 2}
	slices.SortStableFunc(recs, func(a, b Recommendation) int { return rank[a.Priority] - rank[b.Priority] })
	return recs
}
