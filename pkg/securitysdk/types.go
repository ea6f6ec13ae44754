package securitysdk

import "time"

// ============================================================================
// User Types
// ============================================================================

// RegisterRequest creates a new account.
type RegisterRequest struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"Correct-Horse-9"`
}

// UserResponse is the public view of an account. Credentials and the MFA
// secret are never included.
type UserResponse struct {
	ID             string     `json:"id" example:"01HZX3T9P4Q8W6R2M5N7K1J0AB"`
	Username       string     `json:"username" example:"alice"`
	Email          string     `json:"email" example:"alice@example.com"`
	MFAEnabled     bool       `json:"mfa_enabled"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty"`
	LastLogin      *time.Time `json:"last_login,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ============================================================================
// Authentication Types
// ============================================================================

// LoginRequest authenticates with a username or email and a password.
type LoginRequest struct {
	// Identifier is the username or the email address
	Identifier string `json:"identifier" example:"alice"`
	Password   string `json:"password" example:"Correct-Horse-9"`

	// ClientID is an optional caller-chosen label stored with the session
	ClientID string `json:"client_id,omitempty" example:"web"`
}

// MFACompleteRequest finishes a login that answered 409 mfa_required.
type MFACompleteRequest struct {
	MFATicket string `json:"mfa_ticket"`
	// Code is a 6-digit TOTP code or an 8-character backup code
	Code     string `json:"code" example:"123456"`
	ClientID string `json:"client_id,omitempty"`
}

// SessionResponse is returned on a completed login.
type SessionResponse struct {
	// Token is the bearer token for authenticated requests
	Token string `json:"token"`

	// TokenType is always "Bearer"
	TokenType string `json:"token_type" example:"Bearer"`

	// ExpiresIn is the lifetime in seconds of the session
	ExpiresIn int `json:"expires_in" example:"3600"`

	SessionID string       `json:"session_id"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// SessionInfo describes a live session.
type SessionInfo struct {
	ID           string    `json:"id"`
	SourceAddr   string    `json:"source_addr,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
}

// TokenValidationResponse is the outcome of validating the bearer token.
type TokenValidationResponse struct {
	Valid   bool          `json:"valid"`
	User    *UserResponse `json:"user,omitempty"`
	Session *SessionInfo  `json:"session,omitempty"`
	Scopes  []string      `json:"scopes,omitempty"`
}

// LogoutResponse reports whether a session was actually removed.
type LogoutResponse struct {
	Removed bool `json:"removed"`
}

// ============================================================================
// MFA Types
// ============================================================================

// MFAEnableResponse is shown to the user exactly once: the secret and the
// backup codes cannot be retrieved again.
type MFAEnableResponse struct {
	Secret          string   `json:"secret" example:"JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"`
	ProvisioningURI string   `json:"provisioning_uri" example:"otpauth://totp/Aegis:alice?issuer=Aegis&secret=JBSWY3DPEHPK3PXP"`
	Issuer          string   `json:"issuer" example:"Aegis"`
	Account         string   `json:"account" example:"alice"`
	Methods         []string `json:"methods"`
	BackupCodes     []string `json:"backup_codes"`
}

// MFACodeRequest carries a TOTP code for MFA management operations.
type MFACodeRequest struct {
	Code string `json:"code" example:"123456"`
}

// BackupCodesResponse holds a fresh set of single-use backup codes.
type BackupCodesResponse struct {
	Codes []string `json:"codes"`
}

// ============================================================================
// DLP Types
// ============================================================================

// ContentRequest submits text to the scanner or classifier.
type ContentRequest struct {
	Content string `json:"content" example:"card 4111-1111-1111-1111"`
}

// Finding is one detected sensitive value. The raw value is never returned.
type Finding struct {
	Pattern         string  `json:"pattern" example:"credit_card"`
	Category        string  `json:"category" example:"financial"`
	Severity        string  `json:"severity" example:"CRITICAL"`
	RedactionMethod string  `json:"redaction_method" example:"MASK"`
	Start           int     `json:"start"`
	End             int     `json:"end"`
	Confidence      float64 `json:"confidence"`
	RedactedValue   string  `json:"redacted_value" example:"41***************11"`
}

type ScanResponse struct {
	HasSensitiveData bool      `json:"has_sensitive_data"`
	Findings         []Finding `json:"findings"`
	RiskScore        int       `json:"risk_score"`
	Recommendations  []string  `json:"recommendations"`
	RedactedContent  string    `json:"redacted_content"`
}

type ClassifyResponse struct {
	Level            string   `json:"level" example:"SECRET"`
	Sensitivity      int      `json:"sensitivity"`
	RetentionDays    int      `json:"retention_days"`
	DominantCategory string   `json:"dominant_category,omitempty"`
	Categories       []string `json:"categories"`
	Patterns         []string `json:"patterns"`
}

// ============================================================================
// Security Operations Types
// ============================================================================

type SelfTestResult struct {
	Subsystem string   `json:"subsystem"`
	Enabled   bool     `json:"enabled"`
	Passed    int      `json:"passed"`
	Failed    int      `json:"failed"`
	Failures  []string `json:"failures,omitempty"`
}

type SelfTestResponse struct {
	RanAt    time.Time        `json:"ran_at"`
	Results  []SelfTestResult `json:"results"`
	Passed   int              `json:"passed"`
	Failed   int              `json:"failed"`
	PassRate float64          `json:"pass_rate"`
}

type UserStats struct {
	Total       int     `json:"total"`
	MFAEnabled  int     `json:"mfa_enabled"`
	Locked      int     `json:"locked"`
	MFAAdoption float64 `json:"mfa_adoption"`
}

type AuditStats struct {
	Retained        int            `json:"retained"`
	Total           uint64         `json:"total"`
	ByStatus        map[string]int `json:"by_status"`
	ByFlag          map[string]int `json:"by_flag"`
	DistinctSources int            `json:"distinct_sources"`
}

type DLPStats struct {
	Scans              int64 `json:"scans"`
	CredentialFindings int64 `json:"credential_findings"`
}

type Recommendation struct {
	Priority  string `json:"priority" example:"high"`
	Subsystem string `json:"subsystem" example:"auth"`
	Message   string `json:"message"`
}

// ReportResponse is the consolidated security posture. Sections for
// disabled subsystems are omitted.
type ReportResponse struct {
	GeneratedAt     time.Time        `json:"generated_at"`
	Enabled         map[string]bool  `json:"enabled"`
	SelfTests       SelfTestResponse `json:"self_tests"`
	PassRate        float64          `json:"pass_rate"`
	Users           *UserStats       `json:"users,omitempty"`
	ActiveSessions  int              `json:"active_sessions"`
	Audit           *AuditStats      `json:"audit,omitempty"`
	BlockedSources  int              `json:"blocked_sources"`
	DLP             *DLPStats        `json:"dlp,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

type AuditEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	SourceAddr string    `json:"source_addr"`
	UserAgent  string    `json:"user_agent"`
	Method     string    `json:"method"`
	Endpoint   string    `json:"endpoint"`
	Status     string    `json:"status" example:"flagged"`
	Flags      []string  `json:"flags,omitempty"`
	RiskScore  int       `json:"risk_score"`
}

type AuditResponse struct {
	Entries []AuditEntry `json:"entries"`
}

type BlockedSource struct {
	Address   string     `json:"address" example:"203.0.113.7"`
	Reason    string     `json:"reason"`
	RiskScore int        `json:"risk_score"`
	Since     time.Time  `json:"since"`
	Until     *time.Time `json:"until,omitempty"`
}

type BlocksResponse struct {
	Blocks []BlockedSource `json:"blocks"`
}

type UnblockResponse struct {
	Removed bool `json:"removed"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse is returned by /livez and /readyz (readyz adds Checks).
type HealthResponse struct {
	Status  string        `json:"status" example:"ok"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of critical dependencies.
type HealthChecks struct {
	Store  string `json:"store"`
	Signer string `json:"signer"`
}
