package domain

import "time"

// AuditStatus is the decision recorded for a request.
type AuditStatus string

const (
	AuditAllowed     AuditStatus = "allowed"
	AuditFlagged     AuditStatus = "flagged"
	AuditRateLimited AuditStatus = "rate_limited"
	AuditBlocked     AuditStatus = "blocked"
)

// SecurityAudit is one entry of the bounded request audit trail.
type SecurityAudit struct {
	ID         string      `json:"id"`
	Timestamp  time.Time   `json:"timestamp"`
	SourceAddr string      `json:"source_addr"`
	UserAgent  string      `json:"user_agent"`
	Method     string      `json:"method"`
	Endpoint   string      `json:"endpoint"`
	Status     AuditStatus `json:"status"`
	Flags      []string    `json:"flags,omitempty"`
	RiskScore  int         `json:"risk_score"`
}
