package http

import (
	"time"

	"github.com/familiarcat/aegis/internal/security/dlp"
	"github.com/familiarcat/aegis/internal/security/domain"
	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/pkg/securitysdk"
)

func toUserResponse(u domain.User) securitysdk.UserResponse {
	return securitysdk.UserResponse{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		MFAEnabled:     u.MFAEnabled,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
		LastLogin:      u.LastLogin,
		CreatedAt:      u.CreatedAt,
	}
}

func toSessionInfo(s domain.Session) securitysdk.SessionInfo {
	return securitysdk.SessionInfo{
		ID:           s.ID,
		SourceAddr:   s.SourceAddr,
		ClientID:     s.ClientID,
		CreatedAt:    s.CreatedAt,
		ExpiresAt:    s.ExpiresAt,
		LastActivity: s.LastActivity,
	}
}

func toSessionResponse(res *service.AuthResult) securitysdk.SessionResponse {
	s := res.Session
	return securitysdk.SessionResponse{
		Token:     res.Token,
		TokenType: "Bearer",
		ExpiresIn: int(s.ExpiresAt.Sub(s.CreatedAt) / time.Second),
		SessionID: s.ID,
		ExpiresAt: s.ExpiresAt,
		User:      toUserResponse(res.User),
	}
}

func toScanResponse(res dlp.Result) securitysdk.ScanResponse {
	findings := make([]securitysdk.Finding, 0, len(res.Findings))
	for _, f := range res.Findings {
		findings = append(findings, securitysdk.Finding{
			Pattern:         f.Pattern,
			Category:        string(f.Category),
			Severity:        f.Severity.String(),
			RedactionMethod: f.Method.String(),
			Start:           f.Start,
			End:             f.End,
			Confidence:      f.Confidence,
			RedactedValue:   f.RedactedValue,
		})
	}
	recs := res.Recommendations
	if recs == nil {
		recs = []string{}
	}
	return securitysdk.ScanResponse{
		HasSensitiveData: res.HasSensitiveData,
		Findings:         findings,
		RiskScore:        res.RiskScore,
		Recommendations:  recs,
		RedactedContent:  res.RedactedContent,
	}
}

func toClassifyResponse(c dlp.Classification) securitysdk.ClassifyResponse {
	cats := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		cats = append(cats, string(cat))
	}
	patterns := c.Patterns
	if patterns == nil {
		patterns = []string{}
	}
	return securitysdk.ClassifyResponse{
		Level:            string(c.Level),
		Sensitivity:      c.Sensitivity,
		RetentionDays:    c.RetentionDays,
		DominantCategory: string(c.Dominant),
		Categories:       cats,
		Patterns:         patterns,
	}
}

func toSelfTestResponse(rep service.SelfTestReport) securitysdk.SelfTestResponse {
	results := make([]securitysdk.SelfTestResult, 0, len(rep.Results))
	for _, r := range rep.Results {
		results = append(results, securitysdk.SelfTestResult(r))
	}
	return securitysdk.SelfTestResponse{
		RanAt:    rep.RanAt,
		Results:  results,
		Passed:   rep.Passed,
		Failed:   rep.Failed,
		PassRate: rep.PassRate,
	}
}

func toReportResponse(rep service.Report) securitysdk.ReportResponse {
	out := securitysdk.ReportResponse{
		GeneratedAt:     rep.GeneratedAt,
		Enabled:         rep.Enabled,
		SelfTests:       toSelfTestResponse(rep.SelfTests),
		PassRate:        rep.PassRate,
		ActiveSessions:  rep.ActiveSessions,
		BlockedSources:  rep.BlockedSources,
		Recommendations: make([]securitysdk.Recommendation, 0, len(rep.Recommendations)),
	}
	if u := rep.Users; u != nil {
		out.Users = &securitysdk.UserStats{
			Total:       u.Total,
			MFAEnabled:  u.MFAEnabled,
			Locked:      u.Locked,
			MFAAdoption: u.MFAAdoption(),
		}
	}
	if a := rep.Audit; a != nil {
		byStatus := make(map[string]int, len(a.ByStatus))
		for status, n := range a.ByStatus {
			byStatus[string(status)] = n
		}
		out.Audit = &securitysdk.AuditStats{
			Retained:        a.Retained,
			Total:           a.Total,
			ByStatus:        byStatus,
			ByFlag:          a.ByFlag,
			DistinctSources: a.Sources,
		}
	}
	if d := rep.DLP; d != nil {
		out.DLP = &securitysdk.DLPStats{Scans: d.Scans, CredentialFindings: d.CredentialFindings}
	}
	for _, r := range rep.Recommendations {
		out.Recommendations = append(out.Recommendations, securitysdk.Recommendation(r))
	}
	return out
}

func toAuditEntries(entries []domain.SecurityAudit) []securitysdk.AuditEntry {
	out := make([]securitysdk.AuditEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, securitysdk.AuditEntry{
			ID:         e.ID,
			Timestamp:  e.Timestamp,
			SourceAddr: e.SourceAddr,
			UserAgent:  e.UserAgent,
			Method:     e.Method,
			Endpoint:   e.Endpoint,
			Status:     string(e.Status),
			Flags:      e.Flags,
			RiskScore:  e.RiskScore,
		})
	}
	return out
}

func toBlockedSources(blocks []service.BlockedSource) []securitysdk.BlockedSource {
	out := make([]securitysdk.BlockedSource, 0, len(blocks))
	for _, b := range blocks {
		bs := securitysdk.BlockedSource{
			Address:   b.Address,
			Reason:    b.Reason,
			RiskScore: b.RiskScore,
			Since:     b.Since,
		}
		if !b.Until.IsZero() {
			until := b.Until
			bs.Until = &until
		}
		out = append(out, bs)
	}
	return out
}
