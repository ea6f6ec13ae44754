package http

import (
	"net/http"
	"strconv"

	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/securitysdk"
	"github.com/familiarcat/aegis/pkg/slogx"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 1000
)

// SecurityHandler exposes the orchestrator's operational endpoints.
type SecurityHandler struct {
	Orchestrator *service.Orchestrator
}

// HandleReport handles GET /v1/security/report
//
//	@Summary		Security report
//	@Description	Runs the self tests and combines them with account, session, audit and DLP statistics
//	@Description	into prioritised recommendations.
//	@Tags			Security
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	securitysdk.ReportResponse	"Report"
//	@Failure		401	{object}	securitysdk.APIError		"Invalid or missing token"
//	@Failure		403	{object}	securitysdk.APIError		"Missing security:admin scope"
//	@Router			/v1/security/report [get].
func (h *SecurityHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.Orchestrator.GenerateReport(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toReportResponse(rep))
}

// HandleSelfTest handles POST /v1/security/selftest
//
//	@Summary		Run self tests
//	@Description	Runs smoke checks against each enabled subsystem. No persisted state is touched.
//	@Tags			Security
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	securitysdk.SelfTestResponse	"Pass and fail counts per subsystem"
//	@Failure		401	{object}	securitysdk.APIError			"Invalid or missing token"
//	@Failure		403	{object}	securitysdk.APIError		"Missing security:admin scope"
//	@Router			/v1/security/selftest [post].
func (h *SecurityHandler) HandleSelfTest(w http.ResponseWriter, r *http.Request) {
	rep := h.Orchestrator.RunSelfTests(r.Context())
	if rep.Failed > 0 {
		slogx.FromContext(r.Context()).Warn("self tests failed", "failed", rep.Failed, "passed", rep.Passed)
	}
	httpx.WriteJSON(w, http.StatusOK, toSelfTestResponse(rep))
}

// HandleAudit handles GET /v1/security/audit
//
//	@Summary		Recent audit entries
//	@Description	Returns the newest request decisions first.
//	@Tags			Security
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int							false	"Maximum entries (default 100, max 1000)"
//	@Success		200		{object}	securitysdk.AuditResponse	"Audit entries"
//	@Failure		400		{object}	securitysdk.APIError		"Invalid limit"
//	@Failure		503		{object}	securitysdk.APIError		"API security disabled"
//	@Failure		403	{object}	securitysdk.APIError		"Missing security:admin scope"
//	@Router			/v1/security/audit [get].
func (h *SecurityHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			securitysdk.ErrInvalidRequest.With("limit must be a positive integer").WriteError(w)
			return
		}
		limit = min(n, maxAuditLimit)
	}

	entries, err := h.Orchestrator.RecentAudits(limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, securitysdk.AuditResponse{Entries: toAuditEntries(entries)})
}

// HandleListBlocks handles GET /v1/security/blocks
//
//	@Summary		List blocked sources
//	@Tags			Security
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	securitysdk.BlocksResponse	"Blocked sources"
//	@Failure		503	{object}	securitysdk.APIError		"API security disabled"
//	@Failure		403	{object}	securitysdk.APIError		"Missing security:admin scope"
//	@Router			/v1/security/blocks [get].
func (h *SecurityHandler) HandleListBlocks(w http.ResponseWriter, r *http.Request) {
	blocks, err := h.Orchestrator.BlockedAddresses()
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, securitysdk.BlocksResponse{Blocks: toBlockedSources(blocks)})
}

// HandleUnblock handles DELETE /v1/security/blocks/{addr}
//
//	@Summary		Lift a block
//	@Tags			Security
//	@Security		BearerAuth
//	@Produce		json
//	@Param			addr	path		string						true	"Source address"
//	@Success		200		{object}	securitysdk.UnblockResponse	"Whether the address was blocked"
//	@Failure		503		{object}	securitysdk.APIError		"API security disabled"
//	@Failure		403	{object}	securitysdk.APIError		"Missing security:admin scope"
//	@Router			/v1/security/blocks/{addr} [delete].
func (h *SecurityHandler) HandleUnblock(w http.ResponseWriter, r *http.Request) {
	addr := r.PathValue("addr")
	if addr == "" {
		securitysdk.ErrInvalidRequest.With("address is required").WriteError(w)
		return
	}

	removed, err := h.Orchestrator.Unblock(addr)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slogx.FromContext(r.Context()).Info("block lifted", "source_addr", addr, "removed", removed, "by", httpx.UserIDFromContext(r.Context()))
	httpx.WriteJSON(w, http.StatusOK, securitysdk.UnblockResponse{Removed: removed})
}
