package http

import (
	"net/http"

	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/securitysdk"
)

type DLPHandler struct {
	Orchestrator *service.Orchestrator
}

// HandleScan handles POST /v1/dlp/scan
//
//	@Summary		Scan content for sensitive data
//	@Description	Finds card numbers, government IDs, contact details, network addresses, credentials and
//	@Description	medical identifiers. Raw matches are never returned, only their redacted forms.
//	@Tags			DLP
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		securitysdk.ContentRequest	true	"Content to scan"
//	@Success		200		{object}	securitysdk.ScanResponse	"Findings, risk score and redacted content"
//	@Failure		401		{object}	securitysdk.APIError		"Invalid or missing token"
//	@Failure		503		{object}	securitysdk.APIError		"DLP disabled"
//	@Router			/v1/dlp/scan [post].
func (h *DLPHandler) HandleScan(w http.ResponseWriter, r *http.Request) {
	var req securitysdk.ContentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.Orchestrator.ScanContent(r.Context(), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toScanResponse(res))
}

// HandleClassify handles POST /v1/dlp/classify
//
//	@Summary		Classify content
//	@Description	Labels content PUBLIC, INTERNAL, CONFIDENTIAL or SECRET by its most sensitive finding.
//	@Tags			DLP
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		securitysdk.ContentRequest		true	"Content to classify"
//	@Success		200		{object}	securitysdk.ClassifyResponse	"Classification"
//	@Failure		401		{object}	securitysdk.APIError			"Invalid or missing token"
//	@Failure		503		{object}	securitysdk.APIError			"DLP disabled"
//	@Router			/v1/dlp/classify [post].
func (h *DLPHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	var req securitysdk.ContentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.Orchestrator.ClassifyContent(r.Context(), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toClassifyResponse(c))
}
