package http

import (
	"net/http"
	"time"

	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/jwtx"
	"github.com/familiarcat/aegis/pkg/securitysdk"
)

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness check reporting the credential store and token signer.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	securitysdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	securitysdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	signer *jwtx.HMACSigner,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &securitysdk.HealthChecks{
			Store:  "ok",
			Signer: "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if st == nil {
			checks.Store = "disabled"
		} else if err := st.Ping(r.Context()); err != nil {
			checks.Store = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if signer == nil {
			checks.Signer = "disabled"
		}

		httpx.WriteJSON(w, statusCode, securitysdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
