package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/jwtx"
	"github.com/familiarcat/aegis/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/familiarcat/aegis/api/security" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options tunes the global middleware chain.
type Options struct {
	Throttle httpx.ThrottleConfig
	CORS     httpx.CORSConfig
	Headers  httpx.HeaderConfig

	// TrustForwarded takes the client address from X-Forwarded-For.
	TrustForwarded bool

	// Gatherer backs /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       *jwtx.HMACSigner
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	opts         Options

	store        store.Store
	Orchestrator *service.Orchestrator
}

func NewRouter(
	orch *service.Orchestrator,
	st store.Store,
	signer *jwtx.HMACSigner,
	buildVersion string,
	logger *slog.Logger,
	opts Options,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		opts:         opts,
		store:        st,
		Orchestrator: orch,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.Throttle(opts.Throttle),
		httpx.SecurityHeaders(opts.Headers),
		httpx.CORS(opts.CORS),
		Guard(orch, opts.TrustForwarded),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerUsers()
	r.registerAuth()
	r.registerMFA()
	r.registerDLP()
	r.registerSecurity()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Aegis Security Service API
//	@version		0.1.0
//	@description	Unified security service: credential authentication with lockout and TOTP MFA,
//	@description	signed session tokens, per-source rate limiting and threat scoring, and
//	@description	sensitive-data scanning and classification.
//
//	@contact.name				Aegis Maintainers
//	@contact.url				https://github.com/familiarcat/aegis
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.Orchestrator)
}

func (r *Router) registerUsers() {
	usersHandler := &UsersHandler{Orchestrator: r.Orchestrator}
	r.Mux.HandleFunc("POST /v1/users", usersHandler.HandleRegister)
}

func (r *Router) registerAuth() {
	authHandler := &AuthHandler{
		Orchestrator:   r.Orchestrator,
		TrustForwarded: r.opts.TrustForwarded,
	}

	r.Mux.HandleFunc("POST /v1/auth/login", authHandler.HandleLogin)
	r.Mux.HandleFunc("POST /v1/auth/mfa", authHandler.HandleCompleteMFA)

	// The session endpoint validates the bearer itself so it can report
	// the full validation result.
	r.Mux.HandleFunc("GET /v1/auth/session", authHandler.HandleSession)

	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(authHandler.HandleLogout), r.authn()),
	)
}

func (r *Router) registerMFA() {
	mfaHandler := &MFAHandler{Orchestrator: r.Orchestrator}

	r.Mux.Handle("POST /v1/mfa/enable",
		httpx.Chain(http.HandlerFunc(mfaHandler.HandleEnable), r.authn()),
	)
	r.Mux.Handle("DELETE /v1/mfa",
		httpx.Chain(http.HandlerFunc(mfaHandler.HandleDisable), r.authn()),
	)
	r.Mux.Handle("POST /v1/mfa/backup-codes",
		httpx.Chain(http.HandlerFunc(mfaHandler.HandleRegenerateBackupCodes), r.authn()),
	)
}

func (r *Router) registerDLP() {
	dlpHandler := &DLPHandler{Orchestrator: r.Orchestrator}

	r.Mux.Handle("POST /v1/dlp/scan",
		httpx.Chain(http.HandlerFunc(dlpHandler.HandleScan), r.authn()),
	)
	r.Mux.Handle("POST /v1/dlp/classify",
		httpx.Chain(http.HandlerFunc(dlpHandler.HandleClassify), r.authn()),
	)
}

func (r *Router) registerSecurity() {
	securityHandler := &SecurityHandler{Orchestrator: r.Orchestrator}

	// Operational routes expose every caller's traffic and can lift blocks.
	admin := func(h http.HandlerFunc) http.Handler {
		return httpx.Chain(h,
			r.authn(),
			httpx.RequireAnyScope(service.ScopeSecurityAdmin),
		)
	}

	r.Mux.Handle("GET /v1/security/report", admin(securityHandler.HandleReport))
	r.Mux.Handle("POST /v1/security/selftest", admin(securityHandler.HandleSelfTest))
	r.Mux.Handle("GET /v1/security/audit", admin(securityHandler.HandleAudit))
	r.Mux.Handle("GET /v1/security/blocks", admin(securityHandler.HandleListBlocks))
	r.Mux.Handle("DELETE /v1/security/blocks/{addr}", admin(securityHandler.HandleUnblock))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer))

	gatherer := r.opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
