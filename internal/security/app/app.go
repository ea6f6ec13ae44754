package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/familiarcat/aegis/internal/security/audit"
	"github.com/familiarcat/aegis/internal/security/dlp"
	httpapi "github.com/familiarcat/aegis/internal/security/http"
	"github.com/familiarcat/aegis/internal/security/metrics"
	"github.com/familiarcat/aegis/internal/security/ratelimit"
	"github.com/familiarcat/aegis/internal/security/service"
	"github.com/familiarcat/aegis/internal/security/store"
	"github.com/familiarcat/aegis/internal/security/store/drivers/memory"
	"github.com/familiarcat/aegis/internal/security/store/drivers/sqlite"
	"github.com/familiarcat/aegis/internal/security/threat"
	"github.com/familiarcat/aegis/pkg/cryptox"
	"github.com/familiarcat/aegis/pkg/httpx"
	"github.com/familiarcat/aegis/pkg/jwtx"
	"github.com/familiarcat/aegis/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the security service with all its dependencies.
type Application struct {
	cfg    Config
	policy Policy
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	signer   *jwtx.HMACSigner
	hasher   cryptox.PasswordHasher
	sealer   *cryptox.Sealer
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// Services
	sessionService      *service.SessionService
	mfaService          *service.MFAService
	authService         *service.AuthService
	apiSecurityService  *service.APISecurityService
	scanner             *dlp.Scanner
	housekeepingService *service.HousekeepingService
	orchestrator        *service.Orchestrator

	// HTTP server
	server *http.Server
	router *httpapi.Router

	housekeepingStarted bool
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "security-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	policy, err := LoadPolicy(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load security policy: %w", err)
	}
	app.policy = policy

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initCrypto(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler returns the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Orchestrator exposes the security facade for in-process callers.
func (app *Application) Orchestrator() *service.Orchestrator { return app.orchestrator }

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()
	app.housekeepingStarted = true

	app.logger.Info("security service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"store", app.cfg.StoreDriver,
		"auth", app.cfg.EnableAuth,
		"api_security", app.cfg.EnableAPISecurity,
		"dlp", app.cfg.EnableDLP,
		"admins", len(app.cfg.AdminUsers),
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down security service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if app.housekeepingStarted {
		app.housekeepingService.Stop()
		app.housekeepingStarted = false
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("security service stopped")
	return nil
}

// initDatabase opens the configured store driver and applies migrations.
func (app *Application) initDatabase() error {
	switch app.cfg.StoreDriver {
	case "", "memory":
		app.db = memory.NewStore()
	case "sqlite":
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err := sqlite.NewStore(dsn)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		app.db = db
	default:
		return fmt.Errorf("unsupported store driver %q", app.cfg.StoreDriver)
	}

	if err := app.db.ApplyMigrations(); err != nil {
		_ = app.db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

// initCrypto loads the token signing secret, the MFA seal key and the
// password hasher.
func (app *Application) initCrypto() error {
	var (
		secret []byte
		err    error
	)
	if app.cfg.SigningSecret != "" {
		secret, err = cryptox.DecodeSecret(app.cfg.SigningSecret)
	} else {
		secret, err = cryptox.LoadOrGenerateSecret(app.cfg.SigningSecretFile, jwtx.MinKeySize)
	}
	if err != nil {
		return fmt.Errorf("failed to load signing secret: %w", err)
	}

	app.signer, err = jwtx.NewHMACSigner(secret, app.cfg.TokenIssuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token signer: %w", err)
	}

	sealKey, err := cryptox.LoadOrGenerateSecret(app.cfg.MFASealKeyFile, cryptox.MinSecretSize)
	if err != nil {
		return fmt.Errorf("failed to load mfa seal key: %w", err)
	}
	app.sealer, err = cryptox.NewSealer(sealKey, "mfa-secret")
	if err != nil {
		return fmt.Errorf("failed to initialize mfa sealer: %w", err)
	}

	var pepper string
	if strings.HasPrefix(strings.ToLower(app.cfg.PasswordHashAlgorithm), "argon2") {
		raw, err := cryptox.LoadOrGenerateSecret(app.cfg.PepperFile, cryptox.MinSecretSize)
		if err != nil {
			return fmt.Errorf("failed to load password pepper: %w", err)
		}
		pepper = base64.RawURLEncoding.EncodeToString(raw)
	}

	app.hasher, err = cryptox.NewPasswordHasher(app.cfg.PasswordHashAlgorithm, app.cfg.PasswordHashCost, pepper)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() error {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	app.sessionService = &service.SessionService{
		Store:      app.db,
		Signer:     app.signer,
		Timeout:    app.cfg.SessionTimeout,
		Metrics:    app.metrics,
		AdminUsers: app.cfg.AdminUsers,
	}
	app.mfaService = &service.MFAService{
		Store:   app.db,
		Issuer:  app.cfg.MFAIssuer,
		Metrics: app.metrics,
		Sealer:  app.sealer,
	}
	app.authService = &service.AuthService{
		Store:             app.db,
		Hasher:            app.hasher,
		Sessions:          app.sessionService,
		MFA:               app.mfaService,
		Signer:            app.signer,
		Metrics:           app.metrics,
		MaxFailedAttempts: app.cfg.MaxFailedAttempts,
		LockoutDuration:   app.cfg.LockoutDuration,
		MFATicketTTL:      app.cfg.MFATicketTTL,
	}

	auditLog := audit.New(app.cfg.AuditMaxEntries)
	app.apiSecurityService = &service.APISecurityService{
		Limiter: ratelimit.New(ratelimit.Config{
			Window:      app.cfg.RateLimitWindow,
			MaxRequests: app.cfg.RateLimitMaxRequests,
		}),
		Detector:      threat.NewDetector(app.policy.ThreatConfig(), auditLog),
		Audit:         auditLog,
		Metrics:       app.metrics,
		Logger:        app.logger,
		BlockDuration: app.cfg.BlockDuration,
	}

	scanner, err := dlp.NewScanner(app.policy.DLPConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize dlp scanner: %w", err)
	}
	app.scanner = scanner

	app.orchestrator, err = service.NewOrchestrator(
		service.OrchestratorConfig{
			EnableAuth:        app.cfg.EnableAuth,
			EnableAPISecurity: app.cfg.EnableAPISecurity,
			EnableDLP:         app.cfg.EnableDLP,
		},
		service.OrchestratorDeps{
			Store:       app.db,
			Auth:        app.authService,
			Sessions:    app.sessionService,
			MFA:         app.mfaService,
			APISecurity: app.apiSecurityService,
			Scanner:     app.scanner,
			Metrics:     app.metrics,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to initialize orchestrator: %w", err)
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.sessionService,
		app.apiSecurityService,
		app.authService,
		app.metrics,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.orchestrator,
		app.db,
		app.signer,
		BuildVersion,
		app.logger,
		httpapi.Options{
			Throttle: httpx.ThrottleConfig{
				RatePerSecond: app.cfg.GlobalRatePerSec,
				Burst:         app.cfg.GlobalBurst,
			},
			CORS: httpx.CORSConfig{
				Enabled:          app.cfg.CORSEnabled,
				AllowedOrigins:   app.cfg.CORSAllowedOrigins,
				AllowCredentials: app.cfg.CORSAllowCredentials,
			},
			Headers: httpx.HeaderConfig{
				Enabled: app.cfg.HeadersEnabled,
				HSTS:    app.cfg.HSTSEnabled,
			},
			TrustForwarded: app.cfg.TrustProxyHeaders,
			Gatherer:       app.registry,
		},
	)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
