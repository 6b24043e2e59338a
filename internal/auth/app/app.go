package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	httpapi "github.com/qwanyx/qwanyx/internal/auth/http"
	"github.com/qwanyx/qwanyx/internal/auth/metrics"
	"github.com/qwanyx/qwanyx/internal/auth/notify"
	"github.com/qwanyx/qwanyx/internal/auth/service"
	"github.com/qwanyx/qwanyx/internal/auth/store"
	"github.com/qwanyx/qwanyx/internal/auth/store/drivers/mongo"
	"github.com/qwanyx/qwanyx/internal/auth/store/drivers/sqlite"
	"github.com/qwanyx/qwanyx/pkg/httpx"
	"github.com/qwanyx/qwanyx/pkg/jwtx"
	"github.com/qwanyx/qwanyx/pkg/redisx"
	"github.com/qwanyx/qwanyx/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X ...app.BuildVersion=...".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	keyManager *jwtx.KeyManager
	redis      *redis.Client // nil without REDIS_URL
	notifier   notify.Notifier
	metrics    *metrics.Metrics

	// Services
	directory           *service.Directory
	tokenService        *service.TokenService
	userService         *service.UserService
	codeService         *service.CodeService
	workspaceService    *service.WorkspaceService
	contactService      *service.ContactService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// Option customises an Application before its services are built.
type Option func(*Application)

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(a *Application) { a.logger = l }
}

// WithNotifier replaces the notifier chosen from the SMTP settings.
func WithNotifier(n notify.Notifier) Option {
	return func(a *Application) { a.notifier = n }
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config, opts ...Option) (*Application, error) {
	app := &Application{cfg: cfg}
	for _, opt := range opts {
		opt(app)
	}
	if app.logger == nil {
		app.logger = slogx.New(slogx.Config{
			Service: "qwanyx-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		})
	}

	if err := app.initStore(ctx); err != nil {
		return nil, err
	}

	keyManager, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.keyManager = keyManager

	if err := app.initRedis(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initNotifier()
	app.initMetrics()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// OpenStore opens the configured driver and prepares the central schema.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	var db store.Store
	switch cfg.StoreDriver {
	case StoreSQLite:
		s, err := sqlite.NewStore("file:" + cfg.SQLiteFile + "?_pragma=journal_mode(WAL)")
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		db = s
	default:
		s, err := mongo.NewStore(ctx, cfg.MongoURI, cfg.CentralDB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		db = s
	}

	if err := db.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare store schema: %w", err)
	}
	return db, nil
}

func (app *Application) initStore(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return err
	}
	app.db = db
	app.logger.Info("store ready", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initRedis(ctx context.Context) error {
	if app.cfg.RedisURL == "" {
		app.logger.Info("redis not configured, rate limits are per process")
		return nil
	}
	rdb, err := redisx.Connect(ctx, app.cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	app.redis = rdb
	app.logger.Info("redis rate-limit store enabled")
	return nil
}

func (app *Application) initNotifier() {
	switch {
	case app.notifier != nil:
	case app.cfg.SMTP.Enabled():
		app.notifier = notify.NewSMTPMailer(app.cfg.SMTP)
		app.logger.Info("smtp delivery enabled", "host", app.cfg.SMTP.Host, "port", app.cfg.SMTP.Port)
	default:
		app.notifier = notify.LogNotifier{Logger: app.logger}
		app.logger.Warn("smtp not configured, auth codes are only logged")
	}
}

func (app *Application) initMetrics() {
	if !app.cfg.MetricsEnabled {
		return
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(reg)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.directory = &service.Directory{Store: app.db, CentralDB: app.cfg.CentralDB}
	app.tokenService = &service.TokenService{
		KeyManager: app.keyManager,
		TTL:        app.cfg.TokenTTL,
	}
	app.userService = &service.UserService{
		Directory: app.directory,
		Metrics:   app.metrics,
	}
	app.codeService = &service.CodeService{
		Directory: app.directory,
		Users:     app.userService,
		Tokens:    app.tokenService,
		Notifier:  app.notifier,
		Metrics:   app.metrics,
		CodeTTL:   app.cfg.CodeTTL,
	}
	app.workspaceService = &service.WorkspaceService{
		Directory: app.directory,
		Users:     app.userService,
	}
	app.contactService = &service.ContactService{Directory: app.directory}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.metrics,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		app.keyManager.Verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.CodeService = app.codeService
	router.UserService = app.userService
	router.WorkspaceService = app.workspaceService
	router.ContactService = app.contactService
	router.Metrics = app.metrics
	router.AdminTokenHash = app.cfg.AdminTokenHash
	if app.redis != nil {
		router.Limiter = &httpx.RateLimiter{Store: httpx.NewRedisLimitStore(app.redis, "")}
		router.CachePing = func(ctx context.Context) error { return app.redis.Ping(ctx).Err() }
	}
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// Handler exposes the fully wired router, for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Store returns the underlying store.
func (app *Application) Store() store.Store { return app.db }

// Workspaces returns the workspace administration service.
func (app *Application) Workspaces() *service.WorkspaceService { return app.workspaceService }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start(context.Background())

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			_ = app.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	if err := app.Close(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Close releases the store and Redis connections without touching the
// HTTP server.
func (app *Application) Close() error {
	var errs []error
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("error closing redis", "error", err)
			errs = append(errs, err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
