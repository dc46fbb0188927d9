package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/chefstream/auth/internal/auth/http"
	"github.com/chefstream/auth/internal/auth/guard"
	"github.com/chefstream/auth/internal/auth/idp"
	"github.com/chefstream/auth/internal/auth/notify"
	"github.com/chefstream/auth/internal/auth/service"
	"github.com/chefstream/auth/internal/auth/store"
	"github.com/chefstream/auth/internal/auth/store/drivers/postgres"
	"github.com/chefstream/auth/internal/auth/store/drivers/sqlite"
	"github.com/chefstream/auth/internal/auth/telemetry"
	"github.com/chefstream/auth/pkg/cryptox"
	"github.com/chefstream/auth/pkg/slogx"
)

const serviceName = "auth-service"

// BuildVersion is overridden at build time with -ldflags "-X ...".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service application with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db        store.Store
	redis     *redis.Client
	telemetry *telemetry.Provider

	authService         *service.AuthService
	mfaService          *service.MFAService
	housekeepingService *service.HousekeepingService
	guard               *guard.Redis

	server *http.Server
	router *httpapi.Router
}

// NewLogger builds the process logger from cfg.
func NewLogger(cfg Config) *slog.Logger {
	return slogx.New(slogx.Config{
		Service: serviceName,
		Version: BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
}

// New creates a new Application instance with all dependencies initialized.
// Migrations are applied before it returns.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	cryptox.SetPepperPath(cfg.PepperFile)
	if err := cryptox.EnsurePepper(); err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}
	if err := app.initServices(ctx); err != nil {
		app.close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// OpenStore connects to the configured database without migrating it.
func OpenStore(ctx context.Context, cfg Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case DriverPostgres:
		return postgres.NewStore(ctx, cfg.DatabaseURL)
	default:
		return sqlite.NewStore(cfg.DatabaseURL)
	}
}

// Run serves until ctx is cancelled or the server fails, then shuts down.
func (app *Application) Run(ctx context.Context) error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"driver", app.cfg.DatabaseDriver,
		"redis", app.guard != nil,
		"google", app.cfg.GoogleEnabled(),
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		app.close()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		app.logger.Info("shutdown signal received")
	}

	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Shutdown drains requests, stops background work and releases
// connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", slogx.Err(err))
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", slogx.Err(err))
		}
	}

	app.housekeepingService.Stop()

	if app.telemetry != nil {
		if err := app.telemetry.Shutdown(ctx); err != nil {
			app.logger.Warn("telemetry shutdown failed", slogx.Err(err))
		}
	}
	if err := app.close(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// close releases redis and the database.
func (app *Application) close() error {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn("error closing redis", slogx.Err(err))
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", slogx.Err(err))
		return err
	}
	return nil
}

func (app *Application) initDatabase(ctx context.Context) error {
	db, err := OpenStore(ctx, app.cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

func (app *Application) initServices(ctx context.Context) error {
	provider, err := telemetry.NewProvider(ctx, app.cfg.OTLPEndpoint, serviceName, BuildVersion)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	app.telemetry = provider

	metrics, err := service.NewMetrics(provider.Meters.Meter("github.com/chefstream/auth"))
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	tokens, err := service.NewTokenService(
		[]byte(app.cfg.SecretKey),
		app.cfg.Issuer,
		app.cfg.AccessTokenTTL,
		app.cfg.ChallengeTokenTTL,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize tokens: %w", err)
	}

	notifier := &service.AnomalyNotifier{
		Store:   app.db,
		Mailer:  notify.LogMailer{Logger: app.logger},
		Metrics: metrics,
	}
	sessions := &service.SessionService{
		Store:    app.db,
		Locator:  service.StaticLocator{},
		Notifier: notifier,
		Metrics:  metrics,
	}
	app.mfaService = &service.MFAService{
		Store:    app.db,
		Tokens:   tokens,
		Notifier: notifier,
		Metrics:  metrics,
		Issuer:   app.cfg.TOTPIssuer,
	}

	if app.cfg.RedisURL != "" {
		client, err := guard.Dial(ctx, app.cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.redis = client
		app.guard = guard.New(client, app.cfg.ChallengeSingleUse)
		app.mfaService.Guard = app.guard
		app.logger.Info("challenge guard enabled", "single_use", app.cfg.ChallengeSingleUse)
	}

	app.authService = &service.AuthService{
		Store:       app.db,
		Credentials: &service.CredentialService{Store: app.db},
		Tokens:      tokens,
		Sessions:    sessions,
		MFA:         app.mfaService,
		Metrics:     metrics,
	}

	if app.cfg.GoogleEnabled() {
		google, err := idp.NewGoogle(ctx, idp.GoogleConfig{
			ClientID:     app.cfg.GoogleClientID,
			ClientSecret: app.cfg.GoogleClientSecret,
			RedirectURL:  app.cfg.GoogleRedirectURL,
			Issuer:       app.cfg.GoogleIssuer,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize google sign-in: %w", err)
		}
		app.authService.Google = google
	}

	// sessions idle for a full token lifetime cannot be in use any more
	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.AccessTokenTTL,
	)
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.AuthService = app.authService
	router.MFAService = app.mfaService
	router.FrontendURL = app.cfg.FrontendURL
	router.CookieSecure = app.cfg.CookieSecure
	if app.guard != nil {
		router.Cache = app.guard
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
