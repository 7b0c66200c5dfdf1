// Package server wires configuration, storage, the auth service and the
// REST and gRPC transports into a runnable application with graceful
// shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/rest"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
)

// DemoUser is an account created at startup when seeding is enabled.
type DemoUser struct {
	Email    string
	Password string
}

var DemoUsers = []DemoUser{
	{Email: "user1@example.com", Password: "password123"},
	{Email: "user2@example.com", Password: "password456"},
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
	registry    *prometheus.Registry
	collector   *metrics.Collector
}

// NewApp opens the database, applies migrations and builds the service.
// c must have passed Validate.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {

	if c.UsingDevSecret {
		logger.Warn(ctx, "no secret configured, using the development fallback key")
	}

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	hasher, err := auth.NewBcryptHasher(c.PasswordHashCost)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	issuer, err := auth.NewTokenIssuer([]byte(c.SecretKey), c.AccessTokenValidityDuration)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	svc, err := services.NewAuthService(db, rm, hasher, issuer, logger, collector)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		authService: svc,
		registry:    registry,
		collector:   collector,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) func() {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// seedDemoUsers creates the demo accounts that do not exist yet.
func (app *App) seedDemoUsers(ctx context.Context) error {
	for _, u := range DemoUsers {
		created, err := app.authService.EnsureUser(ctx, u.Email, u.Password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", u.Email, err)
		}
		if created {
			app.logger.Info(ctx, "demo user created", "email", u.Email)
		}
	}
	return nil
}

// Run serves REST and gRPC until ctx is cancelled, a termination signal
// arrives or one of the servers fails. The database is closed on return.
func (app *App) Run(ctx context.Context) error {
	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}()

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	if app.config.SeedDemoUsers {
		if err := app.seedDemoUsers(ctx); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	if app.config.EndpointAddrHTTP != "" {
		router := rest.NewRouter(rest.RouterDeps{
			Service:        app.authService,
			Logger:         app.logger,
			Metrics:        app.collector,
			Gatherer:       app.registry,
			AllowedOrigins: app.config.CORSAllowedOrigins,
		})
		hs := rest.NewHTTPServer(app.config.EndpointAddrHTTP, router, app.logger)
		g.Go(func() error { return hs.Run(ctx) })
	}

	if app.config.EndpointAddrGRPC != "" {
		gsrv := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.authService, app.collector)
		g.Go(func() error { return gsrv.Run(ctx) })
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		app.logger.Error(ctx, "server error", "error", err)
		return err
	}

	app.logger.Info(context.Background(), "App stopped")
	return nil
}
