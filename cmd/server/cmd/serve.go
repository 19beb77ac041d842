package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/royalhouse/server/internal/api"
	"github.com/royalhouse/server/internal/auth"
	"github.com/royalhouse/server/internal/config"
	"github.com/royalhouse/server/internal/domain/administration"
	"github.com/royalhouse/server/internal/domain/admins"
	"github.com/royalhouse/server/internal/domain/login"
	"github.com/royalhouse/server/internal/domain/media"
	"github.com/royalhouse/server/internal/domain/updates"
	"github.com/royalhouse/server/internal/email"
	"github.com/royalhouse/server/internal/metrics"
	"github.com/royalhouse/server/internal/storage/postgres"
	"github.com/royalhouse/server/internal/storage/uploads"
	"github.com/royalhouse/server/internal/telemetry"
)

const (
	shutdownTimeout   = 10 * time.Second
	dbCollectInterval = 15 * time.Second
)

type serveOptions struct {
	host        string
	port        int
	skipMigrate bool
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Royal House HTTP server",
		Long: `Start the Royal House HTTP server and begin accepting requests.

The server will:
- Load configuration from environment variables (and --config if given)
- Apply pending database migrations unless --skip-migrate is set
- Add ADMIN_EMAIL to the admin allow-list when it is missing
- Serve the API, the login and dashboard pages, and uploaded files
- Shut down gracefully on SIGINT/SIGTERM

Examples:
  # Start with configuration from env vars
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging and a config file
  server serve --log-level debug --config /etc/royalhouse/config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 8080)")
	cmd.Flags().BoolVar(&opts.skipMigrate, "skip-migrate", false, "do not apply migrations on startup")
	return cmd
}

func runServer(ctx context.Context, opts serveOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting royal house server")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing init failed: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	if !opts.skipMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return fmt.Errorf("database migration failed: %w", err)
		}
		logger.Info().Msg("database migrations applied")
	}

	pool, err := openPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return err
	}

	store, err := uploads.NewLocalStore(cfg.Uploads.Dir)
	if err != nil {
		return fmt.Errorf("upload directory: %w", err)
	}

	sessions := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.JWTIssuer)
	mailer, err := email.NewService(cfg.Email, cfg.Auth.OTPTTL, logger)
	if err != nil {
		return fmt.Errorf("email service: %w", err)
	}

	adminService := admins.NewService(repo.Admins(), logger)
	bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := bootstrapAdmin(bootstrapCtx, adminService, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	cancel()

	router := api.NewRouter(api.Dependencies{
		Config:   cfg,
		Logger:   logger,
		Pool:     pool,
		DB:       repo,
		Sessions: sessions,
		Uploads:  store,
		Services: api.Services{
			Administration: administration.NewService(repo.Administration(), logger),
			Media:          media.NewService(repo.Media(), logger),
			Updates:        updates.NewService(repo.Updates(), logger),
			Admins:         adminService,
			Login: login.NewService(repo.Admins(), mailer, sessions, login.Options{
				CodeTTL:    cfg.Auth.OTPTTL,
				SessionTTL: cfg.Auth.JWTExpiry,
				Generate:   auth.GenerateOTP,
			}, logger),
		},
		Build: api.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate},
	})
	defer router.Close()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router.Handler,
		ReadTimeout:       5 * time.Minute, // uploads stream through the request body
		WriteTimeout:      5 * time.Minute,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	dbCollector := metrics.NewDBCollector(pool, logger)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dbCollector.Start(gctx, dbCollectInterval)
		return nil
	})

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return gracefulShutdown(server, logger)
	})

	return g.Wait()
}

// loadConfig reads env vars, overlays --config and applies the logging flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if err := config.LoadFile(configPath, &cfg); err != nil {
		return config.Config{}, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

type adminEnsurer interface {
	Ensure(ctx context.Context, email string) (bool, error)
}

// bootstrapAdmin makes sure ADMIN_EMAIL can log in on a fresh database.
func bootstrapAdmin(ctx context.Context, svc adminEnsurer, cfg config.Config, logger zerolog.Logger) error {
	address := cfg.AdminBootstrap.Email
	if address == "" {
		logger.Debug().Msg("ADMIN_EMAIL not set; skipping admin bootstrap")
		return nil
	}

	created, err := svc.Ensure(ctx, address)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	// Redact email in production to keep PII out of logs
	if cfg.IsProduction() {
		logger.Info().Msg("bootstrapped admin allow-list entry")
	} else {
		logger.Info().Str("email", address).Msg("bootstrapped admin allow-list entry")
	}
	return nil
}

func gracefulShutdown(server *http.Server, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
