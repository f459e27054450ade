// Package main is the entry point for the QC audit service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/events"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/persistence"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/revocation"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/storage"
	"github.com/jsamuelsen/qc-audit-service/internal/app"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/auth"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/telemetry"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

// Build-time variables, injected via ldflags.
// go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

// busStartTimeout bounds the wait for the event router to subscribe.
const busStartTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// infra holds the resources closed at shutdown, in closing order after
// the HTTP server.
type infra struct {
	bus       *events.Bus
	telemetry *telemetry.Provider
	db        *persistence.Database
	redis     io.Closer
}

func run() error {
	ctx := context.Background()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	res := &infra{}

	// 4. Initialize telemetry (noop if disabled)
	res.telemetry, err = telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
		Insecure:     cfg.Telemetry.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	healthRegistry := ports.NewHealthRegistry()

	// 5. Database (database.auto_migrate creates the schema from the models)
	res.db, err = persistence.Open(ctx, &cfg.Database, logger)
	if err != nil {
		res.close(ctx, logger)
		return fmt.Errorf("opening database: %w", err)
	}

	// 6. Token revocation: Redis when enabled, otherwise in memory
	var revoker ports.TokenRevoker = revocation.NewMemoryStore()

	if cfg.Redis.Enabled {
		client, err := revocation.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			res.close(ctx, logger)
			return err
		}

		res.redis = client
		store := revocation.NewRedisStore(client, cfg.Redis.KeyPrefix)
		revoker = store

		if err := healthRegistry.Register(store); err != nil {
			res.close(ctx, logger)
			return fmt.Errorf("registering redis health check: %w", err)
		}
	}

	if err := healthRegistry.Register(res.db); err != nil {
		res.close(ctx, logger)
		return fmt.Errorf("registering database health check: %w", err)
	}

	// 7. Call processing: object storage, AI providers and the event bus
	recordings, err := storage.NewS3Storage(ctx, &cfg.Storage.S3, logger)
	if err != nil {
		res.close(ctx, logger)
		return fmt.Errorf("creating recording storage: %w", err)
	}

	transcriber, err := acl.NewElevenLabsTranscriber(&cfg.Services.ElevenLabs, &cfg.Client, logger)
	if err != nil {
		res.close(ctx, logger)
		return fmt.Errorf("creating transcriber: %w", err)
	}

	analyzer, err := acl.NewAzureOpenAIAnalyzer(&cfg.Services.AzureOpenAI, &cfg.Client, logger)
	if err != nil {
		res.close(ctx, logger)
		return fmt.Errorf("creating analyzer: %w", err)
	}

	processingMetrics, err := telemetry.NewProcessingMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		res.close(ctx, logger)
		return fmt.Errorf("registering processing metrics: %w", err)
	}

	res.bus, err = events.NewBus(&cfg.Processing, processingMetrics, logger)
	if err != nil {
		res.close(ctx, logger)
		return fmt.Errorf("creating event bus: %w", err)
	}

	counsellorRepo := persistence.NewCounsellorRepository(res.db.DB)

	processor := app.NewCallProcessor(counsellorRepo, recordings, transcriber, analyzer, app.ProcessorConfig{
		Timeout: cfg.Processing.Timeout,
		Metrics: processingMetrics,
		Logger:  logger,
	})

	if err := res.bus.Subscribe(processor); err != nil {
		res.close(ctx, logger)
		return fmt.Errorf("subscribing call processor: %w", err)
	}

	if err := healthRegistry.Register(res.bus); err != nil {
		res.close(ctx, logger)
		return fmt.Errorf("registering event bus health check: %w", err)
	}

	// 8. Application services
	tokens, err := auth.NewTokens(&cfg.JWT)
	if err != nil {
		res.close(ctx, logger)
		return fmt.Errorf("creating token service: %w", err)
	}

	hasher := auth.NewBcryptHasher(0)
	svcCfg := &app.ServiceConfig{Logger: logger}

	authService := app.NewAuthService(persistence.NewStaffRepository(res.db.DB), tokens, hasher, revoker)
	managerService := app.NewManagerService(
		persistence.NewManagerRepository(res.db.DB), hasher, auth.NewGenerator(auth.GeneratedPasswordLength), svcCfg,
	)
	auditorService := app.NewAuditorService(persistence.NewAuditorRepository(res.db.DB), hasher, svcCfg)
	counsellorService := app.NewCounsellorService(counsellorRepo, res.bus, app.UploadConfig{
		TempDir: cfg.Upload.TempDir,
		MaxSize: cfg.Upload.MaxSize,
	})

	// 9. Start the event router; uploads are only accepted once it has subscribed
	runCtx, stopRunning := context.WithCancel(ctx)
	defer stopRunning()

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error { return res.bus.Run(groupCtx) })

	select {
	case <-res.bus.Running():
	case <-groupCtx.Done():
		res.close(ctx, logger)
		return fmt.Errorf("event router stopped during startup: %w", group.Wait())
	case <-time.After(busStartTimeout):
		res.close(ctx, logger)
		return errors.New("event router did not start in time")
	}

	// 10. HTTP
	server := http.New(&cfg.Server, logger)

	routerCfg := http.NewDefaultRouterConfig(logger, cfg)
	routerCfg.Authenticator = authService
	routerCfg.HealthHandler = handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime))
	routerCfg.AuthHandler = handlers.NewAuthHandler(authService, auth.NewCookies(&cfg.JWT))
	routerCfg.ManagerHandler = handlers.NewManagerHandler(managerService)
	routerCfg.AuditorHandler = handlers.NewAuditorHandler(auditorService)
	routerCfg.CounsellorHandler = handlers.NewCounsellorHandler(counsellorService)

	http.SetupRouter(server.Engine(), routerCfg)

	serverErr, err := server.Start()
	if err != nil {
		stopRunning()
		res.close(ctx, logger)
		_ = group.Wait()

		return fmt.Errorf("starting server: %w", err)
	}

	// 11. Wait for shutdown signal
	err = waitForShutdown(ctx, logger, server, serverErr, groupCtx.Done(), cfg.Server.ShutdownTimeout)

	stopRunning()
	res.close(ctx, logger)

	if groupErr := group.Wait(); groupErr != nil && !errors.Is(groupErr, context.Canceled) {
		err = errors.Join(err, groupErr)
	}

	if err == nil {
		logger.Info("shutdown complete")
	}

	return err
}

// waitForShutdown blocks until a shutdown signal arrives, the server fails
// or the event router stops. It then shuts the HTTP server down, draining
// in-flight requests.
func waitForShutdown(
	ctx context.Context,
	logger *slog.Logger,
	server *http.Server,
	serverErr <-chan error,
	busDone <-chan struct{},
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error

	select {
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)

	case <-busDone:
		runErr = errors.New("event router stopped unexpectedly")

	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	logger.Info("initiating graceful shutdown",
		slog.Duration("timeout", shutdownTimeout),
	)

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("server shutdown: %w", err))
	}

	return runErr
}

// close releases everything after the HTTP server: the event router first
// so in-flight recordings finish, then telemetry, the database and Redis.
func (r *infra) close(ctx context.Context, logger *slog.Logger) {
	if r.bus != nil {
		if err := r.bus.Close(); err != nil {
			logger.Error("event bus shutdown error", slog.Any("error", err))
		}
	}

	if r.telemetry != nil {
		if err := r.telemetry.Shutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", err))
		}
	}

	if r.db != nil {
		if err := r.db.Close(); err != nil {
			logger.Error("database close error", slog.Any("error", err))
		}
	}

	if r.redis != nil {
		if err := r.redis.Close(); err != nil {
			logger.Error("redis close error", slog.Any("error", err))
		}
	}
}
