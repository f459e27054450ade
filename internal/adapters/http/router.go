package http

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/telemetry"
)

// DefaultRequestTimeout is the default timeout for API requests.
const DefaultRequestTimeout = 30 * time.Second

// RouterConfig contains configuration for setting up the router.
type RouterConfig struct {
	// Logger is the structured logger for request logging.
	Logger *slog.Logger

	// AppConfig contains application configuration.
	AppConfig *config.AppConfig

	// CORS lists the browser origins allowed to call the API with cookies.
	CORS config.CORSConfig

	// Timeout is the deadline of API requests other than recording uploads.
	Timeout time.Duration

	// MaxRequestSize bounds request bodies; MaxUploadSize is added for
	// multipart uploads.
	MaxRequestSize int64
	MaxUploadSize  int64

	// Authenticator resolves the access cookie of protected routes.
	Authenticator middleware.Authenticator

	HealthHandler     *handlers.HealthHandler
	AuthHandler       *handlers.AuthHandler
	ManagerHandler    *handlers.ManagerHandler
	AuditorHandler    *handlers.AuditorHandler
	CounsellorHandler *handlers.CounsellorHandler
}

// SetupRouter configures all routes and middleware on the Gin engine.
// Middleware is applied in the following order (first to last):
//  1. Recovery - catch panics first
//  2. Request ID - generate/extract request ID
//  3. Correlation ID - handle distributed tracing correlation
//  4. OpenTelemetry - span, then metrics and X-Trace-ID
//  5. CORS - answers preflights before anything else runs
//  6. Logging - request logging (skips probes)
//  7. Body limit
//  8. Timeout - on /api/v1, except recording uploads
//
// Route groups:
//   - / and /health: liveness for the frontend and load balancers
//   - /-/ (internal): probes, build info and metrics
//   - /api/v1/: auth, manager, auditor and counsellor routes
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	serviceName := "qc-audit-service"
	if cfg.AppConfig != nil && cfg.AppConfig.Name != "" {
		serviceName = cfg.AppConfig.Name
	}

	engine.Use(
		middleware.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.TracingMiddleware(serviceName),
		telemetry.Middleware(),
		middleware.CORS(middleware.CORSConfig{
			AllowOrigins: cfg.CORS.AllowedOrigins,
			MaxAge:       cfg.CORS.MaxAge,
		}),
		middleware.Logging(cfg.Logger, "/", "/health"),
	)

	if cfg.MaxRequestSize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxRequestSize, cfg.MaxUploadSize))
	}

	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(engine)
	}

	apiV1 := engine.Group("/api/v1")
	if cfg.Timeout > 0 {
		apiV1.Use(middleware.Timeout(cfg.Timeout, handlers.UploadPath))
	}

	setupAPIRoutes(apiV1, cfg)
}

// setupAPIRoutes registers the business routes of every configured handler.
func setupAPIRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	var requireAuth gin.HandlerFunc
	if cfg.Authenticator != nil {
		requireAuth = middleware.RequireAuth(cfg.Authenticator)
	}

	if requireAuth != nil {
		if cfg.AuthHandler != nil {
			cfg.AuthHandler.RegisterRoutes(rg, requireAuth)
		}

		if cfg.ManagerHandler != nil {
			cfg.ManagerHandler.RegisterRoutes(rg, requireAuth)
		}

		if cfg.AuditorHandler != nil {
			cfg.AuditorHandler.RegisterRoutes(rg, requireAuth)
		}
	}

	if cfg.CounsellorHandler != nil {
		cfg.CounsellorHandler.RegisterRoutes(rg)
	}
}

// NewDefaultRouterConfig creates a RouterConfig from the service
// configuration. Handlers and the authenticator are set by the caller.
func NewDefaultRouterConfig(logger *slog.Logger, cfg *config.Config) RouterConfig {
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	return RouterConfig{
		Logger:         logger,
		AppConfig:      &cfg.App,
		CORS:           cfg.CORS,
		Timeout:        timeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		MaxUploadSize:  cfg.Upload.MaxSize,
	}
}
