//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/clients/acl"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/events"
	qchttp "github.com/jsamuelsen/qc-audit-service/internal/adapters/http"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/handlers"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/persistence"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/revocation"
	"github.com/jsamuelsen/qc-audit-service/internal/adapters/storage"
	"github.com/jsamuelsen/qc-audit-service/internal/app"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/auth"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/telemetry"
	"github.com/jsamuelsen/qc-audit-service/internal/ports"
)

const (
	transcriptText = "Hello, this is Kavya from admissions. Hi, I wanted to ask about the fees."
	sentimentReply = "1"
	completionText = "Caller asked about course fees; counsellor explained the instalment plan."
)

// fakeProviders stands in for S3, ElevenLabs and Azure OpenAI.
type fakeProviders struct {
	s3     *httptest.Server
	speech *httptest.Server
	openai *httptest.Server

	mu      sync.Mutex
	objects map[string]int
}

func newFakeProviders(t *testing.T) *fakeProviders {
	t.Helper()

	f := &fakeProviders{objects: make(map[string]int)}

	f.s3 = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		if r.Method == http.MethodPut {
			f.mu.Lock()
			f.objects[r.URL.Path] = len(body)
			f.mu.Unlock()
		}

		w.Header().Set("ETag", `"0123456789abcdef"`)
		w.WriteHeader(http.StatusOK)
	}))

	f.speech = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		writeJSON(w, map[string]any{
			"language_code": "en",
			"text":          transcriptText,
			"words": []map[string]any{
				{"text": "Hello, this is Kavya from admissions.", "type": "word", "start": 0.0, "end": 2.5, "speaker_id": "speaker_0"},
				{"text": "Hi, I wanted to ask about the fees.", "type": "word", "start": 2.6, "end": 5.0, "speaker_id": "speaker_1"},
			},
		})
	}))

	f.openai = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		reply := completionText
		if len(req.Messages) > 0 && strings.Contains(req.Messages[0].Content, "sentiment analysis") {
			reply = sentimentReply
		}

		writeJSON(w, map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": reply}}},
			"usage":   map[string]int{"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160},
		})
	}))

	t.Cleanup(func() {
		f.s3.Close()
		f.speech.Close()
		f.openai.Close()
	})

	return f
}

func (f *fakeProviders) storedObjects() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.objects)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig is a complete config pointing every dependency at local fakes.
func testConfig(t *testing.T, f *fakeProviders) *config.Config {
	t.Helper()

	dir := t.TempDir()

	return &config.Config{
		App:    config.AppConfig{Name: "qc-audit-service", Version: "test", Environment: "test"},
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second, MaxRequestSize: config.DefaultMaxRequestSize},
		Client: config.ClientConfig{
			Timeout: 5 * time.Second,
			Retry: config.RetryConfig{
				MaxAttempts:     2,
				InitialInterval: 10 * time.Millisecond,
				MaxInterval:     50 * time.Millisecond,
				Multiplier:      2,
			},
			CircuitBreaker: config.CircuitBreakerConfig{MaxFailures: 5, Timeout: time.Second, HalfOpenLimit: 1},
			Transport: config.TransportConfig{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     time.Minute,
			},
		},
		Database: config.DatabaseConfig{
			Driver:           persistence.DriverSQLite,
			URL:              filepath.Join(dir, "qc.db"),
			PoolSize:         1,
			PoolRecycle:      time.Hour,
			PoolTimeout:      5 * time.Second,
			StatementTimeout: 30 * time.Second,
			LockTimeout:      10 * time.Second,
			AutoMigrate:      true,
			LogLevel:         "silent",
		},
		JWT: config.JWTConfig{
			SecretKey:       "integration-secret-0123456789",
			Algorithm:       "HS256",
			AccessTokenTTL:  time.Hour,
			RefreshTokenTTL: 24 * time.Hour,
		},
		Storage: config.StorageConfig{S3: config.S3Config{
			Bucket:          "qc-recordings",
			Region:          "ap-south-1",
			AccessKeyID:     "test",
			SecretAccessKey: "test",
			Endpoint:        f.s3.URL,
			UsePathStyle:    true,
		}},
		Services: config.ServicesConfig{
			ElevenLabs: config.ElevenLabsConfig{
				Name: "elevenlabs", BaseURL: f.speech.URL, APIKey: "xi-test", ModelID: "scribe_v1", LanguageCode: "en",
			},
			AzureOpenAI: config.AzureOpenAIConfig{
				Name: "azure-openai", Endpoint: f.openai.URL, APIKey: "az-test", APIVersion: "2024-02-01", Deployment: "gpt-4o",
			},
		},
		Upload:     config.UploadConfig{TempDir: filepath.Join(dir, "uploads"), MaxSize: 10 << 20},
		Processing: config.ProcessingConfig{MaxAttempts: 2, RetryDelay: 10 * time.Millisecond, Timeout: 30 * time.Second},
		CORS:       config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
	}
}

// stack is the whole service wired in process, as cmd/service does.
type stack struct {
	server    *httptest.Server
	providers *fakeProviders
	db        *persistence.Database
}

func newStack(t *testing.T) *stack {
	t.Helper()

	gin.SetMode(gin.TestMode)

	ctx := context.Background()
	logger := discardLogger()
	providers := newFakeProviders(t)
	cfg := testConfig(t, providers)

	db, err := persistence.Open(ctx, &cfg.Database, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	recordings, err := storage.NewS3Storage(ctx, &cfg.Storage.S3, logger)
	require.NoError(t, err)

	transcriber, err := acl.NewElevenLabsTranscriber(&cfg.Services.ElevenLabs, &cfg.Client, logger)
	require.NoError(t, err)

	analyzer, err := acl.NewAzureOpenAIAnalyzer(&cfg.Services.AzureOpenAI, &cfg.Client, logger)
	require.NoError(t, err)

	metrics, err := telemetry.NewProcessingMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	bus, err := events.NewBus(&cfg.Processing, metrics, logger)
	require.NoError(t, err)

	counsellorRepo := persistence.NewCounsellorRepository(db.DB)
	processor := app.NewCallProcessor(counsellorRepo, recordings, transcriber, analyzer, app.ProcessorConfig{
		Timeout: cfg.Processing.Timeout,
		Metrics: metrics,
		Logger:  logger,
	})
	require.NoError(t, bus.Subscribe(processor))

	runCtx, cancel := context.WithCancel(ctx)
	go func() { _ = bus.Run(runCtx) }()
	t.Cleanup(func() {
		cancel()
		_ = bus.Close()
	})

	select {
	case <-bus.Running():
	case <-time.After(5 * time.Second):
		t.Fatal("event router did not start")
	}

	tokens, err := auth.NewTokens(&cfg.JWT)
	require.NoError(t, err)

	hasher := auth.NewBcryptHasher(4)
	svcCfg := &app.ServiceConfig{Logger: logger}
	authService := app.NewAuthService(persistence.NewStaffRepository(db.DB), tokens, hasher, revocation.NewMemoryStore())

	registry := ports.NewHealthRegistry()
	require.NoError(t, registry.Register(db))
	require.NoError(t, registry.Register(bus))

	routerCfg := qchttp.NewDefaultRouterConfig(logger, cfg)
	routerCfg.Authenticator = authService
	routerCfg.HealthHandler = handlers.NewHealthHandler(registry, handlers.NewBuildInfo("test", "abc123", "2026-01-01T00:00:00Z"))
	routerCfg.AuthHandler = handlers.NewAuthHandler(authService, auth.NewCookies(&cfg.JWT))
	routerCfg.ManagerHandler = handlers.NewManagerHandler(app.NewManagerService(
		persistence.NewManagerRepository(db.DB), hasher, auth.NewGenerator(auth.GeneratedPasswordLength), svcCfg,
	))
	routerCfg.AuditorHandler = handlers.NewAuditorHandler(app.NewAuditorService(persistence.NewAuditorRepository(db.DB), hasher, svcCfg))
	routerCfg.CounsellorHandler = handlers.NewCounsellorHandler(app.NewCounsellorService(counsellorRepo, bus, app.UploadConfig{
		TempDir: cfg.Upload.TempDir,
		MaxSize: cfg.Upload.MaxSize,
	}))

	engine := gin.New()
	qchttp.SetupRouter(engine, routerCfg)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)

	return &stack{server: server, providers: providers, db: db}
}

// session is one browser: it keeps the cookies login sets.
type session struct {
	t       *testing.T
	baseURL string
	client  *http.Client
}

func (s *stack) newSession(t *testing.T) *session {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &session{t: t, baseURL: s.server.URL, client: &http.Client{Jar: jar, Timeout: 10 * time.Second}}
}
