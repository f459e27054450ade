package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_DefaultValues tests that hardcoded defaults are applied correctly.
func TestLoad_DefaultValues(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "qc-audit-service", cfg.App.Name)
	assert.Equal(t, "local", cfg.App.Environment)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "HS256", cfg.JWT.Algorithm)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenTTL)
	assert.False(t, cfg.JWT.CookieSecure)
	assert.Equal(t, DefaultProcessingMaxAttempts, cfg.Processing.MaxAttempts)
	assert.Equal(t, DefaultProcessingRetryDelay, cfg.Processing.RetryDelay)
	assert.Equal(t, DefaultProcessingWorkers, cfg.Processing.Workers)
	assert.Equal(t, "scribe_v1", cfg.Services.ElevenLabs.ModelID)
}

func TestLoad_DatabasePool(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultDBPoolSize+DefaultDBMaxOverflow, cfg.Database.MaxOpenConns())
	assert.Equal(t, time.Hour, cfg.Database.PoolRecycle)
	assert.Equal(t, 30*time.Second, cfg.Database.StatementTimeout)
	assert.Equal(t, 10*time.Second, cfg.Database.LockTimeout)
}

// TestLoad_EnvVarOverrides tests that APP_ variables override defaults.
func TestLoad_EnvVarOverrides(t *testing.T) {
	t.Setenv("APP_SERVER__PORT", "9090")
	t.Setenv("APP_LOG__LEVEL", "trace")
	t.Setenv("APP_DATABASE__MAX_OVERFLOW", "5")
	t.Setenv("APP_SERVICES__AZURE_OPENAI__DEPLOYMENT", "gpt-4o-mini")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "trace", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Database.MaxOverflow)
	assert.Equal(t, "gpt-4o-mini", cfg.Services.AzureOpenAI.Deployment)
}

func TestLoad_EnvAliases(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/qc")
	t.Setenv("JWT_SECRET_KEY", "alias-secret-key-0123456789")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "90")
	t.Setenv("S3_BUCKET_NAME", "recordings")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("ELEVENLABS_API_KEY", "xi-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/qc", cfg.Database.URL)
	assert.Equal(t, "alias-secret-key-0123456789", cfg.JWT.SecretKey)
	assert.Equal(t, 90*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, "recordings", cfg.Storage.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	assert.Equal(t, "xi-key", cfg.Services.ElevenLabs.APIKey)
}

func TestLoad_PrefixedBeatsAlias(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://alias")
	t.Setenv("APP_DATABASE__URL", "postgres://prefixed")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "postgres://prefixed", cfg.Database.URL)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("S3_BUCKET_NAME=from-dotenv\n"), 0o600))
	t.Chdir(dir)

	// Registers cleanup so the variable set by godotenv does not leak.
	t.Setenv("S3_BUCKET_NAME", "")
	require.NoError(t, os.Unsetenv("S3_BUCKET_NAME"))

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Storage.S3.Bucket)
}

func TestLoad_ProfileFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "configs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "configs", "test.yaml"), []byte(`
database:
  driver: sqlite
  url: "file::memory:?cache=shared"
cors:
  allowed_origins: ["https://qc.example.com"]
`), 0o600))
	t.Chdir(dir)

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, []string{"https://qc.example.com"}, cfg.CORS.AllowedOrigins)
}

// TestLoad_NonExistentProfile tests that a missing profile file doesn't cause errors.
func TestLoad_NonExistentProfile(t *testing.T) {
	cfg, err := Load("nonexistent")
	require.NoError(t, err)

	assert.Equal(t, "qc-audit-service", cfg.App.Name)
}

func TestLoad_BoolEnvVar(t *testing.T) {
	t.Setenv("APP_REDIS__ENABLED", "true")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_LogFileDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.False(t, cfg.Log.File.Enabled)
	assert.Equal(t, "logs/app.log", cfg.Log.File.Path)
	assert.Equal(t, DefaultLogFileMaxSizeMB, cfg.Log.File.MaxSizeMB)
	assert.Equal(t, DefaultLogFileMaxBackups, cfg.Log.File.MaxBackups)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.max_overflow", envKey("APP_DATABASE__MAX_OVERFLOW"))
	assert.Equal(t, "services.azure_openai.api_key", envKey("APP_SERVICES__AZURE_OPENAI__API_KEY"))
	assert.Equal(t, "log.level", envKey("APP_LOG__LEVEL"))
}
