// Package persistence stores staff, calls and audits in a relational
// database through gorm. Postgres is used in production and sqlite for
// local runs and tests.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	slowQueryThreshold = 500 * time.Millisecond
)

// Database holds the gorm handle and reports its health.
type Database struct {
	DB     *gorm.DB
	driver string
}

// Open connects to the configured database, applies the pool settings and
// pings it within the pool timeout.
func Open(ctx context.Context, cfg *config.DatabaseConfig, log *slog.Logger) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newGormLogger(log, cfg.LogLevel),
		SkipDefaultTransaction: true,
		TranslateError:         true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	db := &Database{DB: gdb, driver: cfg.Driver}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns())
	sqlDB.SetMaxIdleConns(cfg.PoolSize)
	sqlDB.SetConnMaxLifetime(cfg.PoolRecycle)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.PoolTimeout)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
	}

	return db, nil
}

// Driver names the SQL dialect in use.
func (d *Database) Driver() string {
	return d.driver
}

// AutoMigrate creates or updates every table from the gorm models.
func (d *Database) AutoMigrate(ctx context.Context) error {
	if err := d.DB.WithContext(ctx).AutoMigrate(allModels()...); err != nil {
		return fmt.Errorf("auto-migrating schema: %w", err)
	}

	return nil
}

// Name implements ports.HealthChecker.
func (d *Database) Name() string {
	return "database"
}

// Check implements ports.HealthChecker.
func (d *Database) Check(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("getting sql.DB: %w", err)
	}

	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("getting sql.DB: %w", err)
	}

	return sqlDB.Close()
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case DriverPostgres:
		dsn, err := postgresDSN(cfg.URL, cfg.StatementTimeout, cfg.LockTimeout)
		if err != nil {
			return nil, err
		}

		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// postgresDSN adds the session timeouts as runtime parameters. Both URL and
// keyword/value connection strings are accepted.
func postgresDSN(dsn string, statement, lock time.Duration) (string, error) {
	params := map[string]string{
		"statement_timeout": strconv.FormatInt(statement.Milliseconds(), 10),
		"lock_timeout":      strconv.FormatInt(lock.Milliseconds(), 10),
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return "", fmt.Errorf("parsing database url: %w", err)
		}

		q := u.Query()
		for k, v := range params {
			if q.Get(k) == "" {
				q.Set(k, v)
			}
		}

		u.RawQuery = q.Encode()

		return u.String(), nil
	}

	if strings.TrimSpace(dsn) == "" {
		return "", errors.New("database url is empty")
	}

	var b strings.Builder
	b.WriteString(dsn)

	for _, k := range []string{"statement_timeout", "lock_timeout"} {
		if !strings.Contains(dsn, k+"=") {
			fmt.Fprintf(&b, " %s=%s", k, params[k])
		}
	}

	return b.String(), nil
}

func newGormLogger(log *slog.Logger, level string) logger.Interface {
	if log == nil {
		return logger.Discard
	}

	return logger.NewSlogLogger(logging.Component(log, "database"), logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormLogLevel(level),
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	})
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}
