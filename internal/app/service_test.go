package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

// fixedNow is the clock used by dashboard tests: 2024-03-10 15:04 UTC.
var fixedNow = time.Date(2024, 3, 10, 15, 4, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *ServiceConfig {
	return &ServiceConfig{
		Logger: discardLogger(),
		Clock:  func() time.Time { return fixedNow },
	}
}

func testContext() context.Context {
	return logging.WithContext(context.Background(), discardLogger())
}
