// Package app contains the use cases of the QC service. Services coordinate
// domain rules and the adapters behind the ports package; they know nothing
// about HTTP, SQL or the AI provider wire formats.
package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

// ServiceConfig holds optional settings shared by the application services.
type ServiceConfig struct {
	Logger *slog.Logger

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

func (c *ServiceConfig) baseLogger() *slog.Logger {
	if c != nil && c.Logger != nil {
		return c.Logger
	}

	return slog.Default()
}

func (c *ServiceConfig) clock() func() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock
	}

	return time.Now
}

// requestLogger prefers the request-scoped logger, which carries the
// request and trace ids, and tags it with the component.
func requestLogger(ctx context.Context, component string) *slog.Logger {
	return logging.Component(logging.FromContext(ctx), component)
}
