package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

// probePrefix marks the platform probe routes, which are never logged.
const probePrefix = "/-/"

// Logging logs each API request when it starts and when it completes.
// The completion record is written with the request logger as later
// middleware left it, so it names the authenticated staff member.
func Logging(logger *slog.Logger, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = true
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if skip[path] || strings.HasPrefix(path, probePrefix) {
			c.Next()
			return
		}

		if q := c.Request.URL.RawQuery; q != "" {
			path += "?" + q
		}

		start := time.Now()
		request := []any{slog.String("method", c.Request.Method), slog.String("path", path)}

		logging.FromContextOr(c.Request.Context(), logger).Info("request started",
			append(request,
				slog.String("client_ip", c.ClientIP()),
				slog.String("user_agent", c.Request.UserAgent()),
			)...,
		)

		c.Next()

		ctx := c.Request.Context()
		status := c.Writer.Status()
		latency := time.Since(start)

		logging.FromContextOr(ctx, logger).Log(ctx, levelFor(status), "request completed",
			append(request,
				slog.String("route", c.FullPath()),
				slog.Int("status", status),
				slog.Duration("latency", latency),
				slog.Int64("latency_ms", latency.Milliseconds()),
				slog.Int("bytes", c.Writer.Size()),
			)...,
		)
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
