package events

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

// slogAdapter routes watermill's logging into the service logger.
type slogAdapter struct {
	logger *slog.Logger
}

// NewLoggerAdapter wraps logger for use by watermill components.
func NewLoggerAdapter(logger *slog.Logger) watermill.LoggerAdapter {
	if logger == nil {
		logger = slog.Default()
	}

	return &slogAdapter{logger: logger}
}

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log(slog.LevelError, msg, append(attrs(fields), slog.Any("error", err)))
}

func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.log(slog.LevelInfo, msg, attrs(fields))
}

func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log(slog.LevelDebug, msg, attrs(fields))
}

func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log(logging.LevelTrace, msg, attrs(fields))
}

func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	args := make([]any, 0, len(fields))
	for _, attr := range attrs(fields) {
		args = append(args, attr)
	}

	return &slogAdapter{logger: a.logger.With(args...)}
}

func (a *slogAdapter) log(level slog.Level, msg string, as []slog.Attr) {
	a.logger.LogAttrs(context.Background(), level, msg, as...)
}

func attrs(fields watermill.LogFields) []slog.Attr {
	out := make([]slog.Attr, 0, len(fields)+1)
	for k, v := range fields {
		out = append(out, slog.Any(k, v))
	}

	return out
}
