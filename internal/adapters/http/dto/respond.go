package dto

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

// HandleError writes the error envelope for err. Unexpected errors are
// logged with full detail and shown to the caller as a generic 500, or as
// a 504 when the request deadline had already expired.
func HandleError(c *gin.Context, err error) {
	status, errResp := FromError(err)
	if ctxErr := c.Request.Context().Err(); status == http.StatusInternalServerError &&
		errors.Is(ctxErr, context.DeadlineExceeded) {
		err = errors.Join(err, ctxErr)
		status, errResp = FromError(err)
	}
	errResp.WithTraceID(GetTraceID(c))

	logger := logging.FromContext(c.Request.Context())

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.Int("status", status),
			slog.Any("error", err),
			slog.String("trace_id", errResp.TraceID),
		)
	} else {
		logger.Debug("request rejected",
			slog.Int("status", status),
			slog.String("reason", errResp.Message),
		)
	}

	c.JSON(status, errResp)
}

// AbortWithError aborts the handler chain and writes the error envelope for err.
func AbortWithError(c *gin.Context, err error) {
	HandleError(c, err)
	c.Abort()
}

// AbortWithStatus aborts the handler chain with an explicit status and message.
func AbortWithStatus(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, NewErrorResponse(status, message).WithTraceID(GetTraceID(c)))
}

// GetTraceID returns the trace ID of the request span, if it is sampled.
func GetTraceID(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}

	if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().HasTraceID() {
		return span.SpanContext().TraceID().String()
	}

	return ""
}
