// Package middleware provides HTTP middleware for the Gin framework.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderCorrelationID = "X-Correlation-ID"

	// Gin context keys of the two IDs.
	ContextKeyRequestID     = "request_id"
	ContextKeyCorrelationID = "correlation_id"

	// maxIDLength bounds caller-supplied IDs; longer ones are replaced.
	maxIDLength = 128
)

type idKey int

const (
	requestIDKey idKey = iota
	correlationIDKey
)

// trackedID describes one ID that follows a request from the header into
// the gin context, the request context and its log attributes.
type trackedID struct {
	header string
	ginKey string
	key    idKey
	logged func(context.Context, string) context.Context
}

var (
	requestID     = trackedID{HeaderRequestID, ContextKeyRequestID, requestIDKey, logging.WithRequestID}
	correlationID = trackedID{HeaderCorrelationID, ContextKeyCorrelationID, correlationIDKey, logging.WithCorrelationID}
)

func (t trackedID) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(t.header)
		if !acceptableID(id) {
			id = uuid.NewString()
		}

		c.Set(t.ginKey, id)
		c.Header(t.header, id)

		ctx := context.WithValue(c.Request.Context(), t.key, id)
		c.Request = c.Request.WithContext(t.logged(ctx, id))

		c.Next()
	}
}

// acceptableID reports whether a caller-supplied ID can be logged and
// forwarded as is: non-empty printable ASCII of bounded length.
func acceptableID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}

	for i := range len(id) {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}

	return true
}

// RequestID returns middleware that takes X-Request-ID from the caller or
// generates a UUID v4. The ID is echoed in the response and carried by the
// request context, so recording events and provider calls started by the
// request keep it.
func RequestID() gin.HandlerFunc { return requestID.handler() }

// CorrelationID returns middleware that propagates X-Correlation-ID from
// the frontend, or starts a new one. A recording upload and its background
// processing share the upload's correlation ID.
func CorrelationID() gin.HandlerFunc { return correlationID.handler() }

// GetRequestID returns the request ID set by RequestID, or "".
func GetRequestID(c *gin.Context) string { return c.GetString(ContextKeyRequestID) }

// GetCorrelationID returns the correlation ID set by CorrelationID, or "".
func GetCorrelationID(c *gin.Context) string { return c.GetString(ContextKeyCorrelationID) }

// RequestIDFromContext returns the request ID carried by ctx, or "".
func RequestIDFromContext(ctx context.Context) string { return idFrom(ctx, requestIDKey) }

// CorrelationIDFromContext returns the correlation ID carried by ctx, or "".
func CorrelationIDFromContext(ctx context.Context) string { return idFrom(ctx, correlationIDKey) }

// ContextWithRequestID stores a request ID in ctx. The event bus uses it to
// restore the uploading request's ID on the processing context.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID stores a correlation ID in ctx.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func idFrom(ctx context.Context, key idKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}
