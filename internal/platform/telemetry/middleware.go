package telemetry

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

const instrumentationName = "github.com/jsamuelsen/qc-audit-service/telemetry"

// HeaderTraceID carries the request's trace ID back to the frontend.
const HeaderTraceID = "X-Trace-ID"

// unmatchedRoute labels requests that hit no route, keeping 404 scans from
// growing the metric cardinality.
const unmatchedRoute = "unmatched"

type httpMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("API request duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	total, err := meter.Int64Counter("http.server.request.total",
		metric.WithDescription("API requests served"),
	)
	if err != nil {
		return nil, err
	}

	inFlight, err := meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("API requests in progress"),
	)
	if err != nil {
		return nil, err
	}

	return &httpMetrics{duration: duration, total: total, inFlight: inFlight}, nil
}

// Middleware records request metrics per route, echoes the trace ID in
// X-Trace-ID and adds it to the request logger. It must run after TracingMiddleware, which starts the span.
func Middleware() gin.HandlerFunc {
	// Without metrics the middleware still sets X-Trace-ID.
	m, err := newHTTPMetrics(otel.Meter(instrumentationName))
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			traceID := sc.TraceID().String()
			c.Header(HeaderTraceID, traceID)

			ctx = logging.WithTraceID(ctx, traceID)
			c.Request = c.Request.WithContext(ctx)
		}

		if m == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		method := attribute.String("http.method", c.Request.Method)
		routeAttr := attribute.String("http.route", route)
		live := metric.WithAttributes(method, routeAttr)

		m.inFlight.Add(ctx, 1, live)
		defer m.inFlight.Add(ctx, -1, live)

		start := time.Now()

		c.Next()

		done := metric.WithAttributes(method, routeAttr,
			attribute.String("http.status_code", strconv.Itoa(c.Writer.Status())),
		)
		m.duration.Record(ctx, time.Since(start).Seconds(), done)
		m.total.Add(ctx, 1, done)
	}
}

// TracingMiddleware starts a server span per request with otelgin.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}
