package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

const instrumentationName = "github.com/jsamuelsen/qc-audit-service/internal/adapters/clients"

// defaultTimeout applies when the provider config leaves the timeout unset.
// Transcribing a long recording routinely takes tens of seconds.
const defaultTimeout = 120 * time.Second

// Config configures a client for one AI provider.
type Config struct {
	// BaseURL is prefixed to every request path.
	BaseURL string

	// ServiceName identifies the provider in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt. Retries can make a call take longer.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// AuthFunc sets provider credentials before every attempt.
	AuthFunc func(*http.Request)

	Logger *slog.Logger
}

// Client is the HTTP client behind the speech and language providers.
// Calls are retried with jittered exponential backoff, honour Retry-After
// on 429 and 503, and are refused while the provider's breaker is open.
// Each call is traced and carries the caller's request and correlation IDs.
type Client struct {
	http    *http.Client
	baseURL string
	name    string
	retry   config.RetryConfig
	auth    func(*http.Request)
	logger  *slog.Logger
	breaker *CircuitBreaker
	tracer  trace.Tracer
	metrics *clientMetrics
}

type clientMetrics struct {
	duration metric.Float64Histogram
	total    metric.Int64Counter
}

func newClientMetrics(meter metric.Meter) (*clientMetrics, error) {
	duration, err := meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of AI provider calls, retries included"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	total, err := meter.Int64Counter("http.client.request.total",
		metric.WithDescription("AI provider calls by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	return &clientMetrics{duration: duration, total: total}, nil
}

func (m *clientMetrics) record(ctx context.Context, peer, method, outcome string, status int, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", peer),
		attribute.String("result", outcome),
	}

	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	set := metric.WithAttributes(attrs...)
	m.duration.Record(ctx, elapsed.Seconds(), set)
	m.total.Add(ctx, 1, set)
}

// New creates a client for cfg.ServiceName.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retry := cfg.Retry
	retry.MaxAttempts = max(retry.MaxAttempts, 1)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logger = logging.Component(logger, "clients.Client").With(slog.String("downstream", cfg.ServiceName))

	metrics, err := newClientMetrics(otel.Meter(instrumentationName))
	if err != nil {
		return nil, err
	}

	breaker := NewCircuitBreaker(cfg.Circuit)
	breaker.OnStateChange(func(from, to State) {
		logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	return &Client{
		http:    &http.Client{Timeout: timeout, Transport: newTransport(cfg.Transport)},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		name:    cfg.ServiceName,
		retry:   retry,
		auth:    cfg.AuthFunc,
		logger:  logger,
		breaker: breaker,
		tracer:  otel.Tracer(instrumentationName),
		metrics: metrics,
	}, nil
}

// newTransport starts from the default transport so proxy and TLS
// settings are kept, then applies the configured pool limits.
func newTransport(tc config.TransportConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone() //nolint:forcetypeassert // stdlib default is always *http.Transport

	if tc.MaxIdleConns > 0 {
		t.MaxIdleConns = tc.MaxIdleConns
	}

	if tc.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = tc.MaxIdleConnsPerHost
	}

	if tc.IdleConnTimeout > 0 {
		t.IdleConnTimeout = tc.IdleConnTimeout
	}

	return t
}

// ServiceName is the provider this client talks to.
func (c *Client) ServiceName() string { return c.name }

// CircuitState is the provider's breaker state.
func (c *Client) CircuitState() State { return c.breaker.State() }

// Post sends body with the given content type. The body is held in memory
// so every retry can resend it.
func (c *Client) Post(ctx context.Context, path, contentType string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(path), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)

	return c.Do(ctx, req)
}

// PostJSON encodes payload as JSON and posts it.
func (c *Client) PostJSON(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	return c.Post(ctx, path, "application/json", body)
}

// Do sends req, retrying transport failures, 429 and 5xx responses. Any
// other response is returned for the caller to interpret. A body can only
// be resent when req.GetBody is set, as it is for Post and PostJSON.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContextOr(ctx, c.logger).With(
		slog.String("downstream", c.name),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
	)

	if !c.breaker.Allow() {
		c.metrics.record(ctx, c.name, req.Method, "circuit_open", 0, 0)
		logger.Warn("request blocked by circuit breaker")

		return nil, fmt.Errorf("%w: retry in %s", ErrCircuitOpen, c.breaker.RetryIn().Round(time.Second))
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.name),
		),
	)
	defer span.End()

	c.stamp(ctx, req)

	resp, err := c.send(ctx, req, logger)
	elapsed := time.Since(start)

	if err != nil {
		c.breaker.RecordFailure()
		span.SetStatus(codes.Error, err.Error())

		outcome := "error"
		if ctx.Err() != nil {
			outcome = "context_canceled"
		}

		c.metrics.record(ctx, c.name, req.Method, outcome, 0, elapsed)
		logger.Error("request failed", slog.Duration("duration", elapsed), slog.Any("error", err))

		if ctx.Err() != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %w", ErrMaxRetriesExceeded, err)
	}

	// A non-retryable status means the provider is up; it is the request
	// that was refused.
	c.breaker.RecordSuccess()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode >= http.StatusBadRequest {
		span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
	}

	c.metrics.record(ctx, c.name, req.Method, strconv.Itoa(resp.StatusCode/100)+"xx", resp.StatusCode, elapsed)
	logger.Debug("request completed", slog.Int("status", resp.StatusCode), slog.Duration("duration", elapsed))

	return resp, nil
}

// stamp copies the caller's identifiers and trace context onto req.
func (c *Client) stamp(ctx context.Context, req *http.Request) {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
}

func (c *Client) send(ctx context.Context, req *http.Request, logger *slog.Logger) (*http.Response, error) {
	var lastErr error

	for attempt := range c.retry.MaxAttempts {
		if attempt > 0 {
			if err := rewindBody(req); err != nil {
				return nil, err
			}
		}

		if c.auth != nil {
			c.auth(req)
		}

		resp, err := c.http.Do(req.WithContext(ctx))

		wait, retryable := c.classify(resp, err, attempt)
		if !retryable {
			return resp, err
		}

		if err != nil {
			lastErr = err
		} else {
			lastErr = &StatusError{StatusCode: resp.StatusCode}
			_ = resp.Body.Close()
		}

		if attempt == c.retry.MaxAttempts-1 {
			break
		}

		logger.Debug("retrying request",
			slog.Int("attempt", attempt+2),
			slog.Duration("wait", wait),
			slog.Any("cause", lastErr),
		)

		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// classify reports whether an attempt should be retried and how long to
// wait first. Retry-After is honoured up to the configured max interval.
func (c *Client) classify(resp *http.Response, err error, attempt int) (time.Duration, bool) {
	if err != nil {
		return c.backoff(attempt), isRetryableError(err)
	}

	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode < http.StatusInternalServerError {
		return 0, false
	}

	wait := c.backoff(attempt)
	if hinted := retryAfter(resp); hinted > wait {
		wait = min(hinted, c.retry.MaxInterval)
	}

	return wait, true
}

// backoff is InitialInterval * Multiplier^retry capped at MaxInterval,
// spread by JitterFactor in both directions.
func (c *Client) backoff(retry int) time.Duration {
	d := float64(c.retry.InitialInterval) * math.Pow(c.retry.Multiplier, float64(retry))
	d = math.Min(d, float64(c.retry.MaxInterval))

	spread := rand.Float64()*2 - 1 //nolint:gosec // jitter needs no crypto randomness
	d += d * c.retry.JitterFactor * spread

	return time.Duration(d)
}

func (c *Client) url(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return c.baseURL + path
}

// retryAfter reads a delay-seconds Retry-After header. HTTP dates are
// ignored; providers send seconds.
func retryAfter(resp *http.Response) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}

	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// rewindBody restores the request body consumed by the previous attempt.
func rewindBody(req *http.Request) error {
	if req.Body == nil || req.Body == http.NoBody {
		return nil
	}

	if req.GetBody == nil {
		return ErrBodyNotReplayable
	}

	body, err := req.GetBody()
	if err != nil {
		return fmt.Errorf("replaying request body: %w", err)
	}

	req.Body = body

	return nil
}

// isRetryableError is true for timeouts and connection failures. A
// cancelled or expired caller context is never retried.
func isRetryableError(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
