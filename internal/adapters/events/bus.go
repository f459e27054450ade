// Package events carries uploaded recordings from the HTTP handlers to the
// background call processor over an in-process watermill bus.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/qc-audit-service/internal/domain"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/config"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/telemetry"
)

const (
	// TopicRecordingUploaded carries recordings waiting to be processed.
	TopicRecordingUploaded = "call.recording.uploaded"

	// TopicRecordingFailed receives recordings whose processing exhausted every attempt.
	TopicRecordingFailed = "call.recording.failed"

	handlerProcess = "process_recording"
	handlerFailed  = "recording_failed"

	metaAttempt = "attempt"

	outputBuffer     = 64
	closeTimeout     = 30 * time.Second
	retryMultiplier  = 2.0
	maxDelayFactor   = 10
	retryRandomising = 0.1
)

var errRouterNotRunning = errors.New("event router is not running")

// RecordingHandler consumes recording events.
type RecordingHandler interface {
	// ProcessRecording runs one processing attempt. An error triggers a retry.
	ProcessRecording(ctx context.Context, event domain.RecordingUploaded) error

	// RecordingFailed is called once after the last attempt failed.
	RecordingFailed(ctx context.Context, event domain.RecordingUploaded, reason string)
}

// Bus is an in-memory publisher and router. Messages published before Run
// has subscribed the handlers are dropped, so callers wait on Running
// before accepting uploads.
//
// Each recording is acked once a worker slot is free and processed on that
// worker, retries included. A recording waiting out its backoff does not
// hold up the recordings behind it.
type Bus struct {
	pubSub      *gochannel.GoChannel
	router      *message.Router
	retry       middleware.Retry
	maxAttempts int
	metrics     *telemetry.ProcessingMetrics
	logger      *slog.Logger

	slots        chan struct{}
	workers      sync.WaitGroup
	workCtx      context.Context
	stopWork     context.CancelFunc
	drainTimeout time.Duration
}

// NewBus creates the bus. metrics may be nil.
func NewBus(cfg *config.ProcessingConfig, metrics *telemetry.ProcessingMetrics, logger *slog.Logger) (*Bus, error) {
	if logger == nil {
		logger = slog.Default()
	}

	logger = logging.Component(logger, "events")
	wmLog := NewLoggerAdapter(logger)

	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: closeTimeout}, wmLog)
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = config.DefaultProcessingWorkers
	}

	workCtx, stopWork := context.WithCancel(context.Background())

	b := &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: outputBuffer}, wmLog),
		router: router,
		retry: middleware.Retry{
			MaxRetries:          cfg.MaxAttempts - 1,
			InitialInterval:     cfg.RetryDelay,
			MaxInterval:         cfg.RetryDelay * maxDelayFactor,
			Multiplier:          retryMultiplier,
			RandomizationFactor: retryRandomising,
			Logger:              wmLog,
		},
		maxAttempts:  max(cfg.MaxAttempts, 1),
		metrics:      metrics,
		logger:       logger,
		slots:        make(chan struct{}, workers),
		workCtx:      workCtx,
		stopWork:     stopWork,
		drainTimeout: closeTimeout,
	}

	return b, nil
}

// PublishRecordingUploaded implements ports.CallEventPublisher.
func (b *Bus) PublishRecordingUploaded(ctx context.Context, event domain.RecordingUploaded) error {
	return b.publish(ctx, TopicRecordingUploaded, event)
}

func (b *Bus) publish(ctx context.Context, topic string, event domain.RecordingUploaded) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", topic, err)
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "events.publish "+topic,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "watermill"),
			attribute.String("messaging.destination", topic),
			attribute.String("call.id", event.CallID),
		),
	)
	defer span.End()

	msg := message.NewMessage(watermill.NewUUID(), payload)
	stampOutgoing(ctx, msg, topic)

	if err := b.pubSub.Publish(topic, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return fmt.Errorf("publishing %s: %w", topic, err)
	}

	logging.FromContext(ctx).Debug("event published",
		slog.String("topic", topic),
		slog.String("message_id", msg.UUID),
		slog.String("call_id", event.CallID),
	)

	return nil
}

// Subscribe registers h. Processing failures are retried with exponential
// backoff from the configured delay; after the last attempt the message is
// moved to TopicRecordingFailed and handed to h.RecordingFailed.
func (b *Bus) Subscribe(h RecordingHandler) error {
	poison, err := middleware.PoisonQueue(b.pubSub, TopicRecordingFailed)
	if err != nil {
		return fmt.Errorf("creating poison queue: %w", err)
	}

	process := b.router.AddNoPublisherHandler(handlerProcess, TopicRecordingUploaded, b.pubSub,
		func(msg *message.Message) error {
			event, err := decode(msg)
			if err != nil {
				return err
			}

			return h.ProcessRecording(msg.Context(), event)
		})
	// Outermost first. Everything after dispatch runs on a worker. Recoverer
	// sits inside Retry so a panic counts as a failed attempt. Retry still
	// retries once with MaxRetries at zero, so a single attempt skips it.
	chain := []message.HandlerMiddleware{b.dispatch, b.tracingMiddleware, poison}
	if b.maxAttempts > 1 {
		chain = append(chain, b.retry.Middleware)
	}

	process.AddMiddleware(append(chain, b.countAttempts, middleware.Recoverer)...)

	failed := b.router.AddNoPublisherHandler(handlerFailed, TopicRecordingFailed, b.pubSub,
		func(msg *message.Message) error {
			event, err := decode(msg)
			if err != nil {
				b.logger.Error("dropping undecodable failed recording", slog.String("message_id", msg.UUID), slog.Any("error", err))

				return nil
			}

			h.RecordingFailed(msg.Context(), event, msg.Metadata.Get(middleware.ReasonForPoisonedKey))

			return nil
		})
	failed.AddMiddleware(b.tracingMiddleware, middleware.Recoverer)

	return nil
}

// Run subscribes the handlers and blocks until ctx is cancelled or Close is called.
func (b *Bus) Run(ctx context.Context) error {
	if err := b.router.Run(ctx); err != nil {
		return fmt.Errorf("running event router: %w", err)
	}

	return nil
}

// Running is closed once every handler is subscribed.
func (b *Bus) Running() chan struct{} {
	return b.router.Running()
}

// Name implements ports.HealthChecker.
func (b *Bus) Name() string {
	return "events"
}

// Check implements ports.HealthChecker. The bus is ready once the router
// runs.
func (b *Bus) Check(context.Context) error {
	select {
	case <-b.router.Running():
		return nil
	default:
		return errRouterNotRunning
	}
}

// dispatch acks the message once a worker slot is free and runs the rest of
// the chain on that worker. gochannel cancels the delivery context on ack,
// so the worker gets a copy of the message on a context that only Close
// cancels.
func (b *Bus) dispatch(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		select {
		case b.slots <- struct{}{}:
		case <-msg.Context().Done():
			return nil, msg.Context().Err()
		}

		ctx, cancel := context.WithCancel(context.WithoutCancel(msg.Context()))
		stop := context.AfterFunc(b.workCtx, cancel)

		work := msg.Copy()
		work.SetContext(ctx)

		b.workers.Go(func() {
			defer func() { <-b.slots }()
			defer stop()
			defer cancel()

			if _, err := h(work); err != nil {
				b.logger.Error("recording handler failed",
					slog.String("message_id", work.UUID),
					slog.Any("error", err),
				)
			}
		})

		return nil, nil
	}
}

// countAttempts numbers the attempts of a message in its metadata and
// records a retry for every failed attempt that has attempts left.
func (b *Bus) countAttempts(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		attempt, _ := strconv.Atoi(msg.Metadata.Get(metaAttempt))
		attempt++
		msg.Metadata.Set(metaAttempt, strconv.Itoa(attempt))

		produced, err := h(msg)
		if err != nil && attempt < b.maxAttempts {
			b.metrics.Attempt(telemetry.OutcomeRetried)
			logging.FromContextOr(msg.Context(), b.logger).Warn("call processing attempt failed, retrying",
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", b.maxAttempts),
				slog.Any("error", err),
			)
		}

		return produced, err
	}
}

// Close stops the router, then waits up to the close timeout for the
// workers. Workers still running after that are cancelled.
func (b *Bus) Close() error {
	err := b.router.Close()

	if !b.drain(b.drainTimeout) {
		b.logger.Warn("cancelling in-flight recordings", slog.Duration("waited", b.drainTimeout))
		b.stopWork()
		b.drain(b.drainTimeout)
	}

	b.stopWork()

	return errors.Join(err, b.pubSub.Close())
}

func (b *Bus) drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		b.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func decode(msg *message.Message) (domain.RecordingUploaded, error) {
	var event domain.RecordingUploaded
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return event, fmt.Errorf("decoding message %s: %w", msg.UUID, err)
	}

	return event, nil
}
