package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/qc-audit-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/qc-audit-service/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/qc-audit-service/internal/adapters/events"

	metaRequestID     = "request_id"
	metaCorrelationID = "correlation_id"
	metaTopic         = "topic"
)

// stampOutgoing copies the trace context and request identifiers of ctx
// into the message metadata so the consumer can continue both.
func stampOutgoing(ctx context.Context, msg *message.Message, topic string) {
	msg.Metadata.Set(metaTopic, topic)

	if id := middleware.RequestIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metaRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		msg.Metadata.Set(metaCorrelationID, id)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.MapCarrier(msg.Metadata))
}

// tracingMiddleware continues the producer's trace in a consumer span and
// puts a logger carrying the producer's request identifiers on the message
// context. The originating request context is gone by the time a message
// is consumed.
func (b *Bus) tracingMiddleware(h message.HandlerFunc) message.HandlerFunc {
	tracer := otel.Tracer(instrumentationName)

	return func(msg *message.Message) ([]*message.Message, error) {
		ctx := otel.GetTextMapPropagator().Extract(msg.Context(), propagation.MapCarrier(msg.Metadata))

		topic := msg.Metadata.Get(metaTopic)
		ctx, span := tracer.Start(ctx, "events.process "+topic,
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("messaging.system", "watermill"),
				attribute.String("messaging.operation", "process"),
				attribute.String("messaging.destination", topic),
				attribute.String("messaging.message_id", msg.UUID),
			),
		)
		defer span.End()

		ctx = logging.WithContext(ctx, b.logger.With("message_id", msg.UUID, "topic", topic))
		if id := msg.Metadata.Get(metaRequestID); id != "" {
			ctx = logging.WithRequestID(middleware.ContextWithRequestID(ctx, id), id)
		}

		if id := msg.Metadata.Get(metaCorrelationID); id != "" {
			ctx = logging.WithCorrelationID(middleware.ContextWithCorrelationID(ctx, id), id)
		}

		if sc := span.SpanContext(); sc.HasTraceID() {
			ctx = logging.WithTraceID(ctx, sc.TraceID().String())
		}

		msg.SetContext(ctx)

		produced, err := h(msg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			return nil, err
		}

		return produced, nil
	}
}
