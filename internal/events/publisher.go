package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/research-timeline-service/internal/observability"
)

// Sink delivers built events.
type Sink interface {
	Send(ctx context.Context, event Event) error
	Close() error
}

// NoopSink discards events.
type NoopSink struct{}

// Send implements Sink.
func (NoopSink) Send(context.Context, Event) error { return nil }

// Close implements Sink.
func (NoopSink) Close() error { return nil }

// KafkaConfig holds Kafka producer settings.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
}

// messageWriter is the subset of *kafka.Writer used by KafkaSink.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events to a Kafka topic keyed by request id.
type KafkaSink struct {
	writer messageWriter
}

// NewKafkaSink creates a sink backed by a kafka-go writer.
func NewKafkaSink(cfg KafkaConfig) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafka.Hash{},
			BatchSize:    cfg.BatchSize,
			BatchTimeout: cfg.BatchTimeout,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Send writes event as a single message.
func (s *KafkaSink) Send(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
		Time: event.OccurredAt,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

// PublishRecorder receives publish outcomes for metrics.
type PublishRecorder interface {
	RecordEventPublished(eventType string, err error)
}

// Publisher combines the Emitter and a Sink. Publishing failures are logged
// and returned but never affect the timeline response.
type Publisher struct {
	emitter  *Emitter
	sink     Sink
	recorder PublishRecorder
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewPublisher creates a Publisher. recorder may be nil.
func NewPublisher(emitter *Emitter, sink Sink, recorder PublishRecorder, logger zerolog.Logger) *Publisher {
	if sink == nil {
		sink = NoopSink{}
	}
	return &Publisher{
		emitter:  emitter,
		sink:     sink,
		recorder: recorder,
		timeout:  5 * time.Second,
		logger:   observability.WithComponent(logger, "event_publisher"),
	}
}

// PublishTimelineGenerated publishes a timeline.generated event for the request in ctx.
func (p *Publisher) PublishTimelineGenerated(ctx context.Context, payload GeneratedPayload) error {
	return p.publish(ctx, EventTypeTimelineGenerated, func(requestID, correlationID string) (Event, error) {
		return p.emitter.EmitTimelineGenerated(requestID, correlationID, payload)
	})
}

// PublishTimelineFailed publishes a timeline.failed event for the request in ctx.
func (p *Publisher) PublishTimelineFailed(ctx context.Context, payload FailedPayload) error {
	return p.publish(ctx, EventTypeTimelineFailed, func(requestID, correlationID string) (Event, error) {
		return p.emitter.EmitTimelineFailed(requestID, correlationID, payload)
	})
}

type emitFunc func(requestID, correlationID string) (Event, error)

func (p *Publisher) publish(ctx context.Context, eventType string, emit emitFunc) error {
	requestID := observability.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	event, err := emit(requestID, observability.CorrelationIDFromContext(ctx))
	if err != nil {
		if p.recorder != nil {
			p.recorder.RecordEventPublished(eventType, err)
		}
		p.logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("request_id", requestID).
			Msg("failed to build event")
		return fmt.Errorf("emit event: %w", err)
	}

	// The request context may already be cancelled; delivery uses its own deadline.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	err = p.sink.Send(sendCtx, event)
	if p.recorder != nil {
		p.recorder.RecordEventPublished(eventType, err)
	}
	if err != nil {
		p.logger.Warn().Err(err).
			Str("event_type", eventType).
			Str("request_id", requestID).
			Msg("failed to publish event")
		return fmt.Errorf("send event: %w", err)
	}

	p.logger.Debug().
		Str("event_type", eventType).
		Str("event_id", event.EventID).
		Msg("published event")
	return nil
}

// Close closes the underlying sink.
func (p *Publisher) Close() error {
	return p.sink.Close()
}
