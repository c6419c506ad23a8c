// Package consumer reads activity events from Kafka and feeds them to the progress service.
package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"example.com/fitprogress/internal/logging"
	"example.com/fitprogress/internal/observability"
)

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded messages from Kafka.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is the decoded representation of a Schema Registry framed Kafka record.
type Message struct {
	Topic         string
	Partition     int
	Offset        int64
	Timestamp     time.Time
	EventType     string
	SchemaSubject string
	SchemaID      int
	Payload       json.RawMessage
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *logging.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithEventTypes restricts the handler to the listed event types. Other events are committed
// without being handled. With no types every event is handled.
func WithEventTypes(types ...string) Option {
	return func(p *Processor) {
		for _, t := range types {
			p.eventTypes[t] = struct{}{}
		}
	}
}

// WithFetchBackoff sets the pause after a failed fetch.
func WithFetchBackoff(d time.Duration) Option {
	return func(p *Processor) {
		p.fetchBackoff = d
	}
}

// WithTracer overrides the tracer used for per-message spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Processor) {
		if tracer != nil {
			p.tracer = tracer
		}
	}
}

// Processor pulls framed events from Kafka, drops the ones it does not serve and hands the rest to a
// Handler. Offsets are committed once an event is handled, filtered or found malformed.
type Processor struct {
	reader       Reader
	handler      Handler
	logger       *logging.Logger
	tracer       trace.Tracer
	eventTypes   map[string]struct{}
	fetchBackoff time.Duration
}

// NewProcessor constructs a Processor with the provided reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:       reader,
		handler:      handler,
		logger:       logging.NewNop(),
		tracer:       observability.Tracer(),
		eventTypes:   map[string]struct{}{},
		fetchBackoff: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type outcome string

const (
	outcomeHandled   outcome = "handled"
	outcomeFiltered  outcome = "filtered"
	outcomeMalformed outcome = "malformed"
	outcomeFailed    outcome = "failed"
)

// Run processes messages until the context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.logger.Error("fetch error", "error", err)
			recordFetchError()
			if !p.pause(ctx) {
				return ctx.Err()
			}
			continue
		}

		p.process(ctx, msg)
	}
}

func (p *Processor) process(ctx context.Context, msg kafka.Message) outcome {
	event, err := decodeMessage(msg)
	if err != nil {
		p.logger.Warn("decode error", "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
		recordDecodeError(msg.Topic)
		// Malformed records would block the partition forever.
		p.commit(ctx, msg)
		return outcomeMalformed
	}

	if !p.accepts(event.EventType) {
		recordSkipped("event_type")
		p.commit(ctx, msg)
		return outcomeFiltered
	}

	ctx, span := p.tracer.Start(ctx, "consumer.Handle",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", event.Topic),
			attribute.Int64("messaging.kafka.offset", event.Offset),
			attribute.String("event.type", event.EventType),
		))
	defer span.End()

	start := time.Now()
	if err := p.handler.Handle(ctx, event); err != nil {
		observeHandle(event.EventType, outcomeFailed, start)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error("handler error", "topic", event.Topic, "event_type", event.EventType, "offset", event.Offset, "error", err)
		recordHandlerError(event)
		return outcomeFailed
	}
	observeHandle(event.EventType, outcomeHandled, start)

	if p.commit(ctx, msg) {
		recordProcessed(event)
	}
	return outcomeHandled
}

func (p *Processor) accepts(eventType string) bool {
	if len(p.eventTypes) == 0 {
		return true
	}
	_, ok := p.eventTypes[eventType]
	return ok
}

func (p *Processor) commit(ctx context.Context, msg kafka.Message) bool {
	if err := p.reader.CommitMessages(ctx, msg); err != nil {
		p.logger.Error("commit error", "topic", msg.Topic, "offset", msg.Offset, "error", err)
		return false
	}
	return true
}

// pause waits out the fetch backoff. It reports false when the context ends first.
func (p *Processor) pause(ctx context.Context) bool {
	if p.fetchBackoff <= 0 {
		return true
	}
	timer := time.NewTimer(p.fetchBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func decodeMessage(msg kafka.Message) (Message, error) {
	if len(msg.Value) < 5 {
		return Message{}, fmt.Errorf("invalid payload length: %d", len(msg.Value))
	}
	if msg.Value[0] != 0 {
		return Message{}, fmt.Errorf("unsupported magic byte: %d", msg.Value[0])
	}

	eventType, ok := headerValue(msg, "event_type")
	if !ok {
		return Message{}, errors.New("missing event_type header")
	}
	schemaSubject, _ := headerValue(msg, "schema_subject")

	schemaID := int(binary.BigEndian.Uint32(msg.Value[1:5]))
	payload := json.RawMessage(append([]byte(nil), msg.Value[5:]...))

	return Message{
		Topic:         msg.Topic,
		Partition:     msg.Partition,
		Offset:        msg.Offset,
		Timestamp:     msg.Time,
		EventType:     string(eventType),
		SchemaSubject: string(schemaSubject),
		SchemaID:      schemaID,
		Payload:       payload,
	}, nil
}

func headerValue(msg kafka.Message, key string) ([]byte, bool) {
	for _, header := range msg.Headers {
		if header.Key == key {
			return header.Value, true
		}
	}
	return nil, false
}
