package publisher

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/rs/zerolog"

	"github.com/example/salon-notify/internal/kafka/producer"
	"github.com/example/salon-notify/internal/models"
)

var errProducerNotInitialised = errors.New("kafka publisher: producer not initialised")

// RecordProducer is the part of producer.Producer the publishers use.
type RecordProducer interface {
	Publish(ctx context.Context, rec producer.Record) error
}

// ErrProducerNotInitialised exposes the sentinel error for callers and tests.
func ErrProducerNotInitialised() error {
	return errProducerNotInitialised
}

// DeliveryPublisher emits per-dispatch delivery events to a Kafka topic.
type DeliveryPublisher struct {
	producer RecordProducer
	topic    string
	logger   zerolog.Logger
}

// NewDeliveryPublisher constructs a DeliveryPublisher instance.
func NewDeliveryPublisher(prod RecordProducer, topic string, logger zerolog.Logger) *DeliveryPublisher {
	if prod == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &DeliveryPublisher{
		producer: prod,
		topic:    topic,
		logger:   logger,
	}
}

// PublishDelivery writes the supplied delivery event to Kafka synchronously,
// keyed by dispatch id so every event of one dispatch lands on one partition.
func (p *DeliveryPublisher) PublishDelivery(ctx context.Context, event models.DeliveryEvent) error {
	if p == nil || p.producer == nil {
		return errProducerNotInitialised
	}

	err := p.producer.Publish(ctx, producer.Record{
		Topic:     p.topic,
		Key:       event.DispatchID,
		Kind:      event.Kind,
		EventType: event.EventType,
		Value:     event,
	})
	if err != nil {
		return fmt.Errorf("kafka publisher: publish delivery event: %w", err)
	}
	p.logger.Debug().
		Str("dispatch_id", event.DispatchID).
		Str("event", event.EventType).
		Msg("kafka publisher: delivery event published")
	return nil
}

// UndeliveredPublisher writes undelivered message records to the configured
// Kafka topic. The topic is an audit trail for the operator; nothing replays
// it.
type UndeliveredPublisher struct {
	producer RecordProducer
	topic    string
	logger   zerolog.Logger
}

// NewUndeliveredPublisher constructs an UndeliveredPublisher instance.
func NewUndeliveredPublisher(prod RecordProducer, topic string, logger zerolog.Logger) *UndeliveredPublisher {
	if prod == nil {
		return nil
	}
	if reflect.ValueOf(logger).IsZero() {
		logger = zerolog.Nop()
	}
	return &UndeliveredPublisher{
		producer: prod,
		topic:    topic,
		logger:   logger,
	}
}

// PublishUndelivered writes the supplied record to Kafka synchronously.
func (p *UndeliveredPublisher) PublishUndelivered(ctx context.Context, record models.UndeliveredRecord) error {
	if p == nil || p.producer == nil {
		return errProducerNotInitialised
	}

	err := p.producer.Publish(ctx, producer.Record{
		Topic:     p.topic,
		Key:       record.DispatchID,
		Kind:      record.Kind,
		EventType: models.DeliveryEventFailed,
		Value:     record,
	})
	if err != nil {
		return fmt.Errorf("kafka publisher: publish undelivered record: %w", err)
	}
	p.logger.Warn().
		Str("dispatch_id", record.DispatchID).
		Str("last_error", record.LastError).
		Msg("kafka publisher: undelivered record published")
	return nil
}

// Discard satisfies both publisher contracts without doing anything. It is
// wired when no brokers are configured.
type Discard struct{}

// PublishDelivery implements the delivery publisher contract.
func (Discard) PublishDelivery(context.Context, models.DeliveryEvent) error { return nil }

// PublishUndelivered implements the undelivered publisher contract.
func (Discard) PublishUndelivered(context.Context, models.UndeliveredRecord) error { return nil }
