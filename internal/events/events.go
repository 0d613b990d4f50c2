package events

import (
	"context"
	"strconv"
	"time"

	"marina/pkg/kafka"
	kafka_config "marina/pkg/kafka/config"
	kafka_middleware "marina/pkg/kafka/middleware"
	"marina/pkg/logger"
	"marina/pkg/middleware"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	BerthCreated = "berth.created"
	BerthUpdated = "berth.updated"
	BerthDeleted = "berth.deleted"

	ReservationCreated = "reservation.created"
	ReservationUpdated = "reservation.updated"
	ReservationDeleted = "reservation.deleted"

	source        = "marina"
	schemaVersion = "1"
)

// Event is a change notification. Events for one berth share a partition key
// so consumers see them in order.
type Event struct {
	Type        string    `json:"type"`
	BerthNumber int       `json:"berth_number"`
	ResourceID  string    `json:"resource_id,omitempty"`
	Payload     any       `json:"payload,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func New(eventType string, berthNumber int, resourceID string, payload any) Event {
	return Event{
		Type:        eventType,
		BerthNumber: berthNumber,
		ResourceID:  resourceID,
		Payload:     payload,
		OccurredAt:  time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher returns a Noop publisher when no brokers are configured.
func NewKafkaPublisher(cfg *kafka_config.Config, log *logger.Logger, reg prometheus.Registerer) (Publisher, error) {
	if !cfg.Enabled() {
		log.Info("Kafka brokers not configured, domain events disabled")
		return Noop{}, nil
	}

	producer, err := kafka.NewProducer(cfg, log)
	if err != nil {
		return nil, err
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
	producer.Use(kafka_middleware.NewMetrics(reg).ProducerMiddleware())

	log.Info("Kafka event publisher initialized", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return &kafkaPublisher{producer: producer}, nil
}

func (p *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := ToMessage(ctx, event)
	if err != nil {
		return err
	}
	return p.producer.Publish(ctx, msg)
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// ToMessage encodes an event, carrying the request id as correlation id.
func ToMessage(ctx context.Context, event Event) (kafka.Message, error) {
	correlationID, _ := ctx.Value(middleware.RequestIDKey).(string)

	return kafka.NewMessage().
		WithKey(strconv.Itoa(event.BerthNumber)).
		WithEventType(event.Type).
		WithCorrelationID(correlationID).
		WithSource(source).
		WithSchemaVersion(schemaVersion).
		WithTimestamp(event.OccurredAt).
		WithValue(event).
		Build()
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Close() error { return nil }
