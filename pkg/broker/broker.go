// Outbound domain events: RabbitMQ, Kafka or plain log output.
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ds124wfegd/ticketbooker/config"
	"github.com/google/uuid"
)

const (
	TopicBookingConfirmed = "booking.confirmed"
	TopicEventReminder    = "event.reminder"
)

type Message struct {
	ID         string          `json:"id"`
	Topic      string          `json:"topic"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// NewMessage wraps payload with a fresh id and timestamp.
func NewMessage(topic, key string, payload interface{}) (Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return Message{
		ID:         uuid.New().String(),
		Topic:      topic,
		Key:        key,
		Payload:    body,
		OccurredAt: time.Now().UTC(),
	}, nil
}

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// New picks the publisher named by cfg.Kind.
func New(cfg *config.BrokerConfig) (Publisher, error) {
	switch cfg.Kind {
	case "rabbitmq":
		return NewRabbitPublisher(cfg.RabbitURL, cfg.Exchange)
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "log", "":
		return NewLogPublisher(), nil
	default:
		return nil, fmt.Errorf("unknown broker kind %q", cfg.Kind)
	}
}
