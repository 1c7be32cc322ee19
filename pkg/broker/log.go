package broker

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogPublisher writes messages to the application log. Used when no broker
// is configured.
type LogPublisher struct {
	logger logrus.FieldLogger
}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{logger: logrus.StandardLogger()}
}

func (p *LogPublisher) Publish(ctx context.Context, msg Message) error {
	p.logger.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"topic":      msg.Topic,
		"key":        msg.Key,
		"payload":    string(msg.Payload),
	}).Info("Broker message")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
