// Package notify publishes domain notifications (booking confirmed, event
// deleted) to Kafka. Without brokers the messages are only logged.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/Shivanand-hulikatti/eventix/internal/config"
)

const (
	KindBookingConfirmed = "booking.confirmed"
	KindEventDeleted     = "event.deleted"
)

// Notification is the message body written to the topic.
type Notification struct {
	Kind       string    `json:"kind"`
	EventID    string    `json:"event_id"`
	AttendeeID string    `json:"attendee_id,omitempty"`
	Tickets    int       `json:"tickets,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher sends notifications.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

// New returns a Kafka publisher when brokers are configured and a logging
// publisher otherwise.
func New(cfg config.KafkaConfig, log logrus.FieldLogger) Publisher {
	if len(cfg.Brokers) == 0 {
		log.Info("no kafka brokers configured, notifications will only be logged")
		return NewLogPublisher(log)
	}
	log.WithField("brokers", cfg.Brokers).WithField("topic", cfg.Topic).Info("kafka publisher configured")
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           10 * time.Millisecond,
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		log: log,
	}
}

type kafkaPublisher struct {
	writer *kafka.Writer
	log    logrus.FieldLogger
}

func (p *kafkaPublisher) Publish(ctx context.Context, n Notification) error {
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	// Keyed by event so one event's notifications stay ordered.
	msg := kafka.Message{Key: []byte(n.EventID), Value: value, Time: n.At}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write notification: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// LogPublisher logs notifications instead of sending them.
type LogPublisher struct {
	log logrus.FieldLogger
}

func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, n Notification) error {
	p.log.WithFields(logrus.Fields{
		"kind":        n.Kind,
		"event_id":    n.EventID,
		"attendee_id": n.AttendeeID,
		"tickets":     n.Tickets,
	}).Info("notification")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
