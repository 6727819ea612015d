package facades

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-marketplace-settlement/internal/logger"
	"github.com/sbilibin2017/gw-marketplace-settlement/internal/models"
)

//go:generate mockgen -source=notifier.go -destination=notifier_mock.go -package=facades

// KafkaWriter writes messages to a Kafka topic.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
}

// KafkaNotifier publishes settlement events to Kafka, keyed by order so the
// events of one order keep their order within a partition.
type KafkaNotifier struct {
	writer KafkaWriter
}

// NewKafkaNotifier creates a new KafkaNotifier.
func NewKafkaNotifier(writer KafkaWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: writer}
}

// Publish writes event as JSON.
func (n *KafkaNotifier) Publish(ctx context.Context, event models.SettlementEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(eventKey(event)),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}
	return n.writer.WriteMessages(ctx, msg)
}

func eventKey(event models.SettlementEvent) string {
	if event.OrderID != uuid.Nil {
		return event.OrderID.String()
	}
	return event.UserID.String()
}

// AMQPChannel is the part of an AMQP channel used for publishing.
type AMQPChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQNotifier publishes settlement events to a durable topic exchange,
// routed by event type.
type RabbitMQNotifier struct {
	channel  AMQPChannel
	exchange string
	conn     *amqp.Connection
}

// NewRabbitMQNotifier declares exchange on channel.
func NewRabbitMQNotifier(channel AMQPChannel, exchange string) (*RabbitMQNotifier, error) {
	if err := channel.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &RabbitMQNotifier{channel: channel, exchange: exchange}, nil
}

// DialRabbitMQNotifier connects to url with a bounded dial timeout.
func DialRabbitMQNotifier(url, exchange string) (*RabbitMQNotifier, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	n, err := NewRabbitMQNotifier(ch, exchange)
	if err != nil {
		conn.Close()
		return nil, err
	}
	n.conn = conn
	return n, nil
}

// Publish sends event as a persistent JSON message.
func (n *RabbitMQNotifier) Publish(ctx context.Context, event models.SettlementEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return n.channel.PublishWithContext(ctx, n.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID,
		Timestamp:    time.Unix(event.OccurredAt, 0),
		Body:         body,
	})
}

// Close closes the connection opened by DialRabbitMQNotifier.
func (n *RabbitMQNotifier) Close() error {
	if n.conn == nil {
		return nil
	}
	return n.conn.Close()
}

// Notifier publishes an event.
type Notifier interface {
	Publish(ctx context.Context, event models.SettlementEvent) error
}

// FanoutNotifier publishes every event to all notifiers.
type FanoutNotifier []Notifier

// Publish returns the joined errors of the notifiers that failed.
func (f FanoutNotifier) Publish(ctx context.Context, event models.SettlementEvent) error {
	var errs []error
	for _, n := range f {
		if err := n.Publish(ctx, event); err != nil {
			logger.Log.Warnw("notifier failed", "event_id", event.EventID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
