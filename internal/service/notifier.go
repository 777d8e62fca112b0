package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/BarkanovEugen/HorseTracker-sub001/internal/model"
)

// PushNotifier enqueues alert push jobs on a durable RabbitMQ queue for
// delivery workers to drain.
type PushNotifier struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	queue    string
	logger   *zap.Logger
}

type pushJob struct {
	Event model.EventKind `json:"event"`
	Alert model.Alert     `json:"alert"`
}

// NewPushNotifier connects to RabbitMQ and declares the exchange and
// queue pair.
func NewPushNotifier(url, exchange, queue string, logger *zap.Logger) (*PushNotifier, error) {
	log := logger.Named("push")

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := channel.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := channel.QueueBind(q.Name, queue, exchange, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	log.Info("push queue ready",
		zap.String("exchange", exchange), zap.String("queue", queue))
	return &PushNotifier{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		queue:    queue,
		logger:   log,
	}, nil
}

// PushAlert enqueues one job.
func (n *PushNotifier) PushAlert(ctx context.Context, alert model.Alert, event model.EventKind) error {
	body, err := json.Marshal(pushJob{Event: event, Alert: alert})
	if err != nil {
		return fmt.Errorf("marshal push job: %w", err)
	}

	if err := n.channel.PublishWithContext(ctx,
		n.exchange, // exchange
		n.queue,    // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	); err != nil {
		return fmt.Errorf("publish push job: %w", err)
	}

	n.logger.Debug("push job queued",
		zap.String("alert_id", alert.ID),
		zap.String("event", string(event)))
	return nil
}

// Close shuts the connection down.
func (n *PushNotifier) Close() {
	if n.channel != nil {
		if err := n.channel.Close(); err != nil {
			n.logger.Warn("close channel failed", zap.Error(err))
		}
	}
	if n.conn != nil {
		if err := n.conn.Close(); err != nil {
			n.logger.Warn("close connection failed", zap.Error(err))
		}
	}
}
