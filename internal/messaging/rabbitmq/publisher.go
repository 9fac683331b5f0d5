// Package rabbitmq публикует события outbox в topic exchange RabbitMQ.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	// DefaultExchange - topic exchange для событий витрины.
	DefaultExchange = "storefront.events"
	// DeadLetterRoutingKey - ключ маршрутизации для DLQ.
	DeadLetterRoutingKey = "dead_letter.v1"

	publishTimeout = 3 * time.Second
)

// Channel - подмножество *amqp.Channel, которое нужно паблишеру.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher реализует domain.OutboxPublisher поверх AMQP.
type Publisher struct {
	conn       *amqp.Connection
	ch         Channel
	exchange   string
	routingKey string
	logger     *log.Entry
}

// Option настраивает Publisher.
type Option func(*Publisher)

// WithRoutingKey фиксирует ключ маршрутизации для всех сообщений (например, для DLQ).
func WithRoutingKey(key string) Option {
	return func(p *Publisher) { p.routingKey = key }
}

// Dial подключается к брокеру и объявляет exchange.
func Dial(url, exchange string, opts ...Option) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := NewPublisher(ch, exchange, opts...)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

// NewPublisher объявляет durable topic exchange на готовом канале.
func NewPublisher(ch Channel, exchange string, opts ...Option) (*Publisher, error) {
	if ch == nil {
		return nil, errors.New("rabbitmq channel is nil")
	}
	if exchange == "" {
		exchange = DefaultExchange
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	p := &Publisher{
		ch:       ch,
		exchange: exchange,
		logger:   log.WithField("component", "rabbitmq-publisher"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// RoutingKey строит ключ маршрутизации вида "order.created.v1".
func RoutingKey(eventType string) string {
	return eventType + ".v1"
}

// Publish отправляет payload события как тело сообщения, метаданные outbox
// уходят в свойства и заголовки AMQP.
func (p *Publisher) Publish(ctx context.Context, msg domain.OutboxMessage) error {
	if p == nil || p.ch == nil {
		return errors.New("rabbitmq publisher is not initialized")
	}

	key := p.routingKey
	if key == "" {
		key = RoutingKey(msg.EventType)
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := p.ch.PublishWithContext(pubCtx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Type:         msg.EventType,
		Timestamp:    time.Now().UTC(),
		Headers: amqp.Table{
			"aggregate_type": msg.AggregateType,
			"aggregate_id":   msg.AggregateID,
		},
		Body: msg.Payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}

	p.logger.WithFields(log.Fields{
		"exchange":    p.exchange,
		"routing_key": key,
		"outbox_id":   msg.ID,
	}).Debug("message sent to rabbitmq")
	return nil
}

// Close закрывает канал и соединение.
func (p *Publisher) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

var _ domain.OutboxPublisher = (*Publisher)(nil)
