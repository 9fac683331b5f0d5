package app

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/rabbitmq"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
)

// eventPublishers - паблишеры outbox и DLQ для выбранного брокера.
type eventPublishers struct {
	events domain.OutboxPublisher
	dlq    domain.OutboxPublisher
	// kafkaProducer нужен также consumer-у пополнений для DLQ.
	kafkaProducer *kafka.Producer
	closers       []func() error
}

func (p *eventPublishers) Close(logger *log.Entry) {
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil {
			logger.WithError(err).Warn("failed to close event publisher")
		}
	}
	p.closers = nil
}

// initPublishers подключается к брокеру. Без брокера события уходят в лог.
func initPublishers(cfg Config, logger *log.Entry) (*eventPublishers, error) {
	switch cfg.Broker {
	case BrokerLog, "":
		return &eventPublishers{events: outbox.NewLogPublisher(logger.WithField("component", "outbox-log-publisher"))}, nil

	case BrokerKafka:
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaClientID)
		if err != nil {
			return nil, err
		}
		logger.WithField("brokers", cfg.KafkaBrokers).Info("kafka producer initialized")
		return &eventPublishers{
			events:        kafka.NewOutboxPublisher(producer, ""),
			dlq:           kafka.NewOutboxPublisher(producer, kafka.TopicDeadLetterQueue),
			kafkaProducer: producer,
			closers:       []func() error{producer.Close},
		}, nil

	case BrokerRabbitMQ:
		events, err := rabbitmq.Dial(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			return nil, err
		}
		dlq, err := rabbitmq.Dial(cfg.RabbitURL, cfg.RabbitExchange, rabbitmq.WithRoutingKey(rabbitmq.DeadLetterRoutingKey))
		if err != nil {
			_ = events.Close()
			return nil, err
		}
		logger.WithField("exchange", cfg.RabbitExchange).Info("rabbitmq publisher initialized")
		return &eventPublishers{
			events:  events,
			dlq:     dlq,
			closers: []func() error{events.Close, dlq.Close},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported broker %q", cfg.Broker)
	}
}

// startRestockConsumer подписывается на пополнения склада, если брокер - Kafka.
func startRestockConsumer(ctx context.Context, cfg Config, restocker kafka.Restocker, publishers *eventPublishers, logger *log.Entry) (*kafka.Consumer, error) {
	if cfg.Broker != BrokerKafka || !cfg.RestockConsumer {
		return nil, nil
	}
	if publishers == nil || publishers.kafkaProducer == nil {
		return nil, errors.New("restock consumer requires kafka producer for DLQ")
	}

	consumer, err := kafka.NewConsumer(
		cfg.KafkaBrokers,
		cfg.KafkaGroupID,
		[]string{kafka.TopicRestock},
		kafka.NewRestockHandler(restocker, logger.WithField("component", "restock-consumer")),
		kafka.WithDLQ(publishers.kafkaProducer),
	)
	if err != nil {
		return nil, err
	}
	if err := consumer.Start(ctx); err != nil {
		_ = consumer.Stop()
		return nil, err
	}
	return consumer, nil
}
