package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в Kafka.
// Без фиксированного topic сообщения распределяются по TopicFor.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
// Пустой topic включает маршрутизацию по типу агрегата.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	return &OutboxTopicPublisher{
		producer: producer,
		topic:    topic,
		now:      time.Now,
	}
}

// Publish отправляет конверт с ключом по агрегату, чтобы события одного
// заказа или товара попадали в одну партицию.
func (p *OutboxTopicPublisher) Publish(ctx context.Context, event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka outbox publisher is not initialized")
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}
	topic := p.topic
	if topic == "" {
		topic = TopicFor(event.AggregateType)
	}

	value, err := json.Marshal(NewEnvelope(event, p.now()))
	if err != nil {
		return fmt.Errorf("marshal outbox envelope: %w", err)
	}
	return p.producer.Publish(ctx, topic, key, value, sarama.RecordHeader{
		Key:   []byte(HeaderEventType),
		Value: []byte(event.EventType),
	})
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
