package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "storefront.order.events"
	TopicProductEvents   = "storefront.product.events"
	TopicRestock         = "storefront.inventory.restock"
	TopicDeadLetterQueue = "storefront.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
	HeaderEventType     = "x-event-type"
)

// TopicFor выбирает topic по типу агрегата outbox-сообщения.
func TopicFor(aggregateType string) string {
	switch aggregateType {
	case domain.AggregateProduct:
		return TopicProductEvents
	default:
		return TopicOrderEvents
	}
}

// Envelope - формат сообщения, которое outbox публикует в Kafka.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}

// NewEnvelope упаковывает outbox-сообщение.
func NewEnvelope(msg domain.OutboxMessage, publishedAt time.Time) Envelope {
	return Envelope{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       json.RawMessage(msg.Payload),
		PublishedAt:   publishedAt.UTC(),
	}
}

// DecodeEnvelope разбирает сообщение, опубликованное outbox.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	if env.EventType == "" {
		return Envelope{}, errors.New("envelope without event_type")
	}
	return env, nil
}

// RestockEvent - поступление товара на склад.
type RestockEvent struct {
	ProductID  string    `json:"product_id"`
	Quantity   int32     `json:"quantity"`
	Reference  string    `json:"reference,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewRestockEvent создает событие пополнения
func NewRestockEvent(productID domain.ProductID, quantity int32, reference string) RestockEvent {
	return RestockEvent{
		ProductID:  string(productID),
		Quantity:   quantity,
		Reference:  reference,
		OccurredAt: time.Now().UTC(),
	}
}

// ParseRestockEvent парсит RestockEvent из сообщения
func ParseRestockEvent(message *sarama.ConsumerMessage) (RestockEvent, error) {
	var event RestockEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return RestockEvent{}, fmt.Errorf("failed to unmarshal restock event: %w", err)
	}
	event.ProductID = strings.TrimSpace(event.ProductID)
	if event.ProductID == "" {
		return RestockEvent{}, errors.New("restock event without product_id")
	}
	return event, nil
}
