package outbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DeadLetter - конверт события, которое не удалось доставить.
type DeadLetter struct {
	OutboxID      string          `json:"outbox_id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishError  string          `json:"publish_error"`
	FailedAt      time.Time       `json:"dlq_published_at"`
}

// DecodeDeadLetter разбирает конверт DLQ.
func DecodeDeadLetter(raw []byte) (DeadLetter, error) {
	var letter DeadLetter
	if err := json.Unmarshal(raw, &letter); err != nil {
		return DeadLetter{}, fmt.Errorf("decode dead letter: %w", err)
	}
	if letter.EventType == "" || len(letter.Payload) == 0 {
		return DeadLetter{}, errors.New("decode dead letter: event_type and payload are required")
	}
	return letter, nil
}

// Message восстанавливает исходное сообщение outbox для повторной публикации.
func (l DeadLetter) Message() domain.OutboxMessage {
	return domain.OutboxMessage{
		ID:            l.OutboxID,
		AggregateType: l.AggregateType,
		AggregateID:   l.AggregateID,
		EventType:     l.EventType,
		Payload:       []byte(l.Payload),
	}
}
