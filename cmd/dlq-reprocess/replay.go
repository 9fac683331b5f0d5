package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
)

// replayMessage - сообщение, готовое к повторной публикации.
type replayMessage struct {
	topic       string
	key         string
	value       []byte
	eventType   string
	aggregateID string
}

// replayFilter ограничивает replay типами событий и одним агрегатом.
// Записи consumer DLQ не несут тип события и отсекаются любым -event-type.
type replayFilter struct {
	eventTypes  []string
	aggregateID string
}

func (f replayFilter) match(msg replayMessage) bool {
	if len(f.eventTypes) > 0 && !slices.Contains(f.eventTypes, msg.eventType) {
		return false
	}
	return f.aggregateID == "" || f.aggregateID == msg.aggregateID
}

type replayStats struct {
	scanned  int
	replayed int
	filtered int
	skipped  int
}

type replayer struct {
	targetTopic string
	filter      replayFilter
	producer    replayProducer // nil в dry-run
	now         func() time.Time
	stats       replayStats
}

func newReplayer(targetTopic string, filter replayFilter, producer replayProducer, now func() time.Time) *replayer {
	return &replayer{targetTopic: targetTopic, filter: filter, producer: producer, now: now}
}

// handle нераспознанные сообщения пропускает, ошибка публикации прерывает replay.
func (r *replayer) handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	r.stats.scanned++
	entry := log.WithFields(log.Fields{"partition": msg.Partition, "offset": msg.Offset})

	replay, err := extractReplayMessage(msg.Value, r.targetTopic, r.now())
	if err != nil {
		r.stats.skipped++
		entry.WithError(err).Warn("skip unsupported dlq message")
		return nil
	}
	if !r.filter.match(replay) {
		r.stats.filtered++
		return nil
	}

	entry = entry.WithFields(log.Fields{
		"target_topic": replay.topic,
		"event_type":   replay.eventType,
		"aggregate_id": replay.aggregateID,
	})
	if r.producer == nil {
		r.stats.replayed++
		entry.Info("dlq replay candidate (dry-run)")
		return nil
	}
	if err := publishReplay(ctx, r.producer, replay); err != nil {
		return fmt.Errorf("replay offset %d: %w", msg.Offset, err)
	}
	r.stats.replayed++
	entry.Info("dlq message replayed")
	return nil
}

func publishReplay(ctx context.Context, producer replayProducer, msg replayMessage) error {
	var headers []sarama.RecordHeader
	if msg.eventType != "" {
		headers = append(headers, sarama.RecordHeader{Key: []byte(kafka.HeaderEventType), Value: []byte(msg.eventType)})
	}
	return producer.Publish(ctx, msg.topic, msg.key, msg.value, headers...)
}

// extractReplayMessage поддерживает два формата DLQ: записи consumer
// (kafka.DeadLetterRecord) и конверты outbox с outbox.DeadLetter внутри.
func extractReplayMessage(raw []byte, targetTopic string, now time.Time) (replayMessage, error) {
	var record kafka.DeadLetterRecord
	if err := json.Unmarshal(raw, &record); err == nil && record.OriginalValue != "" {
		topic := firstNonEmpty(targetTopic, record.OriginalTopic)
		if topic == "" {
			return replayMessage{}, errors.New("consumer dlq record without original topic")
		}
		return replayMessage{
			topic:       topic,
			key:         record.OriginalKey,
			value:       []byte(record.OriginalValue),
			aggregateID: record.OriginalKey,
		}, nil
	}

	envelope, err := kafka.DecodeEnvelope(raw)
	if err != nil {
		return replayMessage{}, err
	}
	letter, err := outbox.DecodeDeadLetter(envelope.Payload)
	if err != nil {
		return replayMessage{}, err
	}

	original := letter.Message()
	original.ID = firstNonEmpty(original.ID, envelope.ID)
	original.AggregateType = firstNonEmpty(original.AggregateType, envelope.AggregateType)
	original.AggregateID = firstNonEmpty(original.AggregateID, envelope.AggregateID)

	encoded, err := json.Marshal(kafka.NewEnvelope(original, now))
	if err != nil {
		return replayMessage{}, fmt.Errorf("encode replay envelope: %w", err)
	}

	return replayMessage{
		topic:       firstNonEmpty(targetTopic, kafka.TopicFor(original.AggregateType)),
		key:         firstNonEmpty(original.AggregateID, original.ID),
		value:       encoded,
		eventType:   original.EventType,
		aggregateID: original.AggregateID,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
