package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func expectTopic(topic, eventType string) mocks.MessageChecker {
	return func(msg *sarama.ProducerMessage) error {
		if msg.Topic != topic {
			return errors.New("unexpected topic " + msg.Topic)
		}
		for _, h := range msg.Headers {
			if string(h.Key) == HeaderEventType && string(h.Value) == eventType {
				return nil
			}
		}
		return errors.New("event type header is missing")
	}
}

func TestOutboxPublisher_RoutesByAggregate(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectTopic(TopicOrderEvents, domain.EventOrderCreated))
	mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(expectTopic(TopicProductEvents, domain.EventStockChanged))

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-outbox-publisher-test"),
	}
	publisher := NewOutboxPublisher(producer, "")

	ctx := context.Background()
	require.NoError(t, publisher.Publish(ctx, domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "order-123",
		EventType:     domain.EventOrderCreated,
		Payload:       []byte(`{"status":"pending"}`),
	}))
	require.NoError(t, publisher.Publish(ctx, domain.OutboxMessage{
		ID:            "outbox-2",
		AggregateType: domain.AggregateProduct,
		AggregateID:   "prod_001",
		EventType:     domain.EventStockChanged,
		Payload:       []byte(`{"stock":4}`),
	}))

	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_FixedTopicEnvelope(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		env, err := DecodeEnvelope(val)
		if err != nil {
			return err
		}
		if env.ID != "outbox-9" || string(env.Payload) != `{"status":"cancelled"}` {
			return errors.New("unexpected envelope")
		}
		return nil
	})

	publisher := NewOutboxPublisher(NewProducerFromSync(mockProducer), TopicDeadLetterQueue)
	publisher.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	require.NoError(t, publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "outbox-9",
		AggregateType: domain.AggregateOrder,
		EventType:     domain.EventOrderCancelled,
		Payload:       []byte(`{"status":"cancelled"}`),
	}))
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishProducerError(t *testing.T) {
	t.Parallel()

	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	publisher := NewOutboxPublisher(NewProducerFromSync(mockProducer), "")
	err := publisher.Publish(context.Background(), domain.OutboxMessage{
		ID:            "outbox-2",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "order-234",
		EventType:     domain.EventOrderStatusChanged,
		Payload:       []byte(`{"status":"confirmed"}`),
	})
	require.Error(t, err)
	require.NoError(t, mockProducer.Close())
}

func TestOutboxPublisher_PublishNilProducer(t *testing.T) {
	t.Parallel()

	publisher := NewOutboxPublisher(nil, TopicOrderEvents)
	require.Error(t, publisher.Publish(context.Background(), domain.OutboxMessage{ID: "outbox-3"}))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	t.Parallel()

	_, err := DecodeEnvelope([]byte(`{"id":"x"}`))
	require.Error(t, err)

	env := NewEnvelope(domain.OutboxMessage{ID: "a", EventType: domain.EventOrderCreated, Payload: []byte(`{}`)}, time.Now())
	assert.Equal(t, "a", env.ID)
	assert.Equal(t, time.UTC, env.PublishedAt.Location())
}
