package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockConsumerGroup struct {
	consumeFn func(context.Context, []string, sarama.ConsumerGroupHandler) error
	errorsCh  chan error
	closeFn   func() error
}

func (m *mockConsumerGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, topics, handler)
	}
	return nil
}

func (m *mockConsumerGroup) Errors() <-chan error {
	return m.errorsCh
}

func (m *mockConsumerGroup) Close() error {
	if m.closeFn != nil {
		return m.closeFn()
	}
	if m.errorsCh != nil {
		close(m.errorsCh)
	}
	return nil
}

func (m *mockConsumerGroup) Pause(map[string][]int32)  {}
func (m *mockConsumerGroup) Resume(map[string][]int32) {}
func (m *mockConsumerGroup) PauseAll()                 {}
func (m *mockConsumerGroup) ResumeAll()                {}

type mockSession struct {
	ctx    context.Context
	marked []*sarama.ConsumerMessage
}

func (m *mockSession) Claims() map[string][]int32               { return nil }
func (m *mockSession) MemberID() string                         { return "member" }
func (m *mockSession) GenerationID() int32                      { return 1 }
func (m *mockSession) MarkOffset(string, int32, int64, string)  {}
func (m *mockSession) Commit()                                  {}
func (m *mockSession) ResetOffset(string, int32, int64, string) {}
func (m *mockSession) Context() context.Context                 { return m.ctx }
func (m *mockSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	m.marked = append(m.marked, msg)
}

type mockClaim struct {
	topic     string
	partition int32
	messages  chan *sarama.ConsumerMessage
}

func (m *mockClaim) Topic() string                            { return m.topic }
func (m *mockClaim) Partition() int32                         { return m.partition }
func (m *mockClaim) InitialOffset() int64                     { return 0 }
func (m *mockClaim) HighWaterMarkOffset() int64               { return 0 }
func (m *mockClaim) Messages() <-chan *sarama.ConsumerMessage { return m.messages }

func newMessage(headers ...*sarama.RecordHeader) *sarama.ConsumerMessage {
	return &sarama.ConsumerMessage{
		Topic:   "topic",
		Key:     []byte("key"),
		Value:   []byte("{}"),
		Headers: headers,
	}
}

func retryHeader(count string) *sarama.RecordHeader {
	return &sarama.RecordHeader{Key: []byte(HeaderRetryCount), Value: []byte(count)}
}

func TestNewConsumerErrors(t *testing.T) {
	_, err := NewConsumer([]string{"invalid-broker:9092"}, "group", []string{"topic"}, func(context.Context, *sarama.ConsumerMessage) error { return nil })
	require.Error(t, err)
}

func TestConsumerStartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumeCalls := 0
	errorsCh := make(chan error, 1)
	group := &mockConsumerGroup{
		errorsCh: errorsCh,
		consumeFn: func(_ context.Context, _ []string, _ sarama.ConsumerGroupHandler) error {
			consumeCalls++
			cancel()
			return nil
		},
		closeFn: func() error {
			close(errorsCh)
			return nil
		},
	}

	consumer := &Consumer{
		consumer:   group,
		topics:     []string{TopicRestock},
		handler:    func(context.Context, *sarama.ConsumerMessage) error { return nil },
		logger:     log.WithField("test", "consumer"),
		maxRetries: 2,
	}

	errorsCh <- errors.New("background error")
	require.NoError(t, consumer.Start(ctx))
	require.NoError(t, consumer.Stop())
	assert.NotZero(t, consumeCalls)
}

func TestConsumerStopError(t *testing.T) {
	errorsCh := make(chan error)
	group := &mockConsumerGroup{errorsCh: errorsCh, closeFn: func() error {
		close(errorsCh)
		return errors.New("close failed")
	}}
	consumer := &Consumer{consumer: group, logger: log.WithField("test", "stop")}
	require.Error(t, consumer.Stop())
}

func TestConsumerSetupCleanup(t *testing.T) {
	consumer := &Consumer{}
	require.NoError(t, consumer.Setup(nil))
	require.NoError(t, consumer.Cleanup(nil))
}

func TestConsumeClaim(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &Consumer{
		handler:    func(context.Context, *sarama.ConsumerMessage) error { return nil },
		logger:     log.WithField("test", "claim"),
		maxRetries: 1,
	}

	session := &mockSession{ctx: ctx}
	claim := &mockClaim{topic: "topic", partition: 0, messages: make(chan *sarama.ConsumerMessage, 2)}
	claim.messages <- &sarama.ConsumerMessage{Topic: "topic", Partition: 0, Offset: 1, Key: []byte("k"), Value: []byte("v")}
	close(claim.messages)

	require.NoError(t, consumer.ConsumeClaim(session, claim))
	assert.Len(t, session.marked, 1)
}

func TestConsumeClaimFailedHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := &Consumer{
		handler:    func(context.Context, *sarama.ConsumerMessage) error { return errors.New("failed") },
		logger:     log.WithField("test", "claim-fail"),
		maxRetries: 1,
	}

	session := &mockSession{ctx: ctx}
	claim := &mockClaim{topic: "topic", partition: 0, messages: make(chan *sarama.ConsumerMessage, 1)}
	claim.messages <- &sarama.ConsumerMessage{Topic: "topic", Partition: 0, Offset: 1, Key: []byte("k"), Value: []byte("v")}
	close(claim.messages)

	require.NoError(t, consumer.ConsumeClaim(session, claim))
	assert.Empty(t, session.marked, "failed message without DLQ should not be marked")
}

func TestHandleMessageWithRetry(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		consumer := &Consumer{
			handler:    func(context.Context, *sarama.ConsumerMessage) error { return nil },
			logger:     log.WithField("test", "retry-success"),
			maxRetries: 2,
		}
		require.NoError(t, consumer.handleMessageWithRetry(context.Background(), newMessage()))
	})

	t.Run("transient error recovers", func(t *testing.T) {
		attempts := 0
		consumer := &Consumer{
			handler: func(context.Context, *sarama.ConsumerMessage) error {
				attempts++
				if attempts < 3 {
					return errors.New("temporary")
				}
				return nil
			},
			logger:     log.WithField("test", "retry-recover"),
			maxRetries: 3,
		}
		require.NoError(t, consumer.handleMessageWithRetry(context.Background(), newMessage()))
		assert.Equal(t, 3, attempts)
	})

	t.Run("retry header reduces attempts", func(t *testing.T) {
		attempts := 0
		consumer := &Consumer{
			handler: func(context.Context, *sarama.ConsumerMessage) error {
				attempts++
				return errors.New("temporary")
			},
			logger:     log.WithField("test", "retry"),
			maxRetries: 3,
		}
		require.Error(t, consumer.handleMessageWithRetry(context.Background(), newMessage(retryHeader("1"))))
		assert.Equal(t, 2, attempts)
	})

	t.Run("permanent error is not retried", func(t *testing.T) {
		attempts := 0
		consumer := &Consumer{
			handler: func(context.Context, *sarama.ConsumerMessage) error {
				attempts++
				return Permanent(errors.New("bad payload"))
			},
			logger:     log.WithField("test", "permanent"),
			maxRetries: 5,
		}
		err := consumer.handleMessageWithRetry(context.Background(), newMessage())
		require.ErrorIs(t, err, ErrPermanent)
		assert.Equal(t, 1, attempts)
	})

	t.Run("max retries with dlq success", func(t *testing.T) {
		mockProducer := mocks.NewSyncProducer(t, nil)
		mockProducer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
			if msg.Topic != TopicDeadLetterQueue {
				return errors.New("unexpected topic " + msg.Topic)
			}
			return nil
		})
		consumer := &Consumer{
			handler:     func(context.Context, *sarama.ConsumerMessage) error { return errors.New("permanent") },
			dlqProducer: &Producer{producer: mockProducer, logger: log.WithField("test", "dlq")},
			logger:      log.WithField("test", "max-dlq"),
			maxRetries:  3,
		}
		require.NoError(t, consumer.handleMessageWithRetry(context.Background(), newMessage(retryHeader("3"))))
		require.NoError(t, mockProducer.Close())
	})

	t.Run("max retries with dlq failure", func(t *testing.T) {
		mockProducer := mocks.NewSyncProducer(t, nil)
		mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)
		consumer := &Consumer{
			handler:     func(context.Context, *sarama.ConsumerMessage) error { return errors.New("permanent") },
			dlqProducer: &Producer{producer: mockProducer, logger: log.WithField("test", "dlq")},
			logger:      log.WithField("test", "max-dlq-fail"),
			maxRetries:  3,
		}
		require.Error(t, consumer.handleMessageWithRetry(context.Background(), newMessage(retryHeader("3"))))
		require.NoError(t, mockProducer.Close())
	})

	t.Run("cancelled context skips dlq", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		mockProducer := mocks.NewSyncProducer(t, nil)
		consumer := &Consumer{
			handler:     func(ctx context.Context, _ *sarama.ConsumerMessage) error { return ctx.Err() },
			dlqProducer: &Producer{producer: mockProducer, logger: log.WithField("test", "dlq")},
			logger:      log.WithField("test", "cancelled"),
			maxRetries:  1,
		}
		require.ErrorIs(t, consumer.handleMessageWithRetry(ctx, newMessage()), context.Canceled)
		require.NoError(t, mockProducer.Close())
	})
}

func TestGetRetryCount(t *testing.T) {
	consumer := &Consumer{}
	assert.Equal(t, 5, consumer.getRetryCount(newMessage(retryHeader("5"))))
	assert.Equal(t, 0, consumer.getRetryCount(newMessage(retryHeader("bad"))))
	assert.Equal(t, 0, consumer.getRetryCount(newMessage()))
}

func TestSendToDLQ(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var record DeadLetterRecord
		if err := json.Unmarshal(val, &record); err != nil {
			return err
		}
		if record.OriginalTopic != TopicRestock || record.OriginalOffset != 42 || record.ErrorMessage != "boom" {
			return errors.New("unexpected dead letter record")
		}
		return nil
	})

	consumer := &Consumer{
		dlqProducer: &Producer{producer: mockProducer, logger: log.WithField("test", "send-dlq")},
		logger:      log.WithField("test", "consumer-send-dlq"),
	}

	msg := &sarama.ConsumerMessage{Topic: TopicRestock, Partition: 1, Offset: 42, Key: []byte("k"), Value: []byte("v")}
	require.NoError(t, consumer.sendToDLQ(context.Background(), msg, errors.New("boom"), 3))
	require.NoError(t, mockProducer.Close())
}

func TestConsumeClaimStopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := &Consumer{
		handler:    func(context.Context, *sarama.ConsumerMessage) error { return nil },
		logger:     log.WithField("test", "claim-stop"),
		maxRetries: 1,
	}
	session := &mockSession{ctx: ctx}
	claim := &mockClaim{topic: "topic", partition: 0, messages: make(chan *sarama.ConsumerMessage)}

	done := make(chan struct{})
	go func() {
		_ = consumer.ConsumeClaim(session, claim)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ConsumeClaim did not stop after context cancellation")
	}
}
