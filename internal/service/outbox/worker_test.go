package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxMessage{
			{
				ID:            "msg-1",
				AggregateType: domain.AggregateOrder,
				AggregateID:   "ord-1",
				EventType:     domain.EventOrderStatusChanged,
				Payload:       []byte(`{"status":"confirmed"}`),
			},
		},
	}
	publisher := &stubPublisher{}

	worker := NewWorker(
		repo,
		publisher,
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := len(repo.sentIDs); got != 1 {
		t.Fatalf("expected 1 sent mark, got %d", got)
	}
	if repo.sentIDs[0] != "msg-1" {
		t.Fatalf("expected sent id msg-1, got %s", repo.sentIDs[0])
	}
	if got := len(repo.failedIDs); got != 0 {
		t.Fatalf("expected 0 failed marks, got %d", got)
	}
	if got := publisher.calls(); got != 1 {
		t.Fatalf("expected 1 publish call, got %d", got)
	}
}

func TestWorker_ProcessOnce_MarkFailedAndDLQAfterRetries(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxMessage{
			{
				ID:            "msg-2",
				AggregateType: domain.AggregateOrder,
				AggregateID:   "ord-2",
				EventType:     domain.EventOrderStatusChanged,
				Payload:       []byte(`{"status":"cancelled"}`),
			},
		},
	}
	publisher := &stubPublisher{err: errors.New("publish failed")}
	dlqPublisher := &stubPublisher{}

	worker := NewWorker(
		repo,
		publisher,
		WithDLQPublisher(dlqPublisher),
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	report := worker.ProcessOnce(context.Background())

	if report.Failed != 1 || report.DeadLetter != 1 || report.Sent != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if got := len(repo.sentIDs); got != 0 {
		t.Fatalf("expected 0 sent marks, got %d", got)
	}
	if got := len(repo.failedIDs); got != 1 {
		t.Fatalf("expected 1 failed mark, got %d", got)
	}
	if repo.failedIDs[0] != "msg-2" {
		t.Fatalf("expected failed id msg-2, got %s", repo.failedIDs[0])
	}
	if got := dlqPublisher.calls(); got != 1 {
		t.Fatalf("expected 1 DLQ publish, got %d", got)
	}

	letter, err := DecodeDeadLetter(dlqPublisher.last.Payload)
	if err != nil {
		t.Fatalf("decode dead letter: %v", err)
	}
	if letter.OutboxID != "msg-2" || letter.PublishError == "" {
		t.Fatalf("unexpected dead letter: %+v", letter)
	}
	if got := string(letter.Message().Payload); got != `{"status":"cancelled"}` {
		t.Fatalf("unexpected original payload: %s", got)
	}
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{
		pending: []domain.OutboxMessage{
			{
				ID:            "msg-3",
				AggregateType: domain.AggregateOrder,
				AggregateID:   "ord-3",
				EventType:     domain.EventOrderStatusChanged,
				Payload:       []byte(`{"status":"shipped"}`),
			},
		},
	}
	publisher := &stubPublisher{
		sequenceErrors: []error{
			errors.New("attempt 1"),
			errors.New("attempt 2"),
			nil,
		},
	}

	worker := NewWorker(
		repo,
		publisher,
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if got := len(repo.sentIDs); got != 1 {
		t.Fatalf("expected 1 sent mark, got %d", got)
	}
	if got := len(repo.failedIDs); got != 0 {
		t.Fatalf("expected 0 failed marks, got %d", got)
	}
}

type stubOutboxRepo struct {
	pending   []domain.OutboxMessage
	sentIDs   []string
	failedIDs []string
}

func (s *stubOutboxRepo) PullPending(_ context.Context, limit int) ([]domain.OutboxMessage, error) {
	if limit <= 0 || limit >= len(s.pending) {
		return append([]domain.OutboxMessage(nil), s.pending...), nil
	}
	return append([]domain.OutboxMessage(nil), s.pending[:limit]...), nil
}

func (s *stubOutboxRepo) Stats(context.Context) (domain.OutboxStats, error) {
	stats := domain.OutboxStats{
		PendingCount: len(s.pending),
	}
	if len(s.pending) > 0 {
		stats.OldestPendingAt = time.Now().UTC().Add(-time.Second)
	}
	return stats, nil
}

func (s *stubOutboxRepo) MarkSent(_ context.Context, id string) error {
	s.sentIDs = append(s.sentIDs, id)
	return nil
}

func (s *stubOutboxRepo) MarkFailed(_ context.Context, id string) error {
	s.failedIDs = append(s.failedIDs, id)
	return nil
}

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	callCount      int
	last           domain.OutboxMessage
}

func (s *stubPublisher) Publish(_ context.Context, msg domain.OutboxMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callCount++
	s.last = msg
	if len(s.sequenceErrors) > 0 {
		err := s.sequenceErrors[0]
		s.sequenceErrors = s.sequenceErrors[1:]
		return err
	}

	return s.err
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

var _ domain.OutboxRepository = (*stubOutboxRepo)(nil)
var _ domain.OutboxPublisher = (*stubPublisher)(nil)

func TestWorker_Run_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	repo := &stubOutboxRepo{}
	publisher := &stubPublisher{}

	worker := NewWorker(
		repo,
		publisher,
		WithPollInterval(5*time.Millisecond),
		WithRetryBaseDelay(0),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		worker.Run(ctx)
	}()

	time.Sleep(15 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}

func TestWorker_DrainsMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	for i := 0; i < 3; i++ {
		msg, err := domain.NewOutboxMessage(domain.AggregateProduct, "prod_001", domain.EventStockChanged, domain.StockEventPayload{
			ProductID: "prod_001",
			Stock:     int32(10 + i),
			Delta:     1,
			Reason:    "restock",
		})
		if err != nil {
			t.Fatalf("build message: %v", err)
		}
		if _, err := store.EnqueueOutbox(ctx, msg); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	publisher := &stubPublisher{}
	worker := NewWorker(store, publisher, WithRetryBaseDelay(0), WithBatchSize(2))

	first := worker.ProcessOnce(ctx)
	if first.Sent != 2 {
		t.Fatalf("expected first batch of 2, got %+v", first)
	}
	second := worker.ProcessOnce(ctx)
	if second.Sent != 1 {
		t.Fatalf("expected second batch of 1, got %+v", second)
	}
	if pending := store.AllPending(); len(pending) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(pending))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 0 {
		t.Fatalf("expected no pending records, got %d", stats.PendingCount)
	}
}

func TestDecodeDeadLetter_Invalid(t *testing.T) {
	t.Parallel()

	if _, err := DecodeDeadLetter([]byte("not json")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := DecodeDeadLetter([]byte(`{"outbox_id":"x"}`)); err == nil {
		t.Fatal("expected error for empty envelope")
	}
}
