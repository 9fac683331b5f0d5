package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"
	outboxStatusFailed  = "failed"
)

// outboxRecord хранит сообщение и служебные поля для in-memory реализации.
type outboxRecord struct {
	msg        domain.OutboxMessage
	status     string
	attemptCnt int
	seq        int64
}

// EnqueueOutbox сохраняет событие со статусом `pending` вне бизнес-транзакции.
func (s *Store) EnqueueOutbox(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	var saved domain.OutboxMessage
	err := s.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		var err error
		saved, err = repo.EnqueueOutbox(ctx, msg)
		return err
	})
	return saved, err
}

func (t *tx) EnqueueOutbox(ctx context.Context, msg domain.OutboxMessage) (domain.OutboxMessage, error) {
	if err := ctx.Err(); err != nil {
		return domain.OutboxMessage{}, err
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = t.s.now()
	}
	msg.Payload = append([]byte(nil), msg.Payload...)
	t.outbox = append(t.outbox, &outboxRecord{msg: msg, status: outboxStatusPending})
	return msg, nil
}

// PullPending возвращает до limit сообщений со статусом `pending` в порядке записи.
func (s *Store) PullPending(ctx context.Context, limit int) ([]domain.OutboxMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := s.pendingLocked()
	if len(pending) > limit {
		pending = pending[:limit]
	}
	result := make([]domain.OutboxMessage, 0, len(pending))
	for _, rec := range pending {
		result = append(result, rec.msg)
	}
	return result, nil
}

// Stats возвращает размер backlog и время самого старого сообщения.
func (s *Store) Stats(ctx context.Context) (domain.OutboxStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.OutboxStats{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := s.pendingLocked()
	stats := domain.OutboxStats{PendingCount: len(pending)}
	if len(pending) > 0 {
		stats.OldestPendingAt = pending[0].msg.CreatedAt
	}
	return stats, nil
}

// MarkSent обновляет статус события после успешной публикации.
func (s *Store) MarkSent(ctx context.Context, id string) error {
	return s.mark(ctx, id, outboxStatusSent)
}

// MarkFailed фиксирует ошибку публикации.
func (s *Store) MarkFailed(ctx context.Context, id string) error {
	return s.mark(ctx, id, outboxStatusFailed)
}

func (s *Store) mark(ctx context.Context, id, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.outbox[id]
	if !ok {
		return domain.ErrOutboxPublish
	}
	record.status = status
	record.attemptCnt++
	return nil
}

// AllPending возвращает копию всех сообщений со статусом `pending` (используется в тестах).
func (s *Store) AllPending() []domain.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pending := s.pendingLocked()
	result := make([]domain.OutboxMessage, 0, len(pending))
	for _, rec := range pending {
		result = append(result, rec.msg)
	}
	return result
}

func (s *Store) pendingLocked() []*outboxRecord {
	pending := make([]*outboxRecord, 0)
	for _, rec := range s.outbox {
		if rec.status == outboxStatusPending {
			pending = append(pending, rec)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].seq < pending[j].seq })
	return pending
}
