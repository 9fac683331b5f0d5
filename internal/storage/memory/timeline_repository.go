package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// AppendTimeline добавляет событие в историю заказа.
func (s *Store) AppendTimeline(ctx context.Context, event domain.TimelineEvent) error {
	return s.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		return repo.AppendTimeline(ctx, event)
	})
}

// ListTimeline возвращает события заказа в хронологическом порядке.
func (s *Store) ListTimeline(ctx context.Context, orderID domain.OrderID) ([]domain.TimelineEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return chronological(s.timeline[orderID], nil), nil
}

func (t *tx) AppendTimeline(ctx context.Context, event domain.TimelineEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if event.Occurred.IsZero() {
		event.Occurred = t.s.now()
	}
	t.timeline = append(t.timeline, event)
	return nil
}

func (t *tx) ListTimeline(ctx context.Context, orderID domain.OrderID) ([]domain.TimelineEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var staged []domain.TimelineEvent
	for _, ev := range t.timeline {
		if ev.OrderID == orderID {
			staged = append(staged, ev)
		}
	}
	return chronological(t.s.timeline[orderID], staged), nil
}

func chronological(base, staged []domain.TimelineEvent) []domain.TimelineEvent {
	result := make([]domain.TimelineEvent, 0, len(base)+len(staged))
	result = append(result, base...)
	result = append(result, staged...)
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Occurred.Before(result[j].Occurred)
	})
	return result
}
