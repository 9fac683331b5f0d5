package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// FindOrder возвращает копию заказа или *domain.OrderNotFoundError.
func (s *Store) FindOrder(ctx context.Context, id domain.OrderID) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return domain.Order{}, &domain.OrderNotFoundError{OrderID: id}
	}
	return order.Clone(), nil
}

// SaveOrder создаёт заказ или обновляет его с учётом версии.
func (s *Store) SaveOrder(ctx context.Context, order domain.Order) error {
	return s.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		return repo.SaveOrder(ctx, order)
	})
}

// ListOrdersByVisitor возвращает заказы покупателя, ограничивая выборку limit (если >0).
func (s *Store) ListOrdersByVisitor(ctx context.Context, visitorID domain.VisitorID, limit int) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return visitorOrders(s.orders, nil, visitorID, limit), nil
}

func (t *tx) FindOrder(ctx context.Context, id domain.OrderID) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}
	if order, ok := t.orders[id]; ok {
		return order.Clone(), nil
	}
	order, ok := t.s.orders[id]
	if !ok {
		return domain.Order{}, &domain.OrderNotFoundError{OrderID: id}
	}
	return order.Clone(), nil
}

func (t *tx) SaveOrder(ctx context.Context, order domain.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, exists := t.orders[order.ID]
	if !exists {
		current, exists = t.s.orders[order.ID]
	}
	switch {
	case order.Version == 0 && exists:
		return domain.ErrVersionConflict
	case order.Version != 0 && !exists:
		return &domain.OrderNotFoundError{OrderID: order.ID}
	case order.Version != 0 && current.Version != order.Version:
		return domain.ErrVersionConflict
	}

	stored := order.Clone()
	// Инкрементируем версию перед сохранением.
	stored.Version++
	t.orders[order.ID] = stored
	return nil
}

func (t *tx) ListOrdersByVisitor(ctx context.Context, visitorID domain.VisitorID, limit int) ([]domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return visitorOrders(t.s.orders, t.orders, visitorID, limit), nil
}

func visitorOrders(base, staged map[domain.OrderID]domain.Order, visitorID domain.VisitorID, limit int) []domain.Order {
	merged := make(map[domain.OrderID]domain.Order)
	for id, o := range base {
		if o.VisitorID == visitorID {
			merged[id] = o
		}
	}
	for id, o := range staged {
		if o.VisitorID == visitorID {
			merged[id] = o
		}
	}

	result := make([]domain.Order, 0, len(merged))
	for _, o := range merged {
		result = append(result, o.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}
