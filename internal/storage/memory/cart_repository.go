package memory

import (
	"context"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// FindCart возвращает копию корзины покупателя или *domain.CartNotFoundError.
func (s *Store) FindCart(ctx context.Context, visitorID domain.VisitorID) (domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	cart, ok := s.carts[visitorID]
	if !ok {
		return domain.Cart{}, &domain.CartNotFoundError{VisitorID: visitorID}
	}
	return loadCart(cart), nil
}

// SaveCart сохраняет корзину, проверяя версию (optimistic locking).
func (s *Store) SaveCart(ctx context.Context, cart domain.Cart) error {
	return s.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		return repo.SaveCart(ctx, cart)
	})
}

// DeleteCart удаляет корзину покупателя.
func (s *Store) DeleteCart(ctx context.Context, visitorID domain.VisitorID) error {
	return s.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		return repo.DeleteCart(ctx, visitorID)
	})
}

func (t *tx) currentCart(visitorID domain.VisitorID) (domain.Cart, bool) {
	if change, ok := t.carts[visitorID]; ok {
		return change.cart, !change.deleted
	}
	cart, ok := t.s.carts[visitorID]
	return cart, ok
}

func (t *tx) FindCart(ctx context.Context, visitorID domain.VisitorID) (domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}
	cart, ok := t.currentCart(visitorID)
	if !ok {
		return domain.Cart{}, &domain.CartNotFoundError{VisitorID: visitorID}
	}
	return loadCart(cart), nil
}

func (t *tx) SaveCart(ctx context.Context, cart domain.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, exists := t.currentCart(cart.VisitorID)
	switch {
	case cart.Version == 0 && exists:
		return domain.ErrVersionConflict
	case cart.Version != 0 && (!exists || current.Version != cart.Version):
		return domain.ErrVersionConflict
	}

	stored := cart.Clone()
	stored.Version++
	t.carts[cart.VisitorID] = cartChange{cart: stored}
	return nil
}

func (t *tx) DeleteCart(ctx context.Context, visitorID domain.VisitorID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := t.currentCart(visitorID); !ok {
		return &domain.CartNotFoundError{VisitorID: visitorID}
	}
	t.carts[visitorID] = cartChange{deleted: true}
	return nil
}

// loadCart возвращает независимую копию с пересчитанным итогом.
func loadCart(cart domain.Cart) domain.Cart {
	c := cart.Clone()
	c.Recalculate()
	return c
}
