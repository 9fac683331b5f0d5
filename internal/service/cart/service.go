// Package cart реализует CartService: корзина покупателя с проверкой остатков.
//
// Мутации одной корзины сериализуются блокировкой по покупателю, а сохранение
// дополнительно защищено версией корзины (optimistic locking). Остаток товара
// здесь только читается: списание происходит при оформлении заказа.
package cart

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/lock"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
	"github.com/vladislavdragonenkov/storefront/internal/service/retry"
)

// Repository - часть хранилища, нужная корзине.
type Repository interface {
	domain.ProductRepository
	domain.CartRepository
}

// View - корзина вместе с разбивкой стоимости.
type View struct {
	Cart    domain.Cart
	Summary pricing.Summary
}

// Service - CartService.
type Service struct {
	repo       Repository
	locker     lock.Locker
	calculator pricing.Calculator
	retry      retry.Config
	logger     *log.Entry
	metrics    *metrics.StoreMetrics
	now        func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithLocker подменяет блокировку покупателя (например, на Redis).
func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
}

// WithCalculator задаёт расчёт доставки и налога.
func WithCalculator(c pricing.Calculator) Option {
	return func(s *Service) { s.calculator = c }
}

// WithRetry задаёт политику повторов при конфликте версий.
func WithRetry(cfg retry.Config) Option {
	return func(s *Service) { s.retry = cfg }
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics подключает метрики.
func WithMetrics(m *metrics.StoreMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService создаёт CartService.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		locker:     lock.NewLocal(),
		calculator: pricing.NewCalculator(),
		retry:      retry.DefaultConfig(),
		logger:     log.WithField("component", "cart-service"),
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem добавляет товар в корзину, создавая её при первом добавлении.
// Повторное добавление увеличивает количество в существующей строке;
// итоговое количество проверяется против текущего остатка.
func (s *Service) AddItem(ctx context.Context, visitorID domain.VisitorID, productID domain.ProductID, qty int32) (domain.Cart, error) {
	return s.mutate(ctx, "add_item", visitorID, true, func(ctx context.Context, cart *domain.Cart) error {
		product, err := s.repo.FindProduct(ctx, productID)
		if err != nil {
			return err
		}
		if qty <= 0 {
			return &domain.InvalidQuantityError{Quantity: int64(qty)}
		}

		merged := int64(qty)
		if line, ok := cart.Line(productID); ok {
			merged += int64(line.Qty)
		}
		if err := product.CheckAvailable(merged); err != nil {
			return err
		}

		cart.MergeLine(domain.CartItem{
			ProductID:  product.ID,
			Name:       product.Name,
			PriceMinor: product.PriceMinor,
			Qty:        qty,
		})
		return nil
	})
}

// UpdateItem заменяет количество в строке; qty == 0 удаляет строку.
// Снимок цены существующей строки не меняется.
func (s *Service) UpdateItem(ctx context.Context, visitorID domain.VisitorID, productID domain.ProductID, qty int32) (domain.Cart, error) {
	return s.mutate(ctx, "update_item", visitorID, false, func(ctx context.Context, cart *domain.Cart) error {
		if qty < 0 {
			return &domain.InvalidQuantityError{Quantity: int64(qty)}
		}
		if qty == 0 {
			cart.RemoveLine(productID)
			return nil
		}

		product, err := s.repo.FindProduct(ctx, productID)
		if err != nil {
			return err
		}
		if err := product.CheckAvailable(int64(qty)); err != nil {
			return err
		}
		if !cart.SetQty(productID, qty) {
			cart.MergeLine(domain.CartItem{
				ProductID:  product.ID,
				Name:       product.Name,
				PriceMinor: product.PriceMinor,
				Qty:        qty,
			})
		}
		return nil
	})
}

// RemoveItem удаляет строку; отсутствие строки не является ошибкой.
func (s *Service) RemoveItem(ctx context.Context, visitorID domain.VisitorID, productID domain.ProductID) (domain.Cart, error) {
	return s.mutate(ctx, "remove_item", visitorID, false, func(_ context.Context, cart *domain.Cart) error {
		cart.RemoveLine(productID)
		return nil
	})
}

// Clear очищает корзину, сохраняя её саму.
func (s *Service) Clear(ctx context.Context, visitorID domain.VisitorID) (domain.Cart, error) {
	return s.mutate(ctx, "clear", visitorID, false, func(_ context.Context, cart *domain.Cart) error {
		cart.Clear()
		return nil
	})
}

// GetCart возвращает корзину или *domain.CartNotFoundError.
func (s *Service) GetCart(ctx context.Context, visitorID domain.VisitorID) (domain.Cart, error) {
	if visitorID == "" {
		return domain.Cart{}, &domain.ValidationError{Field: "visitor_id", Reason: "must not be empty"}
	}
	cart, err := s.repo.FindCart(ctx, visitorID)
	if err != nil {
		return domain.Cart{}, domain.WrapStorage("find cart", err)
	}
	return cart, nil
}

// Summary возвращает корзину с расчётом доставки и налога.
func (s *Service) Summary(ctx context.Context, visitorID domain.VisitorID) (View, error) {
	cart, err := s.GetCart(ctx, visitorID)
	if err != nil {
		return View{}, err
	}
	return View{Cart: cart, Summary: s.calculator.Summarize(cart.TotalMinor)}, nil
}

// Discard удаляет корзину покупателя целиком.
func (s *Service) Discard(ctx context.Context, visitorID domain.VisitorID) (err error) {
	defer func() { s.metrics.RecordCartOperation("discard", resultOf(err)) }()

	if visitorID == "" {
		return &domain.ValidationError{Field: "visitor_id", Reason: "must not be empty"}
	}
	unlock, err := s.locker.Lock(ctx, lock.VisitorKey(string(visitorID)))
	if err != nil {
		return domain.WrapStorage("lock cart", err)
	}
	defer unlock()

	if err := s.repo.DeleteCart(ctx, visitorID); err != nil {
		return domain.WrapStorage("delete cart", err)
	}
	s.logger.WithField("visitor_id", visitorID).Debug("cart discarded")
	return nil
}

// mutate загружает корзину, применяет fn и сохраняет результат с проверкой версии.
// Ошибка fn прерывает операцию без записи.
func (s *Service) mutate(ctx context.Context, op string, visitorID domain.VisitorID, create bool, fn func(ctx context.Context, cart *domain.Cart) error) (result domain.Cart, err error) {
	defer func() { s.metrics.RecordCartOperation(op, resultOf(err)) }()

	if visitorID == "" {
		return domain.Cart{}, &domain.ValidationError{Field: "visitor_id", Reason: "must not be empty"}
	}

	unlock, err := s.locker.Lock(ctx, lock.VisitorKey(string(visitorID)))
	if err != nil {
		return domain.Cart{}, domain.WrapStorage("lock cart", err)
	}
	defer unlock()

	err = retry.Do(ctx, s.retry, s.logger, op, domain.IsVersionConflict, func(int) error {
		current, err := s.repo.FindCart(ctx, visitorID)
		switch {
		case errors.Is(err, domain.ErrCartNotFound) && create:
			current = domain.NewCart(visitorID, s.now())
		case err != nil:
			return err
		}

		if err := fn(ctx, &current); err != nil {
			return err
		}
		current.Recalculate()
		current.UpdatedAt = s.now()

		if err := s.repo.SaveCart(ctx, current); err != nil {
			if domain.IsVersionConflict(err) {
				s.metrics.RecordCartConflict()
			}
			return err
		}
		current.Version++
		result = current
		return nil
	})
	if err != nil {
		return domain.Cart{}, domain.WrapStorage(op, err)
	}

	s.logger.WithFields(log.Fields{
		"visitor_id": visitorID,
		"operation":  op,
		"lines":      len(result.Items),
		"total":      result.TotalMinor,
	}).Debug("cart updated")
	return result, nil
}

func resultOf(err error) string {
	if err == nil {
		return metrics.ResultSuccess
	}
	if kind := domain.KindOf(err); kind != domain.KindUnknown {
		return string(kind)
	}
	return metrics.ResultError
}
