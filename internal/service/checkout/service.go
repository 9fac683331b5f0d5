// Package checkout реализует CheckoutService: оформление заказа из корзины
// и жизненный цикл заказа pending → confirmed → shipped → delivered | cancelled.
//
// Оформление выполняется одной единицей работы хранилища: проверка остатков
// под блокировкой строк товаров (в порядке идентификаторов), списание остатков,
// создание заказа, очистка корзины, событие в outbox и запись истории.
// Платёж проводится последним шагом перед фиксацией; его ошибка откатывает всё.
package checkout

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/lock"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
	"github.com/vladislavdragonenkov/storefront/internal/service/retry"
)

const (
	// DefaultListLimit ограничивает историю заказов, если лимит не задан.
	DefaultListLimit = 50
	// MaxListLimit - верхняя граница лимита истории заказов.
	MaxListLimit = 500

	reasonCheckout = "checkout"
	reasonCancel   = "order_cancelled"
)

// Service - CheckoutService.
type Service struct {
	store    domain.Store
	payments domain.PaymentGateway
	locker   lock.Locker
	retry    retry.Config
	logger   *log.Entry
	metrics  *metrics.StoreMetrics
	now      func() time.Time
	newID    func() domain.OrderID
}

// Option настраивает Service.
type Option func(*Service)

// WithLocker подменяет блокировку покупателя. Должен совпадать с локером CartService.
func WithLocker(l lock.Locker) Option {
	return func(s *Service) {
		if l != nil {
			s.locker = l
		}
	}
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

// WithIDGenerator подменяет генератор идентификаторов заказа.
func WithIDGenerator(gen func() domain.OrderID) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewService создаёт CheckoutService.
func NewService(store domain.Store, payments domain.PaymentGateway, opts ...Option) *Service {
	s := &Service{
		store:    store,
		payments: payments,
		locker:   lock.NewLocal(),
		retry:    retry.DefaultConfig(),
		logger:   log.WithField("component", "checkout"),
		now:      func() time.Time { return time.Now().UTC() },
		newID:    domain.NewOrderID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Checkout превращает корзину покупателя в заказ в статусе pending.
// Либо применяются все изменения (остатки, заказ, корзина, outbox, история), либо ни одно.
func (s *Service) Checkout(ctx context.Context, visitorID domain.VisitorID) (order domain.Order, err error) {
	done := s.metrics.CheckoutStarted()
	defer func() { done(resultOf(err)) }()

	if visitorID == "" {
		return domain.Order{}, &domain.ValidationError{Field: "visitor_id", Reason: "must not be empty"}
	}

	unlock, err := s.locker.Lock(ctx, lock.VisitorKey(string(visitorID)))
	if err != nil {
		return domain.Order{}, domain.WrapStorage("lock cart", err)
	}
	defer unlock()

	orderID := s.newID()
	logger := s.logger.WithFields(log.Fields{"visitor_id": visitorID, "order_id": orderID})

	var units int
	err = retry.Do(ctx, s.retry, logger, "checkout", domain.IsVersionConflict, func(int) error {
		charged := false
		txErr := s.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
			placed, sold, err := s.place(ctx, repo, visitorID, orderID)
			if err != nil {
				return err
			}
			if err := s.charge(ctx, placed); err != nil {
				return err
			}
			charged = true
			order, units = placed, sold
			return nil
		})
		if txErr != nil && charged {
			// Фиксация не прошла после успешного списания: возвращаем деньги.
			s.compensate(ctx, logger, orderID, order.TotalMinor)
		}
		return txErr
	})
	if err != nil {
		logger.WithError(err).Info("checkout failed")
		return domain.Order{}, domain.WrapStorage("checkout", err)
	}

	s.metrics.RecordUnitsSold(units)
	logger.WithFields(log.Fields{
		"items": len(order.Items),
		"total": order.TotalMinor,
	}).Info("order placed")
	return order, nil
}

// place выполняет все записи оформления внутри транзакции и возвращает заказ.
func (s *Service) place(ctx context.Context, repo domain.Repository, visitorID domain.VisitorID, orderID domain.OrderID) (domain.Order, int, error) {
	cart, err := repo.FindCart(ctx, visitorID)
	if err != nil {
		return domain.Order{}, 0, err
	}
	if cart.IsEmpty() {
		return domain.Order{}, 0, &domain.CartEmptyError{VisitorID: visitorID}
	}

	lines := domain.SortedLines(cart.Items)
	products := make([]domain.Product, 0, len(lines))
	for _, line := range lines {
		product, err := repo.FindProduct(ctx, line.ProductID)
		if err != nil {
			return domain.Order{}, 0, err
		}
		if err := product.CheckAvailable(int64(line.Qty)); err != nil {
			return domain.Order{}, 0, err
		}
		products = append(products, product)
	}

	now := s.now()
	order, err := domain.NewOrderFromCart(orderID, cart, now)
	if err != nil {
		return domain.Order{}, 0, err
	}

	units := 0
	for i, line := range lines {
		product := products[i]
		product.Stock -= line.Qty
		product.UpdatedAt = now
		if err := repo.SaveProduct(ctx, product); err != nil {
			return domain.Order{}, 0, err
		}
		units += int(line.Qty)
	}

	if err := repo.SaveOrder(ctx, order); err != nil {
		return domain.Order{}, 0, err
	}
	order.Version++

	cart.Clear()
	cart.Recalculate()
	cart.UpdatedAt = now
	if err := repo.SaveCart(ctx, cart); err != nil {
		return domain.Order{}, 0, err
	}

	if err := s.enqueueOrderEvent(ctx, repo, order, domain.EventOrderCreated, reasonCheckout, now); err != nil {
		return domain.Order{}, 0, err
	}
	for _, ev := range []domain.TimelineEvent{
		{OrderID: order.ID, Type: domain.TimelineOrderPlaced, Status: order.Status, Occurred: now},
		{OrderID: order.ID, Type: domain.TimelinePaymentCharged, Status: order.Status, Occurred: now},
	} {
		if err := repo.AppendTimeline(ctx, ev); err != nil {
			return domain.Order{}, 0, err
		}
	}
	return order, units, nil
}

func (s *Service) charge(ctx context.Context, order domain.Order) error {
	status, err := s.payments.Charge(ctx, order.ID, order.TotalMinor)
	if err != nil || status != domain.PaymentStatusCaptured {
		return &domain.PaymentFailedError{OrderID: order.ID, Status: status, Err: err}
	}
	return nil
}

func (s *Service) compensate(ctx context.Context, logger *log.Entry, orderID domain.OrderID, amountMinor int64) {
	refundCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	status, err := s.payments.Refund(refundCtx, orderID, amountMinor)
	if err != nil || status != domain.PaymentStatusRefunded {
		logger.WithError(err).WithField("status", status).Error("refund after failed commit did not succeed")
		return
	}
	logger.Warn("charge refunded after failed commit")
}

// Confirm переводит заказ pending → confirmed.
func (s *Service) Confirm(ctx context.Context, orderID domain.OrderID) (domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusConfirmed)
}

// Ship переводит заказ confirmed → shipped.
func (s *Service) Ship(ctx context.Context, orderID domain.OrderID) (domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusShipped)
}

// Deliver переводит заказ shipped → delivered.
func (s *Service) Deliver(ctx context.Context, orderID domain.OrderID) (domain.Order, error) {
	return s.transition(ctx, orderID, domain.OrderStatusDelivered)
}

func (s *Service) transition(ctx context.Context, orderID domain.OrderID, next domain.OrderStatus) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, &domain.ValidationError{Field: "order_id", Reason: "must not be empty"}
	}

	var result domain.Order
	err := s.withOrder(ctx, orderID, string(next), func(ctx context.Context, repo domain.Repository, order *domain.Order, now time.Time) error {
		if err := order.Transition(next, now); err != nil {
			return err
		}
		if err := repo.SaveOrder(ctx, *order); err != nil {
			return err
		}
		order.Version++

		if err := s.enqueueOrderEvent(ctx, repo, *order, domain.EventOrderStatusChanged, "", now); err != nil {
			return err
		}
		if err := repo.AppendTimeline(ctx, domain.TimelineEvent{
			OrderID:  order.ID,
			Type:     domain.TimelineStatusChanged,
			Status:   next,
			Occurred: now,
		}); err != nil {
			return err
		}
		result = *order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.RecordTransition(string(next))
	s.logger.WithFields(log.Fields{"order_id": orderID, "status": next}).Info("order status changed")
	return result, nil
}

// Cancel отменяет заказ в статусе pending или confirmed: возвращает остатки,
// проводит возврат платежа и публикует order.cancelled.
// Отмена после отгрузки возвращает *domain.InvalidTransitionError.
func (s *Service) Cancel(ctx context.Context, orderID domain.OrderID, reason string) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, &domain.ValidationError{Field: "order_id", Reason: "must not be empty"}
	}

	var (
		result   domain.Order
		restored int
		refunded bool
	)
	logger := s.logger.WithField("order_id", orderID)

	err := s.withOrder(ctx, orderID, string(domain.OrderStatusCancelled), func(ctx context.Context, repo domain.Repository, order *domain.Order, now time.Time) error {
		restored = 0
		if err := order.Transition(domain.OrderStatusCancelled, now); err != nil {
			return err
		}

		for _, item := range order.Items {
			product, err := repo.FindProduct(ctx, item.ProductID)
			if errors.Is(err, domain.ErrProductNotFound) {
				logger.WithField("product_id", item.ProductID).Warn("product removed from catalog, stock not restored")
				continue
			}
			if err != nil {
				return err
			}
			product.Stock += item.Qty
			product.UpdatedAt = now
			if err := repo.SaveProduct(ctx, product); err != nil {
				return err
			}
			msg, err := domain.NewOutboxMessage(domain.AggregateProduct, string(product.ID), domain.EventStockChanged, domain.StockEventPayload{
				ProductID:  product.ID,
				Stock:      product.Stock,
				Delta:      item.Qty,
				Reason:     reasonCancel,
				OccurredAt: now,
			})
			if err != nil {
				return err
			}
			if _, err := repo.EnqueueOutbox(ctx, msg); err != nil {
				return err
			}
			restored += int(item.Qty)
		}

		if err := repo.SaveOrder(ctx, *order); err != nil {
			return err
		}
		order.Version++

		if err := s.enqueueOrderEvent(ctx, repo, *order, domain.EventOrderCancelled, reason, now); err != nil {
			return err
		}
		for _, ev := range []domain.TimelineEvent{
			{OrderID: order.ID, Type: domain.TimelineStockRestored, Status: order.Status, Occurred: now},
			{OrderID: order.ID, Type: domain.TimelinePaymentRefund, Status: order.Status, Occurred: now},
			{OrderID: order.ID, Type: domain.TimelineStatusChanged, Status: order.Status, Reason: reason, Occurred: now},
		} {
			if err := repo.AppendTimeline(ctx, ev); err != nil {
				return err
			}
		}

		// Возврат последним шагом: его ошибка откатывает отмену целиком.
		// Refund идемпотентен по заказу, поэтому повтор транзакции после конфликта
		// или повторный Cancel после сбоя фиксации не вернут деньги дважды.
		status, err := s.payments.Refund(ctx, order.ID, order.TotalMinor)
		if err != nil || status != domain.PaymentStatusRefunded {
			return &domain.PaymentFailedError{OrderID: order.ID, Status: status, Err: err}
		}
		refunded = true
		result = *order
		return nil
	})
	if err != nil {
		if refunded {
			logger.WithError(err).Error("payment refunded but cancellation was not committed, retry cancel")
		}
		return domain.Order{}, err
	}

	s.metrics.RecordTransition(string(domain.OrderStatusCancelled))
	s.metrics.RecordUnitsRestored(restored)
	logger.WithFields(log.Fields{"reason": reason, "units_restored": restored}).Info("order cancelled")
	return result, nil
}

// withOrder загружает заказ внутри транзакции и применяет fn, повторяя попытку при конфликте версий.
func (s *Service) withOrder(ctx context.Context, orderID domain.OrderID, op string, fn func(ctx context.Context, repo domain.Repository, order *domain.Order, now time.Time) error) error {
	err := retry.Do(ctx, s.retry, s.logger, op, domain.IsVersionConflict, func(int) error {
		return s.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
			order, err := repo.FindOrder(ctx, orderID)
			if err != nil {
				return err
			}
			return fn(ctx, repo, &order, s.now())
		})
	})
	if err != nil {
		return domain.WrapStorage(op, err)
	}
	return nil
}

func (s *Service) enqueueOrderEvent(ctx context.Context, repo domain.Repository, order domain.Order, eventType, reason string, now time.Time) error {
	msg, err := domain.NewOutboxMessage(domain.AggregateOrder, string(order.ID), eventType, domain.NewOrderEventPayload(order, reason, now))
	if err != nil {
		return err
	}
	_, err = repo.EnqueueOutbox(ctx, msg)
	return err
}

// GetOrder возвращает заказ или *domain.OrderNotFoundError.
func (s *Service) GetOrder(ctx context.Context, orderID domain.OrderID) (domain.Order, error) {
	if orderID == "" {
		return domain.Order{}, &domain.ValidationError{Field: "order_id", Reason: "must not be empty"}
	}
	order, err := s.store.FindOrder(ctx, orderID)
	if err != nil {
		return domain.Order{}, domain.WrapStorage("find order", err)
	}
	return order, nil
}

// ListOrders возвращает заказы покупателя от новых к старым.
func (s *Service) ListOrders(ctx context.Context, visitorID domain.VisitorID, limit int) ([]domain.Order, error) {
	if visitorID == "" {
		return nil, &domain.ValidationError{Field: "visitor_id", Reason: "must not be empty"}
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	orders, err := s.store.ListOrdersByVisitor(ctx, visitorID, limit)
	if err != nil {
		return nil, domain.WrapStorage("list orders", err)
	}
	return orders, nil
}

// Timeline возвращает историю заказа в хронологическом порядке.
func (s *Service) Timeline(ctx context.Context, orderID domain.OrderID) ([]domain.TimelineEvent, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	events, err := s.store.ListTimeline(ctx, orderID)
	if err != nil {
		return nil, domain.WrapStorage("list timeline", err)
	}
	return events, nil
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
