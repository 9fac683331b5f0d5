// Package catalog реализует операции над товарами: просмотр, создание и изменение остатков.
package catalog

import (
	"context"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/metrics"
)

// Service - ProductService. Остаток меняется только внутри единицы работы,
// поэтому пополнение склада сериализуется с оформлением заказов.
type Service struct {
	store   domain.Store
	logger  *log.Entry
	metrics *metrics.StoreMetrics
	now     func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

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

// NewService создаёт ProductService.
func NewService(store domain.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: log.WithField("component", "catalog"),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List возвращает весь каталог.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, domain.WrapStorage("list products", err)
	}
	return products, nil
}

// Get возвращает товар или *domain.ProductNotFoundError.
func (s *Service) Get(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	p, err := s.store.FindProduct(ctx, id)
	if err != nil {
		return domain.Product{}, domain.WrapStorage("find product", err)
	}
	return p, nil
}

// Create проверяет входные данные и сохраняет новый товар с идентификатором prod-<uuid>.
func (s *Service) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	p, err := domain.NewProduct(domain.NewProductID(), in, s.now())
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.store.SaveProduct(ctx, p); err != nil {
		return domain.Product{}, domain.WrapStorage("save product", err)
	}

	s.logger.WithFields(log.Fields{
		"product_id": p.ID,
		"category":   p.Category,
		"stock":      p.Stock,
	}).Info("product created")
	return p, nil
}

// UpdateStock устанавливает абсолютное значение остатка.
func (s *Service) UpdateStock(ctx context.Context, id domain.ProductID, stock int32) (domain.Product, error) {
	if stock < 0 {
		return domain.Product{}, &domain.InvalidQuantityError{Quantity: int64(stock)}
	}
	return s.changeStock(ctx, id, "stock_update", func(current int32) (int32, error) {
		return stock, nil
	})
}

// Restock увеличивает остаток на delta единиц.
func (s *Service) Restock(ctx context.Context, id domain.ProductID, delta int32) (domain.Product, error) {
	if delta <= 0 {
		return domain.Product{}, &domain.InvalidQuantityError{Quantity: int64(delta)}
	}
	p, err := s.changeStock(ctx, id, "restock", func(current int32) (int32, error) {
		next := int64(current) + int64(delta)
		if next > math.MaxInt32 {
			return 0, &domain.InvalidQuantityError{Quantity: next}
		}
		return int32(next), nil
	})
	if err == nil {
		s.metrics.RecordUnitsRestocked(int(delta))
	}
	return p, err
}

func (s *Service) changeStock(ctx context.Context, id domain.ProductID, reason string, next func(current int32) (int32, error)) (domain.Product, error) {
	var updated domain.Product
	err := s.store.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		p, err := repo.FindProduct(ctx, id)
		if err != nil {
			return err
		}

		stock, err := next(p.Stock)
		if err != nil {
			return err
		}
		delta := stock - p.Stock
		p.Stock = stock
		p.UpdatedAt = s.now()
		if err := repo.SaveProduct(ctx, p); err != nil {
			return err
		}

		msg, err := domain.NewOutboxMessage(domain.AggregateProduct, string(p.ID), domain.EventStockChanged, domain.StockEventPayload{
			ProductID:  p.ID,
			Stock:      p.Stock,
			Delta:      delta,
			Reason:     reason,
			OccurredAt: p.UpdatedAt,
		})
		if err != nil {
			return err
		}
		if _, err := repo.EnqueueOutbox(ctx, msg); err != nil {
			return err
		}

		updated = p
		return nil
	})
	if err != nil {
		return domain.Product{}, domain.WrapStorage(reason, err)
	}

	s.logger.WithFields(log.Fields{
		"product_id": updated.ID,
		"stock":      updated.Stock,
		"reason":     reason,
	}).Info("stock changed")
	return updated, nil
}

// Seed сохраняет товары как есть (демо-каталог и тесты).
func (s *Service) Seed(ctx context.Context, products ...domain.Product) error {
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return err
		}
		if err := s.store.SaveProduct(ctx, p); err != nil {
			return domain.WrapStorage("seed product", err)
		}
	}
	return nil
}
