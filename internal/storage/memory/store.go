package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// Store - in-memory реализация domain.Store для локальной разработки и тестов.
//
// Единица работы (WithinTx) держит блокировку всего хранилища на запись и копит изменения
// в оверлее; они применяются к состоянию только при успешном завершении fn.
// Поэтому конкурентные оформления заказа сериализуются, а частичных записей не бывает.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	products map[domain.ProductID]domain.Product
	carts    map[domain.VisitorID]domain.Cart
	orders   map[domain.OrderID]domain.Order
	outbox   map[string]*outboxRecord
	timeline map[domain.OrderID][]domain.TimelineEvent
	seq      int64
}

// Option настраивает Store.
type Option func(*Store)

// WithClock подменяет источник времени (используется в тестах).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore создаёт пустое хранилище.
func NewStore(opts ...Option) *Store {
	s := &Store{
		now:      func() time.Time { return time.Now().UTC() },
		products: make(map[domain.ProductID]domain.Product),
		carts:    make(map[domain.VisitorID]domain.Cart),
		orders:   make(map[domain.OrderID]domain.Order),
		outbox:   make(map[string]*outboxRecord),
		timeline: make(map[domain.OrderID][]domain.TimelineEvent),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithinTx выполняет fn атомарно. Вложенные транзакции не поддерживаются:
// внутри fn нужно работать только через переданный repo.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repo domain.Repository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newTx(s)
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tx.commit()
	return nil
}

// Ping всегда успешен; нужен для health-проверок наравне с postgres.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// cartChange фиксирует изменение корзины внутри транзакции (deleted - удаление).
type cartChange struct {
	cart    domain.Cart
	deleted bool
}

// tx - оверлей изменений поверх состояния Store. Вызывается под s.mu.Lock.
type tx struct {
	s        *Store
	products map[domain.ProductID]domain.Product
	carts    map[domain.VisitorID]cartChange
	orders   map[domain.OrderID]domain.Order
	outbox   []*outboxRecord
	timeline []domain.TimelineEvent
}

func newTx(s *Store) *tx {
	return &tx{
		s:        s,
		products: make(map[domain.ProductID]domain.Product),
		carts:    make(map[domain.VisitorID]cartChange),
		orders:   make(map[domain.OrderID]domain.Order),
	}
}

func (t *tx) commit() {
	s := t.s
	for id, p := range t.products {
		s.products[id] = p
	}
	for visitor, change := range t.carts {
		if change.deleted {
			delete(s.carts, visitor)
			continue
		}
		s.carts[visitor] = change.cart
	}
	for id, o := range t.orders {
		s.orders[id] = o
	}
	for _, rec := range t.outbox {
		s.seq++
		rec.seq = s.seq
		s.outbox[rec.msg.ID] = rec
	}
	for _, ev := range t.timeline {
		s.timeline[ev.OrderID] = append(s.timeline[ev.OrderID], ev)
	}
}

var (
	_ domain.Store            = (*Store)(nil)
	_ domain.Repository       = (*tx)(nil)
	_ domain.OutboxRepository = (*Store)(nil)
)
