package domain

import (
	"context"
	"time"
)

// ProductRepository описывает хранилище каталога.
type ProductRepository interface {
	// FindProduct возвращает товар или *ProductNotFoundError.
	// Внутри WithinTx строка товара блокируется на запись до конца транзакции.
	FindProduct(ctx context.Context, id ProductID) (Product, error)
	// ListProducts возвращает каталог, упорядоченный по идентификатору.
	ListProducts(ctx context.Context) ([]Product, error)
	// SaveProduct создаёт или полностью заменяет товар.
	SaveProduct(ctx context.Context, product Product) error
}

// CartRepository описывает хранилище корзин (не более одной на покупателя).
type CartRepository interface {
	// FindCart возвращает корзину покупателя или *CartNotFoundError.
	FindCart(ctx context.Context, visitorID VisitorID) (Cart, error)
	// SaveCart сохраняет корзину с учётом optimistic locking: Version == 0 создаёт новую,
	// иначе версия должна совпасть с сохранённой. При расхождении возвращается ErrVersionConflict.
	SaveCart(ctx context.Context, cart Cart) error
	// DeleteCart удаляет корзину или возвращает *CartNotFoundError.
	DeleteCart(ctx context.Context, visitorID VisitorID) error
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// FindOrder возвращает заказ или *OrderNotFoundError.
	FindOrder(ctx context.Context, id OrderID) (Order, error)
	// SaveOrder создаёт заказ (Version == 0) или применяет обновление с учётом optimistic locking.
	SaveOrder(ctx context.Context, order Order) error
	// ListOrdersByVisitor возвращает заказы покупателя от новых к старым; limit <= 0 - без ограничения.
	ListOrdersByVisitor(ctx context.Context, visitorID VisitorID, limit int) ([]Order, error)
}

// EventRepository хранит transactional outbox и историю заказа.
type EventRepository interface {
	EnqueueOutbox(ctx context.Context, msg OutboxMessage) (OutboxMessage, error)
	AppendTimeline(ctx context.Context, event TimelineEvent) error
	ListTimeline(ctx context.Context, orderID OrderID) ([]TimelineEvent, error)
}

// Repository - полный контракт хранилища, которым пользуются доменные сервисы.
type Repository interface {
	ProductRepository
	CartRepository
	OrderRepository
	EventRepository
}

// TxManager выполняет fn как единицу работы: все записи через repo применяются вместе или не применяются вовсе.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// Store объединяет репозиторий и менеджер транзакций.
type Store interface {
	Repository
	TxManager
}

// OutboxRepository используется воркером публикации.
type OutboxRepository interface {
	PullPending(ctx context.Context, limit int) ([]OutboxMessage, error)
	Stats(ctx context.Context) (OutboxStats, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(ctx context.Context, msg OutboxMessage) error
}

// IdempotencyRepository хранит состояние обработки запросов по idempotency-key.
type IdempotencyRepository interface {
	CreateProcessing(ctx context.Context, key, requestHash string, ttlAt time.Time) (IdempotencyRecord, error)
	Get(ctx context.Context, key string) (IdempotencyRecord, error)
	MarkDone(ctx context.Context, key string, responseBody []byte, status int) error
	MarkFailed(ctx context.Context, key string, responseBody []byte, status int) error
	DeleteExpired(ctx context.Context, before time.Time, limit int) (int, error)
}
