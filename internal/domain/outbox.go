package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Типы событий, которые публикуются через outbox.
const (
	AggregateOrder   = "order"
	AggregateProduct = "product"

	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCancelled     = "order.cancelled"
	EventStockChanged       = "product.stock_changed"
)

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// OrderEventPayload - тело событий order.*.
type OrderEventPayload struct {
	OrderID    OrderID          `json:"order_id"`
	VisitorID  VisitorID        `json:"visitor_id"`
	Status     OrderStatus      `json:"status"`
	TotalMinor int64            `json:"total_minor"`
	Items      []OrderEventItem `json:"items,omitempty"`
	Reason     string           `json:"reason,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// OrderEventItem - позиция заказа в событии.
type OrderEventItem struct {
	ProductID  ProductID `json:"product_id"`
	Qty        int32     `json:"qty"`
	PriceMinor int64     `json:"price_minor"`
}

// StockEventPayload - тело события product.stock_changed.
type StockEventPayload struct {
	ProductID  ProductID `json:"product_id"`
	Stock      int32     `json:"stock"`
	Delta      int32     `json:"delta"`
	Reason     string    `json:"reason"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewOrderEventPayload собирает тело события по заказу.
func NewOrderEventPayload(o Order, reason string, at time.Time) OrderEventPayload {
	items := make([]OrderEventItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderEventItem{ProductID: item.ProductID, Qty: item.Qty, PriceMinor: item.PriceMinor})
	}
	return OrderEventPayload{
		OrderID:    o.ID,
		VisitorID:  o.VisitorID,
		Status:     o.Status,
		TotalMinor: o.TotalMinor,
		Items:      items,
		Reason:     reason,
		OccurredAt: at,
	}
}

// NewOutboxMessage сериализует payload в JSON и собирает сообщение outbox.
func NewOutboxMessage(aggregateType, aggregateID, eventType string, payload any) (OutboxMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return OutboxMessage{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return OutboxMessage{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       body,
	}, nil
}
