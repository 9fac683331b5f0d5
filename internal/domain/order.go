package domain

import (
	"errors"
	"sort"
	"strconv"
	"time"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending - заказ создан при оформлении корзины, остаток уже списан.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusConfirmed - заказ подтверждён магазином.
	OrderStatusConfirmed OrderStatus = "confirmed"
	// OrderStatusShipped - заказ передан в доставку, отмена невозможна.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusDelivered - заказ доставлен (терминальный статус).
	OrderStatusDelivered OrderStatus = "delivered"
	// OrderStatusCancelled - заказ отменён, остаток возвращён (терминальный статус).
	OrderStatusCancelled OrderStatus = "cancelled"
)

var (
	// ErrOrderVisitorRequired - заказ без покупателя.
	ErrOrderVisitorRequired = errors.New("order visitor_id is required")
	// ErrItemsRequired - заказ должен содержать хотя бы одну позицию.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// ErrAmountNotPositive - итог заказа должен быть больше нуля.
	ErrAmountNotPositive = errors.New("order total must be positive")
	// ErrAmountMismatch - итог заказа не совпадает с суммой позиций.
	ErrAmountMismatch = errors.New("order amount does not match items sum")
	// ErrStatusUnknown - статус вне машины состояний.
	ErrStatusUnknown = errors.New("order status is unknown")
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo проверяет переход по машине состояний.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem - неизменяемый снимок строки корзины на момент оформления.
type OrderItem struct {
	// ID позиции нужен для однозначной идентификации и аудита.
	ID         string
	ProductID  ProductID
	Name       string
	PriceMinor int64
	Qty        int32
}

// Order агрегирует состояние заказа и его позиции.
type Order struct {
	ID         OrderID
	VisitorID  VisitorID
	Status     OrderStatus
	Items      []OrderItem
	TotalMinor int64
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewOrderFromCart создаёт заказ в статусе pending со снимком позиций корзины.
// Позиции упорядочены по идентификатору товара.
func NewOrderFromCart(id OrderID, cart Cart, now time.Time) (Order, error) {
	if id == "" {
		return Order{}, &ValidationError{Field: "order_id", Reason: "must not be empty"}
	}
	if len(cart.Items) == 0 {
		return Order{}, &CartEmptyError{VisitorID: cart.VisitorID}
	}

	lines := SortedLines(cart.Items)
	items := make([]OrderItem, 0, len(lines))
	var total int64
	for i, line := range lines {
		items = append(items, OrderItem{
			ID:         orderItemID(id, i),
			ProductID:  line.ProductID,
			Name:       line.Name,
			PriceMinor: line.PriceMinor,
			Qty:        line.Qty,
		})
		total += line.LineTotal()
	}

	o := Order{
		ID:         id,
		VisitorID:  cart.VisitorID,
		Status:     OrderStatusPending,
		Items:      items,
		TotalMinor: total,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if errs := o.ValidateInvariants(); len(errs) > 0 {
		return Order{}, &ValidationError{Field: "order", Reason: errors.Join(errs...).Error()}
	}
	return o, nil
}

// Transition переводит заказ в следующий статус, если это разрешено.
func (o *Order) Transition(next OrderStatus, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return &InvalidTransitionError{OrderID: o.ID, From: o.Status, To: next}
	}
	o.Status = next
	o.UpdatedAt = now
	return nil
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.VisitorID == "" {
		errs = append(errs, ErrOrderVisitorRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusUnknown)
	}
	if len(o.Items) == 0 {
		errs = append(errs, ErrItemsRequired)
	}
	if o.TotalMinor <= 0 {
		errs = append(errs, ErrAmountNotPositive)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	var calc int64
	for _, item := range o.Items {
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += int64(item.Qty) * item.PriceMinor
	}
	if calc != o.TotalMinor {
		errs = append(errs, ErrAmountMismatch)
	}

	return errs
}

// Clone возвращает глубокую копию заказа.
func (o Order) Clone() Order {
	if o.Items != nil {
		o.Items = append([]OrderItem(nil), o.Items...)
	}
	return o
}

// SortedLines возвращает копию строк, упорядоченную по идентификатору товара.
// Такой порядок захвата блокировок исключает взаимные блокировки при оформлении.
func SortedLines(items []CartItem) []CartItem {
	lines := append([]CartItem(nil), items...)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

func orderItemID(id OrderID, idx int) string {
	return string(id) + "-" + strconv.Itoa(idx+1)
}
