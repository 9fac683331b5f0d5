package domain

import "time"

// Типы событий истории заказа.
const (
	TimelineOrderPlaced    = "order_placed"
	TimelineStatusChanged  = "status_changed"
	TimelineStockRestored  = "stock_restored"
	TimelinePaymentCharged = "payment_charged"
	TimelinePaymentRefund  = "payment_refunded"
)

// TimelineEvent описывает событие в жизненном цикле заказа.
type TimelineEvent struct {
	OrderID  OrderID
	Type     string
	Status   OrderStatus
	Reason   string
	Occurred time.Time
}
