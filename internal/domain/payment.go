package domain

import "context"

// PaymentStatus описывает состояние платежа в системе.
type PaymentStatus string

const (
	// PaymentStatusCaptured - деньги списаны в пользу магазина.
	PaymentStatusCaptured PaymentStatus = "captured"
	// PaymentStatusRefunded - деньги возвращены покупателю.
	PaymentStatusRefunded PaymentStatus = "refunded"
	// PaymentStatusDeclined - провайдер отклонил операцию.
	PaymentStatusDeclined PaymentStatus = "declined"
	// PaymentStatusFailed - техническая ошибка провайдера.
	PaymentStatusFailed PaymentStatus = "failed"
)

// PaymentGateway - внешний платёжный провайдер. Вызывается только после проверки остатков.
type PaymentGateway interface {
	// Charge списывает сумму заказа.
	Charge(ctx context.Context, orderID OrderID, amountMinor int64) (PaymentStatus, error)
	// Refund возвращает сумму заказа (компенсация при отмене). Идемпотентен по заказу:
	// повторный вызов после успешного возврата деньги не двигает и отвечает PaymentStatusRefunded.
	Refund(ctx context.Context, orderID OrderID, amountMinor int64) (PaymentStatus, error)
}
