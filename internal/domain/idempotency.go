package domain

import "time"

// IdempotencyStatus описывает жизненный цикл ключа идемпотентности.
type IdempotencyStatus string

const (
	// IdempotencyStatusProcessing означает, что запрос принят и ещё обрабатывается.
	IdempotencyStatusProcessing IdempotencyStatus = "processing"
	// IdempotencyStatusDone означает, что запрос завершён успешно и ответ сохранён.
	IdempotencyStatusDone IdempotencyStatus = "done"
	// IdempotencyStatusFailed означает, что обработка завершилась ошибкой.
	IdempotencyStatusFailed IdempotencyStatus = "failed"
)

// IdempotencyRecord хранит результат запроса Checkout/CancelOrder, выполненного с idempotency-key.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	// ResponseBody - сериализованный ответ (успех) или сообщение ошибки.
	ResponseBody []byte
	// StatusCode - код ответа транспорта: gRPC codes.Code или HTTP-статус.
	StatusCode int
	Status     IdempotencyStatus
	TTLAt      time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s IdempotencyStatus) Valid() bool {
	switch s {
	case IdempotencyStatusProcessing, IdempotencyStatusDone, IdempotencyStatusFailed:
		return true
	default:
		return false
	}
}

// Expired сообщает, что запись пережила свой TTL.
func (r IdempotencyRecord) Expired(now time.Time) bool {
	return !r.TTLAt.IsZero() && !now.Before(r.TTLAt)
}
