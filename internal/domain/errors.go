package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound - товар отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock - запрошенное количество превышает остаток.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrCartNotFound - у покупателя нет корзины.
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartEmpty - оформление пустой корзины.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInvalidQuantity - неположительное или нецелое количество.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrValidation - сущность не прошла проверку при создании.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidTransition - переход статуса заказа запрещён машиной состояний.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrPaymentFailed - платёжный провайдер отклонил операцию.
	ErrPaymentFailed = errors.New("payment failed")
	// ErrStorage - инфраструктурная ошибка хранилища.
	ErrStorage = errors.New("storage failure")

	// ErrVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrVersionConflict = errors.New("version conflict")
	// ErrOutboxPublish - ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrIdempotencyKeyRequired - пустой ключ идемпотентности.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired - не передан хеш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyNotFound - ключ идемпотентности не найден.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists - ключ уже зарегистрирован другим запросом.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch - ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key reused with different request")
)

// ErrorKind - закрытый набор видов ошибок, которые возвращают доменные сервисы.
type ErrorKind string

const (
	KindUnknown           ErrorKind = ""
	KindProductNotFound   ErrorKind = "product_not_found"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindCartNotFound      ErrorKind = "cart_not_found"
	KindCartEmpty         ErrorKind = "cart_empty"
	KindOrderNotFound     ErrorKind = "order_not_found"
	KindInvalidQuantity   ErrorKind = "invalid_quantity"
	KindValidation        ErrorKind = "validation"
	KindInvalidTransition ErrorKind = "invalid_transition"
	KindPaymentFailed     ErrorKind = "payment_failed"
	KindStorage           ErrorKind = "storage"
)

type kinded interface {
	Kind() ErrorKind
}

// KindOf возвращает вид доменной ошибки или KindUnknown, если ошибка не из таксономии.
func KindOf(err error) ErrorKind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindUnknown
}

// WrapStorage пропускает доменные ошибки как есть, а всё остальное заворачивает в StorageError.
func WrapStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsIdempotencyConflict проверяет, что ключ идемпотентности уже занят.
func IsIdempotencyConflict(err error) bool {
	return errors.Is(err, ErrIdempotencyKeyAlreadyExists) || errors.Is(err, ErrIdempotencyHashMismatch)
}

// ProductNotFoundError - товар с указанным идентификатором не существует.
type ProductNotFoundError struct {
	ProductID ProductID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %q not found", e.ProductID)
}
func (e *ProductNotFoundError) Is(target error) bool { return target == ErrProductNotFound }
func (e *ProductNotFoundError) Kind() ErrorKind      { return KindProductNotFound }

// InsufficientStockError - запрошено больше, чем есть на складе.
type InsufficientStockError struct {
	ProductID ProductID
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d", e.ProductID, e.Requested, e.Available)
}
func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }
func (e *InsufficientStockError) Kind() ErrorKind      { return KindInsufficientStock }

// CartNotFoundError - у покупателя нет живой корзины.
type CartNotFoundError struct {
	VisitorID VisitorID
}

func (e *CartNotFoundError) Error() string {
	return fmt.Sprintf("cart for visitor %q not found", e.VisitorID)
}
func (e *CartNotFoundError) Is(target error) bool { return target == ErrCartNotFound }
func (e *CartNotFoundError) Kind() ErrorKind      { return KindCartNotFound }

// CartEmptyError - попытка оформить корзину без позиций.
type CartEmptyError struct {
	VisitorID VisitorID
}

func (e *CartEmptyError) Error() string {
	return fmt.Sprintf("cart for visitor %q is empty", e.VisitorID)
}
func (e *CartEmptyError) Is(target error) bool { return target == ErrCartEmpty }
func (e *CartEmptyError) Kind() ErrorKind      { return KindCartEmpty }

// OrderNotFoundError - заказ не найден.
type OrderNotFoundError struct {
	OrderID OrderID
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %q not found", e.OrderID)
}
func (e *OrderNotFoundError) Is(target error) bool { return target == ErrOrderNotFound }
func (e *OrderNotFoundError) Kind() ErrorKind      { return KindOrderNotFound }

// InvalidQuantityError - количество должно быть положительным целым.
type InvalidQuantityError struct {
	Quantity int64
	// Raw - исходный текст, если количество не удалось представить целым (1.5, 3e9).
	Raw string
}

func (e *InvalidQuantityError) Error() string {
	if e.Raw != "" {
		return fmt.Sprintf("invalid quantity %s", e.Raw)
	}
	return fmt.Sprintf("invalid quantity %d", e.Quantity)
}
func (e *InvalidQuantityError) Is(target error) bool { return target == ErrInvalidQuantity }
func (e *InvalidQuantityError) Kind() ErrorKind      { return KindInvalidQuantity }

// ValidationError указывает поле, не прошедшее проверку при создании сущности.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ValidationError) Kind() ErrorKind      { return KindValidation }

// InvalidTransitionError - запрещённый переход статуса заказа.
type InvalidTransitionError struct {
	OrderID OrderID
	From    OrderStatus
	To      OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order %q: cannot transition from %s to %s", e.OrderID, e.From, e.To)
}
func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
func (e *InvalidTransitionError) Kind() ErrorKind      { return KindInvalidTransition }

// PaymentFailedError - платёж или возврат не прошёл.
type PaymentFailedError struct {
	OrderID OrderID
	Status  PaymentStatus
	Err     error
}

func (e *PaymentFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment for order %q failed (%s): %v", e.OrderID, e.Status, e.Err)
	}
	return fmt.Sprintf("payment for order %q failed (%s)", e.OrderID, e.Status)
}
func (e *PaymentFailedError) Is(target error) bool { return target == ErrPaymentFailed }
func (e *PaymentFailedError) Unwrap() error        { return e.Err }
func (e *PaymentFailedError) Kind() ErrorKind      { return KindPaymentFailed }

// StorageError - сбой хранилища или инфраструктуры, запрос можно повторить.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Kind() ErrorKind      { return KindStorage }
