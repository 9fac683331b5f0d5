// Package lock сериализует операции над корзиной одного покупателя.
package lock

import (
	"context"
	"errors"
)

// ErrNotAcquired возвращается, если блокировку не удалось получить до истечения контекста.
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock освобождает блокировку; повторный вызов безопасен.
type Unlock func()

// Locker выдаёт взаимоисключающие блокировки по ключу.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// VisitorKey формирует ключ блокировки корзины покупателя.
func VisitorKey(visitorID string) string {
	return "cart:" + visitorID
}
