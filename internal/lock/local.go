package lock

import (
	"context"
	"fmt"
	"sync"
)

type localEntry struct {
	ch   chan struct{}
	refs int
}

// LocalLocker - блокировки в пределах одного процесса. Записи удаляются,
// когда на ключ больше никто не претендует.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*localEntry
}

// NewLocal создаёт in-process Locker.
func NewLocal() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*localEntry)}
}

// Lock ждёт освобождения ключа или отмены контекста.
func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &localEntry{ch: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-entry.ch
				l.release(key, entry)
			})
		}, nil
	case <-ctx.Done():
		l.release(key, entry)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
	}
}

func (l *LocalLocker) release(key string, entry *localEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}

// size возвращает число активных ключей (для тестов).
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

var _ Locker = (*LocalLocker)(nil)
