package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisTTL   = 10 * time.Second
	defaultRedisRetry = 25 * time.Millisecond
	releaseTimeout    = 2 * time.Second
	minRenewInterval  = time.Millisecond
)

// releaseScript удаляет ключ только если он всё ещё принадлежит владельцу токена.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// extendScript продлевает TTL только для ключа с токеном владельца.
var extendScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('PEXPIRE', KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker - распределённая блокировка SET NX PX для нескольких экземпляров сервиса.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	retry  time.Duration
}

// RedisOption настраивает RedisLocker.
type RedisOption func(*RedisLocker)

// WithTTL задаёт время жизни блокировки (страховка от упавшего владельца).
// Пока блокировка удерживается, TTL продлевается каждые ttl/3.
func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithRetryInterval задаёт паузу между попытками захвата.
func WithRetryInterval(d time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if d > 0 {
			l.retry = d
		}
	}
}

// WithPrefix задаёт префикс ключей в Redis.
func WithPrefix(prefix string) RedisOption {
	return func(l *RedisLocker) { l.prefix = prefix }
}

// NewRedis создаёт Locker поверх go-redis клиента.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *RedisLocker {
	l := &RedisLocker{
		client: client,
		prefix: "storefront:lock:",
		ttl:    defaultRedisTTL,
		retry:  defaultRedisRetry,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock пытается захватить ключ, повторяя попытки до отмены контекста.
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock %s: %w", redisKey, err)
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, redisKey, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Ping проверяет доступность Redis (используется health-проверкой).
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

func (l *RedisLocker) unlocker(redisKey, token string) Unlock {
	stop := make(chan struct{})
	renewed := make(chan struct{})
	go l.keepAlive(redisKey, token, stop, renewed)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-renewed

			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			// Ошибку освобождения игнорируем: ключ всё равно истечёт по TTL.
			_ = releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err()
		})
	}
}

// keepAlive продлевает TTL до вызова Unlock. Если ключ истёк или перехвачен
// другим владельцем, продление прекращается. Ошибки Redis не останавливают
// цикл: следующая попытка успеет до истечения TTL.
func (l *RedisLocker) keepAlive(redisKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(max(l.ttl/3, minRenewInterval))
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			extended, err := extendScript.Run(ctx, l.client, []string{redisKey}, token, l.ttl.Milliseconds()).Int64()
			cancel()
			if err == nil && extended == 0 {
				return
			}
		}
	}
}

var _ Locker = (*RedisLocker)(nil)
