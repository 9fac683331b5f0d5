package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DefaultTTL - время жизни ключа идемпотентности.
const DefaultTTL = 24 * time.Hour

var (
	// ErrInProgress - запрос с тем же ключом ещё обрабатывается.
	ErrInProgress = errors.New("request with the same idempotency key is already processing")
	// ErrPayloadMismatch - ключ уже использован с другим телом запроса.
	ErrPayloadMismatch = errors.New("idempotency key is already used with different request payload")
)

// Guard регистрирует ключи и сохраняет ответы для воспроизведения.
type Guard struct {
	repo   domain.IdempotencyRepository
	ttl    time.Duration
	now    func() time.Time
	logger *log.Entry
}

// GuardOption настраивает Guard.
type GuardOption func(*Guard)

// WithTTL задаёт время жизни ключа.
func WithTTL(ttl time.Duration) GuardOption {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithGuardLogger задаёт логгер.
func WithGuardLogger(logger *log.Entry) GuardOption {
	return func(g *Guard) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGuard создаёт Guard. nil-репозиторий отключает защиту.
func NewGuard(repo domain.IdempotencyRepository, opts ...GuardOption) *Guard {
	g := &Guard{
		repo:   repo,
		ttl:    DefaultTTL,
		now:    func() time.Time { return time.Now().UTC() },
		logger: log.WithField("component", "idempotency"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Enabled сообщает, подключено ли хранилище ключей.
func (g *Guard) Enabled() bool {
	return g != nil && g.repo != nil
}

// Hash строит отпечаток запроса: метод и каноническое тело.
func Hash(method string, body []byte) string {
	payload := make([]byte, 0, len(method)+1+len(body))
	payload = append(payload, method...)
	payload = append(payload, ':')
	payload = append(payload, body...)
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Begin занимает ключ. Если ключ уже завершён, возвращает сохранённую запись (replay != nil);
// вызывающий должен вернуть её клиенту вместо повторного выполнения.
func (g *Guard) Begin(ctx context.Context, key, requestHash string) (replay *domain.IdempotencyRecord, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.ErrIdempotencyKeyRequired
	}

	record, err := g.repo.CreateProcessing(ctx, key, requestHash, g.now().Add(g.ttl))
	switch {
	case err == nil:
		return nil, nil
	case errors.Is(err, domain.ErrIdempotencyHashMismatch):
		return nil, ErrPayloadMismatch
	case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
		switch record.Status {
		case domain.IdempotencyStatusDone, domain.IdempotencyStatusFailed:
			return &record, nil
		case domain.IdempotencyStatusProcessing:
			return nil, ErrInProgress
		default:
			return nil, fmt.Errorf("idempotency key %q has unknown status %q", key, record.Status)
		}
	default:
		return nil, domain.WrapStorage("create idempotency key", err)
	}
}

// Complete сохраняет успешный ответ.
func (g *Guard) Complete(ctx context.Context, key string, body []byte, code int) {
	if err := g.repo.MarkDone(ctx, strings.TrimSpace(key), body, code); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotent success response")
	}
}

// Fail сохраняет ответ с ошибкой.
func (g *Guard) Fail(ctx context.Context, key string, body []byte, code int) {
	if err := g.repo.MarkFailed(ctx, strings.TrimSpace(key), body, code); err != nil {
		g.logger.WithError(err).WithField("idempotency_key", key).Warn("failed to store idempotency failure response")
	}
}
