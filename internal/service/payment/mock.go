// Package payment содержит заглушку платёжного провайдера.
package payment

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// ErrDeclined возвращается, когда заглушка отклоняет платёж.
var ErrDeclined = errors.New("payment declined by provider")

// MockGateway - конфигурируемая заглушка PaymentGateway.
// Безопасна для конкурентного использования.
type MockGateway struct {
	mu sync.Mutex

	chargeStatus domain.PaymentStatus
	chargeErr    error
	refundStatus domain.PaymentStatus
	refundErr    error
	failureRate  float64
	rnd          *rand.Rand

	charges map[domain.OrderID]int64
	refunds map[domain.OrderID]int64

	chargeCalls int
	refundCalls int
}

// MockOption настраивает MockGateway.
type MockOption func(*MockGateway)

// WithFailureRate задаёт долю случайно отклоняемых списаний в диапазоне [0, 1].
func WithFailureRate(rate float64, seed int64) MockOption {
	return func(m *MockGateway) {
		m.failureRate = rate
		m.rnd = rand.New(rand.NewSource(seed))
	}
}

// NewMockGateway возвращает заглушку с успешным сценарием по умолчанию.
func NewMockGateway(opts ...MockOption) *MockGateway {
	m := &MockGateway{
		chargeStatus: domain.PaymentStatusCaptured,
		refundStatus: domain.PaymentStatusRefunded,
		charges:      make(map[domain.OrderID]int64),
		refunds:      make(map[domain.OrderID]int64),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FailCharges заставляет все последующие списания завершаться ошибкой.
func (m *MockGateway) FailCharges(status domain.PaymentStatus, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chargeStatus, m.chargeErr = status, err
}

// FailRefunds заставляет все последующие возвраты завершаться ошибкой.
func (m *MockGateway) FailRefunds(status domain.PaymentStatus, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundStatus, m.refundErr = status, err
}

// Reset возвращает успешный сценарий.
func (m *MockGateway) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chargeStatus, m.chargeErr = domain.PaymentStatusCaptured, nil
	m.refundStatus, m.refundErr = domain.PaymentStatusRefunded, nil
}

// Charge возвращает настроенный результат и запоминает успешные списания.
func (m *MockGateway) Charge(ctx context.Context, orderID domain.OrderID, amountMinor int64) (domain.PaymentStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentStatusFailed, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.chargeCalls++

	if m.chargeErr != nil {
		return m.chargeStatus, m.chargeErr
	}
	if m.rnd != nil && m.rnd.Float64() < m.failureRate {
		return domain.PaymentStatusDeclined, ErrDeclined
	}
	if m.chargeStatus != domain.PaymentStatusCaptured {
		return m.chargeStatus, nil
	}
	m.charges[orderID] += amountMinor
	return m.chargeStatus, nil
}

// Refund возвращает настроенный результат и запоминает успешные возвраты в пределах списанного.
func (m *MockGateway) Refund(ctx context.Context, orderID domain.OrderID, amountMinor int64) (domain.PaymentStatus, error) {
	if err := ctx.Err(); err != nil {
		return domain.PaymentStatusFailed, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundCalls++

	if m.refundErr != nil {
		return m.refundStatus, m.refundErr
	}
	if m.refundStatus != domain.PaymentStatusRefunded {
		return m.refundStatus, nil
	}
	// Возвращается не больше, чем списано: повтор того же возврата ничего не меняет.
	refundable := m.charges[orderID] - m.refunds[orderID]
	m.refunds[orderID] += min(amountMinor, max(refundable, 0))
	return m.refundStatus, nil
}

// Charged возвращает сумму успешных списаний по заказу.
func (m *MockGateway) Charged(orderID domain.OrderID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.charges[orderID]
}

// Refunded возвращает сумму успешных возвратов по заказу.
func (m *MockGateway) Refunded(orderID domain.OrderID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refunds[orderID]
}

// Calls возвращает число вызовов Charge и Refund.
func (m *MockGateway) Calls() (charges, refunds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chargeCalls, m.refundCalls
}

var _ domain.PaymentGateway = (*MockGateway)(nil)
