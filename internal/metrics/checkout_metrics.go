package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты, которые не являются видами доменных ошибок.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// StoreMetrics содержит метрики корзины, оформления и каталога.
// Все методы безопасны для nil-получателя, чтобы сервисы можно было собирать без метрик.
type StoreMetrics struct {
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	checkoutInFlight prometheus.Gauge

	cartOperations *prometheus.CounterVec
	cartConflicts  prometheus.Counter

	orderTransitions *prometheus.CounterVec
	unitsSold        prometheus.Counter
	unitsRestored    prometheus.Counter
	unitsRestocked   prometheus.Counter
}

// NewStoreMetrics регистрирует метрики в DefaultRegisterer.
func NewStoreMetrics() *StoreMetrics {
	return NewStoreMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewStoreMetricsWithRegisterer регистрирует метрики в переданном реестре (изолированно в тестах).
func NewStoreMetricsWithRegisterer(registerer prometheus.Registerer) *StoreMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &StoreMetrics{
		checkouts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Total number of checkout attempts by result",
		}, []string{"result"}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_checkout_duration_seconds",
			Help:    "Duration of checkout operations in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}),
		checkoutInFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_checkouts_in_flight",
			Help: "Number of checkouts currently being processed",
		}),
		cartOperations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_operations_total",
			Help: "Total number of cart mutations by operation and result",
		}, []string{"operation", "result"}),
		cartConflicts: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_version_conflicts_total",
			Help: "Optimistic locking conflicts on cart saves",
		}),
		orderTransitions: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_order_transitions_total",
			Help: "Order status transitions by target status",
		}, []string{"status"}),
		unitsSold: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_stock_units_sold_total",
			Help: "Units decremented from stock by checkout",
		}),
		unitsRestored: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_stock_units_restored_total",
			Help: "Units returned to stock by order cancellation",
		}),
		unitsRestocked: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_stock_units_restocked_total",
			Help: "Units added to stock by restock operations",
		}),
	}
}

// CheckoutStarted отмечает начало оформления и возвращает функцию завершения.
func (m *StoreMetrics) CheckoutStarted() func(result string) {
	if m == nil {
		return func(string) {}
	}
	start := time.Now()
	m.checkoutInFlight.Inc()
	return func(result string) {
		m.checkoutInFlight.Dec()
		m.checkoutDuration.Observe(time.Since(start).Seconds())
		m.checkouts.WithLabelValues(result).Inc()
	}
}

// RecordCartOperation учитывает мутацию корзины.
func (m *StoreMetrics) RecordCartOperation(operation, result string) {
	if m == nil {
		return
	}
	m.cartOperations.WithLabelValues(operation, result).Inc()
}

// RecordCartConflict учитывает конфликт версий корзины.
func (m *StoreMetrics) RecordCartConflict() {
	if m == nil {
		return
	}
	m.cartConflicts.Inc()
}

// RecordTransition учитывает переход заказа в статус.
func (m *StoreMetrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.orderTransitions.WithLabelValues(status).Inc()
}

// RecordUnitsSold учитывает списание остатка.
func (m *StoreMetrics) RecordUnitsSold(units int) {
	if m == nil {
		return
	}
	m.unitsSold.Add(float64(units))
}

// RecordUnitsRestored учитывает возврат остатка при отмене.
func (m *StoreMetrics) RecordUnitsRestored(units int) {
	if m == nil {
		return
	}
	m.unitsRestored.Add(float64(units))
}

// RecordUnitsRestocked учитывает пополнение склада.
func (m *StoreMetrics) RecordUnitsRestocked(units int) {
	if m == nil {
		return
	}
	m.unitsRestocked.Add(float64(units))
}
