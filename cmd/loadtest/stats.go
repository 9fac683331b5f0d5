package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	methodScenario = "scenario"
	resultOK       = "ok"
	resultError    = "error"
)

var (
	callsMetric     = prometheus.BuildFQName("loadtest", "", "calls_total")
	latencyMetric   = prometheus.BuildFQName("loadtest", "", "call_duration_seconds")
	scenariosMetric = prometheus.BuildFQName("loadtest", "", "scenarios_total")
)

// soldOutCodes - коды, которые для метода означают исход конкуренции, а не ошибку.
var soldOutCodes = map[string]codes.Code{
	"AddItem":  codes.FailedPrecondition,
	"Checkout": codes.FailedPrecondition,
}

type latencySummary struct {
	Avg float64 `json:"avg"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

type methodReport struct {
	Calls     int64            `json:"calls"`
	Success   int64            `json:"success"`
	Failed    int64            `json:"failed"`
	ErrorRate float64          `json:"error_rate"`
	Codes     map[string]int64 `json:"codes"`
	LatencyMs latencySummary   `json:"latency_ms"`
}

// inventoryReport сверяет остаток товара до и после прогона.
type inventoryReport struct {
	ProductID    string `json:"product_id"`
	InitialStock int32  `json:"initial_stock"`
	FinalStock   int32  `json:"final_stock"`
	Sold         int64  `json:"sold"`
	Rejected     int64  `json:"rejected"`
	Consistent   bool   `json:"consistent"`
}

type report struct {
	StartedAt         time.Time               `json:"started_at"`
	DurationSeconds   float64                 `json:"duration_seconds"`
	TotalScenarios    int64                   `json:"total_scenarios"`
	SuccessScenarios  int64                   `json:"success_scenarios"`
	FailedScenarios   int64                   `json:"failed_scenarios"`
	ErrorRate         float64                 `json:"error_rate"`
	RPS               float64                 `json:"rps"`
	ScenarioLatencyMs latencySummary          `json:"scenario_latency_ms"`
	Methods           map[string]methodReport `json:"methods"`
	Inventory         inventoryReport         `json:"inventory"`
}

// methodNames возвращает RPC-методы отчета без сводного сценария.
func (r report) methodNames() []string {
	names := make([]string, 0, len(r.Methods))
	for name := range r.Methods {
		if name != methodScenario {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// collector пишет результаты вызовов в собственный prometheus-реестр,
// отчет собирается из Gather.
type collector struct {
	registry  *prometheus.Registry
	calls     *prometheus.CounterVec
	latency   *prometheus.SummaryVec
	scenarios *prometheus.CounterVec
}

func newCollector() *collector {
	c := &collector{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: callsMetric,
			Help: "Calls made by the load test",
		}, []string{"method", "code", "result"}),
		latency: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       latencyMetric,
			Help:       "Call latency observed by the load test",
			Objectives: map[float64]float64{0.5: 0.05, 0.95: 0.01, 0.99: 0.001},
			MaxAge:     time.Hour,
		}, []string{"method"}),
		scenarios: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: scenariosMetric,
			Help: "Visitor scenarios by outcome",
		}, []string{"outcome"}),
	}
	c.registry.MustRegister(c.calls, c.latency, c.scenarios)
	return c
}

// call выполняет один RPC с таймаутом и ключом идемпотентности и учитывает его.
func (c *collector) call(ctx context.Context, method string, timeout time.Duration, key string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(withIdempotencyKey(ctx, key), timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	code := status.Code(err)

	expected, ok := soldOutCodes[method]
	c.record(method, time.Since(start), code, code == codes.OK || (ok && code == expected))
	return err
}

func (c *collector) recordScenario(latency time.Duration, o outcome, err error) {
	c.scenarios.WithLabelValues(o.String()).Inc()
	c.record(methodScenario, latency, status.Code(err), err == nil)
}

func (c *collector) record(method string, latency time.Duration, code codes.Code, success bool) {
	result := resultError
	if success {
		result = resultOK
	}
	c.calls.WithLabelValues(method, code.String(), result).Inc()
	c.latency.WithLabelValues(method).Observe(latency.Seconds())
}

func (c *collector) buildReport(startedAt time.Time, duration time.Duration) (report, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return report{}, fmt.Errorf("gather load metrics: %w", err)
	}

	result := report{
		StartedAt:       startedAt.UTC(),
		DurationSeconds: duration.Seconds(),
		Methods:         make(map[string]methodReport),
	}
	methods := make(map[string]*methodReport)
	method := func(name string) *methodReport {
		m, ok := methods[name]
		if !ok {
			m = &methodReport{Codes: make(map[string]int64)}
			methods[name] = m
		}
		return m
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			labels := labelValues(metric)
			switch family.GetName() {
			case callsMetric:
				m := method(labels["method"])
				n := int64(metric.GetCounter().GetValue())
				m.Calls += n
				m.Codes[labels["code"]] += n
				if labels["result"] == resultOK {
					m.Success += n
				} else {
					m.Failed += n
				}
			case latencyMetric:
				method(labels["method"]).LatencyMs = summaryMs(metric.GetSummary())
			case scenariosMetric:
				n := int64(metric.GetCounter().GetValue())
				switch labels["outcome"] {
				case outcomeSold.String():
					result.Inventory.Sold += n
				case outcomeRejected.String():
					result.Inventory.Rejected += n
				}
			}
		}
	}

	for name, m := range methods {
		m.ErrorRate = ratio(m.Failed, m.Calls)
		result.Methods[name] = *m
	}
	if scenario, ok := methods[methodScenario]; ok {
		result.TotalScenarios = scenario.Calls
		result.SuccessScenarios = scenario.Success
		result.FailedScenarios = scenario.Failed
		result.ErrorRate = scenario.ErrorRate
		result.ScenarioLatencyMs = scenario.LatencyMs
	}
	if duration > 0 {
		result.RPS = float64(result.TotalScenarios) / duration.Seconds()
	}
	return result, nil
}

func labelValues(metric *dto.Metric) map[string]string {
	labels := make(map[string]string, len(metric.GetLabel()))
	for _, pair := range metric.GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	return labels
}

func summaryMs(summary *dto.Summary) latencySummary {
	var out latencySummary
	if summary.GetSampleCount() == 0 {
		return out
	}
	out.Avg = summary.GetSampleSum() / float64(summary.GetSampleCount()) * 1000
	for _, q := range summary.GetQuantile() {
		switch q.GetQuantile() {
		case 0.5:
			out.P50 = q.GetValue() * 1000
		case 0.95:
			out.P95 = q.GetValue() * 1000
		case 0.99:
			out.P99 = q.GetValue() * 1000
		}
	}
	return out
}

func ratio(failed, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(failed) / float64(total)
}
