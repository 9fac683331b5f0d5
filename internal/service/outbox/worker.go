// Package outbox доставляет события из transactional outbox во внешний брокер.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/retry"
)

const (
	defaultPollInterval   = 1 * time.Second
	defaultBatchSize      = 100
	defaultMaxAttempts    = 3
	defaultRetryBaseDelay = 50 * time.Millisecond
	defaultRetryMaxDelay  = 2 * time.Second
)

var (
	outboxPublishAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_outbox_publish_attempts_total",
		Help: "Total number of outbox publish attempts grouped by result.",
	}, []string{"result"})
	outboxPendingRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_outbox_pending_records",
		Help: "Current number of pending records in transactional outbox.",
	})
	outboxOldestPendingAge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_outbox_oldest_pending_age_seconds",
		Help: "Age in seconds of the oldest pending outbox record.",
	})
)

// Option настраивает Worker.
type Option func(*Worker)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) Option {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDLQPublisher задаёт publisher для отправки в DLQ после исчерпания попыток.
func WithDLQPublisher(publisher domain.OutboxPublisher) Option {
	return func(w *Worker) { w.dlqPublisher = publisher }
}

// WithPollInterval задаёт частоту опроса outbox.
func WithPollInterval(interval time.Duration) Option {
	return func(w *Worker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// WithBatchSize задаёт размер батча из outbox.
func WithBatchSize(batchSize int) Option {
	return func(w *Worker) {
		if batchSize > 0 {
			w.batchSize = batchSize
		}
	}
}

// WithMaxAttempts задаёт число попыток публикации перед failed/DLQ.
func WithMaxAttempts(maxAttempts int) Option {
	return func(w *Worker) {
		if maxAttempts > 0 {
			w.retry.MaxAttempts = maxAttempts
		}
	}
}

// WithRetryBaseDelay задаёт начальную задержку экспоненциального backoff.
func WithRetryBaseDelay(delay time.Duration) Option {
	return func(w *Worker) {
		if delay < 0 {
			delay = 0
		}
		w.retry.InitialDelay = delay
	}
}

// WithClock подменяет источник времени (возраст backlog, отметка DLQ).
func WithClock(now func() time.Time) Option {
	return func(w *Worker) {
		if now != nil {
			w.now = now
		}
	}
}

// Worker публикует pending-сообщения из outbox в брокер.
type Worker struct {
	repo         domain.OutboxRepository
	publisher    domain.OutboxPublisher
	dlqPublisher domain.OutboxPublisher
	logger       *log.Entry
	pollInterval time.Duration
	batchSize    int
	retry        retry.Config
	now          func() time.Time
}

// Report - итог одного цикла публикации.
type Report struct {
	Sent       int
	Failed     int
	DeadLetter int
}

// NewWorker создаёт outbox worker.
func NewWorker(repo domain.OutboxRepository, publisher domain.OutboxPublisher, options ...Option) *Worker {
	w := &Worker{
		repo:         repo,
		publisher:    publisher,
		logger:       log.WithField("component", "outbox-worker"),
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
		retry: retry.Config{
			MaxAttempts:   defaultMaxAttempts,
			InitialDelay:  defaultRetryBaseDelay,
			MaxDelay:      defaultRetryMaxDelay,
			BackoffFactor: 2,
		},
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(w)
	}
	return w
}

// Run запускает периодический polling outbox до отмены ctx.
func (w *Worker) Run(ctx context.Context) {
	if w.repo == nil || w.publisher == nil {
		w.logger.Warn("outbox worker is disabled: repo or publisher is nil")
		return
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.ProcessOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.ProcessOnce(ctx)
		}
	}
}

// ProcessOnce выполняет один polling-цикл и возвращает его итог.
func (w *Worker) ProcessOnce(ctx context.Context) Report {
	var report Report
	if ctx.Err() != nil {
		return report
	}

	w.refreshBacklogMetrics(ctx)
	defer w.refreshBacklogMetrics(ctx)

	events, err := w.repo.PullPending(ctx, w.batchSize)
	if err != nil {
		w.logger.WithError(err).Warn("failed to pull pending outbox messages")
		return report
	}

	for _, event := range events {
		if ctx.Err() != nil {
			return report
		}
		logger := w.logger.WithFields(log.Fields{
			"outbox_id":  event.ID,
			"event_type": event.EventType,
		})

		if err := w.publishWithRetry(ctx, event); err != nil {
			if ctx.Err() != nil {
				return report
			}
			logger.WithError(err).Error("outbox publish failed after retries")
			outboxPublishAttempts.WithLabelValues("failed").Inc()
			report.Failed++

			if w.dlqPublisher != nil {
				if dlqErr := w.publishToDLQ(ctx, event, err); dlqErr != nil {
					logger.WithError(dlqErr).Warn("failed to publish to DLQ")
					outboxPublishAttempts.WithLabelValues("dlq_failed").Inc()
				} else {
					report.DeadLetter++
				}
			}
			if markErr := w.repo.MarkFailed(ctx, event.ID); markErr != nil {
				logger.WithError(markErr).Warn("failed to mark outbox as failed")
			}
			continue
		}

		report.Sent++
		if err := w.repo.MarkSent(ctx, event.ID); err != nil {
			logger.WithError(err).Warn("failed to mark outbox as sent")
		}
	}

	if report.Sent+report.Failed > 0 {
		w.logger.WithFields(log.Fields{
			"sent":   report.Sent,
			"failed": report.Failed,
			"dlq":    report.DeadLetter,
		}).Debug("outbox batch processed")
	}
	return report
}

func (w *Worker) publishWithRetry(ctx context.Context, event domain.OutboxMessage) error {
	always := func(error) bool { return true }
	err := retry.Do(ctx, w.retry, w.logger, "outbox publish", always, func(int) error {
		if err := w.publisher.Publish(ctx, event); err != nil {
			outboxPublishAttempts.WithLabelValues("retry_error").Inc()
			return err
		}
		outboxPublishAttempts.WithLabelValues("sent").Inc()
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish failed after %d attempts: %w", w.retry.MaxAttempts, err)
	}
	return nil
}

func (w *Worker) refreshBacklogMetrics(ctx context.Context) {
	stats, err := w.repo.Stats(ctx)
	if err != nil {
		w.logger.WithError(err).Warn("failed to collect outbox backlog stats")
		return
	}

	outboxPendingRecords.Set(float64(stats.PendingCount))
	if stats.PendingCount == 0 || stats.OldestPendingAt.IsZero() {
		outboxOldestPendingAge.Set(0)
		return
	}

	age := w.now().Sub(stats.OldestPendingAt).Seconds()
	if age < 0 {
		age = 0
	}
	outboxOldestPendingAge.Set(age)
}

func (w *Worker) publishToDLQ(ctx context.Context, event domain.OutboxMessage, publishErr error) error {
	letter := DeadLetter{
		OutboxID:      event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishError:  publishErr.Error(),
		FailedAt:      w.now(),
	}
	payload, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("marshal dlq payload: %w", err)
	}

	dlqEvent := domain.OutboxMessage{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       payload,
		CreatedAt:     event.CreatedAt,
	}
	if err := w.dlqPublisher.Publish(ctx, dlqEvent); err != nil {
		return fmt.Errorf("publish to dlq: %w", err)
	}
	return nil
}
