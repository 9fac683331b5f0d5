// Package retry повторяет операции с экспоненциальной задержкой.
package retry

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Config конфигурация для retry логики.
type Config struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultConfig возвращает конфигурацию по умолчанию для конфликтов optimistic locking.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   5,
		InitialDelay:  5 * time.Millisecond,
		MaxDelay:      200 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// Do вызывает fn, пока она возвращает ошибку, для которой retryable == true,
// но не больше MaxAttempts раз. Возвращает последнюю ошибку.
func Do(ctx context.Context, cfg Config, logger *log.Entry, operation string, retryable func(error) bool, fn func(attempt int) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffFactor < 1 {
		cfg.BackoffFactor = 1
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			if attempt > 1 && logger != nil {
				logger.WithFields(log.Fields{
					"operation": operation,
					"attempt":   attempt,
				}).Debug("operation succeeded after retry")
			}
			return nil
		}
		if !retryable(lastErr) || attempt == cfg.MaxAttempts {
			break
		}

		if logger != nil {
			logger.WithError(lastErr).WithFields(log.Fields{
				"operation": operation,
				"attempt":   attempt,
				"delay":     delay,
			}).Debug("operation failed, retrying")
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		// Экспоненциальная задержка с ограничением
		delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return lastErr
}
