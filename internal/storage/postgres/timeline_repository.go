package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func (r *repo) AppendTimeline(ctx context.Context, event domain.TimelineEvent) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if event.Occurred.IsZero() {
		event.Occurred = time.Now().UTC()
	}

	if _, err := r.q.ExecContext(ctx, `
		INSERT INTO timeline_events (order_id, type, status, reason, occurred)
		VALUES ($1,$2,$3,$4,$5)
	`, event.OrderID, event.Type, string(event.Status), event.Reason, event.Occurred); err != nil {
		return fmt.Errorf("append timeline event: %w", err)
	}
	return nil
}

func (r *repo) ListTimeline(ctx context.Context, orderID domain.OrderID) ([]domain.TimelineEvent, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `
		SELECT order_id, type, status, reason, occurred
		FROM timeline_events
		WHERE order_id = $1
		ORDER BY occurred ASC, id ASC
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list timeline events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.TimelineEvent, 0)
	for rows.Next() {
		var (
			event  domain.TimelineEvent
			status string
		)
		if err := rows.Scan(&event.OrderID, &event.Type, &status, &event.Reason, &event.Occurred); err != nil {
			return nil, fmt.Errorf("scan timeline event: %w", err)
		}
		event.Status = domain.OrderStatus(status)
		event.Occurred = event.Occurred.UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate timeline events: %w", err)
	}
	return events, nil
}
