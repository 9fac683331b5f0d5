package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const orderColumns = `id, visitor_id, status, total_minor, version, created_at, updated_at`

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		o      domain.Order
		status string
	)
	if err := row.Scan(&o.ID, &o.VisitorID, &status, &o.TotalMinor, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return domain.Order{}, err
	}
	o.Status = domain.OrderStatus(status)
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()
	return o, nil
}

func (r *repo) FindOrder(ctx context.Context, id domain.OrderID) (domain.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	o, err := scanOrder(r.q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`+r.lockClause(), id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, &domain.OrderNotFoundError{OrderID: id}
		}
		return domain.Order{}, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadOrderItems(ctx, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = items
	return o, nil
}

func (r *repo) ListOrdersByVisitor(ctx context.Context, visitorID domain.VisitorID, limit int) ([]domain.Order, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE visitor_id = $1
		ORDER BY created_at DESC, id DESC
	`

	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.q.QueryContext(ctx, query+" LIMIT $2", visitorID, limit)
	} else {
		rows, err = r.q.QueryContext(ctx, query, visitorID)
	}
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	rows.Close()

	// Позиции догружаются после закрытия курсора: внутри транзакции соединение одно.
	for i := range orders {
		items, err := r.loadOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (r *repo) SaveOrder(ctx context.Context, o domain.Order) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	return r.atomic(ctx, func(q dbtx) error {
		if o.Version == 0 {
			return insertOrder(ctx, q, o)
		}

		res, err := q.ExecContext(ctx, `
			UPDATE orders
			SET status = $1,
			    total_minor = $2,
			    version = version + 1,
			    updated_at = $3
			WHERE id = $4
			  AND version = $5
		`, string(o.Status), o.TotalMinor, o.UpdatedAt, o.ID, o.Version)
		if err != nil {
			return fmt.Errorf("update order: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected > 0 {
			return nil
		}

		var id string
		err = q.QueryRowContext(ctx, `SELECT id FROM orders WHERE id = $1`, o.ID).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return &domain.OrderNotFoundError{OrderID: o.ID}
		case err != nil:
			return fmt.Errorf("check order exists: %w", err)
		}
		return domain.ErrVersionConflict
	})
}

func insertOrder(ctx context.Context, q dbtx, o domain.Order) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1,$2,$3,$4,1,$5,$6)
	`, o.ID, o.VisitorID, string(o.Status), o.TotalMinor, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range o.Items {
		if _, err := q.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, name, price_minor, qty)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, item.ID, o.ID, i, item.ProductID, item.Name, item.PriceMinor, item.Qty); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *repo) loadOrderItems(ctx context.Context, orderID domain.OrderID) ([]domain.OrderItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, product_id, name, price_minor, qty
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.Name, &item.PriceMinor, &item.Qty); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}
