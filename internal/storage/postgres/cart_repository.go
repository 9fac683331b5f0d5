package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func (r *repo) FindCart(ctx context.Context, visitorID domain.VisitorID) (domain.Cart, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var c domain.Cart
	err := r.q.QueryRowContext(ctx, `
		SELECT id, visitor_id, version, created_at, updated_at
		FROM carts
		WHERE visitor_id = $1`+r.lockClause(), visitorID).Scan(&c.ID, &c.VisitorID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, &domain.CartNotFoundError{VisitorID: visitorID}
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()

	rows, err := r.q.QueryContext(ctx, `
		SELECT product_id, name, price_minor, qty
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY position`, c.ID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.PriceMinor, &item.Qty); err != nil {
			return domain.Cart{}, fmt.Errorf("scan cart item: %w", err)
		}
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Cart{}, fmt.Errorf("iterate cart items: %w", err)
	}

	c.Recalculate()
	return c, nil
}

func (r *repo) SaveCart(ctx context.Context, c domain.Cart) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	c.Recalculate()
	return r.atomic(ctx, func(q dbtx) error {
		if c.Version == 0 {
			_, err := q.ExecContext(ctx, `
				INSERT INTO carts (id, visitor_id, total_minor, version, created_at, updated_at)
				VALUES ($1,$2,$3,1,$4,$5)
			`, c.ID, c.VisitorID, c.TotalMinor, c.CreatedAt, c.UpdatedAt)
			if err != nil {
				if isUniqueViolation(err) {
					return domain.ErrVersionConflict
				}
				return fmt.Errorf("insert cart: %w", err)
			}
		} else {
			res, err := q.ExecContext(ctx, `
				UPDATE carts
				SET total_minor = $1,
				    version = version + 1,
				    updated_at = $2
				WHERE visitor_id = $3
				  AND version = $4
			`, c.TotalMinor, c.UpdatedAt, c.VisitorID, c.Version)
			if err != nil {
				return fmt.Errorf("update cart: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected == 0 {
				return domain.ErrVersionConflict
			}
			if _, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = (SELECT id FROM carts WHERE visitor_id = $1)`, c.VisitorID); err != nil {
				return fmt.Errorf("reset cart items: %w", err)
			}
		}

		for i, item := range c.Items {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO cart_items (cart_id, position, product_id, name, price_minor, qty)
				SELECT id, $2, $3, $4, $5, $6 FROM carts WHERE visitor_id = $1
			`, c.VisitorID, i, item.ProductID, item.Name, item.PriceMinor, item.Qty); err != nil {
				return fmt.Errorf("insert cart item: %w", err)
			}
		}
		return nil
	})
}

func (r *repo) DeleteCart(ctx context.Context, visitorID domain.VisitorID) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.q.ExecContext(ctx, `DELETE FROM carts WHERE visitor_id = $1`, visitorID)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return &domain.CartNotFoundError{VisitorID: visitorID}
	}
	return nil
}
