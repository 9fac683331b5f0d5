package postgres

import (
	"context"
	"fmt"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

const productColumns = `id, name, description, price_minor, stock, image_url, category, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p        domain.Product
		category string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.PriceMinor, &p.Stock, &p.ImageURL, &category, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return domain.Product{}, err
	}
	p.Category = domain.Category(category)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (r *repo) FindProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	p, err := scanProduct(r.q.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`+r.lockClause(), id))
	if err != nil {
		return domain.Product{}, scanErr(err, &domain.ProductNotFoundError{ProductID: id})
	}
	return p, nil
}

func (r *repo) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.q.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (r *repo) SaveProduct(ctx context.Context, p domain.Product) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    price_minor = EXCLUDED.price_minor,
		    stock = EXCLUDED.stock,
		    image_url = EXCLUDED.image_url,
		    category = EXCLUDED.category,
		    updated_at = EXCLUDED.updated_at
	`,
		p.ID, p.Name, p.Description, p.PriceMinor, p.Stock, p.ImageURL, string(p.Category), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return &domain.ValidationError{Field: "product", Reason: "stock and price must be non-negative"}
		}
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}
