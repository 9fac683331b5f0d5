package memory

import (
	"context"
	"sort"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// FindProduct возвращает товар или *domain.ProductNotFoundError.
func (s *Store) FindProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, &domain.ProductNotFoundError{ProductID: id}
	}
	return p, nil
}

// ListProducts возвращает каталог, упорядоченный по идентификатору.
func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedProducts(s.products, nil), nil
}

// SaveProduct создаёт или заменяет товар.
func (s *Store) SaveProduct(ctx context.Context, product domain.Product) error {
	return s.WithinTx(ctx, func(ctx context.Context, repo domain.Repository) error {
		return repo.SaveProduct(ctx, product)
	})
}

func (t *tx) FindProduct(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return domain.Product{}, err
	}
	if p, ok := t.products[id]; ok {
		return p, nil
	}
	p, ok := t.s.products[id]
	if !ok {
		return domain.Product{}, &domain.ProductNotFoundError{ProductID: id}
	}
	return p, nil
}

func (t *tx) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return sortedProducts(t.s.products, t.products), nil
}

func (t *tx) SaveProduct(ctx context.Context, product domain.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Отрицательный остаток - нарушение инварианта, аналог CHECK (stock >= 0) в postgres.
	if err := product.Validate(); err != nil {
		return err
	}
	t.products[product.ID] = product
	return nil
}

func sortedProducts(base, staged map[domain.ProductID]domain.Product) []domain.Product {
	merged := make(map[domain.ProductID]domain.Product, len(base)+len(staged))
	for id, p := range base {
		merged[id] = p
	}
	for id, p := range staged {
		merged[id] = p
	}

	result := make([]domain.Product, 0, len(merged))
	for _, p := range merged {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}
