package catalog

import (
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// DemoProducts возвращает небольшой каталог для локального запуска с memory-хранилищем.
func DemoProducts(now time.Time) []domain.Product {
	mk := func(id domain.ProductID, name, description string, price int64, stock int32, category domain.Category) domain.Product {
		return domain.Product{
			ID:          id,
			Name:        name,
			Description: description,
			PriceMinor:  price,
			Stock:       stock,
			ImageURL:    "/images/" + string(id) + ".jpg",
			Category:    category,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	return []domain.Product{
		mk("prod_001", "Wireless Headphones", "Noise-cancelling over-ear headphones", 7999, 45, domain.CategoryElectronics),
		mk("prod_002", "The Go Programming Language", "Donovan & Kernighan", 3499, 120, domain.CategoryBooks),
		mk("prod_003", "Cotton Hoodie", "Heavyweight unisex hoodie", 4599, 30, domain.CategoryClothing),
		mk("prod_004", "Ceramic Mug Set", "Set of four stoneware mugs", 2499, 60, domain.CategoryHome),
		mk("prod_005", "Building Blocks", "500-piece creative set", 2999, 25, domain.CategoryToys),
		mk("prod_006", "Smart Watch", "Fitness tracking and notifications", 19999, 1, domain.CategoryElectronics),
	}
}
