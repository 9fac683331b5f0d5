package domain

import (
	"strconv"
	"strings"
	"time"
)

// Category - закрытый набор категорий каталога.
type Category string

const (
	CategoryElectronics Category = "Electronics"
	CategoryBooks       Category = "Books"
	CategoryClothing    Category = "Clothing"
	CategoryHome        Category = "Home"
	CategoryToys        Category = "Toys"
)

// Categories перечисляет допустимые категории в порядке отображения.
var Categories = []Category{CategoryElectronics, CategoryBooks, CategoryClothing, CategoryHome, CategoryToys}

// Valid проверяет, что категория входит в закрытый набор.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory принимает категорию только при точном совпадении (с учётом регистра).
// Значения вроде "electronics" отклоняются, а не приводятся к известным.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.TrimSpace(raw))
	if !c.Valid() {
		return "", &ValidationError{Field: "category", Reason: "unknown category " + strconv.Quote(string(c))}
	}
	return c, nil
}

// Product - товар каталога. Единственный источник правды о текущей цене и остатке.
type Product struct {
	ID          ProductID
	Name        string
	Description string
	// PriceMinor - цена в минимальных денежных единицах (центах).
	PriceMinor int64
	Stock      int32
	ImageURL   string
	Category   Category
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ProductInput - сырые данные для создания товара.
type ProductInput struct {
	Name        string
	Description string
	PriceMinor  int64
	Stock       int32
	ImageURL    string
	Category    string
}

// NewProduct собирает товар из входных данных; при ошибке возвращается нулевое значение.
func NewProduct(id ProductID, in ProductInput, now time.Time) (Product, error) {
	if strings.TrimSpace(string(id)) == "" {
		return Product{}, &ValidationError{Field: "id", Reason: "must not be empty"}
	}
	category, err := ParseCategory(in.Category)
	if err != nil {
		return Product{}, err
	}
	p := Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		PriceMinor:  in.PriceMinor,
		Stock:       in.Stock,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Validate проверяет инварианты товара и возвращает первую найденную ошибку.
func (p Product) Validate() error {
	switch {
	case p.ID == "":
		return &ValidationError{Field: "id", Reason: "must not be empty"}
	case p.Name == "":
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	case p.PriceMinor < 0:
		return &ValidationError{Field: "price", Reason: "must be non-negative"}
	case p.Stock < 0:
		return &ValidationError{Field: "stock", Reason: "must be non-negative"}
	case !p.Category.Valid():
		return &ValidationError{Field: "category", Reason: "unknown category " + strconv.Quote(string(p.Category))}
	}
	return nil
}

// CheckAvailable проверяет, что на складе есть qty единиц товара.
func (p Product) CheckAvailable(qty int64) error {
	if qty > int64(p.Stock) {
		return &InsufficientStockError{ProductID: p.ID, Requested: qty, Available: int64(p.Stock)}
	}
	return nil
}
