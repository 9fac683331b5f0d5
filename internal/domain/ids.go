package domain

import (
	"strings"

	"github.com/google/uuid"
)

// ProductID - идентификатор товара в каталоге.
type ProductID string

// CartID - идентификатор корзины.
type CartID string

// OrderID - идентификатор заказа.
type OrderID string

// VisitorID - непрозрачный идентификатор покупателя, выданный внешней системой.
type VisitorID string

// ParseProductID нормализует и проверяет идентификатор товара.
func ParseProductID(raw string) (ProductID, error) {
	v, err := parseID("product_id", raw)
	return ProductID(v), err
}

// ParseOrderID нормализует и проверяет идентификатор заказа.
func ParseOrderID(raw string) (OrderID, error) {
	v, err := parseID("order_id", raw)
	return OrderID(v), err
}

// ParseVisitorID нормализует и проверяет идентификатор покупателя.
func ParseVisitorID(raw string) (VisitorID, error) {
	v, err := parseID("visitor_id", raw)
	return VisitorID(v), err
}

func parseID(field, raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", &ValidationError{Field: field, Reason: "must not be empty"}
	}
	return v, nil
}

// NewProductID генерирует идентификатор товара с префиксом prod-.
func NewProductID() ProductID { return ProductID("prod-" + uuid.NewString()) }

// NewCartID генерирует идентификатор корзины.
func NewCartID() CartID { return CartID("cart-" + uuid.NewString()) }

// NewOrderID генерирует идентификатор заказа.
func NewOrderID() OrderID { return OrderID("ord-" + uuid.NewString()) }
