package httpapi

import (
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
)

type productResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PriceMinor  int64     `json:"price_minor"`
	Price       string    `json:"price"`
	Stock       int32     `json:"stock"`
	ImageURL    string    `json:"image_url,omitempty"`
	Category    string    `json:"category"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type createProductRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceMinor  int64  `json:"price_minor"`
	Stock       int32  `json:"stock"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
}

type stockRequest struct {
	Stock *int32 `json:"stock"`
}

type restockRequest struct {
	Delta int32 `json:"delta"`
}

// Qty читается как json.Number, чтобы 1.5 или 3e9 давали invalid_quantity, а не ошибку разбора.
type addItemRequest struct {
	ProductID string      `json:"product_id"`
	Qty       json.Number `json:"qty"`
}

type updateItemRequest struct {
	Qty json.Number `json:"qty"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type cartItemResponse struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Qty        int32  `json:"qty"`
	LineMinor  int64  `json:"line_total_minor"`
}

type summaryResponse struct {
	SubtotalMinor int64  `json:"subtotal_minor"`
	ShippingMinor int64  `json:"shipping_minor"`
	TaxMinor      int64  `json:"tax_minor"`
	TotalMinor    int64  `json:"total_minor"`
	Total         string `json:"total"`
	Currency      string `json:"currency"`
}

type cartResponse struct {
	ID        string             `json:"id"`
	VisitorID string             `json:"visitor_id"`
	Items     []cartItemResponse `json:"items"`
	Version   int64              `json:"version"`
	Summary   summaryResponse    `json:"summary"`
}

type orderItemResponse struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
	Qty        int32  `json:"qty"`
}

type orderResponse struct {
	ID         string              `json:"id"`
	VisitorID  string              `json:"visitor_id"`
	Status     string              `json:"status"`
	Items      []orderItemResponse `json:"items"`
	TotalMinor int64               `json:"total_minor"`
	Total      string              `json:"total"`
	Version    int64               `json:"version"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

type timelineEventResponse struct {
	Type     string    `json:"type"`
	Status   string    `json:"status"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred_at"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	ProductID string `json:"product_id,omitempty"`
	Requested int64  `json:"requested,omitempty"`
	Available *int64 `json:"available,omitempty"`
}

func toProduct(p domain.Product) productResponse {
	return productResponse{
		ID:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		PriceMinor:  p.PriceMinor,
		Price:       pricing.Format(p.PriceMinor, pricing.DefaultCurrency),
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		Category:    string(p.Category),
		UpdatedAt:   p.UpdatedAt,
	}
}

func toCart(c domain.Cart, s pricing.Summary) cartResponse {
	items := make([]cartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, cartItemResponse{
			ProductID:  string(it.ProductID),
			Name:       it.Name,
			PriceMinor: it.PriceMinor,
			Qty:        it.Qty,
			LineMinor:  it.LineTotal(),
		})
	}
	return cartResponse{
		ID:        string(c.ID),
		VisitorID: string(c.VisitorID),
		Items:     items,
		Version:   c.Version,
		Summary: summaryResponse{
			SubtotalMinor: s.SubtotalMinor,
			ShippingMinor: s.ShippingMinor,
			TaxMinor:      s.TaxMinor,
			TotalMinor:    s.TotalMinor,
			Total:         pricing.Format(s.TotalMinor, s.Currency),
			Currency:      s.Currency,
		},
	}
}

func toOrder(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:  string(it.ProductID),
			Name:       it.Name,
			PriceMinor: it.PriceMinor,
			Qty:        it.Qty,
		})
	}
	return orderResponse{
		ID:         string(o.ID),
		VisitorID:  string(o.VisitorID),
		Status:     string(o.Status),
		Items:      items,
		TotalMinor: o.TotalMinor,
		Total:      pricing.Format(o.TotalMinor, pricing.DefaultCurrency),
		Version:    o.Version,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
}
