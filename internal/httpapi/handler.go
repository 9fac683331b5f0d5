package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
)

const maxBodyBytes = 1 << 20

// Catalog - операции каталога, доступные через REST.
type Catalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id domain.ProductID) (domain.Product, error)
	Create(ctx context.Context, in domain.ProductInput) (domain.Product, error)
	UpdateStock(ctx context.Context, id domain.ProductID, stock int32) (domain.Product, error)
	Restock(ctx context.Context, id domain.ProductID, delta int32) (domain.Product, error)
}

// Carts - операции корзины.
type Carts interface {
	AddItem(ctx context.Context, visitorID domain.VisitorID, productID domain.ProductID, qty int32) (domain.Cart, error)
	UpdateItem(ctx context.Context, visitorID domain.VisitorID, productID domain.ProductID, qty int32) (domain.Cart, error)
	RemoveItem(ctx context.Context, visitorID domain.VisitorID, productID domain.ProductID) (domain.Cart, error)
	Clear(ctx context.Context, visitorID domain.VisitorID) (domain.Cart, error)
	Summary(ctx context.Context, visitorID domain.VisitorID) (cart.View, error)
	Discard(ctx context.Context, visitorID domain.VisitorID) error
}

// Orders - оформление и жизненный цикл заказа.
type Orders interface {
	Checkout(ctx context.Context, visitorID domain.VisitorID) (domain.Order, error)
	Confirm(ctx context.Context, orderID domain.OrderID) (domain.Order, error)
	Ship(ctx context.Context, orderID domain.OrderID) (domain.Order, error)
	Deliver(ctx context.Context, orderID domain.OrderID) (domain.Order, error)
	Cancel(ctx context.Context, orderID domain.OrderID, reason string) (domain.Order, error)
	GetOrder(ctx context.Context, orderID domain.OrderID) (domain.Order, error)
	ListOrders(ctx context.Context, visitorID domain.VisitorID, limit int) ([]domain.Order, error)
	Timeline(ctx context.Context, orderID domain.OrderID) ([]domain.TimelineEvent, error)
}

// Handler обслуживает REST API витрины.
type Handler struct {
	catalog    Catalog
	carts      Carts
	orders     Orders
	guard      *idempotency.Guard
	calculator pricing.Calculator
	baseURL    string
	ready      func(ctx context.Context) error
	logger     *log.Entry
}

// Option настраивает Handler.
type Option func(*Handler)

// WithIdempotency включает обработку заголовка Idempotency-Key для оформления и отмены.
func WithIdempotency(g *idempotency.Guard) Option {
	return func(h *Handler) { h.guard = g }
}

// WithBaseURL задаёт префикс для заголовка Location.
func WithBaseURL(base string) Option {
	return func(h *Handler) { h.baseURL = strings.TrimRight(base, "/") }
}

// WithReadiness подключает проверку готовности для /health.
func WithReadiness(check func(ctx context.Context) error) Option {
	return func(h *Handler) { h.ready = check }
}

// WithLogger задаёт логгер.
func WithLogger(logger *log.Entry) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler создаёт Handler.
func NewHandler(catalog Catalog, carts Carts, orders Orders, opts ...Option) *Handler {
	h := &Handler{
		catalog:    catalog,
		carts:      carts,
		orders:     orders,
		calculator: pricing.NewCalculator(),
		logger:     log.WithField("component", "http"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health отвечает 200, если зависимости готовы.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListProducts - GET /api/products.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProduct(p))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct - GET /api/products/{productId}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProductID(chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p))
}

// CreateProduct - POST /api/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.catalog.Create(r.Context(), domain.ProductInput{
		Name:        req.Name,
		Description: req.Description,
		PriceMinor:  req.PriceMinor,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", h.baseURL+"/api/products/"+string(p.ID))
	writeJSON(w, http.StatusCreated, toProduct(p))
}

// UpdateStock - PUT /api/products/{productId}/stock.
func (h *Handler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProductID(chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req stockRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Stock == nil {
		writeBadRequest(w, "stock is required")
		return
	}
	p, err := h.catalog.UpdateStock(r.Context(), id, *req.Stock)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p))
}

// Restock - POST /api/products/{productId}/restock.
func (h *Handler) Restock(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseProductID(chi.URLParam(r, "productId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req restockRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.catalog.Restock(r.Context(), id, req.Delta)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p))
}

// GetCart - GET /api/carts/{visitorId}.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	visitor, err := domain.ParseVisitorID(chi.URLParam(r, "visitorId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view, err := h.carts.Summary(r.Context(), visitor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(view.Cart, view.Summary))
}

// DiscardCart - DELETE /api/carts/{visitorId}.
func (h *Handler) DiscardCart(w http.ResponseWriter, r *http.Request) {
	visitor, err := domain.ParseVisitorID(chi.URLParam(r, "visitorId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.carts.Discard(r.Context(), visitor); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddItem - POST /api/carts/{visitorId}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decode(w, r, &req) {
		return
	}
	h.cartCall(w, r, func(ctx context.Context, visitor domain.VisitorID) (domain.Cart, error) {
		productID, err := domain.ParseProductID(req.ProductID)
		if err != nil {
			return domain.Cart{}, err
		}
		qty, err := domain.ParseQuantity(req.Qty.String())
		if err != nil {
			return domain.Cart{}, err
		}
		return h.carts.AddItem(ctx, visitor, productID, qty)
	})
}

// UpdateItem - PUT /api/carts/{visitorId}/items/{productId}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if !decode(w, r, &req) {
		return
	}
	h.cartCall(w, r, func(ctx context.Context, visitor domain.VisitorID) (domain.Cart, error) {
		productID, err := domain.ParseProductID(chi.URLParam(r, "productId"))
		if err != nil {
			return domain.Cart{}, err
		}
		qty, err := domain.ParseQuantity(req.Qty.String())
		if err != nil {
			return domain.Cart{}, err
		}
		return h.carts.UpdateItem(ctx, visitor, productID, qty)
	})
}

// RemoveItem - DELETE /api/carts/{visitorId}/items/{productId}.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	h.cartCall(w, r, func(ctx context.Context, visitor domain.VisitorID) (domain.Cart, error) {
		productID, err := domain.ParseProductID(chi.URLParam(r, "productId"))
		if err != nil {
			return domain.Cart{}, err
		}
		return h.carts.RemoveItem(ctx, visitor, productID)
	})
}

// ClearCart - POST /api/carts/{visitorId}/clear.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.cartCall(w, r, func(ctx context.Context, visitor domain.VisitorID) (domain.Cart, error) {
		return h.carts.Clear(ctx, visitor)
	})
}

func (h *Handler) cartCall(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, visitor domain.VisitorID) (domain.Cart, error)) {
	visitor, err := domain.ParseVisitorID(chi.URLParam(r, "visitorId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := fn(r.Context(), visitor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCart(c, h.calculator.Summarize(c.TotalMinor)))
}

// Checkout - POST /api/carts/{visitorId}/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	visitor, err := domain.ParseVisitorID(chi.URLParam(r, "visitorId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.idempotent(w, r, "checkout:"+string(visitor), nil, func(ctx context.Context) (int, any, error) {
		order, err := h.orders.Checkout(ctx, visitor)
		if err != nil {
			return 0, nil, err
		}
		w.Header().Set("Location", h.orderURL(order.ID))
		return http.StatusCreated, toOrder(order), nil
	})
}

// ListOrders - GET /api/visitors/{visitorId}/orders?limit=N.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	visitor, err := domain.ParseVisitorID(chi.URLParam(r, "visitorId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
	}
	orders, err := h.orders.ListOrders(r.Context(), visitor, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrder(o))
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOrder - GET /api/orders/{orderId}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	h.orderCall(w, r, h.orders.GetOrder)
}

// ConfirmOrder - POST /api/orders/{orderId}/confirm.
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.orderCall(w, r, h.orders.Confirm)
}

// ShipOrder - POST /api/orders/{orderId}/ship.
func (h *Handler) ShipOrder(w http.ResponseWriter, r *http.Request) {
	h.orderCall(w, r, h.orders.Ship)
}

// DeliverOrder - POST /api/orders/{orderId}/deliver.
func (h *Handler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	h.orderCall(w, r, h.orders.Deliver)
}

// CancelOrder - POST /api/orders/{orderId}/cancel. Тело необязательно.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseOrderID(chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeBadRequest(w, "failed to read request body")
		return
	}
	var req cancelRequest
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeBadRequest(w, "invalid JSON body")
			return
		}
	}
	h.idempotent(w, r, "cancel:"+string(id), body, func(ctx context.Context) (int, any, error) {
		order, err := h.orders.Cancel(ctx, id, req.Reason)
		if err != nil {
			return 0, nil, err
		}
		return http.StatusOK, toOrder(order), nil
	})
}

// Timeline - GET /api/orders/{orderId}/timeline.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	id, err := domain.ParseOrderID(chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	events, err := h.orders.Timeline(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]timelineEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, timelineEventResponse{
			Type:     ev.Type,
			Status:   string(ev.Status),
			Reason:   ev.Reason,
			Occurred: ev.Occurred,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) orderCall(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id domain.OrderID) (domain.Order, error)) {
	id, err := domain.ParseOrderID(chi.URLParam(r, "orderId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := fn(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrder(order))
}

func (h *Handler) orderURL(id domain.OrderID) string {
	return h.baseURL + "/api/orders/" + string(id)
}

// decode читает JSON-тело запроса; при ошибке сам пишет 400.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: errorDetail{Kind: string(domain.KindValidation), Message: "request body too large"}})
			return false
		}
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
