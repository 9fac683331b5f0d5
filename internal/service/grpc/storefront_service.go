// Package grpcsvc публикует сервисы витрины через gRPC (storefront.v1.StorefrontService).
package grpcsvc

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	storefrontv1 "github.com/vladislavdragonenkov/storefront/api/storefront/v1"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/pricing"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
)

// Catalog - операции каталога, доступные через gRPC.
type Catalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id domain.ProductID) (domain.Product, error)
}

// Carts - операции корзины.
type Carts interface {
	AddItem(ctx context.Context, visitorID domain.VisitorID, productID domain.ProductID, qty int32) (domain.Cart, error)
	UpdateItem(ctx context.Context, visitorID domain.VisitorID, productID domain.ProductID, qty int32) (domain.Cart, error)
	RemoveItem(ctx context.Context, visitorID domain.VisitorID, productID domain.ProductID) (domain.Cart, error)
	Clear(ctx context.Context, visitorID domain.VisitorID) (domain.Cart, error)
	Summary(ctx context.Context, visitorID domain.VisitorID) (cart.View, error)
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

// StorefrontService реализует gRPC API поверх доменных сервисов.
type StorefrontService struct {
	storefrontv1.UnimplementedStorefrontServiceServer

	catalog    Catalog
	carts      Carts
	orders     Orders
	guard      *idempotency.Guard
	calculator pricing.Calculator
	logger     *log.Entry
}

// NewStorefrontService конструирует сервис с зависимостями.
// guard == nil отключает проверку idempotency-key.
func NewStorefrontService(catalog Catalog, carts Carts, orders Orders, guard *idempotency.Guard, logger *log.Entry) *StorefrontService {
	if logger == nil {
		logger = log.New().WithField("component", "grpc-storefront")
	}
	return &StorefrontService{
		catalog:    catalog,
		carts:      carts,
		orders:     orders,
		guard:      guard,
		calculator: pricing.NewCalculator(),
		logger:     logger,
	}
}

// ListProducts возвращает каталог.
func (s *StorefrontService) ListProducts(ctx context.Context, _ *storefrontv1.ListProductsRequest) (*storefrontv1.ListProductsResponse, error) {
	products, err := s.catalog.List(ctx)
	if err != nil {
		return nil, s.statusError(err, "ListProducts")
	}
	result := make([]*storefrontv1.Product, 0, len(products))
	for _, p := range products {
		result = append(result, toProtoProduct(p))
	}
	return &storefrontv1.ListProductsResponse{Products: result}, nil
}

// GetProduct возвращает товар.
func (s *StorefrontService) GetProduct(ctx context.Context, req *storefrontv1.GetProductRequest) (*storefrontv1.GetProductResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := domain.ParseProductID(req.ProductId)
	if err != nil {
		return nil, s.statusError(err, "GetProduct")
	}
	product, err := s.catalog.Get(ctx, id)
	if err != nil {
		return nil, s.statusError(err, "GetProduct")
	}
	return &storefrontv1.GetProductResponse{Product: toProtoProduct(product)}, nil
}

// AddItem добавляет товар в корзину.
func (s *StorefrontService) AddItem(ctx context.Context, req *storefrontv1.AddItemRequest) (*storefrontv1.CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return s.cartCall(ctx, "AddItem", req.VisitorId, func(visitor domain.VisitorID) (domain.Cart, error) {
		productID, err := domain.ParseProductID(req.ProductId)
		if err != nil {
			return domain.Cart{}, err
		}
		qty, err := requestQty(req.QtyText(), req.Qty)
		if err != nil {
			return domain.Cart{}, err
		}
		return s.carts.AddItem(ctx, visitor, productID, qty)
	})
}

// UpdateItem меняет количество в строке корзины.
func (s *StorefrontService) UpdateItem(ctx context.Context, req *storefrontv1.UpdateItemRequest) (*storefrontv1.CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return s.cartCall(ctx, "UpdateItem", req.VisitorId, func(visitor domain.VisitorID) (domain.Cart, error) {
		productID, err := domain.ParseProductID(req.ProductId)
		if err != nil {
			return domain.Cart{}, err
		}
		qty, err := requestQty(req.QtyText(), req.Qty)
		if err != nil {
			return domain.Cart{}, err
		}
		return s.carts.UpdateItem(ctx, visitor, productID, qty)
	})
}

// requestQty берёт количество из сетевого текста, если он есть: 1.5 и 3e9
// отклоняются как InvalidQuantity, а не теряются при разборе.
func requestQty(text string, qty int32) (int32, error) {
	if text == "" {
		return qty, nil
	}
	return domain.ParseQuantity(text)
}

// RemoveItem удаляет строку корзины.
func (s *StorefrontService) RemoveItem(ctx context.Context, req *storefrontv1.RemoveItemRequest) (*storefrontv1.CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return s.cartCall(ctx, "RemoveItem", req.VisitorId, func(visitor domain.VisitorID) (domain.Cart, error) {
		productID, err := domain.ParseProductID(req.ProductId)
		if err != nil {
			return domain.Cart{}, err
		}
		return s.carts.RemoveItem(ctx, visitor, productID)
	})
}

// ClearCart очищает корзину.
func (s *StorefrontService) ClearCart(ctx context.Context, req *storefrontv1.CartRequest) (*storefrontv1.CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return s.cartCall(ctx, "ClearCart", req.VisitorId, func(visitor domain.VisitorID) (domain.Cart, error) {
		return s.carts.Clear(ctx, visitor)
	})
}

// GetCart возвращает корзину с разбивкой стоимости.
func (s *StorefrontService) GetCart(ctx context.Context, req *storefrontv1.CartRequest) (*storefrontv1.CartResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	visitor, err := domain.ParseVisitorID(req.VisitorId)
	if err != nil {
		return nil, s.statusError(err, "GetCart")
	}
	view, err := s.carts.Summary(ctx, visitor)
	if err != nil {
		return nil, s.statusError(err, "GetCart")
	}
	return &storefrontv1.CartResponse{Cart: toProtoCart(view.Cart, view.Summary)}, nil
}

func (s *StorefrontService) cartCall(ctx context.Context, op, rawVisitor string, fn func(visitor domain.VisitorID) (domain.Cart, error)) (*storefrontv1.CartResponse, error) {
	visitor, err := domain.ParseVisitorID(rawVisitor)
	if err != nil {
		return nil, s.statusError(err, op)
	}
	c, err := fn(visitor)
	if err != nil {
		return nil, s.statusError(err, op)
	}
	return &storefrontv1.CartResponse{Cart: toProtoCart(c, s.calculator.Summarize(c.TotalMinor))}, nil
}

// Checkout оформляет заказ. Требует idempotency-key, если включён Guard.
func (s *StorefrontService) Checkout(ctx context.Context, req *storefrontv1.CheckoutRequest) (*storefrontv1.OrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return withIdempotency(s, ctx, storefrontv1.StorefrontService_Checkout_FullMethodName, req,
		func() *storefrontv1.OrderResponse { return &storefrontv1.OrderResponse{} },
		func(ctx context.Context) (*storefrontv1.OrderResponse, error) {
			visitor, err := domain.ParseVisitorID(req.VisitorId)
			if err != nil {
				return nil, s.statusError(err, "Checkout")
			}
			order, err := s.orders.Checkout(ctx, visitor)
			if err != nil {
				return nil, s.statusError(err, "Checkout")
			}
			return &storefrontv1.OrderResponse{Order: toProtoOrder(order)}, nil
		},
	)
}

// CancelOrder отменяет заказ с возвратом остатков и платежа.
func (s *StorefrontService) CancelOrder(ctx context.Context, req *storefrontv1.CancelOrderRequest) (*storefrontv1.OrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return withIdempotency(s, ctx, storefrontv1.StorefrontService_CancelOrder_FullMethodName, req,
		func() *storefrontv1.OrderResponse { return &storefrontv1.OrderResponse{} },
		func(ctx context.Context) (*storefrontv1.OrderResponse, error) {
			return s.orderCall(ctx, "CancelOrder", req.OrderId, func(id domain.OrderID) (domain.Order, error) {
				return s.orders.Cancel(ctx, id, req.Reason)
			})
		},
	)
}

// ConfirmOrder подтверждает заказ.
func (s *StorefrontService) ConfirmOrder(ctx context.Context, req *storefrontv1.OrderActionRequest) (*storefrontv1.OrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return s.orderCall(ctx, "ConfirmOrder", req.OrderId, func(id domain.OrderID) (domain.Order, error) {
		return s.orders.Confirm(ctx, id)
	})
}

// ShipOrder отмечает отгрузку.
func (s *StorefrontService) ShipOrder(ctx context.Context, req *storefrontv1.OrderActionRequest) (*storefrontv1.OrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return s.orderCall(ctx, "ShipOrder", req.OrderId, func(id domain.OrderID) (domain.Order, error) {
		return s.orders.Ship(ctx, id)
	})
}

// DeliverOrder отмечает доставку.
func (s *StorefrontService) DeliverOrder(ctx context.Context, req *storefrontv1.OrderActionRequest) (*storefrontv1.OrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	return s.orderCall(ctx, "DeliverOrder", req.OrderId, func(id domain.OrderID) (domain.Order, error) {
		return s.orders.Deliver(ctx, id)
	})
}

func (s *StorefrontService) orderCall(ctx context.Context, op, rawID string, fn func(id domain.OrderID) (domain.Order, error)) (*storefrontv1.OrderResponse, error) {
	id, err := domain.ParseOrderID(rawID)
	if err != nil {
		return nil, s.statusError(err, op)
	}
	order, err := fn(id)
	if err != nil {
		return nil, s.statusError(err, op)
	}
	return &storefrontv1.OrderResponse{Order: toProtoOrder(order)}, nil
}

// GetOrder возвращает заказ и его историю.
func (s *StorefrontService) GetOrder(ctx context.Context, req *storefrontv1.GetOrderRequest) (*storefrontv1.GetOrderResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := domain.ParseOrderID(req.OrderId)
	if err != nil {
		return nil, s.statusError(err, "GetOrder")
	}
	order, err := s.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, s.statusError(err, "GetOrder")
	}
	events, err := s.orders.Timeline(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", id).Warn("failed to list timeline events")
		events = nil
	}

	timeline := make([]*storefrontv1.TimelineEvent, 0, len(events))
	for _, ev := range events {
		timeline = append(timeline, &storefrontv1.TimelineEvent{
			Type:     ev.Type,
			Status:   toProtoStatus(ev.Status),
			Reason:   ev.Reason,
			UnixTime: unixOrZero(ev.Occurred),
		})
	}
	return &storefrontv1.GetOrderResponse{Order: toProtoOrder(order), Timeline: timeline}, nil
}

// ListOrders возвращает заказы покупателя.
func (s *StorefrontService) ListOrders(ctx context.Context, req *storefrontv1.ListOrdersRequest) (*storefrontv1.ListOrdersResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	visitor, err := domain.ParseVisitorID(req.VisitorId)
	if err != nil {
		return nil, s.statusError(err, "ListOrders")
	}
	orders, err := s.orders.ListOrders(ctx, visitor, int(req.PageSize))
	if err != nil {
		return nil, s.statusError(err, "ListOrders")
	}
	result := make([]*storefrontv1.Order, 0, len(orders))
	for _, o := range orders {
		result = append(result, toProtoOrder(o))
	}
	return &storefrontv1.ListOrdersResponse{Orders: result}, nil
}

func toProtoProduct(p domain.Product) *storefrontv1.Product {
	return &storefrontv1.Product{
		Id:          string(p.ID),
		Name:        p.Name,
		Description: p.Description,
		PriceMinor:  p.PriceMinor,
		Price:       pricing.Format(p.PriceMinor, pricing.DefaultCurrency),
		Stock:       p.Stock,
		ImageUrl:    p.ImageURL,
		Category:    string(p.Category),
	}
}

func toProtoCart(c domain.Cart, summary pricing.Summary) *storefrontv1.Cart {
	items := make([]*storefrontv1.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		items = append(items, &storefrontv1.CartItem{
			ProductId:      string(item.ProductID),
			Name:           item.Name,
			PriceMinor:     item.PriceMinor,
			Qty:            item.Qty,
			LineTotalMinor: item.LineTotal(),
		})
	}
	return &storefrontv1.Cart{
		Id:         string(c.ID),
		VisitorId:  string(c.VisitorID),
		Items:      items,
		TotalMinor: c.TotalMinor,
		Version:    c.Version,
		Summary: &storefrontv1.Summary{
			SubtotalMinor: summary.SubtotalMinor,
			ShippingMinor: summary.ShippingMinor,
			TaxMinor:      summary.TaxMinor,
			TotalMinor:    summary.TotalMinor,
			Currency:      summary.Currency,
			Total:         pricing.Format(summary.TotalMinor, summary.Currency),
		},
	}
}

func toProtoOrder(o domain.Order) *storefrontv1.Order {
	items := make([]*storefrontv1.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, &storefrontv1.OrderItem{
			Id:         item.ID,
			ProductId:  string(item.ProductID),
			Name:       item.Name,
			PriceMinor: item.PriceMinor,
			Qty:        item.Qty,
		})
	}
	return &storefrontv1.Order{
		Id:         string(o.ID),
		VisitorId:  string(o.VisitorID),
		Status:     toProtoStatus(o.Status),
		Items:      items,
		TotalMinor: o.TotalMinor,
		Total:      pricing.Format(o.TotalMinor, pricing.DefaultCurrency),
		Version:    o.Version,
		CreatedAt:  o.CreatedAt.Unix(),
	}
}

func toProtoStatus(st domain.OrderStatus) storefrontv1.OrderStatus {
	switch st {
	case domain.OrderStatusPending:
		return storefrontv1.OrderStatusPending
	case domain.OrderStatusConfirmed:
		return storefrontv1.OrderStatusConfirmed
	case domain.OrderStatusShipped:
		return storefrontv1.OrderStatusShipped
	case domain.OrderStatusDelivered:
		return storefrontv1.OrderStatusDelivered
	case domain.OrderStatusCancelled:
		return storefrontv1.OrderStatusCancelled
	default:
		return storefrontv1.OrderStatusUnspecified
	}
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
