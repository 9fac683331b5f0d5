package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	storefrontv1 "github.com/vladislavdragonenkov/storefront/api/storefront/v1"
)

const idempotencyHeader = "idempotency-key"

// storefrontClient - методы StorefrontServiceClient, которые использует нагрузка.
type storefrontClient interface {
	GetProduct(ctx context.Context, in *storefrontv1.GetProductRequest, opts ...grpc.CallOption) (*storefrontv1.GetProductResponse, error)
	AddItem(ctx context.Context, in *storefrontv1.AddItemRequest, opts ...grpc.CallOption) (*storefrontv1.CartResponse, error)
	Checkout(ctx context.Context, in *storefrontv1.CheckoutRequest, opts ...grpc.CallOption) (*storefrontv1.OrderResponse, error)
	CancelOrder(ctx context.Context, in *storefrontv1.CancelOrderRequest, opts ...grpc.CallOption) (*storefrontv1.OrderResponse, error)
}

type outcome int

const (
	outcomeFailed outcome = iota
	outcomeSold
	outcomeRejected
)

func (o outcome) String() string {
	switch o {
	case outcomeSold:
		return "sold"
	case outcomeRejected:
		return "rejected"
	default:
		return "failed"
	}
}

// runScenario: новый посетитель кладет товар в корзину и оформляет заказ.
// FailedPrecondition (товар закончился) - ожидаемый исход конкуренции.
func runScenario(ctx context.Context, client storefrontClient, cfg config, index int, runID string, col *collector) (result outcome, err error) {
	start := time.Now()
	defer func() { col.recordScenario(time.Since(start), result, err) }()

	visitor := fmt.Sprintf("load-%s-%d", runID, index)

	if err := col.call(ctx, "AddItem", cfg.timeout, "", func(ctx context.Context) error {
		_, err := client.AddItem(ctx, &storefrontv1.AddItemRequest{VisitorId: visitor, ProductId: cfg.productID, Qty: cfg.qty})
		return err
	}); err != nil {
		return soldOut(err)
	}

	var orderID string
	checkoutKey := fmt.Sprintf("lt-checkout-%s-%d", runID, index)
	if err := col.call(ctx, "Checkout", cfg.timeout, checkoutKey, func(ctx context.Context) error {
		resp, err := client.Checkout(ctx, &storefrontv1.CheckoutRequest{VisitorId: visitor})
		orderID = resp.GetOrder().GetId()
		return err
	}); err != nil {
		return soldOut(err)
	}
	if orderID == "" {
		return outcomeFailed, status.Error(codes.Internal, "checkout response returned empty order id")
	}

	if cfg.mode == modeCheckoutCancel {
		cancelKey := fmt.Sprintf("lt-cancel-%s-%d", runID, index)
		if err := col.call(ctx, "CancelOrder", cfg.timeout, cancelKey, func(ctx context.Context) error {
			_, err := client.CancelOrder(ctx, &storefrontv1.CancelOrderRequest{OrderId: orderID, Reason: "load-cancel"})
			return err
		}); err != nil {
			return outcomeFailed, err
		}
	}

	return outcomeSold, nil
}

func soldOut(err error) (outcome, error) {
	if status.Code(err) == codes.FailedPrecondition {
		return outcomeRejected, nil
	}
	return outcomeFailed, err
}

func productStock(ctx context.Context, client storefrontClient, cfg config) (int32, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	resp, err := client.GetProduct(ctx, &storefrontv1.GetProductRequest{ProductId: cfg.productID})
	if err != nil {
		return 0, err
	}
	if resp.Product == nil {
		return 0, errors.New("empty product in response")
	}
	return resp.Product.Stock, nil
}

// withIdempotencyKey добавляет ключ к исходящим метаданным, пустой ключ не пишется.
func withIdempotencyKey(ctx context.Context, key string) context.Context {
	if key == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, idempotencyHeader, key)
}
