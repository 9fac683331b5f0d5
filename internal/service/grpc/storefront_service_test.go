package grpcsvc_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	storefrontv1 "github.com/vladislavdragonenkov/storefront/api/storefront/v1"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/lock"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/payment"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

const bufSize = 1024 * 1024

type testEnv struct {
	conn     *grpc.ClientConn
	client   storefrontv1.StorefrontServiceClient
	store    *memory.Store
	payments *payment.MockGateway
}

func idemCtx(key string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), grpcsvc.IdempotencyKeyHeader, key)
}

func loggerForTests() *logrus.Entry {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: false, DisableTimestamp: true})
	logger.SetLevel(logrus.DebugLevel)
	return logger.WithField("component", "test")
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()

	ctx := context.Background()
	logger := loggerForTests()
	store := memory.NewStore()
	products := catalog.NewService(store, catalog.WithLogger(logger))
	require.NoError(t, products.Seed(ctx, catalog.DemoProducts(time.Now().UTC())...))

	locker := lock.NewLocal()
	payments := payment.NewMockGateway()
	carts := cart.NewService(store, cart.WithLocker(locker), cart.WithLogger(logger))
	orders := checkout.NewService(store, payments, checkout.WithLocker(locker), checkout.WithLogger(logger))
	guard := idempotency.NewGuard(memory.NewIdempotencyRepository())

	listener := bufconn.Listen(bufSize)
	server := grpc.NewServer()
	storefrontv1.RegisterStorefrontServiceServer(server, grpcsvc.NewStorefrontService(products, carts, orders, guard, logger))
	go func() {
		if err := server.Serve(listener); err != nil {
			logger.WithError(err).Error("grpc serve failed")
		}
	}()

	dialer := func(context.Context, string) (net.Conn, error) {
		return listener.Dial()
	}
	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithContextDialer(dialer), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = conn.Close()
		server.Stop()
	})

	return &testEnv{
		conn:     conn,
		client:   storefrontv1.NewStorefrontServiceClient(conn),
		store:    store,
		payments: payments,
	}
}

func TestCatalog(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()

	list, err := env.client.ListProducts(ctx, &storefrontv1.ListProductsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Products, 6)
	require.Equal(t, "$79.99", list.Products[0].Price)

	_, err = env.client.GetProduct(ctx, &storefrontv1.GetProductRequest{ProductId: "prod_999"})
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = env.client.GetProduct(ctx, &storefrontv1.GetProductRequest{ProductId: " "})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCartAndCheckoutFlow(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()

	resp, err := env.client.AddItem(ctx, &storefrontv1.AddItemRequest{VisitorId: "v1", ProductId: "prod_001", Qty: 2})
	require.NoError(t, err)
	require.Equal(t, int64(15998), resp.Cart.TotalMinor)
	require.Equal(t, int64(18277), resp.Cart.Summary.TotalMinor)
	require.Equal(t, "$182.77", resp.Cart.Summary.Total)

	_, err = env.client.AddItem(ctx, &storefrontv1.AddItemRequest{VisitorId: "v2", ProductId: "prod_003", Qty: 100})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = env.client.GetCart(ctx, &storefrontv1.CartRequest{VisitorId: "v2"})
	require.Equal(t, codes.NotFound, status.Code(err))

	_, err = env.client.AddItem(ctx, &storefrontv1.AddItemRequest{VisitorId: "v1", ProductId: "prod_001", Qty: 0})
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	placed, err := env.client.Checkout(idemCtx("checkout-v1"), &storefrontv1.CheckoutRequest{VisitorId: "v1"})
	require.NoError(t, err)
	require.Equal(t, storefrontv1.OrderStatusPending, placed.Order.Status)
	require.Equal(t, int64(15998), placed.Order.TotalMinor)

	cartResp, err := env.client.GetCart(ctx, &storefrontv1.CartRequest{VisitorId: "v1"})
	require.NoError(t, err)
	require.Empty(t, cartResp.Cart.Items)
	require.Zero(t, cartResp.Cart.Summary.ShippingMinor)

	_, err = env.client.Checkout(idemCtx("checkout-v1-again"), &storefrontv1.CheckoutRequest{VisitorId: "v1"})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	for _, step := range []func() (*storefrontv1.OrderResponse, error){
		func() (*storefrontv1.OrderResponse, error) {
			return env.client.ConfirmOrder(ctx, &storefrontv1.OrderActionRequest{OrderId: placed.Order.Id})
		},
		func() (*storefrontv1.OrderResponse, error) {
			return env.client.ShipOrder(ctx, &storefrontv1.OrderActionRequest{OrderId: placed.Order.Id})
		},
	} {
		_, err := step()
		require.NoError(t, err)
	}

	_, err = env.client.CancelOrder(idemCtx("cancel-1"), &storefrontv1.CancelOrderRequest{OrderId: placed.Order.Id})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	delivered, err := env.client.DeliverOrder(ctx, &storefrontv1.OrderActionRequest{OrderId: placed.Order.Id})
	require.NoError(t, err)
	require.Equal(t, storefrontv1.OrderStatusDelivered, delivered.Order.Status)

	got, err := env.client.GetOrder(ctx, &storefrontv1.GetOrderRequest{OrderId: placed.Order.Id})
	require.NoError(t, err)
	require.Len(t, got.Timeline, 5)

	list, err := env.client.ListOrders(ctx, &storefrontv1.ListOrdersRequest{VisitorId: "v1"})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
}

func TestCartItems_NonIntegerQtyIsInvalidArgument(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()
	call := func(method, body string) error {
		var out storefrontv1.CartResponse
		return env.conn.Invoke(ctx, method, json.RawMessage(body), &out, grpc.CallContentSubtype(storefrontv1.CodecName))
	}

	for _, qty := range []string{"1.5", "3e9", "-2147483649"} {
		err := call(storefrontv1.StorefrontService_AddItem_FullMethodName, `{"visitor_id":"raw","product_id":"prod_001","qty":`+qty+`}`)
		require.Equal(t, codes.InvalidArgument, status.Code(err), "qty=%s", qty)
		require.Contains(t, status.Convert(err).Message(), "invalid quantity "+qty)
	}

	require.NoError(t, call(storefrontv1.StorefrontService_AddItem_FullMethodName, `{"visitor_id":"raw","product_id":"prod_001","qty":2}`))

	err := call(storefrontv1.StorefrontService_UpdateItem_FullMethodName, `{"visitor_id":"raw","product_id":"prod_001","qty":0.5}`)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	cart, err := env.client.GetCart(ctx, &storefrontv1.CartRequest{VisitorId: "raw"})
	require.NoError(t, err)
	require.Len(t, cart.Cart.Items, 1)
	require.Equal(t, int32(2), cart.Cart.Items[0].Qty)
}

func TestCheckout_IdempotentReplay(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()

	_, err := env.client.AddItem(ctx, &storefrontv1.AddItemRequest{VisitorId: "v1", ProductId: "prod_002", Qty: 1})
	require.NoError(t, err)

	first, err := env.client.Checkout(idemCtx("same-key"), &storefrontv1.CheckoutRequest{VisitorId: "v1"})
	require.NoError(t, err)
	second, err := env.client.Checkout(idemCtx("same-key"), &storefrontv1.CheckoutRequest{VisitorId: "v1"})
	require.NoError(t, err)
	require.Equal(t, first.Order.Id, second.Order.Id)

	charges, _ := env.payments.Calls()
	require.Equal(t, 1, charges)

	_, err = env.client.Checkout(idemCtx("same-key"), &storefrontv1.CheckoutRequest{VisitorId: "v2"})
	require.Equal(t, codes.AlreadyExists, status.Code(err))

	_, err = env.client.Checkout(ctx, &storefrontv1.CheckoutRequest{VisitorId: "v1"})
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestCheckout_FailureReplayedAndPaymentMapped(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()

	_, err := env.client.AddItem(ctx, &storefrontv1.AddItemRequest{VisitorId: "v1", ProductId: "prod_002", Qty: 1})
	require.NoError(t, err)
	env.payments.FailCharges(domain.PaymentStatusDeclined, errors.New("card declined"))

	_, err = env.client.Checkout(idemCtx("pay-key"), &storefrontv1.CheckoutRequest{VisitorId: "v1"})
	require.Equal(t, codes.Aborted, status.Code(err))

	// повтор с тем же ключом не вызывает провайдера повторно
	env.payments.Reset()
	_, err = env.client.Checkout(idemCtx("pay-key"), &storefrontv1.CheckoutRequest{VisitorId: "v1"})
	require.Equal(t, codes.Aborted, status.Code(err))
	charges, _ := env.payments.Calls()
	require.Equal(t, 1, charges)

	placed, err := env.client.Checkout(idemCtx("pay-key-2"), &storefrontv1.CheckoutRequest{VisitorId: "v1"})
	require.NoError(t, err)
	require.Equal(t, storefrontv1.OrderStatusPending, placed.Order.Status)
}

func TestCancelOrder_RestoresStock(t *testing.T) {
	env := newTestServer(t)
	ctx := context.Background()

	_, err := env.client.AddItem(ctx, &storefrontv1.AddItemRequest{VisitorId: "v1", ProductId: "prod_006", Qty: 1})
	require.NoError(t, err)
	placed, err := env.client.Checkout(idemCtx("k1"), &storefrontv1.CheckoutRequest{VisitorId: "v1"})
	require.NoError(t, err)

	product, err := env.client.GetProduct(ctx, &storefrontv1.GetProductRequest{ProductId: "prod_006"})
	require.NoError(t, err)
	require.Zero(t, product.Product.Stock)

	cancelled, err := env.client.CancelOrder(idemCtx("k2"), &storefrontv1.CancelOrderRequest{OrderId: placed.Order.Id, Reason: "changed mind"})
	require.NoError(t, err)
	require.Equal(t, storefrontv1.OrderStatusCancelled, cancelled.Order.Status)

	product, err = env.client.GetProduct(ctx, &storefrontv1.GetProductRequest{ProductId: "prod_006"})
	require.NoError(t, err)
	require.Equal(t, int32(1), product.Product.Stock)

	_, err = env.client.CancelOrder(idemCtx("k3"), &storefrontv1.CancelOrderRequest{OrderId: "ord-missing"})
	require.Equal(t, codes.NotFound, status.Code(err))
}
