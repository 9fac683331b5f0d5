package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	storefrontv1 "github.com/vladislavdragonenkov/storefront/api/storefront/v1"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/lock"
	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	grpcsvc "github.com/vladislavdragonenkov/storefront/internal/service/grpc"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/outbox"
	"github.com/vladislavdragonenkov/storefront/internal/service/payment"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

// recordingPublisher запоминает опубликованные outbox-сообщения.
type recordingPublisher struct {
	mu   sync.Mutex
	err  error
	sent []domain.OutboxMessage
}

func (p *recordingPublisher) Publish(_ context.Context, msg domain.OutboxMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, msg)
	return nil
}

func (p *recordingPublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, msg := range p.sent {
		out = append(out, msg.EventType)
	}
	return out
}

// CheckoutLifecycleTestSuite проходит путь корзина → заказ → отмена через gRPC-сервис.
type CheckoutLifecycleTestSuite struct {
	suite.Suite
	logger   *log.Entry
	store    *memory.Store
	catalog  *catalog.Service
	payments *payment.MockGateway
	service  *grpcsvc.StorefrontService
}

func (suite *CheckoutLifecycleTestSuite) SetupTest() {
	baseLogger := log.New()
	baseLogger.SetLevel(log.WarnLevel) // Уменьшаем шум в тестах
	suite.logger = baseLogger.WithField("component", "integration-test")

	suite.store = memory.NewStore()
	suite.catalog = catalog.NewService(suite.store, catalog.WithLogger(suite.logger))
	require.NoError(suite.T(), suite.catalog.Seed(context.Background(), catalog.DemoProducts(time.Now().UTC())...))

	locker := lock.NewLocal()
	suite.payments = payment.NewMockGateway()
	carts := cart.NewService(suite.store, cart.WithLocker(locker), cart.WithLogger(suite.logger))
	orders := checkout.NewService(suite.store, suite.payments, checkout.WithLocker(locker), checkout.WithLogger(suite.logger))
	guard := idempotency.NewGuard(memory.NewIdempotencyRepository())

	suite.service = grpcsvc.NewStorefrontService(suite.catalog, carts, orders, guard, suite.logger)
}

func withKey(key string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(grpcsvc.IdempotencyKeyHeader, key))
}

func (suite *CheckoutLifecycleTestSuite) stock(id domain.ProductID) int32 {
	product, err := suite.catalog.Get(context.Background(), id)
	require.NoError(suite.T(), err)
	return product.Stock
}

func (suite *CheckoutLifecycleTestSuite) fillCart(visitor string, items map[string]int32) *storefrontv1.Cart {
	var last *storefrontv1.CartResponse
	for productID, qty := range items {
		resp, err := suite.service.AddItem(context.Background(), &storefrontv1.AddItemRequest{
			VisitorId: visitor,
			ProductId: productID,
			Qty:       qty,
		})
		require.NoError(suite.T(), err)
		last = resp
	}
	return last.Cart
}

func (suite *CheckoutLifecycleTestSuite) drainOutbox(pub domain.OutboxPublisher, opts ...outbox.Option) outbox.Report {
	opts = append([]outbox.Option{outbox.WithLogger(suite.logger), outbox.WithRetryBaseDelay(time.Millisecond)}, opts...)
	return outbox.NewWorker(suite.store, pub, opts...).ProcessOnce(context.Background())
}

func (suite *CheckoutLifecycleTestSuite) TestSuccessfulOrderLifecycle() {
	ctx := context.Background()
	t := suite.T()

	// 1. Собираем корзину
	cartResp := suite.fillCart("visitor-1", map[string]int32{"prod_001": 2, "prod_004": 1})
	require.Len(t, cartResp.Items, 2)

	// 2. Оформляем заказ
	orderResp, err := suite.service.Checkout(withKey("checkout-1"), &storefrontv1.CheckoutRequest{VisitorId: "visitor-1"})
	require.NoError(t, err)
	order := orderResp.Order
	require.Equal(t, storefrontv1.OrderStatusPending, order.Status)
	require.Equal(t, int64(2*7999+2499), order.TotalMinor)

	require.Equal(t, int32(43), suite.stock("prod_001"))
	require.Equal(t, int32(59), suite.stock("prod_004"))

	emptied, err := suite.service.GetCart(ctx, &storefrontv1.CartRequest{VisitorId: "visitor-1"})
	require.NoError(t, err)
	require.Empty(t, emptied.Cart.Items)

	// 3. Проводим заказ по статусам
	for _, step := range []func(context.Context, *storefrontv1.OrderActionRequest) (*storefrontv1.OrderResponse, error){
		suite.service.ConfirmOrder, suite.service.ShipOrder, suite.service.DeliverOrder,
	} {
		_, err := step(ctx, &storefrontv1.OrderActionRequest{OrderId: order.Id})
		require.NoError(t, err)
	}

	got, err := suite.service.GetOrder(ctx, &storefrontv1.GetOrderRequest{OrderId: order.Id})
	require.NoError(t, err)
	require.Equal(t, storefrontv1.OrderStatusDelivered, got.Order.Status)
	require.GreaterOrEqual(t, len(got.Timeline), 5) // placed, charged и три смены статуса

	// 4. Отмена после доставки запрещена
	_, err = suite.service.CancelOrder(withKey("cancel-late"), &storefrontv1.CancelOrderRequest{OrderId: order.Id})
	require.Equal(t, codes.FailedPrecondition, status.Code(err))

	// 5. Платёж списан один раз, возвратов нет
	charges, refunds := suite.payments.Calls()
	require.Equal(t, 1, charges)
	require.Equal(t, 0, refunds)

	// 6. Outbox доставляет событие создания и смены статусов
	pub := &recordingPublisher{}
	report := suite.drainOutbox(pub)
	require.Zero(t, report.Failed)
	require.Contains(t, pub.eventTypes(), domain.EventOrderCreated)
	require.Contains(t, pub.eventTypes(), domain.EventOrderStatusChanged)

	list, err := suite.service.ListOrders(ctx, &storefrontv1.ListOrdersRequest{VisitorId: "visitor-1"})
	require.NoError(t, err)
	require.Len(t, list.Orders, 1)
}

func (suite *CheckoutLifecycleTestSuite) TestOrderCancellationRestoresStock() {
	ctx := context.Background()
	t := suite.T()

	suite.fillCart("visitor-2", map[string]int32{"prod_003": 3})
	orderResp, err := suite.service.Checkout(withKey("checkout-2"), &storefrontv1.CheckoutRequest{VisitorId: "visitor-2"})
	require.NoError(t, err)
	require.Equal(t, int32(27), suite.stock("prod_003"))

	_, err = suite.service.ConfirmOrder(ctx, &storefrontv1.OrderActionRequest{OrderId: orderResp.Order.Id})
	require.NoError(t, err)

	cancelled, err := suite.service.CancelOrder(withKey("cancel-2"), &storefrontv1.CancelOrderRequest{
		OrderId: orderResp.Order.Id,
		Reason:  "Customer changed mind",
	})
	require.NoError(t, err)
	require.Equal(t, storefrontv1.OrderStatusCancelled, cancelled.Order.Status)
	require.Equal(t, int32(30), suite.stock("prod_003"))
	require.Equal(t, orderResp.Order.TotalMinor, suite.payments.Refunded(domain.OrderID(orderResp.Order.Id)))

	got, err := suite.service.GetOrder(ctx, &storefrontv1.GetOrderRequest{OrderId: orderResp.Order.Id})
	require.NoError(t, err)
	hasReason := false
	for _, event := range got.Timeline {
		if event.Type == domain.TimelineStatusChanged && event.Reason == "Customer changed mind" {
			hasReason = true
		}
	}
	require.True(t, hasReason, "timeline should keep the cancellation reason")

	pub := &recordingPublisher{}
	suite.drainOutbox(pub)
	require.Contains(t, pub.eventTypes(), domain.EventOrderCancelled)
	require.Contains(t, pub.eventTypes(), domain.EventStockChanged)
}

func (suite *CheckoutLifecycleTestSuite) TestLastUnitSoldOnce() {
	t := suite.T()
	const buyers = 8

	for i := 0; i < buyers; i++ {
		suite.fillCart(visitorN(i), map[string]int32{"prod_006": 1})
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		sold    int
		soldOut int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := suite.service.Checkout(withKey("last-unit-"+visitorN(i)), &storefrontv1.CheckoutRequest{VisitorId: visitorN(i)})
			mu.Lock()
			defer mu.Unlock()
			switch status.Code(err) {
			case codes.OK:
				sold++
			case codes.FailedPrecondition:
				soldOut++
			default:
				t.Errorf("unexpected checkout error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, sold)
	require.Equal(t, buyers-1, soldOut)
	require.Equal(t, int32(0), suite.stock("prod_006"))
}

func (suite *CheckoutLifecycleTestSuite) TestPaymentFailureLeavesNoTrace() {
	ctx := context.Background()
	t := suite.T()

	suite.payments.FailCharges(domain.PaymentStatusDeclined, errors.New("card declined"))
	suite.fillCart("visitor-3", map[string]int32{"prod_002": 2})

	_, err := suite.service.Checkout(withKey("checkout-3"), &storefrontv1.CheckoutRequest{VisitorId: "visitor-3"})
	require.Equal(t, codes.Aborted, status.Code(err))

	// Остатки и корзина не изменились, заказа нет
	require.Equal(t, int32(120), suite.stock("prod_002"))
	cartResp, err := suite.service.GetCart(ctx, &storefrontv1.CartRequest{VisitorId: "visitor-3"})
	require.NoError(t, err)
	require.Len(t, cartResp.Cart.Items, 1)
	list, err := suite.service.ListOrders(ctx, &storefrontv1.ListOrdersRequest{VisitorId: "visitor-3"})
	require.NoError(t, err)
	require.Empty(t, list.Orders)

	// После восстановления провайдера тот же запрос с новым ключом проходит
	suite.payments.Reset()
	_, err = suite.service.Checkout(withKey("checkout-3-retry"), &storefrontv1.CheckoutRequest{VisitorId: "visitor-3"})
	require.NoError(t, err)
	require.Equal(t, int32(118), suite.stock("prod_002"))
}

func (suite *CheckoutLifecycleTestSuite) TestIdempotentCheckoutReplay() {
	t := suite.T()

	suite.fillCart("visitor-4", map[string]int32{"prod_005": 1})
	first, err := suite.service.Checkout(withKey("checkout-4"), &storefrontv1.CheckoutRequest{VisitorId: "visitor-4"})
	require.NoError(t, err)

	second, err := suite.service.Checkout(withKey("checkout-4"), &storefrontv1.CheckoutRequest{VisitorId: "visitor-4"})
	require.NoError(t, err)
	require.Equal(t, first.Order.Id, second.Order.Id)
	require.Equal(t, int32(24), suite.stock("prod_005"))

	charges, _ := suite.payments.Calls()
	require.Equal(t, 1, charges)

	_, err = suite.service.Checkout(context.Background(), &storefrontv1.CheckoutRequest{VisitorId: "visitor-4"})
	require.Equal(t, codes.InvalidArgument, status.Code(err), "idempotency-key is required")
}

func (suite *CheckoutLifecycleTestSuite) TestRestockEventFromKafka() {
	t := suite.T()
	handler := kafka.NewRestockHandler(suite.catalog, suite.logger)

	event := kafka.NewRestockEvent("prod_006", 4, "po-17")
	payload := mustJSON(t, event)
	require.NoError(t, handler(context.Background(), &sarama.ConsumerMessage{Topic: kafka.TopicRestock, Value: payload}))
	require.Equal(t, int32(5), suite.stock("prod_006"))

	unknown := mustJSON(t, kafka.NewRestockEvent("prod_404", 1, "po-18"))
	err := handler(context.Background(), &sarama.ConsumerMessage{Topic: kafka.TopicRestock, Value: unknown})
	require.ErrorIs(t, err, kafka.ErrPermanent)

	pub := &recordingPublisher{}
	suite.drainOutbox(pub)
	require.Contains(t, pub.eventTypes(), domain.EventStockChanged)
}

func (suite *CheckoutLifecycleTestSuite) TestOutboxDeadLetter() {
	t := suite.T()

	suite.fillCart("visitor-5", map[string]int32{"prod_001": 1})
	_, err := suite.service.Checkout(withKey("checkout-5"), &storefrontv1.CheckoutRequest{VisitorId: "visitor-5"})
	require.NoError(t, err)

	broken := &recordingPublisher{err: errors.New("broker down")}
	dlq := &recordingPublisher{}
	report := suite.drainOutbox(broken, outbox.WithMaxAttempts(1), outbox.WithDLQPublisher(dlq))
	require.Positive(t, report.Failed)
	require.Equal(t, report.Failed, report.DeadLetter)

	require.NotEmpty(t, dlq.sent)
	letter, err := outbox.DecodeDeadLetter(dlq.sent[0].Payload)
	require.NoError(t, err)
	require.Contains(t, letter.PublishError, "broker down")
	require.Empty(t, suite.store.AllPending(), "failed messages leave the pending queue")
}

func visitorN(i int) string {
	return "buyer-" + string(rune('a'+i))
}

func TestCheckoutLifecycle(t *testing.T) {
	suite.Run(t, new(CheckoutLifecycleTestSuite))
}
