package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/httpapi"
	"github.com/vladislavdragonenkov/storefront/internal/lock"
	"github.com/vladislavdragonenkov/storefront/internal/service/cart"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/service/checkout"
	"github.com/vladislavdragonenkov/storefront/internal/service/idempotency"
	"github.com/vladislavdragonenkov/storefront/internal/service/payment"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type apiFixture struct {
	server   *httptest.Server
	payments *payment.MockGateway
}

func newAPI(t *testing.T, opts ...httpapi.Option) *apiFixture {
	t.Helper()
	store := memory.NewStore()
	products := catalog.NewService(store)
	require.NoError(t, products.Seed(context.Background(), catalog.DemoProducts(time.Now().UTC())...))

	locker := lock.NewLocal()
	payments := payment.NewMockGateway()
	h := httpapi.NewHandler(
		products,
		cart.NewService(store, cart.WithLocker(locker)),
		checkout.NewService(store, payments, checkout.WithLocker(locker)),
		append([]httpapi.Option{httpapi.WithBaseURL("http://shop.test/")}, opts...)...,
	)
	srv := httptest.NewServer(httpapi.NewRouter(h))
	t.Cleanup(srv.Close)
	return &apiFixture{server: srv, payments: payments}
}

func (f *apiFixture) do(t *testing.T, method, path string, body any, headers ...string) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
		if len(raw) > 0 && raw[0] == '{' {
			require.NoError(t, json.Unmarshal(raw, &out))
		} else {
			out = map[string]any{"items": nil}
			var list []any
			require.NoError(t, json.Unmarshal(raw, &list))
			out["items"] = list
		}
	}
	return resp, out
}

func errorKind(body map[string]any) string {
	detail, _ := body["error"].(map[string]any)
	kind, _ := detail["kind"].(string)
	return kind
}

func TestProducts(t *testing.T) {
	api := newAPI(t)

	resp, body := api.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body["items"], 6)

	resp, body = api.do(t, http.MethodGet, "/api/products/prod_001", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "$79.99", body["price"])
	assert.EqualValues(t, 45, body["stock"])

	resp, body = api.do(t, http.MethodGet, "/api/products/prod_404", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "product_not_found", errorKind(body))
}

func TestProducts_CreateAndStock(t *testing.T) {
	api := newAPI(t)

	resp, body := api.do(t, http.MethodPost, "/api/products", map[string]any{
		"name":        "Desk Lamp",
		"price_minor": 3999,
		"stock":       10,
		"category":    "Home",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "http://shop.test/api/products/"+id, resp.Header.Get("Location"))
	assert.Equal(t, "Home", body["category"])

	resp, body = api.do(t, http.MethodPost, "/api/products/"+id+"/restock", map[string]any{"delta": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 15, body["stock"])

	resp, body = api.do(t, http.MethodPut, "/api/products/"+id+"/stock", map[string]any{"stock": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 2, body["stock"])

	resp, _ = api.do(t, http.MethodPut, "/api/products/"+id+"/stock", map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = api.do(t, http.MethodPost, "/api/products", map[string]any{
		"name": "Ghost", "price_minor": 100, "stock": 1, "category": "weapons",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", errorKind(body))

	resp, body = api.do(t, http.MethodPost, "/api/products", map[string]any{
		"name": "Lowercase", "price_minor": 100, "stock": 1, "category": "home",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation", errorKind(body))
}

func TestCart(t *testing.T) {
	api := newAPI(t)

	resp, body := api.do(t, http.MethodGet, "/api/carts/v1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "cart_not_found", errorKind(body))

	resp, body = api.do(t, http.MethodPost, "/api/carts/v1/items", map[string]any{"product_id": "prod_001", "qty": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 15998, summary["subtotal_minor"])
	assert.EqualValues(t, 999, summary["shipping_minor"])
	assert.EqualValues(t, 1280, summary["tax_minor"])
	assert.EqualValues(t, 18277, summary["total_minor"])
	assert.Equal(t, "$182.77", summary["total"])

	resp, body = api.do(t, http.MethodPost, "/api/carts/v1/items", map[string]any{"product_id": "prod_003", "qty": 31})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	detail := body["error"].(map[string]any)
	assert.Equal(t, "insufficient_stock", detail["kind"])
	assert.EqualValues(t, 31, detail["requested"])
	assert.EqualValues(t, 30, detail["available"])

	resp, body = api.do(t, http.MethodPost, "/api/carts/v1/items", map[string]any{"product_id": "prod_002", "qty": 0})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_quantity", errorKind(body))

	resp, _ = api.do(t, http.MethodPost, "/api/carts/v1/items", `{"product_id":"prod_002","qty":1,"extra":true}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = api.do(t, http.MethodPut, "/api/carts/v1/items/prod_001", map[string]any{"qty": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 7999, body["summary"].(map[string]any)["subtotal_minor"])

	resp, body = api.do(t, http.MethodDelete, "/api/carts/v1/items/prod_001", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])

	resp, _ = api.do(t, http.MethodDelete, "/api/carts/v1", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = api.do(t, http.MethodGet, "/api/carts/v1", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCart_QuantityMustBeInteger(t *testing.T) {
	api := newAPI(t)

	for _, raw := range []string{`1.5`, `3e9`, `-0.5`} {
		resp, body := api.do(t, http.MethodPost, "/api/carts/v9/items", `{"product_id":"prod_001","qty":`+raw+`}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, "qty=%s", raw)
		assert.Equal(t, "invalid_quantity", errorKind(body), "qty=%s", raw)
	}

	resp, body := api.do(t, http.MethodPost, "/api/carts/v9/items", `{"product_id":"prod_001"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_quantity", errorKind(body))

	resp, _ = api.do(t, http.MethodPost, "/api/carts/v9/items", `{"product_id":"prod_001","qty":2.0}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = api.do(t, http.MethodPut, "/api/carts/v9/items/prod_001", `{"qty":1.25}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_quantity", errorKind(body))

	resp, body = api.do(t, http.MethodGet, "/api/carts/v9", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 15998, body["summary"].(map[string]any)["subtotal_minor"])
}

func TestCheckoutAndLifecycle(t *testing.T) {
	api := newAPI(t)

	resp, body := api.do(t, http.MethodPost, "/api/carts/v1/checkout", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "cart_not_found", errorKind(body))

	resp, _ = api.do(t, http.MethodPost, "/api/carts/v1/items", map[string]any{"product_id": "prod_001", "qty": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = api.do(t, http.MethodPost, "/api/carts/v1/checkout", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["id"].(string)
	assert.Equal(t, "http://shop.test/api/orders/"+orderID, resp.Header.Get("Location"))
	assert.Equal(t, "pending", body["status"])
	assert.EqualValues(t, 15998, body["total_minor"])

	resp, body = api.do(t, http.MethodPost, "/api/carts/v1/checkout", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "cart_empty", errorKind(body))

	resp, body = api.do(t, http.MethodGet, "/api/products/prod_001", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 43, body["stock"])

	for _, action := range []string{"confirm", "ship"} {
		resp, _ = api.do(t, http.MethodPost, "/api/orders/"+orderID+"/"+action, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, action)
	}

	resp, body = api.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", map[string]any{"reason": "late"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", errorKind(body))

	resp, body = api.do(t, http.MethodPost, "/api/orders/"+orderID+"/deliver", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "delivered", body["status"])

	resp, body = api.do(t, http.MethodGet, "/api/orders/"+orderID+"/timeline", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 5)

	resp, body = api.do(t, http.MethodGet, "/api/visitors/v1/orders?limit=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["items"], 1)

	resp, _ = api.do(t, http.MethodGet, "/api/visitors/v1/orders?limit=ten", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = api.do(t, http.MethodGet, "/api/orders/ord-missing", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "order_not_found", errorKind(body))
}

func TestCancelRestoresStock(t *testing.T) {
	api := newAPI(t)

	resp, _ := api.do(t, http.MethodPost, "/api/carts/v2/items", map[string]any{"product_id": "prod_005", "qty": 5})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := api.do(t, http.MethodPost, "/api/carts/v2/checkout", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	orderID := body["id"].(string)

	resp, body = api.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "cancelled", body["status"])

	_, body = api.do(t, http.MethodGet, "/api/products/prod_005", nil)
	assert.EqualValues(t, 25, body["stock"])
}

func TestCheckout_PaymentFailure(t *testing.T) {
	api := newAPI(t)
	api.payments.FailCharges(domain.PaymentStatusDeclined, payment.ErrDeclined)

	resp, _ := api.do(t, http.MethodPost, "/api/carts/v3/items", map[string]any{"product_id": "prod_002", "qty": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := api.do(t, http.MethodPost, "/api/carts/v3/checkout", nil)
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Equal(t, "payment_failed", errorKind(body))

	_, body = api.do(t, http.MethodGet, "/api/products/prod_002", nil)
	assert.EqualValues(t, 120, body["stock"])
}

func TestCheckout_IdempotencyKey(t *testing.T) {
	guard := idempotency.NewGuard(memory.NewIdempotencyRepository())
	api := newAPI(t, httpapi.WithIdempotency(guard))

	resp, _ := api.do(t, http.MethodPost, "/api/carts/v4/items", map[string]any{"product_id": "prod_004", "qty": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, first := api.do(t, http.MethodPost, "/api/carts/v4/checkout", nil, httpapi.IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, resp.Header.Get(httpapi.ReplayedHeader))

	resp, second := api.do(t, http.MethodPost, "/api/carts/v4/checkout", nil, httpapi.IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get(httpapi.ReplayedHeader))
	assert.Equal(t, first["id"], second["id"])

	charges, _ := api.payments.Calls()
	assert.Equal(t, 1, charges)

	resp, _ = api.do(t, http.MethodPost, "/api/carts/other/checkout", nil, httpapi.IdempotencyKeyHeader, "k-1")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp, body := api.do(t, http.MethodPost, "/api/carts/v4/checkout", nil, httpapi.IdempotencyKeyHeader, "k-2")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "cart_empty", errorKind(body))

	resp, body = api.do(t, http.MethodPost, "/api/carts/v4/checkout", nil, httpapi.IdempotencyKeyHeader, "k-2")
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "true", resp.Header.Get(httpapi.ReplayedHeader))
	assert.Equal(t, "cart_empty", errorKind(body))
}

func TestHealth(t *testing.T) {
	api := newAPI(t)
	resp, body := api.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])

	failing := newAPI(t, httpapi.WithReadiness(func(context.Context) error { return errors.New("db down") }))
	resp, body = failing.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "db down", body["error"])
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&domain.ProductNotFoundError{ProductID: "p"}, http.StatusNotFound},
		{&domain.CartNotFoundError{VisitorID: "v"}, http.StatusNotFound},
		{&domain.OrderNotFoundError{OrderID: "o"}, http.StatusNotFound},
		{&domain.InvalidQuantityError{Quantity: 0}, http.StatusBadRequest},
		{&domain.ValidationError{Field: "f"}, http.StatusBadRequest},
		{&domain.InsufficientStockError{ProductID: "p"}, http.StatusConflict},
		{&domain.CartEmptyError{}, http.StatusConflict},
		{&domain.InvalidTransitionError{}, http.StatusConflict},
		{&domain.PaymentFailedError{}, http.StatusPaymentRequired},
		{&domain.StorageError{Op: "x", Err: errors.New("boom")}, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, httpapi.StatusOf(tc.err), "%T", tc.err)
	}
}
