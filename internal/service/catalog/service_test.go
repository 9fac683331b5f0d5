package catalog_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/catalog"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func newService(t *testing.T) (*catalog.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := catalog.NewService(store)
	require.NoError(t, svc.Seed(context.Background(), catalog.DemoProducts(time.Now().UTC())...))
	return svc, store
}

func TestCatalog_ListAndGet(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	products, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, len(catalog.DemoProducts(time.Now())))

	p, err := svc.Get(ctx, "prod_001")
	require.NoError(t, err)
	require.Equal(t, int64(7999), p.PriceMinor)
	require.Equal(t, int32(45), p.Stock)

	_, err = svc.Get(ctx, "prod_404")
	require.Equal(t, domain.KindProductNotFound, domain.KindOf(err))
}

func TestCatalog_Create(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, domain.ProductInput{Name: "Desk Lamp", PriceMinor: 3900, Stock: 7, Category: "Home"})
	require.NoError(t, err)
	require.Contains(t, string(p.ID), "prod-")

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, "Desk Lamp", got.Name)

	_, err = svc.Create(ctx, domain.ProductInput{Name: "", PriceMinor: 1, Category: "Home"})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	require.Equal(t, "name", vErr.Field)
}

func TestCatalog_UpdateStockAndRestock(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	p, err := svc.UpdateStock(ctx, "prod_003", 10)
	require.NoError(t, err)
	require.Equal(t, int32(10), p.Stock)

	p, err = svc.Restock(ctx, "prod_003", 5)
	require.NoError(t, err)
	require.Equal(t, int32(15), p.Stock)

	pending := store.AllPending()
	require.Len(t, pending, 2)
	var payload domain.StockEventPayload
	require.NoError(t, json.Unmarshal(pending[1].Payload, &payload))
	require.Equal(t, domain.EventStockChanged, pending[1].EventType)
	require.Equal(t, int32(5), payload.Delta)
	require.Equal(t, "restock", payload.Reason)
}

func TestCatalog_StockValidation(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()

	_, err := svc.UpdateStock(ctx, "prod_001", -1)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.Restock(ctx, "prod_001", 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.Restock(ctx, "prod_404", 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.UpdateStock(ctx, "prod_001", 2147483600)
	require.NoError(t, err)
	_, err = svc.Restock(ctx, "prod_001", 100)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	p, err := svc.Get(ctx, "prod_001")
	require.NoError(t, err)
	require.Equal(t, int32(2147483600), p.Stock)
	require.Len(t, store.AllPending(), 1)
}

func TestCatalog_StorageErrorsAreWrapped(t *testing.T) {
	svc, _ := newService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.List(ctx)
	require.Equal(t, domain.KindStorage, domain.KindOf(err))
	require.ErrorIs(t, err, context.Canceled)
}
