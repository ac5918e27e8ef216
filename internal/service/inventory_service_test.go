package service

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/trend"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventory struct {
	sales     [][]domain.SaleLine
	shipments int
}

func (f *fakeInventory) RecordSale(ctx context.Context, storeID int64, lines []domain.SaleLine, soldAt time.Time) (*domain.SaleReceipt, error) {
	f.sales = append(f.sales, lines)
	receipt := &domain.SaleReceipt{StoreID: storeID, SoldAt: soldAt, GrandTotal: decimal.Zero}
	for _, l := range lines {
		total := decimal.NewFromInt(int64(l.Quantity))
		receipt.Lines = append(receipt.Lines, domain.ReceiptLine{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: decimal.NewFromInt(1), Total: total})
		receipt.GrandTotal = receipt.GrandTotal.Add(total)
	}
	return receipt, nil
}

func (f *fakeInventory) ReceiveShipment(ctx context.Context, storeID, productID int64, quantity int) (int, error) {
	f.shipments += quantity
	return f.shipments, nil
}

func newInventoryService() (*InventoryService, *fakeInventory) {
	catalog := &fakeCatalog{
		products: []domain.Product{{ID: 1, Name: "A"}},
		stores:   []domain.Store{{ID: 1, Name: "Downtown"}},
	}
	inv := &fakeInventory{}
	svc := NewInventoryService(catalog, inv)
	svc.now = func() time.Time { return fixedNow }
	return svc, inv
}

func TestRecordSale(t *testing.T) {
	svc, inv := newInventoryService()

	receipt, err := svc.RecordSale(context.Background(), 1, []domain.SaleLine{{ProductID: 1, Quantity: 3}})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, receipt.SoldAt)
	assert.True(t, decimal.NewFromInt(3).Equal(receipt.GrandTotal))
	assert.Len(t, inv.sales, 1)
}

func TestRecordSaleValidation(t *testing.T) {
	svc, inv := newInventoryService()

	_, err := svc.RecordSale(context.Background(), 9, []domain.SaleLine{{ProductID: 1, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)

	_, err = svc.RecordSale(context.Background(), 1, []domain.SaleLine{{ProductID: 1, Quantity: -1}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Empty(t, inv.sales)
}

func TestReceiveShipment(t *testing.T) {
	svc, _ := newInventoryService()
	ctx := context.Background()

	onHand, err := svc.ReceiveShipment(ctx, 1, 1, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, onHand)

	_, err = svc.ReceiveShipment(ctx, 1, 5, 12)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.ReceiveShipment(ctx, 2, 1, 12)
	assert.ErrorIs(t, err, domain.ErrStoreNotFound)

	_, err = svc.ReceiveShipment(ctx, 1, 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestListStores(t *testing.T) {
	svc, _ := newInventoryService()
	stores, err := svc.ListStores(context.Background())
	require.NoError(t, err)
	assert.Len(t, stores, 1)
}

type fakeTrendWriter struct {
	points []domain.TrendPoint
}

func (f *fakeTrendWriter) SaveTrend(ctx context.Context, points []domain.TrendPoint) error {
	f.points = append(f.points, points...)
	return nil
}

func (f *fakeTrendWriter) SaveTrendMapping(ctx context.Context, productID int64, keyword string) error {
	return nil
}

func TestBackfillUsesSharedSynthesizer(t *testing.T) {
	catalog := &fakeCatalog{trends: domain.TrendMapping{1: "Turkey Breast", 2: "Turkey Breast", 3: "Spinach", 4: ""}}
	writer := &fakeTrendWriter{}
	synth := trend.NewSynthesizer(trend.DefaultTable(), nil, 0)
	svc := NewTrendService(catalog, writer, synth)

	from := time.Date(2024, 11, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2024, 11, 30, 0, 0, 0, 0, time.UTC)
	written, err := svc.Backfill(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, 60, written)
	require.Len(t, writer.points, 60)

	// Same synthesizer, same dates: the training regressor matches what the
	// forecast frame would see.
	var dates []time.Time
	for i := 0; i < 30; i++ {
		dates = append(dates, time.Date(2024, 11, 1+i, 0, 0, 0, 0, time.UTC))
	}
	expected := synth.Synthesize(dates, "Spinach")
	for i, p := range writer.points[:30] {
		assert.Equal(t, "Spinach", p.Keyword)
		assert.Equal(t, expected[i], p.Interest)
		assert.Equal(t, dates[i], p.Date)
	}
	assert.Equal(t, "Turkey Breast", writer.points[30].Keyword)

	_, err = svc.Backfill(context.Background(), to, from)
	assert.Error(t, err)
}
