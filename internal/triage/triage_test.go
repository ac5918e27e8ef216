package triage

import (
	"bytes"
	"testing"
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// outcome builds a forecast whose 14-day horizon sums to total, preceded by
// history points that must be ignored.
func outcome(id int64, name string, total float64) domain.ForecastOutcome {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]domain.ForecastPoint, 0, 24)
	for i := 0; i < 10; i++ {
		points = append(points, domain.ForecastPoint{Date: start.AddDate(0, 0, i), YHat: 1000})
	}
	for i := 0; i < 14; i++ {
		points = append(points, domain.ForecastPoint{Date: start.AddDate(0, 0, 10+i)})
	}
	points[len(points)-1].YHat = total
	p := domain.Product{ID: id, Name: name}
	return domain.ForecastOutcome{
		Product: p,
		Result:  &domain.ForecastResult{ProductID: id, Horizon: 14, Points: points},
	}
}

func skippedOutcome(id int64) domain.ForecastOutcome {
	return domain.ForecastOutcome{
		Product: domain.Product{ID: id},
		Skip:    &domain.Skip{ProductID: id, Reason: domain.SkipModelUnavailable},
	}
}

func TestEndToEndRestock(t *testing.T) {
	outcomes := []domain.ForecastOutcome{outcome(2, "B", 25), outcome(1, "A", 25)}
	stock := domain.StockLevels{1: 10, 2: 40}

	rows := Aggregate(outcomes, stock, domain.AllStores(), NewAllocator(0))
	require.Len(t, rows, 2)
	assert.Equal(t, domain.TriageRow{ProductID: 1, ProductName: "A", CurrentStock: 10, ForecastedDemand: 25, Shortfall: 15}, rows[0])
	assert.Equal(t, domain.TriageRow{ProductID: 2, ProductName: "B", CurrentStock: 40, ForecastedDemand: 25, Shortfall: 0}, rows[1])

	restock := RestockView(rows)
	require.Len(t, restock, 1)
	assert.Equal(t, "A", restock[0].ProductName)
}

func TestAllocatorFloorsSingleStoreDemand(t *testing.T) {
	alloc := NewAllocator(DefaultStoreDivisor)

	assert.Equal(t, 100, alloc.Allocate(100, domain.AllStores()))
	assert.Equal(t, 20, alloc.Allocate(100, domain.StoreScope(3)))
	assert.Equal(t, 20, alloc.Allocate(104, domain.StoreScope(3)))
	assert.Equal(t, 0, alloc.Allocate(4, domain.StoreScope(3)))
	assert.Equal(t, 50, NewAllocator(2).Allocate(100, domain.StoreScope(3)))
	assert.Equal(t, 20, Allocator{}.Allocate(100, domain.StoreScope(3)))
}

func TestAggregateSingleStoreScope(t *testing.T) {
	rows := Aggregate([]domain.ForecastOutcome{outcome(1, "A", 100)}, domain.StockLevels{1: 5}, domain.StoreScope(4), NewAllocator(5))
	require.Len(t, rows, 1)
	assert.Equal(t, 20, rows[0].ForecastedDemand)
	assert.Equal(t, 15, rows[0].Shortfall)
}

func TestAggregateOrderingAndInvariants(t *testing.T) {
	outcomes := []domain.ForecastOutcome{
		outcome(5, "E", 30),
		outcome(3, "C", 30),
		skippedOutcome(9),
		outcome(4, "D", 70),
		outcome(1, "A", -14),
		outcome(2, "B", 10),
	}
	stock := domain.StockLevels{2: 100, 4: 20, 3: 10, 5: 10, 1: -3}

	rows := Aggregate(outcomes, stock, domain.AllStores(), NewAllocator(0))
	require.Len(t, rows, 5)

	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ProductID
		assert.GreaterOrEqual(t, r.Shortfall, 0)
		assert.GreaterOrEqual(t, r.ForecastedDemand, 0)
		expected := r.ForecastedDemand - r.CurrentStock
		if expected < 0 {
			expected = 0
		}
		assert.Equal(t, expected, r.Shortfall)
	}
	// D=50, C=20, E=20 (tie by id), then A=0, B=0 (tie by id).
	assert.Equal(t, []int64{4, 3, 5, 1, 2}, ids)

	restock := RestockView(rows)
	require.Len(t, restock, 3)
	for i := 1; i < len(restock); i++ {
		assert.GreaterOrEqual(t, restock[i-1].Shortfall, restock[i].Shortfall)
	}
}

func TestRawDemandUsesOnlyHorizon(t *testing.T) {
	assert.Equal(t, 25, RawDemand(outcome(1, "A", 25.9).Result))
	assert.Equal(t, 0, RawDemand(outcome(1, "A", -5).Result))
}

func TestSkippedProductsProduceNoRows(t *testing.T) {
	outcomes := []domain.ForecastOutcome{skippedOutcome(1)}
	rows := Aggregate(outcomes, domain.StockLevels{1: 3}, domain.AllStores(), NewAllocator(0))
	assert.Empty(t, rows)
	assert.Len(t, Skips(outcomes), 1)
}

func TestSelect(t *testing.T) {
	rows := []domain.TriageRow{{ProductID: 1}, {ProductID: 2}, {ProductID: 3}}
	assert.Len(t, Select(rows, nil), 3)
	picked := Select(rows, []int64{3, 1, 99})
	require.Len(t, picked, 2)
	assert.Equal(t, int64(1), picked[0].ProductID)
	assert.Equal(t, int64(3), picked[1].ProductID)
}

func TestWriteCSV(t *testing.T) {
	rows := []domain.TriageRow{
		{ProductID: 1, ProductName: "Turkey Breast", CurrentStock: 10, ForecastedDemand: 25, Shortfall: 15},
		{ProductID: 2, ProductName: "Crème, fraîche", CurrentStock: 1, ForecastedDemand: 3, Shortfall: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, rows))
	assert.Equal(t,
		"product_name,current_stock,forecasted_demand,shortfall\n"+
			"Turkey Breast,10,25,15\n"+
			"\"Crème, fraîche\",1,3,2\n",
		buf.String())
}

func TestWriteXLSX(t *testing.T) {
	rows := []domain.TriageRow{{ProductID: 1, ProductName: "Turkey Breast", CurrentStock: 10, ForecastedDemand: 25, Shortfall: 15}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatXLSX, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ExportColumns, got[0])
	assert.Equal(t, []string{"Turkey Breast", "10", "25", "15"}, got[1])
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "pdf", nil))
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(FormatCSV))
}
