package triage

import (
	"math"
	"sort"

	"github.com/andresuchdata/locallens/internal/domain"
)

// RawDemand sums the forecast horizon, floored and never negative.
func RawDemand(result *domain.ForecastResult) int {
	var total float64
	for _, p := range result.Future() {
		total += p.YHat
	}
	return int(math.Floor(math.Max(0, total)))
}

// Aggregate builds one row per forecast product, ranked by shortfall
// descending then product id ascending. Skipped products produce no row.
func Aggregate(outcomes []domain.ForecastOutcome, stock domain.StockLevels, scope domain.Scope, alloc Allocator) []domain.TriageRow {
	rows := make([]domain.TriageRow, 0, len(outcomes))
	for _, out := range outcomes {
		if !out.OK() {
			continue
		}

		// 1. Demand over the horizon, allocated to the scope
		demand := alloc.Allocate(RawDemand(out.Result), scope)

		// 2. Stock under the same scope, zero when absent
		onHand := stock.Of(out.Product.ID)

		// 3. Shortfall = max(0, demand - stock)
		shortfall := demand - onHand
		if shortfall < 0 {
			shortfall = 0
		}

		rows = append(rows, domain.TriageRow{
			ProductID:        out.Product.ID,
			ProductName:      out.Product.Name,
			CurrentStock:     onHand,
			ForecastedDemand: demand,
			Shortfall:        shortfall,
		})
	}

	Rank(rows)
	return rows
}

// Rank orders rows by shortfall descending, product id ascending.
func Rank(rows []domain.TriageRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Shortfall != rows[j].Shortfall {
			return rows[i].Shortfall > rows[j].Shortfall
		}
		return rows[i].ProductID < rows[j].ProductID
	})
}

// RestockView keeps rows with a positive shortfall, preserving rank order.
func RestockView(rows []domain.TriageRow) []domain.TriageRow {
	out := make([]domain.TriageRow, 0, len(rows))
	for _, r := range rows {
		if r.Shortfall > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Select keeps rows whose product id is in ids. An empty ids list keeps all.
func Select(rows []domain.TriageRow, ids []int64) []domain.TriageRow {
	if len(ids) == 0 {
		return rows
	}
	want := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]domain.TriageRow, 0, len(ids))
	for _, r := range rows {
		if _, ok := want[r.ProductID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Skips collects the skip records of a batch.
func Skips(outcomes []domain.ForecastOutcome) []domain.Skip {
	skips := make([]domain.Skip, 0)
	for _, out := range outcomes {
		if out.Skip != nil {
			skips = append(skips, *out.Skip)
		}
	}
	return skips
}
