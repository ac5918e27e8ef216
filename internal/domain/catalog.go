package domain

import "github.com/shopspring/decimal"

// Product is a sellable item in the shared catalog.
type Product struct {
	ID       int64  `json:"product_id" db:"product_id"`
	Name     string `json:"name" db:"name"`
	Category string `json:"category" db:"category"`
}

// Store is a single retail location.
type Store struct {
	ID      int64  `json:"store_id" db:"store_id"`
	Name    string `json:"name" db:"name"`
	Address string `json:"address,omitempty" db:"address"`
}

// TrendMapping maps a product to the keyword whose interest series drives
// its exogenous regressor. Products without an entry get no regressor.
type TrendMapping map[int64]string

// Keyword returns the mapped keyword and whether one exists.
func (m TrendMapping) Keyword(productID int64) (string, bool) {
	if m == nil {
		return "", false
	}
	kw, ok := m[productID]
	return kw, ok && kw != ""
}

// StockLevels holds on-hand quantity per product under one scope.
type StockLevels map[int64]int

// Of returns the quantity for a product. Missing rows count as zero stock.
func (s StockLevels) Of(productID int64) int {
	if s == nil {
		return 0
	}
	qty := s[productID]
	if qty < 0 {
		return 0
	}
	return qty
}

// ProductStock is the stock and unit price of one product under a scope.
// For the all-stores scope quantity is summed and price is averaged.
type ProductStock struct {
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}
