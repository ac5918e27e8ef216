package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleLine is one item of a point-of-sale transaction.
type SaleLine struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
}

// SaleReceipt is returned after a sale is recorded.
type SaleReceipt struct {
	StoreID    int64           `json:"store_id"`
	Lines      []ReceiptLine   `json:"lines"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	SoldAt     time.Time       `json:"sold_at"`
}

// ReceiptLine prices one sold item.
type ReceiptLine struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// TrendPoint is one stored interest observation for a keyword.
type TrendPoint struct {
	Keyword  string    `json:"keyword" db:"keyword"`
	Date     time.Time `json:"date" db:"date"`
	Interest int       `json:"interest" db:"interest"`
}
