// internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
)

type CatalogReader interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID int64) (*domain.Product, error)
	GetTrendMapping(ctx context.Context) (domain.TrendMapping, error)
	ListStores(ctx context.Context) ([]domain.Store, error)
}

type StockReader interface {
	// GetStock returns on-hand quantity per product. The all-stores scope sums
	// every store; an unknown store yields an empty map.
	GetStock(ctx context.Context, scope domain.Scope) (domain.StockLevels, error)
	GetProductStock(ctx context.Context, scope domain.Scope, productID int64) (domain.ProductStock, error)
}

type SalesReader interface {
	// RecentSales returns daily sold quantity for the latest days with sales,
	// oldest first.
	RecentSales(ctx context.Context, scope domain.Scope, productID int64, days int) ([]domain.HistoryPoint, error)
}

type InventoryWriter interface {
	RecordSale(ctx context.Context, storeID int64, lines []domain.SaleLine, soldAt time.Time) (*domain.SaleReceipt, error)
	ReceiveShipment(ctx context.Context, storeID, productID int64, quantity int) (int, error)
}

type TrendWriter interface {
	SaveTrend(ctx context.Context, points []domain.TrendPoint) error
	SaveTrendMapping(ctx context.Context, productID int64, keyword string) error
}
