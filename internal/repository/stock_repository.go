package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/metrics"
	"github.com/shopspring/decimal"
)

type stockRepository struct {
	db *DB
}

func NewStockRepository(db *DB) StockReader {
	return &stockRepository{db: db}
}

func (r *stockRepository) GetStock(ctx context.Context, scope domain.Scope) (domain.StockLevels, error) {
	defer metrics.TrackDBOperation("get_stock")(time.Now())

	query := `
		SELECT product_id, COALESCE(SUM(stock_quantity), 0) AS qty
		FROM inventory
		GROUP BY product_id
	`
	args := []interface{}{}
	if !scope.IsAll() {
		query = r.db.Rebind(`
			SELECT product_id, stock_quantity AS qty
			FROM inventory
			WHERE store_id = ?
		`)
		args = append(args, scope.StoreID)
	}

	var rows []struct {
		ProductID int64 `db:"product_id"`
		Qty       int   `db:"qty"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error getting stock for %s: %w", scope, err)
	}

	levels := make(domain.StockLevels, len(rows))
	for _, row := range rows {
		levels[row.ProductID] = row.Qty
	}
	return levels, nil
}

func (r *stockRepository) GetProductStock(ctx context.Context, scope domain.Scope, productID int64) (domain.ProductStock, error) {
	defer metrics.TrackDBOperation("get_product_stock")(time.Now())

	query := `
		SELECT COALESCE(SUM(stock_quantity), 0) AS qty, COALESCE(AVG(price), 0) AS price
		FROM inventory
		WHERE product_id = ?
	`
	args := []interface{}{productID}
	if !scope.IsAll() {
		query += ` AND store_id = ?`
		args = append(args, scope.StoreID)
	}

	var row struct {
		Qty   int             `db:"qty"`
		Price decimal.Decimal `db:"price"`
	}
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(query), args...); err != nil {
		return domain.ProductStock{}, fmt.Errorf("error getting stock of product %d for %s: %w", productID, scope, err)
	}

	return domain.ProductStock{Quantity: row.Qty, Price: row.Price.Round(2)}, nil
}
