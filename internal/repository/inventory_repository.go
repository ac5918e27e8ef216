package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/metrics"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type inventoryRepository struct {
	db *DB
}

// InventoryRepository reads sales history and applies stock movements.
type InventoryRepository interface {
	SalesReader
	InventoryWriter
}

func NewInventoryRepository(db *DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) RecentSales(ctx context.Context, scope domain.Scope, productID int64, days int) ([]domain.HistoryPoint, error) {
	defer metrics.TrackDBOperation("recent_sales")(time.Now())

	if days <= 0 {
		days = 30
	}

	query := `
		SELECT sale_date, SUM(quantity_sold) AS qty
		FROM sales_history
		WHERE product_id = ?
	`
	args := []interface{}{productID}
	if !scope.IsAll() {
		query += ` AND store_id = ?`
		args = append(args, scope.StoreID)
	}
	query += `
		GROUP BY sale_date
		ORDER BY sale_date DESC
		LIMIT ?
	`
	args = append(args, days)

	points := []domain.HistoryPoint{}
	if err := r.db.SelectContext(ctx, &points, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("error getting sales of product %d: %w", productID, err)
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points, nil
}

// RecordSale applies every line of a sale atomically: either all stock is
// decremented and logged, or nothing changes.
func (r *inventoryRepository) RecordSale(ctx context.Context, storeID int64, lines []domain.SaleLine, soldAt time.Time) (*domain.SaleReceipt, error) {
	defer metrics.TrackDBOperation("record_sale")(time.Now())

	if len(lines) == 0 {
		return nil, fmt.Errorf("sale has no lines: %w", domain.ErrInvalidQuantity)
	}

	receipt := &domain.SaleReceipt{
		StoreID:    storeID,
		Lines:      make([]domain.ReceiptLine, 0, len(lines)),
		GrandTotal: decimal.Zero,
		SoldAt:     soldAt,
	}
	saleDate := time.Date(soldAt.Year(), soldAt.Month(), soldAt.Day(), 0, 0, 0, 0, time.UTC)

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, line := range lines {
			if line.Quantity <= 0 {
				return fmt.Errorf("product %d: %w", line.ProductID, domain.ErrInvalidQuantity)
			}

			var row struct {
				Qty   int             `db:"stock_quantity"`
				Price decimal.Decimal `db:"price"`
			}
			err := tx.GetContext(ctx, &row, tx.Rebind(`
				SELECT stock_quantity, price
				FROM inventory
				WHERE store_id = ? AND product_id = ?
			`), storeID, line.ProductID)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("product %d is not stocked at store %d: %w", line.ProductID, storeID, domain.ErrInsufficientStock)
			}
			if err != nil {
				return fmt.Errorf("error reading stock of product %d: %w", line.ProductID, err)
			}
			if row.Qty < line.Quantity {
				return fmt.Errorf("product %d: %d requested, %d on hand: %w", line.ProductID, line.Quantity, row.Qty, domain.ErrInsufficientStock)
			}

			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				UPDATE inventory
				SET stock_quantity = stock_quantity - ?
				WHERE store_id = ? AND product_id = ?
			`), line.Quantity, storeID, line.ProductID); err != nil {
				return fmt.Errorf("error decrementing stock of product %d: %w", line.ProductID, err)
			}

			if _, err := tx.ExecContext(ctx, tx.Rebind(`
				INSERT INTO sales_history (sale_date, store_id, product_id, quantity_sold, on_sale)
				VALUES (?, ?, ?, ?, ?)
			`), saleDate, storeID, line.ProductID, line.Quantity, false); err != nil {
				return fmt.Errorf("error logging sale of product %d: %w", line.ProductID, err)
			}

			price := row.Price.Round(2)
			total := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
			receipt.Lines = append(receipt.Lines, domain.ReceiptLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitPrice: price,
				Total:     total,
			})
			receipt.GrandTotal = receipt.GrandTotal.Add(total)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (r *inventoryRepository) ReceiveShipment(ctx context.Context, storeID, productID int64, quantity int) (int, error) {
	defer metrics.TrackDBOperation("receive_shipment")(time.Now())

	if quantity <= 0 {
		return 0, fmt.Errorf("shipment of product %d: %w", productID, domain.ErrInvalidQuantity)
	}

	var onHand int
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO inventory (store_id, product_id, stock_quantity, price)
			VALUES (?, ?, ?, 0)
			ON CONFLICT (store_id, product_id)
			DO UPDATE SET stock_quantity = inventory.stock_quantity + excluded.stock_quantity
		`), storeID, productID, quantity); err != nil {
			return fmt.Errorf("error receiving product %d: %w", productID, err)
		}

		return tx.GetContext(ctx, &onHand, tx.Rebind(`
			SELECT stock_quantity FROM inventory WHERE store_id = ? AND product_id = ?
		`), storeID, productID)
	})
	if err != nil {
		return 0, err
	}
	return onHand, nil
}
