package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/metrics"
)

type catalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) CatalogReader {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	defer metrics.TrackDBOperation("list_products")(time.Now())

	query := `
		SELECT product_id, name, category
		FROM products
		ORDER BY product_id
	`

	products := []domain.Product{}
	if err := r.db.SelectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error listing products: %w", err)
	}
	return products, nil
}

func (r *catalogRepository) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	defer metrics.TrackDBOperation("get_product")(time.Now())

	query := r.db.Rebind(`
		SELECT product_id, name, category
		FROM products
		WHERE product_id = ?
	`)

	var p domain.Product
	err := r.db.GetContext(ctx, &p, query, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %d: %w", productID, domain.ErrProductNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting product %d: %w", productID, err)
	}
	return &p, nil
}

func (r *catalogRepository) GetTrendMapping(ctx context.Context) (domain.TrendMapping, error) {
	defer metrics.TrackDBOperation("get_trend_mapping")(time.Now())

	var rows []struct {
		ProductID int64  `db:"product_id"`
		Keyword   string `db:"keyword"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT product_id, keyword FROM product_trend_mapping`); err != nil {
		return nil, fmt.Errorf("error getting trend mapping: %w", err)
	}

	mapping := make(domain.TrendMapping, len(rows))
	for _, row := range rows {
		mapping[row.ProductID] = row.Keyword
	}
	return mapping, nil
}

func (r *catalogRepository) ListStores(ctx context.Context) ([]domain.Store, error) {
	defer metrics.TrackDBOperation("list_stores")(time.Now())

	stores := []domain.Store{}
	if err := r.db.SelectContext(ctx, &stores, `SELECT store_id, name, address FROM stores ORDER BY store_id`); err != nil {
		return nil, fmt.Errorf("error listing stores: %w", err)
	}
	return stores, nil
}
