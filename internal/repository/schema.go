package repository

import (
	"context"
	"fmt"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		store_id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		inventory_id BIGSERIAL PRIMARY KEY,
		store_id BIGINT NOT NULL REFERENCES stores(store_id),
		product_id BIGINT NOT NULL REFERENCES products(product_id),
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		price NUMERIC(10,2) NOT NULL DEFAULT 0,
		UNIQUE (store_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sales_history (
		sale_id BIGSERIAL PRIMARY KEY,
		sale_date DATE NOT NULL,
		store_id BIGINT NOT NULL REFERENCES stores(store_id),
		product_id BIGINT NOT NULL REFERENCES products(product_id),
		quantity_sold INTEGER NOT NULL,
		on_sale BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_history_product_date ON sales_history (product_id, sale_date)`,
	`CREATE TABLE IF NOT EXISTS product_trend_mapping (
		product_id BIGINT PRIMARY KEY REFERENCES products(product_id),
		keyword TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trend_data (
		keyword TEXT NOT NULL,
		date DATE NOT NULL,
		interest INTEGER NOT NULL,
		PRIMARY KEY (keyword, date)
	)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS stores (
		store_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS inventory (
		inventory_id INTEGER PRIMARY KEY AUTOINCREMENT,
		store_id INTEGER NOT NULL REFERENCES stores(store_id),
		product_id INTEGER NOT NULL REFERENCES products(product_id),
		stock_quantity INTEGER NOT NULL DEFAULT 0 CHECK (stock_quantity >= 0),
		price NUMERIC(10,2) NOT NULL DEFAULT 0,
		UNIQUE (store_id, product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS sales_history (
		sale_id INTEGER PRIMARY KEY AUTOINCREMENT,
		sale_date DATE NOT NULL,
		store_id INTEGER NOT NULL REFERENCES stores(store_id),
		product_id INTEGER NOT NULL REFERENCES products(product_id),
		quantity_sold INTEGER NOT NULL,
		on_sale BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_history_product_date ON sales_history (product_id, sale_date)`,
	`CREATE TABLE IF NOT EXISTS product_trend_mapping (
		product_id INTEGER PRIMARY KEY REFERENCES products(product_id),
		keyword TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trend_data (
		keyword TEXT NOT NULL,
		date DATE NOT NULL,
		interest INTEGER NOT NULL,
		PRIMARY KEY (keyword, date)
	)`,
}

// Migrate creates the tables if they do not exist.
func Migrate(ctx context.Context, db *DB) error {
	stmts := postgresSchema
	if db.Dialect == DialectSQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d failed: %w", i+1, err)
		}
	}
	return nil
}
