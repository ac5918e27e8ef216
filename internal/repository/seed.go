package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/locallens/internal/metrics"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// seedTable describes one catalog CSV and the table it upserts into.
type seedTable struct {
	file      string
	table     string
	columns   []string
	conflict  []string
	updatable []string
}

// Load order follows the foreign keys.
var catalogSeeds = []seedTable{
	{file: "stores.csv", table: "stores", columns: []string{"store_id", "name", "address"}, conflict: []string{"store_id"}, updatable: []string{"name", "address"}},
	{file: "products.csv", table: "products", columns: []string{"product_id", "name", "category"}, conflict: []string{"product_id"}, updatable: []string{"name", "category"}},
	{file: "inventory.csv", table: "inventory", columns: []string{"store_id", "product_id", "stock_quantity", "price"}, conflict: []string{"store_id", "product_id"}, updatable: []string{"stock_quantity", "price"}},
	{file: "product_trend_mapping.csv", table: "product_trend_mapping", columns: []string{"product_id", "keyword"}, conflict: []string{"product_id"}, updatable: []string{"keyword"}},
}

// SeedCatalog upserts stores, products, inventory and trend mappings from
// CSV files in dir inside one transaction. Missing files are skipped.
// It returns the number of rows written per table.
func SeedCatalog(ctx context.Context, db *DB, dir string) (map[string]int, error) {
	defer metrics.TrackDBOperation("seed_catalog")(time.Now())

	counts := make(map[string]int)
	err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, seed := range catalogSeeds {
			path := filepath.Join(dir, seed.file)
			f, err := os.Open(path)
			if errors.Is(err, os.ErrNotExist) {
				log.Debug().Str("file", path).Msg("seed file not found, skipping")
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}

			n, err := seedFromCSV(ctx, tx, seed, f)
			f.Close()
			if err != nil {
				return fmt.Errorf("failed to seed %s: %w", seed.table, err)
			}
			counts[seed.table] = n
			log.Info().Str("table", seed.table).Int("rows", n).Msg("seeded")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func seedFromCSV(ctx context.Context, tx *sqlx.Tx, seed seedTable, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make([]int, len(seed.columns))
	for i, col := range seed.columns {
		index[i] = columnIndex(header, col)
		if index[i] < 0 {
			return 0, fmt.Errorf("missing column %q", col)
		}
	}

	stmt, err := tx.PreparexContext(ctx, tx.Rebind(upsertQuery(seed)))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("failed to read CSV record: %w", err)
		}

		args := make([]interface{}, len(index))
		for i, idx := range index {
			if idx >= len(record) {
				return rows, fmt.Errorf("record %d has %d columns", rows+1, len(record))
			}
			args[i] = strings.TrimSpace(record[idx])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return rows, fmt.Errorf("failed to insert record %d: %w", rows+1, err)
		}
		rows++
	}
	return rows, nil
}

func upsertQuery(seed seedTable) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(seed.columns)), ", ")
	updates := make([]string, len(seed.updatable))
	for i, col := range seed.updatable {
		updates[i] = fmt.Sprintf("%s = excluded.%s", col, col)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		seed.table,
		strings.Join(seed.columns, ", "),
		placeholders,
		strings.Join(seed.conflict, ", "),
		strings.Join(updates, ", "),
	)
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
