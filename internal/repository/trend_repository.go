package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/metrics"
	"github.com/jmoiron/sqlx"
)

type trendRepository struct {
	db *DB
}

func NewTrendRepository(db *DB) TrendWriter {
	return &trendRepository{db: db}
}

// SaveTrend upserts interest observations by (keyword, date).
func (r *trendRepository) SaveTrend(ctx context.Context, points []domain.TrendPoint) error {
	defer metrics.TrackDBOperation("save_trend")(time.Now())

	if len(points) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, tx.Rebind(`
			INSERT INTO trend_data (keyword, date, interest)
			VALUES (?, ?, ?)
			ON CONFLICT (keyword, date)
			DO UPDATE SET interest = excluded.interest
		`))
		if err != nil {
			return fmt.Errorf("error preparing trend insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			if _, err := stmt.ExecContext(ctx, p.Keyword, p.Date, p.Interest); err != nil {
				return fmt.Errorf("error saving trend %s on %s: %w", p.Keyword, p.Date.Format("2006-01-02"), err)
			}
		}
		return nil
	})
}

func (r *trendRepository) SaveTrendMapping(ctx context.Context, productID int64, keyword string) error {
	defer metrics.TrackDBOperation("save_trend_mapping")(time.Now())

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO product_trend_mapping (product_id, keyword)
		VALUES (?, ?)
		ON CONFLICT (product_id)
		DO UPDATE SET keyword = excluded.keyword
	`), productID, keyword)
	if err != nil {
		return fmt.Errorf("error mapping product %d to %q: %w", productID, keyword, err)
	}
	return nil
}
