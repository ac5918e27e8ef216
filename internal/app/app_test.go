package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/andresuchdata/locallens/internal/config"
	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Storage: config.StorageConfig{Backend: "local", LocalDir: t.TempDir()},
		Forecast: config.ForecastConfig{
			HorizonDays:  14,
			StoreDivisor: 5,
			NoiseSeed:    7,
			HistoryDays:  30,
		},
	}
}

func TestNewWiresServices(t *testing.T) {
	ctx := context.Background()
	db, err := repository.NewDB(&config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "app.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(ctx, db))

	_, err = db.ExecContext(ctx, `INSERT INTO products (product_id, name, category) VALUES (1, 'Bread', 'Bakery')`)
	require.NoError(t, err)

	a, err := New(testConfig(t), db)
	require.NoError(t, err)

	// No model files exist, so the product is skipped rather than failing the run.
	report, err := a.Triage.RunTriage(ctx, domain.AllStores())
	require.NoError(t, err)
	assert.Empty(t, report.Rows)
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, domain.SkipModelUnavailable, report.Skipped[0].Reason)

	stores, err := a.Inventory.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)
}

func TestNewRejectsBadShapesFile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Forecast.ShapesFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(cfg, nil)
	assert.ErrorContains(t, err, "trend shapes")
}
