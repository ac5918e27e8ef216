package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/andresuchdata/locallens/internal/app"
	"github.com/andresuchdata/locallens/internal/config"
	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/andresuchdata/locallens/internal/repository"
	"github.com/andresuchdata/locallens/pkg/logger"
	"github.com/urfave/cli/v2"
)

const dateLayout = "2006-01-02"

func openDB(c *cli.Context) (*repository.DB, error) {
	if url := c.String("db-url"); url != "" {
		driver := c.String("db-driver")
		if driver == "sqlite" {
			driver = "sqlite3"
		}
		return repository.Open(driver, url)
	}
	return repository.NewDB(&config.Load().Database)
}

// withApp opens the database, builds the services and closes the database
// once fn returns.
func withApp(c *cli.Context, fn func(a *app.App) error) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := app.New(config.Load(), db)
	if err != nil {
		return err
	}
	return fn(a)
}

func runMigrate(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(c.Context, db); err != nil {
		return err
	}
	logger.Log.Info().Str("dialect", db.Dialect).Msg("schema is up to date")
	return nil
}

func runSeed(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.Migrate(c.Context, db); err != nil {
		return err
	}
	counts, err := repository.SeedCatalog(c.Context, db, c.String("data-dir"))
	if err != nil {
		return err
	}
	for table, n := range counts {
		fmt.Fprintf(c.App.Writer, "%s: %d rows\n", table, n)
	}
	return nil
}

func runTriage(c *cli.Context) error {
	scope, err := domain.ParseScope(c.String("store"))
	if err != nil {
		return err
	}

	return withApp(c, func(a *app.App) error {
		report, err := a.Triage.RunTriage(c.Context, scope)
		if err != nil {
			return err
		}
		if report.NoData {
			fmt.Fprintln(c.App.Writer, "no products in catalog")
			return nil
		}

		rows := report.Restock
		if c.Bool("all") {
			rows = report.Rows
		}
		printRows(c.App.Writer, rows)
		for _, skip := range report.Skipped {
			fmt.Fprintf(c.App.ErrWriter, "skipped %d (%s): %s\n", skip.ProductID, skip.ProductName, skip.Reason)
		}
		return nil
	})
}

func printRows(w io.Writer, rows []domain.TriageRow) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCT\tSTOCK\tDEMAND\tSHORTFALL")
	for _, r := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", r.ProductID, r.ProductName, r.CurrentStock, r.ForecastedDemand, r.Shortfall)
	}
	tw.Flush()
}

func runBurnDown(c *cli.Context) error {
	scope, err := domain.ParseScope(c.String("store"))
	if err != nil {
		return err
	}

	return withApp(c, func(a *app.App) error {
		bd, err := a.Triage.GetBurnDown(c.Context, c.Int64("product-id"), scope)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(bd)
	})
}

func runExport(c *cli.Context) error {
	scope, err := domain.ParseScope(c.String("store"))
	if err != nil {
		return err
	}
	ids, err := parseIDs(c.String("product-ids"))
	if err != nil {
		return err
	}

	var w io.Writer = c.App.Writer
	if out := c.String("out"); out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		defer f.Close()
		w = f
	}

	return withApp(c, func(a *app.App) error {
		return a.Triage.ExportRestock(c.Context, scope, ids, strings.ToLower(c.String("format")), w)
	})
}

func runBackfill(c *cli.Context) error {
	from, to := c.Timestamp("from"), c.Timestamp("to")

	return withApp(c, func(a *app.App) error {
		n, err := a.Trends.Backfill(c.Context, *from, *to)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "stored %d trend points\n", n)
		return nil
	})
}

func runModelsList(c *cli.Context) error {
	models, err := app.NewModelRepository(config.Load())
	if err != nil {
		return err
	}
	ids, err := models.Available(c.Context)
	if err != nil {
		return err
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fmt.Fprintln(c.App.Writer, id)
	}
	return nil
}

func runModelsPush(c *cli.Context) error {
	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read artifact: %w", err)
	}
	models, err := app.NewModelRepository(config.Load())
	if err != nil {
		return err
	}
	return models.Publish(c.Context, c.Int64("product-id"), data)
}

func runModelsPull(c *cli.Context) error {
	models, err := app.NewModelRepository(config.Load())
	if err != nil {
		return err
	}
	return models.Fetch(c.Context, c.Int64("product-id"), c.String("out"))
}

func parseIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid product id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
