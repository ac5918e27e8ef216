package main

import (
	"os"

	"github.com/andresuchdata/locallens/internal/config"
	"github.com/andresuchdata/locallens/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"
)

func newDBFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "db-url",
			Usage:   "Database connection string (defaults to the DB_* settings)",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "db-driver",
			Usage:   "Database driver: pgx, postgres or sqlite3",
			Value:   "pgx",
			EnvVars: []string{"DATABASE_DRIVER"},
		},
	}
}

func newStoreFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:  "store",
		Usage: "Store id, or ALL_STORES for the aggregated view",
		Value: "ALL_STORES",
	}
}

func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.Log.Level)

	app := &cli.App{
		Name:  "locallens",
		Usage: "Demand forecasting and inventory triage",
		Flags: newDBFlags(),
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the database schema",
				Action: runMigrate,
			},
			{
				Name:  "seed",
				Usage: "Load stores, products, inventory and trend mappings from CSV files",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "data-dir",
						Usage:   "Directory containing the catalog CSV files",
						Value:   "./data/seeds",
						EnvVars: []string{"SEED_DATA_DIR"},
					},
				},
				Action: runSeed,
			},
			{
				Name:  "triage",
				Usage: "Forecast every product and print the restock list",
				Flags: []cli.Flag{
					newStoreFlag(),
					&cli.BoolFlag{Name: "all", Usage: "Print every row, not only products that need restocking"},
				},
				Action: runTriage,
			},
			{
				Name:  "burndown",
				Usage: "Simulate the stock burn-down of one product",
				Flags: []cli.Flag{
					newStoreFlag(),
					&cli.Int64Flag{Name: "product-id", Required: true},
				},
				Action: runBurnDown,
			},
			{
				Name:  "export",
				Usage: "Write the restock list as CSV or XLSX",
				Flags: []cli.Flag{
					newStoreFlag(),
					&cli.StringFlag{Name: "format", Value: "csv", Usage: "csv or xlsx"},
					&cli.StringFlag{Name: "out", Usage: "Output file (defaults to stdout)"},
					&cli.StringFlag{Name: "product-ids", Usage: "Comma separated ids to export instead of the restock list"},
				},
				Action: runExport,
			},
			{
				Name:  "models",
				Usage: "Manage forecast model artifacts",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List product ids with a stored model",
						Action: runModelsList,
					},
					{
						Name:  "push",
						Usage: "Validate and upload a model artifact",
						Flags: []cli.Flag{
							&cli.Int64Flag{Name: "product-id", Required: true},
							&cli.StringFlag{Name: "file", Required: true, Usage: "Path to the JSON artifact"},
						},
						Action: runModelsPush,
					},
					{
						Name:  "pull",
						Usage: "Download a stored model artifact",
						Flags: []cli.Flag{
							&cli.Int64Flag{Name: "product-id", Required: true},
							&cli.StringFlag{Name: "out", Required: true, Usage: "Destination path"},
						},
						Action: runModelsPull,
					},
				},
			},
			{
				Name:  "trends",
				Usage: "Manage keyword interest data",
				Subcommands: []*cli.Command{
					{
						Name:  "backfill",
						Usage: "Synthesize and store daily interest for every mapped keyword",
						Flags: []cli.Flag{
							&cli.TimestampFlag{Name: "from", Layout: dateLayout, Required: true},
							&cli.TimestampFlag{Name: "to", Layout: dateLayout, Required: true},
						},
						Action: runBackfill,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}
