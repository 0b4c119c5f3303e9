package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/andresuchdata/setledger-ai/internal/config"
	"github.com/andresuchdata/setledger-ai/internal/forecast"
	"github.com/andresuchdata/setledger-ai/internal/pricing"
	"github.com/andresuchdata/setledger-ai/internal/repository"
	"github.com/andresuchdata/setledger-ai/internal/repository/backendapi"
	"github.com/andresuchdata/setledger-ai/internal/repository/postgres"
	"github.com/andresuchdata/setledger-ai/internal/service"
	"github.com/andresuchdata/setledger-ai/internal/storage"
	"github.com/andresuchdata/setledger-ai/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v2"
)

// runner holds the connections opened in Before and released in After
type runner struct {
	cfg    *config.Config
	db     *postgres.DB
	data   repository.DataSource
	limits service.Limits
}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (pgx); when empty only the backend API is used",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func newOrgFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "org",
		Usage:    "Organization to analyze",
		Required: true,
		EnvVars:  []string{"FORECAST_ORG_ID"},
	}
}

func newProductsFlag() *cli.StringSliceFlag {
	return &cli.StringSliceFlag{
		Name:  "product",
		Usage: "Product id to include (repeatable); defaults to every active product",
	}
}

func newExportFlag() *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:  "export",
		Usage: "Upload the JSON report to object storage",
	}
}

func main() {
	r := &runner{cfg: config.Load()}

	app := &cli.App{
		Name:  "forecast",
		Usage: "Run stock depletion and pricing analyses for an organization",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:    "backend-url",
				Usage:   "Backend REST API used when the database is unavailable",
				Value:   r.cfg.Backend.URL,
				EnvVars: []string{"DATA_BACKEND_URL"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   r.cfg.Log.Level,
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Products analyzed concurrently",
				Value: r.cfg.Forecast.BulkWorkers,
			},
		},
		Before: r.open,
		After:  r.close,
		Commands: []*cli.Command{
			{
				Name:  "depletion",
				Usage: "Predict stock depletion for up to the bulk limit of products",
				Flags: []cli.Flag{
					newOrgFlag(),
					newProductsFlag(),
					newExportFlag(),
					&cli.BoolFlag{
						Name:  "persist",
						Usage: "Record the run in the depletion_runs tables",
					},
				},
				Action: r.depletion,
			},
			{
				Name:  "pricing",
				Usage: "Recommend prices for up to the bulk limit of products",
				Flags: []cli.Flag{
					newOrgFlag(),
					newProductsFlag(),
					newExportFlag(),
				},
				Action: r.pricing,
			},
			{
				Name:  "trends",
				Usage: "Bucket active products by days of stock remaining",
				Flags: []cli.Flag{
					newOrgFlag(),
					newExportFlag(),
				},
				Action: r.trends,
			},
			{
				Name:  "fetch-report",
				Usage: "Download the latest exported report of a kind",
				Flags: []cli.Flag{
					newOrgFlag(),
					&cli.StringFlag{
						Name:     "kind",
						Usage:    "Report kind (depletion, pricing, trends)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "out",
						Usage: "Destination file",
						Value: "report.json",
					},
				},
				Action: r.fetchReport,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("forecast failed")
	}
}

func (r *runner) open(c *cli.Context) error {
	logger.Setup(c.String("log-level"), r.cfg.Log.Format)

	r.limits = service.LimitsFromConfig(r.cfg.Forecast)
	if workers := c.Int("workers"); workers > 0 {
		r.limits.Workers = workers
	}

	backend := backendapi.New(c.String("backend-url"), r.cfg.Backend.Timeout)
	dbURL := c.String("db-url")
	if dbURL == "" {
		r.data = repository.NewFallbackDataSource(nil, backend)
		return nil
	}

	db, err := postgres.Open("pgx", dbURL, r.limits.Workers)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	r.db = db
	r.data = repository.NewFallbackDataSource(postgres.NewDataSource(db), backend)
	return nil
}

func (r *runner) close(c *cli.Context) error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *runner) predictionService() *service.PredictionService {
	return service.NewPredictionService(r.data, forecast.NewForecaster(), nil, r.limits)
}

func (r *runner) depletion(c *cli.Context) error {
	orgID := c.String("org")
	report, err := r.predictionService().BulkDepletion(c.Context, orgID, c.StringSlice("product"))
	if err != nil {
		return fmt.Errorf("bulk depletion: %w", err)
	}

	if c.Bool("persist") {
		if r.db == nil {
			return fmt.Errorf("--persist requires --db-url")
		}
		var recorder repository.RunRecorder = postgres.NewRunRepository(r.db)
		runID, err := recorder.RecordDepletionRun(c.Context, orgID, report.Predictions)
		if err != nil {
			return fmt.Errorf("persist depletion run: %w", err)
		}
		logger.Log.Info().Int64("run_id", runID).Int("products", report.TotalProducts).Msg("Depletion run recorded")
	}

	return r.emit(c, "depletion", orgID, report)
}

func (r *runner) pricing(c *cli.Context) error {
	orgID := c.String("org")
	svc := service.NewPricingService(r.data, pricing.NewOptimizer(), nil, r.limits)
	report, err := svc.BulkPricing(c.Context, orgID, c.StringSlice("product"))
	if err != nil {
		return fmt.Errorf("bulk pricing: %w", err)
	}
	return r.emit(c, "pricing", orgID, report)
}

func (r *runner) trends(c *cli.Context) error {
	orgID := c.String("org")
	report, err := r.predictionService().StockTrends(c.Context, orgID)
	if err != nil {
		return fmt.Errorf("stock trends: %w", err)
	}
	return r.emit(c, "trends", orgID, report)
}

// emit prints the report and, with --export, uploads it
func (r *runner) emit(c *cli.Context, kind, orgID string, report any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if !c.Bool("export") {
		return nil
	}

	store, err := storage.NewMinioClient(c.Context, r.cfg.Storage)
	if err != nil {
		return fmt.Errorf("open object storage: %w", err)
	}
	key, err := storage.ExportReport(c.Context, store, kind, orgID, report, time.Now())
	if err != nil {
		return fmt.Errorf("export report: %w", err)
	}

	logger.Log.Info().Str("key", key).Str("bucket", r.cfg.Storage.Bucket).Msg("Report exported")
	return nil
}

func (r *runner) fetchReport(c *cli.Context) error {
	store, err := storage.NewMinioClient(c.Context, r.cfg.Storage)
	if err != nil {
		return fmt.Errorf("open object storage: %w", err)
	}

	key, err := storage.LatestReport(c.Context, store, c.String("kind"), c.String("org"))
	if err != nil {
		return fmt.Errorf("list reports: %w", err)
	}
	if key == "" {
		return fmt.Errorf("no %s report found for %s", c.String("kind"), c.String("org"))
	}

	if err := store.DownloadObject(c.Context, key, c.String("out")); err != nil {
		return err
	}

	logger.Log.Info().Str("key", key).Str("out", c.String("out")).Msg("Report downloaded")
	return nil
}
