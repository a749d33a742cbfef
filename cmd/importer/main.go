package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"catalog-migrate/internal/catalog"
	"catalog-migrate/internal/config"
	"catalog-migrate/internal/importer"
	"catalog-migrate/internal/metrics"
	"catalog-migrate/internal/repository/product"
	productsvc "catalog-migrate/internal/service/product"
)

type flags struct {
	csvPath  string
	size     int
	dryRun   bool
	strict   bool
	verbose  bool
	encoding string
	kind     string
	dsn      string
	sample   int
	metrics  string
}

func main() {
	var f flags
	flag.StringVar(&f.csvPath, "csv", "catalog_products.csv", "Path to the CSV snapshot")
	flag.IntVar(&f.size, "size", importer.DefaultBatchSize, "Products per insert request")
	flag.BoolVar(&f.dryRun, "dry-run", false, "Coerce and batch without contacting the destination")
	flag.BoolVar(&f.strict, "strict", false, "Skip rows missing a required field")
	flag.BoolVar(&f.verbose, "v", false, "Log every coercion issue")
	flag.StringVar(&f.encoding, "encoding", "", "Input charset, e.g. windows-1252 (default UTF-8)")
	flag.StringVar(&f.kind, "kind", "", "Destination kind: postgrest, postgres, sqlite or mssql (overrides DESTINATION_KIND)")
	flag.StringVar(&f.dsn, "dsn", "", "DSN for postgres, sqlite or mssql destinations (overrides DB_DSN)")
	flag.IntVar(&f.sample, "sample", productsvc.DefaultSampleSize, "Rows shown by the verification pass")
	flag.StringVar(&f.metrics, "metrics", "", "Metrics backend: none, prometheus or datadog (overrides METRICS_BACKEND)")
	flag.Parse()

	os.Exit(run(f))
}

func run(f flags) int {
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Printf("load config: %v", err)
		return 1
	}
	if f.kind != "" {
		cfg.DestinationKind = f.kind
	}
	if f.dsn != "" {
		cfg.DBConnString = f.dsn
	}
	if f.metrics != "" {
		cfg.MetricsBackend = f.metrics
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := catalog.Load(f.csvPath, catalog.Options{Encoding: f.encoding, Strict: f.strict})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Printf("snapshot not found: %s (run inspect first)", f.csvPath)
			return 1
		}
		logger.Printf("read snapshot: %v", err)
		return 1
	}
	logger.Printf("loaded %d products from %s", len(res.Products), f.csvPath)
	logIssues(logger, res, f.verbose)

	rec, err := metrics.Open(ctx, metrics.Options{
		Backend:        cfg.MetricsBackend,
		PushgatewayURL: cfg.PushgatewayURL,
		Tags:           cfg.DatadogTags,
	})
	if err != nil {
		logger.Printf("metrics: %v", err)
		return 1
	}
	defer func() {
		if err := rec.Close(); err != nil {
			logger.Printf("metrics flush: %v", err)
		}
	}()
	rec.RecordsRejected(len(res.Rejected))

	opts := importer.Options{BatchSize: f.size, DryRun: f.dryRun, Logger: logger, Metrics: rec}
	if f.dryRun {
		rep, err := importer.New(nil, opts).Run(ctx, res.Products)
		importer.PrintReport(os.Stdout, rep)
		if err != nil || !rep.Success {
			return 1
		}
		return 0
	}

	repo, err := product.Open(ctx, product.Config{
		Kind:       cfg.DestinationKind,
		DSN:        cfg.DBConnString,
		URL:        cfg.SupabaseURL,
		ServiceKey: cfg.SupabaseServiceKey,
		Schema:     cfg.SupabaseSchema,
		Table:      cfg.ProductsTable,
	}, logger)
	if err != nil {
		logger.Printf("open destination: %v", err)
		return 1
	}
	defer repo.Close()
	logger.Printf("connected to %s destination", cfg.DestinationKind)

	rep, err := importer.New(repo, opts).Run(ctx, res.Products)
	importer.PrintReport(os.Stdout, rep)
	if err != nil {
		logger.Printf("%v", err)
		return 1
	}

	importer.Verify(ctx, productsvc.New(repo), f.sample, os.Stdout, logger)

	if !rep.Success {
		return 1
	}
	return 0
}

func logIssues(logger *log.Logger, res *catalog.Result, verbose bool) {
	if len(res.MissingColumns) > 0 {
		logger.Printf("missing columns, values default: %v", res.MissingColumns)
	}
	if len(res.Issues) > 0 {
		logger.Printf("%d malformed cells coerced to defaults", len(res.Issues))
	}
	if verbose {
		for _, li := range res.Issues {
			logger.Printf("line %d: %s", li.Line, li.Issue)
		}
	}
	for _, rej := range res.Rejected {
		logger.Printf("line %d: skipped: %v", rej.Line, rej.Err)
	}
}
