package main

import (
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"

	"catalog-migrate/internal/catalog"
	"catalog-migrate/internal/sqlgen"
)

func main() {
	var (
		csvPath  string
		outDir   string
		size     int
		encoding string
		strict   bool
		title    string
		table    string
		verbose  bool
	)
	flag.StringVar(&csvPath, "csv", "catalog_products.csv", "Path to the CSV snapshot")
	flag.StringVar(&outDir, "out", ".", "Directory for the generated import_batch_NN.sql files")
	flag.IntVar(&size, "size", sqlgen.DefaultBatchSize, "Products per SQL file")
	flag.StringVar(&encoding, "encoding", "", "Input charset, e.g. windows-1252 (default UTF-8)")
	flag.BoolVar(&strict, "strict", false, "Skip rows missing a required field")
	flag.StringVar(&title, "title", "", "Title used in the file header comments")
	flag.StringVar(&table, "table", "", "Destination table name (default products)")
	flag.BoolVar(&verbose, "v", false, "Log every coercion issue")
	flag.Parse()

	logger := log.New(os.Stdout, "[gensql] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	res, err := catalog.Load(csvPath, catalog.Options{Encoding: encoding, Strict: strict})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Fatalf("snapshot not found: %s (run inspect first)", csvPath)
		}
		logger.Fatalf("read snapshot: %v", err)
	}
	logger.Printf("read %d products from %s", res.Rows(), csvPath)
	report(logger, res, verbose)

	paths, err := sqlgen.WriteBatches(outDir, res.Products, sqlgen.Options{Table: table, Title: title, BatchSize: size})
	if err != nil {
		logger.Fatalf("generate sql: %v", err)
	}
	for _, p := range paths {
		logger.Printf("generated %s", p)
	}
	logger.Printf("generated %d SQL batch files; run them in order in the SQL editor or with runbatches -exec", len(paths))
}

func report(logger *log.Logger, res *catalog.Result, verbose bool) {
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
