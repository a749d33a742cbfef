package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"catalog-migrate/internal/profile"
)

func main() {
	var (
		source     string
		reportPath string
		csvPath    string
	)
	flag.StringVar(&source, "source", "", "Path to the product spreadsheet (.xlsx or .csv)")
	flag.StringVar(&reportPath, "report", "catalog_analysis.json", "Where to write the column profile")
	flag.StringVar(&csvPath, "csv", "catalog_products.csv", "Where to write the flattened CSV snapshot")
	flag.Parse()

	if source == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stdout, "[inspect] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	report, tbl, err := profile.Inspect(source)
	if err != nil {
		if errors.Is(err, profile.ErrSourceMissing) {
			logger.Fatalf("%v", err)
		}
		logger.Fatalf("read spreadsheet: %v", err)
	}

	fmt.Printf("Found %d sheet(s): %v\n", len(report.FileInfo.Sheets), report.FileInfo.Sheets)
	fmt.Printf("Rows: %d, columns: %d\n", report.FileInfo.TotalRows, report.FileInfo.TotalColumns)
	for i, col := range report.Columns {
		fmt.Printf("  %d. %s (%s) %d/%d non-null\n", i+1, col.Name, col.Dtype, col.NonNullCount, report.FileInfo.TotalRows)
	}

	if err := writeFile(reportPath, report.WriteJSON); err != nil {
		logger.Fatalf("write report: %v", err)
	}
	logger.Printf("analysis saved to %s", reportPath)

	if err := writeFile(csvPath, tbl.WriteCSV); err != nil {
		logger.Fatalf("write snapshot: %v", err)
	}
	logger.Printf("snapshot exported to %s (%d rows)", csvPath, len(tbl.Rows))
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
