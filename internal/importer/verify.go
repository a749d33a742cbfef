package importer

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"catalog-migrate/internal/domain"
)

// Summarizer reads back what the destination holds.
type Summarizer interface {
	Summary(ctx context.Context, sampleSize int) (*domain.CatalogSummary, error)
}

// Verify prints the destination's row count, a sample and the product types
// to w. Failures are logged and never fatal; whatever could be read is
// printed and returned.
func Verify(ctx context.Context, s Summarizer, sampleSize int, w io.Writer, logger *log.Logger) *domain.CatalogSummary {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	sum, err := s.Summary(ctx, sampleSize)
	if err != nil {
		logger.Printf("verification: %v", err)
	}
	if sum == nil {
		return nil
	}

	if sum.CountKnown {
		fmt.Fprintf(w, "Total products in destination: %d\n", sum.Total)
	} else {
		fmt.Fprintln(w, "Total products in destination: unavailable")
	}
	if len(sum.Sample) > 0 {
		fmt.Fprintln(w, "Sample products:")
		for _, p := range sum.Sample {
			fmt.Fprintf(w, "  - %s: $%.2f\n", p.DisplayName, p.MSRPDollars())
		}
	}
	if len(sum.ProductTypes) > 0 {
		fmt.Fprintf(w, "Product types: %s\n", strings.Join(sum.ProductTypes, ", "))
	}
	return sum
}

// PrintReport writes the per-batch outcome and the totals of a run to w.
func PrintReport(w io.Writer, rep *Report) {
	for _, b := range rep.Batches {
		status := "ok"
		if !b.OK() {
			status = "FAILED: " + b.Err.Error()
		} else if rep.DryRun {
			status = "dry run"
		}
		fmt.Fprintf(w, "Batch %d (products %d-%d, %d records): %s\n", b.Number, b.First, b.Last, b.Size, status)
	}
	fmt.Fprintf(w, "Imported %d of %d products (run %s, %s)\n", rep.Imported, rep.Expected, rep.RunID, rep.Duration.Round(time.Millisecond))
	if rep.Success {
		fmt.Fprintln(w, "Import complete")
	} else {
		fmt.Fprintf(w, "Import incomplete: %d batches failed\n", len(rep.Failed()))
	}
}
