// Package importer pushes coerced catalog records to a destination in fixed-size
// batches. A failed batch is logged and skipped; the run always continues.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"catalog-migrate/internal/batch"
	"catalog-migrate/internal/domain"
	"catalog-migrate/internal/metrics"
)

// DefaultBatchSize is the number of records per insert request.
const DefaultBatchSize = 100

// BatchWriter is the insert side of a products destination.
type BatchWriter interface {
	InsertBatch(ctx context.Context, products []domain.Product) (int64, error)
}

// Options tunes a run. Zero values pick the defaults.
type Options struct {
	BatchSize int
	// DryRun batches the records without contacting the destination.
	DryRun  bool
	Logger  *log.Logger
	Metrics metrics.Recorder
}

// BatchResult is the outcome of one batch. Err is nil for a successful batch.
type BatchResult struct {
	Number   int
	First    int
	Last     int
	Size     int
	Inserted int64
	Err      error
}

func (b BatchResult) OK() bool { return b.Err == nil }

// Report summarises a run.
type Report struct {
	RunID    string
	DryRun   bool
	Batches  []BatchResult
	Expected int
	Imported int64
	Duration time.Duration
	// Success is true only when every expected record was imported. A dry run
	// succeeds when it batched every record.
	Success bool
}

// Failed returns the batches that did not import.
func (r *Report) Failed() []BatchResult {
	var out []BatchResult
	for _, b := range r.Batches {
		if !b.OK() {
			out = append(out, b)
		}
	}
	return out
}

type Importer struct {
	writer  BatchWriter
	size    int
	dryRun  bool
	logger  *log.Logger
	metrics metrics.Recorder
}

func New(writer BatchWriter, opts Options) *Importer {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop{}
	}
	return &Importer{
		writer:  writer,
		size:    opts.BatchSize,
		dryRun:  opts.DryRun,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Run submits products batch by batch. Per-batch errors are recorded in the
// report, never returned. The returned error is non-nil only when ctx ends the
// run early; the report then covers the batches attempted so far.
func (i *Importer) Run(ctx context.Context, products []domain.Product) (*Report, error) {
	start := time.Now()
	rep := &Report{
		RunID:    uuid.NewString(),
		DryRun:   i.dryRun,
		Expected: len(products),
	}

	chunks := batch.Split(products, i.size)
	ranges := batch.Ranges(len(products), i.size)
	i.logger.Printf("import run=%s starting: %d products in %d batches of %d (dry_run=%v)", rep.RunID, len(products), len(chunks), i.size, i.dryRun)

	var runErr error
	for n, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("import interrupted before batch %d: %w", n+1, err)
			break
		}
		r := ranges[n]
		res := i.runBatch(ctx, r, chunk)
		rep.Batches = append(rep.Batches, res)
		rep.Imported += res.Inserted
	}

	rep.Duration = time.Since(start)
	if i.dryRun {
		rep.Success = runErr == nil && len(rep.Batches) == len(chunks)
	} else {
		rep.Success = rep.Imported == int64(rep.Expected)
	}
	i.logger.Printf("import run=%s finished: imported=%d expected=%d failed_batches=%d in %s",
		rep.RunID, rep.Imported, rep.Expected, len(rep.Failed()), rep.Duration.Truncate(time.Millisecond))
	return rep, runErr
}

func (i *Importer) runBatch(ctx context.Context, r batch.Range, chunk []domain.Product) BatchResult {
	res := BatchResult{Number: r.Number, First: r.First, Last: r.Last, Size: len(chunk)}
	if i.dryRun {
		i.logger.Printf("batch %d: dry run, %d products (%d-%d)", r.Number, len(chunk), r.First, r.Last)
		return res
	}

	n, err := i.writer.InsertBatch(ctx, chunk)
	if err == nil && n != int64(len(chunk)) {
		err = fmt.Errorf("inserted %d of %d rows", n, len(chunk))
	}
	if err != nil {
		res.Err = err
		i.metrics.BatchDone(metrics.StatusFailed, len(chunk))
		if errors.Is(err, context.Canceled) {
			i.logger.Printf("batch %d: cancelled", r.Number)
		} else {
			i.logger.Printf("batch %d: failed (%d-%d): %v", r.Number, r.First, r.Last, err)
		}
		return res
	}

	res.Inserted = n
	i.metrics.BatchDone(metrics.StatusOK, len(chunk))
	i.logger.Printf("batch %d: imported %d products (%d-%d)", r.Number, n, r.First, r.Last)
	return res
}
