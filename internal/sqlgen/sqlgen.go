// Package sqlgen renders catalog records as standalone multi-row INSERT files
// for operators who apply batches by hand in a SQL editor.
package sqlgen

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"catalog-migrate/internal/batch"
	"catalog-migrate/internal/domain"
)

// DefaultBatchSize is the number of products per generated file.
const DefaultBatchSize = 50

// FilePattern matches the files WriteBatches produces.
const FilePattern = "import_batch_*.sql"

// Options controls file rendering.
type Options struct {
	Table     string
	Title     string
	BatchSize int
}

func (o Options) withDefaults() Options {
	if o.Table == "" {
		o.Table = "products"
	}
	if o.Title == "" {
		o.Title = "Catalog Products"
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	return o
}

// FileName returns the file name for 1-based batch n.
func FileName(n int) string {
	return fmt.Sprintf("import_batch_%02d.sql", n)
}

// Quote renders s as a single-quoted SQL string literal.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Literal renders one value as SQL text. Supported types are the ones
// domain.Product.Values produces; nil renders as NULL.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return Quote(x)
	case *string:
		if x == nil {
			return "NULL"
		}
		return Quote(*x)
	case int64:
		return strconv.FormatInt(x, 10)
	case *int64:
		if x == nil {
			return "NULL"
		}
		return strconv.FormatInt(*x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return floatLiteral(x)
	default:
		return Quote(fmt.Sprint(x))
	}
}

// floatLiteral keeps a decimal point on integral values so the column is
// never read back as an integer literal.
func floatLiteral(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Tuple renders one product as a parenthesised VALUES tuple.
func Tuple(p domain.Product) string {
	vals := p.Values()
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = Literal(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// RenderBatch writes one INSERT file body covering the records in r.
func RenderBatch(w io.Writer, opts Options, r batch.Range, products []domain.Product) error {
	opts = opts.withDefaults()

	var b strings.Builder
	fmt.Fprintf(&b, "-- %s Import Batch %d\n", opts.Title, r.Number)
	fmt.Fprintf(&b, "-- Products %d to %d\n\n", r.First, r.Last)

	b.WriteString("INSERT INTO ")
	b.WriteString(opts.Table)
	b.WriteString(" (\n")
	b.WriteString("  " + strings.Join(domain.Columns[:5], ", ") + ",\n")
	b.WriteString("  " + strings.Join(domain.Columns[5:], ", ") + "\n")
	b.WriteString(") VALUES\n")

	tuples := make([]string, len(products))
	for i, p := range products {
		tuples[i] = Tuple(p)
	}
	b.WriteString(strings.Join(tuples, ",\n"))
	b.WriteString(";\n\n")
	fmt.Fprintf(&b, "-- Batch %d complete\n", r.Number)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteBatches splits products into files under dir and returns their paths in
// batch order.
func WriteBatches(dir string, products []domain.Product, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	if len(products) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	ranges := batch.Ranges(len(products), opts.BatchSize)
	paths := make([]string, 0, len(ranges))
	for i, chunk := range batch.Split(products, opts.BatchSize) {
		r := ranges[i]
		path := filepath.Join(dir, FileName(r.Number))
		if err := writeFile(path, opts, r, chunk); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, opts Options, r batch.Range, products []domain.Product) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := RenderBatch(f, opts, r, products); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
