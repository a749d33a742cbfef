package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"catalog-migrate/internal/sqlgen"
)

var batchName = regexp.MustCompile(`^import_batch_(\d+)\.sql$`)

// File is one generated batch on disk.
type File struct {
	Number int
	Path   string
}

func (f File) Name() string { return filepath.Base(f.Path) }

// Discover lists the batch files in dir ordered by batch number. Names that
// only look like batch files are ignored.
func Discover(dir string) ([]File, error) {
	matches, err := filepath.Glob(filepath.Join(dir, sqlgen.FilePattern))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("batch dir: %w", err)
	}

	var files []File
	for _, path := range matches {
		m := batchName.FindStringSubmatch(filepath.Base(path))
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		files = append(files, File{Number: n, Path: path})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Number < files[j].Number })
	return files, nil
}

// From drops the batches numbered below first.
func From(files []File, first int) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		if f.Number >= first {
			out = append(out, f)
		}
	}
	return out
}

// CountRecords counts the VALUES tuples in a generated batch file.
func CountRecords(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if strings.HasPrefix(sc.Text(), "(") {
			n++
		}
	}
	return n, sc.Err()
}

// PrintInstructions writes the manual import steps for files to w. Nothing is
// executed.
func PrintInstructions(w io.Writer, files []File) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No batch files found.")
		return
	}

	total := 0
	fmt.Fprintf(w, "Found %d batch files to import (batches %d-%d)\n\n", len(files), files[0].Number, files[len(files)-1].Number)
	for _, f := range files {
		n, err := CountRecords(f.Path)
		if err != nil {
			fmt.Fprintf(w, "  Batch %d: %s (unreadable: %v)\n", f.Number, f.Name(), err)
			continue
		}
		total += n
		fmt.Fprintf(w, "  Batch %d: %s (%d products)\n", f.Number, f.Name(), n)
	}

	fmt.Fprintf(w, "\nTo complete the import of %d products:\n", total)
	fmt.Fprintln(w, "  1. Open the SQL editor of the destination database")
	fmt.Fprintf(w, "  2. Run the files in order, %s through %s\n", files[0].Name(), files[len(files)-1].Name())
	fmt.Fprintln(w, "  3. Or rerun this command with -exec to apply them against DB_DSN")
}

// Execer runs a SQL script. *pgxpool.Pool satisfies it.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Result is the outcome of applying one file.
type Result struct {
	File     File
	Inserted int64
	Err      error
}

// Apply runs files in order. It stops at the first failing batch so a rerun
// with From can resume there; the results cover every file attempted.
func Apply(ctx context.Context, ex Execer, files []File, logger *log.Logger) ([]Result, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	results := make([]Result, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("stopped before batch %d: %w", f.Number, err)
		}

		script, err := os.ReadFile(f.Path)
		if err != nil {
			results = append(results, Result{File: f, Err: err})
			return results, fmt.Errorf("read batch %d: %w", f.Number, err)
		}

		tag, err := ex.Exec(ctx, string(script))
		if err != nil {
			results = append(results, Result{File: f, Err: err})
			logger.Printf("batch %d: failed file=%s: %v", f.Number, f.Name(), err)
			return results, fmt.Errorf("apply batch %d (%s): %w", f.Number, f.Name(), err)
		}

		results = append(results, Result{File: f, Inserted: tag.RowsAffected()})
		logger.Printf("batch %d: applied file=%s rows=%d", f.Number, f.Name(), tag.RowsAffected())
	}
	return results, nil
}
