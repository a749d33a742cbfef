package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"catalog-migrate/internal/coerce"
	"catalog-migrate/internal/domain"
)

// Options controls how a snapshot is read.
type Options struct {
	// Encoding names the input charset (WHATWG label, e.g. "windows-1252").
	// Empty means UTF-8.
	Encoding string
	// Strict drops rows whose required fields coerced to empty.
	Strict bool
}

// LineIssue is a coercion issue tied to its CSV line.
type LineIssue struct {
	Line  int
	Issue coerce.Issue
}

// Rejection is a row dropped in strict mode.
type Rejection struct {
	Line int
	Err  error
}

// Result holds the coerced records and everything noticed while reading them.
type Result struct {
	Products       []domain.Product
	Issues         []LineIssue
	Rejected       []Rejection
	MissingColumns []string
}

// Rows is the number of data rows read, kept or rejected.
func (r *Result) Rows() int {
	return len(r.Products) + len(r.Rejected)
}

// Load opens path and reads it with Read.
func Load(path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()
	return Read(f, opts)
}

// Read parses a snapshot with a header row and coerces every data row.
func Read(r io.Reader, opts Options) (*Result, error) {
	src, err := decoder(r, opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1 // office tools drop trailing empty cells

	headers, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	res := &Result{}
	for _, h := range coerce.Headers {
		if _, ok := index[h]; !ok {
			res.MissingColumns = append(res.MissingColumns, h)
		}
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return res, fmt.Errorf("read row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if blank(record) {
			continue
		}

		p, issues := coerce.Product(toRow(record, index))
		for _, is := range issues {
			res.Issues = append(res.Issues, LineIssue{Line: line, Issue: is})
		}
		if opts.Strict {
			if err := coerce.Validate(p); err != nil {
				res.Rejected = append(res.Rejected, Rejection{Line: line, Err: err})
				continue
			}
		}
		res.Products = append(res.Products, p)
	}
	return res, nil
}

func decoder(r io.Reader, name string) (io.Reader, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func toRow(record []string, index map[string]int) coerce.Row {
	row := make(coerce.Row, len(coerce.Headers))
	for _, h := range coerce.Headers {
		pos, ok := index[h]
		if !ok || pos >= len(record) {
			continue
		}
		row[h] = record[pos]
	}
	return row
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
