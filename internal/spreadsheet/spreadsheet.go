package spreadsheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is one sheet: a trimmed header row and the data rows below it. Every
// row is padded or cut to len(Headers).
type Table struct {
	Path    string
	Sheets  []string
	Headers []string
	Rows    [][]string
}

// Open reads path according to its extension. .xlsx, .xlsm and .xltx go through
// excelize; .csv is read as UTF-8 CSV.
func Open(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return openWorkbook(path)
	case ".csv":
		return openCSV(path)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet type %q", filepath.Ext(path))
	}
}

func openWorkbook(path string) (*Table, error) {
	// excelize reports a missing file with a bare path error; stat first so
	// callers can match fs.ErrNotExist.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return build(path, sheets, rows), nil
}

func openCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return build(path, []string{name}, rows), nil
}

// ReadCSV returns every record of r. Short rows are kept as-is.
func ReadCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return rows, fmt.Errorf("read csv: %w", err)
		}
		rows = append(rows, rec)
	}
}

func build(path string, sheets []string, rows [][]string) *Table {
	t := &Table{Path: path, Sheets: sheets}
	if len(rows) == 0 {
		return t
	}

	header := rows[0]
	t.Headers = make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\uFEFF")
		}
		t.Headers[i] = strings.TrimSpace(h)
	}

	for _, r := range rows[1:] {
		if blank(r) {
			continue
		}
		row := make([]string, len(t.Headers))
		copy(row, r)
		t.Rows = append(t.Rows, row)
	}
	return t
}

func blank(r []string) bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Column returns the values of column i across all rows.
func (t *Table) Column(i int) []string {
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// WriteCSV writes the header and every row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
