package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"
	"time"

	"catalog-migrate/internal/spreadsheet"
)

// ErrSourceMissing is returned when the source spreadsheet cannot be opened.
var ErrSourceMissing = errors.New("source file missing or unreadable")

// Column data types reported in Column.Dtype.
const (
	TypeInteger = "integer"
	TypeFloat   = "float"
	TypeBoolean = "boolean"
	TypeDate    = "date"
	TypeText    = "text"
	TypeEmpty   = "empty"
)

const (
	sampleRows = 10
	uniqueCap  = 50
)

// FileInfo describes the source workbook.
type FileInfo struct {
	Path         string   `json:"path"`
	Sheets       []string `json:"sheets"`
	TotalRows    int      `json:"total_rows"`
	TotalColumns int      `json:"total_columns"`
}

// Column is the profile of one source column. UniqueValues holds an int, or the
// string "50+" for text columns with 50 or more distinct values.
type Column struct {
	Name           string  `json:"name"`
	Dtype          string  `json:"dtype"`
	NonNullCount   int     `json:"non_null_count"`
	NullPercentage float64 `json:"null_percentage"`
	UniqueValues   any     `json:"unique_values"`
}

// Report is the inspector output.
type Report struct {
	FileInfo   FileInfo    `json:"file_info"`
	Columns    []Column    `json:"columns"`
	SampleData []SampleRow `json:"sample_data"`
}

// SampleRow is one source row keyed by header. It marshals as a JSON object
// with keys in sheet order.
type SampleRow struct {
	Headers []string
	Values  []string
}

func (s SampleRow) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, h := range s.Headers {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := writeString(&b, h); err != nil {
			return nil, err
		}
		b.WriteByte(':')
		if err := writeString(&b, s.Values[i]); err != nil {
			return nil, err
		}
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

func writeString(b *bytes.Buffer, s string) error {
	enc := json.NewEncoder(b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	b.Truncate(b.Len() - 1) // Encode appends a newline
	return nil
}

// Inspect opens path and profiles its first sheet.
func Inspect(path string) (*Report, *spreadsheet.Table, error) {
	tbl, err := spreadsheet.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, nil, fmt.Errorf("%w: %s: %w", ErrSourceMissing, path, err)
		}
		return nil, nil, err
	}
	return Build(tbl), tbl, nil
}

// Build profiles every column of tbl.
func Build(tbl *spreadsheet.Table) *Report {
	rep := &Report{
		FileInfo: FileInfo{
			Path:         tbl.Path,
			Sheets:       tbl.Sheets,
			TotalRows:    len(tbl.Rows),
			TotalColumns: len(tbl.Headers),
		},
		Columns:    make([]Column, 0, len(tbl.Headers)),
		SampleData: make([]SampleRow, 0, min(sampleRows, len(tbl.Rows))),
	}

	for i, name := range tbl.Headers {
		rep.Columns = append(rep.Columns, profileColumn(name, tbl.Column(i)))
	}
	for _, row := range tbl.Rows[:min(sampleRows, len(tbl.Rows))] {
		vals := make([]string, len(row))
		for i, v := range row {
			vals[i] = strings.TrimSpace(v)
		}
		rep.SampleData = append(rep.SampleData, SampleRow{Headers: tbl.Headers, Values: vals})
	}
	return rep
}

func profileColumn(name string, values []string) Column {
	col := Column{Name: name}

	distinct := make(map[string]struct{})
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		col.NonNullCount++
		distinct[v] = struct{}{}
	}

	if len(values) > 0 {
		nulls := float64(len(values) - col.NonNullCount)
		col.NullPercentage = math.Round(nulls/float64(len(values))*100*100) / 100
	}

	col.Dtype = InferType(values)
	n := len(distinct)
	if col.Dtype == TypeText && n >= uniqueCap {
		col.UniqueValues = strconv.Itoa(uniqueCap) + "+"
	} else {
		col.UniqueValues = n
	}
	return col
}

// InferType picks the most specific type every non-empty value satisfies.
func InferType(values []string) string {
	seen := false
	allInt, allFloat, allBool, allDate := true, true, true, true

	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		seen = true
		if allInt {
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				allFloat = false
			}
		}
		if allBool && !isBool(v) {
			allBool = false
		}
		if allDate && !isDate(v) {
			allDate = false
		}
	}

	switch {
	case !seen:
		return TypeEmpty
	case allInt:
		return TypeInteger
	case allFloat:
		return TypeFloat
	case allBool:
		return TypeBoolean
	case allDate:
		return TypeDate
	default:
		return TypeText
	}
}

func isBool(v string) bool {
	switch strings.ToLower(v) {
	case "true", "false", "yes", "no":
		return true
	}
	return false
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
}

func isDate(v string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

// WriteJSON writes the report indented, keeping non-ASCII text as-is.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}
