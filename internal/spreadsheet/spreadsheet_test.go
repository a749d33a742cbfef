package spreadsheet

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "SP26"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if _, err := f.NewSheet("Notes"); err != nil {
		t.Fatalf("add sheet: %v", err)
	}

	rows := [][]any{
		{" External ID ", "UPC Code", "Display Name", "MSRP"},
		{"E1", 195012345678, "Trail Runner", 129.99},
		{"E2", nil, "Men's Tee"},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("SP26", cell, &r); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}

	path := filepath.Join(dir, "catalog.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func TestOpen_Workbook(t *testing.T) {
	path := writeWorkbook(t, t.TempDir())

	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(tbl.Sheets) != 2 || tbl.Sheets[0] != "SP26" {
		t.Fatalf("unexpected sheets %v", tbl.Sheets)
	}
	if tbl.Headers[0] != "External ID" || len(tbl.Headers) != 4 {
		t.Fatalf("unexpected headers %v", tbl.Headers)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}
	if tbl.Rows[0][1] != "195012345678" || tbl.Rows[0][3] != "129.99" {
		t.Fatalf("unexpected raw values %v", tbl.Rows[0])
	}
	if tbl.Rows[1][3] != "" || len(tbl.Rows[1]) != 4 {
		t.Fatalf("expected short row padded, got %v", tbl.Rows[1])
	}
}

func TestOpen_CSVAndWriteCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "products.csv")
	src := "\uFEFFExternal ID,Display Name\nE1,\"Cap, Red\"\n,\nE2\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	tbl, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if tbl.Sheets[0] != "products" || tbl.Headers[0] != "External ID" {
		t.Fatalf("unexpected table %+v", tbl)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected blank row skipped, got %d rows", len(tbl.Rows))
	}

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	want := "External ID,Display Name\nE1,\"Cap, Red\"\nE2,\n"
	if buf.String() != want {
		t.Fatalf("unexpected export:\n%s", buf.String())
	}
	if got := strings.Join(tbl.Column(0), "|"); got != "E1|E2" {
		t.Fatalf("unexpected column %q", got)
	}
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.xlsx"))
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
	if _, err := Open("catalog.ods"); err == nil {
		t.Fatalf("expected unsupported type error")
	}
}
