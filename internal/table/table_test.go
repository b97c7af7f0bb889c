package table

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const samplePayload = "\"SNB data portal\";;;\nRetrieved 2025-08-12;;;\n" +
	"Date;D0;D1;Value\n" +
	"1988-01-01;CHF;1J;\n" +
	"1988-01-01;CHF;2J;0.5\n" +
	"1988-01-01;CHF;3J;0.75\n"

func TestParse(t *testing.T) {
	tbl, err := Parse(strings.NewReader(samplePayload), 2)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	wantCols := []string{"Date", "D0", "D1", "Value"}
	if len(tbl.Columns) != len(wantCols) {
		t.Fatalf("expected %d columns, got %d", len(wantCols), len(tbl.Columns))
	}
	for i, c := range wantCols {
		if tbl.Columns[i] != c {
			t.Errorf("column %d: expected %q, got %q", i, c, tbl.Columns[i])
		}
	}

	if tbl.NumRows() != 3 {
		t.Fatalf("expected 3 rows, got %d", tbl.NumRows())
	}
	if tbl.Rows[1][3] != "0.5" {
		t.Errorf("expected row 1 value 0.5, got %q", tbl.Rows[1][3])
	}
}

func TestParseMetadataRowsNotColumnChecked(t *testing.T) {
	// Metadata rows with a different field count than the data must not
	// trip the column-count check.
	input := "only-one-field\na;b;c;d;e\nDate;Value\n2024-01-01;1\n"
	tbl, err := Parse(strings.NewReader(input), 2)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tbl.NumRows() != 1 {
		t.Errorf("expected 1 row, got %d", tbl.NumRows())
	}
}

func TestParseInconsistentColumns(t *testing.T) {
	input := "meta\nmeta\nDate;Value\n2024-01-01;1;extra\n"
	_, err := Parse(strings.NewReader(input), 2)
	if err == nil {
		t.Fatal("expected error for inconsistent column count")
	}
	if !errors.Is(err, csv.ErrFieldCount) {
		t.Errorf("expected csv.ErrFieldCount, got %v", err)
	}
}

func TestParseTruncatedInput(t *testing.T) {
	_, err := Parse(strings.NewReader("only one row\n"), 2)
	if err == nil {
		t.Fatal("expected error for input shorter than the metadata rows")
	}

	_, err = Parse(strings.NewReader("meta\nmeta\n"), 2)
	if err == nil {
		t.Fatal("expected error for missing header row")
	}
}

func TestColumn(t *testing.T) {
	tbl, err := Parse(strings.NewReader(samplePayload), 2)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	vals, ok := tbl.Column("D1")
	if !ok {
		t.Fatal("expected column D1 to exist")
	}
	if len(vals) != 3 || vals[0] != "1J" || vals[2] != "3J" {
		t.Errorf("unexpected D1 values: %v", vals)
	}

	if _, ok := tbl.Column("nope"); ok {
		t.Error("expected missing column lookup to fail")
	}
}

func TestHead(t *testing.T) {
	tbl, err := Parse(strings.NewReader(samplePayload), 2)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	head := tbl.Head(2)
	if head.NumRows() != 2 {
		t.Errorf("expected 2 rows, got %d", head.NumRows())
	}
	if head := tbl.Head(10); head.NumRows() != 3 {
		t.Errorf("expected head to clamp to 3 rows, got %d", head.NumRows())
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rentm_all.csv")
	if err := os.WriteFile(path, []byte(samplePayload), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	tbl, err := LoadFile(path, 2)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if tbl == nil || tbl.NumRows() != 3 {
		t.Fatalf("unexpected table: %+v", tbl)
	}
}

func TestLoadFileAbsent(t *testing.T) {
	tbl, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv"), 2)
	if err != nil {
		t.Fatalf("expected no error for a missing file, got %v", err)
	}
	if tbl != nil {
		t.Fatalf("expected nil table for a missing file, got %+v", tbl)
	}
}
