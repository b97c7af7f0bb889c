package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is a parsed cube: column names from the header row, then one string
// slice per data row. Every row has exactly len(Columns) fields.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Parse reads semicolon-delimited text. The first skip records are remote
// metadata and are discarded without column-count enforcement; the next
// record is the header, and every record after it must match the header
// width. Inconsistent widths surface as the csv parser's own error
// (csv.ErrFieldCount).
func Parse(r io.Reader, skip int) (*Table, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1

	for i := 0; i < skip; i++ {
		if _, err := cr.Read(); err != nil {
			if err == io.EOF {
				return nil, fmt.Errorf("table: input ended inside the %d metadata rows", skip)
			}
			return nil, fmt.Errorf("table: metadata row %d: %w", i+1, err)
		}
	}

	// Re-enable column-count checking: the header fixes the width.
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New("table: missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("table: header row: %w", err)
	}

	t := &Table{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table: %w", err)
		}
		t.Rows = append(t.Rows, rec)
	}

	return t, nil
}

// LoadFile parses a previously saved cube file. A path that does not exist
// or is not a regular file yields a nil table and no error.
func LoadFile(path string, skip int) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Parse(f, skip)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// Column returns the values of the named column in row order.
func (t *Table) Column(name string) ([]string, bool) {
	for i, c := range t.Columns {
		if c != name {
			continue
		}
		vals := make([]string, len(t.Rows))
		for j, row := range t.Rows {
			vals[j] = row[i]
		}
		return vals, true
	}
	return nil, false
}

// Head returns a table with at most n rows, sharing the underlying data.
func (t *Table) Head(n int) *Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:n]}
}

// String renders the table with column-aligned fields.
func (t *Table) String() string {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = len(c)
	}
	for _, row := range t.Rows {
		for i, v := range row {
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}

	var b strings.Builder
	writeRow := func(fields []string) {
		for i, v := range fields {
			if i > 0 {
				b.WriteString("  ")
			}
			fmt.Fprintf(&b, "%-*s", widths[i], v)
		}
		b.WriteString("\n")
	}
	writeRow(t.Columns)
	for _, row := range t.Rows {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), " \n")
}
