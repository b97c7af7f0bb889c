package registry

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "embed"
)

// ErrMalformedRecord is returned when the reference table contains a record
// that does not split into exactly two fields.
var ErrMalformedRecord = errors.New("registry: malformed record")

// defaultList is the reference table shipped with the binary. It mirrors the
// cube listing published on the SNB data portal.
//
//go:embed cubes_list.csv
var defaultList []byte

// Entry is one known cube with its human-readable description.
type Entry struct {
	ID          string
	Description string
}

// Registry holds the set of valid cube identifiers.
type Registry struct {
	idHeader   string
	descHeader string
	entries    []Entry
	known      map[string]struct{}
}

// Load reads a semicolon-delimited reference table. The first record is the
// pair of column headers; every following record must have exactly two
// fields: identifier and description.
func Load(r io.Reader) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = 2

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty reference table", ErrMalformedRecord)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	reg := &Registry{
		idHeader:   header[0],
		descHeader: header[1],
		known:      make(map[string]struct{}),
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		reg.entries = append(reg.entries, Entry{ID: rec[0], Description: rec[1]})
		reg.known[rec[0]] = struct{}{}
	}

	return reg, nil
}

// LoadFile loads a reference table from disk. A missing or unreadable file
// surfaces as the underlying open error (fs.ErrNotExist and friends).
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference table: %w", err)
	}
	defer f.Close()

	reg, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return reg, nil
}

// Default loads the embedded reference table.
func Default() (*Registry, error) {
	return Load(bytes.NewReader(defaultList))
}

// IsValid reports whether id is a known cube identifier.
func (r *Registry) IsValid(id string) bool {
	_, ok := r.known[id]
	return ok
}

// IDs returns the known identifiers in reference-table order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.ID
	}
	return ids
}

// Entries returns the (identifier, description) pairs in reference-table order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Describe renders the known cubes as a column-aligned listing, one cube per
// line, with title-cased column headers on the first line.
func (r *Registry) Describe() string {
	width := len(r.idHeader)
	for _, e := range r.entries {
		if len(e.ID) > width {
			width = len(e.ID)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-*s %s\n", width, titleCase(r.idHeader), titleCase(r.descHeader))
	for _, e := range r.entries {
		fmt.Fprintf(&b, "%-*s %s\n", width, e.ID, e.Description)
	}
	return strings.TrimRight(b.String(), "\n")
}

// titleCase capitalizes each underscore-separated word: "cube_id" -> "Cube Id".
func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
