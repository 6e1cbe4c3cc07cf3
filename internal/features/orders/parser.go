package orders

// Naive CSV parsing: one record per line, fields split on ','.
// Quoted fields and embedded newlines are not supported.

import (
	"errors"
	"fmt"
	"strings"
)

type header struct {
	names []string
	index map[string]int
}

// Row is one data line keyed by header name. Rows are read-only.
type Row struct {
	Line   int
	header *header
	values []string
}

// Get returns the raw value of column name. ok is false when the header
// has no such column or the line ended before it.
func (r Row) Get(name string) (string, bool) {
	if r.header == nil {
		return "", false
	}
	i, ok := r.header.index[name]
	if !ok || i >= len(r.values) {
		return "", false
	}
	return r.values[i], true
}

// Len is the number of fields present on the line (never more than the header).
func (r Row) Len() int { return len(r.values) }

// Values returns a copy of the raw values in header order.
func (r Row) Values() []string {
	out := make([]string, len(r.values))
	copy(out, r.values)
	return out
}

type Dataset struct {
	Header []string
	Rows   []Row
	// Ragged counts lines whose field count differed from the header.
	Ragged int

	header *header
}

// Has reports whether the header declares column.
func (d *Dataset) Has(column string) bool {
	_, ok := d.header.index[column]
	return ok
}

// RequireColumns fails with a schema ParseError naming every column
// the header lacks.
func (d *Dataset) RequireColumns(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !d.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ParseError{
		Kind:   ParseSchema,
		Column: strings.Join(missing, ", "),
		Err:    fmt.Errorf("required column(s) not in header %v", d.Header),
	}
}

// Parse splits text into a header and rows.
//
// Extra values on a line are dropped; a short line leaves its trailing
// columns absent. Both are counted in Dataset.Ragged.
func Parse(text string) (*Dataset, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Kind: ParseEmpty, Err: errors.New("input is empty")}
	}

	// Leading blank lines still count towards row line numbers.
	lines := strings.Split(text, "\n")
	first := 0
	for strings.TrimSpace(lines[first]) == "" {
		first++
	}

	names := strings.Split(strings.TrimSpace(lines[first]), ",")
	h := &header{names: make([]string, len(names)), index: make(map[string]int, len(names))}
	for i, n := range names {
		n = strings.TrimSpace(n)
		h.names[i] = n
		if _, dup := h.index[n]; !dup {
			h.index[n] = i
		}
	}

	ds := &Dataset{Header: h.names, header: h}
	for i := first + 1; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		values := strings.Split(line, ",")
		if len(values) != len(h.names) {
			ds.Ragged++
			if len(values) > len(h.names) {
				values = values[:len(h.names)]
			}
		}
		ds.Rows = append(ds.Rows, Row{Line: i + 1, header: h, values: values})
	}

	if len(ds.Rows) == 0 {
		return nil, &ParseError{Kind: ParseEmpty, Line: first + 1, Err: errors.New("header has no data rows")}
	}
	return ds, nil
}
