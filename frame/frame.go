// Package frame provides a small typed table for flat API records: columns
// are cast to float64, string, or time.Time based on the declared response
// schema, and a table can be pivoted on its time and label columns.
package frame

import (
	"fmt"
	"sort"
)

// Type identifies the element type of a column.
type Type int

const (
	// Any holds values as decoded from JSON, before casting.
	Any Type = iota
	Float64
	String
	Time
)

func (t Type) String() string {
	switch t {
	case Float64:
		return "float64"
	case String:
		return "string"
	case Time:
		return "time"
	default:
		return "any"
	}
}

// Series is a single named column. Values are float64, string, time.Time or
// nil according to Type; an Any series holds whatever JSON decoding produced.
type Series struct {
	Name string
	Type Type
	vals []any
}

// Len returns the number of values in the series.
func (s *Series) Len() int { return len(s.vals) }

// Value returns the value at row i, nil when the record lacked the key.
func (s *Series) Value(i int) any { return s.vals[i] }

// Values returns a copy of all values in row order.
func (s *Series) Values() []any {
	out := make([]any, len(s.vals))
	copy(out, s.vals)
	return out
}

// Table is an ordered collection of equally sized series, with an optional
// row index series set by pivoting.
type Table struct {
	index *Series
	cols  []*Series
	nrows int
}

// FromRecords builds a table from flat records. Column order is the sorted
// union of record keys (JSON objects carry no order); row order follows the
// record order. Keys missing from a record yield nil cells.
func FromRecords(records []map[string]any) *Table {
	names := map[string]struct{}{}
	for _, rec := range records {
		for k := range rec {
			names[k] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(names))
	for k := range names {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	t := &Table{nrows: len(records)}
	for _, name := range sorted {
		s := &Series{Name: name, Type: Any, vals: make([]any, len(records))}
		for i, rec := range records {
			s.vals[i] = rec[name]
		}
		t.cols = append(t.cols, s)
	}
	return t
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the column count, excluding the index.
func (t *Table) NumCols() int { return len(t.cols) }

// Index returns the row index series, nil when none is set.
func (t *Table) Index() *Series { return t.index }

// Columns returns the column names in order, excluding the index.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Column returns the named series.
func (t *Table) Column(name string) (*Series, bool) {
	for _, c := range t.cols {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Value returns the cell at (row, column name), nil for unknown columns.
func (t *Table) Value(row int, col string) any {
	c, ok := t.Column(col)
	if !ok {
		return nil
	}
	return c.Value(row)
}

// SetIndex moves the named column out of the column set and installs it as
// the row index.
func (t *Table) SetIndex(name string) error {
	for i, c := range t.cols {
		if c.Name == name {
			t.index = c
			t.cols = append(t.cols[:i], t.cols[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("frame: no column %q", name)
}
