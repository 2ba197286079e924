// Package model defines core data structures for csvsift.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NullSentinel is the canonical form of a missing or empty cell.
// It matches the textual form pandas-style exports use for missing values,
// so a blank cell in a target still matches a "nan" in a template.
const NullSentinel = "nan"

// RawInput is an opaque byte payload plus its declared name, handed in by
// the boundary layer. The core reads the bytes but never mutates them.
type RawInput struct {
	Name string
	Data []byte
}

// Column is a named, ordered buffer of cell values.
type Column struct {
	Name  string
	Cells []string
}

// Table is an ordered set of equal-length named columns. A Table is
// read-only once produced: filtering and canonicalization never write
// back into a loaded Table, so one loaded table can safely back several
// downstream operations.
type Table struct {
	cols  []Column
	index map[string]int
	rows  int
}

// NewTable builds a Table from a header and data rows. Rows whose field
// count does not match the header are dropped rather than padded, keeping
// the equal-length column invariant without inventing cells.
func NewTable(header []string, rows [][]string) (*Table, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("table has no columns")
	}

	t := &Table{
		cols:  make([]Column, len(header)),
		index: make(map[string]int, len(header)),
	}
	for i, name := range header {
		t.cols[i] = Column{Name: name, Cells: make([]string, 0, len(rows))}
		if _, dup := t.index[name]; !dup {
			t.index[name] = i
		}
	}

	for _, row := range rows {
		if len(row) != len(header) {
			continue
		}
		for i, cell := range row {
			t.cols[i].Cells = append(t.cols[i].Cells, cell)
		}
		t.rows++
	}

	return t, nil
}

// ColumnNames returns the column names in source order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int { return len(t.cols) }

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.rows }

// Column returns the cell buffer for an exact column name.
func (t *Table) Column(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i].Cells, true
}

// HasColumn reports whether a column with the exact name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row materializes row i in column order.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.cols))
	for c := range t.cols {
		row[c] = t.cols[c].Cells[i]
	}
	return row
}

// Select produces a new Table containing exactly the rows whose indices
// appear in keep, in the given order. Cell values are shared with the
// source table, never copied or rewritten.
func (t *Table) Select(keep []int) *Table {
	out := &Table{
		cols:  make([]Column, len(t.cols)),
		index: make(map[string]int, len(t.cols)),
		rows:  len(keep),
	}
	for i, c := range t.cols {
		cells := make([]string, len(keep))
		for j, r := range keep {
			cells[j] = c.Cells[r]
		}
		out.cols[i] = Column{Name: c.Name, Cells: cells}
		if _, dup := out.index[c.Name]; !dup {
			out.index[c.Name] = i
		}
	}
	return out
}

// Canonical returns the canonical string form of a cell used for
// membership comparison. Surrounding whitespace is trimmed, numeric text
// is reformatted to its shortest round-trip decimal (so "7", "7.0" and
// "007" all compare equal), and empty cells map to NullSentinel.
func Canonical(cell string) string {
	s := strings.TrimSpace(cell)
	if s == "" {
		return NullSentinel
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) {
			return NullSentinel
		}
		if !math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	return s
}

// ValueSet is a set of canonical cell values. Built once from a template
// table, then shared read-only across all target filters.
type ValueSet map[string]struct{}

// NewValueSet creates an empty set.
func NewValueSet() ValueSet { return make(ValueSet) }

// Add inserts the canonical form of a cell.
func (v ValueSet) Add(cell string) {
	v[Canonical(cell)] = struct{}{}
}

// Has reports membership of a cell's canonical form.
func (v ValueSet) Has(cell string) bool {
	_, ok := v[Canonical(cell)]
	return ok
}

// Len returns the number of distinct values.
func (v ValueSet) Len() int { return len(v) }

// FilterResult is the per-target outcome bundle: the filtered table plus
// row-count statistics. The rendered CSV payload is derived on demand by
// the export package rather than stored here.
type FilterResult struct {
	FileName     string
	Table        *Table
	OriginalRows int
	FilteredRows int
}
