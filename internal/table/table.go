// Package table holds a whole CSV file in memory as a header plus rows of
// string cells. Every row is exactly as wide as the header, so callers can
// index cells by column position without bounds checks.
//
// Column operations (Drop, MoveFirst) return new tables and never mutate the
// receiver; row slices are shared where the row contents are unchanged.
package table

import (
	"encoding/csv"
	"io"
)

// Table is an in-memory CSV table.
type Table struct {
	Columns []string
	Rows    [][]string

	// Lines holds the 1-based physical line each row starts on (the header is
	// line 1). Blank lines and quoted cells spanning lines are counted. It is nil for tables that were not read from a file.
	Lines []int
}

// New returns an empty table with a copy of the given header.
func New(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the first column named name, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the header contains name.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Line returns the source line of row i, falling back to the position the row
// would have in a freshly written file.
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 2
}

// Append adds one row. A positive line is recorded in Lines; callers either
// always pass a line or always pass 0.
func (t *Table) Append(row []string, line int) {
	t.Rows = append(t.Rows, row)
	if line > 0 {
		t.Lines = append(t.Lines, line)
	}
}

// Drop returns a table without the named columns. Names that are not present
// are ignored.
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	keep := make([]int, 0, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := drop[c]; !ok {
			keep = append(keep, i)
		}
	}
	if len(keep) == len(t.Columns) {
		return t.shallow()
	}
	return t.selectColumns(keep)
}

// MoveFirst returns a table whose first column is name, with all other
// columns in their existing relative order. If name is absent the table is
// returned unchanged (as a shallow copy).
func (t *Table) MoveFirst(name string) *Table {
	at := t.Index(name)
	if at <= 0 {
		return t.shallow()
	}
	order := make([]int, 0, len(t.Columns))
	order = append(order, at)
	for i := range t.Columns {
		if i != at {
			order = append(order, i)
		}
	}
	return t.selectColumns(order)
}

func (t *Table) shallow() *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...), Rows: t.Rows}
	if t.Lines != nil {
		out.Lines = append([]int(nil), t.Lines...)
	}
	return out
}

// selectColumns builds a table from the given column positions, in order.
func (t *Table) selectColumns(idx []int) *Table {
	out := &Table{
		Columns: make([]string, len(idx)),
		Rows:    make([][]string, len(t.Rows)),
	}
	for j, i := range idx {
		out.Columns[j] = t.Columns[i]
	}
	for r, row := range t.Rows {
		nr := make([]string, len(idx))
		for j, i := range idx {
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	if t.Lines != nil {
		out.Lines = append([]int(nil), t.Lines...)
	}
	return out
}

// WriteCSV writes the header and all rows as comma-separated values with
// "\n" line endings.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}
