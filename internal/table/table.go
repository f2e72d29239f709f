// Package table provides the immutable in-memory table the cleaning engine
// works on.
//
// A Table is an ordered set of uniquely named columns of equal length plus a
// row-label index. Labels start as 0..n-1 and follow their rows through every
// transform, so a row keeps its label until it is dropped. Every method that
// changes shape returns a new Table; columns that are not touched are shared
// between the old and the new value, which is safe because Columns are never
// modified.
package table

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch is returned when columns of different lengths are combined.
var ErrLengthMismatch = errors.New("column lengths differ")

// ErrDuplicateColumn is returned when two columns share a name.
var ErrDuplicateColumn = errors.New("duplicate column name")

// Table is an immutable collection of columns sharing one row count.
type Table struct {
	cols   []Column
	labels []int
	byName map[string]int
}

// New builds a table from columns. Row labels are 0..n-1.
func New(cols ...Column) (*Table, error) {
	n := 0
	if len(cols) > 0 {
		n = cols[0].Len()
	}
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i
	}
	return build(cols, labels)
}

// MustNew is like New but panics on error.
func MustNew(cols ...Column) *Table {
	t, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return t
}

func build(cols []Column, labels []int) (*Table, error) {
	byName := make(map[string]int, len(cols))
	for i, c := range cols {
		if c.Len() != len(labels) {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrLengthMismatch, c.Name(), c.Len(), len(labels))
		}
		if _, dup := byName[c.Name()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name())
		}
		byName[c.Name()] = i
	}
	cp := make([]Column, len(cols))
	copy(cp, cols)
	return &Table{cols: cp, labels: labels, byName: byName}, nil
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return len(t.labels) }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the columns in order.
func (t *Table) Columns() []Column {
	cp := make([]Column, len(t.cols))
	copy(cp, t.cols)
	return cp
}

// ColumnAt returns the i-th column.
func (t *Table) ColumnAt(i int) Column { return t.cols[i] }

// Column looks up a column by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name()
	}
	return names
}

// Label returns the stable row label of position i.
func (t *Table) Label(i int) int { return t.labels[i] }

// Labels returns a copy of the row labels.
func (t *Table) Labels() []int {
	cp := make([]int, len(t.labels))
	copy(cp, t.labels)
	return cp
}

// Row returns the values at position i across all columns.
func (t *Table) Row(i int) []Value {
	row := make([]Value, len(t.cols))
	for j, c := range t.cols {
		row[j] = c.Value(i)
	}
	return row
}

// NullCount returns the number of null cells in the table.
func (t *Table) NullCount() int {
	n := 0
	for _, c := range t.cols {
		n += c.NullCount()
	}
	return n
}

// WithColumn returns a table where c replaces the column of the same name,
// or is appended when no such column exists.
func (t *Table) WithColumn(c Column) (*Table, error) {
	cols := make([]Column, len(t.cols), len(t.cols)+1)
	copy(cols, t.cols)
	if i, ok := t.byName[c.Name()]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return build(cols, t.labels)
}

// WithColumns replaces several columns at once. Columns are matched by name;
// unknown names are appended in the order given.
func (t *Table) WithColumns(cs ...Column) (*Table, error) {
	cols := make([]Column, len(t.cols), len(t.cols)+len(cs))
	copy(cols, t.cols)
	for _, c := range cs {
		if i, ok := t.byName[c.Name()]; ok {
			cols[i] = c
		} else {
			cols = append(cols, c)
		}
	}
	return build(cols, t.labels)
}

// Rename returns a table whose columns carry the given names, in order.
func (t *Table) Rename(names []string) (*Table, error) {
	if len(names) != len(t.cols) {
		return nil, fmt.Errorf("rename: got %d names for %d columns", len(names), len(t.cols))
	}
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.Renamed(names[i])
	}
	return build(cols, t.labels)
}

// DropColumns returns a table without the named columns. Unknown names are ignored.
func (t *Table) DropColumns(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	cols := make([]Column, 0, len(t.cols))
	for _, c := range t.cols {
		if !drop[c.Name()] {
			cols = append(cols, c)
		}
	}
	out, _ := build(cols, t.labels)
	return out
}

// SelectRows returns a table holding the rows at the given positions, in the
// order given. Labels travel with their rows.
func (t *Table) SelectRows(rows []int) *Table {
	cols := make([]Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.pick(rows)
	}
	labels := make([]int, len(rows))
	for i, r := range rows {
		labels[i] = t.labels[r]
	}
	out, _ := build(cols, labels)
	return out
}

// Filter returns a table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	rows := make([]int, 0, len(t.labels))
	for i := range t.labels {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	if len(rows) == len(t.labels) {
		return t
	}
	return t.SelectRows(rows)
}
