package table

import "fmt"

// Column is a named, typed sequence of nullable values.
// A Column is never modified after construction; derived columns are new values.
type Column struct {
	name string
	typ  Type
	vals []Value
}

// NewColumn builds a column from raw Go values, converting each with Convert.
// nil entries become null.
func NewColumn(name string, typ Type, raw ...any) (Column, error) {
	vals := make([]Value, len(raw))
	for i, r := range raw {
		v, err := Convert(r, typ)
		if err != nil {
			return Column{}, fmt.Errorf("column %q row %d: %w", name, i, err)
		}
		vals[i] = v
	}
	return Column{name: name, typ: typ, vals: vals}, nil
}

// MustColumn is like NewColumn but panics on conversion failure.
// Intended for tests and literals.
func MustColumn(name string, typ Type, raw ...any) Column {
	c, err := NewColumn(name, typ, raw...)
	if err != nil {
		panic(err)
	}
	return c
}

// FromValues builds a column from already-typed values. The slice is copied.
func FromValues(name string, typ Type, vals []Value) Column {
	cp := make([]Value, len(vals))
	copy(cp, vals)
	return Column{name: name, typ: typ, vals: cp}
}

// Name returns the column name.
func (c Column) Name() string { return c.name }

// Type returns the semantic type tag.
func (c Column) Type() Type { return c.typ }

// Len returns the number of values.
func (c Column) Len() int { return len(c.vals) }

// Value returns the value at position i.
func (c Column) Value(i int) Value { return c.vals[i] }

// IsNull reports whether position i is null.
func (c Column) IsNull(i int) bool { return !c.vals[i].Valid }

// Values returns a copy of the column's values.
func (c Column) Values() []Value {
	cp := make([]Value, len(c.vals))
	copy(cp, c.vals)
	return cp
}

// NullCount returns the number of null values.
func (c Column) NullCount() int {
	n := 0
	for _, v := range c.vals {
		if !v.Valid {
			n++
		}
	}
	return n
}

// NullFraction returns the share of null values, 0 for an empty column.
func (c Column) NullFraction() float64 {
	if len(c.vals) == 0 {
		return 0
	}
	return float64(c.NullCount()) / float64(len(c.vals))
}

// Floats returns the non-null numeric values and their positions.
func (c Column) Floats() ([]float64, []int) {
	xs := make([]float64, 0, len(c.vals))
	pos := make([]int, 0, len(c.vals))
	for i, v := range c.vals {
		if v.Valid {
			xs = append(xs, v.Num)
			pos = append(pos, i)
		}
	}
	return xs, pos
}

// Format renders position i as text.
func (c Column) Format(i int) string { return c.vals[i].Format(c.typ) }

// Renamed returns the column under a new name.
func (c Column) Renamed(name string) Column {
	return Column{name: name, typ: c.typ, vals: c.vals}
}

// WithValues returns a column with the same name and type holding vals.
// The slice is owned by the new column; callers must not modify it afterwards.
func (c Column) WithValues(vals []Value) Column {
	return Column{name: c.name, typ: c.typ, vals: vals}
}

// Retyped returns a column with the same name, a new type and vals.
// The slice is owned by the new column; callers must not modify it afterwards.
func (c Column) Retyped(typ Type, vals []Value) Column {
	return Column{name: c.name, typ: typ, vals: vals}
}

// pick returns a column holding the values at the given positions.
func (c Column) pick(rows []int) Column {
	vals := make([]Value, len(rows))
	for i, r := range rows {
		vals[i] = c.vals[r]
	}
	return Column{name: c.name, typ: c.typ, vals: vals}
}
