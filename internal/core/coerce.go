package core

import (
	"slices"
	"strings"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// inferenceOrder is the order in which richer types are tried for text.
var inferenceOrder = []table.Type{table.Boolean, table.Numeric, table.Datetime}

// InferType returns the first of boolean, numeric and datetime under which
// every non-null sample parses. Text is returned when none fits or when
// there is nothing to sample. Samples with a leading '+' or a leading zero
// before more digits are identifiers such as phone numbers, so they keep a
// column from being numeric.
func InferType(samples []string) table.Type {
	if len(samples) == 0 {
		return table.Text
	}
	identifiers := slices.ContainsFunc(samples, looksLikeIdentifier)
	for _, typ := range inferenceOrder {
		if typ == table.Numeric && identifiers {
			continue
		}
		ok := true
		for _, s := range samples {
			if _, parsed := table.ParseCell(s, typ); !parsed {
				ok = false
				break
			}
		}
		if ok {
			return typ
		}
	}
	return table.Text
}

// looksLikeIdentifier reports whether s would lose characters as a number:
// "+66812345678" or "0812345678", but not "0" or "0.5".
func looksLikeIdentifier(s string) bool {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") {
		return true
	}
	return len(s) > 1 && s[0] == '0' && s[1] >= '0' && s[1] <= '9'
}

// CoerceTypes converts text columns that hold booleans, numbers or dates.
// The decision is made on the first SampleSize non-null values; once a
// column is converted, values that do not parse become null.
func CoerceTypes(t *table.Table, cfg CoercionConfig) (*table.Table, []Action, error) {
	cols, err := consideredColumns(t, cfg.Columns, StageCoercion)
	if err != nil {
		return nil, nil, err
	}
	size := cfg.SampleSize
	if size < 1 {
		size = DefaultSampleSize
	}

	var converted []table.Column
	var actions []Action
	for _, c := range cols {
		if slices.Contains(cfg.Skip, c.Name()) {
			continue
		}
		if c.Type() != table.Text {
			if len(cfg.Columns) > 0 {
				return nil, nil, schemaError(StageCoercion, c.Name(), "column is %s, not text", c.Type())
			}
			continue
		}
		typ := InferType(sampleText(c, size))
		if typ == table.Text {
			continue
		}

		vals := make([]table.Value, c.Len())
		lost := 0
		for i := 0; i < c.Len(); i++ {
			v := c.Value(i)
			if !v.Valid {
				continue
			}
			parsed, ok := table.ParseCell(v.Str, typ)
			if !ok {
				lost++
			}
			vals[i] = parsed
		}
		converted = append(converted, c.Retyped(typ, vals))
		actions = append(actions, info(StageCoercion, c.Len()-c.NullCount()-lost, []string{c.Name()},
			"converted %s from text to %s (%d unparsable %s set to null)",
			c.Name(), typ, lost, plural(lost, "value", "values")))
	}

	if len(converted) == 0 {
		return t, actions, nil
	}
	out, err := t.WithColumns(converted...)
	if err != nil {
		return nil, nil, schemaError(StageCoercion, "", "%v", err)
	}
	return out, actions, nil
}

// sampleText returns up to n non-null values of a text column in row order.
func sampleText(c table.Column, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < c.Len() && len(out) < n; i++ {
		if v := c.Value(i); v.Valid && !table.IsNullToken(v.Str) {
			out = append(out, v.Str)
		}
	}
	return out
}
