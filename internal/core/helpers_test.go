package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/cleanse/internal/table"
)

func mustTable(t *testing.T, cols ...table.Column) *table.Table {
	t.Helper()
	tbl, err := table.New(cols...)
	require.NoError(t, err)
	return tbl
}

func column(t *testing.T, tbl *table.Table, name string) table.Column {
	t.Helper()
	c, ok := tbl.Column(name)
	require.True(t, ok, "column %q not found in %v", name, tbl.Names())
	return c
}

func floats(c table.Column) []any {
	out := make([]any, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v := c.Value(i); v.Valid {
			out[i] = v.Num
		}
	}
	return out
}

func strs(c table.Column) []any {
	out := make([]any, c.Len())
	for i := 0; i < c.Len(); i++ {
		if v := c.Value(i); v.Valid {
			out[i] = v.Format(c.Type())
		}
	}
	return out
}

func ptr(f float64) *float64 { return &f }
