package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/cleanse/internal/table"
)

func dupTable(t *testing.T) *table.Table {
	return mustTable(t,
		table.MustColumn("id", table.Numeric, 1, 2, 2),
		table.MustColumn("name", table.Text, "A", "B", "B"),
		table.MustColumn("value", table.Numeric, 10, 20, 99),
	)
}

func TestRemoveDuplicates_Keep(t *testing.T) {
	tests := []struct {
		name       string
		keep       KeepPolicy
		wantLabels []int
		wantValues []any
		wantCount  int
	}{
		{"first", KeepFirst, []int{0, 1}, []any{10.0, 20.0}, 1},
		{"last", KeepLast, []int{0, 2}, []any{10.0, 99.0}, 1},
		{"none", KeepNone, []int{0}, []any{10.0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DuplicateConfig{Enabled: true, Subset: []string{"id", "name"}, Keep: tt.keep}

			out, actions, err := RemoveDuplicates(dupTable(t), cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.wantLabels, out.Labels())
			assert.Equal(t, tt.wantValues, floats(column(t, out, "value")))
			require.Len(t, actions, 1)
			assert.Equal(t, tt.wantCount, actions[0].RowsAffected)
			assert.Equal(t, []string{"id", "name"}, actions[0].ColumnsAffected)
		})
	}
}

func TestRemoveDuplicates_AllColumns(t *testing.T) {
	out, actions, err := RemoveDuplicates(dupTable(t), DuplicateConfig{Enabled: true, Keep: KeepFirst})
	require.NoError(t, err)

	assert.Equal(t, 3, out.NumRows(), "rows differ in value, so none are duplicates")
	require.Len(t, actions, 1)
	assert.Zero(t, actions[0].RowsAffected)
}

func TestRemoveDuplicates_NullsAreEqual(t *testing.T) {
	tbl := mustTable(t,
		table.MustColumn("a", table.Numeric, nil, nil, 1),
		table.MustColumn("b", table.Text, "x", "x", "x"),
	)

	out, _, err := RemoveDuplicates(tbl, DuplicateConfig{Enabled: true, Keep: KeepFirst})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, out.Labels())
}

func TestRemoveDuplicates_NegativeZero(t *testing.T) {
	tbl := mustTable(t, table.FromValues("a", table.Numeric, []table.Value{
		table.Float(0), table.Float(math.Copysign(0, -1)), table.Float(1),
	}))

	out, _, err := RemoveDuplicates(tbl, DuplicateConfig{Enabled: true, Keep: KeepFirst})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, out.Labels())
}

func TestRemoveDuplicates_Mark(t *testing.T) {
	cfg := DuplicateConfig{Enabled: true, Subset: []string{"id"}, Keep: KeepFirst, Mark: true, MarkColumn: DefaultMarkColumn}

	out, actions, err := RemoveDuplicates(dupTable(t), cfg)
	require.NoError(t, err)

	assert.Equal(t, 3, out.NumRows())
	mark := column(t, out, DefaultMarkColumn)
	assert.Equal(t, table.Boolean, mark.Type())
	assert.Equal(t, []any{"false", "false", "true"}, strs(mark))
	require.Len(t, actions, 1)
	assert.Equal(t, 1, actions[0].RowsAffected)
	assert.Contains(t, actions[0].Description, "marked 1 duplicate row")

	_, _, err = RemoveDuplicates(out, cfg)
	assert.ErrorIs(t, err, ErrSchema, "marking twice collides with the indicator column")
}

func TestRemoveDuplicates_UnknownSubset(t *testing.T) {
	_, _, err := RemoveDuplicates(dupTable(t), DuplicateConfig{Enabled: true, Subset: []string{"missing"}, Keep: KeepFirst})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSchema)
	assert.Contains(t, err.Error(), `column "missing"`)
}
