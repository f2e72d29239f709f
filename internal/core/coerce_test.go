package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/cleanse/internal/table"
)

func TestInferType(t *testing.T) {
	tests := []struct {
		samples []string
		want    table.Type
	}{
		{[]string{"yes", "No", "TRUE"}, table.Boolean},
		{[]string{"1", "2.5", "$1,200"}, table.Numeric},
		{[]string{"2024-01-01", "Jan 2, 2024"}, table.Datetime},
		{[]string{"1", "abc"}, table.Text},
		{[]string{"0", "0.5", "10"}, table.Numeric},
		{[]string{"0812345678", "12"}, table.Text},
		{[]string{"+66812345678"}, table.Text},
		{nil, table.Text},
	}
	for _, tt := range tests {
		if got := InferType(tt.samples); got != tt.want {
			t.Errorf("InferType(%q) = %v, want %v", tt.samples, got, tt.want)
		}
	}
}

func TestCoerceTypes(t *testing.T) {
	tbl := mustTable(t,
		table.MustColumn("flag", table.Text, "yes", "no", nil),
		table.MustColumn("amount", table.Text, "1", "(2.50)", "$3"),
		table.MustColumn("joined", table.Text, "2024-01-01", "n/a", "2024/03/05"),
		table.MustColumn("label", table.Text, "a", "b", "c"),
	)

	out, actions, err := CoerceTypes(tbl, CoercionConfig{Enabled: true, SampleSize: DefaultSampleSize})
	require.NoError(t, err)

	assert.Equal(t, table.Boolean, column(t, out, "flag").Type())
	assert.Equal(t, []any{"true", "false", nil}, strs(column(t, out, "flag")))

	assert.Equal(t, table.Numeric, column(t, out, "amount").Type())
	assert.Equal(t, []any{1.0, -2.5, 3.0}, floats(column(t, out, "amount")))

	joined := column(t, out, "joined")
	assert.Equal(t, table.Datetime, joined.Type())
	assert.Equal(t, []any{"2024-01-01", nil, "2024-03-05"}, strs(joined))

	assert.Equal(t, table.Text, column(t, out, "label").Type())
	assert.Len(t, actions, 3)
}

func TestCoerceTypes_SampleDecidesThenUnparsableBecomeNull(t *testing.T) {
	tbl := mustTable(t, table.MustColumn("x", table.Text, "1", "2", "abc"))

	out, actions, err := CoerceTypes(tbl, CoercionConfig{Enabled: true, SampleSize: 2})
	require.NoError(t, err)

	assert.Equal(t, []any{1.0, 2.0, nil}, floats(column(t, out, "x")))
	require.Len(t, actions, 1)
	assert.Equal(t, 2, actions[0].RowsAffected)
	assert.Contains(t, actions[0].Description, "1 unparsable value set to null")

	// A larger sample sees the text and leaves the column alone.
	out, actions, err = CoerceTypes(tbl, CoercionConfig{Enabled: true, SampleSize: 3})
	require.NoError(t, err)
	assert.Equal(t, table.Text, column(t, out, "x").Type())
	assert.Empty(t, actions)
}

func TestCoerceTypes_NamedColumnMustBeText(t *testing.T) {
	tbl := mustTable(t, table.MustColumn("n", table.Numeric, 1))

	_, _, err := CoerceTypes(tbl, CoercionConfig{Enabled: true, Columns: []string{"n"}, SampleSize: 5})
	assert.ErrorIs(t, err, ErrSchema)
}

func TestCoerceTypes_SkipsListedColumns(t *testing.T) {
	tbl := mustTable(t,
		table.MustColumn("phone", table.Text, "5551234567", "5559876543"),
		table.MustColumn("qty", table.Text, "1", "2"),
	)

	out, actions, err := CoerceTypes(tbl, CoercionConfig{Enabled: true, SampleSize: 5, Skip: []string{"phone"}})
	require.NoError(t, err)

	assert.Equal(t, table.Text, column(t, out, "phone").Type())
	assert.Equal(t, []any{"5551234567", "5559876543"}, strs(column(t, out, "phone")))
	assert.Equal(t, table.Numeric, column(t, out, "qty").Type())
	assert.Len(t, actions, 1)
}
