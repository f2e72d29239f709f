package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/cleanse/internal/table"
)

func missingConfig(s MissingStrategy) MissingConfig {
	cfg := DefaultConfig().Missing
	cfg.Strategy = s
	return cfg
}

func TestHandleMissingData_DropRows(t *testing.T) {
	tbl := mustTable(t,
		table.MustColumn("id", table.Numeric, 1, 2, 3),
		table.MustColumn("val", table.Numeric, 5, nil, 7),
	)
	cfg := missingConfig(StrategyDrop)
	cfg.Columns = []string{"val"}

	out, actions, err := HandleMissingData(tbl, cfg)
	require.NoError(t, err)

	assert.Equal(t, []any{1.0, 3.0}, floats(column(t, out, "id")))
	assert.Equal(t, []int{0, 2}, out.Labels())
	require.Len(t, actions, 1)
	assert.Equal(t, StageMissing, actions[0].Stage)
	assert.Equal(t, 1, actions[0].RowsAffected)
	assert.Equal(t, []string{"val"}, actions[0].ColumnsAffected)

	// Input is untouched.
	assert.Equal(t, 3, tbl.NumRows())
}

func TestHandleMissingData_FillMedian(t *testing.T) {
	tbl := mustTable(t, table.MustColumn("x", table.Numeric, 1, 2, nil, 4, 100))

	out, actions, err := HandleMissingData(tbl, missingConfig(StrategyFillMedian))
	require.NoError(t, err)

	x := column(t, out, "x")
	assert.Equal(t, []any{1.0, 2.0, 3.0, 4.0, 100.0}, floats(x))
	assert.Zero(t, x.NullCount())
	require.Len(t, actions, 1)
	assert.Equal(t, 1, actions[0].RowsAffected)
	assert.Contains(t, actions[0].Description, "fill_median (3)")
}

func TestHandleMissingData_FillMean(t *testing.T) {
	tbl := mustTable(t, table.MustColumn("x", table.Numeric, 1, nil, 5))

	out, _, err := HandleMissingData(tbl, missingConfig(StrategyFillMean))
	require.NoError(t, err)
	assert.Equal(t, []any{1.0, 3.0, 5.0}, floats(column(t, out, "x")))
}

func TestHandleMissingData_Threshold(t *testing.T) {
	tbl := mustTable(t,
		table.MustColumn("a", table.Numeric, 1, 2, 3, 4),
		table.MustColumn("sparse", table.Numeric, nil, nil, nil, 1),
		table.MustColumn("half", table.Numeric, nil, nil, 3, 4),
	)

	out, actions, err := HandleMissingData(tbl, missingConfig(StrategyFillMedian))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "half"}, out.Names(), "only columns above the threshold are dropped")
	require.NotEmpty(t, actions)
	assert.Equal(t, []string{"sparse"}, actions[0].ColumnsAffected)
	assert.Contains(t, actions[0].Description, "dropped 1 column")
}

func TestHandleMissingData_StrategyPrecedence(t *testing.T) {
	tbl := mustTable(t,
		table.MustColumn("a", table.Numeric, 1, nil, 3, 10),
		table.MustColumn("b", table.Numeric, 1, nil, 5, 10),
	)
	cfg := missingConfig(StrategyFillMean)
	cfg.DropEmptyRows = false
	cfg.TypeDefaults = map[table.Type]MissingStrategy{table.Numeric: StrategyFillMedian}
	cfg.Overrides = map[string]MissingStrategy{"b": StrategyFillForward}

	out, actions, err := HandleMissingData(tbl, cfg)
	require.NoError(t, err)

	assert.Equal(t, []any{1.0, 3.0, 3.0, 10.0}, floats(column(t, out, "a")), "type default beats global")
	assert.Equal(t, []any{1.0, 1.0, 5.0, 10.0}, floats(column(t, out, "b")), "override beats type default")
	assert.Len(t, actions, 2)
}

func TestHandleMissingData_Propagate(t *testing.T) {
	tests := []struct {
		name     string
		strategy MissingStrategy
		input    []any
		want     []any
		edge     string
	}{
		{
			name:     "forward leaves leading null",
			strategy: StrategyFillForward,
			input:    []any{nil, 1, nil, 3},
			want:     []any{nil, 1.0, 1.0, 3.0},
			edge:     "1 leading null",
		},
		{
			name:     "backward leaves trailing null",
			strategy: StrategyFillBackward,
			input:    []any{1, nil, 3, nil},
			want:     []any{1.0, 3.0, 3.0, nil},
			edge:     "1 trailing null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := mustTable(t, table.MustColumn("x", table.Numeric, tt.input...))
			cfg := missingConfig(tt.strategy)
			cfg.Threshold = 1
			cfg.DropEmptyRows = false

			out, actions, err := HandleMissingData(tbl, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, floats(column(t, out, "x")))
			require.Len(t, actions, 1)
			assert.Equal(t, 1, actions[0].RowsAffected)
			assert.Contains(t, actions[0].Description, tt.edge)
		})
	}
}

func TestHandleMissingData_SmartFill(t *testing.T) {
	d1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	tbl := mustTable(t,
		table.MustColumn("n", table.Numeric, 1, 2, 10, nil),
		table.MustColumn("s", table.Text, "x", "y", nil, "x"),
		table.MustColumn("d", table.Datetime, d1, nil, d3, d3),
		table.MustColumn("b", table.Boolean, nil, true, false, true),
	)

	out, actions, err := HandleMissingData(tbl, missingConfig(StrategySmartFill))
	require.NoError(t, err)

	assert.Equal(t, []any{1.0, 2.0, 10.0, 2.0}, floats(column(t, out, "n")))
	assert.Equal(t, []any{"x", "y", "x", "x"}, strs(column(t, out, "s")))
	assert.Equal(t, "2024-01-03", column(t, out, "d").Format(1))
	assert.Equal(t, "true", column(t, out, "b").Format(0))
	assert.Zero(t, out.NullCount())
	assert.Len(t, actions, 4)
}

func TestHandleMissingData_Degenerate(t *testing.T) {
	build := func(t *testing.T) *table.Table {
		return mustTable(t,
			table.MustColumn("a", table.Numeric, 1, 2),
			table.MustColumn("empty", table.Numeric, nil, nil),
			table.MustColumn("label", table.Text, "x", nil),
		)
	}

	t.Run("leave emits warnings", func(t *testing.T) {
		cfg := missingConfig(StrategyFillMean)
		cfg.Threshold = 1

		out, actions, err := HandleMissingData(build(t), cfg)
		require.NoError(t, err)

		assert.Equal(t, 2, column(t, out, "empty").NullCount())
		assert.Equal(t, 1, column(t, out, "label").NullCount(), "mean is undefined for text")
		require.Len(t, actions, 2)
		for _, a := range actions {
			assert.Equal(t, LevelWarning, a.Level)
			assert.Zero(t, a.RowsAffected)
		}
	})

	t.Run("fail aborts", func(t *testing.T) {
		cfg := missingConfig(StrategyFillMedian)
		cfg.Threshold = 1
		cfg.AllNull = AllNullFail

		_, _, err := HandleMissingData(build(t), cfg)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrComputation)

		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, StageMissing, e.Stage)
	})
}

func TestHandleMissingData_EmptyRows(t *testing.T) {
	tbl := mustTable(t,
		table.MustColumn("a", table.Numeric, 1, nil, 3),
		table.MustColumn("b", table.Text, "x", nil, "z"),
	)

	out, actions, err := HandleMissingData(tbl, missingConfig(StrategyDrop))
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, out.Labels())
	require.Len(t, actions, 1)
	assert.Equal(t, "removed 1 empty row", actions[0].Description)
}

func TestHandleMissingData_UnknownColumn(t *testing.T) {
	tbl := mustTable(t, table.MustColumn("a", table.Numeric, 1))
	cfg := missingConfig(StrategyDrop)
	cfg.Columns = []string{"nope"}

	_, _, err := HandleMissingData(tbl, cfg)
	assert.ErrorIs(t, err, ErrSchema)
}
