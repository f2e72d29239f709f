package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/cleanse/internal/table"
)

var outlierInput = []any{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}

func outlierConfig(method OutlierMethod, action OutlierAction) OutlierConfig {
	return OutlierConfig{Enabled: true, Method: method, Action: action, Workers: 2}
}

func TestDetectOutliers_IQR(t *testing.T) {
	tbl := mustTable(t, table.MustColumn("x", table.Numeric, outlierInput...))

	out, report, actions, err := DetectOutliers(tbl, outlierConfig(MethodIQR, OutlierFlag))
	require.NoError(t, err)

	assert.Same(t, tbl, out, "flagging leaves the table untouched")
	x := report["x"]
	assert.Equal(t, []int{9}, x.Rows)
	assert.InDelta(t, 3.25, x.Q1, 1e-9)
	assert.InDelta(t, 7.75, x.Q3, 1e-9)
	assert.InDelta(t, -3.5, x.Lower, 1e-9)
	assert.InDelta(t, 14.5, x.Upper, 1e-9)
	assert.Equal(t, 1, report.Flagged())

	require.Len(t, actions, 1)
	assert.Equal(t, "flagged 1 outlier in x outside [-3.5, 14.5] (iqr)", actions[0].Description)
}

func TestDetectOutliers_ZScore(t *testing.T) {
	tbl := mustTable(t, table.MustColumn("x", table.Numeric, outlierInput...))

	_, report, _, err := DetectOutliers(tbl, outlierConfig(MethodZScore, OutlierFlag))
	require.NoError(t, err)
	assert.Empty(t, report["x"].Rows, "z of 100 is about 2.84, below the default threshold")

	cfg := outlierConfig(MethodZScore, OutlierFlag)
	cfg.Threshold = 2
	_, report, _, err = DetectOutliers(tbl, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{9}, report["x"].Rows)
	assert.InDelta(t, 14.5, report["x"].Mean, 1e-9)
}

func TestDetectOutliers_ZeroStd(t *testing.T) {
	tbl := mustTable(t, table.MustColumn("c", table.Numeric, 5, 5, 5, nil))

	_, report, actions, err := DetectOutliers(tbl, outlierConfig(MethodZScore, OutlierFlag))
	require.NoError(t, err)

	assert.Empty(t, report["c"].Rows)
	require.Len(t, actions, 1)
	assert.Equal(t, LevelWarning, actions[0].Level)
	assert.Contains(t, actions[0].Description, "zero standard deviation")
}

func TestDetectOutliers_Cap(t *testing.T) {
	tbl := mustTable(t, table.MustColumn("x", table.Numeric, outlierInput...))

	out, report, actions, err := DetectOutliers(tbl, outlierConfig(MethodIQR, OutlierCap))
	require.NoError(t, err)

	x := column(t, out, "x")
	assert.Equal(t, 10, x.Len())
	assert.Equal(t, 14.5, x.Value(9).Num)
	assert.Equal(t, 9.0, x.Value(8).Num)
	assert.Equal(t, []int{9}, report["x"].Rows)
	require.Len(t, actions, 1)
	assert.Contains(t, actions[0].Description, "capped 1 outlier")

	// Original column keeps its value.
	assert.Equal(t, 100.0, column(t, tbl, "x").Value(9).Num)
}

func TestDetectOutliers_RemoveUnion(t *testing.T) {
	tbl := mustTable(t,
		table.MustColumn("a", table.Numeric, outlierInput...),
		table.MustColumn("b", table.Numeric, 100, 1, 2, 3, 4, 5, 6, 7, 8, 9),
		table.MustColumn("name", table.Text, "r0", "r1", "r2", "r3", "r4", "r5", "r6", "r7", "r8", "r9"),
	)

	out, report, actions, err := DetectOutliers(tbl, outlierConfig(MethodIQR, OutlierRemove))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, out.Labels())
	assert.Equal(t, []int{9}, report["a"].Rows)
	assert.Equal(t, []int{0}, report["b"].Rows)
	assert.Equal(t, []string{"a", "b"}, report.Columns())

	require.Len(t, actions, 3)
	removal := actions[2]
	assert.Equal(t, 2, removal.RowsAffected)
	assert.Equal(t, []string{"a", "b"}, removal.ColumnsAffected)
}

func TestDetectOutliers_SkipsEmptyAndRejectsText(t *testing.T) {
	tbl := mustTable(t,
		table.MustColumn("empty", table.Numeric, nil, nil),
		table.MustColumn("s", table.Text, "a", "b"),
	)

	_, report, actions, err := DetectOutliers(tbl, outlierConfig(MethodIQR, OutlierFlag))
	require.NoError(t, err)
	assert.Empty(t, report)
	assert.Empty(t, actions)

	cfg := outlierConfig(MethodIQR, OutlierFlag)
	cfg.Columns = []string{"s"}
	_, _, _, err = DetectOutliers(tbl, cfg)
	assert.ErrorIs(t, err, ErrSchema)
}
