package core

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// ColumnOutliers is the outlier analysis of one column. Rows holds row labels.
type ColumnOutliers struct {
	Rows   []int         `json:"rows" yaml:"rows"`
	Method OutlierMethod `json:"method" yaml:"method"`
	Lower  float64       `json:"lower" yaml:"lower"`
	Upper  float64       `json:"upper" yaml:"upper"`
	Q1     float64       `json:"q1,omitempty" yaml:"q1,omitempty"`
	Q3     float64       `json:"q3,omitempty" yaml:"q3,omitempty"`
	IQR    float64       `json:"iqr,omitempty" yaml:"iqr,omitempty"`
	Mean   float64       `json:"mean,omitempty" yaml:"mean,omitempty"`
	Std    float64       `json:"std,omitempty" yaml:"std,omitempty"`
}

// OutlierReport maps column names to their analysis.
type OutlierReport map[string]ColumnOutliers

// Flagged returns the total number of flagged values.
func (r OutlierReport) Flagged() int {
	n := 0
	for _, c := range r {
		n += len(c.Rows)
	}
	return n
}

// Columns returns the report's column names in sorted order.
func (r OutlierReport) Columns() []string {
	names := make([]string, 0, len(r))
	for n := range r {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type columnAnalysis struct {
	report    ColumnOutliers
	positions []int
	skipped   bool // no values to analyse
	zeroStd   bool
}

// analyse computes bounds and flags for one numeric column.
func analyse(c table.Column, method OutlierMethod, factor float64) columnAnalysis {
	xs, pos := c.Floats()
	a := columnAnalysis{report: ColumnOutliers{Method: method, Rows: []int{}}}
	if len(xs) == 0 {
		a.skipped = true
		return a
	}

	switch method {
	case MethodZScore:
		mean, std := meanStd(xs)
		a.report.Mean, a.report.Std = mean, std
		a.report.Lower, a.report.Upper = mean-factor*std, mean+factor*std
		if std == 0 {
			a.zeroStd = true
			return a
		}
		for i, x := range xs {
			if math.Abs((x-mean)/std) > factor {
				a.positions = append(a.positions, pos[i])
			}
		}
	default:
		sorted := sortedCopy(xs)
		q1, q3 := quantile(sorted, 0.25), quantile(sorted, 0.75)
		iqr := q3 - q1
		a.report.Q1, a.report.Q3, a.report.IQR = q1, q3, iqr
		a.report.Lower, a.report.Upper = q1-factor*iqr, q3+factor*iqr
		for i, x := range xs {
			if x < a.report.Lower || x > a.report.Upper {
				a.positions = append(a.positions, pos[i])
			}
		}
	}
	return a
}

// DetectOutliers analyses numeric columns with the IQR or z-score method and
// then flags, removes or caps what it finds. Removal drops every row flagged
// in any analysed column in a single pass.
func DetectOutliers(t *table.Table, cfg OutlierConfig) (*table.Table, OutlierReport, []Action, error) {
	var cols []table.Column
	if len(cfg.Columns) == 0 {
		for _, c := range t.Columns() {
			if c.Type() == table.Numeric {
				cols = append(cols, c)
			}
		}
	} else {
		named, err := consideredColumns(t, cfg.Columns, StageOutliers)
		if err != nil {
			return nil, nil, nil, err
		}
		for _, c := range named {
			if c.Type() != table.Numeric {
				return nil, nil, nil, schemaError(StageOutliers, c.Name(), "column is %s, not numeric", c.Type())
			}
		}
		cols = named
	}

	factor := cfg.factor()
	results := make([]columnAnalysis, len(cols))
	var g errgroup.Group
	g.SetLimit(workers(cfg.Workers))
	for i, c := range cols {
		g.Go(func() error {
			results[i] = analyse(c, cfg.Method, factor)
			return nil
		})
	}
	_ = g.Wait()

	report := make(OutlierReport, len(cols))
	var actions []Action
	var capped []table.Column
	flaggedPos := make(map[int]bool)
	var flaggedCols []string

	for i, c := range cols {
		a := results[i]
		if a.skipped {
			continue
		}
		for _, p := range a.positions {
			a.report.Rows = append(a.report.Rows, t.Label(p))
		}
		report[c.Name()] = a.report

		if a.zeroStd {
			actions = append(actions, warning(StageOutliers, 0, []string{c.Name()},
				"%s has zero standard deviation; no outliers flagged", c.Name()))
			continue
		}
		n := len(a.positions)
		if n == 0 {
			continue
		}
		bounds := fmt.Sprintf("[%s, %s]", formatFloat(a.report.Lower), formatFloat(a.report.Upper))

		if cfg.Action == OutlierCap {
			vals := c.Values()
			for _, p := range a.positions {
				vals[p] = table.Float(math.Min(math.Max(vals[p].Num, a.report.Lower), a.report.Upper))
			}
			capped = append(capped, c.WithValues(vals))
			actions = append(actions, info(StageOutliers, n, []string{c.Name()},
				"capped %d %s in %s to %s (%s)", n, plural(n, "outlier", "outliers"), c.Name(), bounds, cfg.Method))
			continue
		}

		actions = append(actions, info(StageOutliers, n, []string{c.Name()},
			"flagged %d %s in %s outside %s (%s)", n, plural(n, "outlier", "outliers"), c.Name(), bounds, cfg.Method))
		for _, p := range a.positions {
			flaggedPos[p] = true
		}
		flaggedCols = append(flaggedCols, c.Name())
	}

	switch cfg.Action {
	case OutlierCap:
		if len(capped) > 0 {
			out, err := t.WithColumns(capped...)
			if err != nil {
				return nil, nil, nil, computationError(StageOutliers, "", "%v", err)
			}
			t = out
		}
	case OutlierRemove:
		if len(flaggedPos) > 0 {
			t = t.Filter(func(i int) bool { return !flaggedPos[i] })
			actions = append(actions, info(StageOutliers, len(flaggedPos), flaggedCols,
				"removed %d %s with outliers in %s", len(flaggedPos), plural(len(flaggedPos), "row", "rows"),
				strings.Join(flaggedCols, ", ")))
		}
	}

	return t, report, actions, nil
}

func formatFloat(f float64) string {
	return table.Float(f).Format(table.Numeric)
}
