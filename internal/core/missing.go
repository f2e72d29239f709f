package core

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// HandleMissingData resolves null values.
//
// The stage runs in three steps. Rows in which every value is null are
// removed when DropEmptyRows is set. Columns whose null fraction exceeds
// Threshold are dropped. The remaining nulls of each considered column are
// then resolved by the column's strategy: rows with nulls in "drop" columns
// are removed in one pass, after which fill strategies are computed per
// column over the surviving rows.
func HandleMissingData(t *table.Table, cfg MissingConfig) (*table.Table, []Action, error) {
	var actions []Action

	if cfg.DropEmptyRows && t.NumCols() > 0 {
		before := t.NumRows()
		cols := t.Columns()
		t = t.Filter(func(i int) bool {
			for _, c := range cols {
				if !c.IsNull(i) {
					return true
				}
			}
			return false
		})
		if removed := before - t.NumRows(); removed > 0 {
			actions = append(actions, info(StageMissing, removed, nil,
				"removed %d empty %s", removed, plural(removed, "row", "rows")))
		}
	}

	considered, err := consideredColumns(t, cfg.Columns, StageMissing)
	if err != nil {
		return nil, nil, err
	}

	// Column-level drop.
	var sparse []string
	kept := considered[:0:0]
	for _, c := range considered {
		if c.NullFraction() > cfg.Threshold {
			sparse = append(sparse, c.Name())
			continue
		}
		kept = append(kept, c)
	}
	if len(sparse) > 0 {
		t = t.DropColumns(sparse...)
		actions = append(actions, info(StageMissing, 0, sparse,
			"dropped %d %s with more than %.0f%% missing values: %s",
			len(sparse), plural(len(sparse), "column", "columns"), cfg.Threshold*100, strings.Join(sparse, ", ")))
	}
	considered = kept

	// Row-level drop, applied once for every column using the drop strategy.
	var dropCols []string
	for _, c := range considered {
		if c.NullCount() > 0 && cfg.strategyFor(c) == StrategyDrop {
			dropCols = append(dropCols, c.Name())
		}
	}
	if len(dropCols) > 0 {
		before := t.NumRows()
		cols := make([]table.Column, len(dropCols))
		for i, name := range dropCols {
			cols[i], _ = t.Column(name)
		}
		t = t.Filter(func(i int) bool {
			for _, c := range cols {
				if c.IsNull(i) {
					return false
				}
			}
			return true
		})
		removed := before - t.NumRows()
		actions = append(actions, info(StageMissing, removed, dropCols,
			"dropped %d %s with missing values in %s", removed, plural(removed, "row", "rows"), strings.Join(dropCols, ", ")))
	}

	// Fills, one column per task.
	var fillCols []table.Column
	for _, c := range considered {
		cur, _ := t.Column(c.Name())
		if cur.NullCount() > 0 && cfg.strategyFor(cur) != StrategyDrop {
			fillCols = append(fillCols, cur)
		}
	}

	results := make([]fillResult, len(fillCols))
	var g errgroup.Group
	g.SetLimit(workers(cfg.Workers))
	for i, c := range fillCols {
		g.Go(func() error {
			res, err := fillColumn(c, cfg.strategyFor(c), cfg.AllNull)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var replaced []table.Column
	for _, r := range results {
		if r.changed {
			replaced = append(replaced, r.col)
		}
		actions = append(actions, r.action)
	}
	if len(replaced) > 0 {
		t, err = t.WithColumns(replaced...)
		if err != nil {
			return nil, nil, computationError(StageMissing, "", "%v", err)
		}
	}

	return t, actions, nil
}

type fillResult struct {
	col     table.Column
	changed bool
	action  Action
}

// fillColumn resolves the nulls of one column with a fill strategy.
func fillColumn(c table.Column, s MissingStrategy, policy AllNullPolicy) (fillResult, error) {
	name := c.Name()
	nulls := c.NullCount()

	degenerate := func(reason string) (fillResult, error) {
		if policy == AllNullFail {
			return fillResult{}, computationError(StageMissing, name, "cannot %s: %s", s, reason)
		}
		return fillResult{action: warning(StageMissing, 0, []string{name},
			"left %d %s in %s untouched: cannot %s (%s)", nulls, plural(nulls, "null", "nulls"), name, s, reason)}, nil
	}

	if nulls == c.Len() {
		return degenerate("column has no values")
	}

	if s == StrategySmartFill {
		switch c.Type() {
		case table.Numeric, table.Datetime:
			s = StrategyFillMedian
		default:
			s = StrategyFillMode
		}
	}

	switch s {
	case StrategyFillForward, StrategyFillBackward:
		vals, left := propagate(c.Values(), s == StrategyFillForward)
		filled := nulls - left
		desc := fmt.Sprintf("filled %d %s in %s with %s", filled, plural(filled, "null", "nulls"), name, s)
		if left > 0 {
			edge := "leading"
			if s == StrategyFillBackward {
				edge = "trailing"
			}
			desc += fmt.Sprintf("; %d %s %s left without a neighbour", left, edge, plural(left, "null", "nulls"))
		}
		return fillResult{
			col:     c.WithValues(vals),
			changed: filled > 0,
			action:  info(StageMissing, filled, []string{name}, "%s", desc),
		}, nil
	}

	var fill table.Value
	switch s {
	case StrategyFillMean, StrategyFillMedian:
		xs := numericView(c)
		if xs == nil {
			return degenerate(fmt.Sprintf("%s values have no %s", c.Type(), strings.TrimPrefix(s.String(), "fill_")))
		}
		if s == StrategyFillMean {
			m, _ := meanStd(xs)
			fill = fromFloat(c.Type(), m)
		} else {
			fill = fromFloat(c.Type(), median(xs))
		}
	case StrategyFillMode:
		fill, _ = mode(c)
	default:
		return fillResult{}, configError(StageMissing, name, "strategy %s cannot fill values", s)
	}

	vals := c.Values()
	for i := range vals {
		if !vals[i].Valid {
			vals[i] = fill
		}
	}
	return fillResult{
		col:     c.WithValues(vals),
		changed: true,
		action: info(StageMissing, nulls, []string{name}, "filled %d %s in %s with %s (%s)",
			nulls, plural(nulls, "null", "nulls"), name, s, fill.Format(c.Type())),
	}, nil
}

// propagate carries the nearest non-null value forward (or backward) over
// nulls. It returns the new values and the number of nulls left at the edge.
func propagate(vals []table.Value, forward bool) ([]table.Value, int) {
	n := len(vals)
	left := 0
	var last table.Value
	for k := 0; k < n; k++ {
		i := k
		if !forward {
			i = n - 1 - k
		}
		if vals[i].Valid {
			last = vals[i]
			continue
		}
		if last.Valid {
			vals[i] = last
		} else {
			left++
		}
	}
	return vals, left
}

// consideredColumns resolves a column list, where empty means every column.
func consideredColumns(t *table.Table, names []string, stage Stage) ([]table.Column, error) {
	if len(names) == 0 {
		return t.Columns(), nil
	}
	cols := make([]table.Column, 0, len(names))
	for _, n := range names {
		c, ok := t.Column(n)
		if !ok {
			return nil, schemaError(stage, n, "unknown column")
		}
		cols = append(cols, c)
	}
	return cols, nil
}
