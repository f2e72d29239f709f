package core

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// RemoveDuplicates removes or marks rows that repeat earlier (or later) rows.
//
// Two rows are equal when every column in Subset holds the same value; every
// column is compared when Subset is empty. Nulls are equal to each other.
// With Mark set no row is removed: a boolean column named MarkColumn is
// appended and is true on each row the keep policy would have removed.
func RemoveDuplicates(t *table.Table, cfg DuplicateConfig) (*table.Table, []Action, error) {
	cols, err := consideredColumns(t, cfg.Subset, StageDuplicates)
	if err != nil {
		return nil, nil, err
	}
	markName := cfg.MarkColumn
	if markName == "" {
		markName = DefaultMarkColumn
	}
	if cfg.Mark && t.Has(markName) {
		return nil, nil, schemaError(StageDuplicates, markName, "indicator column already exists")
	}

	dup := duplicateRows(t.NumRows(), cols, cfg.Keep)
	count := 0
	for _, d := range dup {
		if d {
			count++
		}
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name()
	}
	scope := "all columns"
	if len(cfg.Subset) > 0 {
		scope = strings.Join(names, ", ")
	}

	if cfg.Mark {
		marks := make([]table.Value, len(dup))
		for i, d := range dup {
			marks[i] = table.Bool(d)
		}
		out, err := t.WithColumn(table.FromValues(markName, table.Boolean, marks))
		if err != nil {
			return nil, nil, schemaError(StageDuplicates, markName, "%v", err)
		}
		return out, []Action{info(StageDuplicates, count, []string{markName},
			"marked %d duplicate %s in %s (keep %s, compared on %s)",
			count, plural(count, "row", "rows"), markName, cfg.Keep, scope)}, nil
	}

	out := t.Filter(func(i int) bool { return !dup[i] })
	return out, []Action{info(StageDuplicates, count, names,
		"removed %d duplicate %s (keep %s, compared on %s)",
		count, plural(count, "row", "rows"), cfg.Keep, scope)}, nil
}

// duplicateRows reports, per row position, whether the keep policy removes it.
func duplicateRows(n int, cols []table.Column, keep KeepPolicy) []bool {
	keys := make([]string, n)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.Reset()
		for _, c := range cols {
			k := c.Value(i).Key(c.Type())
			b.WriteString(strconv.Itoa(len(k)))
			b.WriteByte(':')
			b.WriteString(k)
		}
		keys[i] = b.String()
	}

	dup := make([]bool, n)
	switch keep {
	case KeepLast:
		seen := make(map[string]bool, n)
		for i := n - 1; i >= 0; i-- {
			dup[i] = seen[keys[i]]
			seen[keys[i]] = true
		}
	case KeepNone:
		counts := make(map[string]int, n)
		for _, k := range keys {
			counts[k]++
		}
		for i, k := range keys {
			dup[i] = counts[k] > 1
		}
	default:
		seen := make(map[string]bool, n)
		for i, k := range keys {
			dup[i] = seen[k]
			seen[k] = true
		}
	}
	return dup
}
