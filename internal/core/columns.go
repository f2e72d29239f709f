package core

import (
	"slices"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// resolveColumns normalises every column reference in c the same way
// Preprocess normalises column names, then checks that each one exists in t.
// It returns the stage owning the first bad reference.
func (c *Config) resolveColumns(t *table.Table) (Stage, error) {
	sanitize := c.Preprocess.SanitizeNames
	norm := func(names []string) []string {
		if len(names) == 0 {
			return names
		}
		out := make([]string, len(names))
		for i, n := range names {
			out[i] = normalizeName(n, sanitize)
		}
		return out
	}
	check := func(stage Stage, names []string) error {
		for _, n := range names {
			if !t.Has(n) {
				return schemaError(stage, n, "unknown column")
			}
		}
		return nil
	}

	c.Missing.Columns = norm(c.Missing.Columns)
	if len(c.Missing.Overrides) > 0 {
		overrides := make(map[string]MissingStrategy, len(c.Missing.Overrides))
		for n, s := range c.Missing.Overrides {
			overrides[normalizeName(n, sanitize)] = s
		}
		c.Missing.Overrides = overrides
	}
	c.Duplicates.Subset = norm(c.Duplicates.Subset)
	c.Coercion.Columns = norm(c.Coercion.Columns)
	c.Text.Columns = norm(c.Text.Columns)
	c.Formats.Email = norm(c.Formats.Email)
	c.Formats.Phone = norm(c.Formats.Phone)
	c.Outliers.Columns = norm(c.Outliers.Columns)
	if len(c.Consistency.Rules) > 0 {
		rules := make([]ColumnRule, len(c.Consistency.Rules))
		for i, r := range c.Consistency.Rules {
			rules[i] = ColumnRule{Column: normalizeName(r.Column, sanitize), Rule: r.Rule}
		}
		c.Consistency.Rules = rules
	}

	if c.Missing.Enabled {
		if err := check(StageMissing, c.Missing.Columns); err != nil {
			return StageMissing, err
		}
		for n := range c.Missing.Overrides {
			if !t.Has(n) {
				return StageMissing, schemaError(StageMissing, n, "unknown column")
			}
		}
	}
	checks := []struct {
		enabled bool
		stage   Stage
		names   []string
	}{
		{c.Duplicates.Enabled, StageDuplicates, c.Duplicates.Subset},
		{c.Coercion.Enabled, StageCoercion, c.Coercion.Columns},
		{c.Text.Enabled, StageText, c.Text.Columns},
		{c.Formats.Enabled, StageFormats, c.Formats.Email},
		{c.Formats.Enabled, StageFormats, c.Formats.Phone},
		{c.Outliers.Enabled, StageOutliers, c.Outliers.Columns},
	}
	for _, ch := range checks {
		if !ch.enabled {
			continue
		}
		if err := check(ch.stage, ch.names); err != nil {
			return ch.stage, err
		}
	}
	if c.Consistency.Enabled {
		for _, r := range c.Consistency.Rules {
			if !t.Has(r.Column) {
				return StageConsistency, schemaError(StageConsistency, r.Column, "unknown column")
			}
		}
	}
	return "", nil
}

// prune removes dropped columns from the configuration of the stages after
// missing-data handling. A stage whose explicit column list becomes empty is
// switched off rather than widened to every column. prune returns the
// dropped columns that were referenced.
func (c *Config) prune(dropped []string) []string {
	var referenced []string
	strip := func(names []string) ([]string, bool) {
		if len(names) == 0 {
			return names, false
		}
		out := names[:0:0]
		for _, n := range names {
			if slices.Contains(dropped, n) {
				if !slices.Contains(referenced, n) {
					referenced = append(referenced, n)
				}
				continue
			}
			out = append(out, n)
		}
		return out, len(out) == 0
	}

	var emptied bool
	if c.Duplicates.Subset, emptied = strip(c.Duplicates.Subset); emptied {
		c.Duplicates.Enabled = false
	}
	if c.Coercion.Columns, emptied = strip(c.Coercion.Columns); emptied {
		c.Coercion.Enabled = false
	}
	if c.Text.Columns, emptied = strip(c.Text.Columns); emptied {
		c.Text.Enabled = false
	}
	if c.Outliers.Columns, emptied = strip(c.Outliers.Columns); emptied {
		c.Outliers.Enabled = false
	}
	c.Formats.Email, _ = strip(c.Formats.Email)
	c.Formats.Phone, _ = strip(c.Formats.Phone)

	var rules []ColumnRule
	for _, r := range c.Consistency.Rules {
		if slices.Contains(dropped, r.Column) {
			if !slices.Contains(referenced, r.Column) {
				referenced = append(referenced, r.Column)
			}
			continue
		}
		rules = append(rules, r)
	}
	c.Consistency.Rules = rules
	return referenced
}
