package core

// consistency.go checks column values against business rules.
//
// Validation happens at two levels:
//  1. Explicit rules: a regex pattern and/or a numeric range bound to a column
//  2. Builtin checks: sanity rules derived from column names and types
//     (negative amounts, implausible ages, percentages, future dates)
//
// Violations are returned as Issues. The table is never modified.

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// Reason codes for consistency issues.
const (
	ReasonPatternMismatch = "pattern_mismatch"
	ReasonBelowMin        = "below_min"
	ReasonAboveMax        = "above_max"
	ReasonNegativeValue   = "negative_value"
	ReasonFutureDate      = "future_date"
	ReasonImplausibleAge  = "implausible_age"
	ReasonInvalidPercent  = "invalid_percent"
)

// Issue is a value that fails a check. Row is the row label.
type Issue struct {
	Row    int    `json:"row" yaml:"row"`
	Column string `json:"column" yaml:"column"`
	Reason string `json:"reason" yaml:"reason"`
	Value  string `json:"value" yaml:"value"`
}

func (i Issue) String() string {
	return fmt.Sprintf("row %d, %s: %s (%q)", i.Row, i.Column, i.Reason, i.Value)
}

// Rule is a check applied to every non-null value of a column. Pattern is
// matched against the value's text form; Min and Max bound numeric values.
// Reason replaces the default reason code when set.
type Rule struct {
	Pattern string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Min     *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Reason  string   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// FormatRule returns the rule used to validate a format kind with the
// default patterns.
func FormatRule(kind FormatKind) Rule {
	if kind == FormatPhone {
		return Rule{Pattern: DefaultPhonePattern, Reason: ReasonInvalidPhone}
	}
	return Rule{Pattern: DefaultEmailPattern, Reason: ReasonInvalidEmail}
}

// ValidateConsistency applies rule to every non-null value of column and
// returns one issue per failing value, in row order.
func ValidateConsistency(t *table.Table, column string, rule Rule) ([]Issue, error) {
	c, ok := t.Column(column)
	if !ok {
		return nil, schemaError(StageConsistency, column, "unknown column")
	}
	if err := rule.check(); err != nil {
		return nil, configError(StageConsistency, column, "%v", err)
	}
	if (rule.Min != nil || rule.Max != nil) && c.Type() != table.Numeric {
		return nil, schemaError(StageConsistency, column, "range rule needs a numeric column, got %s", c.Type())
	}

	var re *regexp.Regexp
	if rule.Pattern != "" {
		re = regexp.MustCompile(rule.Pattern)
	}
	reason := func(def string) string {
		if rule.Reason != "" {
			return rule.Reason
		}
		return def
	}

	var issues []Issue
	for i := 0; i < c.Len(); i++ {
		v := c.Value(i)
		if !v.Valid {
			continue
		}
		text := v.Format(c.Type())
		add := func(code string) {
			issues = append(issues, Issue{Row: t.Label(i), Column: column, Reason: reason(code), Value: text})
		}
		switch {
		case re != nil && !re.MatchString(text):
			add(ReasonPatternMismatch)
		case rule.Min != nil && v.Num < *rule.Min:
			add(ReasonBelowMin)
		case rule.Max != nil && v.Num > *rule.Max:
			add(ReasonAboveMax)
		}
	}
	return issues, nil
}

// nameTokens splits a column name into lowercase words.
func nameTokens(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func hasToken(name string, words ...string) bool {
	for _, tok := range nameTokens(name) {
		tok = strings.TrimSuffix(tok, "s")
		for _, w := range words {
			if tok == w {
				return true
			}
		}
	}
	return false
}

var (
	nonNegativeWords = []string{"age", "price", "amount", "quantity", "qty", "count"}
	ageWords         = []string{"age"}
	percentWords     = []string{"percent", "percentage", "pct"}
)

// builtinIssues runs the name- and type-based checks over every column.
func builtinIssues(t *table.Table, now time.Time) []Issue {
	var issues []Issue
	for _, c := range t.Columns() {
		name := c.Name()
		switch c.Type() {
		case table.Numeric:
			nonNeg := hasToken(name, nonNegativeWords...)
			age := hasToken(name, ageWords...)
			pct := hasToken(name, percentWords...)
			if !nonNeg && !pct {
				continue
			}
			for i := 0; i < c.Len(); i++ {
				v := c.Value(i)
				if !v.Valid {
					continue
				}
				var code string
				switch {
				case nonNeg && v.Num < 0:
					code = ReasonNegativeValue
				case age && v.Num > 150:
					code = ReasonImplausibleAge
				case pct && (v.Num < 0 || v.Num > 100):
					code = ReasonInvalidPercent
				}
				if code != "" {
					issues = append(issues, Issue{Row: t.Label(i), Column: name, Reason: code, Value: c.Format(i)})
				}
			}
		case table.Datetime:
			for i := 0; i < c.Len(); i++ {
				if v := c.Value(i); v.Valid && v.Time.After(now) {
					issues = append(issues, Issue{Row: t.Label(i), Column: name, Reason: ReasonFutureDate, Value: c.Format(i)})
				}
			}
		}
	}
	return issues
}

// ValidateAll runs every configured rule and, when enabled, the builtin
// checks. Issues are ordered by row, then by column order. One warning action
// is recorded per column with issues.
func ValidateAll(t *table.Table, cfg ConsistencyConfig) ([]Issue, []Action, error) {
	var issues []Issue
	for _, r := range cfg.Rules {
		found, err := ValidateConsistency(t, r.Column, r.Rule)
		if err != nil {
			return nil, nil, err
		}
		issues = append(issues, found...)
	}
	if cfg.Builtins {
		now := time.Now
		if cfg.Now != nil {
			now = cfg.Now
		}
		issues = append(issues, builtinIssues(t, now())...)
	}

	colIdx := make(map[string]int, t.NumCols())
	for i, n := range t.Names() {
		colIdx[n] = i
	}
	sort.SliceStable(issues, func(a, b int) bool {
		if issues[a].Row != issues[b].Row {
			return issues[a].Row < issues[b].Row
		}
		return colIdx[issues[a].Column] < colIdx[issues[b].Column]
	})

	byCol := make(map[string][]string)
	counts := make(map[string]int)
	for _, is := range issues {
		if !slices.Contains(byCol[is.Column], is.Reason) {
			byCol[is.Column] = append(byCol[is.Column], is.Reason)
		}
		counts[is.Column]++
	}
	var actions []Action
	for _, name := range t.Names() {
		n := counts[name]
		if n == 0 {
			continue
		}
		actions = append(actions, warning(StageConsistency, n, []string{name},
			"%d %s in %s failed consistency checks (%s)", n, plural(n, "value", "values"), name,
			strings.Join(byCol[name], ", ")))
	}
	return issues, actions, nil
}
