// Package profile holds the string-keyed view of the cleaning configuration.
//
// A Profile is what users write: YAML files, CLEANSE_* environment
// variables, command-line flags and HTTP query parameters all use the same
// flat snake_case keys. Profile.Config parses those names into the closed
// enums of core.Config.
package profile

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/table"
)

// Profile is a cleaning configuration as loaded from text sources.
type Profile struct {
	Workers       int  `koanf:"workers"`
	SanitizeNames bool `koanf:"sanitize_names"`

	Missing        bool              `koanf:"missing"`
	Strategy       string            `koanf:"strategy"`
	Threshold      float64           `koanf:"threshold"`
	DropEmptyRows  bool              `koanf:"drop_empty_rows"`
	AllNull        string            `koanf:"all_null"`
	MissingColumns []string          `koanf:"missing_columns"`
	TypeDefaults   map[string]string `koanf:"type_defaults"`
	Overrides      map[string]string `koanf:"overrides"`

	Duplicates     bool     `koanf:"duplicates"`
	Subset         []string `koanf:"subset"`
	Keep           string   `koanf:"keep"`
	MarkDuplicates bool     `koanf:"mark_duplicates"`
	MarkColumn     string   `koanf:"mark_column"`

	Coerce        bool     `koanf:"coerce"`
	CoerceColumns []string `koanf:"coerce_columns"`
	SampleSize    int      `koanf:"sample_size"`

	Text        bool     `koanf:"text"`
	TextColumns []string `koanf:"text_columns"`
	Case        string   `koanf:"case"`

	Formats         bool     `koanf:"formats"`
	EmailColumns    []string `koanf:"email_columns"`
	PhoneColumns    []string `koanf:"phone_columns"`
	AutoDetect      bool     `koanf:"auto_detect"`
	ValidateFormats bool     `koanf:"validate_formats"`
	EmailPattern    string   `koanf:"email_pattern"`
	PhonePattern    string   `koanf:"phone_pattern"`

	Outliers         bool     `koanf:"outliers"`
	OutlierColumns   []string `koanf:"outlier_columns"`
	OutlierMethod    string   `koanf:"outlier_method"`
	OutlierThreshold float64  `koanf:"outlier_threshold"`
	OutlierAction    string   `koanf:"outlier_action"`

	Consistency   bool       `koanf:"consistency"`
	BuiltinChecks bool       `koanf:"builtin_checks"`
	Rules         []RuleSpec `koanf:"rules"`
}

// RuleSpec is a consistency rule in text form. Kind names a builtin format
// rule (email or phone); Pattern, Min and Max define a custom one.
type RuleSpec struct {
	Column  string   `koanf:"column" yaml:"column"`
	Kind    string   `koanf:"kind" yaml:"kind,omitempty"`
	Pattern string   `koanf:"pattern" yaml:"pattern,omitempty"`
	Min     *float64 `koanf:"min" yaml:"min,omitempty"`
	Max     *float64 `koanf:"max" yaml:"max,omitempty"`
	Reason  string   `koanf:"reason" yaml:"reason,omitempty"`
}

// Rule converts the spec to a core.Rule.
func (r RuleSpec) Rule() (core.Rule, error) {
	var rule core.Rule
	if r.Kind != "" {
		kind, err := core.ParseFormatKind(r.Kind)
		if err != nil {
			return core.Rule{}, err
		}
		rule = core.FormatRule(kind)
	}
	if r.Pattern != "" {
		rule.Pattern = r.Pattern
	}
	if r.Min != nil {
		rule.Min = r.Min
	}
	if r.Max != nil {
		rule.Max = r.Max
	}
	if r.Reason != "" {
		rule.Reason = r.Reason
	}
	return rule, nil
}

// Defaults returns the profile equivalent of core.DefaultConfig.
func Defaults() Profile {
	c := core.DefaultConfig()
	return Profile{
		Workers:       c.Workers,
		SanitizeNames: c.Preprocess.SanitizeNames,

		Missing:       c.Missing.Enabled,
		Strategy:      c.Missing.Strategy.String(),
		Threshold:     c.Missing.Threshold,
		DropEmptyRows: c.Missing.DropEmptyRows,
		AllNull:       c.Missing.AllNull.String(),

		Duplicates: c.Duplicates.Enabled,
		Keep:       c.Duplicates.Keep.String(),
		MarkColumn: c.Duplicates.MarkColumn,

		Coerce:     c.Coercion.Enabled,
		SampleSize: c.Coercion.SampleSize,

		Text: c.Text.Enabled,
		Case: c.Text.Case.String(),

		Formats:         c.Formats.Enabled,
		AutoDetect:      c.Formats.AutoDetect,
		ValidateFormats: c.Formats.Validate,
		EmailPattern:    c.Formats.EmailPattern,
		PhonePattern:    c.Formats.PhonePattern,

		Outliers:      c.Outliers.Enabled,
		OutlierMethod: c.Outliers.Method.String(),
		OutlierAction: c.Outliers.Action.String(),

		Consistency:   c.Consistency.Enabled,
		BuiltinChecks: c.Consistency.Builtins,
	}
}

// defaultMap flattens Defaults into koanf keys.
func defaultMap() map[string]any {
	return flatMap(Defaults())
}

// flatMap flattens the non-structured fields of p into koanf keys. List
// keys always hold a []string so callers can tell them apart.
func flatMap(p Profile) map[string]any {
	list := func(s []string) []string {
		if s == nil {
			return []string{}
		}
		return s
	}
	return map[string]any{
		"workers":           p.Workers,
		"sanitize_names":    p.SanitizeNames,
		"missing":           p.Missing,
		"strategy":          p.Strategy,
		"threshold":         p.Threshold,
		"drop_empty_rows":   p.DropEmptyRows,
		"all_null":          p.AllNull,
		"missing_columns":   list(p.MissingColumns),
		"duplicates":        p.Duplicates,
		"subset":            list(p.Subset),
		"keep":              p.Keep,
		"mark_duplicates":   p.MarkDuplicates,
		"mark_column":       p.MarkColumn,
		"coerce":            p.Coerce,
		"coerce_columns":    list(p.CoerceColumns),
		"sample_size":       p.SampleSize,
		"text":              p.Text,
		"text_columns":      list(p.TextColumns),
		"case":              p.Case,
		"formats":           p.Formats,
		"email_columns":     list(p.EmailColumns),
		"phone_columns":     list(p.PhoneColumns),
		"auto_detect":       p.AutoDetect,
		"validate_formats":  p.ValidateFormats,
		"email_pattern":     p.EmailPattern,
		"phone_pattern":     p.PhonePattern,
		"outliers":          p.Outliers,
		"outlier_columns":   list(p.OutlierColumns),
		"outlier_method":    p.OutlierMethod,
		"outlier_threshold": p.OutlierThreshold,
		"outlier_action":    p.OutlierAction,
		"consistency":       p.Consistency,
		"builtin_checks":    p.BuiltinChecks,
	}
}

// structuredKeys are accepted from files but not from flat sources such as
// query parameters.
var structuredKeys = map[string]bool{
	"type_defaults": true,
	"overrides":     true,
	"rules":         true,
}

// Config parses the profile into an engine configuration. Every unknown
// name is reported; the result matches core.ErrConfiguration. A Workers
// value of zero or less means one worker per CPU.
func (p Profile) Config() (core.Config, error) {
	cfg := core.DefaultConfig()
	var errs []error
	parse := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error

	cfg.Workers = p.Workers
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	cfg.Preprocess.SanitizeNames = p.SanitizeNames

	m := &cfg.Missing
	m.Enabled = p.Missing
	m.Strategy, err = core.ParseMissingStrategy(p.Strategy)
	parse(err)
	m.Threshold = p.Threshold
	m.DropEmptyRows = p.DropEmptyRows
	m.AllNull, err = core.ParseAllNullPolicy(p.AllNull)
	parse(err)
	m.Columns = p.MissingColumns
	if len(p.TypeDefaults) > 0 {
		m.TypeDefaults = make(map[table.Type]core.MissingStrategy, len(p.TypeDefaults))
		for name, s := range p.TypeDefaults {
			typ, err := table.ParseType(name)
			if err != nil {
				parse(&core.Error{Kind: core.ErrConfiguration, Stage: core.StageMissing, Reason: err.Error()})
				continue
			}
			strategy, err := core.ParseMissingStrategy(s)
			parse(err)
			m.TypeDefaults[typ] = strategy
		}
	}
	if len(p.Overrides) > 0 {
		m.Overrides = make(map[string]core.MissingStrategy, len(p.Overrides))
		for col, s := range p.Overrides {
			strategy, err := core.ParseMissingStrategy(s)
			parse(err)
			m.Overrides[col] = strategy
		}
	}

	d := &cfg.Duplicates
	d.Enabled = p.Duplicates
	d.Subset = p.Subset
	d.Keep, err = core.ParseKeepPolicy(p.Keep)
	parse(err)
	d.Mark = p.MarkDuplicates
	d.MarkColumn = p.MarkColumn

	cfg.Coercion = core.CoercionConfig{Enabled: p.Coerce, Columns: p.CoerceColumns, SampleSize: p.SampleSize}

	cfg.Text.Enabled = p.Text
	cfg.Text.Columns = p.TextColumns
	cfg.Text.Case, err = core.ParseCaseMode(p.Case)
	parse(err)

	cfg.Formats = core.FormatConfig{
		Enabled:      p.Formats,
		Email:        p.EmailColumns,
		Phone:        p.PhoneColumns,
		AutoDetect:   p.AutoDetect,
		SampleSize:   p.SampleSize,
		Validate:     p.ValidateFormats,
		EmailPattern: p.EmailPattern,
		PhonePattern: p.PhonePattern,
	}

	o := &cfg.Outliers
	o.Enabled = p.Outliers
	o.Columns = p.OutlierColumns
	o.Method, err = core.ParseOutlierMethod(p.OutlierMethod)
	parse(err)
	o.Threshold = p.OutlierThreshold
	o.Action, err = core.ParseOutlierAction(p.OutlierAction)
	parse(err)

	cfg.Consistency.Enabled = p.Consistency
	cfg.Consistency.Builtins = p.BuiltinChecks
	for _, rs := range p.Rules {
		rule, err := rs.Rule()
		if err != nil {
			parse(err)
			continue
		}
		cfg.Consistency.Rules = append(cfg.Consistency.Rules, core.ColumnRule{Column: rs.Column, Rule: rule})
	}

	if len(errs) > 0 {
		return core.Config{}, fmt.Errorf("profile: %w", errors.Join(errs...))
	}
	return cfg, nil
}
