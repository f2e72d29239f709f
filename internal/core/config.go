package core

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"runtime"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// ----------------------------------------------------------------------------
// Enumerations
// ----------------------------------------------------------------------------

// MissingStrategy selects how remaining nulls are resolved.
type MissingStrategy uint8

const (
	StrategyDrop MissingStrategy = iota + 1
	StrategyFillMean
	StrategyFillMedian
	StrategyFillMode
	StrategyFillForward
	StrategyFillBackward
	StrategySmartFill
)

var missingStrategyNames = map[MissingStrategy]string{
	StrategyDrop:         "drop",
	StrategyFillMean:     "fill_mean",
	StrategyFillMedian:   "fill_median",
	StrategyFillMode:     "fill_mode",
	StrategyFillForward:  "fill_forward",
	StrategyFillBackward: "fill_backward",
	StrategySmartFill:    "smart_fill",
}

var missingStrategyAliases = map[string]MissingStrategy{
	"mean":   StrategyFillMean,
	"median": StrategyFillMedian,
	"mode":   StrategyFillMode,
	"ffill":  StrategyFillForward,
	"bfill":  StrategyFillBackward,
	"smart":  StrategySmartFill,
}

func (s MissingStrategy) String() string { return enumString(missingStrategyNames, s) }

func (s MissingStrategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *MissingStrategy) UnmarshalText(b []byte) error {
	v, err := ParseMissingStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseMissingStrategy converts a strategy name such as "fill_median" or
// "ffill" to a MissingStrategy.
func ParseMissingStrategy(s string) (MissingStrategy, error) {
	if v, ok := missingStrategyAliases[normalizeEnum(s)]; ok {
		return v, nil
	}
	return parseEnum("missing strategy", s, missingStrategyNames)
}

// AllNullPolicy decides what a fill does when it has nothing to fill from.
type AllNullPolicy uint8

const (
	AllNullLeave AllNullPolicy = iota + 1
	AllNullFail
)

var allNullPolicyNames = map[AllNullPolicy]string{
	AllNullLeave: "leave",
	AllNullFail:  "fail",
}

func (p AllNullPolicy) String() string { return enumString(allNullPolicyNames, p) }

func (p AllNullPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *AllNullPolicy) UnmarshalText(b []byte) error {
	v, err := ParseAllNullPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// ParseAllNullPolicy converts "leave" or "fail" to an AllNullPolicy.
func ParseAllNullPolicy(s string) (AllNullPolicy, error) {
	return parseEnum("all-null policy", s, allNullPolicyNames)
}

// KeepPolicy selects which member of a duplicate group survives.
type KeepPolicy uint8

const (
	KeepFirst KeepPolicy = iota + 1
	KeepLast
	KeepNone
)

var keepPolicyNames = map[KeepPolicy]string{
	KeepFirst: "first",
	KeepLast:  "last",
	KeepNone:  "none",
}

func (k KeepPolicy) String() string { return enumString(keepPolicyNames, k) }

func (k KeepPolicy) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *KeepPolicy) UnmarshalText(b []byte) error {
	v, err := ParseKeepPolicy(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKeepPolicy converts "first", "last" or "none" to a KeepPolicy.
// "false" is accepted for "none".
func ParseKeepPolicy(s string) (KeepPolicy, error) {
	if normalizeEnum(s) == "false" {
		return KeepNone, nil
	}
	return parseEnum("keep policy", s, keepPolicyNames)
}

// CaseMode is the letter-case transform applied by the text stage.
type CaseMode uint8

const (
	CaseNone CaseMode = iota + 1
	CaseUpper
	CaseLower
	CaseTitle
	CaseSentence
)

var caseModeNames = map[CaseMode]string{
	CaseNone:     "none",
	CaseUpper:    "upper",
	CaseLower:    "lower",
	CaseTitle:    "title",
	CaseSentence: "sentence",
}

func (c CaseMode) String() string { return enumString(caseModeNames, c) }

func (c CaseMode) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *CaseMode) UnmarshalText(b []byte) error {
	v, err := ParseCaseMode(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseCaseMode converts a case mode name to a CaseMode. "proper" is an
// alias for "title".
func ParseCaseMode(s string) (CaseMode, error) {
	if normalizeEnum(s) == "proper" {
		return CaseTitle, nil
	}
	return parseEnum("case mode", s, caseModeNames)
}

// OutlierMethod selects the outlier statistic.
type OutlierMethod uint8

const (
	MethodIQR OutlierMethod = iota + 1
	MethodZScore
)

var outlierMethodNames = map[OutlierMethod]string{
	MethodIQR:    "iqr",
	MethodZScore: "zscore",
}

func (m OutlierMethod) String() string { return enumString(outlierMethodNames, m) }

func (m OutlierMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *OutlierMethod) UnmarshalText(b []byte) error {
	v, err := ParseOutlierMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseOutlierMethod converts "iqr" or "zscore" to an OutlierMethod.
func ParseOutlierMethod(s string) (OutlierMethod, error) {
	if normalizeEnum(s) == "z_score" {
		return MethodZScore, nil
	}
	return parseEnum("outlier method", s, outlierMethodNames)
}

// OutlierAction is what happens to detected outliers.
type OutlierAction uint8

const (
	OutlierFlag OutlierAction = iota + 1
	OutlierRemove
	OutlierCap
)

var outlierActionNames = map[OutlierAction]string{
	OutlierFlag:   "flag",
	OutlierRemove: "remove",
	OutlierCap:    "cap",
}

func (a OutlierAction) String() string { return enumString(outlierActionNames, a) }

func (a OutlierAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *OutlierAction) UnmarshalText(b []byte) error {
	v, err := ParseOutlierAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ParseOutlierAction converts "flag", "remove" or "cap" to an OutlierAction.
func ParseOutlierAction(s string) (OutlierAction, error) {
	return parseEnum("outlier action", s, outlierActionNames)
}

// FormatKind is a domain format handled by the format stage.
type FormatKind uint8

const (
	FormatEmail FormatKind = iota + 1
	FormatPhone
)

var formatKindNames = map[FormatKind]string{
	FormatEmail: "email",
	FormatPhone: "phone",
}

func (f FormatKind) String() string { return enumString(formatKindNames, f) }

func (f FormatKind) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *FormatKind) UnmarshalText(b []byte) error {
	v, err := ParseFormatKind(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// ParseFormatKind converts "email" or "phone" to a FormatKind.
func ParseFormatKind(s string) (FormatKind, error) {
	return parseEnum("format kind", s, formatKindNames)
}

func normalizeEnum(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "-", "_")
}

func enumString[T comparable](names map[T]string, v T) string {
	if n, ok := names[v]; ok {
		return n
	}
	return "unknown"
}

func parseEnum[T comparable](kind, s string, names map[T]string) (T, error) {
	key := normalizeEnum(s)
	for v, n := range names {
		if n == key {
			return v, nil
		}
	}
	valid := make([]string, 0, len(names))
	for _, n := range names {
		valid = append(valid, n)
	}
	sort.Strings(valid)
	var zero T
	return zero, configError(StageConfig, "", "unknown %s %q (valid: %s)", kind, s, strings.Join(valid, ", "))
}

// ----------------------------------------------------------------------------
// Stage configuration
// ----------------------------------------------------------------------------

// Default patterns used by the format stage when none are configured.
const (
	DefaultEmailPattern = `^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`
	DefaultPhonePattern = `^\+?\d{8,15}$`
)

// Default statistics parameters.
const (
	DefaultIQRFactor        = 1.5
	DefaultZScoreThreshold  = 3.0
	DefaultMissingThreshold = 0.5
	DefaultSampleSize       = 10
	DefaultMarkColumn       = "is_duplicate"
)

// Config is the complete configuration of one cleaning run. Start from
// DefaultConfig and adjust; the zero value is not valid.
type Config struct {
	// Workers bounds the number of columns analysed concurrently.
	Workers int

	Preprocess  PreprocessConfig
	Missing     MissingConfig
	Duplicates  DuplicateConfig
	Coercion    CoercionConfig
	Text        TextConfig
	Formats     FormatConfig
	Outliers    OutlierConfig
	Consistency ConsistencyConfig
}

// PreprocessConfig controls column name normalisation. Preprocessing always runs.
type PreprocessConfig struct {
	// SanitizeNames replaces runs of characters other than letters, digits
	// and underscores with a single underscore.
	SanitizeNames bool
}

// MissingConfig controls the missing-data stage.
type MissingConfig struct {
	Enabled  bool
	Strategy MissingStrategy

	// TypeDefaults override Strategy for every column of a type.
	TypeDefaults map[table.Type]MissingStrategy
	// Overrides set the strategy of single columns and win over TypeDefaults.
	Overrides map[string]MissingStrategy
	// Columns restricts the stage to the listed columns. Empty means all.
	Columns []string

	// Threshold is the null fraction above which a column is dropped.
	Threshold float64
	// DropEmptyRows removes rows in which every value is null before anything else.
	DropEmptyRows bool
	AllNull       AllNullPolicy

	// Workers is set from Config.Workers by the Cleaner. Zero means one.
	Workers int
}

// DuplicateConfig controls the duplicate stage.
type DuplicateConfig struct {
	Enabled bool
	Subset  []string // columns that define equality; empty means all
	Keep    KeepPolicy
	// Mark keeps every row and appends a boolean MarkColumn instead.
	Mark       bool
	MarkColumn string
}

// CoercionConfig controls conversion of text columns to richer types.
type CoercionConfig struct {
	Enabled    bool
	Columns    []string // empty means every text column
	SampleSize int
	// Skip lists columns that stay text. The Cleaner fills it with the
	// email and phone columns of the formats stage.
	Skip []string
}

// TextConfig controls the text stage.
type TextConfig struct {
	Enabled bool
	Columns []string // empty means every text column
	Case    CaseMode
}

// FormatConfig controls the format stage.
type FormatConfig struct {
	Enabled bool
	Email   []string
	Phone   []string

	// AutoDetect adds text columns whose sampled values look like emails or phones.
	AutoDetect bool
	SampleSize int

	// Validate records values that do not match the pattern as issues.
	Validate     bool
	EmailPattern string
	PhonePattern string
}

// Columns returns the email columns followed by the phone columns.
func (f FormatConfig) Columns() []string {
	return append(slices.Clone(f.Email), f.Phone...)
}

// OutlierConfig controls the outlier stage.
type OutlierConfig struct {
	Enabled bool
	Columns []string // empty means every numeric column
	Method  OutlierMethod
	// Threshold is the IQR factor or the z-score limit. Zero selects the
	// method's default.
	Threshold float64
	Action    OutlierAction

	// Workers is set from Config.Workers by the Cleaner. Zero means one.
	Workers int
}

// ConsistencyConfig controls the consistency stage.
type ConsistencyConfig struct {
	Enabled bool
	Rules   []ColumnRule
	// Builtins enables the name-based checks for negative amounts, implausible
	// ages, percentages out of range and dates in the future.
	Builtins bool
	// Now is the reference time for future-date checks. Nil means time.Now.
	Now func() time.Time
}

// ColumnRule binds a Rule to a column.
type ColumnRule struct {
	Column string `json:"column" yaml:"column"`
	Rule   Rule   `json:"rule" yaml:"rule"`
}

// DefaultConfig returns the configuration used when nothing is specified.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.GOMAXPROCS(0),
		Missing: MissingConfig{
			Enabled:       true,
			Strategy:      StrategySmartFill,
			Threshold:     DefaultMissingThreshold,
			DropEmptyRows: true,
			AllNull:       AllNullLeave,
		},
		Duplicates: DuplicateConfig{
			Enabled:    true,
			Keep:       KeepFirst,
			MarkColumn: DefaultMarkColumn,
		},
		Coercion: CoercionConfig{
			Enabled:    true,
			SampleSize: DefaultSampleSize,
		},
		Text: TextConfig{
			Enabled: true,
			Case:    CaseNone,
		},
		Formats: FormatConfig{
			Enabled:      true,
			AutoDetect:   true,
			SampleSize:   DefaultSampleSize,
			Validate:     true,
			EmailPattern: DefaultEmailPattern,
			PhonePattern: DefaultPhonePattern,
		},
		Outliers: OutlierConfig{
			Enabled: true,
			Method:  MethodIQR,
			Action:  OutlierFlag,
		},
		Consistency: ConsistencyConfig{
			Enabled:  true,
			Builtins: true,
		},
	}
}

// Validate checks the configuration without looking at any table. All
// problems are reported together; the result matches ErrConfiguration.
func (c Config) Validate() error {
	var errs []error
	add := func(stage Stage, format string, args ...any) {
		errs = append(errs, configError(stage, "", format, args...))
	}

	if c.Workers < 1 {
		add(StageConfig, "workers must be at least 1, got %d", c.Workers)
	}

	if m := c.Missing; m.Enabled {
		if _, ok := missingStrategyNames[m.Strategy]; !ok {
			add(StageMissing, "invalid strategy %d", m.Strategy)
		}
		for typ, s := range m.TypeDefaults {
			if _, ok := missingStrategyNames[s]; !ok {
				add(StageMissing, "invalid strategy %d for type %s", s, typ)
			}
		}
		for col, s := range m.Overrides {
			if _, ok := missingStrategyNames[s]; !ok {
				add(StageMissing, "invalid strategy %d for column %q", s, col)
			}
		}
		if math.IsNaN(m.Threshold) || m.Threshold < 0 || m.Threshold > 1 {
			add(StageMissing, "threshold must be between 0 and 1, got %v", m.Threshold)
		}
		if _, ok := allNullPolicyNames[m.AllNull]; !ok {
			add(StageMissing, "invalid all-null policy %d", m.AllNull)
		}
	}

	if d := c.Duplicates; d.Enabled {
		if _, ok := keepPolicyNames[d.Keep]; !ok {
			add(StageDuplicates, "invalid keep policy %d", d.Keep)
		}
		if d.Mark && strings.TrimSpace(d.MarkColumn) == "" {
			add(StageDuplicates, "mark column name is required when marking duplicates")
		}
	}

	if co := c.Coercion; co.Enabled && co.SampleSize < 1 {
		add(StageCoercion, "sample size must be at least 1, got %d", co.SampleSize)
	}

	if t := c.Text; t.Enabled {
		if _, ok := caseModeNames[t.Case]; !ok {
			add(StageText, "invalid case mode %d", t.Case)
		}
	}

	if f := c.Formats; f.Enabled {
		if f.AutoDetect && f.SampleSize < 1 {
			add(StageFormats, "sample size must be at least 1, got %d", f.SampleSize)
		}
		if f.Validate {
			if _, err := regexp.Compile(f.EmailPattern); err != nil {
				add(StageFormats, "invalid email pattern: %v", err)
			}
			if _, err := regexp.Compile(f.PhonePattern); err != nil {
				add(StageFormats, "invalid phone pattern: %v", err)
			}
		}
		seen := make(map[string]bool, len(f.Email))
		for _, col := range f.Email {
			seen[normalizeName(col, false)] = true
		}
		for _, col := range f.Phone {
			if seen[normalizeName(col, false)] {
				add(StageFormats, "column %q is listed as both email and phone", col)
			}
		}
	}

	if o := c.Outliers; o.Enabled {
		if _, ok := outlierMethodNames[o.Method]; !ok {
			add(StageOutliers, "invalid method %d", o.Method)
		}
		if _, ok := outlierActionNames[o.Action]; !ok {
			add(StageOutliers, "invalid action %d", o.Action)
		}
		if math.IsNaN(o.Threshold) || o.Threshold < 0 {
			add(StageOutliers, "threshold must be positive, got %v", o.Threshold)
		}
	}

	if cc := c.Consistency; cc.Enabled {
		for _, r := range cc.Rules {
			if err := r.Rule.check(); err != nil {
				add(StageConsistency, "rule for column %q: %v", r.Column, err)
			}
		}
	}

	return errors.Join(errs...)
}

// factor returns the effective IQR factor or z-score threshold.
func (o OutlierConfig) factor() float64 {
	if o.Threshold > 0 {
		return o.Threshold
	}
	if o.Method == MethodZScore {
		return DefaultZScoreThreshold
	}
	return DefaultIQRFactor
}

// strategyFor resolves the strategy of one column.
func (m MissingConfig) strategyFor(col table.Column) MissingStrategy {
	if s, ok := m.Overrides[col.Name()]; ok {
		return s
	}
	if s, ok := m.TypeDefaults[col.Type()]; ok {
		return s
	}
	return m.Strategy
}

func workers(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func (r Rule) check() error {
	if r.Pattern == "" && r.Min == nil && r.Max == nil {
		return fmt.Errorf("rule needs a pattern or a range")
	}
	if r.Pattern != "" {
		if _, err := regexp.Compile(r.Pattern); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return fmt.Errorf("min %v is greater than max %v", *r.Min, *r.Max)
	}
	return nil
}
