package table

// convert.go turns raw cell text and loosely typed Go values into Values.
//
// These functions handle the messy reality of user-provided data:
//   - Multiple date formats (US, EU, ISO, etc.)
//   - Currency symbols and thousand separators in numbers
//   - Various boolean representations (yes/no, true/false, t/f)
//   - Excel formula prefixes (="value")
//   - Tokens that mean "no value" (NA, null, NaN, ...)

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling
var (
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04",
		"2006-01-02", "2006/01/02", "2006.01.02",
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"Jan 2, 2006", "2 Jan 2006", "January 2, 2006",
	}
)

// nullTokens are cell contents treated as missing (compared case-insensitively).
var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
	"nil":  true,
	"-":    true,
}

// IsNullToken reports whether s denotes a missing value.
func IsNullToken(s string) bool {
	return nullTokens[strings.ToLower(strings.TrimSpace(s))]
}

// ParseDate parses s using the supported layouts.
// Handles 2-digit years with the pivot.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, true
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, true
		}
	}

	return time.Time{}, false
}

// ParseNumber parses s as a number.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, "฿", "") // Baht
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBool parses s as a boolean.
// Accepts various representations: true/false, yes/no, t/f, y/n.
// "1" and "0" are deliberately excluded so numeric columns are not mistaken for flags.
func ParseBool(s string) (bool, bool) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "true", "t", "yes", "y":
		return true, true
	case "false", "f", "no", "n":
		return false, true
	default:
		return false, false
	}
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// ParseCell converts raw cell text into a Value of the given type.
// The second result is false when s is not empty but cannot be parsed.
func ParseCell(s string, typ Type) (Value, bool) {
	if IsNullToken(s) {
		return Null(), true
	}
	switch typ {
	case Numeric:
		if f, ok := ParseNumber(s); ok {
			return Float(f), true
		}
	case Datetime:
		if t, ok := ParseDate(s); ok {
			return Time(t), true
		}
	case Boolean:
		if b, ok := ParseBool(s); ok {
			return Bool(b), true
		}
	default:
		return String(s), true
	}
	return Null(), false
}

// Convert converts an arbitrary Go value to a Value of the given type.
// nil converts to null. Strings go through the same parsers as CSV cells;
// everything else is handed to cast.
func Convert(raw any, typ Type) (Value, error) {
	if raw == nil {
		return Null(), nil
	}
	if v, ok := raw.(Value); ok {
		return v, nil
	}
	if s, ok := raw.(string); ok && typ != Text {
		v, ok := ParseCell(s, typ)
		if !ok {
			return Null(), fmt.Errorf("cannot parse %q as %s", s, typ)
		}
		return v, nil
	}

	switch typ {
	case Numeric:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return Null(), err
		}
		return Float(f), nil
	case Datetime:
		t, err := cast.ToTimeE(raw)
		if err != nil {
			return Null(), err
		}
		return Time(t), nil
	case Boolean:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return Null(), err
		}
		return Bool(b), nil
	case Text:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return Null(), err
		}
		return String(s), nil
	default:
		return Null(), fmt.Errorf("unknown column type %d", typ)
	}
}
