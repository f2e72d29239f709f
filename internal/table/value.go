package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Type is the semantic type tag of a column.
type Type uint8

const (
	Numeric Type = iota + 1
	Text
	Datetime
	Boolean
)

// String returns the lowercase name of the type.
func (t Type) String() string {
	switch t {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	case Datetime:
		return "datetime"
	case Boolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// ParseType converts a type name to a Type.
// "categorical" and "string" are accepted as aliases for Text.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric", "number", "float":
		return Numeric, nil
	case "text", "string", "categorical":
		return Text, nil
	case "datetime", "date", "timestamp":
		return Datetime, nil
	case "boolean", "bool":
		return Boolean, nil
	default:
		return 0, fmt.Errorf("unknown column type %q", s)
	}
}

// Value is a nullable scalar. Which field is meaningful depends on the
// type of the column holding it. Valid is false for null.
type Value struct {
	Num   float64
	Str   string
	Time  time.Time
	Bool  bool
	Valid bool
}

// Null returns the null value.
func Null() Value { return Value{} }

// Float returns a numeric value. NaN is stored as null.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	return Value{Num: f, Valid: true}
}

// String returns a text value.
func String(s string) Value { return Value{Str: s, Valid: true} }

// Time returns a datetime value.
func Time(t time.Time) Value { return Value{Time: t, Valid: true} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Bool: b, Valid: true} }

// Format renders v as text for a column of type typ.
// Null renders as the empty string.
func (v Value) Format(typ Type) string {
	if !v.Valid {
		return ""
	}
	switch typ {
	case Numeric:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case Datetime:
		t := v.Time.UTC()
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	case Boolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// Key returns an equality key for v under typ. Two nulls share a key, as do
// 0 and -0.
func (v Value) Key(typ Type) string {
	if !v.Valid {
		return "\x00"
	}
	switch typ {
	case Numeric:
		n := v.Num
		if n == 0 {
			n = 0
		}
		return "n" + strconv.FormatFloat(n, 'g', -1, 64)
	case Datetime:
		return "t" + strconv.FormatInt(v.Time.UnixNano(), 10)
	case Boolean:
		return "b" + strconv.FormatBool(v.Bool)
	default:
		return "s" + v.Str
	}
}

// Equal reports whether a and b hold the same value under typ.
func Equal(typ Type, a, b Value) bool {
	return a.Key(typ) == b.Key(typ)
}
