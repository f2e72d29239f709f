package core

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// textColumns resolves the columns a text-only stage works on. Empty names
// select every text column; naming a non-text column is a schema error.
func textColumns(t *table.Table, names []string, stage Stage) ([]table.Column, error) {
	if len(names) == 0 {
		var cols []table.Column
		for _, c := range t.Columns() {
			if c.Type() == table.Text {
				cols = append(cols, c)
			}
		}
		return cols, nil
	}
	cols, err := consideredColumns(t, names, stage)
	if err != nil {
		return nil, err
	}
	for _, c := range cols {
		if c.Type() != table.Text {
			return nil, schemaError(stage, c.Name(), "column is %s, not text", c.Type())
		}
	}
	return cols, nil
}

// caser applies one CaseMode. A caser is not safe for concurrent use.
type caser struct {
	mode  CaseMode
	title cases.Caser
}

func newCaser(mode CaseMode) *caser {
	c := &caser{mode: mode}
	if mode == CaseTitle {
		c.title = cases.Title(language.Und)
	}
	return c
}

func (c *caser) apply(s string) string {
	switch c.mode {
	case CaseUpper:
		return strings.ToUpper(s)
	case CaseLower:
		return strings.ToLower(s)
	case CaseTitle:
		return c.title.String(s)
	case CaseSentence:
		s = strings.ToLower(s)
		r, size := utf8.DecodeRuneInString(s)
		if r == utf8.RuneError {
			return s
		}
		return string(unicode.ToUpper(r)) + s[size:]
	default:
		return s
	}
}

// StandardizeText trims text values, collapses whitespace runs to a single
// space and applies the configured case mode. Running it twice changes nothing.
func StandardizeText(t *table.Table, cfg TextConfig) (*table.Table, []Action, error) {
	cols, err := textColumns(t, cfg.Columns, StageText)
	if err != nil {
		return nil, nil, err
	}

	cs := newCaser(cfg.Case)
	var changed []table.Column
	var actions []Action
	for _, c := range cols {
		vals := c.Values()
		n := 0
		for i, v := range vals {
			if !v.Valid {
				continue
			}
			s := cs.apply(strings.Join(strings.Fields(v.Str), " "))
			if s != v.Str {
				vals[i] = table.String(s)
				n++
			}
		}
		if n == 0 {
			continue
		}
		changed = append(changed, c.WithValues(vals))
		actions = append(actions, info(StageText, n, []string{c.Name()},
			"standardised %d text %s in %s (case %s)", n, plural(n, "value", "values"), c.Name(), cfg.Case))
	}

	if len(changed) == 0 {
		return t, actions, nil
	}
	out, err := t.WithColumns(changed...)
	if err != nil {
		return nil, nil, schemaError(StageText, "", "%v", err)
	}
	return out, actions, nil
}
