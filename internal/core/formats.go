package core

import (
	"regexp"
	"strings"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// Reason codes for format validation issues.
const (
	ReasonInvalidEmail = "invalid_email"
	ReasonInvalidPhone = "invalid_phone"
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone removes spaces, hyphens and parentheses from a phone number.
// A leading '+' is kept; any other '+' is dropped.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	plus := strings.HasPrefix(s, "+")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-', '(', ')', '+':
			return -1
		}
		return r
	}, s)
	if plus {
		return "+" + s
	}
	return s
}

func (f FormatKind) normalize(s string) string {
	if f == FormatPhone {
		return NormalizePhone(s)
	}
	return NormalizeEmail(s)
}

func (f FormatKind) reason() string {
	if f == FormatPhone {
		return ReasonInvalidPhone
	}
	return ReasonInvalidEmail
}

// formatPatterns holds the compiled validation patterns of one run.
type formatPatterns map[FormatKind]*regexp.Regexp

func compileFormatPatterns(cfg FormatConfig) (formatPatterns, error) {
	emailPat := cfg.EmailPattern
	if emailPat == "" {
		emailPat = DefaultEmailPattern
	}
	phonePat := cfg.PhonePattern
	if phonePat == "" {
		phonePat = DefaultPhonePattern
	}
	email, err := regexp.Compile(emailPat)
	if err != nil {
		return nil, configError(StageFormats, "", "invalid email pattern: %v", err)
	}
	phone, err := regexp.Compile(phonePat)
	if err != nil {
		return nil, configError(StageFormats, "", "invalid phone pattern: %v", err)
	}
	return formatPatterns{FormatEmail: email, FormatPhone: phone}, nil
}

// detectFormat reports which format the sampled values of c look like.
// A column is detected when at least half of its sample matches.
func detectFormat(c table.Column, size int, pats formatPatterns) (FormatKind, bool) {
	sample := sampleText(c, size)
	if len(sample) == 0 {
		return 0, false
	}
	for _, kind := range []FormatKind{FormatEmail, FormatPhone} {
		hits := 0
		for _, s := range sample {
			if pats[kind].MatchString(kind.normalize(s)) {
				hits++
			}
		}
		if hits*2 >= len(sample) {
			return kind, true
		}
	}
	return 0, false
}

// StandardizeFormats normalises email and phone columns and, when Validate
// is set, reports values that do not match the configured pattern. Invalid
// values are kept. Nulls pass through.
func StandardizeFormats(t *table.Table, cfg FormatConfig) (*table.Table, []Action, []Issue, error) {
	pats, err := compileFormatPatterns(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	kinds := make(map[string]FormatKind)
	var order []string
	assign := func(names []string, kind FormatKind) error {
		cols, err := textColumns(t, names, StageFormats)
		if err != nil {
			return err
		}
		for _, c := range cols {
			if prev, ok := kinds[c.Name()]; ok && prev != kind {
				return configError(StageFormats, c.Name(), "listed as both %s and %s", prev, kind)
			}
			if _, ok := kinds[c.Name()]; !ok {
				order = append(order, c.Name())
			}
			kinds[c.Name()] = kind
		}
		return nil
	}
	if len(cfg.Email) > 0 {
		if err := assign(cfg.Email, FormatEmail); err != nil {
			return nil, nil, nil, err
		}
	}
	if len(cfg.Phone) > 0 {
		if err := assign(cfg.Phone, FormatPhone); err != nil {
			return nil, nil, nil, err
		}
	}
	if cfg.AutoDetect {
		size := cfg.SampleSize
		if size < 1 {
			size = DefaultSampleSize
		}
		for _, c := range t.Columns() {
			if c.Type() != table.Text {
				continue
			}
			if _, listed := kinds[c.Name()]; listed {
				continue
			}
			if kind, ok := detectFormat(c, size, pats); ok {
				kinds[c.Name()] = kind
				order = append(order, c.Name())
			}
		}
	}

	var changed []table.Column
	var actions []Action
	var issues []Issue
	for _, name := range order {
		kind := kinds[name]
		c, _ := t.Column(name)
		vals := c.Values()
		n, invalid := 0, 0
		for i, v := range vals {
			if !v.Valid {
				continue
			}
			s := kind.normalize(v.Str)
			if s != v.Str {
				vals[i] = table.String(s)
				n++
			}
			if cfg.Validate && !pats[kind].MatchString(s) {
				invalid++
				issues = append(issues, Issue{Row: t.Label(i), Column: name, Reason: kind.reason(), Value: s})
			}
		}
		if n > 0 {
			changed = append(changed, c.WithValues(vals))
		}
		if invalid > 0 {
			actions = append(actions, warning(StageFormats, n, []string{name},
				"standardised %d %s %s in %s; %d failed validation",
				n, kind, plural(n, "value", "values"), name, invalid))
		} else if n > 0 {
			actions = append(actions, info(StageFormats, n, []string{name},
				"standardised %d %s %s in %s", n, kind, plural(n, "value", "values"), name))
		}
	}

	if len(changed) == 0 {
		return t, actions, issues, nil
	}
	out, err := t.WithColumns(changed...)
	if err != nil {
		return nil, nil, nil, schemaError(StageFormats, "", "%v", err)
	}
	return out, actions, issues, nil
}
