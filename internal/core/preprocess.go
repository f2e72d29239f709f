package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// nonWordRun matches runs of characters that are not letters, digits or '_'.
var nonWordRun = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// normalizeName trims and lowercases a column name. With sanitize it also
// replaces every run of other characters with one underscore.
// NormalizeName returns name as Preprocess would rename it.
func NormalizeName(name string, sanitize bool) string {
	return normalizeName(name, sanitize)
}

func normalizeName(name string, sanitize bool) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if sanitize {
		name = nonWordRun.ReplaceAllString(name, "_")
	}
	return name
}

// Preprocess normalises column names and rejects tables the engine cannot
// work on: tables without columns and tables whose names collide once
// normalised. Rows are not touched.
func Preprocess(t *table.Table, cfg PreprocessConfig) (*table.Table, []Action, error) {
	if t.NumCols() == 0 {
		return nil, nil, schemaError(StagePreprocess, "", "table has no columns")
	}

	names := t.Names()
	normalized := make([]string, len(names))
	origin := make(map[string]string, len(names))
	var renamed []string
	var pairs []string

	for i, n := range names {
		norm := normalizeName(n, cfg.SanitizeNames)
		if norm == "" {
			return nil, nil, schemaError(StagePreprocess, n, "column name is empty after normalisation")
		}
		if prev, dup := origin[norm]; dup {
			return nil, nil, schemaError(StagePreprocess, n, "collides with column %q (both normalise to %q)", prev, norm)
		}
		origin[norm] = n
		normalized[i] = norm
		if norm != n {
			renamed = append(renamed, norm)
			pairs = append(pairs, fmt.Sprintf("%q -> %q", n, norm))
		}
	}

	if len(renamed) == 0 {
		return t, nil, nil
	}

	out, err := t.Rename(normalized)
	if err != nil {
		return nil, nil, schemaError(StagePreprocess, "", "%v", err)
	}
	return out, []Action{
		info(StagePreprocess, 0, renamed, "normalised %d column %s: %s",
			len(renamed), plural(len(renamed), "name", "names"), strings.Join(pairs, ", ")),
	}, nil
}
