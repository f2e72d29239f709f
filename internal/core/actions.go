package core

import "fmt"

// Stage names a step of the cleaning pipeline.
type Stage string

const (
	StageConfig      Stage = "config"
	StagePreprocess  Stage = "preprocess"
	StageMissing     Stage = "missing_data"
	StageDuplicates  Stage = "duplicates"
	StageCoercion    Stage = "type_coercion"
	StageText        Stage = "text"
	StageFormats     Stage = "formats"
	StageOutliers    Stage = "outliers"
	StageConsistency Stage = "consistency"
)

// Stages lists the pipeline stages in execution order.
var Stages = []Stage{
	StagePreprocess,
	StageMissing,
	StageDuplicates,
	StageCoercion,
	StageText,
	StageFormats,
	StageOutliers,
	StageConsistency,
}

// Level is the severity of an Action.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
)

// Action is one entry in the cleaning log. Entries are append-only and their
// order is execution order.
type Action struct {
	Seq             int      `json:"seq" yaml:"seq"`
	Stage           Stage    `json:"stage" yaml:"stage"`
	Description     string   `json:"description" yaml:"description"`
	RowsAffected    int      `json:"rows_affected" yaml:"rows_affected"`
	ColumnsAffected []string `json:"columns_affected" yaml:"columns_affected"`
	Level           Level    `json:"level" yaml:"level"`
}

func newAction(level Level, stage Stage, rows int, cols []string, format string, args ...any) Action {
	if cols == nil {
		cols = []string{}
	}
	return Action{
		Stage:           stage,
		Description:     fmt.Sprintf(format, args...),
		RowsAffected:    rows,
		ColumnsAffected: cols,
		Level:           level,
	}
}

func info(stage Stage, rows int, cols []string, format string, args ...any) Action {
	return newAction(LevelInfo, stage, rows, cols, format, args...)
}

func warning(stage Stage, rows int, cols []string, format string, args ...any) Action {
	return newAction(LevelWarning, stage, rows, cols, format, args...)
}

// actionLog numbers actions as they are appended.
type actionLog struct {
	entries []Action
}

func (l *actionLog) add(actions ...Action) {
	for _, a := range actions {
		a.Seq = len(l.entries) + 1
		l.entries = append(l.entries, a)
	}
}

func (l *actionLog) snapshot() []Action {
	out := make([]Action, len(l.entries))
	copy(out, l.entries)
	return out
}

// plural picks the singular or plural form of a noun for n.
func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
