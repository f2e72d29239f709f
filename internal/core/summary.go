package core

import "github.com/JonMunkholm/cleanse/internal/table"

// Summary aggregates a run into before/after figures.
type Summary struct {
	OriginalRows     int           `json:"original_rows" yaml:"original_rows"`
	CleanedRows      int           `json:"cleaned_rows" yaml:"cleaned_rows"`
	RemovedRows      int           `json:"removed_rows" yaml:"removed_rows"`
	ActionsPerformed int           `json:"actions_performed" yaml:"actions_performed"`
	OriginalColumns  int           `json:"original_columns" yaml:"original_columns"`
	CleanedColumns   int           `json:"cleaned_columns" yaml:"cleaned_columns"`
	NullsBefore      int           `json:"nulls_before" yaml:"nulls_before"`
	NullsAfter       int           `json:"nulls_after" yaml:"nulls_after"`
	OutliersFlagged  int           `json:"outliers_flagged" yaml:"outliers_flagged"`
	IssuesFound      int           `json:"issues_found" yaml:"issues_found"`
	ActionsByStage   map[Stage]int `json:"actions_by_stage" yaml:"actions_by_stage"`
	// Deltas holds cleaned minus original for rows, columns and nulls.
	Deltas map[string]int `json:"deltas" yaml:"deltas"`
}

// Summarize derives a Summary from the input table and the result of
// cleaning it.
func Summarize(original *table.Table, res *Result) Summary {
	s := Summary{
		OriginalRows:    original.NumRows(),
		OriginalColumns: original.NumCols(),
		NullsBefore:     original.NullCount(),
		ActionsByStage:  make(map[Stage]int),
	}
	if res == nil {
		s.Deltas = map[string]int{"rows": 0, "columns": 0, "nulls": 0}
		return s
	}
	if res.Cleaned != nil {
		s.CleanedRows = res.Cleaned.NumRows()
		s.CleanedColumns = res.Cleaned.NumCols()
		s.NullsAfter = res.Cleaned.NullCount()
	}
	s.RemovedRows = s.OriginalRows - s.CleanedRows
	s.ActionsPerformed = len(res.Log)
	s.OutliersFlagged = res.Outliers.Flagged()
	s.IssuesFound = len(res.Issues)
	for _, a := range res.Log {
		s.ActionsByStage[a.Stage]++
	}
	s.Deltas = map[string]int{
		"rows":    s.CleanedRows - s.OriginalRows,
		"columns": s.CleanedColumns - s.OriginalColumns,
		"nulls":   s.NullsAfter - s.NullsBefore,
	}
	return s
}
