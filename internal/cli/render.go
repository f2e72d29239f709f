package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/JonMunkholm/cleanse/internal/core"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if title != "" {
		t.SetTitle(title)
	}
	return t
}

// renderSummary prints before/after counts of a run.
func renderSummary(w io.Writer, runID string, s core.Summary) {
	t := newTable(w, "Run "+runID)
	t.AppendHeader(table.Row{"Metric", "Before", "After"})
	t.AppendRow(table.Row{"Rows", s.OriginalRows, s.CleanedRows})
	t.AppendRow(table.Row{"Columns", s.OriginalColumns, s.CleanedColumns})
	t.AppendRow(table.Row{"Nulls", s.NullsBefore, s.NullsAfter})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Actions", "", s.ActionsPerformed})
	t.AppendRow(table.Row{"Outliers flagged", "", s.OutliersFlagged})
	t.AppendRow(table.Row{"Issues found", "", s.IssuesFound})
	t.Render()
}

// renderLog prints the action log in order.
func renderLog(w io.Writer, log []core.Action) {
	if len(log) == 0 {
		fmt.Fprintln(w, "No actions recorded.")
		return
	}
	t := newTable(w, "")
	t.AppendHeader(table.Row{"#", "Stage", "Level", "Rows", "Columns", "Description"})
	for _, a := range log {
		t.AppendRow(table.Row{a.Seq, a.Stage, a.Level, a.RowsAffected, strings.Join(a.ColumnsAffected, ", "), a.Description})
	}
	t.Render()
}

func renderOutliers(w io.Writer, r core.OutlierReport) {
	if len(r) == 0 {
		return
	}
	t := newTable(w, "Outliers")
	t.AppendHeader(table.Row{"Column", "Method", "Lower", "Upper", "Flagged"})
	for _, name := range r.Columns() {
		c := r[name]
		t.AppendRow(table.Row{name, c.Method, fmt.Sprintf("%.4g", c.Lower), fmt.Sprintf("%.4g", c.Upper), len(c.Rows)})
	}
	t.Render()
}

func renderIssues(w io.Writer, issues []core.Issue) {
	if len(issues) == 0 {
		return
	}
	t := newTable(w, "Issues")
	t.AppendHeader(table.Row{"Row", "Column", "Reason", "Value"})
	for _, is := range issues {
		t.AppendRow(table.Row{is.Row, is.Column, is.Reason, is.Value})
	}
	t.Render()
}
