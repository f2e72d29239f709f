package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/csvio"
	"github.com/JonMunkholm/cleanse/internal/logging"
	"github.com/JonMunkholm/cleanse/internal/metrics"
	"github.com/JonMunkholm/cleanse/internal/profile"
	"github.com/JonMunkholm/cleanse/internal/table"
	mw "github.com/JonMunkholm/cleanse/internal/web/middleware"
)

// ColumnInfo describes one column of a cleaned table.
type ColumnInfo struct {
	Name string     `json:"name"`
	Type table.Type `json:"type"`
}

// CleanResponse is the JSON body returned by POST /api/clean.
type CleanResponse struct {
	RunID    string             `json:"run_id"`
	Columns  []ColumnInfo       `json:"columns"`
	Rows     [][]any            `json:"rows"`
	Labels   []int              `json:"labels"`
	Log      []core.Action      `json:"log"`
	Outliers core.OutlierReport `json:"outliers"`
	Issues   []core.Issue       `json:"issues"`
	Summary  core.Summary       `json:"summary"`
}

// ValidateResponse is the JSON body returned by POST /api/validate.
type ValidateResponse struct {
	Column string       `json:"column"`
	Rule   core.Rule    `json:"rule"`
	Count  int          `json:"count"`
	Issues []core.Issue `json:"issues"`
}

// handleClean runs the pipeline over the CSV request body. Query parameters
// are profile keys; format=csv returns the cleaned table as CSV.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format := q.Get("format")
	q.Del("format")
	if format != "" && format != "json" && format != "csv" {
		s.respondError(w, r, fmt.Errorf("%w: unknown format %q (valid: json, csv)", errBadInput, format))
		return
	}

	cfg, err := s.engineConfig(q)
	if err != nil {
		s.metrics.ObserveFailure(err, 0)
		s.respondError(w, r, err)
		return
	}

	var textColumns []string
	if cfg.Formats.Enabled {
		textColumns = cfg.Formats.Columns()
	}
	t, release, err := s.readTable(w, r, textColumns)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer release()

	start := time.Now()
	res, err := s.cleaner.Clean(t, cfg)
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.ObserveFailure(err, elapsed)
		s.respondError(w, r, err)
		return
	}

	sum := core.Summarize(t, res)
	s.metrics.ObserveRun(sum, elapsed)
	logger := logging.WithFields(r.Context(), "run_id", res.RunID.String())
	logger.Info("cleaning complete",
		"rows_in", sum.OriginalRows,
		"rows_out", sum.CleanedRows,
		"actions", sum.ActionsPerformed,
		"issues", sum.IssuesFound,
		"duration_ms", elapsed.Milliseconds(),
	)

	w.Header().Set(mw.RunIDHeader, res.RunID.String())
	if format == "csv" {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		if err := csvio.Write(w, res.Cleaned); err != nil {
			// Headers are already sent.
			logger.Error("write csv response", "error", err)
		}
		return
	}

	render.JSON(w, r, newCleanResponse(res, sum))
}

// handleValidate applies one consistency rule to a column of the CSV body.
// The rule is named by rule=email|phone or built from pattern, min and max.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	spec, err := ruleSpec(q)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rule, err := spec.Rule()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	var textColumns []string
	if spec.Kind != "" || spec.Pattern != "" {
		textColumns = []string{spec.Column}
	}
	t, release, err := s.readTable(w, r, textColumns)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer release()

	issues, err := core.ValidateConsistency(t, spec.Column, rule)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if issues == nil {
		issues = []core.Issue{}
	}

	logging.FromContext(r.Context()).Info("validation complete", "column", spec.Column, "issues", len(issues))
	render.JSON(w, r, ValidateResponse{Column: spec.Column, Rule: rule, Count: len(issues), Issues: issues})
}

// handleHealth reports liveness and limiter occupancy.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.limiter.Status()
	render.JSON(w, r, map[string]any{
		"status":      "ok",
		"active_runs": st.Active,
		"max_runs":    st.MaxConcurrent,
	})
}

// engineConfig overlays the query on the base profile and parses it.
func (s *Server) engineConfig(q url.Values) (core.Config, error) {
	p, err := profile.Overlay(s.base, q)
	if err != nil {
		return core.Config{}, err
	}
	cfg, err := p.Config()
	if err != nil {
		return core.Config{}, err
	}
	if limit := s.cfg.Clean.Workers; limit > 0 && cfg.Workers > limit {
		cfg.Workers = limit
	}
	return cfg, nil
}

// readTable takes a run slot and decodes the request body, keeping
// textColumns as text. The returned release func frees the slot and must be
// called once the run is done.
func (s *Server) readTable(w http.ResponseWriter, r *http.Request, textColumns []string) (*table.Table, func(), error) {
	if err := s.limiter.Acquire(r.Context()); err != nil {
		if metrics.Status(err) == metrics.StatusRejected {
			s.metrics.ObserveRejected()
		}
		return nil, nil, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Clean.MaxBodyBytes)
	opts := csvio.DefaultOptions()
	opts.TextColumns = textColumns
	if n := s.cfg.Clean.InferenceSample; n > 0 {
		opts.SampleSize = n
	}

	t, err := csvio.Read(r.Body, opts)
	if err != nil {
		s.limiter.Release()
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, nil, fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, maxBytes.Limit)
		}
		return nil, nil, fmt.Errorf("%w: %w", errBadInput, err)
	}
	return t, s.limiter.Release, nil
}

func newCleanResponse(res *core.Result, sum core.Summary) CleanResponse {
	t := res.Cleaned
	cols := t.Columns()
	info := make([]ColumnInfo, len(cols))
	for i, c := range cols {
		info[i] = ColumnInfo{Name: c.Name(), Type: c.Type()}
	}

	rows := make([][]any, t.NumRows())
	for i := range rows {
		row := make([]any, len(cols))
		for j, c := range cols {
			row[j] = cellJSON(c, i)
		}
		rows[i] = row
	}

	issues := res.Issues
	if issues == nil {
		issues = []core.Issue{}
	}
	outliers := res.Outliers
	if outliers == nil {
		outliers = core.OutlierReport{}
	}

	return CleanResponse{
		RunID:    res.RunID.String(),
		Columns:  info,
		Rows:     rows,
		Labels:   t.Labels(),
		Log:      res.Log,
		Outliers: outliers,
		Issues:   issues,
		Summary:  sum,
	}
}

// cellJSON returns the JSON form of one cell: null, number, boolean or
// string. Datetimes use their CSV text form.
func cellJSON(c table.Column, i int) any {
	v := c.Value(i)
	if !v.Valid {
		return nil
	}
	switch c.Type() {
	case table.Numeric:
		return v.Num
	case table.Boolean:
		return v.Bool
	case table.Text:
		return v.Str
	default:
		return c.Format(i)
	}
}

func ruleSpec(q url.Values) (profile.RuleSpec, error) {
	spec := profile.RuleSpec{
		Column:  q.Get("column"),
		Kind:    q.Get("rule"),
		Pattern: q.Get("pattern"),
		Reason:  q.Get("reason"),
	}
	if spec.Column == "" {
		return spec, fmt.Errorf("%w: column is required", errBadInput)
	}
	for _, bound := range []struct {
		key string
		dst **float64
	}{{"min", &spec.Min}, {"max", &spec.Max}} {
		raw := q.Get(bound.key)
		if raw == "" {
			continue
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return spec, fmt.Errorf("%w: %s must be a number, got %q", errBadInput, bound.key, raw)
		}
		*bound.dst = &f
	}
	if spec.Kind == "" && spec.Pattern == "" && spec.Min == nil && spec.Max == nil {
		return spec, fmt.Errorf("%w: one of rule, pattern, min or max is required", errBadInput)
	}
	return spec, nil
}
