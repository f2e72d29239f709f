package core

import (
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/cleanse/internal/table"
)

// Result is the outcome of one cleaning run. The caller owns it.
type Result struct {
	RunID    uuid.UUID     `json:"run_id"`
	Cleaned  *table.Table  `json:"-"`
	Log      []Action      `json:"log"`
	Outliers OutlierReport `json:"outliers"`
	Issues   []Issue       `json:"issues"`
}

// Cleaner runs the cleaning pipeline. A Cleaner holds no per-run state and
// is safe for concurrent use.
type Cleaner struct {
	logger *slog.Logger
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithLogger sets the logger used for per-stage diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cleaner) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCleaner creates a Cleaner. Without WithLogger nothing is logged.
func NewCleaner(opts ...Option) *Cleaner {
	c := &Cleaner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// run carries the state of one Clean call.
type run struct {
	id     uuid.UUID
	logger *slog.Logger
	log    actionLog
	cur    *table.Table
}

func (r *run) fail(stage Stage, err error) error {
	r.logger.Warn("cleaning aborted", "stage", stage, "error", err)
	return &PipelineError{Stage: stage, Err: err, Log: r.log.snapshot()}
}

// step runs one stage against the current table and records its outcome.
func (r *run) step(stage Stage, fn func(*table.Table) (*table.Table, []Action, error)) error {
	start := time.Now()
	rowsIn := r.cur.NumRows()
	out, actions, err := fn(r.cur)
	if err != nil {
		return r.fail(stage, err)
	}
	r.cur = out
	r.log.add(actions...)
	r.logger.Debug("stage complete",
		"stage", stage,
		"rows_in", rowsIn,
		"rows_out", out.NumRows(),
		"actions", len(actions),
		"duration", time.Since(start),
	)
	return nil
}

// Clean runs every enabled stage over t in order and returns the cleaned
// table with its log. t is not modified. On failure the returned error is a
// *PipelineError holding the log recorded so far.
func (c *Cleaner) Clean(t *table.Table, cfg Config) (*Result, error) {
	r := &run{id: uuid.New(), cur: t}
	r.logger = c.logger.With("run_id", r.id.String())
	start := time.Now()

	if err := cfg.Validate(); err != nil {
		return nil, r.fail(StageConfig, err)
	}
	cfg.Missing.Workers = cfg.Workers
	cfg.Outliers.Workers = cfg.Workers

	res := &Result{RunID: r.id, Outliers: OutlierReport{}, Issues: []Issue{}}

	if err := r.step(StagePreprocess, func(t *table.Table) (*table.Table, []Action, error) {
		return Preprocess(t, cfg.Preprocess)
	}); err != nil {
		return nil, err
	}

	if stage, err := cfg.resolveColumns(r.cur); err != nil {
		return nil, r.fail(stage, err)
	}

	if cfg.Missing.Enabled {
		before := r.cur.Names()
		if err := r.step(StageMissing, func(t *table.Table) (*table.Table, []Action, error) {
			return HandleMissingData(t, cfg.Missing)
		}); err != nil {
			return nil, err
		}
		if dropped := missingNames(before, r.cur); len(dropped) > 0 {
			if pruned := cfg.prune(dropped); len(pruned) > 0 {
				r.log.add(info(StageMissing, 0, pruned,
					"removed dropped %s %s from later stages", plural(len(pruned), "column", "columns"),
					strings.Join(pruned, ", ")))
			}
		}
	}

	if cfg.Duplicates.Enabled {
		if err := r.step(StageDuplicates, func(t *table.Table) (*table.Table, []Action, error) {
			return RemoveDuplicates(t, cfg.Duplicates)
		}); err != nil {
			return nil, err
		}
	}

	if cfg.Coercion.Enabled {
		if cfg.Formats.Enabled {
			cfg.Coercion.Skip = append(slices.Clone(cfg.Coercion.Skip), cfg.Formats.Columns()...)
		}
		if err := r.step(StageCoercion, func(t *table.Table) (*table.Table, []Action, error) {
			return CoerceTypes(t, cfg.Coercion)
		}); err != nil {
			return nil, err
		}
	}

	if cfg.Text.Enabled {
		if err := r.step(StageText, func(t *table.Table) (*table.Table, []Action, error) {
			return StandardizeText(t, cfg.Text)
		}); err != nil {
			return nil, err
		}
	}

	if cfg.Formats.Enabled {
		if err := r.step(StageFormats, func(t *table.Table) (*table.Table, []Action, error) {
			out, actions, issues, err := StandardizeFormats(t, cfg.Formats)
			res.Issues = append(res.Issues, issues...)
			return out, actions, err
		}); err != nil {
			return nil, err
		}
	}

	if cfg.Outliers.Enabled {
		if err := r.step(StageOutliers, func(t *table.Table) (*table.Table, []Action, error) {
			out, report, actions, err := DetectOutliers(t, cfg.Outliers)
			if report != nil {
				res.Outliers = report
			}
			return out, actions, err
		}); err != nil {
			return nil, err
		}
	}

	if cfg.Consistency.Enabled {
		if err := r.step(StageConsistency, func(t *table.Table) (*table.Table, []Action, error) {
			issues, actions, err := ValidateAll(t, cfg.Consistency)
			res.Issues = append(res.Issues, issues...)
			return t, actions, err
		}); err != nil {
			return nil, err
		}
	}

	res.Cleaned = r.cur
	res.Log = r.log.snapshot()
	r.logger.Info("cleaning complete",
		"rows_in", t.NumRows(),
		"rows_out", r.cur.NumRows(),
		"actions", len(res.Log),
		"issues", len(res.Issues),
		"duration", time.Since(start),
	)
	return res, nil
}

// missingNames returns the names in before that t no longer has.
func missingNames(before []string, t *table.Table) []string {
	var out []string
	for _, n := range before {
		if !t.Has(n) {
			out = append(out, n)
		}
	}
	return out
}
