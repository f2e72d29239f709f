package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/csvio"
	"github.com/JonMunkholm/cleanse/internal/profile"
)

// cleanOptions holds the clean command flags that are not profile keys.
type cleanOptions struct {
	output  string
	logPath string
	input   inputOptions
}

// Report is the run record written by clean --log.
type Report struct {
	RunID    string             `json:"run_id" yaml:"run_id"`
	Input    string             `json:"input" yaml:"input"`
	Summary  core.Summary       `json:"summary" yaml:"summary"`
	Log      []core.Action      `json:"log" yaml:"log"`
	Outliers core.OutlierReport `json:"outliers" yaml:"outliers"`
	Issues   []core.Issue       `json:"issues" yaml:"issues"`
}

func newCleanCommand(root *rootOptions) *cobra.Command {
	opts := &cleanOptions{}
	pfs := profileFlags()

	cmd := &cobra.Command{
		Use:   "clean <input.csv>",
		Short: "Clean a CSV file",
		Long: `Run the cleaning pipeline over a CSV file and print a summary and
the action log. Use - as the input to read standard input.

With --output the cleaned table is written as CSV; --output - writes it to
standard output and moves the summary to standard error.`,
		Example: `  cleanse clean sales.csv -o sales.clean.csv
  cleanse clean sales.csv --strategy median --keep last --log run.yaml
  cat sales.csv | cleanse clean - -o - > clean.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, root, opts, pfs, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the cleaned CSV to this path (- for stdout)")
	cmd.Flags().StringVar(&opts.logPath, "log", "", "write the run report to this path (.json, .yaml or .yml)")
	opts.input.register(cmd.Flags())
	cmd.Flags().AddFlagSet(pfs)

	return cmd
}

// profileFlags returns the flags that map onto profile keys. Only flags set
// on the command line override the profile file and environment.
func profileFlags() *pflag.FlagSet {
	d := profile.Defaults()
	fs := pflag.NewFlagSet("profile", pflag.ContinueOnError)

	fs.Int("workers", d.Workers, "worker goroutines for per-column stages (0 = one per CPU)")
	fs.Bool("sanitize-names", d.SanitizeNames, "normalise column names to snake_case")

	fs.Bool("missing", d.Missing, "run the missing data stage")
	fs.String("strategy", d.Strategy, "missing value strategy: drop, fill_mean, fill_median, fill_mode, fill_forward, fill_backward, smart_fill (mean, median, mode, ffill, bfill and smart are aliases)")
	fs.Float64("threshold", d.Threshold, "drop columns whose null fraction exceeds this (0 to 1)")
	fs.Bool("drop-empty-rows", d.DropEmptyRows, "drop rows where every cell is null")
	fs.String("all-null", d.AllNull, "all-null column policy: leave, fail")
	fs.StringSlice("missing-columns", nil, "limit the missing data stage to these columns")

	fs.Bool("duplicates", d.Duplicates, "run the duplicates stage")
	fs.StringSlice("subset", nil, "columns compared when finding duplicates")
	fs.String("keep", d.Keep, "which duplicate to keep: first, last, none")
	fs.Bool("mark-duplicates", d.MarkDuplicates, "flag duplicates in a column instead of dropping them")
	fs.String("mark-column", d.MarkColumn, "name of the duplicate flag column")

	fs.Bool("coerce", d.Coerce, "run the type coercion stage")
	fs.StringSlice("coerce-columns", nil, "limit type coercion to these columns")
	fs.Int("sample-size", d.SampleSize, "values sampled per column when inferring types")

	fs.Bool("text", d.Text, "run the text cleaning stage")
	fs.StringSlice("text-columns", nil, "limit text cleaning to these columns")
	fs.String("case", d.Case, "case transform: none, lower, upper, title, sentence")

	fs.Bool("formats", d.Formats, "run the format standardisation stage")
	fs.StringSlice("email-columns", nil, "columns holding email addresses")
	fs.StringSlice("phone-columns", nil, "columns holding phone numbers")
	fs.Bool("auto-detect", d.AutoDetect, "detect email and phone columns from sampled values")
	fs.Bool("validate-formats", d.ValidateFormats, "report values that fail format validation as issues")

	fs.Bool("outliers", d.Outliers, "run the outlier stage")
	fs.StringSlice("outlier-columns", nil, "limit outlier detection to these columns")
	fs.String("outlier-method", d.OutlierMethod, "outlier method: iqr, zscore")
	fs.Float64("outlier-threshold", d.OutlierThreshold, "outlier factor (0 = method default)")
	fs.String("outlier-action", d.OutlierAction, "outlier action: flag, remove, cap")

	fs.Bool("consistency", d.Consistency, "run the consistency stage")
	fs.Bool("builtin-checks", d.BuiltinChecks, "run the builtin name-based checks")

	return fs
}

func runClean(cmd *cobra.Command, root *rootOptions, opts *cleanOptions, pfs *pflag.FlagSet, input string) error {
	logger := root.logger(cmd)

	p, err := profile.Load(root.profilePath, pfs)
	if err != nil {
		return err
	}
	cfg, err := p.Config()
	if err != nil {
		return err
	}

	t, err := opts.input.read(cmd, input, formatColumns(cfg)...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	res, err := core.NewCleaner(core.WithLogger(logger)).Clean(t, cfg)
	if err != nil {
		var pe *core.PipelineError
		if errors.As(err, &pe) && len(pe.Log) > 0 {
			renderLog(cmd.ErrOrStderr(), pe.Log)
		}
		return err
	}
	sum := core.Summarize(t, res)

	switch opts.output {
	case "":
	case "-":
		if err := csvio.Write(out, res.Cleaned); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		out = cmd.ErrOrStderr()
	default:
		if err := writeFile(opts.output, func(w io.Writer) error { return csvio.Write(w, res.Cleaned) }); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}

	renderSummary(out, res.RunID.String(), sum)
	renderLog(out, res.Log)
	renderOutliers(out, res.Outliers)
	renderIssues(out, res.Issues)

	if opts.logPath != "" {
		report := Report{
			RunID:    res.RunID.String(),
			Input:    input,
			Summary:  sum,
			Log:      res.Log,
			Outliers: res.Outliers,
			Issues:   res.Issues,
		}
		if err := writeReport(opts.logPath, report); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}

	logger.Info("cleaning complete",
		"run_id", res.RunID.String(),
		"rows_in", sum.OriginalRows,
		"rows_out", sum.CleanedRows,
		"actions", sum.ActionsPerformed,
	)
	return nil
}

// writeReport encodes r as YAML for .yaml and .yml paths and as JSON
// otherwise.
func writeReport(path string, r Report) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return writeFile(path, func(w io.Writer) error {
			enc := yaml.NewEncoder(w)
			enc.SetIndent(2)
			if err := enc.Encode(r); err != nil {
				return err
			}
			return enc.Close()
		})
	default:
		return writeFile(path, func(w io.Writer) error {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		})
	}
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
