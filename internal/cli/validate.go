package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/cleanse/internal/core"
	"github.com/JonMunkholm/cleanse/internal/profile"
	"github.com/JonMunkholm/cleanse/internal/table"
)

// validateOptions holds the validate command flags.
type validateOptions struct {
	column  string
	rule    string
	pattern string
	reason  string
	min     float64
	max     float64
	input   inputOptions
}

func newValidateCommand(root *rootOptions) *cobra.Command {
	opts := &validateOptions{}

	cmd := &cobra.Command{
		Use:   "validate <input.csv>",
		Short: "Check a CSV file against consistency rules",
		Long: `Check values without changing them. With --column a single rule is
applied: a named format (--rule email|phone), a regular expression
(--pattern) or a numeric range (--min, --max). Without --column the rules of
the profile and the builtin checks are applied.

Exits with status 1 when any issue is found.`,
		Example: `  cleanse validate users.csv --column email --rule email
  cleanse validate orders.csv --column qty --min 0 --max 1000
  cleanse validate orders.csv --config profile.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, root, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.column, "column", "", "column to check")
	cmd.Flags().StringVar(&opts.rule, "rule", "", "named rule: email, phone")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "regular expression every value must match")
	cmd.Flags().Float64Var(&opts.min, "min", 0, "smallest allowed value")
	cmd.Flags().Float64Var(&opts.max, "max", 0, "largest allowed value")
	cmd.Flags().StringVar(&opts.reason, "reason", "", "reason code reported for failures")
	opts.input.register(cmd.Flags())

	return cmd
}

func runValidate(cmd *cobra.Command, root *rootOptions, opts *validateOptions, input string) error {
	logger := root.logger(cmd)

	var check func(t *table.Table) ([]core.Issue, error)
	var textColumns []string
	if opts.column == "" {
		if opts.rule != "" || opts.pattern != "" || cmd.Flags().Changed("min") || cmd.Flags().Changed("max") {
			return fmt.Errorf("--column is required with --rule, --pattern, --min or --max")
		}
		p, err := profile.Load(root.profilePath, nil)
		if err != nil {
			return err
		}
		cfg, err := p.Config()
		if err != nil {
			return err
		}
		check = func(t *table.Table) ([]core.Issue, error) {
			issues, _, err := core.ValidateAll(t, cfg.Consistency)
			return issues, err
		}
	} else {
		spec := profile.RuleSpec{Column: opts.column, Kind: opts.rule, Pattern: opts.pattern, Reason: opts.reason}
		if cmd.Flags().Changed("min") {
			spec.Min = &opts.min
		}
		if cmd.Flags().Changed("max") {
			spec.Max = &opts.max
		}
		if spec.Kind == "" && spec.Pattern == "" && spec.Min == nil && spec.Max == nil {
			return fmt.Errorf("one of --rule, --pattern, --min or --max is required")
		}
		rule, err := spec.Rule()
		if err != nil {
			return err
		}
		if spec.Kind != "" || spec.Pattern != "" {
			textColumns = []string{spec.Column}
		}
		check = func(t *table.Table) ([]core.Issue, error) {
			return core.ValidateConsistency(t, spec.Column, rule)
		}
	}

	t, err := opts.input.read(cmd, input, textColumns...)
	if err != nil {
		return err
	}
	issues, err := check(t)
	if err != nil {
		return err
	}
	logger.Info("validation complete", "input", input, "issues", len(issues))

	out := cmd.OutOrStdout()
	if len(issues) == 0 {
		fmt.Fprintln(out, "No issues found.")
		return nil
	}
	renderIssues(out, issues)
	fmt.Fprintf(out, "%d %s found.\n", len(issues), pluralize(len(issues), "issue", "issues"))
	return ErrIssuesFound
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
