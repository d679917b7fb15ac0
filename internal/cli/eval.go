package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exprc/internal/catalog"
	"github.com/roach88/exprc/internal/eval"
	"github.com/roach88/exprc/internal/store"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Database   string // SQLite database path
	LeftTable  string // table bound to the left side
	RightTable string // table bound to the right side (optional)
}

// EvalResult is the JSON payload for a successful evaluation.
type EvalResult struct {
	PlanID      string `json:"plan_id"`
	Fingerprint string `json:"fingerprint"`
	ResultType  string `json:"result_type"`
	Rows        int    `json:"rows"`
	Values      []any  `json:"values"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <spec.cue>",
		Short: "Compile a spec and evaluate it over SQLite tables",
		Long: `Compile a spec and evaluate it over SQLite tables.

The spec's declared table schemas must match the columns of the SQLite
tables named by --left (and --right for two-table specs). The result
column is printed row by row.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database path (required)")
	cmd.Flags().StringVar(&opts.LeftTable, "left", "", "table bound to the left side (required)")
	cmd.Flags().StringVar(&opts.RightTable, "right", "", "table bound to the right side")
	_ = cmd.MarkFlagRequired("db")
	_ = cmd.MarkFlagRequired("left")

	return cmd
}

func runEval(opts *EvalOptions, specPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	program, err := compileSpec(formatter, specPath)
	if err != nil {
		return formatter.Error(ExitFailure, err)
	}

	s, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Error(ExitCommandError, fmt.Errorf("opening database: %w", err))
	}
	defer s.Close()

	ctx := cmd.Context()
	left, err := s.LoadTable(ctx, opts.LeftTable)
	if err != nil {
		return formatter.Error(ExitCommandError, err)
	}
	formatter.VerboseLog("Loaded table %s: %d row(s)", opts.LeftTable, left.NumRows())

	right := left
	if opts.RightTable != "" {
		right, err = s.LoadTable(ctx, opts.RightTable)
		if err != nil {
			return formatter.Error(ExitCommandError, err)
		}
		formatter.VerboseLog("Loaded table %s: %d row(s)", opts.RightTable, right.NumRows())
	}

	session, err := eval.NewSession(catalog.Default())
	if err != nil {
		return formatter.Error(ExitCommandError, err)
	}
	formatter.VerboseLog("Evaluating plan %s", session.PlanID())

	result, err := session.Evaluate(program, left, right)
	if err != nil {
		return formatter.Error(ExitFailure, err)
	}

	return outputEvalSuccess(formatter, session, program.Fingerprint(), result)
}

func outputEvalSuccess(formatter *OutputFormatter, session *eval.Session, fingerprint string, result *eval.Column) error {
	values := make([]any, result.Len())
	for i := range values {
		values[i] = result.ValueAt(i)
	}

	if formatter.Format == "json" {
		return formatter.Success(EvalResult{
			PlanID:      session.PlanID(),
			Fingerprint: fingerprint,
			ResultType:  result.Type().String(),
			Rows:        result.Len(),
			Values:      values,
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ Evaluated %d row(s) (plan %s, result type %s)\n",
		result.Len(), session.PlanID(), result.Type())
	for i, v := range values {
		fmt.Fprintf(formatter.Writer, "  %d: %v\n", i, v)
	}
	return nil
}
