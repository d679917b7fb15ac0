package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <spec.cue>",
		Short: "Validate a CUE expression spec without emitting a program",
		Long: `Validate a CUE expression spec without emitting a program.

The spec is compiled and linearized exactly as the compile command would,
but only diagnostics are reported. Exit code 0 means the spec is valid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specPath string, cmd *cobra.Command) error {
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

	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"valid":       true,
			"fingerprint": program.Fingerprint(),
			"root_type":   program.RootType().String(),
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ %s is valid (root type %s)\n", specPath, program.RootType())
	return nil
}
