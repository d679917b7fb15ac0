package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/exprc/internal/catalog"
	"github.com/roach88/exprc/internal/compiler"
	"github.com/roach88/exprc/internal/device"
	"github.com/roach88/exprc/internal/linearize"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <spec.cue>",
		Short: "Compile a CUE expression spec to a linear program",
		Long: `Compile a CUE expression spec to a linear program.

The compiler parses the CUE file, binds column references against the
declared table schemas, and emits the program's parallel arrays together
with its fingerprint.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	program, err := compileSpec(formatter, specPath)
	if err != nil {
		return formatter.Error(ExitFailure, err)
	}

	dump := DumpProgram(program)

	if opts.Output != "" {
		if err := writeDumpToFile(dump, opts.Output); err != nil {
			return formatter.Error(ExitCommandError, fmt.Errorf("writing output file: %w", err))
		}
	}

	return outputCompileSuccess(formatter, dump, opts.Output)
}

// compileSpec loads a spec file and linearizes it against its declared
// tables.
func compileSpec(formatter *OutputFormatter, specPath string) (*linearize.Program, error) {
	spec, err := compiler.LoadSpecFile(specPath)
	if err != nil {
		return nil, err
	}
	formatter.VerboseLog("Compiled spec %s", specPath)

	right := spec.Right
	if right == nil {
		return linearize.LinearizeTable(spec.Root, spec.Left, catalog.Default(), device.HostAllocator{})
	}
	return linearize.Linearize(spec.Root, spec.Left, right, catalog.Default(), device.HostAllocator{})
}

// outputCompileSuccess outputs a compiled program.
func outputCompileSuccess(formatter *OutputFormatter, dump *ProgramDump, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(dump)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled: %d operator(s), %d data reference(s), %d literal(s)\n\n",
		len(dump.Operators), len(dump.DataReferences), len(dump.Literals))

	fmt.Fprintf(formatter.Writer, "Root type:          %s\n", dump.RootType)
	fmt.Fprintf(formatter.Writer, "Peak intermediates: %d\n", dump.PeakIntermediateCount)
	fmt.Fprintf(formatter.Writer, "Fingerprint:        %s\n\n", dump.Fingerprint)

	if len(dump.Operators) > 0 {
		fmt.Fprintln(formatter.Writer, "Operators:")
		for i, op := range dump.Operators {
			fmt.Fprintf(formatter.Writer, "  %d: %s\n", i, op)
		}
		fmt.Fprintf(formatter.Writer, "Source indices: %v\n\n", dump.OperatorSourceIndices)
	}

	fmt.Fprintln(formatter.Writer, "Data references:")
	for i, ref := range dump.DataReferences {
		if ref.Side != "" {
			fmt.Fprintf(formatter.Writer, "  %d: %s(%s[%d]):%s\n", i, ref.Kind, ref.Side, ref.Index, ref.Type)
		} else {
			fmt.Fprintf(formatter.Writer, "  %d: %s(%d):%s\n", i, ref.Kind, ref.Index, ref.Type)
		}
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote program to %s\n", outputFile)
	}

	return nil
}

// writeDumpToFile writes the program dump to a file as indented JSON.
func writeDumpToFile(dump *ProgramDump, filename string) error {
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling program: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
