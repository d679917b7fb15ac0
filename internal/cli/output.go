package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/exprc/internal/compiler"
	"github.com/roach88/exprc/internal/linearize"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Spec failed to compile or linearize
	ExitCommandError = 2 // Command error (invalid paths, database not found, etc.)
)

// Error codes reported in CLI output for failures that are not
// linearization errors (those carry their own codes).
const (
	ErrCodeCompile = "COMPILE_ERROR"
	ErrCodeStore   = "STORE_ERROR"
	ErrCodeGeneric = "ERROR"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code     string `json:"code"`               // "COMPILE_ERROR", "OUT_OF_RANGE", ...
	Message  string `json:"message"`            // human-readable message
	Position string `json:"position,omitempty"` // file:line:col for spec errors
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format and wraps it in an
// ExitError carrying the given exit code.
func (f *OutputFormatter) Error(exitCode int, err error) error {
	cliErr := classifyError(err)

	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(CLIResponse{Status: "error", Error: cliErr}); encErr != nil {
			return encErr
		}
		return WrapExitError(exitCode, cliErr.Message, err)
	}

	if cliErr.Position != "" {
		fmt.Fprintln(f.Writer, cliErr.Position)
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", cliErr.Code, cliErr.Message)
	return WrapExitError(exitCode, cliErr.Message, err)
}

// classifyError maps domain errors to CLI error codes and positions.
func classifyError(err error) *CLIError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		cliErr := &CLIError{Code: ErrCodeCompile, Message: compileErr.Message}
		if compileErr.Pos.IsValid() {
			cliErr.Position = fmt.Sprintf("%s:%d:%d",
				compileErr.Pos.Filename(), compileErr.Pos.Line(), compileErr.Pos.Column())
		}
		return cliErr
	}
	var linErr *linearize.Error
	if errors.As(err, &linErr) {
		return &CLIError{Code: string(linErr.Code), Message: linErr.Message}
	}
	return &CLIError{Code: ErrCodeGeneric, Message: err.Error()}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}
