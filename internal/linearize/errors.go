package linearize

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes linearization failures.
type ErrorCode string

const (
	// ErrOutOfRange indicates a column index not valid for its table.
	ErrOutOfRange ErrorCode = "OUT_OF_RANGE"

	// ErrInvalidExpression indicates a malformed tree: operand count not
	// matching the operator's catalog arity, a nil operand, or a tree
	// deeper than ast.MaxDepth.
	ErrInvalidExpression ErrorCode = "INVALID_EXPRESSION"

	// ErrUnsupportedOperation indicates the catalog has no result type for
	// an operator and operand type combination.
	ErrUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"

	// ErrInvalidArgument indicates a missing root, table, catalog, or
	// allocator argument.
	ErrInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrInvalidState indicates an internal bookkeeping bug, such as
	// giving back an intermediate slot that is not held. It is a defect in
	// this package or a custom caller of the slot allocator, never a
	// consequence of user input.
	ErrInvalidState ErrorCode = "INVALID_STATE"
)

// Error is a structured linearization failure. Any Error aborts the whole
// compilation; there is no partially built program and no retry (the pass
// is a pure function of a fixed tree, so retrying cannot help).
type Error struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node describes the offending tree node, when one is known.
	Node string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from an error. Returns "" when the error is
// not a linearization Error. Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

func newError(code ErrorCode, node string, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Node:    node,
	}
}
