package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/exprc/internal/ast"
	"github.com/roach88/exprc/internal/schema"
	"github.com/roach88/exprc/internal/types"
)

// Spec is a compiled expression spec: the tree plus the table schemas it
// references. Right is nil for single-table specs.
type Spec struct {
	Root  ast.Node
	Left  *schema.Table
	Right *schema.Table
}

// LoadSpecFile reads and compiles a CUE expression spec from disk.
func LoadSpecFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec: %w", err)
	}
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	return CompileSpec(v)
}

// CompileSpec parses a CUE value into a Spec.
func CompileSpec(v cue.Value) (*Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &Spec{}

	tablesVal := v.LookupPath(cue.ParsePath("tables"))
	if !tablesVal.Exists() {
		return nil, &CompileError{
			Field:   "tables",
			Message: "tables is required",
			Pos:     v.Pos(),
		}
	}

	leftVal := tablesVal.LookupPath(cue.ParsePath("left"))
	if !leftVal.Exists() {
		return nil, &CompileError{
			Field:   "tables.left",
			Message: "left table is required",
			Pos:     tablesVal.Pos(),
		}
	}
	left, err := parseTable(leftVal, "tables.left")
	if err != nil {
		return nil, err
	}
	spec.Left = left

	rightVal := tablesVal.LookupPath(cue.ParsePath("right"))
	if rightVal.Exists() {
		right, err := parseTable(rightVal, "tables.right")
		if err != nil {
			return nil, err
		}
		spec.Right = right
	}

	exprVal := v.LookupPath(cue.ParsePath("expression"))
	if !exprVal.Exists() {
		return nil, &CompileError{
			Field:   "expression",
			Message: "expression is required",
			Pos:     v.Pos(),
		}
	}
	root, err := parseNode(exprVal, "expression", 1)
	if err != nil {
		return nil, err
	}
	spec.Root = root

	return spec, nil
}

// parseTable parses {columns: [{name?, type}, ...]} into a schema.
func parseTable(v cue.Value, field string) (*schema.Table, error) {
	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".columns",
			Message: "columns is required",
			Pos:     v.Pos(),
		}
	}

	iter, err := colsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var columns []schema.Column
	for i := 0; iter.Next(); i++ {
		colVal := iter.Value()
		colField := fmt.Sprintf("%s.columns[%d]", field, i)

		typeVal := colVal.LookupPath(cue.ParsePath("type"))
		if !typeVal.Exists() {
			return nil, &CompileError{
				Field:   colField,
				Message: "type is required",
				Pos:     colVal.Pos(),
			}
		}
		typeName, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		dt, err := types.ParseDataType(typeName)
		if err != nil {
			return nil, &CompileError{
				Field:   colField + ".type",
				Message: err.Error(),
				Pos:     typeVal.Pos(),
			}
		}

		col := schema.Column{Type: dt}
		nameVal := colVal.LookupPath(cue.ParsePath("name"))
		if nameVal.Exists() {
			name, err := nameVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			col.Name = name
		}
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		return nil, &CompileError{
			Field:   field + ".columns",
			Message: "at least one column is required",
			Pos:     colsVal.Pos(),
		}
	}
	return schema.NewTable(columns...)
}

// parseNode parses one expression node: a column reference, a literal, or
// an operator application. depth tracks CUE nesting so that a maliciously
// deep spec fails cleanly instead of exhausting the stack.
func parseNode(v cue.Value, field string, depth int) (ast.Node, error) {
	if depth > ast.MaxDepth {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("expression deeper than maximum %d", ast.MaxDepth),
			Pos:     v.Pos(),
		}
	}

	if colVal := v.LookupPath(cue.ParsePath("column")); colVal.Exists() {
		return parseColumnNode(v, colVal, field)
	}
	if litVal := v.LookupPath(cue.ParsePath("literal")); litVal.Exists() {
		return parseLiteralNode(v, litVal, field)
	}
	if opVal := v.LookupPath(cue.ParsePath("op")); opVal.Exists() {
		return parseOpNode(v, opVal, field, depth)
	}
	return nil, &CompileError{
		Field:   field,
		Message: "node must have one of: column, literal, op",
		Pos:     v.Pos(),
	}
}

func parseColumnNode(v, colVal cue.Value, field string) (ast.Node, error) {
	index, err := colVal.Int64()
	if err != nil {
		return nil, formatCUEError(err)
	}

	side := ast.Left
	if sideVal := v.LookupPath(cue.ParsePath("table")); sideVal.Exists() {
		name, err := sideVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		switch name {
		case "left":
			side = ast.Left
		case "right":
			side = ast.Right
		default:
			return nil, &CompileError{
				Field:   field + ".table",
				Message: fmt.Sprintf("table must be %q or %q, got %q", "left", "right", name),
				Pos:     sideVal.Pos(),
			}
		}
	}
	return ast.NewColumnReference(side, int(index)), nil
}

func parseLiteralNode(v, litVal cue.Value, field string) (ast.Node, error) {
	var declared *types.DataType
	if typeVal := v.LookupPath(cue.ParsePath("type")); typeVal.Exists() {
		name, err := typeVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		dt, err := types.ParseDataType(name)
		if err != nil {
			return nil, &CompileError{
				Field:   field + ".type",
				Message: err.Error(),
				Pos:     typeVal.Pos(),
			}
		}
		declared = &dt
	}

	value, err := parseScalar(litVal, field, declared)
	if err != nil {
		return nil, err
	}

	if declared == nil {
		return ast.NewLiteral(value), nil
	}
	lit, err := ast.NewLiteralTyped(value, *declared)
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: err.Error(),
			Pos:     litVal.Pos(),
		}
	}
	return lit, nil
}

// parseScalar maps a CUE scalar to an ast.Value, steered by the declared
// type when one is present (an integer literal declared "uint32" parses
// unsigned; one declared "timestamp" parses as a timestamp).
func parseScalar(v cue.Value, field string, declared *types.DataType) (ast.Value, error) {
	switch v.Kind() {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ast.BoolValue(b), nil

	case cue.IntKind:
		if declared != nil && declared.IsUnsigned() {
			n, err := v.Uint64()
			if err != nil {
				return nil, formatCUEError(err)
			}
			return ast.UintValue(n), nil
		}
		n, err := v.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if declared != nil && declared.Kind == types.KindTimestamp {
			return ast.TimestampValue(n), nil
		}
		return ast.IntValue(n), nil

	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ast.FloatValue(f), nil

	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("literal must be a bool or number, got %s", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}

func parseOpNode(v, opVal cue.Value, field string, depth int) (ast.Node, error) {
	name, err := opVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	op, err := ast.ParseOperator(name)
	if err != nil {
		return nil, &CompileError{
			Field:   field + ".op",
			Message: err.Error(),
			Pos:     opVal.Pos(),
		}
	}

	argsVal := v.LookupPath(cue.ParsePath("args"))
	if !argsVal.Exists() {
		return nil, &CompileError{
			Field:   field + ".args",
			Message: "args is required for operator nodes",
			Pos:     v.Pos(),
		}
	}
	iter, err := argsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var operands []ast.Node
	for i := 0; iter.Next(); i++ {
		operand, err := parseNode(iter.Value(), fmt.Sprintf("%s.args[%d]", field, i), depth+1)
		if err != nil {
			return nil, err
		}
		operands = append(operands, operand)
	}
	return ast.NewExpression(op, operands...), nil
}

// CompileError is a positioned spec compilation failure.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}
	return firstErr
}
