package harness

import (
	"fmt"

	"github.com/roach88/exprc/internal/catalog"
	"github.com/roach88/exprc/internal/compiler"
	"github.com/roach88/exprc/internal/device"
	"github.com/roach88/exprc/internal/eval"
	"github.com/roach88/exprc/internal/linearize"
	"github.com/roach88/exprc/internal/schema"
	"github.com/roach88/exprc/internal/types"
)

// Result holds everything a scenario run produced.
type Result struct {
	Program *linearize.Program
	Output  *eval.Column
}

// Run compiles the scenario's spec, linearizes it, evaluates it over the
// scenario's input columns, and checks the expect clause.
func Run(scenario *Scenario) (*Result, error) {
	spec, err := compiler.LoadSpecFile(scenario.Spec)
	if err != nil {
		return nil, fmt.Errorf("compiling spec: %w", err)
	}

	var program *linearize.Program
	if spec.Right == nil {
		program, err = linearize.LinearizeTable(spec.Root, spec.Left, catalog.Default(), device.HostAllocator{})
	} else {
		program, err = linearize.Linearize(spec.Root, spec.Left, spec.Right, catalog.Default(), device.HostAllocator{})
	}
	if err != nil {
		return nil, fmt.Errorf("linearizing: %w", err)
	}

	left, err := buildTable(spec.Left, scenario.Input.Left, "left")
	if err != nil {
		return nil, err
	}
	right := left
	if spec.Right == nil {
		if len(scenario.Input.Right) > 0 {
			return nil, fmt.Errorf("scenario has input.right but spec declares no right table")
		}
	} else {
		if len(scenario.Input.Right) == 0 {
			return nil, fmt.Errorf("spec declares a right table but scenario has no input.right")
		}
		right, err = buildTable(spec.Right, scenario.Input.Right, "right")
		if err != nil {
			return nil, err
		}
	}

	session, err := eval.NewSession(catalog.Default())
	if err != nil {
		return nil, err
	}
	output, err := session.Evaluate(program, left, right)
	if err != nil {
		return nil, fmt.Errorf("evaluating: %w", err)
	}

	result := &Result{Program: program, Output: output}
	if scenario.Expect != nil {
		if err := checkExpect(scenario.Expect, result); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
	}
	return result, nil
}

// buildTable converts inline scenario columns to a typed table using the
// spec's declared schema.
func buildTable(s *schema.Table, columns [][]any, side string) (*eval.Table, error) {
	if len(columns) != s.NumColumns() {
		return nil, fmt.Errorf("input.%s has %d columns, schema declares %d", side, len(columns), s.NumColumns())
	}
	cols := make([]*eval.Column, len(columns))
	for i, values := range columns {
		dt, _ := s.ColumnType(i)
		col, err := buildColumn(dt, values)
		if err != nil {
			return nil, fmt.Errorf("input.%s[%d]: %w", side, i, err)
		}
		cols[i] = col
	}
	return eval.NewTableWithSchema(s, cols...)
}

// buildColumn converts YAML-decoded values to a column of the given type.
func buildColumn(dt types.DataType, values []any) (*eval.Column, error) {
	switch {
	case dt.Kind == types.KindBool:
		out := make([]bool, len(values))
		for i, v := range values {
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("value %v is not a bool", v)
			}
			out[i] = b
		}
		return eval.NewBoolColumn(out), nil
	case dt.Kind == types.KindString:
		out := make([]string, len(values))
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("value %v is not a string", v)
			}
			out[i] = s
		}
		return eval.NewStringColumn(out), nil
	case dt.IsFloat():
		out := make([]float64, len(values))
		for i, v := range values {
			f, err := toFloat64(v)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return eval.NewFloat64Column(dt, out)
	case dt.IsUnsigned():
		out := make([]uint64, len(values))
		for i, v := range values {
			u, err := toUint64(v)
			if err != nil {
				return nil, err
			}
			out[i] = u
		}
		return eval.NewUint64Column(dt, out)
	default:
		out := make([]int64, len(values))
		for i, v := range values {
			n, err := toInt64(v)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return eval.NewInt64Column(dt, out)
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not an integer", v, v)
	}
}

func toUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case int:
		if n < 0 {
			return 0, fmt.Errorf("value %v is negative", v)
		}
		return uint64(n), nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("value %v is negative", v)
		}
		return uint64(n), nil
	case uint64:
		return n, nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not an unsigned integer", v, v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not a number", v, v)
	}
}

// checkExpect verifies the scenario's pinned expectations.
func checkExpect(expect *ExpectClause, result *Result) error {
	if len(expect.Operators) > 0 {
		ops := result.Program.Operators()
		if len(ops) != len(expect.Operators) {
			return fmt.Errorf("expected %d operators, got %d", len(expect.Operators), len(ops))
		}
		for i, want := range expect.Operators {
			if got := ops[i].String(); got != want {
				return fmt.Errorf("operator %d: expected %s, got %s", i, want, got)
			}
		}
	}
	if expect.PeakIntermediates != nil {
		if got := result.Program.PeakIntermediateCount(); got != *expect.PeakIntermediates {
			return fmt.Errorf("expected peak %d, got %d", *expect.PeakIntermediates, got)
		}
	}
	if expect.RootType != "" {
		if got := result.Program.RootType().String(); got != expect.RootType {
			return fmt.Errorf("expected root type %s, got %s", expect.RootType, got)
		}
	}
	if len(expect.Values) > 0 {
		if got := result.Output.Len(); got != len(expect.Values) {
			return fmt.Errorf("expected %d result rows, got %d", len(expect.Values), got)
		}
		for i, want := range expect.Values {
			got := result.Output.ValueAt(i)
			if !valuesEqual(want, got) {
				return fmt.Errorf("row %d: expected %v, got %v", i, want, got)
			}
		}
	}
	return nil
}

// valuesEqual compares a YAML-decoded expected value with an output cell.
func valuesEqual(want, got any) bool {
	switch g := got.(type) {
	case int64:
		w, err := toInt64(want)
		return err == nil && w == g
	case uint64:
		w, err := toUint64(want)
		return err == nil && w == g
	case float64:
		w, err := toFloat64(want)
		return err == nil && w == g
	default:
		return want == got
	}
}
