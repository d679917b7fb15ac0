package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprc/internal/ast"
	"github.com/roach88/exprc/internal/catalog"
	"github.com/roach88/exprc/internal/device"
	"github.com/roach88/exprc/internal/linearize"
	"github.com/roach88/exprc/internal/schema"
	"github.com/roach88/exprc/internal/types"
)

func session(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession(catalog.Default())
	require.NoError(t, err)
	return s
}

func compileTable(t *testing.T, root ast.Node, table *Table) *linearize.Program {
	t.Helper()
	p, err := linearize.LinearizeTable(root, table.Schema(), catalog.Default(), device.HostAllocator{})
	require.NoError(t, err)
	return p
}

func int32Column(t *testing.T, values ...int64) *Column {
	t.Helper()
	c, err := NewInt64Column(types.Int32, values)
	require.NoError(t, err)
	return c
}

func col(i int) *ast.ColumnReference {
	return ast.NewColumnReference(ast.Left, i)
}

func TestEvaluateAdd(t *testing.T) {
	table, err := NewTable(int32Column(t, 1, 2, 3), int32Column(t, 10, 20, 30))
	require.NoError(t, err)

	p := compileTable(t, ast.NewExpression(ast.OpAdd, col(0), col(1)), table)
	out, err := session(t).EvaluateTable(p, table)
	require.NoError(t, err)

	assert.Equal(t, types.Int32, out.Type())
	require.Equal(t, 3, out.Len())
	assert.Equal(t, int64(11), out.Int64At(0))
	assert.Equal(t, int64(22), out.Int64At(1))
	assert.Equal(t, int64(33), out.Int64At(2))
}

// (col0 + col1) * (col2 + col3) exercises both intermediate slots.
func TestEvaluateBalancedTree(t *testing.T) {
	table, err := NewTable(
		int32Column(t, 1, 2),
		int32Column(t, 3, 4),
		int32Column(t, 5, 6),
		int32Column(t, 7, 8),
	)
	require.NoError(t, err)

	root := ast.NewExpression(ast.OpMul,
		ast.NewExpression(ast.OpAdd, col(0), col(1)),
		ast.NewExpression(ast.OpAdd, col(2), col(3)),
	)
	p := compileTable(t, root, table)
	require.Equal(t, 2, p.PeakIntermediateCount())

	out, err := session(t).EvaluateTable(p, table)
	require.NoError(t, err)
	assert.Equal(t, int64((1+3)*(5+7)), out.Int64At(0))
	assert.Equal(t, int64((2+4)*(6+8)), out.Int64At(1))
}

func TestEvaluateWithLiteral(t *testing.T) {
	table, err := NewTable(int32Column(t, 5, 10))
	require.NoError(t, err)

	lit, err := ast.NewLiteralTyped(ast.IntValue(3), types.Int32)
	require.NoError(t, err)
	p := compileTable(t, ast.NewExpression(ast.OpMul, col(0), lit), table)

	out, err := session(t).EvaluateTable(p, table)
	require.NoError(t, err)
	assert.Equal(t, int64(15), out.Int64At(0))
	assert.Equal(t, int64(30), out.Int64At(1))
}

func TestEvaluatePromotionToFloat(t *testing.T) {
	ints := int32Column(t, 1, 3)
	floats, err := NewFloat64Column(types.Float64, []float64{0.5, 0.25})
	require.NoError(t, err)
	table, err := NewTable(ints, floats)
	require.NoError(t, err)

	p := compileTable(t, ast.NewExpression(ast.OpAdd, col(0), col(1)), table)
	require.Equal(t, types.Float64, p.RootType())

	out, err := session(t).EvaluateTable(p, table)
	require.NoError(t, err)
	assert.Equal(t, 1.5, out.Float64At(0))
	assert.Equal(t, 3.25, out.Float64At(1))
}

func TestEvaluateTrueDiv(t *testing.T) {
	table, err := NewTable(int32Column(t, 7), int32Column(t, 2))
	require.NoError(t, err)

	p := compileTable(t, ast.NewExpression(ast.OpTrueDiv, col(0), col(1)), table)
	out, err := session(t).EvaluateTable(p, table)
	require.NoError(t, err)
	assert.Equal(t, types.Float64, out.Type())
	assert.Equal(t, 3.5, out.Float64At(0))
}

func TestEvaluateComparisonAndLogical(t *testing.T) {
	table, err := NewTable(int32Column(t, 1, 5, 10), int32Column(t, 5, 5, 5))
	require.NoError(t, err)

	// (col0 < col1) || (col0 == col1)
	root := ast.NewExpression(ast.OpLogicalOr,
		ast.NewExpression(ast.OpLess, col(0), col(1)),
		ast.NewExpression(ast.OpEqual, col(0), col(1)),
	)
	p := compileTable(t, root, table)
	out, err := session(t).EvaluateTable(p, table)
	require.NoError(t, err)

	assert.Equal(t, types.Bool, out.Type())
	assert.True(t, out.BoolAt(0))
	assert.True(t, out.BoolAt(1))
	assert.False(t, out.BoolAt(2))
}

func TestEvaluateStringEquality(t *testing.T) {
	names := NewStringColumn([]string{"ash", "birch", "ash"})
	other := NewStringColumn([]string{"ash", "ash", "oak"})
	table, err := NewTable(names, other)
	require.NoError(t, err)

	p := compileTable(t, ast.NewExpression(ast.OpEqual, col(0), col(1)), table)
	out, err := session(t).EvaluateTable(p, table)
	require.NoError(t, err)
	assert.True(t, out.BoolAt(0))
	assert.False(t, out.BoolAt(1))
	assert.False(t, out.BoolAt(2))
}

func TestEvaluateUnary(t *testing.T) {
	table, err := NewTable(int32Column(t, -4, 9))
	require.NoError(t, err)

	p := compileTable(t, ast.NewExpression(ast.OpAbs, col(0)), table)
	out, err := session(t).EvaluateTable(p, table)
	require.NoError(t, err)
	assert.Equal(t, int64(4), out.Int64At(0))
	assert.Equal(t, int64(9), out.Int64At(1))

	p = compileTable(t, ast.NewExpression(ast.OpSqrt, col(0)), table)
	out, err = session(t).EvaluateTable(p, table)
	require.NoError(t, err)
	assert.Equal(t, types.Float64, out.Type())
	assert.Equal(t, 3.0, out.Float64At(1))
}

func TestEvaluateLeafRoot(t *testing.T) {
	table, err := NewTable(int32Column(t, 6, 7))
	require.NoError(t, err)

	p := compileTable(t, col(0), table)
	out, err := session(t).EvaluateTable(p, table)
	require.NoError(t, err)
	assert.Equal(t, int64(6), out.Int64At(0))
	assert.Equal(t, int64(7), out.Int64At(1))
}

func TestEvaluateIntegerWrapsAtWidth(t *testing.T) {
	c, err := NewInt64Column(types.Int32, []int64{2147483647})
	require.NoError(t, err)
	table, err := NewTable(c)
	require.NoError(t, err)

	one, err := ast.NewLiteralTyped(ast.IntValue(1), types.Int32)
	require.NoError(t, err)
	p := compileTable(t, ast.NewExpression(ast.OpAdd, col(0), one), table)

	out, err := session(t).EvaluateTable(p, table)
	require.NoError(t, err)
	assert.Equal(t, int64(-2147483648), out.Int64At(0), "int32 arithmetic wraps")
}

func TestEvaluateDivisionByZero(t *testing.T) {
	table, err := NewTable(int32Column(t, 1), int32Column(t, 0))
	require.NoError(t, err)

	p := compileTable(t, ast.NewExpression(ast.OpDiv, col(0), col(1)), table)
	_, err = session(t).EvaluateTable(p, table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "division by zero")
}

func TestEvaluateTwoTables(t *testing.T) {
	leftCol := int32Column(t, 1, 2)
	rightCol := int32Column(t, 10, 20)
	left, err := NewTable(leftCol)
	require.NoError(t, err)
	right, err := NewTable(rightCol)
	require.NoError(t, err)

	root := ast.NewExpression(ast.OpAdd,
		ast.NewColumnReference(ast.Left, 0),
		ast.NewColumnReference(ast.Right, 0),
	)
	p, err := linearize.Linearize(root, left.Schema(), right.Schema(),
		catalog.Default(), device.HostAllocator{})
	require.NoError(t, err)

	out, err := session(t).Evaluate(p, left, right)
	require.NoError(t, err)
	assert.Equal(t, int64(11), out.Int64At(0))
	assert.Equal(t, int64(22), out.Int64At(1))

	// Misaligned tables are rejected.
	short, err := NewTable(int32Column(t, 1))
	require.NoError(t, err)
	_, err = session(t).Evaluate(p, left, short)
	assert.Error(t, err)
}

func TestEvaluateRejectsColumnTypeDrift(t *testing.T) {
	compiled, err := schema.NewTableOfTypes(types.Int32)
	require.NoError(t, err)
	p, err := linearize.LinearizeTable(ast.NewExpression(ast.OpAdd, col(0), col(0)),
		compiled, catalog.Default(), device.HostAllocator{})
	require.NoError(t, err)

	// Same shape, wider column: replaying would wrap 2^31 to 0 instead of
	// producing 2^32.
	wide, err := NewInt64Column(types.Int64, []int64{1 << 31})
	require.NoError(t, err)
	table, err := NewTable(wide)
	require.NoError(t, err)

	_, err = session(t).EvaluateTable(p, table)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "column 0 is int64, program expects int32")
}

func TestSessionPlanIDsDiffer(t *testing.T) {
	a := session(t)
	b := session(t)
	assert.NotEmpty(t, a.PlanID())
	assert.NotEqual(t, a.PlanID(), b.PlanID())
}

func TestEvaluateRejectsNilInput(t *testing.T) {
	s := session(t)
	table, err := NewTable(int32Column(t, 1))
	require.NoError(t, err)

	_, err = s.EvaluateTable(nil, table)
	assert.Error(t, err)

	p := compileTable(t, col(0), table)
	_, err = s.Evaluate(p, nil, table)
	assert.Error(t, err)
}
