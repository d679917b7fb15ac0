package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprc/internal/ast"
	"github.com/roach88/exprc/internal/types"
)

func compileString(t *testing.T, src string) (*Spec, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	return CompileSpec(v)
}

const basicSpec = `
tables: left: columns: [
	{name: "price", type: "int32"},
	{name: "qty", type: "int32"},
]
expression: {
	op: "mul"
	args: [
		{op: "add", args: [{column: 0}, {column: 1}]},
		{literal: 2, type: "int32"},
	]
}
`

func TestCompileSpecBasic(t *testing.T) {
	spec, err := compileString(t, basicSpec)
	require.NoError(t, err)

	require.NotNil(t, spec.Left)
	assert.Nil(t, spec.Right)
	assert.Equal(t, 2, spec.Left.NumColumns())
	assert.Equal(t, "price", spec.Left.ColumnName(0))

	root, ok := spec.Root.(*ast.Expression)
	require.True(t, ok)
	assert.Equal(t, ast.OpMul, root.Op)
	require.Len(t, root.Operands, 2)

	lit, ok := root.Operands[1].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, types.Int32, lit.Type)
	assert.Equal(t, ast.IntValue(2), lit.Value)

	inner, ok := root.Operands[0].(*ast.Expression)
	require.True(t, ok)
	assert.Equal(t, ast.OpAdd, inner.Op)

	colRef, ok := inner.Operands[0].(*ast.ColumnReference)
	require.True(t, ok)
	assert.Equal(t, ast.Left, colRef.Side)
	assert.Equal(t, 0, colRef.Column)
}

func TestCompileSpecTwoTables(t *testing.T) {
	spec, err := compileString(t, `
tables: {
	left: columns: [{type: "int64"}]
	right: columns: [{type: "int64"}, {type: "float64"}]
}
expression: {
	op: "add"
	args: [
		{column: 0, table: "left"},
		{column: 1, table: "right"},
	]
}
`)
	require.NoError(t, err)
	require.NotNil(t, spec.Right)
	assert.Equal(t, 2, spec.Right.NumColumns())

	root := spec.Root.(*ast.Expression)
	right := root.Operands[1].(*ast.ColumnReference)
	assert.Equal(t, ast.Right, right.Side)
	assert.Equal(t, 1, right.Column)
}

func TestCompileSpecLiteralKinds(t *testing.T) {
	spec, err := compileString(t, `
tables: left: columns: [{type: "bool"}]
expression: {
	op: "logical_and"
	args: [
		{column: 0},
		{literal: true},
	]
}
`)
	require.NoError(t, err)
	lit := spec.Root.(*ast.Expression).Operands[1].(*ast.Literal)
	assert.Equal(t, ast.BoolValue(true), lit.Value)

	spec, err = compileString(t, `
tables: left: columns: [{type: "float64"}]
expression: {op: "add", args: [{column: 0}, {literal: 1.5}]}
`)
	require.NoError(t, err)
	lit = spec.Root.(*ast.Expression).Operands[1].(*ast.Literal)
	assert.Equal(t, ast.FloatValue(1.5), lit.Value)
	assert.Equal(t, types.Float64, lit.Type)

	spec, err = compileString(t, `
tables: left: columns: [{type: "uint32"}]
expression: {op: "add", args: [{column: 0}, {literal: 7, type: "uint32"}]}
`)
	require.NoError(t, err)
	lit = spec.Root.(*ast.Expression).Operands[1].(*ast.Literal)
	assert.Equal(t, ast.UintValue(7), lit.Value)
	assert.Equal(t, types.Uint32, lit.Type)
}

func TestCompileSpecErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"missing_tables",
			`expression: {column: 0}`,
			"tables is required",
		},
		{
			"missing_left",
			`tables: {}
expression: {column: 0}`,
			"left table is required",
		},
		{
			"missing_expression",
			`tables: left: columns: [{type: "int32"}]`,
			"expression is required",
		},
		{
			"empty_columns",
			`tables: left: columns: []
expression: {column: 0}`,
			"at least one column is required",
		},
		{
			"bad_column_type",
			`tables: left: columns: [{type: "varchar"}]
expression: {column: 0}`,
			"unknown data type",
		},
		{
			"missing_column_type",
			`tables: left: columns: [{name: "x"}]
expression: {column: 0}`,
			"type is required",
		},
		{
			"bad_operator",
			`tables: left: columns: [{type: "int32"}]
expression: {op: "cbrt", args: [{column: 0}]}`,
			"unknown operator",
		},
		{
			"bad_node_shape",
			`tables: left: columns: [{type: "int32"}]
expression: {rows: 3}`,
			"node must have one of",
		},
		{
			"bad_table_side",
			`tables: left: columns: [{type: "int32"}]
expression: {column: 0, table: "middle"}`,
			"table must be",
		},
		{
			"string_literal",
			`tables: left: columns: [{type: "string"}]
expression: {op: "equal", args: [{column: 0}, {literal: "x"}]}`,
			"literal must be a bool or number",
		},
		{
			"literal_width_overflow",
			`tables: left: columns: [{type: "int8"}]
expression: {op: "add", args: [{column: 0}, {literal: 1000, type: "int8"}]}`,
			"not representable",
		},
		{
			"missing_args",
			`tables: left: columns: [{type: "int32"}]
expression: {op: "add"}`,
			"args is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileString(t, tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadSpecFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spec.cue")
	require.NoError(t, os.WriteFile(path, []byte(basicSpec), 0o644))

	spec, err := LoadSpecFile(path)
	require.NoError(t, err)
	assert.NotNil(t, spec.Root)

	_, err = LoadSpecFile(filepath.Join(dir, "missing.cue"))
	assert.Error(t, err)
}

func TestLoadSpecFileReportsPosition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
tables: left: columns: [{type: "varchar"}]
expression: {column: 0}
`), 0o644))

	_, err := LoadSpecFile(path)
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "bad.cue")
}
