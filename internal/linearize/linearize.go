package linearize

import (
	"github.com/roach88/exprc/internal/ast"
	"github.com/roach88/exprc/internal/catalog"
	"github.com/roach88/exprc/internal/device"
	"github.com/roach88/exprc/internal/schema"
	"github.com/roach88/exprc/internal/types"
)

// Program is the compiled form of one expression tree. The four arrays
// plus the root type are the complete instruction stream a per-row
// evaluator needs; nothing else is consulted at replay time.
//
// A Program is immutable after construction and safe for concurrent
// readers. Accessors return the backing arrays as read-only views; callers
// must not modify them.
type Program struct {
	dataReferences        []DataReference
	operators             []ast.Operator
	operatorSourceIndices []int
	literals              []device.LiteralView
	rootType              types.DataType
	peak                  int
}

// DataReferences returns one reference per visited tree node, in
// visitation order. Index i is the value produced by the i-th visited node.
func (p *Program) DataReferences() []DataReference {
	return p.dataReferences
}

// Operators returns one operator per Expression node, in the order each
// expression finished resolving (strict post-order).
func (p *Program) Operators() []ast.Operator {
	return p.operators
}

// OperatorSourceIndices returns the flattened operand index runs: the run
// for the k-th operator has exactly that operator's arity entries, each an
// index into DataReferences, in operand order.
func (p *Program) OperatorSourceIndices() []int {
	return p.operatorSourceIndices
}

// Literals returns the staged literal views, in visitation order of the
// tree's literal nodes.
func (p *Program) Literals() []device.LiteralView {
	return p.literals
}

// RootType returns the resolved type of the tree's root node.
func (p *Program) RootType() types.DataType {
	return p.rootType
}

// PeakIntermediateCount returns the maximum number of intermediate slots
// simultaneously live during the traversal: the fixed per-row temporary
// buffer capacity the evaluator must provision.
func (p *Program) PeakIntermediateCount() int {
	return p.peak
}

// Linearizer performs one compilation pass. It is single-use and
// single-threaded: construct, traverse, move the Program out, discard.
type Linearizer struct {
	left    *schema.Table
	right   *schema.Table
	cat     catalog.Catalog
	alloc   device.Allocator
	slots   slotAllocator
	program Program
}

// Linearize compiles an expression tree against a left and right table
// schema. Construction is eager: the whole tree is validated and traversed
// before Linearize returns, and any failure aborts with no partial program.
func Linearize(root ast.Node, left, right *schema.Table, cat catalog.Catalog, alloc device.Allocator) (*Program, error) {
	if root == nil {
		return nil, newError(ErrInvalidArgument, "", "nil expression root")
	}
	if left == nil || right == nil {
		return nil, newError(ErrInvalidArgument, "", "nil table schema")
	}
	if cat == nil {
		return nil, newError(ErrInvalidArgument, "", "nil operator catalog")
	}
	if alloc == nil {
		return nil, newError(ErrInvalidArgument, "", "nil literal allocator")
	}
	if depth := ast.Depth(root); depth > ast.MaxDepth {
		return nil, newError(ErrInvalidExpression, "", "tree depth %d exceeds maximum %d", depth, ast.MaxDepth)
	}

	l := &Linearizer{left: left, right: right, cat: cat, alloc: alloc}
	rootIndex, err := l.visit(root)
	if err != nil {
		return nil, err
	}
	l.program.rootType = l.program.dataReferences[rootIndex].Type
	l.program.peak = l.slots.maxHeld()
	return &l.program, nil
}

// LinearizeTable compiles an expression tree against a single table bound
// to both sides.
func LinearizeTable(root ast.Node, table *schema.Table, cat catalog.Catalog, alloc device.Allocator) (*Program, error) {
	return Linearize(root, table, table, cat, alloc)
}

// visit resolves one node in strict post-order and returns the index of
// the data reference describing its value.
func (l *Linearizer) visit(n ast.Node) (int, error) {
	switch node := n.(type) {
	case nil:
		return 0, newError(ErrInvalidExpression, "", "nil operand node")
	case *ast.Literal:
		return l.visitLiteral(node)
	case *ast.ColumnReference:
		return l.visitColumnReference(node)
	case *ast.Expression:
		return l.visitExpression(node)
	default:
		return 0, newError(ErrInvalidExpression, "", "unknown node %T", n)
	}
}

func (l *Linearizer) visitLiteral(node *ast.Literal) (int, error) {
	view, err := device.NewLiteralView(l.alloc, node)
	if err != nil {
		return 0, newError(ErrInvalidExpression, ast.Format(node), "staging literal: %v", err)
	}
	index := len(l.program.literals)
	l.program.literals = append(l.program.literals, view)
	return l.addDataReference(DataReference{
		Kind:  LiteralRef,
		Type:  node.Type,
		Index: index,
	}), nil
}

func (l *Linearizer) visitColumnReference(node *ast.ColumnReference) (int, error) {
	table := l.left
	if node.Side == ast.Right {
		table = l.right
	}
	dt, ok := table.ColumnType(node.Column)
	if !ok {
		return 0, newError(ErrOutOfRange, ast.Format(node),
			"column %d out of range for %s table with %d columns",
			node.Column, node.Side, table.NumColumns())
	}
	return l.addDataReference(DataReference{
		Kind:  Column,
		Type:  dt,
		Index: node.Column,
		Side:  node.Side,
	}), nil
}

func (l *Linearizer) visitExpression(node *ast.Expression) (int, error) {
	// Operands resolve first, in order and in this same traversal.
	operandIndices := make([]int, len(node.Operands))
	operandTypes := make([]types.DataType, len(node.Operands))
	for i, operand := range node.Operands {
		index, err := l.visit(operand)
		if err != nil {
			return 0, err
		}
		operandIndices[i] = index
		operandTypes[i] = l.program.dataReferences[index].Type
	}

	arity, ok := l.cat.Arity(node.Op)
	if !ok {
		return 0, newError(ErrUnsupportedOperation, node.Op.String(),
			"operator %s is not in the catalog", node.Op)
	}
	if len(node.Operands) != arity {
		return 0, newError(ErrInvalidExpression, node.Op.String(),
			"operator %s requires %d operands, got %d", node.Op, arity, len(node.Operands))
	}

	resultType, ok := l.cat.ResultType(node.Op, operandTypes...)
	if !ok {
		return 0, newError(ErrUnsupportedOperation, node.Op.String(),
			"operator %s does not support operand types %s", node.Op, formatTypes(operandTypes))
	}

	l.program.operators = append(l.program.operators, node.Op)
	l.program.operatorSourceIndices = append(l.program.operatorSourceIndices, operandIndices...)

	// An operand's intermediate slot is dead the moment its consumer has
	// recorded the operand's index; free it before taking this node's own
	// slot so the slot can be reused immediately.
	for _, index := range operandIndices {
		ref := l.program.dataReferences[index]
		if ref.Kind == Intermediate {
			if err := l.slots.give(ref.Index); err != nil {
				return 0, err
			}
		}
	}

	// The root's slot is deliberately never given back here: its value is
	// consumed by the evaluator writing the final output, after this pass.
	slot := l.slots.take()
	return l.addDataReference(DataReference{
		Kind:  Intermediate,
		Type:  resultType,
		Index: slot,
	}), nil
}

func (l *Linearizer) addDataReference(ref DataReference) int {
	l.program.dataReferences = append(l.program.dataReferences, ref)
	return len(l.program.dataReferences) - 1
}

func formatTypes(dts []types.DataType) string {
	s := "("
	for i, dt := range dts {
		if i > 0 {
			s += ", "
		}
		s += dt.String()
	}
	return s + ")"
}
