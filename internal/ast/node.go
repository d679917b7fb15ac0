package ast

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/exprc/internal/types"
)

// MaxDepth is the deepest tree the linearizer accepts. Post-order traversal
// recurses once per level, so the bound keeps pathological inputs from
// exhausting the goroutine stack. 512 levels is far beyond any expression a
// query front end produces.
const MaxDepth = 512

// TableSide selects which of the (at most two) input tables a column
// reference targets.
type TableSide uint8

const (
	// Left is the left input table. Single-table linearization binds both
	// sides to the same table, and Left is the conventional side to use.
	Left TableSide = iota
	// Right is the right input table.
	Right
)

// String returns "left" or "right".
func (s TableSide) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// MarshalJSON encodes the side as its lowercase name.
func (s TableSide) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Node is a sealed interface over the three expression tree variants.
//
// Only Literal, ColumnReference, and Expression implement it. Consumers
// traverse nodes with exhaustive type switches; the marker method prevents
// implementations outside this package, so a switch over the three variants
// is complete by construction.
type Node interface {
	node() // Marker method - seals interface to this package
}

// Literal is a leaf node carrying a fixed-width scalar value and its
// declared type.
type Literal struct {
	Type  types.DataType
	Value Value
}

func (*Literal) node() {}

// ColumnReference is a leaf node naming a column by index on one side's
// input table. Its type is resolved from that table's schema during
// linearization.
type ColumnReference struct {
	Side   TableSide
	Column int
}

func (*ColumnReference) node() {}

// Expression is an interior node applying an operator to one or two operand
// nodes. Operand count is validated against the operator catalog during
// linearization, not at construction.
type Expression struct {
	Op       Operator
	Operands []Node
}

func (*Expression) node() {}

// NewLiteral builds a literal node whose type is the value's natural type
// (int64 for IntValue, float64 for FloatValue, and so on).
func NewLiteral(v Value) *Literal {
	return &Literal{Type: v.DefaultType(), Value: v}
}

// NewLiteralTyped builds a literal node with an explicitly declared type.
// The value must be representable as that type: the classes must agree and
// integer values must fit the declared width.
func NewLiteralTyped(v Value, dt types.DataType) (*Literal, error) {
	if err := checkValueType(v, dt); err != nil {
		return nil, err
	}
	return &Literal{Type: dt, Value: v}, nil
}

// NewColumnReference builds a column reference on the given side.
func NewColumnReference(side TableSide, column int) *ColumnReference {
	return &ColumnReference{Side: side, Column: column}
}

// NewExpression builds an operator application node. Operand order is
// significant and preserved.
func NewExpression(op Operator, operands ...Node) *Expression {
	return &Expression{Op: op, Operands: operands}
}

// Depth returns the height of the tree rooted at n, counting n itself as
// one level. It walks with an explicit stack so that it is safe to call on
// trees deeper than MaxDepth.
func Depth(n Node) int {
	if n == nil {
		return 0
	}
	type frame struct {
		node  Node
		level int
	}
	max := 0
	stack := []frame{{n, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.level > max {
			max = f.level
		}
		if expr, ok := f.node.(*Expression); ok {
			for _, operand := range expr.Operands {
				if operand != nil {
					stack = append(stack, frame{operand, f.level + 1})
				}
			}
		}
	}
	return max
}

// Format renders the tree as a compact prefix expression for diagnostics,
// e.g. "mul(add(left.col[0], left.col[1]), left.col[2])".
func Format(n Node) string {
	switch node := n.(type) {
	case nil:
		return "<nil>"
	case *Literal:
		return fmt.Sprintf("%s:%s", node.Value, node.Type)
	case *ColumnReference:
		return fmt.Sprintf("%s.col[%d]", node.Side, node.Column)
	case *Expression:
		s := node.Op.String() + "("
		for i, operand := range node.Operands {
			if i > 0 {
				s += ", "
			}
			s += Format(operand)
		}
		return s + ")"
	default:
		return fmt.Sprintf("<unknown node %T>", n)
	}
}
