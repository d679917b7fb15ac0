package ast

import (
	"encoding/json"
	"fmt"
)

// Operator identifies an operation an Expression node applies to its
// operands. The catalog package owns each operator's arity and type
// promotion rules; this enum only names the operations.
type Operator uint8

const (
	// OpInvalid is the zero Operator. It never appears in a valid tree.
	OpInvalid Operator = iota

	// Binary arithmetic.
	OpAdd
	OpSub
	OpMul
	OpDiv      // integer-preserving division
	OpTrueDiv  // division that always yields float64
	OpFloorDiv // division rounded toward negative infinity
	OpMod
	OpPow

	// Binary comparison.
	OpEqual
	OpNotEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual

	// Binary bitwise and logical.
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpLogicalAnd
	OpLogicalOr

	// Unary.
	OpIdentity
	OpNot
	OpAbs
	OpNegate
	OpSin
	OpCos
	OpSqrt
	OpBitInvert
)

var operatorNames = map[Operator]string{
	OpInvalid:      "invalid",
	OpAdd:          "add",
	OpSub:          "sub",
	OpMul:          "mul",
	OpDiv:          "div",
	OpTrueDiv:      "true_div",
	OpFloorDiv:     "floor_div",
	OpMod:          "mod",
	OpPow:          "pow",
	OpEqual:        "equal",
	OpNotEqual:     "not_equal",
	OpLess:         "less",
	OpGreater:      "greater",
	OpLessEqual:    "less_equal",
	OpGreaterEqual: "greater_equal",
	OpBitwiseAnd:   "bitwise_and",
	OpBitwiseOr:    "bitwise_or",
	OpBitwiseXor:   "bitwise_xor",
	OpLogicalAnd:   "logical_and",
	OpLogicalOr:    "logical_or",
	OpIdentity:     "identity",
	OpNot:          "not",
	OpAbs:          "abs",
	OpNegate:       "negate",
	OpSin:          "sin",
	OpCos:          "cos",
	OpSqrt:         "sqrt",
	OpBitInvert:    "bit_invert",
}

var operatorByName = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorNames))
	for op, name := range operatorNames {
		if op != OpInvalid {
			m[name] = op
		}
	}
	return m
}()

// String returns the canonical snake_case name of the operator.
func (op Operator) String() string {
	if name, ok := operatorNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// MarshalJSON encodes the operator as its canonical name.
func (op Operator) MarshalJSON() ([]byte, error) {
	return json.Marshal(op.String())
}

// ParseOperator resolves a canonical operator name ("add", "bitwise_xor",
// ...) used by CUE expression specs.
func ParseOperator(name string) (Operator, error) {
	op, ok := operatorByName[name]
	if !ok {
		return OpInvalid, fmt.Errorf("unknown operator %q", name)
	}
	return op, nil
}
