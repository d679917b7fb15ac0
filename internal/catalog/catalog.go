package catalog

import (
	"github.com/roach88/exprc/internal/ast"
	"github.com/roach88/exprc/internal/types"
)

// Catalog describes the operator vocabulary available to expression trees.
//
// Arity returns the operand count an operator requires, or false for an
// operator the catalog does not know. ResultType returns the promoted
// result type for an operator applied to the given operand types, or false
// when the combination is unsupported. Neither method panics on unknown
// input; "unsupported" is an expected answer, not an error.
type Catalog interface {
	Arity(op ast.Operator) (int, bool)
	ResultType(op ast.Operator, operands ...types.DataType) (types.DataType, bool)
}

// Default returns the built-in catalog with standard numeric promotion.
func Default() Catalog {
	return defaultCatalog{}
}

type defaultCatalog struct{}

// unaryOps holds every operator with arity 1; all other known operators
// are binary.
var unaryOps = map[ast.Operator]bool{
	ast.OpIdentity:  true,
	ast.OpNot:       true,
	ast.OpAbs:       true,
	ast.OpNegate:    true,
	ast.OpSin:       true,
	ast.OpCos:       true,
	ast.OpSqrt:      true,
	ast.OpBitInvert: true,
}

var binaryOps = map[ast.Operator]bool{
	ast.OpAdd:          true,
	ast.OpSub:          true,
	ast.OpMul:          true,
	ast.OpDiv:          true,
	ast.OpTrueDiv:      true,
	ast.OpFloorDiv:     true,
	ast.OpMod:          true,
	ast.OpPow:          true,
	ast.OpEqual:        true,
	ast.OpNotEqual:     true,
	ast.OpLess:         true,
	ast.OpGreater:      true,
	ast.OpLessEqual:    true,
	ast.OpGreaterEqual: true,
	ast.OpBitwiseAnd:   true,
	ast.OpBitwiseOr:    true,
	ast.OpBitwiseXor:   true,
	ast.OpLogicalAnd:   true,
	ast.OpLogicalOr:    true,
}

// Arity implements Catalog.
func (defaultCatalog) Arity(op ast.Operator) (int, bool) {
	if unaryOps[op] {
		return 1, true
	}
	if binaryOps[op] {
		return 2, true
	}
	return 0, false
}

// ResultType implements Catalog.
func (defaultCatalog) ResultType(op ast.Operator, operands ...types.DataType) (types.DataType, bool) {
	arity, ok := defaultCatalog{}.Arity(op)
	if !ok || len(operands) != arity {
		return types.DataType{}, false
	}
	for _, dt := range operands {
		if !dt.Valid() {
			return types.DataType{}, false
		}
	}
	if arity == 1 {
		return unaryResultType(op, operands[0])
	}
	return binaryResultType(op, operands[0], operands[1])
}

func unaryResultType(op ast.Operator, operand types.DataType) (types.DataType, bool) {
	switch op {
	case ast.OpIdentity:
		return operand, true
	case ast.OpNot:
		if operand.Kind == types.KindBool {
			return types.Bool, true
		}
	case ast.OpAbs:
		if operand.IsNumeric() {
			return operand, true
		}
	case ast.OpNegate:
		// Unsigned operands have no negation; reject rather than promote.
		if operand.IsSigned() || operand.IsFloat() {
			return operand, true
		}
	case ast.OpSin, ast.OpCos, ast.OpSqrt:
		if operand.IsNumeric() {
			if operand.Kind == types.KindFloat32 {
				return types.Float32, true
			}
			return types.Float64, true
		}
	case ast.OpBitInvert:
		if operand.IsInteger() {
			return operand, true
		}
	}
	return types.DataType{}, false
}

func binaryResultType(op ast.Operator, left, right types.DataType) (types.DataType, bool) {
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpFloorDiv, ast.OpMod:
		return promoteNumeric(left, right)

	case ast.OpTrueDiv:
		if left.IsNumeric() && right.IsNumeric() {
			return types.Float64, true
		}

	case ast.OpPow:
		if left.IsNumeric() && right.IsNumeric() {
			return types.Float64, true
		}

	case ast.OpEqual, ast.OpNotEqual:
		if equatable(left, right) {
			return types.Bool, true
		}

	case ast.OpLess, ast.OpGreater, ast.OpLessEqual, ast.OpGreaterEqual:
		if left.IsComparable() && right.IsComparable() && equatable(left, right) {
			return types.Bool, true
		}

	case ast.OpBitwiseAnd, ast.OpBitwiseOr, ast.OpBitwiseXor:
		if left.IsInteger() && right.IsInteger() {
			return promoteNumeric(left, right)
		}

	case ast.OpLogicalAnd, ast.OpLogicalOr:
		if left.Kind == types.KindBool && right.Kind == types.KindBool {
			return types.Bool, true
		}
	}
	return types.DataType{}, false
}

// equatable reports whether two types may be compared for equality or
// order: any two numeric types (they promote to a common type first), or
// two values of the same non-numeric kind.
func equatable(left, right types.DataType) bool {
	if left.IsNumeric() && right.IsNumeric() {
		return true
	}
	return left.Kind == right.Kind
}

// promoteNumeric computes the common type of two numeric operands:
//
//   - two floats promote to the wider float
//   - a float and an integer promote to a float wide enough for both
//   - integers of the same signedness promote to the wider of the two
//   - a narrower unsigned operand fits in the wider signed operand's type;
//     otherwise the pair promotes to the next wider signed type, and the
//     64-bit signed/unsigned mix promotes to float64 (there is no int128)
func promoteNumeric(left, right types.DataType) (types.DataType, bool) {
	if !left.IsNumeric() || !right.IsNumeric() {
		return types.DataType{}, false
	}

	if left.IsFloat() || right.IsFloat() {
		if left.Kind == types.KindFloat64 || right.Kind == types.KindFloat64 {
			return types.Float64, true
		}
		// One operand is float32; keep float32 only if the other fits.
		other := left
		if left.Kind == types.KindFloat32 {
			other = right
		}
		if other.Width() <= types.Float32.Width() {
			return types.Float32, true
		}
		return types.Float64, true
	}

	if left.IsSigned() == right.IsSigned() {
		if left.Width() >= right.Width() {
			return left, true
		}
		return right, true
	}

	signed, unsigned := left, right
	if right.IsSigned() {
		signed, unsigned = right, left
	}
	if unsigned.Width() < signed.Width() {
		return signed, true
	}
	switch unsigned.Kind {
	case types.KindUint8:
		return types.Int16, true
	case types.KindUint16:
		return types.Int32, true
	case types.KindUint32:
		return types.Int64, true
	default:
		return types.Float64, true
	}
}
