package eval

import (
	"fmt"
	"math"

	"github.com/roach88/exprc/internal/ast"
	"github.com/roach88/exprc/internal/types"
)

// cell is one runtime scalar: a type tag plus an 8-byte payload (or a Go
// string for string values). It mirrors what one intermediate slot, column
// cell, or literal view holds.
type cell struct {
	dt   types.DataType
	bits uint64
	str  string
}

func (c cell) asInt() int64 {
	return int64(c.bits)
}

func (c cell) asUint() uint64 {
	return c.bits
}

func (c cell) asFloat() float64 {
	switch {
	case c.dt.IsFloat():
		return math.Float64frombits(c.bits)
	case c.dt.IsUnsigned():
		return float64(c.bits)
	default:
		return float64(int64(c.bits))
	}
}

func (c cell) asBool() bool {
	return c.bits != 0
}

func makeInt(dt types.DataType, v int64) cell {
	return cell{dt: dt, bits: uint64(truncateSigned(dt, v))}
}

func makeUint(dt types.DataType, v uint64) cell {
	return cell{dt: dt, bits: truncateUnsigned(dt, v)}
}

func makeFloat(dt types.DataType, v float64) cell {
	if dt.Kind == types.KindFloat32 {
		v = float64(float32(v))
	}
	return cell{dt: dt, bits: math.Float64bits(v)}
}

func makeBool(v bool) cell {
	if v {
		return cell{dt: types.Bool, bits: 1}
	}
	return cell{dt: types.Bool}
}

// truncateSigned wraps a signed result to the declared width, emulating
// fixed-width column arithmetic.
func truncateSigned(dt types.DataType, v int64) int64 {
	switch dt.Kind {
	case types.KindInt8:
		return int64(int8(v))
	case types.KindInt16:
		return int64(int16(v))
	case types.KindInt32:
		return int64(int32(v))
	default:
		return v
	}
}

func truncateUnsigned(dt types.DataType, v uint64) uint64 {
	switch dt.Kind {
	case types.KindUint8:
		return uint64(uint8(v))
	case types.KindUint16:
		return uint64(uint16(v))
	case types.KindUint32:
		return uint64(uint32(v))
	default:
		return v
	}
}

// applyUnary evaluates a unary operator, writing the result as resultType.
func applyUnary(op ast.Operator, resultType types.DataType, a cell) (cell, error) {
	switch op {
	case ast.OpIdentity:
		out := a
		out.dt = resultType
		return out, nil
	case ast.OpNot:
		return makeBool(!a.asBool()), nil
	case ast.OpAbs:
		switch {
		case resultType.IsFloat():
			return makeFloat(resultType, math.Abs(a.asFloat())), nil
		case resultType.IsUnsigned():
			return makeUint(resultType, a.asUint()), nil
		default:
			v := a.asInt()
			if v < 0 {
				v = -v
			}
			return makeInt(resultType, v), nil
		}
	case ast.OpNegate:
		if resultType.IsFloat() {
			return makeFloat(resultType, -a.asFloat()), nil
		}
		return makeInt(resultType, -a.asInt()), nil
	case ast.OpSin:
		return makeFloat(resultType, math.Sin(a.asFloat())), nil
	case ast.OpCos:
		return makeFloat(resultType, math.Cos(a.asFloat())), nil
	case ast.OpSqrt:
		return makeFloat(resultType, math.Sqrt(a.asFloat())), nil
	case ast.OpBitInvert:
		if resultType.IsUnsigned() {
			return makeUint(resultType, ^a.asUint()), nil
		}
		return makeInt(resultType, ^a.asInt()), nil
	default:
		return cell{}, fmt.Errorf("unary operator %s is not executable", op)
	}
}

// applyBinary evaluates a binary operator, writing the result as
// resultType. Arithmetic happens in the promoted result type's class;
// integer results wrap at their declared width.
func applyBinary(op ast.Operator, resultType types.DataType, a, b cell) (cell, error) {
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpFloorDiv, ast.OpMod:
		return applyArithmetic(op, resultType, a, b)

	case ast.OpTrueDiv:
		return makeFloat(resultType, a.asFloat()/b.asFloat()), nil

	case ast.OpPow:
		return makeFloat(resultType, math.Pow(a.asFloat(), b.asFloat())), nil

	case ast.OpEqual, ast.OpNotEqual, ast.OpLess, ast.OpGreater,
		ast.OpLessEqual, ast.OpGreaterEqual:
		return applyComparison(op, a, b)

	case ast.OpBitwiseAnd, ast.OpBitwiseOr, ast.OpBitwiseXor:
		if resultType.IsUnsigned() {
			x, y := a.asUint(), b.asUint()
			switch op {
			case ast.OpBitwiseAnd:
				return makeUint(resultType, x&y), nil
			case ast.OpBitwiseOr:
				return makeUint(resultType, x|y), nil
			default:
				return makeUint(resultType, x^y), nil
			}
		}
		x, y := a.asInt(), b.asInt()
		switch op {
		case ast.OpBitwiseAnd:
			return makeInt(resultType, x&y), nil
		case ast.OpBitwiseOr:
			return makeInt(resultType, x|y), nil
		default:
			return makeInt(resultType, x^y), nil
		}

	case ast.OpLogicalAnd:
		return makeBool(a.asBool() && b.asBool()), nil
	case ast.OpLogicalOr:
		return makeBool(a.asBool() || b.asBool()), nil

	default:
		return cell{}, fmt.Errorf("binary operator %s is not executable", op)
	}
}

func applyArithmetic(op ast.Operator, resultType types.DataType, a, b cell) (cell, error) {
	if resultType.IsFloat() {
		x, y := a.asFloat(), b.asFloat()
		var v float64
		switch op {
		case ast.OpAdd:
			v = x + y
		case ast.OpSub:
			v = x - y
		case ast.OpMul:
			v = x * y
		case ast.OpDiv:
			v = x / y
		case ast.OpFloorDiv:
			v = math.Floor(x / y)
		case ast.OpMod:
			v = math.Mod(x, y)
		}
		return makeFloat(resultType, v), nil
	}

	if resultType.IsUnsigned() {
		x, y := a.asUint(), b.asUint()
		switch op {
		case ast.OpAdd:
			return makeUint(resultType, x+y), nil
		case ast.OpSub:
			return makeUint(resultType, x-y), nil
		case ast.OpMul:
			return makeUint(resultType, x*y), nil
		case ast.OpDiv, ast.OpFloorDiv:
			if y == 0 {
				return cell{}, fmt.Errorf("division by zero")
			}
			return makeUint(resultType, x/y), nil
		case ast.OpMod:
			if y == 0 {
				return cell{}, fmt.Errorf("division by zero")
			}
			return makeUint(resultType, x%y), nil
		}
	}

	x, y := a.asInt(), b.asInt()
	switch op {
	case ast.OpAdd:
		return makeInt(resultType, x+y), nil
	case ast.OpSub:
		return makeInt(resultType, x-y), nil
	case ast.OpMul:
		return makeInt(resultType, x*y), nil
	case ast.OpDiv:
		if y == 0 {
			return cell{}, fmt.Errorf("division by zero")
		}
		return makeInt(resultType, x/y), nil
	case ast.OpFloorDiv:
		if y == 0 {
			return cell{}, fmt.Errorf("division by zero")
		}
		q := x / y
		if (x%y != 0) && ((x < 0) != (y < 0)) {
			q--
		}
		return makeInt(resultType, q), nil
	case ast.OpMod:
		if y == 0 {
			return cell{}, fmt.Errorf("division by zero")
		}
		return makeInt(resultType, x%y), nil
	}
	return cell{}, fmt.Errorf("arithmetic operator %s is not executable", op)
}

func applyComparison(op ast.Operator, a, b cell) (cell, error) {
	ord, err := compareCells(a, b)
	if err != nil {
		return cell{}, err
	}
	switch op {
	case ast.OpEqual:
		return makeBool(ord == 0), nil
	case ast.OpNotEqual:
		return makeBool(ord != 0), nil
	case ast.OpLess:
		return makeBool(ord < 0), nil
	case ast.OpGreater:
		return makeBool(ord > 0), nil
	case ast.OpLessEqual:
		return makeBool(ord <= 0), nil
	default:
		return makeBool(ord >= 0), nil
	}
}

// compareCells orders two cells of catalog-equatable types.
func compareCells(a, b cell) (int, error) {
	switch {
	case a.dt.Kind == types.KindString && b.dt.Kind == types.KindString:
		switch {
		case a.str < b.str:
			return -1, nil
		case a.str > b.str:
			return 1, nil
		default:
			return 0, nil
		}

	case a.dt.Kind == types.KindBool && b.dt.Kind == types.KindBool:
		return int(a.bits) - int(b.bits), nil

	case a.dt.Kind == types.KindTimestamp && b.dt.Kind == types.KindTimestamp:
		return compareInt(a.asInt(), b.asInt()), nil

	case a.dt.IsNumeric() && b.dt.IsNumeric():
		if a.dt.IsFloat() || b.dt.IsFloat() {
			x, y := a.asFloat(), b.asFloat()
			switch {
			case x < y:
				return -1, nil
			case x > y:
				return 1, nil
			default:
				return 0, nil
			}
		}
		return compareMixedInt(a, b), nil

	default:
		return 0, fmt.Errorf("cannot compare %s with %s", a.dt, b.dt)
	}
}

func compareInt(x, y int64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// compareMixedInt orders two integer cells exactly, including the
// signed/unsigned mix that float conversion would round.
func compareMixedInt(a, b cell) int {
	aSigned, bSigned := a.dt.IsSigned(), b.dt.IsSigned()
	switch {
	case aSigned && bSigned:
		return compareInt(a.asInt(), b.asInt())
	case !aSigned && !bSigned:
		x, y := a.asUint(), b.asUint()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case aSigned:
		if a.asInt() < 0 {
			return -1
		}
		return compareMixedInt(cell{dt: types.Uint64, bits: uint64(a.asInt())}, b)
	default:
		return -compareMixedInt(b, a)
	}
}
