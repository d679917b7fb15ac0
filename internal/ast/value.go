package ast

import (
	"fmt"
	"math"
	"strconv"

	"github.com/roach88/exprc/internal/types"
)

// Value is a sealed interface over the host-side scalar values a Literal
// node may carry. Only BoolValue, IntValue, UintValue, FloatValue, and
// TimestampValue implement it; every variant is fixed-width, because
// literals are staged into 8-byte device views during linearization.
type Value interface {
	value() // Marker method - seals interface to this package

	// DefaultType is the type the value carries when the literal does not
	// declare a narrower one.
	DefaultType() types.DataType

	// String renders the value for diagnostics and program dumps.
	String() string
}

// BoolValue is a boolean scalar.
type BoolValue bool

func (BoolValue) value() {}

// DefaultType returns bool.
func (BoolValue) DefaultType() types.DataType { return types.Bool }

func (v BoolValue) String() string { return strconv.FormatBool(bool(v)) }

// IntValue is a signed integer scalar. It is always held as int64 on the
// host; the literal's declared DataType narrows it to int8..int64.
type IntValue int64

func (IntValue) value() {}

// DefaultType returns int64.
func (IntValue) DefaultType() types.DataType { return types.Int64 }

func (v IntValue) String() string { return strconv.FormatInt(int64(v), 10) }

// UintValue is an unsigned integer scalar held as uint64 on the host.
type UintValue uint64

func (UintValue) value() {}

// DefaultType returns uint64.
func (UintValue) DefaultType() types.DataType { return types.Uint64 }

func (v UintValue) String() string { return strconv.FormatUint(uint64(v), 10) }

// FloatValue is a floating-point scalar held as float64 on the host.
type FloatValue float64

func (FloatValue) value() {}

// DefaultType returns float64.
func (FloatValue) DefaultType() types.DataType { return types.Float64 }

func (v FloatValue) String() string {
	return strconv.FormatFloat(float64(v), 'g', -1, 64)
}

// TimestampValue is a timestamp scalar: microseconds since the Unix epoch.
type TimestampValue int64

func (TimestampValue) value() {}

// DefaultType returns timestamp.
func (TimestampValue) DefaultType() types.DataType { return types.Timestamp }

func (v TimestampValue) String() string {
	return strconv.FormatInt(int64(v), 10) + "us"
}

// checkValueType reports whether a value is representable as the declared
// literal type. Integer values must fit the declared width; class
// mismatches (e.g. a FloatValue declared int32) are rejected outright.
func checkValueType(v Value, dt types.DataType) error {
	switch val := v.(type) {
	case BoolValue:
		if dt.Kind == types.KindBool {
			return nil
		}
	case IntValue:
		if dt.IsSigned() && fitsSigned(int64(val), dt) {
			return nil
		}
	case UintValue:
		if dt.IsUnsigned() && fitsUnsigned(uint64(val), dt) {
			return nil
		}
	case FloatValue:
		if dt.IsFloat() {
			return nil
		}
	case TimestampValue:
		if dt.Kind == types.KindTimestamp {
			return nil
		}
	}
	return fmt.Errorf("literal value %s is not representable as %s", v, dt)
}

func fitsSigned(n int64, dt types.DataType) bool {
	switch dt.Kind {
	case types.KindInt8:
		return n >= math.MinInt8 && n <= math.MaxInt8
	case types.KindInt16:
		return n >= math.MinInt16 && n <= math.MaxInt16
	case types.KindInt32:
		return n >= math.MinInt32 && n <= math.MaxInt32
	case types.KindInt64:
		return true
	default:
		return false
	}
}

func fitsUnsigned(n uint64, dt types.DataType) bool {
	switch dt.Kind {
	case types.KindUint8:
		return n <= math.MaxUint8
	case types.KindUint16:
		return n <= math.MaxUint16
	case types.KindUint32:
		return n <= math.MaxUint32
	case types.KindUint64:
		return true
	default:
		return false
	}
}
