package device

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/roach88/exprc/internal/ast"
	"github.com/roach88/exprc/internal/types"
)

// payloadSize is the storage footprint of one literal view. Every
// fixed-width kind fits in 8 bytes; narrower kinds are stored widened to
// their 8-byte host representation.
const payloadSize = 8

// Allocator hands out storage for literal payloads. It is an explicit
// constructor parameter everywhere in this module; nothing consults a
// process-wide default.
type Allocator interface {
	Allocate(n int) ([]byte, error)
}

// HostAllocator allocates literal storage from the Go heap.
type HostAllocator struct{}

// Allocate implements Allocator.
func (HostAllocator) Allocate(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative allocation size %d", n)
	}
	return make([]byte, n), nil
}

// LiteralView is the resident form of one literal: a type tag and an 8-byte
// little-endian payload. Views are immutable after construction.
type LiteralView struct {
	dt      types.DataType
	payload []byte
}

// NewLiteralView stages a literal node's value into allocator-provided
// storage. The literal's declared type must be fixed-width.
func NewLiteralView(alloc Allocator, lit *ast.Literal) (LiteralView, error) {
	if alloc == nil {
		return LiteralView{}, fmt.Errorf("nil allocator")
	}
	if lit == nil {
		return LiteralView{}, fmt.Errorf("nil literal")
	}
	if !lit.Type.FixedWidth() {
		return LiteralView{}, fmt.Errorf("literal type %s is not fixed-width", lit.Type)
	}

	var bits uint64
	switch v := lit.Value.(type) {
	case ast.BoolValue:
		if v {
			bits = 1
		}
	case ast.IntValue:
		bits = uint64(int64(v))
	case ast.UintValue:
		bits = uint64(v)
	case ast.FloatValue:
		bits = math.Float64bits(float64(v))
	case ast.TimestampValue:
		bits = uint64(int64(v))
	default:
		return LiteralView{}, fmt.Errorf("unhandled literal value %T", lit.Value)
	}

	payload, err := alloc.Allocate(payloadSize)
	if err != nil {
		return LiteralView{}, fmt.Errorf("allocating literal payload: %w", err)
	}
	binary.LittleEndian.PutUint64(payload, bits)
	return LiteralView{dt: lit.Type, payload: payload}, nil
}

// Type returns the literal's declared type.
func (v LiteralView) Type() types.DataType {
	return v.dt
}

// Bits returns the raw 8-byte payload as a uint64.
func (v LiteralView) Bits() uint64 {
	return binary.LittleEndian.Uint64(v.payload)
}

// Bool reads the payload as a boolean.
func (v LiteralView) Bool() bool {
	return v.Bits() != 0
}

// Int64 reads the payload as a signed integer.
func (v LiteralView) Int64() int64 {
	return int64(v.Bits())
}

// Uint64 reads the payload as an unsigned integer.
func (v LiteralView) Uint64() uint64 {
	return v.Bits()
}

// Float64 reads the payload as a float.
func (v LiteralView) Float64() float64 {
	return math.Float64frombits(v.Bits())
}

// String renders the view for diagnostics, e.g. "int32(5)".
func (v LiteralView) String() string {
	switch {
	case v.dt.Kind == types.KindBool:
		return fmt.Sprintf("%s(%t)", v.dt, v.Bool())
	case v.dt.IsSigned() || v.dt.Kind == types.KindTimestamp:
		return fmt.Sprintf("%s(%d)", v.dt, v.Int64())
	case v.dt.IsUnsigned():
		return fmt.Sprintf("%s(%d)", v.dt, v.Uint64())
	case v.dt.IsFloat():
		return fmt.Sprintf("%s(%g)", v.dt, v.Float64())
	default:
		return fmt.Sprintf("%s(0x%016x)", v.dt, v.Bits())
	}
}
