package types

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the element type of a column, literal, or intermediate
// result.
type Kind uint8

const (
	// KindInvalid is the zero Kind. It never appears in a valid program.
	KindInvalid Kind = iota
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindTimestamp
)

// kindNames maps each Kind to its canonical lowercase name. The names
// double as the type vocabulary of CUE expression specs and JSON output.
var kindNames = map[Kind]string{
	KindInvalid:   "invalid",
	KindBool:      "bool",
	KindInt8:      "int8",
	KindInt16:     "int16",
	KindInt32:     "int32",
	KindInt64:     "int64",
	KindUint8:     "uint8",
	KindUint16:    "uint16",
	KindUint32:    "uint32",
	KindUint64:    "uint64",
	KindFloat32:   "float32",
	KindFloat64:   "float64",
	KindString:    "string",
	KindTimestamp: "timestamp",
}

// kindByName is the inverse of kindNames, excluding "invalid".
var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		if k != KindInvalid {
			m[name] = k
		}
	}
	return m
}()

// String returns the canonical lowercase name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// DataType is an immutable descriptor of an element type.
//
// It is a single-field struct rather than a bare Kind so that width or
// scale parameters (decimal precision, timestamp resolution) can be added
// without changing every signature in the module.
type DataType struct {
	Kind Kind
}

// New returns the DataType for a kind.
func New(k Kind) DataType {
	return DataType{Kind: k}
}

// ParseDataType resolves a canonical type name ("int32", "float64", ...)
// to its DataType. Used by the CUE front end and the SQLite table provider.
func ParseDataType(name string) (DataType, error) {
	k, ok := kindByName[name]
	if !ok {
		return DataType{}, fmt.Errorf("unknown data type %q", name)
	}
	return DataType{Kind: k}, nil
}

// String returns the canonical name of the type.
func (t DataType) String() string {
	return t.Kind.String()
}

// MarshalJSON encodes the type as its canonical name.
func (t DataType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Kind.String())
}

// UnmarshalJSON decodes a canonical type name.
func (t *DataType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseDataType(name)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Valid reports whether the type has a known, non-invalid kind.
func (t DataType) Valid() bool {
	_, ok := kindNames[t.Kind]
	return ok && t.Kind != KindInvalid
}

// Width returns the fixed storage width of the type in bytes, or 0 for
// variable-width kinds (String).
func (t DataType) Width() int {
	switch t.Kind {
	case KindBool, KindInt8, KindUint8:
		return 1
	case KindInt16, KindUint16:
		return 2
	case KindInt32, KindUint32, KindFloat32:
		return 4
	case KindInt64, KindUint64, KindFloat64, KindTimestamp:
		return 8
	default:
		return 0
	}
}

// FixedWidth reports whether values of this type fit in a fixed number of
// bytes. Only fixed-width types may be stored in intermediate slots or
// literal device views.
func (t DataType) FixedWidth() bool {
	return t.Width() > 0
}

// IsNumeric reports whether the type participates in arithmetic promotion.
func (t DataType) IsNumeric() bool {
	switch t.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64,
		KindFloat32, KindFloat64:
		return true
	default:
		return false
	}
}

// IsInteger reports whether the type is a signed or unsigned integer.
func (t DataType) IsInteger() bool {
	switch t.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	default:
		return false
	}
}

// IsSigned reports whether the type is a signed integer.
func (t DataType) IsSigned() bool {
	switch t.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	default:
		return false
	}
}

// IsUnsigned reports whether the type is an unsigned integer.
func (t DataType) IsUnsigned() bool {
	switch t.Kind {
	case KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether the type is a floating-point type.
func (t DataType) IsFloat() bool {
	return t.Kind == KindFloat32 || t.Kind == KindFloat64
}

// IsComparable reports whether values of this type support ordering
// comparisons (Less, Greater, ...). Everything but Bool orders; Bool only
// supports equality.
func (t DataType) IsComparable() bool {
	return t.Valid() && t.Kind != KindBool
}

// Convenience constructors for the kinds used throughout the module.
var (
	Bool      = New(KindBool)
	Int8      = New(KindInt8)
	Int16     = New(KindInt16)
	Int32     = New(KindInt32)
	Int64     = New(KindInt64)
	Uint8     = New(KindUint8)
	Uint16    = New(KindUint16)
	Uint32    = New(KindUint32)
	Uint64    = New(KindUint64)
	Float32   = New(KindFloat32)
	Float64   = New(KindFloat64)
	String    = New(KindString)
	Timestamp = New(KindTimestamp)
)
