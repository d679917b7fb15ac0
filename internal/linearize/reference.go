package linearize

import (
	"fmt"

	"github.com/roach88/exprc/internal/ast"
	"github.com/roach88/exprc/internal/types"
)

// ReferenceKind identifies where a data reference's value comes from.
type ReferenceKind uint8

const (
	// Column reads a cell from an input table column.
	Column ReferenceKind = iota
	// LiteralRef reads a staged literal from the program's literals array.
	LiteralRef
	// Intermediate reads a temporary slot written earlier in the same
	// row's replay. Intermediate references are generated only by
	// linearization, never by a front end.
	Intermediate
)

// String returns "column", "literal", or "intermediate".
func (k ReferenceKind) String() string {
	switch k {
	case Column:
		return "column"
	case LiteralRef:
		return "literal"
	case Intermediate:
		return "intermediate"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// DataReference describes one value's origin for the evaluator: a column
// cell, a staged literal, or an intermediate slot. Index is a column index,
// an index into the literals array, or a slot id respectively; Side is
// meaningful only for Column references.
//
// DataReference is immutable once appended to a program.
type DataReference struct {
	Kind  ReferenceKind
	Type  types.DataType
	Index int
	Side  ast.TableSide
}

// Equal compares references by (Index, Kind, Side) only. Type is
// deliberately excluded: two references to the same storage location are
// the same reference even if recorded with different types, and consumers
// must not rely on type in identity checks.
func (r DataReference) Equal(other DataReference) bool {
	return r.Index == other.Index && r.Kind == other.Kind && r.Side == other.Side
}

// String renders the reference for diagnostics and program dumps.
func (r DataReference) String() string {
	switch r.Kind {
	case Column:
		return fmt.Sprintf("column(%s[%d]):%s", r.Side, r.Index, r.Type)
	case LiteralRef:
		return fmt.Sprintf("literal(%d):%s", r.Index, r.Type)
	case Intermediate:
		return fmt.Sprintf("intermediate(%d):%s", r.Index, r.Type)
	default:
		return fmt.Sprintf("%s(%d):%s", r.Kind, r.Index, r.Type)
	}
}
