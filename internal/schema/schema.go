// Package schema describes the column layout of an input table. The
// linearizer consults a table only to resolve column types by index; row
// counts and cell data are irrelevant to compilation and live elsewhere.
package schema

import (
	"fmt"

	"github.com/roach88/exprc/internal/types"
)

// Column is one column's declared name and type. The name is optional and
// used only for diagnostics; column references address columns by index.
type Column struct {
	Name string         `json:"name,omitempty"`
	Type types.DataType `json:"type"`
}

// Table is an ordered set of typed columns.
type Table struct {
	columns []Column
}

// NewTable builds a table schema from ordered columns. Every column type
// must be valid.
func NewTable(columns ...Column) (*Table, error) {
	for i, col := range columns {
		if !col.Type.Valid() {
			return nil, fmt.Errorf("column %d has invalid type", i)
		}
	}
	return &Table{columns: columns}, nil
}

// NewTableOfTypes builds a table schema from ordered column types with no
// names. Convenience for tests and embedders that address by index only.
func NewTableOfTypes(dts ...types.DataType) (*Table, error) {
	columns := make([]Column, len(dts))
	for i, dt := range dts {
		columns[i] = Column{Type: dt}
	}
	return NewTable(columns...)
}

// NumColumns returns the column count.
func (t *Table) NumColumns() int {
	return len(t.columns)
}

// ColumnType resolves a column's type by index. The boolean is false when
// the index is outside the table.
func (t *Table) ColumnType(i int) (types.DataType, bool) {
	if i < 0 || i >= len(t.columns) {
		return types.DataType{}, false
	}
	return t.columns[i].Type, true
}

// ColumnName returns the column's declared name, or "" for unnamed columns
// and out-of-range indices.
func (t *Table) ColumnName(i int) string {
	if i < 0 || i >= len(t.columns) {
		return ""
	}
	return t.columns[i].Name
}

// Columns returns a copy of the ordered column descriptors.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}
