package eval

import (
	"fmt"
	"math"

	"github.com/roach88/exprc/internal/schema"
	"github.com/roach88/exprc/internal/types"
)

// Column is an in-memory column vector. Fixed-width values are stored
// widened to their 8-byte host representation; string columns store Go
// strings directly.
type Column struct {
	dt   types.DataType
	bits []uint64
	strs []string
}

// NewInt64Column builds a column of a signed integer or timestamp type.
func NewInt64Column(dt types.DataType, values []int64) (*Column, error) {
	if !dt.IsSigned() && dt.Kind != types.KindTimestamp {
		return nil, fmt.Errorf("type %s does not store int64 values", dt)
	}
	bits := make([]uint64, len(values))
	for i, v := range values {
		bits[i] = uint64(v)
	}
	return &Column{dt: dt, bits: bits}, nil
}

// NewUint64Column builds a column of an unsigned integer type.
func NewUint64Column(dt types.DataType, values []uint64) (*Column, error) {
	if !dt.IsUnsigned() {
		return nil, fmt.Errorf("type %s does not store uint64 values", dt)
	}
	bits := make([]uint64, len(values))
	copy(bits, values)
	return &Column{dt: dt, bits: bits}, nil
}

// NewFloat64Column builds a column of a floating-point type.
func NewFloat64Column(dt types.DataType, values []float64) (*Column, error) {
	if !dt.IsFloat() {
		return nil, fmt.Errorf("type %s does not store float64 values", dt)
	}
	bits := make([]uint64, len(values))
	for i, v := range values {
		bits[i] = math.Float64bits(v)
	}
	return &Column{dt: dt, bits: bits}, nil
}

// NewBoolColumn builds a boolean column.
func NewBoolColumn(values []bool) *Column {
	bits := make([]uint64, len(values))
	for i, v := range values {
		if v {
			bits[i] = 1
		}
	}
	return &Column{dt: types.Bool, bits: bits}
}

// NewStringColumn builds a string column.
func NewStringColumn(values []string) *Column {
	strs := make([]string, len(values))
	copy(strs, values)
	return &Column{dt: types.String, strs: strs}
}

// Type returns the column's element type.
func (c *Column) Type() types.DataType {
	return c.dt
}

// Len returns the row count.
func (c *Column) Len() int {
	if c.dt.Kind == types.KindString {
		return len(c.strs)
	}
	return len(c.bits)
}

// cellAt reads row i as a runtime cell.
func (c *Column) cellAt(i int) cell {
	if c.dt.Kind == types.KindString {
		return cell{dt: c.dt, str: c.strs[i]}
	}
	return cell{dt: c.dt, bits: c.bits[i]}
}

// Int64At reads row i of a signed integer or timestamp column.
func (c *Column) Int64At(i int) int64 { return int64(c.bits[i]) }

// Uint64At reads row i of an unsigned integer column.
func (c *Column) Uint64At(i int) uint64 { return c.bits[i] }

// Float64At reads row i of a floating-point column.
func (c *Column) Float64At(i int) float64 { return math.Float64frombits(c.bits[i]) }

// BoolAt reads row i of a boolean column.
func (c *Column) BoolAt(i int) bool { return c.bits[i] != 0 }

// StringAt reads row i of a string column.
func (c *Column) StringAt(i int) string { return c.strs[i] }

// ValueAt renders row i as a Go value for output and assertions.
func (c *Column) ValueAt(i int) any {
	switch {
	case c.dt.Kind == types.KindBool:
		return c.BoolAt(i)
	case c.dt.IsSigned(), c.dt.Kind == types.KindTimestamp:
		return c.Int64At(i)
	case c.dt.IsUnsigned():
		return c.Uint64At(i)
	case c.dt.IsFloat():
		return c.Float64At(i)
	default:
		return c.StringAt(i)
	}
}

func (c *Column) appendCell(v cell) {
	if c.dt.Kind == types.KindString {
		c.strs = append(c.strs, v.str)
		return
	}
	c.bits = append(c.bits, v.bits)
}

// Table pairs a schema with its column data.
type Table struct {
	schema  *schema.Table
	columns []*Column
	rows    int
}

// NewTable builds a table from columns, deriving the schema. All columns
// must have the same length.
func NewTable(columns ...*Column) (*Table, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("table needs at least one column")
	}
	rows := columns[0].Len()
	cols := make([]schema.Column, len(columns))
	for i, c := range columns {
		if c.Len() != rows {
			return nil, fmt.Errorf("column %d has %d rows, want %d", i, c.Len(), rows)
		}
		cols[i] = schema.Column{Type: c.Type()}
	}
	s, err := schema.NewTable(cols...)
	if err != nil {
		return nil, err
	}
	return &Table{schema: s, columns: columns, rows: rows}, nil
}

// NewTableWithSchema builds a table whose columns must match an existing
// schema exactly.
func NewTableWithSchema(s *schema.Table, columns ...*Column) (*Table, error) {
	if s == nil {
		return nil, fmt.Errorf("nil schema")
	}
	if len(columns) != s.NumColumns() {
		return nil, fmt.Errorf("schema has %d columns, got %d", s.NumColumns(), len(columns))
	}
	rows := 0
	if len(columns) > 0 {
		rows = columns[0].Len()
	}
	for i, c := range columns {
		dt, _ := s.ColumnType(i)
		if c.Type() != dt {
			return nil, fmt.Errorf("column %d is %s, schema says %s", i, c.Type(), dt)
		}
		if c.Len() != rows {
			return nil, fmt.Errorf("column %d has %d rows, want %d", i, c.Len(), rows)
		}
	}
	return &Table{schema: s, columns: columns, rows: rows}, nil
}

// Schema returns the table's schema.
func (t *Table) Schema() *schema.Table {
	return t.schema
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return t.rows
}

// Column returns the i-th column.
func (t *Table) Column(i int) *Column {
	return t.columns[i]
}
