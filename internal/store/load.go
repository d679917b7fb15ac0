package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/exprc/internal/eval"
	"github.com/roach88/exprc/internal/schema"
	"github.com/roach88/exprc/internal/types"
)

// identPattern restricts table names to plain identifiers. Identifiers
// cannot be parameterized in SQL, so anything else is rejected rather than
// interpolated.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// LoadTable reflects a table's declared column types and reads all of its
// rows into an in-memory table. Rows are read in rowid order so repeated
// loads are deterministic. NULL cells are rejected: the expression core
// has no null semantics.
func (s *Store) LoadTable(ctx context.Context, name string) (*eval.Table, error) {
	if !identPattern.MatchString(name) {
		return nil, fmt.Errorf("invalid table name %q", name)
	}

	cols, err := s.reflectColumns(ctx, name)
	if err != nil {
		return nil, err
	}

	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = `"` + col.name + `"`
	}
	query := fmt.Sprintf(`SELECT %s FROM "%s" ORDER BY rowid`,
		strings.Join(quoted, ", "), name)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query table %s: %w", name, err)
	}
	defer rows.Close()

	builders := make([]*columnBuilder, len(cols))
	for i, col := range cols {
		builders[i] = &columnBuilder{name: col.name, dt: col.dt}
	}

	for rowNum := 0; rows.Next(); rowNum++ {
		dest := make([]any, len(builders))
		for i, b := range builders {
			dest[i] = b.scanTarget()
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan table %s row %d: %w", name, rowNum, err)
		}
		for _, b := range builders {
			if err := b.commit(); err != nil {
				return nil, fmt.Errorf("table %s row %d: %w", name, rowNum, err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table %s: %w", name, err)
	}

	columns := make([]*eval.Column, len(builders))
	schemaCols := make([]schema.Column, len(builders))
	for i, b := range builders {
		col, err := b.build()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		columns[i] = col
		schemaCols[i] = schema.Column{Name: b.name, Type: b.dt}
	}
	tableSchema, err := schema.NewTable(schemaCols...)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", name, err)
	}
	return eval.NewTableWithSchema(tableSchema, columns...)
}

type reflectedColumn struct {
	name string
	dt   types.DataType
}

// reflectColumns maps a table's declared SQLite column types to the
// module's type model.
func (s *Store) reflectColumns(ctx context.Context, name string) ([]reflectedColumn, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info("%s")`, name))
	if err != nil {
		return nil, fmt.Errorf("reflect table %s: %w", name, err)
	}
	defer rows.Close()

	var cols []reflectedColumn
	for rows.Next() {
		var (
			cid     int
			colName string
			decl    string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &colName, &decl, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("reflect table %s: %w", name, err)
		}
		dt, err := mapDeclaredType(decl)
		if err != nil {
			return nil, fmt.Errorf("table %s column %s: %w", name, colName, err)
		}
		cols = append(cols, reflectedColumn{name: colName, dt: dt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reflect table %s: %w", name, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s does not exist or has no columns", name)
	}
	return cols, nil
}

// mapDeclaredType resolves a SQLite declared column type to a DataType,
// following SQLite's own affinity keyword rules.
func mapDeclaredType(decl string) (types.DataType, error) {
	upper := strings.ToUpper(decl)
	switch {
	case strings.Contains(upper, "BOOL"):
		return types.Bool, nil
	case strings.Contains(upper, "TIMESTAMP"), strings.Contains(upper, "DATETIME"):
		return types.Timestamp, nil
	case strings.Contains(upper, "INT"):
		return types.Int64, nil
	case strings.Contains(upper, "REAL"),
		strings.Contains(upper, "FLOA"),
		strings.Contains(upper, "DOUB"):
		return types.Float64, nil
	case strings.Contains(upper, "CHAR"),
		strings.Contains(upper, "TEXT"),
		strings.Contains(upper, "CLOB"):
		return types.String, nil
	default:
		return types.DataType{}, fmt.Errorf("unsupported declared type %q", decl)
	}
}

// columnBuilder accumulates one column's cells across scanned rows.
type columnBuilder struct {
	name string
	dt   types.DataType

	ints    []int64
	uints   []uint64
	floats  []float64
	bools   []bool
	strs    []string
	nullInt sql.NullInt64
	nullFlt sql.NullFloat64
	nullStr sql.NullString
	nullBit sql.NullBool
	nullTim sql.NullTime
}

func (b *columnBuilder) scanTarget() any {
	switch {
	case b.dt.Kind == types.KindBool:
		return &b.nullBit
	case b.dt.Kind == types.KindTimestamp:
		// The sqlite3 driver surfaces TIMESTAMP/DATETIME columns as
		// time.Time values.
		return &b.nullTim
	case b.dt.IsFloat():
		return &b.nullFlt
	case b.dt.Kind == types.KindString:
		return &b.nullStr
	default:
		return &b.nullInt
	}
}

func (b *columnBuilder) commit() error {
	switch {
	case b.dt.Kind == types.KindBool:
		if !b.nullBit.Valid {
			return b.nullError()
		}
		b.bools = append(b.bools, b.nullBit.Bool)
	case b.dt.Kind == types.KindTimestamp:
		if !b.nullTim.Valid {
			return b.nullError()
		}
		b.ints = append(b.ints, b.nullTim.Time.UnixMicro())
	case b.dt.IsFloat():
		if !b.nullFlt.Valid {
			return b.nullError()
		}
		b.floats = append(b.floats, b.nullFlt.Float64)
	case b.dt.Kind == types.KindString:
		if !b.nullStr.Valid {
			return b.nullError()
		}
		b.strs = append(b.strs, b.nullStr.String)
	default:
		if !b.nullInt.Valid {
			return b.nullError()
		}
		b.ints = append(b.ints, b.nullInt.Int64)
	}
	return nil
}

func (b *columnBuilder) nullError() error {
	return fmt.Errorf("column %s contains NULL; null values are not supported", b.name)
}

func (b *columnBuilder) build() (*eval.Column, error) {
	switch {
	case b.dt.Kind == types.KindBool:
		return eval.NewBoolColumn(b.bools), nil
	case b.dt.IsFloat():
		return eval.NewFloat64Column(b.dt, b.floats)
	case b.dt.Kind == types.KindString:
		return eval.NewStringColumn(b.strs), nil
	default:
		return eval.NewInt64Column(b.dt, b.ints)
	}
}
