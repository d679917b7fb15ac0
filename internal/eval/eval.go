package eval

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/exprc/internal/ast"
	"github.com/roach88/exprc/internal/catalog"
	"github.com/roach88/exprc/internal/linearize"
	"github.com/roach88/exprc/internal/types"
)

// Session evaluates compiled programs. Each session carries a plan id that
// tags its diagnostics, so interleaved evaluations in logs and CLI output
// stay attributable.
type Session struct {
	planID string
	cat    catalog.Catalog
}

// NewSession creates an evaluation session consulting the given catalog
// for operator arities. The catalog must be the one the program was
// compiled against.
func NewSession(cat catalog.Catalog) (*Session, error) {
	if cat == nil {
		return nil, fmt.Errorf("nil operator catalog")
	}
	return &Session{
		// UUIDv7 ids sort by creation time, which keeps log output of
		// successive runs in order.
		planID: uuid.Must(uuid.NewV7()).String(),
		cat:    cat,
	}, nil
}

// PlanID returns the session's plan id.
func (s *Session) PlanID() string {
	return s.planID
}

// EvaluateTable replays a program compiled against a single table.
func (s *Session) EvaluateTable(p *linearize.Program, table *Table) (*Column, error) {
	return s.Evaluate(p, table, table)
}

// Evaluate replays the program once per row and returns the root value
// column. Left and right tables must be row-aligned.
func (s *Session) Evaluate(p *linearize.Program, left, right *Table) (*Column, error) {
	if p == nil {
		return nil, s.errorf("nil program")
	}
	if left == nil || right == nil {
		return nil, s.errorf("nil input table")
	}
	if left.NumRows() != right.NumRows() {
		return nil, s.errorf("left table has %d rows, right has %d; tables must be row-aligned",
			left.NumRows(), right.NumRows())
	}

	plan, err := s.prepare(p, left, right)
	if err != nil {
		return nil, err
	}

	out := &Column{dt: p.RootType()}
	temps := make([]cell, p.PeakIntermediateCount())
	refs := p.DataReferences()
	rootRef := refs[len(refs)-1]

	for row := 0; row < left.NumRows(); row++ {
		for i := range temps {
			temps[i] = cell{}
		}
		for k, step := range plan {
			operands := make([]cell, len(step.sources))
			for i, srcIndex := range step.sources {
				c, err := s.resolve(refs[srcIndex], row, left, right, p, temps)
				if err != nil {
					return nil, err
				}
				operands[i] = c
			}

			var result cell
			if len(operands) == 1 {
				result, err = applyUnary(step.op, step.resultType, operands[0])
			} else {
				result, err = applyBinary(step.op, step.resultType, operands[0], operands[1])
			}
			if err != nil {
				return nil, s.errorf("row %d, operator %d (%s): %v", row, k, step.op, err)
			}
			temps[step.destSlot] = result
		}

		rootCell, err := s.resolve(rootRef, row, left, right, p, temps)
		if err != nil {
			return nil, err
		}
		out.appendCell(rootCell)
	}
	return out, nil
}

// step is one decoded instruction: an operator, its operand reference
// indices, its destination slot, and its recorded result type.
type step struct {
	op         ast.Operator
	sources    []int
	destSlot   int
	resultType types.DataType
}

// prepare decodes the program's parallel arrays into per-operator steps
// and validates that every intermediate reference fits the temp buffer
// the program's peak count sizes.
func (s *Session) prepare(p *linearize.Program, left, right *Table) ([]step, error) {
	refs := p.DataReferences()
	if len(refs) == 0 {
		return nil, s.errorf("empty program")
	}

	// Validate every reference up front; replay then indexes freely.
	for i, ref := range refs {
		switch ref.Kind {
		case linearize.Column:
			table := left
			if ref.Side == ast.Right {
				table = right
			}
			if ref.Index < 0 || ref.Index >= table.Schema().NumColumns() {
				return nil, s.errorf("reference %d: column %d out of range", i, ref.Index)
			}
			// A program compiled against one schema must not replay over
			// another: width or signedness drift would corrupt cells
			// silently instead of failing here.
			if dt := table.Column(ref.Index).Type(); dt != ref.Type {
				return nil, s.errorf("reference %d: column %d is %s, program expects %s",
					i, ref.Index, dt, ref.Type)
			}
		case linearize.LiteralRef:
			if ref.Index < 0 || ref.Index >= len(p.Literals()) {
				return nil, s.errorf("reference %d: literal %d out of range", i, ref.Index)
			}
		case linearize.Intermediate:
			if ref.Index < 0 || ref.Index >= p.PeakIntermediateCount() {
				return nil, s.errorf("reference %d: slot %d outside temp buffer of %d",
					i, ref.Index, p.PeakIntermediateCount())
			}
		}
	}

	// The k-th intermediate reference, in order, is the k-th operator's
	// destination: both follow strict post-order completion.
	var destSlots []int
	var destTypes []types.DataType
	for _, ref := range refs {
		if ref.Kind == linearize.Intermediate {
			destSlots = append(destSlots, ref.Index)
			destTypes = append(destTypes, ref.Type)
		}
	}
	ops := p.Operators()
	if len(destSlots) != len(ops) {
		return nil, s.errorf("program has %d operators but %d intermediate references",
			len(ops), len(destSlots))
	}

	sources := p.OperatorSourceIndices()
	steps := make([]step, len(ops))
	offset := 0
	for k, op := range ops {
		arity, ok := s.cat.Arity(op)
		if !ok {
			return nil, s.errorf("operator %d (%s) is not in the catalog", k, op)
		}
		if offset+arity > len(sources) {
			return nil, s.errorf("operator %d (%s): source index run is truncated", k, op)
		}
		run := sources[offset : offset+arity]
		for _, srcIndex := range run {
			if srcIndex < 0 || srcIndex >= len(refs) {
				return nil, s.errorf("operator %d (%s): source index %d out of range", k, op, srcIndex)
			}
		}
		steps[k] = step{op: op, sources: run, destSlot: destSlots[k], resultType: destTypes[k]}
		offset += arity
	}
	if offset != len(sources) {
		return nil, s.errorf("program has %d trailing operand indices", len(sources)-offset)
	}
	return steps, nil
}

// resolve reads the value a data reference names for the given row.
func (s *Session) resolve(ref linearize.DataReference, row int, left, right *Table,
	p *linearize.Program, temps []cell) (cell, error) {
	switch ref.Kind {
	case linearize.Column:
		table := left
		if ref.Side == ast.Right {
			table = right
		}
		return table.Column(ref.Index).cellAt(row), nil
	case linearize.LiteralRef:
		view := p.Literals()[ref.Index]
		return cell{dt: view.Type(), bits: view.Bits()}, nil
	case linearize.Intermediate:
		return temps[ref.Index], nil
	default:
		return cell{}, s.errorf("unknown reference kind %s", ref.Kind)
	}
}

func (s *Session) errorf(format string, args ...any) error {
	return fmt.Errorf("plan %s: %s", s.planID, fmt.Sprintf(format, args...))
}
