package cli

import (
	"fmt"

	"github.com/roach88/exprc/internal/device"
	"github.com/roach88/exprc/internal/linearize"
	"github.com/roach88/exprc/internal/types"
)

// ProgramDump is the serializable form of a linearized program, used for
// the compile command's output and for golden snapshots.
type ProgramDump struct {
	DataReferences        []ReferenceDump `json:"data_references"`
	Operators             []string        `json:"operators"`
	OperatorSourceIndices []int           `json:"operator_source_indices"`
	Literals              []LiteralDump   `json:"literals"`
	RootType              string          `json:"root_type"`
	PeakIntermediateCount int             `json:"peak_intermediate_count"`
	Fingerprint           string          `json:"fingerprint"`
}

// ReferenceDump is one data reference in dump form.
type ReferenceDump struct {
	Kind  string `json:"kind"`
	Type  string `json:"type"`
	Index int    `json:"index"`
	Side  string `json:"side,omitempty"`
}

// LiteralDump is one staged literal in dump form. Bits is the 8-byte host
// payload as a hex string so floating-point literals dump exactly.
type LiteralDump struct {
	Type  string `json:"type"`
	Bits  string `json:"bits"`
	Value any    `json:"value"`
}

// DumpProgram converts a program to its serializable form.
func DumpProgram(p *linearize.Program) *ProgramDump {
	refs := p.DataReferences()
	ops := p.Operators()

	dump := &ProgramDump{
		DataReferences:        make([]ReferenceDump, len(refs)),
		Operators:             make([]string, len(ops)),
		OperatorSourceIndices: p.OperatorSourceIndices(),
		Literals:              make([]LiteralDump, len(p.Literals())),
		RootType:              p.RootType().String(),
		PeakIntermediateCount: p.PeakIntermediateCount(),
		Fingerprint:           p.Fingerprint(),
	}
	for i, ref := range refs {
		rd := ReferenceDump{
			Kind:  ref.Kind.String(),
			Type:  ref.Type.String(),
			Index: ref.Index,
		}
		if ref.Kind == linearize.Column {
			rd.Side = ref.Side.String()
		}
		dump.DataReferences[i] = rd
	}
	for i, op := range ops {
		dump.Operators[i] = op.String()
	}
	for i, lit := range p.Literals() {
		dump.Literals[i] = LiteralDump{
			Type:  lit.Type().String(),
			Bits:  fmt.Sprintf("0x%016x", lit.Bits()),
			Value: literalValue(lit),
		}
	}
	return dump
}

func literalValue(lit device.LiteralView) any {
	dt := lit.Type()
	switch {
	case dt.Kind == types.KindBool:
		return lit.Bool()
	case dt.IsSigned(), dt.Kind == types.KindTimestamp:
		return lit.Int64()
	case dt.IsUnsigned():
		return lit.Uint64()
	case dt.IsFloat():
		return lit.Float64()
	default:
		return lit.String()
	}
}
