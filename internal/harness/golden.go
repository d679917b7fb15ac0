package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot is the deterministic, serializable record of a scenario run.
// It deliberately omits the program fingerprint and plan ID: fingerprints
// are covered by their own tests and plan IDs are fresh per session.
type Snapshot struct {
	ScenarioName string          `json:"scenario_name"`
	Program      ProgramSnapshot `json:"program"`
	Result       ResultSnapshot  `json:"result"`
}

// ProgramSnapshot is the compiled program in snapshot form.
type ProgramSnapshot struct {
	DataReferences        []string `json:"data_references"`
	Operators             []string `json:"operators"`
	OperatorSourceIndices []int    `json:"operator_source_indices"`
	Literals              []string `json:"literals"`
	RootType              string   `json:"root_type"`
	PeakIntermediateCount int      `json:"peak_intermediate_count"`
}

// ResultSnapshot is the evaluation output in snapshot form.
type ResultSnapshot struct {
	Type   string `json:"type"`
	Values []any  `json:"values"`
}

// BuildSnapshot converts a scenario result to its snapshot form.
func BuildSnapshot(name string, result *Result) *Snapshot {
	p := result.Program

	refs := make([]string, len(p.DataReferences()))
	for i, ref := range p.DataReferences() {
		refs[i] = ref.String()
	}
	ops := make([]string, len(p.Operators()))
	for i, op := range p.Operators() {
		ops[i] = op.String()
	}
	lits := make([]string, len(p.Literals()))
	for i, lit := range p.Literals() {
		lits[i] = fmt.Sprintf("0x%016x:%s", lit.Bits(), lit.Type())
	}
	srcs := p.OperatorSourceIndices()
	if srcs == nil {
		srcs = []int{}
	}

	values := make([]any, result.Output.Len())
	for i := range values {
		values[i] = result.Output.ValueAt(i)
	}

	return &Snapshot{
		ScenarioName: name,
		Program: ProgramSnapshot{
			DataReferences:        refs,
			Operators:             ops,
			OperatorSourceIndices: srcs,
			Literals:              lits,
			RootType:              p.RootType().String(),
			PeakIntermediateCount: p.PeakIntermediateCount(),
		},
		Result: ResultSnapshot{
			Type:   result.Output.Type().String(),
			Values: values,
		},
	}
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}

	snapshot := BuildSnapshot(scenario.Name, result)
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return nil
}
