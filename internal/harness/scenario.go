package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: one expression spec,
// inline input columns for its tables, and expectations on the outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It is also the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Spec is the path to the CUE expression spec, relative to the
	// scenario file location.
	Spec string `yaml:"spec"`

	// Input provides the column values for the spec's tables. Left is
	// required; Right only for two-table specs. Each inner slice is one
	// column, in schema order.
	Input InputTables `yaml:"input"`

	// Expect pins program and result properties. All fields optional.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// InputTables holds the inline column data for a scenario.
type InputTables struct {
	Left  [][]any `yaml:"left"`
	Right [][]any `yaml:"right,omitempty"`
}

// ExpectClause specifies expected program and result properties. Only
// set fields are checked.
type ExpectClause struct {
	// Operators is the expected operator sequence, by name.
	Operators []string `yaml:"operators,omitempty"`

	// PeakIntermediates is the expected temporary slot requirement.
	PeakIntermediates *int `yaml:"peak_intermediates,omitempty"`

	// RootType is the expected result type name.
	RootType string `yaml:"root_type,omitempty"`

	// Values are the expected result cells, one per row.
	Values []any `yaml:"values,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. The spec path is
// resolved relative to the scenario file's directory. Unknown YAML
// fields are rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}

	if !filepath.IsAbs(scenario.Spec) && scenario.Spec != "" {
		scenario.Spec = filepath.Join(filepath.Dir(path), scenario.Spec)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Spec == "" {
		return fmt.Errorf("spec is required")
	}
	if _, err := os.Stat(s.Spec); err != nil {
		return fmt.Errorf("spec file not found: %s", s.Spec)
	}
	if len(s.Input.Left) == 0 {
		return fmt.Errorf("input.left is required and must be non-empty")
	}
	rows := len(s.Input.Left[0])
	for i, col := range s.Input.Left {
		if len(col) != rows {
			return fmt.Errorf("input.left[%d] has %d values, want %d", i, len(col), rows)
		}
	}
	for i, col := range s.Input.Right {
		if len(col) != rows {
			return fmt.Errorf("input.right[%d] has %d values, want %d", i, len(col), rows)
		}
	}
	return nil
}
