package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarioGoldens(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

func TestRunChecksExpectations(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/add_mul.yaml")
	require.NoError(t, err)

	scenario.Expect.Values = []any{999, 12}
	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0")
}

func TestRunRejectsColumnCountMismatch(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/add_mul.yaml")
	require.NoError(t, err)

	scenario.Input.Left = scenario.Input.Left[:1]
	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema declares")
}

func TestRunRejectsMissingRightInput(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/two_table_add.yaml")
	require.NoError(t, err)

	scenario.Input.Right = nil
	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input.right")
}

func TestRunRejectsUnusedRightInput(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/add_mul.yaml")
	require.NoError(t, err)

	scenario.Input.Right = [][]any{{1, 2}}
	_, err = Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares no right table")
}

func writeScenarioFile(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestLoadScenarioValidation(t *testing.T) {
	specDir, err := filepath.Abs("testdata/specs")
	require.NoError(t, err)
	specPath := filepath.Join(specDir, "add_mul.cue")

	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "missing name",
			src:     "description: d\nspec: " + specPath + "\ninput: {left: [[1]]}\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			src:     "name: n\nspec: " + specPath + "\ninput: {left: [[1]]}\n",
			wantErr: "description is required",
		},
		{
			name:    "missing spec",
			src:     "name: n\ndescription: d\ninput: {left: [[1]]}\n",
			wantErr: "spec is required",
		},
		{
			name:    "spec not found",
			src:     "name: n\ndescription: d\nspec: /nonexistent.cue\ninput: {left: [[1]]}\n",
			wantErr: "spec file not found",
		},
		{
			name:    "missing input",
			src:     "name: n\ndescription: d\nspec: " + specPath + "\n",
			wantErr: "input.left is required",
		},
		{
			name:    "ragged columns",
			src:     "name: n\ndescription: d\nspec: " + specPath + "\ninput: {left: [[1, 2], [3]]}\n",
			wantErr: "has 1 values, want 2",
		},
		{
			name:    "unknown field",
			src:     "name: n\ndescription: d\nspec: " + specPath + "\ninput: {left: [[1]]}\nassertion: []\n",
			wantErr: "parsing scenario YAML",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenarioFile(t, tc.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadScenarioResolvesRelativeSpec(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/add_mul.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "specs", "add_mul.cue"), scenario.Spec)
}
