package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpec = `
tables: left: columns: [
	{name: "price", type: "int64"},
	{name: "qty", type: "int64"},
]
expression: {
	op: "mul"
	args: [
		{op: "add", args: [{column: 0}, {column: 1}]},
		{literal: 2, type: "int64"},
	]
}
`

// execCommand runs the CLI with args and returns stdout, stderr, and the
// command error.
func execCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSpec(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "spec.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))
	return path
}

func TestCompileCommandText(t *testing.T) {
	path := writeSpec(t, testSpec)
	stdout, _, err := execCommand(t, "compile", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Compiled: 2 operator(s)")
	assert.Contains(t, stdout, "Root type:          int64")
	assert.Contains(t, stdout, "Peak intermediates: 1")
	assert.Contains(t, stdout, "Fingerprint:")
}

func TestCompileCommandJSON(t *testing.T) {
	path := writeSpec(t, testSpec)
	stdout, _, err := execCommand(t, "--format", "json", "compile", path)
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   ProgramDump `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"add", "mul"}, resp.Data.Operators)
	assert.Equal(t, []int{0, 1, 2, 3}, resp.Data.OperatorSourceIndices)
	assert.Equal(t, "int64", resp.Data.RootType)
	assert.Equal(t, 1, resp.Data.PeakIntermediateCount)
	assert.Len(t, resp.Data.Literals, 1)
	assert.Equal(t, "0x0000000000000002", resp.Data.Literals[0].Bits)
	assert.NotEmpty(t, resp.Data.Fingerprint)
}

func TestCompileCommandOutputFile(t *testing.T) {
	path := writeSpec(t, testSpec)
	out := filepath.Join(t.TempDir(), "program.json")
	_, _, err := execCommand(t, "compile", path, "--output", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var dump ProgramDump
	require.NoError(t, json.Unmarshal(data, &dump))
	assert.Len(t, dump.DataReferences, 5)
}

func TestCompileCommandBadSpec(t *testing.T) {
	path := writeSpec(t, `expression: {op: "add", args: []}`)
	stdout, _, err := execCommand(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "COMPILE_ERROR")
}

func TestCompileCommandTypeError(t *testing.T) {
	path := writeSpec(t, `
tables: left: columns: [{type: "string"}, {type: "int64"}]
expression: {op: "add", args: [{column: 0}, {column: 1}]}
`)
	stdout, _, err := execCommand(t, "compile", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "UNSUPPORTED_OPERATION")
}

func TestValidateCommand(t *testing.T) {
	path := writeSpec(t, testSpec)
	stdout, _, err := execCommand(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "is valid")
}

func TestValidateCommandInvalidColumn(t *testing.T) {
	path := writeSpec(t, `
tables: left: columns: [{type: "int64"}]
expression: {op: "add", args: [{column: 0}, {column: 7}]}
`)
	stdout, _, err := execCommand(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "OUT_OF_RANGE")
}

func TestInvalidFormatFlag(t *testing.T) {
	path := writeSpec(t, testSpec)
	_, _, err := execCommand(t, "--format", "xml", "compile", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestEvalCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "eval.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE items (price INTEGER NOT NULL, qty INTEGER NOT NULL);
		INSERT INTO items VALUES (10, 2), (5, 1);
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	path := writeSpec(t, testSpec)
	stdout, _, err := execCommand(t, "--format", "json", "eval", path, "--db", dbPath, "--left", "items")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   EvalResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 2, resp.Data.Rows)
	assert.Equal(t, "int64", resp.Data.ResultType)
	// (10+2)*2 and (5+1)*2; JSON round-trips integers as float64.
	assert.Equal(t, []any{float64(24), float64(12)}, resp.Data.Values)
	assert.NotEmpty(t, resp.Data.PlanID)
}

func TestEvalCommandMissingTable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE unused (n INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	path := writeSpec(t, testSpec)
	_, _, err = execCommand(t, "eval", path, "--db", dbPath, "--left", "items")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
