package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: lower_left
description: "crop of the lower-left box"
dataset:
  points:
    - {x: 1, y: 1, category: 1, group: 1}
    - {x: 8, y: 8, category: 1, group: 1}
query:
  valid_region: {p_min: {x: 0, y: 0}, p_max: {x: 10, y: 10}}
  query:
    operator_crop:
      region: {p_min: {x: 0, y: 0}, p_max: {x: 5, y: 5}}
expect:
  points:
    - {x: 1, y: 1}
`

const failingScenario = `
name: wrong_expectation
description: "expects a point the query cannot return"
dataset:
  points:
    - {x: 1, y: 1, category: 1, group: 1}
query:
  valid_region: {p_min: {x: 0, y: 0}, p_max: {x: 10, y: 10}}
  query:
    operator_crop:
      region: {p_min: {x: 5, y: 5}, p_max: {x: 6, y: 6}}
expect:
  points:
    - {x: 1, y: 1}
`

func TestTestCommand_AllPass(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lower_left.yaml", passingScenario)

	stdout, _, err := executeCommand(t, "test", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ lower_left")
	assert.Contains(t, stdout, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, stdout, "✓ All scenarios passed")
}

func TestTestCommand_Failure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lower_left.yaml", passingScenario)
	writeFile(t, dir, "wrong_expectation.yaml", failingScenario)

	stdout, _, err := executeCommand(t, "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
		Error  *CLIError  `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Passed)
	assert.Equal(t, 1, resp.Data.Failed)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeTestFailed, resp.Error.Code)
	require.Len(t, resp.Data.Scenarios, 2)
	assert.Equal(t, "wrong_expectation", resp.Data.Scenarios[1].Name)
	assert.Contains(t, resp.Data.Scenarios[1].Errors[0], "points mismatch")
}

func TestTestCommand_Filter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lower_left.yaml", passingScenario)
	writeFile(t, dir, "wrong_expectation.yaml", failingScenario)

	stdout, _, err := executeCommand(t, "test", dir, "--filter", "lower_*")
	require.NoError(t, err)
	assert.Contains(t, stdout, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_Golden(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lower_left.yaml", passingScenario)
	goldenPath := filepath.Join(dir, "golden", "lower_left.golden")

	_, _, err := executeCommand(t, "test", dir, "--update")
	require.NoError(t, err)
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t, "1.000000 1.000000\n", string(data))

	_, _, err = executeCommand(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("2.000000 2.000000\n"), 0o644))
	stdout, _, err := executeCommand(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "result does not match golden file")
}

func TestTestCommand_Errors(t *testing.T) {
	_, _, err := executeCommand(t, "test", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	dir := t.TempDir()
	writeFile(t, dir, "broken.yaml", "name: broken\nunknown_key: 1\n")
	stdout, _, err := executeCommand(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, stdout, "✗ broken.yaml")
	assert.Contains(t, stdout, "failed to load scenario")
}

func TestTestCommand_Empty(t *testing.T) {
	stdout, _, err := executeCommand(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", stdout)
}
