package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cropq/internal/resultfile"
)

// RunWithGolden executes a scenario and compares its output against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the output doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
//
// Successful results are rendered in the result-file format. Failed
// results render as a single "error: CODE" line.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	out, err := Render(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, out)
	return nil
}

// Render returns the golden-file form of a result.
func Render(result *Result) ([]byte, error) {
	if result.ErrorCode != "" {
		return []byte(fmt.Sprintf("error: %s\n", result.ErrorCode)), nil
	}
	var buf bytes.Buffer
	if err := resultfile.Format(&buf, result.Points); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
