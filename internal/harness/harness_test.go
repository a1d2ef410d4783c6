package harness

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cropq/internal/engine"
	"github.com/roach88/cropq/internal/geom"
	"github.com/roach88/cropq/internal/querydoc"
	"github.com/roach88/cropq/internal/queryir"
)

func TestScenarios(t *testing.T) {
	files, err := FindScenarioFiles("testdata/scenarios", "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name, "scenario name must match file name")

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario failed:\n%s", strings.Join(result.Errors, "\n"))

			require.NoError(t, AssertGolden(t, scenario.Name, result))
		})
	}
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/proper_groups.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_ReportsMismatch(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/overlap_and.yaml")
	require.NoError(t, err)

	scenario.Expect.Points = []ExpectedPoint{{X: 3, Y: 3}}
	wrong := 5
	scenario.Expect.PointQueries = &wrong

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "points mismatch")
	assert.Equal(t, "point_queries: expected 5, got 2", result.Errors[1])
}

func TestRun_StatsRecorded(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/proper_resolved_once.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Stats.Crops)
	assert.Equal(t, 2, result.Stats.PointQueries)
	assert.Equal(t, 1, result.Stats.GroupCountQueries)
	assert.Equal(t, 1, result.Stats.ProperGroups)
}

func TestRunContext_Canceled(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/overlap_and.yaml")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = RunContext(ctx, scenario)
	require.Error(t, err, "dataset load must observe the canceled context")
}

func TestErrorCode(t *testing.T) {
	_, parseErr := querydoc.ParseTree(map[string]any{})
	validationErr := queryir.ValidationResult{Warnings: []queryir.Warning{{Code: queryir.WarnEmptyOr}}}.Err()

	assert.Equal(t, "MISSING_FIELD", ErrorCode(parseErr))
	assert.Equal(t, "VALIDATION_FAILED", ErrorCode(validationErr))
	assert.Equal(t, "STORE_UNAVAILABLE", ErrorCode(&engine.EvalError{Code: engine.ErrCodeStoreUnavailable}))
	assert.Equal(t, "UNKNOWN", ErrorCode(errors.New("boom")))
}

func TestCheckExpectations(t *testing.T) {
	one, zero := 1, 0
	tests := []struct {
		name   string
		expect Expectation
		result Result
		want   []string
	}{
		{
			name:   "points match",
			expect: Expectation{Points: []ExpectedPoint{{X: 1, Y: 2}}},
			result: Result{Points: []geom.Point{{X: 1, Y: 2}}},
		},
		{
			name:   "empty expectation matches nil result",
			expect: Expectation{Points: []ExpectedPoint{}},
			result: Result{Points: nil},
		},
		{
			name:   "error expected, success observed",
			expect: Expectation{Error: "UNKNOWN_OPERATOR"},
			result: Result{Points: []geom.Point{{X: 1, Y: 2}}},
			want:   []string{"error: expected UNKNOWN_OPERATOR, got success [1.000000 2.000000]"},
		},
		{
			name:   "success expected, error observed",
			expect: Expectation{Points: []ExpectedPoint{}},
			result: Result{ErrorCode: "CANCELED"},
			want:   []string{"error: expected success, got CANCELED"},
		},
		{
			name:   "wrong error",
			expect: Expectation{Error: "UNKNOWN_OPERATOR"},
			result: Result{ErrorCode: "MALFORMED_DOCUMENT"},
			want:   []string{"error: expected UNKNOWN_OPERATOR, got MALFORMED_DOCUMENT"},
		},
		{
			name:   "counts",
			expect: Expectation{Points: []ExpectedPoint{}, PointQueries: &zero, GroupCountQueries: &one},
			result: Result{PointQueries: 1, GroupCountQueries: 1},
			want:   []string{"point_queries: expected 0, got 1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.result
			assert.Equal(t, tt.want, CheckExpectations(tt.expect, &result))
		})
	}
}

func TestCheckExpectations_Warnings(t *testing.T) {
	result := &Result{Warnings: []string{queryir.WarnEmptyAnd}}

	assert.Empty(t, CheckExpectations(Expectation{Points: []ExpectedPoint{}, Warnings: []string{"EMPTY_AND"}}, result))

	errs := CheckExpectations(Expectation{Points: []ExpectedPoint{}, Warnings: []string{}}, result)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "warnings mismatch")
}

func TestRender(t *testing.T) {
	out, err := Render(&Result{ErrorCode: "CANCELED"})
	require.NoError(t, err)
	assert.Equal(t, "error: CANCELED\n", string(out))

	out, err = Render(&Result{Points: []geom.Point{{X: 0.5, Y: -1}}})
	require.NoError(t, err)
	assert.Equal(t, "0.500000 -1.000000\n", string(out))

	out, err = Render(&Result{})
	require.NoError(t, err)
	assert.Empty(t, out)
}
