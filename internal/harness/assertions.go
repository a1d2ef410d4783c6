package harness

import (
	"fmt"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/cropq/internal/geom"
)

// CheckExpectations compares a scenario outcome against its expect clause
// and returns one message per mismatch. Empty means the scenario passed.
func CheckExpectations(expect Expectation, result *Result) []string {
	var errs []string

	if expect.Error != "" {
		if result.ErrorCode != expect.Error {
			errs = append(errs, fmt.Sprintf("error: expected %s, got %s", expect.Error, describeOutcome(result)))
		}
	} else if result.ErrorCode != "" {
		errs = append(errs, fmt.Sprintf("error: expected success, got %s", result.ErrorCode))
	}

	if expect.Points != nil && result.ErrorCode == "" {
		want := make([]geom.Point, len(expect.Points))
		for i, p := range expect.Points {
			want[i] = geom.Point{X: p.X, Y: p.Y}
		}
		if diff := cmp.Diff(want, result.Points, cmpopts.EquateEmpty()); diff != "" {
			errs = append(errs, fmt.Sprintf("points mismatch (-want +got):\n%s", diff))
		}
	}

	if expect.Warnings != nil {
		if diff := cmp.Diff(expect.Warnings, result.Warnings, cmpopts.EquateEmpty()); diff != "" {
			errs = append(errs, fmt.Sprintf("warnings mismatch (-want +got):\n%s", diff))
		}
	}

	if q := expect.PointQueries; q != nil && *q != result.PointQueries {
		errs = append(errs, fmt.Sprintf("point_queries: expected %d, got %d", *q, result.PointQueries))
	}
	if q := expect.GroupCountQueries; q != nil && *q != result.GroupCountQueries {
		errs = append(errs, fmt.Sprintf("group_count_queries: expected %d, got %d", *q, result.GroupCountQueries))
	}

	return errs
}

func describeOutcome(result *Result) string {
	if result.ErrorCode != "" {
		return result.ErrorCode
	}
	points := make([]string, len(result.Points))
	for i, p := range result.Points {
		points[i] = p.String()
	}
	return "success [" + strings.Join(points, " ") + "]"
}
