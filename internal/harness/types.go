package harness

import (
	"github.com/roach88/cropq/internal/engine"
	"github.com/roach88/cropq/internal/geom"
)

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all expect clauses match.
	Pass bool `json:"pass"`

	// Points is the query result in (y, x) order. Nil if the query failed.
	Points []geom.Point `json:"points"`

	// ErrorCode is the code of the parse, validation or evaluation error.
	ErrorCode string `json:"error_code,omitempty"`

	// Warnings are the validation warning codes, in document order.
	Warnings []string `json:"warnings"`

	// Stats are the engine statistics. Zero if the query failed.
	Stats engine.Stats `json:"stats"`

	// PointQueries and GroupCountQueries are the store calls observed.
	PointQueries      int `json:"point_queries"`
	GroupCountQueries int `json:"group_count_queries"`

	// Errors contains expectation mismatch messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Warnings: []string{},
		Errors:   []string{},
	}
}

// AddError adds a mismatch message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
