package queryir

import (
	"fmt"

	"github.com/roach88/cropq/internal/geom"
)

// Warning codes reported by Validate.
const (
	WarnInvertedRegion      = "INVERTED_REGION"
	WarnInvertedValidRegion = "INVERTED_VALID_REGION"
	WarnEmptyAnd            = "EMPTY_AND"
	WarnEmptyOr             = "EMPTY_OR"
	WarnEmptyGroupFilter    = "EMPTY_GROUP_FILTER"
	WarnProperOutsideValid  = "PROPER_OUTSIDE_VALID"
)

// Warning describes one suspicious construct in a document.
type Warning struct {
	Code    string `json:"code"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s (%s)", w.Path, w.Message, w.Code)
}

// ValidationResult contains the warnings found in a document.
type ValidationResult struct {
	// Clean is true when no warnings were found.
	Clean bool `json:"clean"`

	// Warnings in depth-first document order. Empty (not nil) when Clean.
	Warnings []Warning `json:"warnings"`
}

// Validate inspects a document for constructs that are legal but always
// produce an empty (or trivially predictable) result.
//
// Checks:
//  1. Inverted regions (min > max) on crops and on the valid region
//  2. And/Or nodes without children
//  3. one_of_groups present but empty
//  4. proper crops whose region does not touch the valid region
//
// Validate is a pure function with no side effects. Evaluation ignores its
// output; callers decide whether warnings are fatal.
func Validate(doc Document) ValidationResult {
	v := &validator{
		valid:    doc.ValidRegion,
		warnings: []Warning{},
	}

	if doc.ValidRegion.Inverted() {
		v.add(WarnInvertedValidRegion, "valid_region",
			"valid region %s is inverted; only groups without points can be proper", doc.ValidRegion)
	}

	if doc.Query == nil {
		v.add(WarnEmptyOr, "query", "document has no query")
	} else {
		Walk(doc.Query, "query", v.visit)
	}

	return ValidationResult{
		Clean:    len(v.warnings) == 0,
		Warnings: v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	valid    geom.Region
	warnings []Warning
}

func (v *validator) add(code, path, format string, args ...any) {
	v.warnings = append(v.warnings, Warning{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) visit(n Node, path string) {
	switch node := n.(type) {
	case *Crop:
		v.validateCrop(node.Query, path+".operator_crop")
	case *And:
		if len(node.Children) == 0 {
			v.add(WarnEmptyAnd, path, "operator_and without children always yields no points")
		}
	case *Or:
		if len(node.Children) == 0 {
			v.add(WarnEmptyOr, path, "operator_or without children always yields no points")
		}
	}
}

func (v *validator) validateCrop(q CropQuery, path string) {
	if q.Region.Inverted() {
		v.add(WarnInvertedRegion, path+".region", "region %s is inverted and matches no points", q.Region)
	}
	if q.HasGroupFilter() && len(q.OneOfGroups) == 0 {
		v.add(WarnEmptyGroupFilter, path+".one_of_groups", "empty one_of_groups matches no points")
	}
	if q.Proper && !q.Region.Inverted() && !v.valid.Inverted() && !q.Region.Intersects(v.valid) {
		v.add(WarnProperOutsideValid, path,
			"proper crop region %s lies outside valid region %s; proper groups have no points there", q.Region, v.valid)
	}
}

// ErrCodeValidationFailed is the error code for documents rejected in
// strict mode.
const ErrCodeValidationFailed = "VALIDATION_FAILED"

// ValidationError rejects a document whose validation produced warnings.
type ValidationError struct {
	Warnings []Warning
}

func (e *ValidationError) Error() string {
	if len(e.Warnings) == 1 {
		return fmt.Sprintf("%s: %s", ErrCodeValidationFailed, e.Warnings[0])
	}
	return fmt.Sprintf("%s: %d warnings, first: %s", ErrCodeValidationFailed, len(e.Warnings), e.Warnings[0])
}

// Err returns a *ValidationError if the result has warnings, nil otherwise.
func (r ValidationResult) Err() error {
	if r.Clean || len(r.Warnings) == 0 {
		return nil
	}
	return &ValidationError{Warnings: r.Warnings}
}
