package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cropq/internal/querydoc"
	"github.com/roach88/cropq/internal/queryir"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Strict bool
}

// ValidationReport holds validation results.
type ValidationReport struct {
	File        string            `json:"file"`
	Fingerprint string            `json:"fingerprint"`
	Clean       bool              `json:"clean"`
	Crops       int               `json:"crops"`
	Query       string            `json:"query"`
	Warnings    []queryir.Warning `json:"warnings"`
}

func (r ValidationReport) String() string {
	var b strings.Builder
	if r.Clean {
		fmt.Fprintf(&b, "✓ %s is valid (%d crops)", r.File, r.Crops)
		return b.String()
	}
	fmt.Fprintf(&b, "⚠ %s parsed with %d warning(s):", r.File, len(r.Warnings))
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "\n  %s", w)
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <query-file>",
		Short: "Check a query document without running it",
		Long: `Parse a query document and report constructs that are legal but always
produce an empty or trivially predictable result: inverted regions, operators
without children, empty one_of_groups, and proper crops outside the valid region.

Warnings do not fail the command unless --strict is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "treat warnings as failures")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	doc, err := querydoc.ParseFile(path)
	if err != nil {
		return failParse(formatter, path, err)
	}
	formatter.VerboseLog("Parsed %s: %s", path, doc.Query)

	result := queryir.Validate(doc)
	report := ValidationReport{
		File:        path,
		Fingerprint: queryir.Fingerprint(doc),
		Clean:       result.Clean,
		Crops:       queryir.CountCrops(doc.Query),
		Query:       doc.Query.String(),
		Warnings:    result.Warnings,
	}

	if opts.Strict {
		if err := result.Err(); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeValidationFailed, report.String(), err)
		}
	}
	return formatter.Success(report)
}
