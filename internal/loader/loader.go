// Package loader reads flat-file point datasets.
//
// A data directory holds three parallel files, one record per line:
//
//	points.txt      "x y"  (two finite floats)
//	categories.txt  category (int)
//	groups.txt      group id (int64)
//
// Blank lines are skipped. After skipping, the files must have the same
// number of lines. Record ids are the 0-based line index among non-blank
// lines.
package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/roach88/cropq/internal/store"
)

// File names inside a data directory.
const (
	PointsFile     = "points.txt"
	CategoriesFile = "categories.txt"
	GroupsFile     = "groups.txt"
)

// Error codes.
const (
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeInconsistentLines = "INCONSISTENT_LINES"
	ErrCodeInvalidLine       = "INVALID_LINE"
)

// LoadError describes why a data directory could not be read.
type LoadError struct {
	Code    string
	File    string
	Line    int // 1-based line in File; 0 if not line-specific
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s: %s", e.File, e.Line, e.Code, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError returns true if err is a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

type line struct {
	number int
	text   string
}

// ReadDir reads a data directory into a dataset.
func ReadDir(dir string) (store.Dataset, error) {
	points, err := readLines(filepath.Join(dir, PointsFile))
	if err != nil {
		return store.Dataset{}, err
	}
	categories, err := readLines(filepath.Join(dir, CategoriesFile))
	if err != nil {
		return store.Dataset{}, err
	}
	groups, err := readLines(filepath.Join(dir, GroupsFile))
	if err != nil {
		return store.Dataset{}, err
	}

	if len(points) != len(categories) || len(points) != len(groups) {
		return store.Dataset{}, &LoadError{
			Code: ErrCodeInconsistentLines,
			Message: fmt.Sprintf("data files have inconsistent number of lines: %s=%d %s=%d %s=%d",
				PointsFile, len(points), CategoriesFile, len(categories), GroupsFile, len(groups)),
		}
	}

	ds := store.Dataset{Points: make([]store.Record, 0, len(points))}
	for i := range points {
		x, y, err := parsePoint(points[i])
		if err != nil {
			return store.Dataset{}, err
		}
		category, err := parseInt(CategoriesFile, categories[i], 32)
		if err != nil {
			return store.Dataset{}, err
		}
		group, err := parseInt(GroupsFile, groups[i], 64)
		if err != nil {
			return store.Dataset{}, err
		}

		ds.Points = append(ds.Points, store.Record{
			ID:       int64(i),
			X:        x,
			Y:        y,
			Category: int(category),
			GroupID:  group,
		})
	}
	return ds, nil
}

// Load reads dir and replaces the contents of dst with it.
// Returns the number of points loaded.
func Load(ctx context.Context, dir string, dst store.Loader) (int, error) {
	ds, err := ReadDir(dir)
	if err != nil {
		return 0, err
	}
	if err := dst.ReplaceAll(ctx, ds); err != nil {
		return 0, fmt.Errorf("replace store contents: %w", err)
	}
	return len(ds.Points), nil
}

func readLines(path string) ([]line, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{
			Code:    ErrCodeFileNotFound,
			File:    filepath.Base(path),
			Message: "could not open file",
			Err:     err,
		}
	}
	defer f.Close()

	var lines []line
	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		lines = append(lines, line{number: n, text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, &LoadError{
			Code:    ErrCodeInvalidLine,
			File:    filepath.Base(path),
			Message: "read failed",
			Err:     err,
		}
	}
	return lines, nil
}

func parsePoint(l line) (float64, float64, error) {
	fields := strings.Fields(l.text)
	if len(fields) != 2 {
		return 0, 0, invalidLine(PointsFile, l, fmt.Sprintf("expected \"x y\", got %q", l.text), nil)
	}
	x, err := parseCoordinate(l, "x", fields[0])
	if err != nil {
		return 0, 0, err
	}
	y, err := parseCoordinate(l, "y", fields[1])
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// parseCoordinate accepts finite floats only. NaN fails every region bound
// and Inf escapes every finite one, so neither can be cropped meaningfully.
func parseCoordinate(l line, axis, field string) (float64, error) {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, invalidLine(PointsFile, l, fmt.Sprintf("invalid %s %q", axis, field), err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, invalidLine(PointsFile, l, fmt.Sprintf("non-finite %s %q", axis, field), nil)
	}
	return v, nil
}

func parseInt(file string, l line, bits int) (int64, error) {
	v, err := strconv.ParseInt(l.text, 10, bits)
	if err != nil {
		return 0, invalidLine(file, l, fmt.Sprintf("invalid integer %q", l.text), err)
	}
	return v, nil
}

func invalidLine(file string, l line, msg string, err error) error {
	return &LoadError{Code: ErrCodeInvalidLine, File: file, Line: l.number, Message: msg, Err: err}
}
