package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cropq/internal/store"
)

// Backends a scenario may run against.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Backend selects the store; empty means memory.
	Backend string `yaml:"backend,omitempty"`

	// Strict rejects the document if validation reports warnings.
	Strict bool `yaml:"strict,omitempty"`

	// Dataset is loaded into a fresh store before the query runs.
	Dataset Dataset `yaml:"dataset"`

	// Query is the query document as a generic tree.
	Query map[string]any `yaml:"query"`

	// Expect is the expected outcome.
	Expect Expectation `yaml:"expect"`
}

// Dataset is the inline store contents of a scenario.
type Dataset struct {
	Points      []PointRow `yaml:"points"`
	EmptyGroups []int64    `yaml:"empty_groups,omitempty"`
}

// PointRow is one stored point. Its id is its index in Dataset.Points.
type PointRow struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Category int     `yaml:"category"`
	Group    int64   `yaml:"group"`
}

// ExpectedPoint is one expected result coordinate.
type ExpectedPoint struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Expectation is the expected outcome of a scenario.
type Expectation struct {
	// Points is the exact expected result. nil means not checked.
	Points []ExpectedPoint `yaml:"points"`

	// Error is the expected error code.
	Error string `yaml:"error,omitempty"`

	// Warnings are the expected validation warning codes, in order.
	// nil means not checked.
	Warnings []string `yaml:"warnings"`

	// PointQueries is the expected number of point retrievals.
	PointQueries *int `yaml:"point_queries,omitempty"`

	// GroupCountQueries is the expected number of group count retrievals.
	GroupCountQueries *int `yaml:"group_count_queries,omitempty"`
}

// StoreDataset converts the inline dataset to a store dataset.
func (d Dataset) StoreDataset() store.Dataset {
	ds := store.Dataset{
		Points: make([]store.Record, 0, len(d.Points)),
		Groups: d.EmptyGroups,
	}
	for i, p := range d.Points {
		ds.Points = append(ds.Points, store.Record{
			ID:       int64(i),
			X:        p.X,
			Y:        p.Y,
			Category: p.Category,
			GroupID:  p.Group,
		})
	}
	return ds
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarioFiles returns the .yaml and .yml files under dir, sorted.
// If filter is not empty, only files whose base name (without extension)
// matches the glob pattern are returned.
func FindScenarioFiles(dir, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch s.Backend {
	case "", BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q", s.Backend)
	}

	if s.Query == nil {
		return fmt.Errorf("query is required")
	}

	hasPoints := s.Expect.Points != nil
	hasError := s.Expect.Error != ""
	switch {
	case hasPoints && hasError:
		return fmt.Errorf("expect: points and error are mutually exclusive")
	case !hasPoints && !hasError:
		return fmt.Errorf("expect: one of points or error is required")
	}

	if q := s.Expect.PointQueries; q != nil && *q < 0 {
		return fmt.Errorf("expect.point_queries must be non-negative")
	}
	if q := s.Expect.GroupCountQueries; q != nil && *q < 0 {
		return fmt.Errorf("expect.group_count_queries must be non-negative")
	}

	return nil
}
