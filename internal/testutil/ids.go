// Package testutil holds test doubles shared by package tests and the
// scenario harness.
package testutil

// FixedIDGenerator returns the same execution id every time.
//
// Unlike engine.FixedGenerator, which hands out a sequence and panics when
// exhausted, this generator never runs out. Harness scenarios use it so
// that log lines and golden output do not depend on how many executions a
// run performs.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed execution id generator.
// If id is empty, Generate returns "test-execution".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-execution"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
