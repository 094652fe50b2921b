// internal/transformer/transformer.go
// Package transformer defines the Transformer contract every user-supplied
// unit of work implements, plus the registry that holds them in submission
// order. Transformer has exactly the two directly-invoked lifecycle hooks
// the glossary describes (apply, read); write effects are scheduled during
// Read and applied later by the phase engine.
package transformer

import "github.com/nodeforge/classforge/internal/phaseengine"

// Transformer is a user-supplied unit of work.
type Transformer interface {
	// ID is a stable string identifier used for round/write dependency
	// edges and diagnostics.
	ID() string

	// Apply runs once, sequentially, with the modification gate closed.
	// Only dependency declarations are legal here.
	Apply(d *phaseengine.Declaration) error

	// Read runs once per round the transformer is scheduled into, in
	// parallel with every other transformer of that round. Legal
	// operations: withClass/withClasses, capture creation, addWrite.
	Read(rc *phaseengine.ReadScope) error
}
