// internal/tree/gate.go
// The modification gate is modelled as a per-class-root value rather than a
// single process-global flag (see SPEC_FULL.md's design notes on avoiding
// concurrent processors fighting over shared state): every node reachable
// from a given ClassNode root shares that root's *Gate, inherited when a node
// is attached as a child. The phase engine's WRITE step opens a class's gate
// and restores its previous state in a deferred call, so the state is
// restored on every exit path, including panics.
package tree

import "go.uber.org/atomic"

// Gate is the permission flag controlling whether tree mutators may execute.
// The zero value is closed.
type Gate struct {
	open atomic.Bool
}

// NewGate returns a closed gate, matching the processor's resting state
// between WRITE phases.
func NewGate() *Gate {
	return &Gate{}
}

// Open allows mutators to run.
func (g *Gate) Open() { g.open.Store(true) }

// Close forbids mutators from running.
func (g *Gate) Close() { g.open.Store(false) }

// IsOpen reports the current permission state.
func (g *Gate) IsOpen() bool { return g.open.Load() }

// checkOpen panics with ModificationForbiddenError when closed. Mutators call
// this before touching any state so that violations fail loudly rather than
// corrupting the tree silently.
func (g *Gate) checkOpen(op string) {
	if g == nil || !g.open.Load() {
		panic(&ModificationForbiddenError{Op: op})
	}
}

// ModificationForbiddenError is raised by any mutator invoked while its
// owning gate is closed.
type ModificationForbiddenError struct {
	Op string
}

func (e *ModificationForbiddenError) Error() string {
	return "tree: modification forbidden (gate closed) during " + e.Op
}
