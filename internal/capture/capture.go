// internal/capture/capture.go
// Package capture lets a transformer quote a region of a class tree during
// READ so it can be resolved and rewritten later, during WRITE. Two
// independent axes combine into four variants:
//
//	Copy (snapshot now) vs. Reference (resolve a path later)
//	Node (single element) vs. Slice (a ListNode range)
//
// Copy captures own a detached deep clone taken at construction time and are
// therefore immune to any later structural change. Reference captures own a
// resolution descriptor — the owning class's internal name plus an index
// path from the class root — and only materialise a live node when
// ComputeResolved is called during WRITE.
package capture

import (
	"github.com/nodeforge/classforge/internal/metrics"
	"github.com/nodeforge/classforge/internal/tree"
)

// ClassResolver is the narrow contract a reference capture needs from the
// processor at resolution time: "give me the current modified tree for this
// class". The phase engine's per-class write resolver satisfies it.
type ClassResolver interface {
	ResolveClass(className string) (*tree.ClassNode, error)
}

// Reference is implemented only by the Ref* variants; the engine uses it to
// shard pending writes by owning class (spec §4.2: "all reference captures
// advertise className()").
type Reference interface {
	ClassName() string
}

// ErrStaleCapture is returned by ComputeResolved when a recorded index no
// longer fits within the current tree shape — i.e. a preceding write in the
// same class has already shrunk a list the path walks through. Spec §9 marks
// this an open question ("behavior is undefined"); this implementation
// resolves it by failing fast rather than indexing out of range.
type ErrStaleCapture struct {
	ClassName string
	Path      []int
}

func (e *ErrStaleCapture) Error() string {
	return "capture: stale reference into " + e.ClassName + " (path no longer resolvable)"
}

// ErrUnknownClass is returned when the resolver has no tree for ClassName.
type ErrUnknownClass struct {
	ClassName string
}

func (e *ErrUnknownClass) Error() string {
	return "capture: unknown class " + e.ClassName
}

// ErrTypeMismatch is returned when a resolved node's concrete type does not
// match the capture's type parameter (e.g. the tree shape changed underneath
// a stored path).
type ErrTypeMismatch struct {
	ClassName string
	Path      []int
}

func (e *ErrTypeMismatch) Error() string {
	return "capture: resolved node type mismatch in " + e.ClassName
}

// walkPath descends from root following each child index in path, failing
// fast (ErrStaleCapture) the moment an index no longer fits.
func walkPath(className string, root tree.Node, path []int) (tree.Node, error) {
	n := root
	for _, idx := range path {
		children := n.Children()
		if idx < 0 || idx >= len(children) {
			metrics.StaleCapturesTotal.Inc()
			return nil, &ErrStaleCapture{ClassName: className, Path: path}
		}
		n = children[idx]
	}
	return n, nil
}
