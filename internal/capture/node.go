// internal/capture/node.go
package capture

import "github.com/nodeforge/classforge/internal/tree"

// CopyNode owns a detached deep snapshot taken at construction. Resolve
// always returns that same clone, independent of any later tree change.
type CopyNode[T tree.Node] struct {
	snapshot T
}

// NewCopyNode snapshots target by deep copy.
func NewCopyNode[T tree.Node](target T) *CopyNode[T] {
	clone := target.DeepCopy().(T)
	return &CopyNode[T]{snapshot: clone}
}

// Resolve returns the frozen snapshot.
func (c *CopyNode[T]) Resolve() T { return c.snapshot }

// RefNode captures (owning class internal name, index path from root) at
// construction and resolves lazily against the live modified tree during
// WRITE.
type RefNode[T tree.Node] struct {
	className string
	path      []int

	resolved   T
	resolvedOK bool
}

// NewRefNode builds an unresolved reference capture. className and path
// identify the target's position at capture time; they are recorded, not
// dereferenced, until ComputeResolved runs.
func NewRefNode[T tree.Node](className string, path []int) *RefNode[T] {
	cp := make([]int, len(path))
	copy(cp, path)
	return &RefNode[T]{className: className, path: cp}
}

// ClassName satisfies Reference.
func (r *RefNode[T]) ClassName() string { return r.className }

// Path returns a defensive copy of the recorded index path, mostly useful
// for conflict-overlap diagnostics (two writes whose paths prefix one
// another).
func (r *RefNode[T]) Path() []int {
	cp := make([]int, len(r.path))
	copy(cp, r.path)
	return cp
}

// ComputeResolved walks the current modified tree of the owning class along
// the recorded path. The result is cached: subsequent calls within the same
// WRITE return the same resolved node without re-walking.
func (r *RefNode[T]) ComputeResolved(resolver ClassResolver) (T, error) {
	if r.resolvedOK {
		return r.resolved, nil
	}
	var zero T
	root, err := resolver.ResolveClass(r.className)
	if err != nil {
		return zero, &ErrUnknownClass{ClassName: r.className}
	}
	n, err := walkPath(r.className, root, r.path)
	if err != nil {
		return zero, err
	}
	typed, ok := n.(T)
	if !ok {
		return zero, &ErrTypeMismatch{ClassName: r.className, Path: r.path}
	}
	r.resolved = typed
	r.resolvedOK = true
	return typed, nil
}
