// internal/capture/slice.go
package capture

import (
	"github.com/nodeforge/classforge/internal/metrics"
	"github.com/nodeforge/classforge/internal/tree"
)

// CopySlice owns a detached clone of a half-open range within a ListNode,
// plus the element kind, taken at construction time.
type CopySlice[E tree.Node] struct {
	snapshot *tree.ListNode[E]
}

// NewCopySlice snapshots list[start:end].
func NewCopySlice[E tree.Node](list *tree.ListNode[E], start, end int) *CopySlice[E] {
	return &CopySlice[E]{snapshot: tree.CloneRange(list, start, end)}
}

// Resolve returns the frozen snapshot list.
func (c *CopySlice[E]) Resolve() *tree.ListNode[E] { return c.snapshot }

// RefSlice captures a path to an owning ListNode plus a range within it,
// with independent inclusivity flags for each endpoint (spec §4.2). At
// resolution time the range normalises to the half-open form
// [startNodeInclusive, endNodeExclusive).
type RefSlice[E tree.Node] struct {
	className      string
	listPath       []int
	startIndex     int
	endIndex       int
	startInclusive bool
	endInclusive   bool

	resolvedList          *tree.ListNode[E]
	resolvedStart         int
	resolvedEnd           int
	resolvedOK            bool
}

// NewRefSlice builds an unresolved reference-slice capture. startIndex and
// endIndex are the raw recorded endpoints; their inclusivity is normalised
// only at resolution time, matching the source's "increment start when
// !startInclusive, increment end when endInclusive" rule.
func NewRefSlice[E tree.Node](className string, listPath []int, startIndex, endIndex int, startInclusive, endInclusive bool) *RefSlice[E] {
	cp := make([]int, len(listPath))
	copy(cp, listPath)
	return &RefSlice[E]{
		className:      className,
		listPath:       cp,
		startIndex:     startIndex,
		endIndex:       endIndex,
		startInclusive: startInclusive,
		endInclusive:   endInclusive,
	}
}

// ClassName satisfies Reference.
func (r *RefSlice[E]) ClassName() string { return r.className }

// Path returns a defensive copy of the recorded index path to the owning
// list, used by write-conflict overlap diagnostics.
func (r *RefSlice[E]) Path() []int {
	cp := make([]int, len(r.listPath))
	copy(cp, r.listPath)
	return cp
}

// ComputeResolved walks to the owning list and normalises the recorded range
// to half-open [start, end). The resolved list and bounds are cached.
func (r *RefSlice[E]) ComputeResolved(resolver ClassResolver) (list *tree.ListNode[E], start, end int, err error) {
	if r.resolvedOK {
		return r.resolvedList, r.resolvedStart, r.resolvedEnd, nil
	}
	root, rerr := resolver.ResolveClass(r.className)
	if rerr != nil {
		return nil, 0, 0, &ErrUnknownClass{ClassName: r.className}
	}
	n, werr := walkPath(r.className, root, r.listPath)
	if werr != nil {
		return nil, 0, 0, werr
	}
	typed, ok := n.(*tree.ListNode[E])
	if !ok {
		return nil, 0, 0, &ErrTypeMismatch{ClassName: r.className, Path: r.listPath}
	}

	start = r.startIndex
	if !r.startInclusive {
		start++
	}
	end = r.endIndex
	if r.endInclusive {
		end++
	}
	if start < 0 || end > typed.Len() || start > end {
		metrics.StaleCapturesTotal.Inc()
		return nil, 0, 0, &ErrStaleCapture{ClassName: r.className, Path: r.listPath}
	}

	r.resolvedList = typed
	r.resolvedStart = start
	r.resolvedEnd = end
	r.resolvedOK = true
	return typed, start, end, nil
}
