// internal/tree/list.go
package tree

// ListNode is an ordered, homogeneous sequence of child nodes. Indexed
// access, Remove and InsertCopy are the only supported structural mutators;
// there is no general Insert/Append of live nodes from elsewhere in the tree —
// content always arrives via a deep copy so that no subtree is ever shared
// between two parents.
type ListNode[E Node] struct {
	base
	elemKind Kind
	children []E
}

// NewList constructs an empty, detached list. elemKind records the variant
// every element must share, reported by ElementKind without needing a live
// element to inspect.
func NewList[E Node](elemKind Kind) *ListNode[E] {
	return &ListNode[E]{elemKind: elemKind}
}

func (l *ListNode[E]) Kind() Kind { return KindList }

// ElementKind reports the variant shared by every child.
func (l *ListNode[E]) ElementKind() Kind { return l.elemKind }

// Len returns the number of children.
func (l *ListNode[E]) Len() int { return len(l.children) }

// Get returns the child at index i. Panics on out-of-range access, matching
// the teacher's fail-loud posture for programmer errors.
func (l *ListNode[E]) Get(i int) E { return l.children[i] }

func (l *ListNode[E]) Children() []Node {
	out := make([]Node, len(l.children))
	for i, c := range l.children {
		out[i] = c
	}
	return out
}

// attach makes this list e's parent and gives e the list's gate; the caller
// has already placed e in l.children.
func (l *ListNode[E]) attach(e E) {
	e.setParent(l)
	e.setGate(l.gate())
}

// setGate overrides base.setGate to cascade the new Gate to every existing
// child, keeping the whole subtree on a single owning Gate.
func (l *ListNode[E]) setGate(g *Gate) {
	l.g = g
	for _, c := range l.children {
		c.setGate(g)
	}
}

// Remove deletes the half-open range [startInclusive, endExclusive). A no-op
// if start == end. Panics if the range is out of bounds.
func (l *ListNode[E]) Remove(startInclusive, endExclusive int) {
	l.gate().checkOpen("ListNode.Remove")
	if startInclusive == endExclusive {
		return
	}
	if startInclusive < 0 || endExclusive > len(l.children) || startInclusive > endExclusive {
		panic("tree: ListNode.Remove range out of bounds")
	}
	removed := l.children[startInclusive:endExclusive]
	for _, c := range removed {
		c.setParent(nil)
	}
	l.children = append(l.children[:startInclusive], l.children[endExclusive:]...)
}

// InsertCopy deep-copies otherList's children and inserts them at index,
// shifting existing children right. index must be in [0, Len()].
func (l *ListNode[E]) InsertCopy(index int, otherList *ListNode[E]) {
	l.gate().checkOpen("ListNode.InsertCopy")
	if index < 0 || index > len(l.children) {
		panic("tree: ListNode.InsertCopy index out of bounds")
	}
	clones := make([]E, len(otherList.children))
	for i, src := range otherList.children {
		clones[i] = src.DeepCopy().(E)
	}
	grown := make([]E, 0, len(l.children)+len(clones))
	grown = append(grown, l.children[:index]...)
	grown = append(grown, clones...)
	grown = append(grown, l.children[index:]...)
	l.children = grown
	for _, c := range clones {
		l.attach(c)
	}
}

// CopyFrom replaces this list's entire content with a structural deep copy
// of other, which must also be a *ListNode[E].
func (l *ListNode[E]) CopyFrom(other Node) {
	l.gate().checkOpen("ListNode.CopyFrom")
	src, ok := other.(*ListNode[E])
	if !ok {
		panic(&KindMismatchError{Dst: KindList, Src: other.Kind()})
	}
	l.elemKind = src.elemKind
	clones := make([]E, len(src.children))
	for i, c := range src.children {
		clones[i] = c.DeepCopy().(E)
	}
	l.children = clones
	for _, c := range l.children {
		l.attach(c)
	}
}

// cloneListInto performs the same structural copy as CopyFrom but without a
// gate check; used internally when a composite's own DeepCopy needs to
// populate a freshly constructed child list, which must work regardless of
// gate state (DeepCopy underlies CopyCapture snapshots taken during READ,
// when the gate is closed).
func cloneListInto[E Node](dst, src *ListNode[E]) {
	dst.elemKind = src.elemKind
	clones := make([]E, len(src.children))
	for i, c := range src.children {
		clones[i] = c.DeepCopy().(E)
	}
	dst.children = clones
	for _, c := range clones {
		dst.attach(c)
	}
}

// CloneRange deep-copies the half-open range [start, end) of l's children
// into a new, detached list sharing l's element kind. It underlies the
// capture system's Copy-slice snapshots.
func CloneRange[E Node](l *ListNode[E], start, end int) *ListNode[E] {
	if start < 0 || end > len(l.children) || start > end {
		panic("tree: CloneRange range out of bounds")
	}
	out := &ListNode[E]{elemKind: l.elemKind, children: make([]E, end-start)}
	for i := start; i < end; i++ {
		clone := l.children[i].DeepCopy().(E)
		clone.setParent(out)
		out.children[i-start] = clone
	}
	return out
}

// NewDetachedList constructs a list directly from already-owned children,
// without copying them. Used by readers and by the capture system when
// building scratch lists that will immediately be consumed by InsertCopy
// (which deep-copies on the way in, so no sharing risk remains).
func NewDetachedList[E Node](elemKind Kind, children []E) *ListNode[E] {
	return &ListNode[E]{elemKind: elemKind, children: children}
}

func (l *ListNode[E]) DeepCopy() Node {
	out := &ListNode[E]{elemKind: l.elemKind, children: make([]E, len(l.children))}
	for i, c := range l.children {
		clone := c.DeepCopy().(E)
		clone.setParent(out)
		out.children[i] = clone
	}
	return out
}
