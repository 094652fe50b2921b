// internal/tree/value.go
package tree

// Scalar enumerates the immutable leaf payload types a classfile tree needs:
// strings (names, descriptors), integers (constants, offsets) and booleans
// (flag-like values surfaced by some readers).
type Scalar interface {
	~string | ~int64 | ~bool
}

// ValueNode is a leaf holding an immutable scalar. Its Children list is
// always empty.
type ValueNode[T Scalar] struct {
	base
	val T
}

// NewValue constructs a detached ValueNode. Attaching it to a tree (via
// CopyFrom, InsertCopy or NamedNode construction) propagates the owning Gate.
func NewValue[T Scalar](v T) *ValueNode[T] {
	return &ValueNode[T]{val: v}
}

func (v *ValueNode[T]) Kind() Kind { return KindValue }

// Get returns the scalar payload.
func (v *ValueNode[T]) Get() T { return v.val }

// Set overwrites the scalar payload. Unlike CopyFrom this does not require a
// matching source node, but it is still a mutator and obeys the gate.
func (v *ValueNode[T]) Set(val T) {
	v.gate().checkOpen("ValueNode.Set")
	v.val = val
}

func (v *ValueNode[T]) Children() []Node { return nil }

func (v *ValueNode[T]) CopyFrom(other Node) {
	v.gate().checkOpen("ValueNode.CopyFrom")
	src, ok := other.(*ValueNode[T])
	if !ok {
		panic(&KindMismatchError{Dst: KindValue, Src: other.Kind()})
	}
	v.val = src.val
}

func (v *ValueNode[T]) DeepCopy() Node {
	return &ValueNode[T]{val: v.val}
}
