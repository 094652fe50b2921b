// internal/tree/named.go
package tree

// NamedNode is a composite with exactly two children in fixed order: a
// ValueNode[string] name and a V value. It models classfile constructs that
// pair an identifier with a payload (a constant-pool entry, an annotation
// member, an attribute).
type NamedNode[V Node] struct {
	base
	name  *ValueNode[string]
	value V
}

// NewNamed constructs a detached NamedNode from a name and a value node.
func NewNamed[V Node](name string, value V) *NamedNode[V] {
	n := &NamedNode[V]{name: NewValue(name)}
	n.name.setParent(n)
	value.setParent(n)
	n.value = value
	return n
}

func (n *NamedNode[V]) Kind() Kind { return KindNamed }

// Name returns the name child.
func (n *NamedNode[V]) Name() *ValueNode[string] { return n.name }

// Value returns the value child.
func (n *NamedNode[V]) Value() V { return n.value }

// Children always returns exactly [name, value].
func (n *NamedNode[V]) Children() []Node { return []Node{n.name, n.value} }

func (n *NamedNode[V]) setGate(g *Gate) {
	n.g = g
	n.name.setGate(g)
	n.value.setGate(g)
}

func (n *NamedNode[V]) CopyFrom(other Node) {
	n.gate().checkOpen("NamedNode.CopyFrom")
	src, ok := other.(*NamedNode[V])
	if !ok {
		panic(&KindMismatchError{Dst: KindNamed, Src: other.Kind()})
	}
	n.name.CopyFrom(src.name)
	n.value.CopyFrom(src.value)
}

func (n *NamedNode[V]) DeepCopy() Node {
	out := &NamedNode[V]{name: n.name.DeepCopy().(*ValueNode[string])}
	out.name.setParent(out)
	value := n.value.DeepCopy().(V)
	value.setParent(out)
	out.value = value
	return out
}
