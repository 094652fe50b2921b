// internal/tree/node.go
// Package tree implements the in-memory representation of one classfile: a
// typed node hierarchy with stable parent back-pointers and a per-class
// modification gate guarding every mutator. Transformers never touch
// bytecode bytes directly — they read and rewrite this tree, and the CLI
// driver serialises modified classes back through a Writer.
//
// The tree is deliberately not a generic AST: each node variant (Value, List,
// Named, Class, Method, Field, Parameter, Instruction) knows its own shape.
// copyFrom and insertCopy are the only ways to graft content from one tree
// into another; a node can never belong to two parents at once.
package tree

import "fmt"

// Kind tags the concrete variant of a Node so that callers and captures can
// dispatch without type assertions scattered across the codebase.
type Kind int

const (
	KindValue Kind = iota
	KindList
	KindNamed
	KindClass
	KindMethod
	KindField
	KindParameter
	KindInstruction
)

func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindList:
		return "list"
	case KindNamed:
		return "named"
	case KindClass:
		return "class"
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindParameter:
		return "parameter"
	case KindInstruction:
		return "instruction"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is the common interface implemented by every tree element.
//
// Invariant: if c appears in p.Children(), then c.Parent() == p. Nodes never
// belong to two parents; transplanting must go through CopyFrom or a list's
// InsertCopy.
type Node interface {
	// Kind reports the node's variant.
	Kind() Kind

	// Parent returns the owning node, or nil for a root (a ClassNode).
	Parent() Node

	// Children returns the ordered child view. For a leaf this is empty; for
	// a NamedNode it is always exactly [name, value].
	Children() []Node

	// CopyFrom recursively replaces this node's content with a structural
	// deep copy of other. Preconditions: variants match, modification gate
	// open. Fails loudly (panics with *ModificationForbiddenError or
	// *KindMismatchError) otherwise — mutators never return an error value
	// because callers are expected to have checked the phase already; see
	// phaseengine.
	CopyFrom(other Node)

	// DeepCopy returns a detached structural clone: same Kind, equal content,
	// disjoint node identities, parent nil. Used by both CopyFrom and the
	// capture system's Copy-variants.
	DeepCopy() Node

	// setParent is unexported: only this package may rewire ownership.
	setParent(p Node)

	// setGate is unexported: propagates the owning Gate down to a newly
	// attached subtree.
	setGate(g *Gate)

	// gate returns the Gate this node currently belongs to, or nil if
	// detached.
	gate() *Gate
}

// base is embedded by every concrete node to provide the parent back-pointer
// and gate plumbing shared across variants.
type base struct {
	parent  Node
	g       *Gate
}

func (b *base) Parent() Node { return b.parent }

func (b *base) setParent(p Node) { b.parent = p }

func (b *base) setGate(g *Gate) { b.g = g }

func (b *base) gate() *Gate { return b.g }

// KindMismatchError is raised by CopyFrom when the source and destination
// nodes are not of the same variant.
type KindMismatchError struct {
	Dst, Src Kind
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("tree: cannot copy %s into %s", e.Src, e.Dst)
}
