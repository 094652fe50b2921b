// internal/rw/contracts.go
// Package rw defines the narrow-contract collaborators the processor
// consumes but never implements itself: the bytecode Reader and Writer, and
// the Platform that supplies classfile bytes for types not explicitly
// loaded. Keeping these as small interfaces (mirroring the teacher's
// internal/agent.Sampler/Exporter split) lets the processor core stay
// decoupled from any concrete classfile format or artifact store.
package rw

import (
	"context"

	"github.com/nodeforge/classforge/internal/tree"
)

// Reader consumes raw bytecode and emits a populated ClassNode. The reader
// builds the tree via ordinary mutators (NewField, Modifiers.InsertCopy, ...),
// so it opens the new root's own Gate while populating it and leaves it
// closed on return; callers have no gate to open before Read.
type Reader interface {
	Read(ctx context.Context, internalName string, bytecode []byte) (*tree.ClassNode, error)
}

// HeaderReader is an optional, cheaper capability a Reader may also
// implement: parse only the class's own header (name, superclass, modifier
// bits) without materializing fields, methods or instructions. The subtype
// oracle prefers this when a class is requested only for ClassInfo.
type HeaderReader interface {
	ReadHeader(ctx context.Context, internalName string, bytecode []byte) (super string, isInterface bool, err error)
}

// Writer serializes a modified ClassNode back to bytecode. Out of scope for
// the processor's own semantics; exercised only by the CLI driver once
// processing completes.
type Writer interface {
	Write(ctx context.Context, class *tree.ClassNode) ([]byte, error)
}

// Platform supplies classfile bytes for internal class names that were
// never explicitly registered via addJar/addClass — typically JDK or
// third-party library classes consulted only for getCommonSuperClass.
type Platform interface {
	GetClassBytecode(ctx context.Context, internalName string) ([]byte, error)
}
