// internal/phaseengine/write.go
// A Write is (originating transformer id, reference target capture,
// replacement supplier). Replacements are produced lazily, only once the
// write is actually applied during WRITE.
package phaseengine

import "github.com/nodeforge/classforge/internal/capture"

// Write is the type-erased shape the WRITE phase needs: enough to shard by
// owning class, diagnose overlaps, and apply itself against a resolver.
type Write interface {
	TransformerID() string
	ClassName() string
	Path() []int
	Apply(resolver capture.ClassResolver) error
}

// InvalidCaptureTarget reports that addWrite received a copy capture
// instead of a reference capture (spec §7).
type InvalidCaptureTarget struct {
	TransformerID string
}

func (e *InvalidCaptureTarget) Error() string {
	return "phaseengine: addWrite target must be a reference capture (transformer " + e.TransformerID + ")"
}

// UnknownClass reports that withClass requested a name not present in
// allClasses (spec §7).
type UnknownClass struct {
	ClassName string
}

func (e *UnknownClass) Error() string {
	return "phaseengine: unknown class " + e.ClassName
}

// CrossClassWrite reports a write (or resolution) whose target class
// differs from the class currently being written — the realization of
// §5's "mutating operations will refuse any target not rooted in this
// class" rule.
type CrossClassWrite struct {
	Target  string
	Current string
}

func (e *CrossClassWrite) Error() string {
	return "phaseengine: write targets class " + e.Target + " but current writing class is " + e.Current
}
