// internal/phaseengine/readscope.go
// ReadScope is the READ-phase facade handed to each transformer's Read
// hook, and to each class-request-fixpoint callback. Legal operations:
// withClass, withClasses, withAllClasses, capture creation, addWrite.
package phaseengine

import (
	"github.com/nodeforge/classforge/internal/capture"
	"github.com/nodeforge/classforge/internal/selector"
	"github.com/nodeforge/classforge/internal/tree"
)

type classCallback func(*tree.ClassNode) error

// ReadScope binds a transformer id to the Coordinator's shared state for
// the duration of one READ invocation (either the transformer's own Read
// hook, or a class-request fixpoint callback run on its behalf).
type ReadScope struct {
	c             *Coordinator
	transformerID string
}

// WithClass enqueues cb to run once name's tree is resolved, during the
// class-request fixpoint loop.
func (rc *ReadScope) WithClass(name string, cb func(*tree.ClassNode) error) error {
	if err := rc.c.state.require(PhaseRead, "withClass"); err != nil {
		return err
	}
	if _, ok := rc.c.registry.Get(name); !ok {
		return &UnknownClass{ClassName: name}
	}
	rc.c.enqueueRequest(name, cb)
	return nil
}

// WithClasses enqueues cb, guarded by predicate, against every class
// currently registered with the processor. If the driver installed a global
// class filter (Coordinator.SetClassFilter, wired from addConfig("selector",
// expr)), a class must also satisfy that filter before predicate is
// consulted.
func (rc *ReadScope) WithClasses(predicate func(*tree.ClassNode) bool, cb func(*tree.ClassNode) error) error {
	if err := rc.c.state.require(PhaseRead, "withClasses"); err != nil {
		return err
	}
	for _, name := range rc.c.registry.Names() {
		rc.c.enqueueRequest(name, func(class *tree.ClassNode) error {
			if rc.c.classFilter != nil && !rc.c.classFilter(class) {
				return nil
			}
			if !predicate(class) {
				return nil
			}
			return cb(class)
		})
	}
	return nil
}

// WithClassesExpr compiles expr with internal/selector and behaves as
// WithClasses(pred, cb), letting a transformer write e.g.
// `name startsWith "com/example/" && public` instead of a hand-written
// predicate closure.
func (rc *ReadScope) WithClassesExpr(expr string, cb func(*tree.ClassNode) error) error {
	pred, err := selector.CompileForClass(expr)
	if err != nil {
		return err
	}
	return rc.WithClasses(pred, cb)
}

// WithAllClasses enqueues cb against every registered class, unconditionally
// (still subject to any global class filter, as WithClasses is).
func (rc *ReadScope) WithAllClasses(cb func(*tree.ClassNode) error) error {
	return rc.WithClasses(func(*tree.ClassNode) bool { return true }, cb)
}

// CopyCapture snapshots target by deep copy.
func CopyCapture[T tree.Node](rc *ReadScope, target T) (*capture.CopyNode[T], error) {
	if err := rc.c.state.require(PhaseRead, "copyCapture"); err != nil {
		return nil, err
	}
	return capture.NewCopyNode[T](target), nil
}

// CopySliceCapture snapshots list[start:end] by deep copy.
func CopySliceCapture[E tree.Node](rc *ReadScope, list *tree.ListNode[E], start, end int) (*capture.CopySlice[E], error) {
	if err := rc.c.state.require(PhaseRead, "copyCapture"); err != nil {
		return nil, err
	}
	return capture.NewCopySlice[E](list, start, end), nil
}

// RefCapture records (className, path) for lazy resolution at WRITE time.
func RefCapture[T tree.Node](rc *ReadScope, className string, path []int) (*capture.RefNode[T], error) {
	if err := rc.c.state.require(PhaseRead, "refCapture"); err != nil {
		return nil, err
	}
	return capture.NewRefNode[T](className, path), nil
}

// RefSliceCapture records (className, listPath, range) for lazy resolution.
func RefSliceCapture[E tree.Node](rc *ReadScope, className string, listPath []int, startIndex, endIndex int, startInclusive, endInclusive bool) (*capture.RefSlice[E], error) {
	if err := rc.c.state.require(PhaseRead, "refCapture"); err != nil {
		return nil, err
	}
	return capture.NewRefSlice[E](className, listPath, startIndex, endIndex, startInclusive, endInclusive), nil
}

// AddWrite schedules a node replacement. target must be a *capture.RefNode[T];
// a copy capture is rejected with InvalidCaptureTarget.
func AddWrite[T tree.Node](rc *ReadScope, target any, supplier func() T) error {
	if err := rc.c.state.require(PhaseRead, "addWrite"); err != nil {
		return err
	}
	ref, ok := target.(*capture.RefNode[T])
	if !ok {
		return &InvalidCaptureTarget{TransformerID: rc.transformerID}
	}
	w := &nodeWrite[T]{transformerID: rc.transformerID, target: ref, supplier: supplier}
	rc.c.enqueueWrite(ref.ClassName(), w)
	return nil
}

// AddWriteSlice schedules a slice replacement. target must be a
// *capture.RefSlice[E]; a copy capture is rejected with InvalidCaptureTarget.
func AddWriteSlice[E tree.Node](rc *ReadScope, target any, supplier func() *tree.ListNode[E]) error {
	if err := rc.c.state.require(PhaseRead, "addWrite"); err != nil {
		return err
	}
	ref, ok := target.(*capture.RefSlice[E])
	if !ok {
		return &InvalidCaptureTarget{TransformerID: rc.transformerID}
	}
	w := &sliceWrite[E]{transformerID: rc.transformerID, target: ref, supplier: supplier}
	rc.c.enqueueWrite(ref.ClassName(), w)
	return nil
}
