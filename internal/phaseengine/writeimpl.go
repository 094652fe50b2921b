// internal/phaseengine/writeimpl.go
package phaseengine

import (
	"github.com/nodeforge/classforge/internal/capture"
	"github.com/nodeforge/classforge/internal/tree"
)

type nodeWrite[T tree.Node] struct {
	transformerID string
	target        *capture.RefNode[T]
	supplier      func() T
}

func (w *nodeWrite[T]) TransformerID() string { return w.transformerID }
func (w *nodeWrite[T]) ClassName() string     { return w.target.ClassName() }
func (w *nodeWrite[T]) Path() []int           { return w.target.Path() }

func (w *nodeWrite[T]) Apply(resolver capture.ClassResolver) error {
	resolved, err := w.target.ComputeResolved(resolver)
	if err != nil {
		return err
	}
	resolved.CopyFrom(w.supplier())
	return nil
}

type sliceWrite[E tree.Node] struct {
	transformerID string
	target        *capture.RefSlice[E]
	supplier      func() *tree.ListNode[E]
}

func (w *sliceWrite[E]) TransformerID() string { return w.transformerID }
func (w *sliceWrite[E]) ClassName() string     { return w.target.ClassName() }
func (w *sliceWrite[E]) Path() []int           { return w.target.Path() }

func (w *sliceWrite[E]) Apply(resolver capture.ClassResolver) error {
	list, start, end, err := w.target.ComputeResolved(resolver)
	if err != nil {
		return err
	}
	list.Remove(start, end)
	list.InsertCopy(start, w.supplier())
	return nil
}
