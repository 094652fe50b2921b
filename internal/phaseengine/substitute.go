// internal/phaseengine/substitute.go
// Substitute/SubstituteSlice are sugar over refCapture+addWrite for the
// common case where the transformer already has the replacement value in
// hand and doesn't need the general capture/supplier split.
package phaseengine

import "github.com/nodeforge/classforge/internal/tree"

// Substitute schedules target (identified by className+path) to be replaced
// with source during WRITE.
func Substitute[T tree.Node](rc *ReadScope, className string, path []int, source T) error {
	ref, err := RefCapture[T](rc, className, path)
	if err != nil {
		return err
	}
	return AddWrite[T](rc, ref, func() T { return source })
}

// SubstituteSlice schedules sliceSource to be inserted at index within the
// list identified by className+listPath, with no existing elements removed
// (a pure insertion at a point, the zero-width range [index, index)).
func SubstituteSlice[E tree.Node](rc *ReadScope, className string, listPath []int, index int, sliceSource *tree.ListNode[E]) error {
	ref, err := RefSliceCapture[E](rc, className, listPath, index, index, true, false)
	if err != nil {
		return err
	}
	return AddWriteSlice[E](rc, ref, func() *tree.ListNode[E] { return sliceSource })
}
