package capture

import (
	"testing"

	"github.com/nodeforge/classforge/internal/tree"
)

type fakeResolver map[string]*tree.ClassNode

func (f fakeResolver) ResolveClass(name string) (*tree.ClassNode, error) {
	c, ok := f[name]
	if !ok {
		return nil, &ErrUnknownClass{ClassName: name}
	}
	return c, nil
}

func buildClass(methodName string) *tree.ClassNode {
	c := tree.NewClassNode("com/example/Foo", "java/lang/Object")
	c.Gate().Open()
	m := tree.NewMethod(methodName, "()V")
	c.Methods.InsertCopy(0, tree.NewDetachedList[*tree.MethodNode](tree.KindMethod, []*tree.MethodNode{m}))
	c.Gate().Close()
	return c
}

// pathToMethodName returns the index path from class root to
// Methods[0].Name, mirroring how a transformer would record a capture while
// reading m.Name in READ.
func pathToMethodName() []int {
	// ClassNode.Children(): [Name, Super, Modifiers, Interfaces, Fields, Methods, InnerClasses]
	// Methods.Children(): [method0, method1, ...]
	// MethodNode.Children(): [Name, Descriptor, Modifiers, Parameters, Instructions]
	return []int{5, 0, 0}
}

func TestCopyNodeIndependentOfLaterMutation(t *testing.T) {
	c := buildClass("original")
	original := c.Methods.Get(0).Name

	snap := NewCopyNode[*tree.ValueNode[string]](original)

	c.Gate().Open()
	original.Set("renamed")
	c.Gate().Close()

	if snap.Resolve().Get() != "original" {
		t.Fatalf("copy capture should be immune to later mutation, got %q", snap.Resolve().Get())
	}
	if original.Get() != "renamed" {
		t.Fatalf("original should have been renamed, got %q", original.Get())
	}
}

func TestRefNodeResolvesLiveValue(t *testing.T) {
	c := buildClass("original")
	resolver := fakeResolver{"com/example/Foo": c}

	ref := NewRefNode[*tree.ValueNode[string]]("com/example/Foo", pathToMethodName())

	c.Gate().Open()
	c.Methods.Get(0).Name.Set("renamed")
	c.Gate().Close()

	got, err := ref.ComputeResolved(resolver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Get() != "renamed" {
		t.Fatalf("ref capture should observe the live value, got %q", got.Get())
	}
}

func TestRefNodeCachesResolution(t *testing.T) {
	c := buildClass("original")
	resolver := fakeResolver{"com/example/Foo": c}
	ref := NewRefNode[*tree.ValueNode[string]]("com/example/Foo", pathToMethodName())

	first, err := ref.ComputeResolved(resolver)
	if err != nil {
		t.Fatal(err)
	}
	c.Gate().Open()
	c.Methods.Get(0).Name.Set("changed-after-first-resolve")
	c.Gate().Close()

	second, err := ref.ComputeResolved(resolver)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("ComputeResolved must cache the resolved node across calls")
	}
	if second.Get() != "changed-after-first-resolve" {
		t.Fatal("the cached node is the same live node, so it should see the mutation")
	}
}

func TestRefNodeUnknownClass(t *testing.T) {
	ref := NewRefNode[*tree.ValueNode[string]]("does/not/Exist", []int{0})
	_, err := ref.ComputeResolved(fakeResolver{})
	if err == nil {
		t.Fatal("expected error for unknown class")
	}
	if _, ok := err.(*ErrUnknownClass); !ok {
		t.Fatalf("expected *ErrUnknownClass, got %T", err)
	}
}

func TestRefSliceNormalisesToHalfOpen(t *testing.T) {
	c := buildClass("m0")
	c.Gate().Open()
	for _, name := range []string{"m1", "m2", "m3"} {
		c.Methods.InsertCopy(c.Methods.Len(), tree.NewDetachedList[*tree.MethodNode](tree.KindMethod, []*tree.MethodNode{tree.NewMethod(name, "()V")}))
	}
	c.Gate().Close()
	resolver := fakeResolver{"com/example/Foo": c}

	// Methods list is child index 5 of the class.
	rs := NewRefSlice[*tree.MethodNode]("com/example/Foo", []int{5}, 1, 2, false, true)
	list, start, end, err := rs.ComputeResolved(resolver)
	if err != nil {
		t.Fatal(err)
	}
	if start != 2 || end != 3 {
		t.Fatalf("expected normalised [2,3), got [%d,%d)", start, end)
	}
	if list.Get(start).Name.Get() != "m2" {
		t.Fatalf("unexpected element at normalised start: %s", list.Get(start).Name.Get())
	}
}

func TestRefSliceStaleCaptureDetected(t *testing.T) {
	c := buildClass("m0")
	resolver := fakeResolver{"com/example/Foo": c}
	rs := NewRefSlice[*tree.MethodNode]("com/example/Foo", []int{5}, 0, 5, true, false)

	_, _, _, err := rs.ComputeResolved(resolver)
	if err == nil {
		t.Fatal("expected stale-capture error when range exceeds current list length")
	}
	if _, ok := err.(*ErrStaleCapture); !ok {
		t.Fatalf("expected *ErrStaleCapture, got %T", err)
	}
}

func TestCopySliceIndependentOfLaterMutation(t *testing.T) {
	c := buildClass("m0")
	c.Gate().Open()
	c.Methods.InsertCopy(c.Methods.Len(), tree.NewDetachedList[*tree.MethodNode](tree.KindMethod, []*tree.MethodNode{tree.NewMethod("m1", "()V")}))
	c.Gate().Close()

	snap := NewCopySlice[*tree.MethodNode](c.Methods, 0, 2)

	c.Gate().Open()
	c.Methods.Remove(0, 2)
	c.Gate().Close()

	if snap.Resolve().Len() != 2 {
		t.Fatalf("copy-slice should retain both original elements, got %d", snap.Resolve().Len())
	}
}
