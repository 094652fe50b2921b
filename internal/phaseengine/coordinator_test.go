package phaseengine

import (
	"context"
	"sync"
	"testing"

	"github.com/nodeforge/classforge/internal/capture"
	"github.com/nodeforge/classforge/internal/classprovider"
	"github.com/nodeforge/classforge/internal/scheduler"
	"github.com/nodeforge/classforge/internal/tree"
)

type stubReader struct{ class *tree.ClassNode }

func (r *stubReader) Read(ctx context.Context, internalName string, bc []byte) (*tree.ClassNode, error) {
	return r.class, nil
}

func newRegisteredClass(t *testing.T, reg *classprovider.Registry, name, methodName string) *tree.ClassNode {
	t.Helper()
	c := tree.NewClassNode(name, "java/lang/Object")
	c.Gate().Open()
	c.Methods.InsertCopy(0, tree.NewDetachedList[*tree.MethodNode](tree.KindMethod, []*tree.MethodNode{tree.NewMethod(methodName, "()V")}))
	c.Gate().Close()
	p := classprovider.New(name, func(ctx context.Context) ([]byte, error) { return []byte{0}, nil }, &stubReader{class: c})
	reg.Put(name, p)
	return c
}

// methodNamePath mirrors capture_test.go's pathToMethodName: Methods is
// child index 5 of ClassNode, Name is child index 0 of MethodNode.
func methodNamePath() []int { return []int{5, 0, 0} }

type funcTransformer struct {
	id      string
	applyFn func(*Declaration) error
	readFn  func(*ReadScope) error
}

func (f *funcTransformer) ID() string { return f.id }

func (f *funcTransformer) Apply(d *Declaration) error {
	if f.applyFn == nil {
		return nil
	}
	return f.applyFn(d)
}

func (f *funcTransformer) Read(rc *ReadScope) error {
	if f.readFn == nil {
		return nil
	}
	return f.readFn(rc)
}

func TestPhaseViolationOutsidePhase(t *testing.T) {
	reg := classprovider.NewRegistry(nil)
	c := NewCoordinator(reg)
	rc := &ReadScope{c: c, transformerID: "t"}
	err := rc.WithClass("whatever", func(*tree.ClassNode) error { return nil })
	if _, ok := err.(*PhaseViolation); !ok {
		t.Fatalf("expected *PhaseViolation, got %T (%v)", err, err)
	}
}

func TestCopyVsReferenceSemanticsAcrossWrite(t *testing.T) {
	reg := classprovider.NewRegistry(nil)
	newRegisteredClass(t, reg, "com/example/Foo", "original")
	co := NewCoordinator(reg)

	var snap *capture.CopyNode[*tree.ValueNode[string]]
	var mu sync.Mutex

	capturer := &funcTransformer{
		id: "capturer",
		readFn: func(rc *ReadScope) error {
			return rc.WithClass("com/example/Foo", func(class *tree.ClassNode) error {
				s, err := CopyCapture(rc, class.Methods.Get(0).Name)
				if err != nil {
					return err
				}
				mu.Lock()
				snap = s
				mu.Unlock()
				return nil
			})
		},
	}
	renamer := &funcTransformer{
		id: "renamer",
		readFn: func(rc *ReadScope) error {
			return rc.WithClass("com/example/Foo", func(class *tree.ClassNode) error {
				ref, err := RefCapture[*tree.ValueNode[string]](rc, "com/example/Foo", methodNamePath())
				if err != nil {
					return err
				}
				return AddWrite[*tree.ValueNode[string]](rc, ref, func() *tree.ValueNode[string] {
					return tree.NewValue("renamed")
				})
			})
		},
	}

	if err := co.Process([]transformerHook{capturer, renamer}, nil); err != nil {
		t.Fatal(err)
	}

	if snap == nil {
		t.Fatal("expected a copy capture to have been taken")
	}
	if snap.Resolve().Get() != "original" {
		t.Fatalf("copy capture should be immune to the later write, got %q", snap.Resolve().Get())
	}

	p, _ := reg.Get("com/example/Foo")
	class, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if class.Methods.Get(0).Name.Get() != "renamed" {
		t.Fatalf("expected the live tree to reflect the write, got %q", class.Methods.Get(0).Name.Get())
	}
}

func TestWriteOnCopyCaptureRejected(t *testing.T) {
	reg := classprovider.NewRegistry(nil)
	newRegisteredClass(t, reg, "com/example/Foo", "original")
	co := NewCoordinator(reg)

	var gotErr error
	badWriter := &funcTransformer{
		id: "bad",
		readFn: func(rc *ReadScope) error {
			return rc.WithClass("com/example/Foo", func(class *tree.ClassNode) error {
				cp, err := CopyCapture(rc, class.Methods.Get(0).Name)
				if err != nil {
					return err
				}
				gotErr = AddWrite[*tree.ValueNode[string]](rc, cp, func() *tree.ValueNode[string] {
					return tree.NewValue("x")
				})
				return nil
			})
		},
	}

	if err := co.Process([]transformerHook{badWriter}, nil); err != nil {
		t.Fatal(err)
	}
	if _, ok := gotErr.(*InvalidCaptureTarget); !ok {
		t.Fatalf("expected *InvalidCaptureTarget, got %T (%v)", gotErr, gotErr)
	}
}

func TestClassRequestFixpoint(t *testing.T) {
	reg := classprovider.NewRegistry(nil)
	newRegisteredClass(t, reg, "A", "m")
	newRegisteredClass(t, reg, "B", "m")
	newRegisteredClass(t, reg, "C", "m")
	co := NewCoordinator(reg)

	var mu sync.Mutex
	ran := map[string]bool{}

	chainer := &funcTransformer{
		id: "chainer",
		readFn: func(rc *ReadScope) error {
			return rc.WithClass("A", func(*tree.ClassNode) error {
				mu.Lock()
				ran["A"] = true
				mu.Unlock()
				return rc.WithClass("B", func(*tree.ClassNode) error {
					mu.Lock()
					ran["B"] = true
					mu.Unlock()
					return rc.WithClass("C", func(*tree.ClassNode) error {
						mu.Lock()
						ran["C"] = true
						mu.Unlock()
						return nil
					})
				})
			})
		},
	}

	if err := co.Process([]transformerHook{chainer}, nil); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"A", "B", "C"} {
		if !ran[name] {
			t.Fatalf("expected class %s's callback to have run", name)
		}
	}
}

func TestSliceReplacement(t *testing.T) {
	reg := classprovider.NewRegistry(nil)
	c := newRegisteredClass(t, reg, "com/example/Foo", "a")
	c.Gate().Open()
	for _, name := range []string{"b", "c", "d"} {
		c.Methods.InsertCopy(c.Methods.Len(), tree.NewDetachedList[*tree.MethodNode](tree.KindMethod, []*tree.MethodNode{tree.NewMethod(name, "()V")}))
	}
	c.Gate().Close()
	co := NewCoordinator(reg)

	replacer := &funcTransformer{
		id: "replacer",
		readFn: func(rc *ReadScope) error {
			return rc.WithClass("com/example/Foo", func(class *tree.ClassNode) error {
				ref, err := RefSliceCapture[*tree.MethodNode](rc, "com/example/Foo", []int{5}, 1, 3, true, false)
				if err != nil {
					return err
				}
				return AddWriteSlice[*tree.MethodNode](rc, ref, func() *tree.ListNode[*tree.MethodNode] {
					return tree.NewDetachedList[*tree.MethodNode](tree.KindMethod, []*tree.MethodNode{
						tree.NewMethod("x", "()V"), tree.NewMethod("y", "()V"), tree.NewMethod("z", "()V"),
					})
				})
			})
		},
	}

	if err := co.Process([]transformerHook{replacer}, nil); err != nil {
		t.Fatal(err)
	}

	p, _ := reg.Get("com/example/Foo")
	class, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"a", "x", "y", "z", "d"}
	if class.Methods.Len() != len(want) {
		t.Fatalf("expected %d methods, got %d", len(want), class.Methods.Len())
	}
	for i, name := range want {
		if got := class.Methods.Get(i).Name.Get(); got != name {
			t.Fatalf("method %d: expected %q, got %q", i, name, got)
		}
	}
}

func TestCycleDetectionSurfacesFromProcess(t *testing.T) {
	reg := classprovider.NewRegistry(nil)
	co := NewCoordinator(reg)

	a := &funcTransformer{id: "A", applyFn: func(d *Declaration) error { return d.AddRoundDependency("B") }}
	b := &funcTransformer{id: "B", applyFn: func(d *Declaration) error { return d.AddRoundDependency("A") }}

	err := co.Process([]transformerHook{a, b}, []string{})
	if err == nil {
		t.Fatal("expected a cyclic dependency error")
	}
	if _, ok := err.(*scheduler.CyclicDependency); !ok {
		t.Fatalf("expected *scheduler.CyclicDependency, got %T (%v)", err, err)
	}
}
