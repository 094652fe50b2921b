package tree

import "testing"

// oneMethodList builds a detached source list holding a single method, for
// use as the otherList argument to InsertCopy. InsertCopy only reads the
// source's children (via DeepCopy), so the source never needs a gate of its
// own — exactly like a Reader building scratch lists before attaching them.
func oneMethodList(m *MethodNode) *ListNode[*MethodNode] {
	l := &ListNode[*MethodNode]{elemKind: KindMethod, children: []*MethodNode{m}}
	return l
}

func newTestClass() *ClassNode {
	c := NewClassNode("com/example/Foo", "java/lang/Object")
	c.Gate().Open()
	c.Methods.InsertCopy(0, oneMethodList(NewMethod("bar", "()V")))
	c.Gate().Close()
	return c
}

func TestParentInvariant(t *testing.T) {
	c := newTestClass()
	walk := func(n Node) {
		for _, child := range n.Children() {
			if child.Parent() != n {
				t.Fatalf("child %v parent mismatch: got %v want %v", child, child.Parent(), n)
			}
		}
	}
	walk(c)
	walk(c.Methods)
	m := c.Methods.Get(0)
	walk(m)
	if m.Parent() != Node(c.Methods) {
		t.Fatalf("method parent should be the methods list")
	}
}

func TestDeepCopyDisjointIdentities(t *testing.T) {
	c := newTestClass()
	clone := c.DeepCopy().(*ClassNode)

	if clone == c {
		t.Fatal("clone must be a distinct object")
	}
	if clone.Name.Get() != c.Name.Get() {
		t.Fatalf("clone name mismatch: %q vs %q", clone.Name.Get(), c.Name.Get())
	}
	if clone.Methods.Get(0) == c.Methods.Get(0) {
		t.Fatal("clone method must not alias the original method node")
	}

	// Mutating the clone must not affect the original.
	clone.Gate().Open()
	clone.Name.Set("com/example/Bar")
	clone.Gate().Close()
	if c.Name.Get() == "com/example/Bar" {
		t.Fatal("mutating clone leaked into original")
	}
}

func TestModificationForbiddenWhenGateClosed(t *testing.T) {
	c := newTestClass() // gate is closed after construction
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic from mutating a closed gate")
		}
		if _, ok := r.(*ModificationForbiddenError); !ok {
			t.Fatalf("expected *ModificationForbiddenError, got %T: %v", r, r)
		}
	}()
	c.Name.Set("should not be allowed")
}

func TestListRemove(t *testing.T) {
	c := NewClassNode("A", "java/lang/Object")
	c.Gate().Open()
	for _, name := range []string{"a", "b", "c", "d"} {
		c.Methods.InsertCopy(c.Methods.Len(), oneMethodList(NewMethod(name, "()V")))
	}
	if c.Methods.Len() != 4 {
		t.Fatalf("expected 4 methods, got %d", c.Methods.Len())
	}
	c.Methods.Remove(1, 3)
	if c.Methods.Len() != 2 {
		t.Fatalf("expected 2 methods after remove, got %d", c.Methods.Len())
	}
	if c.Methods.Get(0).Name.Get() != "a" || c.Methods.Get(1).Name.Get() != "d" {
		t.Fatalf("unexpected remaining methods: %s, %s", c.Methods.Get(0).Name.Get(), c.Methods.Get(1).Name.Get())
	}
	c.Gate().Close()
}

func TestInsertCopyShiftsRight(t *testing.T) {
	c := NewClassNode("A", "java/lang/Object")
	c.Gate().Open()
	c.Methods.InsertCopy(0, oneMethodList(NewMethod("a", "()V")))
	c.Methods.InsertCopy(1, oneMethodList(NewMethod("c", "()V")))
	c.Methods.InsertCopy(1, oneMethodList(NewMethod("b", "()V")))
	c.Gate().Close()

	got := []string{c.Methods.Get(0).Name.Get(), c.Methods.Get(1).Name.Get(), c.Methods.Get(2).Name.Get()}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
}

func TestRemoveNoOpWhenEqual(t *testing.T) {
	c := newTestClass()
	c.Gate().Open()
	before := c.Methods.Len()
	c.Methods.Remove(1, 1)
	if c.Methods.Len() != before {
		t.Fatalf("Remove(n,n) must be a no-op")
	}
	c.Gate().Close()
}

func TestIsInterface(t *testing.T) {
	c := NewClassNode("com/example/Iface", "java/lang/Object")
	c.Gate().Open()
	c.Modifiers.InsertCopy(0, oneValueList(NewValue(ModInterface)))
	c.Gate().Close()
	if !c.IsInterface() {
		t.Fatal("expected IsInterface() to observe the ModInterface flag")
	}
}

func oneValueList(v *ValueNode[Int]) *ListNode[*ValueNode[Int]] {
	return &ListNode[*ValueNode[Int]]{elemKind: KindValue, children: []*ValueNode[Int]{v}}
}
