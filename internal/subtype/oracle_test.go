package subtype

import (
	"context"
	"errors"
	"testing"

	"github.com/nodeforge/classforge/internal/classprovider"
	"github.com/nodeforge/classforge/internal/tree"
)

// fakeHeaderReader treats the bytecode payload itself as "name|super|iface"
// so tests don't need a real binary format.
type fakeHeaderReader struct{ calls int }

func (f *fakeHeaderReader) Read(ctx context.Context, internalName string, bc []byte) (*tree.ClassNode, error) {
	panic("not used in these tests")
}

func (f *fakeHeaderReader) ReadHeader(ctx context.Context, internalName string, bc []byte) (string, bool, error) {
	f.calls++
	rec, ok := headerTable[string(bc)]
	if !ok {
		return "", false, errors.New("unknown header token")
	}
	return rec.super, rec.iface, nil
}

type headerRec struct {
	super string
	iface bool
}

var headerTable = map[string]headerRec{
	"A": {super: "java/lang/Object"},
	"B": {super: "A"},
	"C": {super: "A"},
	"D": {super: "java/lang/Object"},
	"I": {super: "java/lang/Object", iface: true},
}

func newOracle() (*Oracle, *classprovider.Registry, *fakeHeaderReader) {
	reg := classprovider.NewRegistry(nil)
	hr := &fakeHeaderReader{}
	for name := range headerTable {
		name := name
		p := classprovider.New(name, func(ctx context.Context) ([]byte, error) { return []byte(name), nil }, hr)
		reg.Put(name, p)
	}
	return New(reg, hr, nil), reg, hr
}

func TestCommonSuperClassSharedAncestor(t *testing.T) {
	o, _, _ := newOracle()
	got, err := o.CommonSuperClass(context.Background(), "B", "C")
	if err != nil {
		t.Fatal(err)
	}
	if got != "A" {
		t.Fatalf("expected common ancestor A, got %s", got)
	}
}

func TestCommonSuperClassUnrelatedFallsBackToRoot(t *testing.T) {
	o, _, _ := newOracle()
	got, err := o.CommonSuperClass(context.Background(), "B", "D")
	if err != nil {
		t.Fatal(err)
	}
	if got != RootType {
		t.Fatalf("expected %s, got %s", RootType, got)
	}
}

func TestCommonSuperClassInterfaceFallsBackToRoot(t *testing.T) {
	o, _, _ := newOracle()
	got, err := o.CommonSuperClass(context.Background(), "B", "I")
	if err != nil {
		t.Fatal(err)
	}
	if got != RootType {
		t.Fatalf("expected %s, got %s", RootType, got)
	}
}

func TestIsDerivedFrom(t *testing.T) {
	o, _, _ := newOracle()
	ok, err := o.IsDerivedFrom(context.Background(), "B", "A")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected B to be derived from A")
	}
	ok, err = o.IsDerivedFrom(context.Background(), "B", "D")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("B should not be derived from D")
	}
}

func TestInfoServedFromLiveTreeOnceModified(t *testing.T) {
	o, reg, hr := newOracle()
	p, _ := reg.Get("B")

	modified := tree.NewClassNode("B", "java/lang/Object")
	p.MarkModified(modified)

	ci, err := o.info(context.Background(), "B")
	if err != nil {
		t.Fatal(err)
	}
	if ci.Super != "java/lang/Object" {
		t.Fatalf("expected info from live tree's superclass, got %s", ci.Super)
	}
	if hr.calls != 0 {
		t.Fatalf("expected no header parse for a modified class, got %d calls", hr.calls)
	}
}

func TestInfoIsCached(t *testing.T) {
	o, _, hr := newOracle()
	ctx := context.Background()
	if _, err := o.info(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	if _, err := o.info(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	if hr.calls != 1 {
		t.Fatalf("expected a single header parse across repeated info() calls, got %d", hr.calls)
	}
}

func TestInvalidateDropsCacheEntry(t *testing.T) {
	o, _, hr := newOracle()
	ctx := context.Background()
	if _, err := o.info(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	o.Invalidate([]string{"A"})
	if _, err := o.info(ctx, "A"); err != nil {
		t.Fatal(err)
	}
	if hr.calls != 2 {
		t.Fatalf("expected a reparse after invalidate, got %d calls", hr.calls)
	}
}

func TestUnregisteredClassWithoutPlatformFails(t *testing.T) {
	reg := classprovider.NewRegistry(nil)
	hr := &fakeHeaderReader{}
	o := New(reg, hr, nil)
	_, err := o.info(context.Background(), "nowhere/Known")
	if err == nil {
		t.Fatal("expected TypeNotPresent")
	}
	if _, ok := err.(*TypeNotPresent); !ok {
		t.Fatalf("expected *TypeNotPresent, got %T", err)
	}
}
