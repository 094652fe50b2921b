package classprovider

import (
	"context"
	"errors"
	"testing"

	"github.com/nodeforge/classforge/internal/tree"
)

type fakeReader struct {
	calls int
	build func() *tree.ClassNode
	err   error
}

func (f *fakeReader) Read(ctx context.Context, internalName string, bc []byte) (*tree.ClassNode, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.build(), nil
}

func newClass(name string) *tree.ClassNode {
	return tree.NewClassNode(name, "java/lang/Object")
}

func TestGetReparsesThenCachesWeakly(t *testing.T) {
	reader := &fakeReader{build: func() *tree.ClassNode { return newClass("com/example/Foo") }}
	p := New("com/example/Foo", func(ctx context.Context) ([]byte, error) { return []byte{0xCA, 0xFE}, nil }, reader)

	c1, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	c2, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Fatal("expected the weak snapshot to be reused across Get calls")
	}
	if reader.calls != 1 {
		t.Fatalf("expected exactly one parse, got %d", reader.calls)
	}
}

func TestMarkModifiedPinsTree(t *testing.T) {
	reader := &fakeReader{build: func() *tree.ClassNode { return newClass("com/example/Foo") }}
	p := New("com/example/Foo", func(ctx context.Context) ([]byte, error) { return nil, nil }, reader)

	modified := newClass("com/example/Foo")
	p.MarkModified(modified)

	got, err := p.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != modified {
		t.Fatal("Get must return the pinned modified tree once set")
	}
	if !p.IsModified() {
		t.Fatal("expected IsModified true after MarkModified")
	}
}

func TestInvalidateForcesReparse(t *testing.T) {
	reader := &fakeReader{build: func() *tree.ClassNode { return newClass("com/example/Foo") }}
	p := New("com/example/Foo", func(ctx context.Context) ([]byte, error) { return nil, nil }, reader)

	if _, err := p.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	p.Invalidate()
	if _, err := p.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if reader.calls != 2 {
		t.Fatalf("expected reparse after invalidate, got %d calls", reader.calls)
	}
}

func TestGetSurfacesIOError(t *testing.T) {
	reader := &fakeReader{err: errors.New("truncated classfile")}
	p := New("com/example/Bad", func(ctx context.Context) ([]byte, error) { return []byte{1}, nil }, reader)

	_, err := p.Get(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected *IOError, got %T", err)
	}
}

func TestRegistryCheckedArtifactDetectsChange(t *testing.T) {
	reg := NewRegistry(nil)
	changed, err := reg.CheckedArtifact("lib.jar", "abc")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("first checksum for a key should report changed")
	}
	changed, err = reg.CheckedArtifact("lib.jar", "abc")
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Fatal("identical checksum should report unchanged")
	}
	changed, err = reg.CheckedArtifact("lib.jar", "def")
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("differing checksum should report changed")
	}
}

func TestRegistryInvalidateAllStalesEveryProvider(t *testing.T) {
	reg := NewRegistry(nil)
	reader := &fakeReader{build: func() *tree.ClassNode { return newClass("com/example/Foo") }}
	p := New("com/example/Foo", func(ctx context.Context) ([]byte, error) { return nil, nil }, reader)
	reg.Put("com/example/Foo", p)

	if _, err := p.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	reg.MarkProcessed()
	if !reg.IsUpToDate() {
		t.Fatal("expected up to date after MarkProcessed")
	}

	reg.InvalidateAll()
	if reg.IsUpToDate() {
		t.Fatal("expected stale after InvalidateAll")
	}
	if _, err := p.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if reader.calls != 2 {
		t.Fatalf("expected reparse after registry-wide invalidate, got %d calls", reader.calls)
	}
}
