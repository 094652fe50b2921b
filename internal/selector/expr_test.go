package selector

import (
	"testing"

	"github.com/nodeforge/classforge/internal/tree"
)

func newPublicClass(t *testing.T, name, super string) *tree.ClassNode {
	t.Helper()
	c := tree.NewClassNode(name, super)
	c.Gate().Open()
	c.Modifiers.InsertCopy(0, tree.NewDetachedList[*tree.ValueNode[tree.Int]](tree.KindValue, []*tree.ValueNode[tree.Int]{tree.NewValue(tree.ModPublic)}))
	c.Gate().Close()
	return c
}

func meta(name, super string, mods ...string) ClassMeta {
	m := ClassMeta{Name: name, Super: super}
	for _, mod := range mods {
		switch mod {
		case "public":
			m.Public = true
		case "private":
			m.Private = true
		case "protected":
			m.Protected = true
		case "static":
			m.Static = true
		case "final":
			m.Final = true
		case "interface":
			m.Interface = true
		case "abstract":
			m.Abstract = true
		}
	}
	return m
}

func TestCompileBoolIdent(t *testing.T) {
	pred, err := Compile("public")
	if err != nil {
		t.Fatal(err)
	}
	if !pred(meta("com/example/Foo", "java/lang/Object", "public")) {
		t.Fatal("expected public class to match")
	}
	if pred(meta("com/example/Foo", "java/lang/Object")) {
		t.Fatal("expected non-public class not to match")
	}
}

func TestCompileComparisonOps(t *testing.T) {
	cases := []struct {
		expr string
		m    ClassMeta
		want bool
	}{
		{`name == "com/example/Foo"`, meta("com/example/Foo", ""), true},
		{`name == "com/example/Foo"`, meta("com/example/Bar", ""), false},
		{`name != "com/example/Foo"`, meta("com/example/Bar", ""), true},
		{`name startsWith "com/example/"`, meta("com/example/Foo", ""), true},
		{`name startsWith "org/other/"`, meta("com/example/Foo", ""), false},
		{`super contains "Exception"`, meta("x", "java/lang/RuntimeException"), true},
		{`super contains "Exception"`, meta("x", "java/lang/Object"), false},
	}
	for _, tc := range cases {
		pred, err := Compile(tc.expr)
		if err != nil {
			t.Fatalf("%s: %v", tc.expr, err)
		}
		if got := pred(tc.m); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.expr, got, tc.want)
		}
	}
}

func TestCompileLogicalPrecedenceAndGrouping(t *testing.T) {
	// && binds tighter than ||, matching the grammar's Or > And > Unary tiers.
	pred, err := Compile(`interface || public && final`)
	if err != nil {
		t.Fatal(err)
	}
	if !pred(meta("x", "", "interface")) {
		t.Fatal("interface alone should satisfy the || branch")
	}
	if pred(meta("x", "", "public")) {
		t.Fatal("public without final should not satisfy public && final")
	}
	if !pred(meta("x", "", "public", "final")) {
		t.Fatal("public && final should satisfy the expression")
	}

	grouped, err := Compile(`(interface || public) && final`)
	if err != nil {
		t.Fatal(err)
	}
	if grouped(meta("x", "", "interface")) {
		t.Fatal("parenthesised grouping should require final as well")
	}
	if !grouped(meta("x", "", "interface", "final")) {
		t.Fatal("interface && final should satisfy the grouped expression")
	}
}

func TestCompileNegation(t *testing.T) {
	pred, err := Compile(`!abstract`)
	if err != nil {
		t.Fatal(err)
	}
	if pred(meta("x", "", "abstract")) {
		t.Fatal("expected !abstract to reject an abstract class")
	}
	if !pred(meta("x", "")) {
		t.Fatal("expected !abstract to accept a non-abstract class")
	}
}

func TestCompileUnknownIdentifierIsFalsyOrEmpty(t *testing.T) {
	// Unknown identifiers evaluate to "" (string context) or false (bool
	// context) rather than erroring, per the package doc comment, so a
	// selector keeps compiling across minor metadata additions.
	pred, err := Compile(`unknownFlag`)
	if err != nil {
		t.Fatal(err)
	}
	if pred(meta("x", "")) {
		t.Fatal("unknown boolean identifier should evaluate to false")
	}

	cmp, err := Compile(`unknownField == ""`)
	if err != nil {
		t.Fatal(err)
	}
	if !cmp(meta("x", "")) {
		t.Fatal("unknown string field should evaluate to empty string")
	}
}

func TestCompileSyntaxErrors(t *testing.T) {
	cases := []string{
		``,
		`name ==`,
		`(public`,
		`public &&`,
		`name == "unterminated`,
		`public extra`,
	}
	for _, expr := range cases {
		if _, err := Compile(expr); err == nil {
			t.Fatalf("expected a syntax error for %q", expr)
		}
	}
}

func TestCompileForClassMatchesLiveTree(t *testing.T) {
	pred, err := CompileForClass(`name startsWith "com/example/" && public`)
	if err != nil {
		t.Fatal(err)
	}

	c := newPublicClass(t, "com/example/Widget", "java/lang/Object")
	if !pred(c) {
		t.Fatal("expected the public com/example/Widget class to match")
	}

	other := newPublicClass(t, "org/other/Widget", "java/lang/Object")
	if pred(other) {
		t.Fatal("expected a class outside com/example/ not to match")
	}
}
