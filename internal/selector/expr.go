// internal/selector/expr.go
// Package selector compiles the small boolean DSL SPEC_FULL.md supplement 5
// adds for withClasses(predicate): a superset of the plain Go-predicate form
// in spec.md §6, letting transformers (and the CLI, via addConfig) express
// class filters as text, e.g.
//
//	name startsWith "com/example/" && public
//	super == "java/lang/Exception" || interface
//
// Grammar (EBNF), adapted from the teacher's internal/alertsengine/expr.go
// recursive-descent arithmetic evaluator — the operator precedence and
// parser shape are kept, the value domain is swapped from float64 metrics
// to class metadata (strings and booleans):
//
//	Expr    = Or ;
//	Or      = And { "||" And } ;
//	And     = Unary { "&&" Unary } ;
//	Unary   = "!" Unary | Primary ;
//	Primary = "(" Expr ")" | Comparison | BoolIdent ;
//	Comparison = Ident CmpOp ( String | Ident ) ;
//	CmpOp   = "==" | "!=" | "startsWith" | "contains" ;
//	BoolIdent = Ident ;
//	Ident   = letter { letter | digit | '_' } ;
//	String  = '"' { any char except '"' } '"' ;
//
// Known identifiers: "name", "super" (string-valued), "public", "private",
// "protected", "static", "final", "interface", "abstract" (bool-valued,
// read off the class's modifier bits / IsInterface()). An unknown
// identifier evaluates to "" (string context) or false (bool context)
// rather than erroring, so a selector stays valid across minor metadata
// additions.
package selector

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nodeforge/classforge/internal/tree"
)

// Predicate evaluates a compiled selector against one class's metadata.
type Predicate func(meta ClassMeta) bool

// ClassMeta is the read-only view a compiled selector evaluates against.
// It is deliberately a flat struct of primitives rather than the live
// *tree.ClassNode, so selectors cannot mutate the tree they are filtering.
type ClassMeta struct {
	Name       string
	Super      string
	Public     bool
	Private    bool
	Protected  bool
	Static     bool
	Final      bool
	Interface  bool
	Abstract   bool
}

// MetaFromClass builds a ClassMeta snapshot from a live class tree,
// scanning its modifier list the same way tree.ClassNode.IsInterface does.
func MetaFromClass(c *tree.ClassNode) ClassMeta {
	m := ClassMeta{Name: c.Name.Get(), Super: c.Super.Get()}
	for i := 0; i < c.Modifiers.Len(); i++ {
		bits := c.Modifiers.Get(i).Get()
		m.Public = m.Public || bits&tree.ModPublic != 0
		m.Private = m.Private || bits&tree.ModPrivate != 0
		m.Protected = m.Protected || bits&tree.ModProtected != 0
		m.Static = m.Static || bits&tree.ModStatic != 0
		m.Final = m.Final || bits&tree.ModFinal != 0
		m.Interface = m.Interface || bits&tree.ModInterface != 0
		m.Abstract = m.Abstract || bits&tree.ModAbstract != 0
	}
	return m
}

var (
	ErrSyntax    = errors.New("selector: syntax error")
	ErrNodeLimit = errors.New("selector: expression too deep")
)

// Compile parses src and returns a Predicate, or an error wrapping
// ErrSyntax/ErrNodeLimit. The caller may cache the Predicate for repeated
// evaluation across many classes.
func Compile(src string) (Predicate, error) {
	p := &parser{s: src, maxNodes: 256}
	n, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.pos < len(p.s) {
		return nil, fmt.Errorf("%w at %d: unexpected %q", ErrSyntax, p.pos, p.s[p.pos:])
	}
	if p.nodeCount > p.maxNodes {
		return nil, ErrNodeLimit
	}
	return func(meta ClassMeta) bool { return n.eval(meta) }, nil
}

// CompileForClass compiles src and returns a predicate directly over
// *tree.ClassNode, the shape withClasses(predicate) expects.
func CompileForClass(src string) (func(*tree.ClassNode) bool, error) {
	pred, err := Compile(src)
	if err != nil {
		return nil, err
	}
	return func(c *tree.ClassNode) bool { return pred(MetaFromClass(c)) }, nil
}

// ---------------------------------------------------------------- AST

type node interface {
	eval(ClassMeta) bool
}

type boolLit bool

func (b boolLit) eval(ClassMeta) bool { return bool(b) }

type logical struct {
	op       string // "&&" | "||"
	lhs, rhs node
}

func (l *logical) eval(m ClassMeta) bool {
	if l.op == "&&" {
		return l.lhs.eval(m) && l.rhs.eval(m)
	}
	return l.lhs.eval(m) || l.rhs.eval(m)
}

type not struct{ child node }

func (n *not) eval(m ClassMeta) bool { return !n.child.eval(m) }

// boolField reads one of the known boolean-valued identifiers; unknown
// identifiers are false.
type boolField struct{ name string }

func (f *boolField) eval(m ClassMeta) bool {
	switch f.name {
	case "public":
		return m.Public
	case "private":
		return m.Private
	case "protected":
		return m.Protected
	case "static":
		return m.Static
	case "final":
		return m.Final
	case "interface":
		return m.Interface
	case "abstract":
		return m.Abstract
	default:
		return false
	}
}

// comparison evaluates Ident CmpOp (String | Ident) over the string-valued
// fields ("name", "super"); an unknown identifier's string value is "".
type comparison struct {
	field string
	op    string // "==" | "!=" | "startsWith" | "contains"
	// exactly one of literal/rhsField is set
	literal  string
	isLit    bool
	rhsField string
}

func stringField(m ClassMeta, name string) string {
	switch name {
	case "name":
		return m.Name
	case "super":
		return m.Super
	default:
		return ""
	}
}

func (c *comparison) eval(m ClassMeta) bool {
	lhs := stringField(m, c.field)
	rhs := c.literal
	if !c.isLit {
		rhs = stringField(m, c.rhsField)
	}
	switch c.op {
	case "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	case "startsWith":
		return strings.HasPrefix(lhs, rhs)
	case "contains":
		return strings.Contains(lhs, rhs)
	default:
		return false
	}
}

// ---------------------------------------------------------------- parser

type parser struct {
	s         string
	pos       int
	nodeCount int
	maxNodes  int
}

func (p *parser) newNode(n node) node {
	p.nodeCount++
	return n
}

func (p *parser) skipWS() {
	for p.pos < len(p.s) {
		r, sz := utf8.DecodeRuneInString(p.s[p.pos:])
		if r != ' ' && r != '\t' && r != '\n' {
			break
		}
		p.pos += sz
	}
}

func (p *parser) match(tok string) bool {
	p.skipWS()
	if strings.HasPrefix(p.s[p.pos:], tok) {
		p.pos += len(tok)
		return true
	}
	return false
}

func (p *parser) parseExpr() (node, error) { return p.parseOr() }

func (p *parser) parseOr() (node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match("||") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = p.newNode(&logical{"||", left, right})
	}
	return left, nil
}

func (p *parser) parseAnd() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.match("&&") {
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = p.newNode(&logical{"&&", left, right})
	}
	return left, nil
}

func (p *parser) parseUnary() (node, error) {
	if p.match("!") {
		child, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return p.newNode(&not{child}), nil
	}
	return p.parsePrimary()
}

var cmpOps = []string{"==", "!=", "startsWith", "contains"}

func (p *parser) parsePrimary() (node, error) {
	p.skipWS()
	if p.match("(") {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if !p.match(")") {
			return nil, ErrSyntax
		}
		return expr, nil
	}

	ident, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	save := p.pos
	p.skipWS()
	for _, op := range cmpOps {
		if p.match(op) {
			p.skipWS()
			if p.pos < len(p.s) && p.s[p.pos] == '"' {
				lit, err := p.parseString()
				if err != nil {
					return nil, err
				}
				return p.newNode(&comparison{field: ident, op: op, literal: lit, isLit: true}), nil
			}
			rhsIdent, err := p.parseIdent()
			if err != nil {
				return nil, err
			}
			return p.newNode(&comparison{field: ident, op: op, rhsField: rhsIdent}), nil
		}
	}
	p.pos = save
	return p.newNode(&boolField{name: ident}), nil
}

func (p *parser) parseIdent() (string, error) {
	p.skipWS()
	start := p.pos
	for p.pos < len(p.s) && (isAlphaNum(p.s[p.pos]) || p.s[p.pos] == '_') {
		p.pos++
	}
	if p.pos == start {
		return "", ErrSyntax
	}
	return p.s[start:p.pos], nil
}

func (p *parser) parseString() (string, error) {
	if p.s[p.pos] != '"' {
		return "", ErrSyntax
	}
	p.pos++
	start := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != '"' {
		p.pos++
	}
	if p.pos >= len(p.s) {
		return "", ErrSyntax
	}
	lit := p.s[start:p.pos]
	p.pos++ // closing quote
	return lit, nil
}

func isAlphaNum(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
