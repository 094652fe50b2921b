// internal/tree/class.go
// Composite node variants for the parts of a classfile transformers actually
// rewrite: the class itself, its methods, fields, method parameters and
// instructions. Each is a fixed-shape composite rather than a generic
// attribute bag, matching the teacher's preference for typed structs over
// map[string]any payloads (see pkg/flamegraph.Frame's typed Name/Value/
// Children, adapted here to a richer fixed arity).
package tree

// Modifier bit flags, mirroring the small subset of JVM access flags the
// subtype oracle and transformers need to reason about.
const (
	ModPublic Int = 0x0001
	ModPrivate Int = 0x0002
	ModProtected Int = 0x0004
	ModStatic Int = 0x0008
	ModFinal Int = 0x0010
	ModInterface Int = 0x0200
	ModAbstract Int = 0x0400
)

// Int is the scalar type used for modifier flags and instruction operands;
// named so call sites read ModPublic etc. instead of bare int64 literals.
type Int = int64

// compositeBase is embedded by every fixed-shape composite. ordered holds the
// same node pointers as the typed accessor fields, in the fixed order the
// spec mandates for Children().
type compositeBase struct {
	base
	ordered []Node
}

func (c *compositeBase) Children() []Node { return c.ordered }

func (c *compositeBase) setGate(g *Gate) {
	c.g = g
	for _, n := range c.ordered {
		n.setGate(g)
	}
}

func attachAll(parent Node, children ...Node) []Node {
	for _, c := range children {
		c.setParent(parent)
	}
	return children
}

// ---------------------------------------------------------------- Parameter

// ParameterNode describes one formal parameter of a method.
type ParameterNode struct {
	compositeBase
	Name       *ValueNode[string]
	Descriptor *ValueNode[string]
	Modifiers  *ListNode[*ValueNode[Int]]
}

func NewParameter(name, descriptor string) *ParameterNode {
	p := &ParameterNode{
		Name:       NewValue(name),
		Descriptor: NewValue(descriptor),
		Modifiers:  NewList[*ValueNode[Int]](KindValue),
	}
	p.ordered = attachAll(p, p.Name, p.Descriptor, p.Modifiers)
	return p
}

func (p *ParameterNode) Kind() Kind { return KindParameter }

func (p *ParameterNode) CopyFrom(other Node) {
	p.gate().checkOpen("ParameterNode.CopyFrom")
	src, ok := other.(*ParameterNode)
	if !ok {
		panic(&KindMismatchError{Dst: KindParameter, Src: other.Kind()})
	}
	p.Name.CopyFrom(src.Name)
	p.Descriptor.CopyFrom(src.Descriptor)
	p.Modifiers.CopyFrom(src.Modifiers)
}

func (p *ParameterNode) DeepCopy() Node {
	out := NewParameter(p.Name.Get(), p.Descriptor.Get())
	cloneListInto(out.Modifiers, p.Modifiers)
	return out
}

// ---------------------------------------------------------------- Instruction

// InstructionNode is one bytecode instruction: an opcode plus its operand
// list. The reader is responsible for populating Operands in whatever order
// the instruction's format requires; this tree makes no assumption about
// operand semantics.
type InstructionNode struct {
	compositeBase
	Opcode   *ValueNode[Int]
	Operands *ListNode[*ValueNode[Int]]
}

func NewInstruction(opcode Int) *InstructionNode {
	i := &InstructionNode{
		Opcode:   NewValue(opcode),
		Operands: NewList[*ValueNode[Int]](KindValue),
	}
	i.ordered = attachAll(i, i.Opcode, i.Operands)
	return i
}

func (i *InstructionNode) Kind() Kind { return KindInstruction }

func (i *InstructionNode) CopyFrom(other Node) {
	i.gate().checkOpen("InstructionNode.CopyFrom")
	src, ok := other.(*InstructionNode)
	if !ok {
		panic(&KindMismatchError{Dst: KindInstruction, Src: other.Kind()})
	}
	i.Opcode.CopyFrom(src.Opcode)
	i.Operands.CopyFrom(src.Operands)
}

func (i *InstructionNode) DeepCopy() Node {
	out := NewInstruction(i.Opcode.Get())
	cloneListInto(out.Operands, i.Operands)
	return out
}

// ---------------------------------------------------------------- Field

// FieldNode describes one class field.
type FieldNode struct {
	compositeBase
	Name       *ValueNode[string]
	Descriptor *ValueNode[string]
	Modifiers  *ListNode[*ValueNode[Int]]
}

func NewField(name, descriptor string) *FieldNode {
	f := &FieldNode{
		Name:       NewValue(name),
		Descriptor: NewValue(descriptor),
		Modifiers:  NewList[*ValueNode[Int]](KindValue),
	}
	f.ordered = attachAll(f, f.Name, f.Descriptor, f.Modifiers)
	return f
}

func (f *FieldNode) Kind() Kind { return KindField }

func (f *FieldNode) CopyFrom(other Node) {
	f.gate().checkOpen("FieldNode.CopyFrom")
	src, ok := other.(*FieldNode)
	if !ok {
		panic(&KindMismatchError{Dst: KindField, Src: other.Kind()})
	}
	f.Name.CopyFrom(src.Name)
	f.Descriptor.CopyFrom(src.Descriptor)
	f.Modifiers.CopyFrom(src.Modifiers)
}

func (f *FieldNode) DeepCopy() Node {
	out := NewField(f.Name.Get(), f.Descriptor.Get())
	cloneListInto(out.Modifiers, f.Modifiers)
	return out
}

// ---------------------------------------------------------------- Method

// MethodNode describes one class method, including its bytecode body.
type MethodNode struct {
	compositeBase
	Name         *ValueNode[string]
	Descriptor   *ValueNode[string]
	Modifiers    *ListNode[*ValueNode[Int]]
	Parameters   *ListNode[*ParameterNode]
	Instructions *ListNode[*InstructionNode]
}

func NewMethod(name, descriptor string) *MethodNode {
	m := &MethodNode{
		Name:         NewValue(name),
		Descriptor:   NewValue(descriptor),
		Modifiers:    NewList[*ValueNode[Int]](KindValue),
		Parameters:   NewList[*ParameterNode](KindParameter),
		Instructions: NewList[*InstructionNode](KindInstruction),
	}
	m.ordered = attachAll(m, m.Name, m.Descriptor, m.Modifiers, m.Parameters, m.Instructions)
	return m
}

func (m *MethodNode) Kind() Kind { return KindMethod }

func (m *MethodNode) CopyFrom(other Node) {
	m.gate().checkOpen("MethodNode.CopyFrom")
	src, ok := other.(*MethodNode)
	if !ok {
		panic(&KindMismatchError{Dst: KindMethod, Src: other.Kind()})
	}
	m.Name.CopyFrom(src.Name)
	m.Descriptor.CopyFrom(src.Descriptor)
	m.Modifiers.CopyFrom(src.Modifiers)
	m.Parameters.CopyFrom(src.Parameters)
	m.Instructions.CopyFrom(src.Instructions)
}

func (m *MethodNode) DeepCopy() Node {
	out := NewMethod(m.Name.Get(), m.Descriptor.Get())
	cloneListInto(out.Modifiers, m.Modifiers)
	cloneListInto(out.Parameters, m.Parameters)
	cloneListInto(out.Instructions, m.Instructions)
	return out
}

// ---------------------------------------------------------------- Class

// ClassNode is the root of a classfile's tree. Its Parent is always nil.
type ClassNode struct {
	compositeBase
	Name         *ValueNode[string]
	Super        *ValueNode[string]
	Modifiers    *ListNode[*ValueNode[Int]]
	Interfaces   *ListNode[*ValueNode[string]]
	Fields       *ListNode[*FieldNode]
	Methods      *ListNode[*MethodNode]
	InnerClasses *ListNode[*ValueNode[string]]

	gatePtr *Gate
}

// NewClassNode constructs a fresh class tree with its own, initially closed,
// Gate. Readers open the gate (see rw.Reader) while populating children.
func NewClassNode(name, super string) *ClassNode {
	g := NewGate()
	c := &ClassNode{
		Name:         NewValue(name),
		Super:        NewValue(super),
		Modifiers:    NewList[*ValueNode[Int]](KindValue),
		Interfaces:   NewList[*ValueNode[string]](KindValue),
		Fields:       NewList[*FieldNode](KindField),
		Methods:      NewList[*MethodNode](KindMethod),
		InnerClasses: NewList[*ValueNode[string]](KindValue),
		gatePtr:      g,
	}
	c.ordered = attachAll(c, c.Name, c.Super, c.Modifiers, c.Interfaces, c.Fields, c.Methods, c.InnerClasses)
	c.setGate(g)
	return c
}

func (c *ClassNode) Kind() Kind { return KindClass }

// Gate returns the Gate governing this class's entire subtree.
func (c *ClassNode) Gate() *Gate { return c.gatePtr }

func (c *ClassNode) CopyFrom(other Node) {
	c.gate().checkOpen("ClassNode.CopyFrom")
	src, ok := other.(*ClassNode)
	if !ok {
		panic(&KindMismatchError{Dst: KindClass, Src: other.Kind()})
	}
	c.Name.CopyFrom(src.Name)
	c.Super.CopyFrom(src.Super)
	c.Modifiers.CopyFrom(src.Modifiers)
	c.Interfaces.CopyFrom(src.Interfaces)
	c.Fields.CopyFrom(src.Fields)
	c.Methods.CopyFrom(src.Methods)
	c.InnerClasses.CopyFrom(src.InnerClasses)
}

func (c *ClassNode) DeepCopy() Node {
	out := NewClassNode(c.Name.Get(), c.Super.Get())
	cloneListInto(out.Modifiers, c.Modifiers)
	cloneListInto(out.Interfaces, c.Interfaces)
	cloneListInto(out.Fields, c.Fields)
	cloneListInto(out.Methods, c.Methods)
	cloneListInto(out.InnerClasses, c.InnerClasses)
	return out
}

// IsInterface scans the modifiers list for the interface bit, used by the
// subtype oracle without needing a separate boolean field kept in sync.
func (c *ClassNode) IsInterface() bool {
	for i := 0; i < c.Modifiers.Len(); i++ {
		if c.Modifiers.Get(i).Get()&ModInterface != 0 {
			return true
		}
	}
	return false
}
