package ast

import (
	"fmt"
	"io"
	"strings"
)

// Node is an element of the syntax tree produced by the parser.
type Node interface {
	Kind() string
	Attr() string
	Line() int
	Children() []Node
}

type Source struct {
	Modules []*ModuleDef
}

func NewSource(modules []*ModuleDef) *Source {
	return &Source{Modules: modules}
}

func (s *Source) Kind() string { return "Source" }
func (s *Source) Attr() string { return "" }

func (s *Source) Line() int {
	if len(s.Modules) == 0 {
		return 1
	}
	return s.Modules[0].Line()
}

func (s *Source) Children() []Node {
	nodes := make([]Node, 0, len(s.Modules))
	for _, m := range s.Modules {
		nodes = append(nodes, m)
	}
	return nodes
}

// Module returns the module with the given name or nil.
func (s *Source) Module(name string) *ModuleDef {
	for _, m := range s.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// Show writes an indented dump of the tree, one node per line.
func (s *Source) Show(w io.Writer) error {
	return Show(w, s)
}

type ModuleDef struct {
	Name  string
	Ports []*Ioport
	Items []Node
	line  int
}

func (m *ModuleDef) Kind() string { return "ModuleDef" }
func (m *ModuleDef) Attr() string { return m.Name }
func (m *ModuleDef) Line() int    { return m.line }

func (m *ModuleDef) Children() []Node {
	nodes := make([]Node, 0, len(m.Ports)+len(m.Items))
	for _, p := range m.Ports {
		nodes = append(nodes, p)
	}
	return append(nodes, m.Items...)
}

type Direction string

const (
	NoDirection Direction = ""
	Input       Direction = "input"
	Output      Direction = "output"
	Inout       Direction = "inout"
)

type Width struct {
	MSB string
	LSB string
}

func (w *Width) String() string {
	if w == nil {
		return ""
	}
	return "[" + w.MSB + ":" + w.LSB + "]"
}

// Ioport is an entry of a module header. Direction is empty for
// non-ANSI headers that only list names.
type Ioport struct {
	Direction Direction
	Net       string
	Width     *Width
	Name      string
	line      int
}

func (p *Ioport) Kind() string { return "Ioport" }

func (p *Ioport) Attr() string {
	return joinAttr(string(p.Direction), p.Net, p.Width.String(), p.Name)
}

func (p *Ioport) Line() int        { return p.line }
func (p *Ioport) Children() []Node { return nil }

// Decl declares one or more nets inside a module body.
type Decl struct {
	Class string
	Net   string
	Width *Width
	Names []*Identifier
	line  int
}

func (d *Decl) Kind() string { return "Decl" }
func (d *Decl) Attr() string { return joinAttr(d.Class, d.Net, d.Width.String()) }
func (d *Decl) Line() int    { return d.line }

func (d *Decl) Children() []Node {
	nodes := make([]Node, 0, len(d.Names))
	for _, n := range d.Names {
		nodes = append(nodes, n)
	}
	return nodes
}

// Assign is a single continuous assignment.
type Assign struct {
	Target *Identifier
	Value  Expr
	line   int
}

func (a *Assign) Kind() string     { return "Assign" }
func (a *Assign) Attr() string     { return "" }
func (a *Assign) Line() int        { return a.line }
func (a *Assign) Children() []Node { return []Node{a.Target, a.Value} }

// GateInstance is a primitive gate. The first terminal is the output.
type GateInstance struct {
	Gate      string
	Name      string
	Terminals []*Identifier
	line      int
}

func (g *GateInstance) Kind() string { return "GateInstance" }
func (g *GateInstance) Attr() string { return joinAttr(g.Gate, g.Name) }
func (g *GateInstance) Line() int    { return g.line }

func (g *GateInstance) Children() []Node {
	nodes := make([]Node, 0, len(g.Terminals))
	for _, t := range g.Terminals {
		nodes = append(nodes, t)
	}
	return nodes
}

type Expr interface {
	Node
	expr()
}

type Identifier struct {
	Name string
	line int
}

func (i *Identifier) Kind() string     { return "Identifier" }
func (i *Identifier) Attr() string     { return i.Name }
func (i *Identifier) Line() int        { return i.line }
func (i *Identifier) Children() []Node { return nil }
func (i *Identifier) expr()            {}

type IntConst struct {
	Value string
	line  int
}

func (c *IntConst) Kind() string     { return "IntConst" }
func (c *IntConst) Attr() string     { return c.Value }
func (c *IntConst) Line() int        { return c.line }
func (c *IntConst) Children() []Node { return nil }
func (c *IntConst) expr()            {}

type UnaryOp struct {
	Op      string
	Operand Expr
	line    int
}

func (u *UnaryOp) Kind() string {
	switch u.Op {
	case "~":
		return "Unot"
	case "!":
		return "Ulnot"
	}
	return "Unary"
}

func (u *UnaryOp) Attr() string     { return "" }
func (u *UnaryOp) Line() int        { return u.line }
func (u *UnaryOp) Children() []Node { return []Node{u.Operand} }
func (u *UnaryOp) expr()            {}

type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
	line  int
}

var binaryKinds = map[string]string{
	"&":  "And",
	"|":  "Or",
	"^":  "Xor",
	"~^": "Xnor",
	"^~": "Xnor",
	"&&": "Land",
	"||": "Lor",
}

func (b *BinaryOp) Kind() string {
	if k, ok := binaryKinds[b.Op]; ok {
		return k
	}
	return "Binary"
}

func (b *BinaryOp) Attr() string     { return "" }
func (b *BinaryOp) Line() int        { return b.line }
func (b *BinaryOp) Children() []Node { return []Node{b.Left, b.Right} }
func (b *BinaryOp) expr()            {}

// Directive is a compiler directive line. Directives are recorded, never expanded.
type Directive struct {
	File string
	Line int
	Text string
}

func Show(w io.Writer, n Node) error {
	return show(w, n, 0)
}

func show(w io.Writer, n Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	var err error
	if attr := n.Attr(); attr != "" {
		_, err = fmt.Fprintf(w, "%s%s: %s (at %d)\n", indent, n.Kind(), attr, n.Line())
	} else {
		_, err = fmt.Fprintf(w, "%s%s: (at %d)\n", indent, n.Kind(), n.Line())
	}
	if err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := show(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func joinAttr(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
