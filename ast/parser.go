package ast

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var verilogLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*(?s:.*?)\*/`},
	{Name: "Directive", Pattern: "`[^\\n]*"},
	{Name: "Number", Pattern: `[0-9]*'[sS]?[bBoOdDhH][0-9a-fA-FxXzZ_?]+|[0-9][0-9_]*`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},
	{Name: "Operator", Pattern: `~\^|\^~|&&|\|\||[~!&|^=]`},
	{Name: "Punct", Pattern: `[()\[\]:;,]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var verilogParser = participle.MustBuild[sourceGrammar](
	participle.Lexer(verilogLexer),
	participle.Elide("Whitespace", "Comment", "Directive"),
	participle.UseLookahead(2),
)

type sourceGrammar struct {
	Modules []*moduleGrammar `@@*`
}

type moduleGrammar struct {
	Pos   lexer.Position
	Name  string         `"module" @Ident`
	Ports []*portGrammar `( "(" ( @@ ( "," @@ )* )? ")" )? ";"`
	Items []*itemGrammar `@@* "endmodule"`
}

type portGrammar struct {
	Pos       lexer.Position
	Direction string        `@( "input" | "output" | "inout" )?`
	Net       string        `@( "wire" | "reg" )?`
	Range     *rangeGrammar `@@?`
	Name      string        `@Ident`
}

type rangeGrammar struct {
	MSB string `"[" @Number`
	LSB string `":" @Number "]"`
}

type itemGrammar struct {
	Decl   *declGrammar   `  @@`
	Assign *assignGrammar `| @@`
	Gate   *gateGrammar   `| @@`
}

type declGrammar struct {
	Pos   lexer.Position
	Class string         `@( "input" | "output" | "inout" | "wire" | "reg" )`
	Net   string         `@( "wire" | "reg" )?`
	Range *rangeGrammar  `@@?`
	Names []*nameGrammar `@@ ( "," @@ )* ";"`
}

type nameGrammar struct {
	Pos  lexer.Position
	Name string `@Ident`
}

type assignGrammar struct {
	Pos         lexer.Position
	Assignments []*assignmentGrammar `"assign" @@ ( "," @@ )* ";"`
}

type assignmentGrammar struct {
	Target *nameGrammar `@@ "="`
	Value  *exprGrammar `@@`
}

type gateGrammar struct {
	Pos       lexer.Position
	Gate      string         `@( "and" | "or" | "nand" | "nor" | "xor" | "xnor" | "not" | "buf" )`
	Name      string         `@Ident? "("`
	Terminals []*nameGrammar `@@ ( "," @@ )* ")" ";"`
}

type exprGrammar struct {
	Head *unaryGrammar `@@`
	Tail []*opGrammar  `@@*`
}

type opGrammar struct {
	Op      string        `@( "||" | "&&" | "|" | "~^" | "^~" | "^" | "&" )`
	Operand *unaryGrammar `@@`
}

type unaryGrammar struct {
	Pos     lexer.Position
	Ops     []string        `@( "~" | "!" )*`
	Operand *primaryGrammar `@@`
}

type primaryGrammar struct {
	Pos    lexer.Position
	Ident  *string      `  @Ident`
	Number *string      `| @Number`
	Sub    *exprGrammar `| "(" @@ ")"`
}

// binary operator precedence, higher binds tighter
var precedence = map[string]int{
	"||": 1,
	"&&": 2,
	"|":  3,
	"^":  4,
	"~^": 4,
	"^~": 4,
	"&":  5,
}

var ErrNoInput = errors.New("no input files")

// ParseFiles parses every file and merges their modules into one Source.
func ParseFiles(paths []string) (*Source, []Directive, error) {
	if len(paths) == 0 {
		return nil, nil, ErrNoInput
	}

	src := NewSource(nil)
	var directives []Directive
	for _, path := range paths {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, nil, err
		}
		s, d, err := ParseString(path, string(buf))
		if err != nil {
			return nil, nil, err
		}
		src.Modules = append(src.Modules, s.Modules...)
		directives = append(directives, d...)
	}
	return src, directives, nil
}

func ParseString(filename, text string) (*Source, []Directive, error) {
	g, err := verilogParser.ParseString(filename, text)
	if err != nil {
		return nil, nil, err
	}
	src, err := g.build()
	if err != nil {
		return nil, nil, err
	}
	directives, err := collectDirectives(filename, text)
	if err != nil {
		return nil, nil, err
	}
	return src, directives, nil
}

// collectDirectives lexes text so backticks inside comments are not taken
// for directives.
func collectDirectives(filename, text string) ([]Directive, error) {
	lex, err := verilogLexer.LexString(filename, text)
	if err != nil {
		return nil, err
	}
	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}

	directive := verilogLexer.Symbols()["Directive"]
	var directives []Directive
	for _, tok := range tokens {
		if tok.Type == directive {
			directives = append(directives, Directive{
				File: filename,
				Line: tok.Pos.Line,
				Text: strings.TrimSpace(tok.Value),
			})
		}
	}
	return directives, nil
}

func (g *sourceGrammar) build() (*Source, error) {
	modules := make([]*ModuleDef, 0, len(g.Modules))
	for _, m := range g.Modules {
		mod, err := m.build()
		if err != nil {
			return nil, err
		}
		modules = append(modules, mod)
	}
	return NewSource(modules), nil
}

func (g *moduleGrammar) build() (*ModuleDef, error) {
	m := &ModuleDef{Name: g.Name, line: g.Pos.Line}

	var prev *Ioport
	for _, p := range g.Ports {
		port := &Ioport{
			Direction: Direction(p.Direction),
			Net:       p.Net,
			Width:     p.Range.build(),
			Name:      p.Name,
			line:      p.Pos.Line,
		}
		bare := port.Direction == NoDirection && port.Net == "" && port.Width == nil
		switch {
		case bare && prev != nil && prev.Direction != NoDirection:
			// ANSI headers carry direction, net kind and range over to following names
			port.Direction = prev.Direction
			port.Net = prev.Net
			port.Width = prev.Width
		case bare:
		case port.Direction == NoDirection:
			return nil, fmt.Errorf("%s: port %s has no direction", p.Pos, p.Name)
		case prev != nil && prev.Direction == NoDirection:
			return nil, fmt.Errorf("%s: mixed ANSI and non-ANSI port declarations", p.Pos)
		}
		m.Ports = append(m.Ports, port)
		prev = port
	}

	for _, item := range g.Items {
		switch {
		case item.Decl != nil:
			m.Items = append(m.Items, item.Decl.build())
		case item.Assign != nil:
			for _, a := range item.Assign.Assignments {
				m.Items = append(m.Items, &Assign{
					Target: a.Target.build(),
					Value:  a.Value.build(),
					line:   a.Target.Pos.Line,
				})
			}
		case item.Gate != nil:
			m.Items = append(m.Items, item.Gate.build())
		}
	}
	return m, nil
}

func (g *rangeGrammar) build() *Width {
	if g == nil {
		return nil
	}
	return &Width{MSB: g.MSB, LSB: g.LSB}
}

func (g *nameGrammar) build() *Identifier {
	return &Identifier{Name: g.Name, line: g.Pos.Line}
}

func (g *declGrammar) build() *Decl {
	d := &Decl{Class: g.Class, Net: g.Net, Width: g.Range.build(), line: g.Pos.Line}
	for _, n := range g.Names {
		d.Names = append(d.Names, n.build())
	}
	return d
}

func (g *gateGrammar) build() *GateInstance {
	gate := &GateInstance{Gate: g.Gate, Name: g.Name, line: g.Pos.Line}
	for _, t := range g.Terminals {
		gate.Terminals = append(gate.Terminals, t.build())
	}
	return gate
}

func (g *exprGrammar) build() Expr {
	operands := []Expr{g.Head.build()}
	ops := make([]string, 0, len(g.Tail))
	for _, t := range g.Tail {
		ops = append(ops, t.Op)
		operands = append(operands, t.Operand.build())
	}

	i := 0
	var climb func(minPrec int) Expr
	climb = func(minPrec int) Expr {
		left := operands[i]
		for i < len(ops) && precedence[ops[i]] >= minPrec {
			op := ops[i]
			i++
			right := climb(precedence[op] + 1)
			left = &BinaryOp{Op: op, Left: left, Right: right, line: left.Line()}
		}
		return left
	}
	return climb(1)
}

func (g *unaryGrammar) build() Expr {
	e := g.Operand.build()
	// ~!a applies ! first
	for i := len(g.Ops) - 1; i >= 0; i-- {
		e = &UnaryOp{Op: g.Ops[i], Operand: e, line: g.Pos.Line}
	}
	return e
}

func (g *primaryGrammar) build() Expr {
	switch {
	case g.Ident != nil:
		return &Identifier{Name: *g.Ident, line: g.Pos.Line}
	case g.Number != nil:
		return &IntConst{Value: *g.Number, line: g.Pos.Line}
	default:
		return g.Sub.build()
	}
}
