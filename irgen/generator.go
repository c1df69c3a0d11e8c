package irgen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fexolm/vsmoke/ast"
	"github.com/fexolm/vsmoke/ir"
)

var ErrUnsupported = errors.New("unsupported construct")

var binaryOps = map[string]ir.Op{
	"&":  ir.And,
	"&&": ir.And,
	"|":  ir.Or,
	"||": ir.Or,
	"^":  ir.Xor,
	"~^": ir.Xnor,
	"^~": ir.Xnor,
}

var bases = map[byte]int{'b': 2, 'o': 8, 'd': 10, 'h': 16}

// literalValue evaluates a plain or based integer literal. Literals with x or
// z digits have no single value.
func literalValue(v string) (uint64, bool) {
	v = strings.ToLower(strings.ReplaceAll(v, "_", ""))
	size, digits, based := strings.Cut(v, "'")
	if !based {
		n, err := strconv.ParseUint(v, 10, 64)
		return n, err == nil
	}
	if size != "" {
		if n, err := strconv.ParseUint(size, 10, 64); err != nil || n == 0 {
			return 0, false
		}
	}
	digits = strings.TrimPrefix(digits, "s")
	if digits == "" {
		return 0, false
	}
	base, ok := bases[digits[0]]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseUint(digits[1:], base, 64)
	return n, err == nil
}

// constantOp maps a literal to the constant driver for a single bit.
func constantOp(v string) (ir.Op, bool) {
	if size, _, based := strings.Cut(v, "'"); based && size != "" {
		if n, ok := literalValue(size); !ok || n != 1 {
			return "", false
		}
	}
	switch n, ok := literalValue(v); {
	case !ok:
		return "", false
	case n == 0:
		return ir.Const0, true
	case n == 1:
		return ir.Const1, true
	}
	return "", false
}

// GenerateIR lowers the module named top into a single-bit netlist.
func GenerateIR(src *ast.Source, top string) (*ir.Module, error) {
	mod := src.Module(top)
	if mod == nil {
		return nil, fmt.Errorf("module %q not found", top)
	}

	g := &generator{
		mod:       &ir.Module{Name: mod.Name},
		direction: make(map[string]ast.Direction),
		declared:  make(map[string]struct{}),
	}
	if err := g.collectNets(mod); err != nil {
		return nil, err
	}
	if err := g.compileItems(mod); err != nil {
		return nil, err
	}
	if err := g.validate(); err != nil {
		return nil, err
	}
	return g.mod, nil
}

type generator struct {
	mod       *ir.Module
	direction map[string]ast.Direction
	declared  map[string]struct{}
	temps     int
}

func (g *generator) declare(name string, width *ast.Width, line int) error {
	if !singleBit(width) {
		return fmt.Errorf("line %d: net %s%s: multi-bit nets: %w", line, name, width, ErrUnsupported)
	}
	if _, ok := g.declared[name]; !ok {
		g.declared[name] = struct{}{}
		g.mod.Nets = append(g.mod.Nets, name)
	}
	return nil
}

// singleBit reports whether width selects one bit, as [0:0] or [3:3] do.
func singleBit(width *ast.Width) bool {
	if width == nil {
		return true
	}
	msb, ok := literalValue(width.MSB)
	if !ok {
		return false
	}
	lsb, ok := literalValue(width.LSB)
	return ok && msb == lsb
}

func (g *generator) collectNets(mod *ast.ModuleDef) error {
	var order []string
	for _, p := range mod.Ports {
		if err := g.declare(p.Name, p.Width, p.Line()); err != nil {
			return err
		}
		order = append(order, p.Name)
		if p.Direction != ast.NoDirection {
			g.direction[p.Name] = p.Direction
		}
	}

	for _, item := range mod.Items {
		d, ok := item.(*ast.Decl)
		if !ok {
			continue
		}
		for _, n := range d.Names {
			if err := g.declare(n.Name, d.Width, d.Line()); err != nil {
				return err
			}
			switch dir := ast.Direction(d.Class); dir {
			case ast.Input, ast.Output, ast.Inout:
				g.direction[n.Name] = dir
			}
		}
	}

	for _, name := range order {
		switch g.direction[name] {
		case ast.Input:
			g.mod.Inputs = append(g.mod.Inputs, name)
		case ast.Output:
			g.mod.Outputs = append(g.mod.Outputs, name)
		case ast.Inout:
			return fmt.Errorf("port %s: inout ports: %w", name, ErrUnsupported)
		default:
			return fmt.Errorf("port %s has no direction", name)
		}
	}
	return nil
}

func (g *generator) compileItems(mod *ast.ModuleDef) error {
	for _, item := range mod.Items {
		switch it := item.(type) {
		case *ast.Assign:
			if err := g.checkDeclared(it.Target); err != nil {
				return err
			}
			if _, err := g.lower(it.Value, it.Target.Name); err != nil {
				return err
			}
		case *ast.GateInstance:
			if err := g.compileGate(it); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *generator) compileGate(inst *ast.GateInstance) error {
	for _, t := range inst.Terminals {
		if err := g.checkDeclared(t); err != nil {
			return err
		}
	}
	inputs := make([]string, 0, len(inst.Terminals)-1)
	for _, t := range inst.Terminals[1:] {
		inputs = append(inputs, t.Name)
	}
	return g.emit(ir.Op(inst.Gate), inputs, inst.Terminals[0].Name, inst.Line())
}

func (g *generator) checkDeclared(id *ast.Identifier) error {
	if _, ok := g.declared[id.Name]; !ok {
		return fmt.Errorf("line %d: undeclared net %s", id.Line(), id.Name)
	}
	return nil
}

// temp allocates a fresh net, skipping names the module already declares.
func (g *generator) temp() string {
	for {
		name := fmt.Sprintf("_t%d", g.temps)
		g.temps++
		if _, taken := g.declared[name]; !taken {
			g.declared[name] = struct{}{}
			g.mod.Nets = append(g.mod.Nets, name)
			return name
		}
	}
}

// lower emits gates computing e and returns the net holding the result.
// With out empty a temporary net is allocated when a gate is needed.
func (g *generator) lower(e ast.Expr, out string) (string, error) {
	switch x := e.(type) {
	case *ast.Identifier:
		if err := g.checkDeclared(x); err != nil {
			return "", err
		}
		if out == "" {
			return x.Name, nil
		}
		return out, g.emit(ir.Buf, []string{x.Name}, out, x.Line())
	case *ast.IntConst:
		op, ok := constantOp(x.Value)
		if !ok {
			return "", fmt.Errorf("line %d: constant %s: %w", x.Line(), x.Value, ErrUnsupported)
		}
		if out == "" {
			out = g.temp()
		}
		return out, g.emit(op, nil, out, x.Line())
	case *ast.UnaryOp:
		in, err := g.lower(x.Operand, "")
		if err != nil {
			return "", err
		}
		if out == "" {
			out = g.temp()
		}
		return out, g.emit(ir.Not, []string{in}, out, x.Line())
	case *ast.BinaryOp:
		op, ok := binaryOps[x.Op]
		if !ok {
			return "", fmt.Errorf("line %d: operator %s: %w", x.Line(), x.Op, ErrUnsupported)
		}
		l, err := g.lower(x.Left, "")
		if err != nil {
			return "", err
		}
		r, err := g.lower(x.Right, "")
		if err != nil {
			return "", err
		}
		if out == "" {
			out = g.temp()
		}
		return out, g.emit(op, []string{l, r}, out, x.Line())
	}
	return "", fmt.Errorf("expression %s: %w", e.Kind(), ErrUnsupported)
}

func (g *generator) emit(op ir.Op, inputs []string, out string, line int) error {
	lo, hi := op.Arity()
	if len(inputs) < lo || (hi >= 0 && len(inputs) > hi) {
		return fmt.Errorf("line %d: %s gate with %d inputs", line, op, len(inputs))
	}
	if g.direction[out] == ast.Input {
		return fmt.Errorf("line %d: input %s is driven inside the module", line, out)
	}
	if g.mod.Driver(out) != nil {
		return fmt.Errorf("line %d: net %s has multiple drivers", line, out)
	}
	g.mod.Gates = append(g.mod.Gates, &ir.Gate{Op: op, Inputs: inputs, Output: out})
	return nil
}

func (g *generator) validate() error {
	for _, out := range g.mod.Outputs {
		if g.mod.Driver(out) == nil {
			return fmt.Errorf("output %s is not driven", out)
		}
	}
	return nil
}
