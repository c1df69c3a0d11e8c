package ir

import (
	"fmt"
	"strings"
)

type Op string

const (
	And    Op = "and"
	Or     Op = "or"
	Nand   Op = "nand"
	Nor    Op = "nor"
	Xor    Op = "xor"
	Xnor   Op = "xnor"
	Not    Op = "not"
	Buf    Op = "buf"
	Const0 Op = "const0"
	Const1 Op = "const1"
)

// Arity returns the allowed number of inputs, maxInputs < 0 meaning unbounded.
func (o Op) Arity() (minInputs, maxInputs int) {
	switch o {
	case Const0, Const1:
		return 0, 0
	case Not, Buf:
		return 1, 1
	default:
		return 2, -1
	}
}

// Gate drives exactly one net.
type Gate struct {
	Op     Op
	Inputs []string
	Output string
}

func (g *Gate) String() string {
	return fmt.Sprintf("%s = %s(%s)", g.Output, g.Op, strings.Join(g.Inputs, ", "))
}

// Module is a flattened single-bit netlist.
type Module struct {
	Name    string
	Inputs  []string
	Outputs []string
	Nets    []string
	Gates   []*Gate
}

func (m *Module) Driver(net string) *Gate {
	for _, g := range m.Gates {
		if g.Output == net {
			return g
		}
	}
	return nil
}

func (m *Module) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "module %s(%s) -> (%s)\n", m.Name, strings.Join(m.Inputs, ", "), strings.Join(m.Outputs, ", "))
	for _, g := range m.Gates {
		fmt.Fprintf(&b, "  %s\n", g)
	}
	return b.String()
}
