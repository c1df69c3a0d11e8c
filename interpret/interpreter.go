package interpret

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fexolm/vsmoke/ir"
)

var ErrCombinationalLoop = errors.New("combinational loop")

// maxTruthTableInputs bounds TruthTable to 65536 rows.
const maxTruthTableInputs = 16

type WireState bool

func (s WireState) String() string {
	if s {
		return "1"
	}
	return "0"
}

type Interpreter struct {
	module *ir.Module
	order  []*ir.Gate
}

// NewInterpreter orders the module's gates so that every gate runs after
// the gates driving its inputs.
func NewInterpreter(m *ir.Module) (*Interpreter, error) {
	drivers := make(map[string]*ir.Gate, len(m.Gates))
	for _, g := range m.Gates {
		drivers[g.Output] = g
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[*ir.Gate]int, len(m.Gates))
	order := make([]*ir.Gate, 0, len(m.Gates))

	var visit func(g *ir.Gate) error
	visit = func(g *ir.Gate) error {
		switch state[g] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w through net %s", ErrCombinationalLoop, g.Output)
		}
		state[g] = visiting
		for _, in := range g.Inputs {
			if d, ok := drivers[in]; ok {
				if err := visit(d); err != nil {
					return err
				}
			}
		}
		state[g] = done
		order = append(order, g)
		return nil
	}

	for _, g := range m.Gates {
		if err := visit(g); err != nil {
			return nil, err
		}
	}
	return &Interpreter{module: m, order: order}, nil
}

// Run evaluates the module for one input vector given in port order.
// Undriven internal nets read as 0.
func (i *Interpreter) Run(inputs []WireState) ([]WireState, error) {
	if len(inputs) != len(i.module.Inputs) {
		return nil, fmt.Errorf("module %s expects %d inputs, got %d", i.module.Name, len(i.module.Inputs), len(inputs))
	}

	wires := make(map[string]WireState, len(i.module.Nets))
	for n, name := range i.module.Inputs {
		wires[name] = inputs[n]
	}

	for _, g := range i.order {
		args := make([]WireState, 0, len(g.Inputs))
		for _, in := range g.Inputs {
			args = append(args, wires[in])
		}
		v, err := eval(g.Op, args)
		if err != nil {
			return nil, err
		}
		wires[g.Output] = v
	}

	outs := make([]WireState, 0, len(i.module.Outputs))
	for _, out := range i.module.Outputs {
		outs = append(outs, wires[out])
	}
	return outs, nil
}

func eval(op ir.Op, args []WireState) (WireState, error) {
	switch op {
	case ir.Const0:
		return false, nil
	case ir.Const1:
		return true, nil
	case ir.Buf:
		return args[0], nil
	case ir.Not:
		return !args[0], nil
	case ir.And, ir.Nand:
		v := WireState(true)
		for _, a := range args {
			v = v && a
		}
		return v != (op == ir.Nand), nil
	case ir.Or, ir.Nor:
		v := WireState(false)
		for _, a := range args {
			v = v || a
		}
		return v != (op == ir.Nor), nil
	case ir.Xor, ir.Xnor:
		v := WireState(false)
		for _, a := range args {
			v = v != a
		}
		return v != (op == ir.Xnor), nil
	}
	return false, fmt.Errorf("unknown gate %s", op)
}

// TruthTable writes one row per input combination, first input as the
// most significant bit.
func (i *Interpreter) TruthTable(w io.Writer) error {
	n := len(i.module.Inputs)
	if n > maxTruthTableInputs {
		return fmt.Errorf("module %s has %d inputs, truth table limited to %d", i.module.Name, n, maxTruthTableInputs)
	}

	if _, err := fmt.Fprintf(w, "%s | %s\n", strings.Join(i.module.Inputs, " "), strings.Join(i.module.Outputs, " ")); err != nil {
		return err
	}

	inputs := make([]WireState, n)
	for row := 0; row < 1<<n; row++ {
		for j := range inputs {
			inputs[j] = row&(1<<(n-1-j)) != 0
		}
		outs, err := i.Run(inputs)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s | %s\n", join(inputs), join(outs)); err != nil {
			return err
		}
	}
	return nil
}

func join(states []WireState) string {
	parts := make([]string, len(states))
	for i, s := range states {
		parts[i] = s.String()
	}
	return strings.Join(parts, " ")
}
