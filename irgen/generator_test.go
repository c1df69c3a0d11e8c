package irgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fexolm/vsmoke/ast"
	"github.com/fexolm/vsmoke/ir"
)

func generate(t *testing.T, text string) (*ir.Module, error) {
	t.Helper()
	src, _, err := ast.ParseString("test.v", text)
	require.NoError(t, err)
	require.NotEmpty(t, src.Modules)
	return GenerateIR(src, src.Modules[0].Name)
}

func TestGenerateAndGate(t *testing.T) {
	m, err := generate(t, "module and_gate(input a, b, output y); assign y = a & b; endmodule")
	require.NoError(t, err)

	assert.Equal(t, "and_gate", m.Name)
	assert.Equal(t, []string{"a", "b"}, m.Inputs)
	assert.Equal(t, []string{"y"}, m.Outputs)
	require.Len(t, m.Gates, 1)
	assert.Equal(t, &ir.Gate{Op: ir.And, Inputs: []string{"a", "b"}, Output: "y"}, m.Gates[0])
	assert.Equal(t, "module and_gate(a, b) -> (y)\n  y = and(a, b)\n", m.String())
}

func TestGenerateTemporaries(t *testing.T) {
	m, err := generate(t, "module m(input a, b, output y); assign y = ~a | b; endmodule")
	require.NoError(t, err)

	require.Len(t, m.Gates, 2)
	assert.Equal(t, &ir.Gate{Op: ir.Not, Inputs: []string{"a"}, Output: "_t0"}, m.Gates[0])
	assert.Equal(t, &ir.Gate{Op: ir.Or, Inputs: []string{"_t0", "b"}, Output: "y"}, m.Gates[1])
	assert.Contains(t, m.Nets, "_t0")
}

func TestGenerateTemporariesAvoidDeclaredNets(t *testing.T) {
	m, err := generate(t, "module m(input a, output y); wire _t0; assign _t0 = a; assign y = ~a & _t0; endmodule")
	require.NoError(t, err)

	require.Len(t, m.Gates, 3)
	assert.Equal(t, &ir.Gate{Op: ir.Buf, Inputs: []string{"a"}, Output: "_t0"}, m.Gates[0])
	assert.Equal(t, &ir.Gate{Op: ir.Not, Inputs: []string{"a"}, Output: "_t1"}, m.Gates[1])
	assert.Equal(t, &ir.Gate{Op: ir.And, Inputs: []string{"_t1", "_t0"}, Output: "y"}, m.Gates[2])
	assert.Equal(t, []string{"a", "y", "_t0", "_t1"}, m.Nets)
}

func TestGenerateSingleBitRange(t *testing.T) {
	m, err := generate(t, "module m(input [0:0] a, input wire [3:3] b, output [0:0] y); wire [1_0:10] w; assign w = a; assign y = w | b; endmodule")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, m.Inputs)
	assert.Equal(t, []string{"y"}, m.Outputs)
	assert.Equal(t, ir.Or, m.Driver("y").Op)
}

func TestGenerateConstants(t *testing.T) {
	cases := map[string]ir.Op{
		"0":     ir.Const0,
		"1":     ir.Const1,
		"1'b1":  ir.Const1,
		"1'B1":  ir.Const1,
		"1'h1":  ir.Const1,
		"1'd0":  ir.Const0,
		"1'o1":  ir.Const1,
		"'b0":   ir.Const0,
		"1'sb1": ir.Const1,
		"1'b_1": ir.Const1,
		"32'h0": "",
		"1'bx":  "",
		"2":     "",
		"1'b10": "",
		"8'hff": "",
		"0'b0":  "",
	}
	for value, want := range cases {
		t.Run(value, func(t *testing.T) {
			got, ok := constantOp(value)
			assert.Equal(t, want != "", ok)
			assert.Equal(t, want, got)
		})
	}
}

func TestGenerateBasedConstant(t *testing.T) {
	m, err := generate(t, "module m(input a, output y); assign y = a & 1'H1; endmodule")
	require.NoError(t, err)

	require.Len(t, m.Gates, 2)
	assert.Equal(t, &ir.Gate{Op: ir.Const1, Output: "_t0"}, m.Gates[0])
}

func TestGenerateBuffersPlainAssign(t *testing.T) {
	m, err := generate(t, "module m(input a, output y); assign y = a; endmodule")
	require.NoError(t, err)

	require.Len(t, m.Gates, 1)
	assert.Equal(t, ir.Buf, m.Gates[0].Op)
}

func TestGenerateNonANSIPorts(t *testing.T) {
	m, err := generate(t, `
module half_adder(a, b, sum, carry);
  input a, b;
  output sum, carry;
  xor (sum, a, b);
  and (carry, a, b);
endmodule
`)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, m.Inputs)
	assert.Equal(t, []string{"sum", "carry"}, m.Outputs)
	assert.Equal(t, ir.Xor, m.Driver("sum").Op)
	assert.Equal(t, ir.And, m.Driver("carry").Op)
}

func TestGenerateErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"undeclared", "module m(input a, output y); assign y = a & q; endmodule", "undeclared net q"},
		{"multiple drivers", "module m(input a, output y); assign y = a, y = ~a; endmodule", "multiple drivers"},
		{"driven input", "module m(input a, output y); assign a = y; assign y = 1; endmodule", "input a is driven"},
		{"undriven output", "module m(input a, output y); endmodule", "output y is not driven"},
		{"gate arity", "module m(input a, output y); and (y, a); endmodule", "and gate with 1 inputs"},
		{"no direction", "module m(a, y); input a; assign y = a; endmodule", "port y has no direction"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := generate(t, c.text)
			assert.ErrorContains(t, err, c.want)
		})
	}
}

func TestGenerateUnsupported(t *testing.T) {
	cases := map[string]string{
		"vector":   "module m(input [3:0] a, output y); assign y = a; endmodule",
		"constant": "module m(output y); assign y = 8'hff; endmodule",
		"inout":    "module m(inout a); endmodule",
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := generate(t, text)
			assert.ErrorIs(t, err, ErrUnsupported)
		})
	}
}

func TestGenerateUnknownModule(t *testing.T) {
	src, _, err := ast.ParseString("test.v", "module m; endmodule")
	require.NoError(t, err)

	_, err = GenerateIR(src, "top")
	assert.ErrorContains(t, err, `module "top" not found`)
}
