package ast

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

func TestParseArchive(t *testing.T) {
	archive, err := txtar.ParseFile("testdata/parse.txtar")
	require.NoError(t, err)

	files := make(map[string]string, len(archive.Files))
	for _, f := range archive.Files {
		files[f.Name] = string(f.Data)
	}

	for _, f := range archive.Files {
		if filepath.Ext(f.Name) != ".v" {
			continue
		}
		base := strings.TrimSuffix(f.Name, ".v")
		t.Run(base, func(t *testing.T) {
			src, _, err := ParseString(f.Name, string(f.Data))

			if want, ok := files[base+".err"]; ok {
				require.Error(t, err)
				assert.Contains(t, err.Error(), strings.TrimSpace(want))
				return
			}

			require.NoError(t, err)
			var b strings.Builder
			require.NoError(t, src.Show(&b))
			assert.Equal(t, files[base+".tree"], b.String())
		})
	}
}

func TestParseStringCollectsDirectives(t *testing.T) {
	text := "`timescale 1ns/1ps\n  `define WIDTH 1\nmodule m;\nendmodule\n"

	src, directives, err := ParseString("d.v", text)
	require.NoError(t, err)
	require.Len(t, src.Modules, 1)

	assert.Equal(t, []Directive{
		{File: "d.v", Line: 1, Text: "`timescale 1ns/1ps"},
		{File: "d.v", Line: 2, Text: "`define WIDTH 1"},
	}, directives)
}

func TestParseStringSkipsDirectivesInComments(t *testing.T) {
	text := "/* disabled:\n`define WIDTH 4\n*/\n// `undef WIDTH\n`default_nettype none\nmodule m;\nendmodule\n"

	_, directives, err := ParseString("c.v", text)
	require.NoError(t, err)

	assert.Equal(t, []Directive{
		{File: "c.v", Line: 5, Text: "`default_nettype none"},
	}, directives)
}

func TestParseStringEmpty(t *testing.T) {
	src, directives, err := ParseString("empty.v", "// nothing here\n")
	require.NoError(t, err)
	assert.Empty(t, src.Modules)
	assert.Empty(t, directives)
	assert.Equal(t, 1, src.Line())
}

func TestParseStringLeftAssociative(t *testing.T) {
	src, _, err := ParseString("l.v", "module m(input a, b, c, output y); assign y = a ^ b ^ c; endmodule")
	require.NoError(t, err)

	assign := src.Modules[0].Items[0].(*Assign)
	outer, ok := assign.Value.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "^", outer.Op)
	assert.Equal(t, "c", outer.Right.(*Identifier).Name)

	inner, ok := outer.Left.(*BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "a", inner.Left.(*Identifier).Name)
	assert.Equal(t, "b", inner.Right.(*Identifier).Name)
}

func TestParseStringParentheses(t *testing.T) {
	src, _, err := ParseString("p.v", "module m(input a, b, c, output y); assign y = (a | b) & c; endmodule")
	require.NoError(t, err)

	and := src.Modules[0].Items[0].(*Assign).Value.(*BinaryOp)
	assert.Equal(t, "And", and.Kind())
	assert.Equal(t, "Or", and.Left.Kind())
}

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.v")
	second := filepath.Join(dir, "second.v")
	require.NoError(t, os.WriteFile(first, []byte("module a(input x, output y); assign y = x; endmodule\n"), 0644))
	require.NoError(t, os.WriteFile(second, []byte("`default_nettype none\nmodule b; endmodule\n"), 0644))

	src, directives, err := ParseFiles([]string{first, second})
	require.NoError(t, err)

	require.Len(t, src.Modules, 2)
	assert.NotNil(t, src.Module("a"))
	assert.NotNil(t, src.Module("b"))
	assert.Nil(t, src.Module("c"))
	require.Len(t, directives, 1)
	assert.Equal(t, second, directives[0].File)
}

func TestParseFilesErrors(t *testing.T) {
	_, _, err := ParseFiles(nil)
	assert.ErrorIs(t, err, ErrNoInput)

	_, _, err = ParseFiles([]string{filepath.Join(t.TempDir(), "missing.v")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
