// Package harness drives a single parse attempt of a fixed Verilog snippet
// and reports the outcome on an output stream.
package harness

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Snippet is the source materialized for every run.
const Snippet = `
module and_gate(input a, b, output y);
  assign y = a & b;
endmodule
`

// DefaultPath is the fixed artifact path used by WithPath(DefaultPath).
const DefaultPath = "temp_test.v"

const SuccessMessage = "Success: AST generated."

// Tree is a parsed syntax tree able to render itself as text.
type Tree interface {
	Show(w io.Writer) error
}

// Parser turns a list of source files into a Tree.
type Parser interface {
	Parse(ctx context.Context, paths []string) (Tree, error)
}

type ParserFunc func(ctx context.Context, paths []string) (Tree, error)

func (f ParserFunc) Parse(ctx context.Context, paths []string) (Tree, error) {
	return f(ctx, paths)
}

type Harness struct {
	parser  Parser
	out     io.Writer
	dir     string
	path    string
	keep    bool
	cleanup bool
	snippet string
	logger  *slog.Logger
}

type Option func(*Harness)

func WithOutput(w io.Writer) Option {
	return func(h *Harness) { h.out = w }
}

// WithDir sets the directory for generated artifacts. Ignored with WithPath.
func WithDir(dir string) Option {
	return func(h *Harness) { h.dir = dir }
}

// WithPath writes to a fixed path instead of a unique one. The file is kept
// after the run unless WithKeep(false) is also given.
func WithPath(path string) Option {
	return func(h *Harness) { h.path = path }
}

func WithKeep(keep bool) Option {
	return func(h *Harness) {
		h.keep = keep
		h.cleanup = !keep
	}
}

func WithSnippet(src string) Option {
	return func(h *Harness) { h.snippet = src }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

func New(p Parser, opts ...Option) *Harness {
	h := &Harness{
		parser:  p,
		out:     os.Stdout,
		snippet: Snippet,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run writes the snippet, parses it and prints the tree followed by the
// success message, or a single "Error: <message>" line. It never panics.
func (h *Harness) Run(ctx context.Context) Outcome {
	var dump bytes.Buffer
	outcome := h.attempt(ctx, &dump)
	if outcome.OK() {
		_, _ = h.out.Write(dump.Bytes())
	}
	fmt.Fprintln(h.out, outcome.String())
	return outcome
}

func (h *Harness) attempt(ctx context.Context, dump *bytes.Buffer) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Parser panicked", "panic", r)
			outcome = Failure(fmt.Errorf("%v", r))
		}
	}()

	path, remove := h.target()
	if remove {
		defer h.remove(path)
	}

	h.logger.Debug("Writing snippet", "path", path, "bytes", len(h.snippet))
	if err := writeFile(path, h.snippet); err != nil {
		h.logger.Warn("Failed to write snippet", "path", path, "error", err)
		return Failure(err)
	}

	if err := ctx.Err(); err != nil {
		return Failure(err)
	}

	h.logger.Debug("Parsing", "path", path)
	tree, err := h.parser.Parse(ctx, []string{path})
	if err != nil {
		h.logger.Info("Parse failed", "path", path, "error", err)
		return Failure(err)
	}
	if tree == nil {
		return Failure(fmt.Errorf("parser returned no tree for %s", path))
	}
	if err := tree.Show(dump); err != nil {
		return Failure(fmt.Errorf("render tree: %w", err))
	}
	h.logger.Debug("Parse succeeded", "path", path, "dump_bytes", dump.Len())
	return Success(tree)
}

// target returns the artifact path and whether it is removed after the run.
func (h *Harness) target() (string, bool) {
	if h.path != "" {
		return h.path, h.cleanup
	}
	dir := h.dir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "vsmoke-"+uuid.New().String()+".v"), !h.keep
}

func (h *Harness) remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		h.logger.Warn("Failed to remove artifact", "path", path, "error", err)
	}
}

// writeFile closes the handle on every path and reports close errors, so
// the content is flushed before the file is handed to the parser.
func writeFile(path, content string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if _, err := io.WriteString(f, content); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
