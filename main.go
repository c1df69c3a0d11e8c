package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/fexolm/vsmoke/ast"
	"github.com/fexolm/vsmoke/config"
	"github.com/fexolm/vsmoke/harness"
	"github.com/fexolm/vsmoke/interpret"
	"github.com/fexolm/vsmoke/irgen"
	"github.com/fexolm/vsmoke/logging"
)

const version = "0.1.0"

type CLI struct {
	Version    kong.VersionFlag `help:"Show version information"`
	Path       string           `help:"Write the source to this fixed path instead of a unique temporary file" env:"VSMOKE_PATH"`
	Dir        string           `help:"Directory for the temporary file" type:"path" env:"VSMOKE_DIR"`
	Keep       bool             `help:"Keep the temporary file after the run" negatable:"" env:"VSMOKE_KEEP"`
	File       string           `help:"Use the contents of this Verilog file instead of the built-in snippet" type:"existingfile" short:"f"`
	TruthTable bool             `help:"Print the truth table of the first parsed module" short:"t" negatable:"" env:"VSMOKE_TRUTH_TABLE"`
	Config     string           `help:"Path to YAML config file" default:".vsmoke.yaml" env:"VSMOKE_CONFIG"`
	Debug      bool             `help:"Enable debug logging to stderr" short:"d" negatable:""`
	DebugFile  string           `help:"Write debug logs to this file"`
}

// AfterApply fills flags the user did not set from the config file and
// initializes logging.
func (c *CLI) AfterApply(kctx *kong.Context) error {
	settings, err := config.Load(c.Config)
	if err != nil {
		return err
	}
	c.applySettings(settings, explicitFlags(kctx))

	return logging.Initialize(c.Debug, c.DebugFile)
}

// explicitFlags names the flags given on the command line or through their
// environment variable.
func explicitFlags(kctx *kong.Context) map[string]bool {
	explicit := make(map[string]bool)
	for _, p := range kctx.Path {
		if p.Flag != nil && !p.Resolved {
			explicit[p.Flag.Name] = true
		}
	}
	for _, f := range kctx.Flags() {
		for _, env := range f.Envs {
			if _, ok := os.LookupEnv(env); ok {
				explicit[f.Name] = true
			}
		}
	}
	return explicit
}

func (c *CLI) applySettings(s *config.Settings, explicit map[string]bool) {
	if !explicit["path"] && s.Path != "" {
		c.Path = s.Path
	}
	if !explicit["dir"] && s.Dir != "" {
		c.Dir = s.Dir
	}
	if !explicit["debug-file"] && s.DebugFile != "" {
		c.DebugFile = s.DebugFile
	}
	if !explicit["keep"] {
		c.Keep = s.KeepOr(c.Keep)
	}
	if !explicit["truth-table"] {
		c.TruthTable = s.TruthTableOr(c.TruthTable)
	}
	if !explicit["debug"] {
		c.Debug = s.DebugOr(c.Debug)
	}
}

func (c *CLI) Run(ctx context.Context, stdout, stderr io.Writer) error {
	opts := []harness.Option{
		harness.WithOutput(stdout),
		harness.WithLogger(logging.Logger),
	}
	if c.Path != "" {
		opts = append(opts, harness.WithPath(c.Path))
	}
	if c.Dir != "" {
		opts = append(opts, harness.WithDir(c.Dir))
	}
	if c.Keep {
		opts = append(opts, harness.WithKeep(true))
	}
	if c.File != "" {
		src, err := os.ReadFile(c.File)
		if err != nil {
			return err
		}
		opts = append(opts, harness.WithSnippet(string(src)))
	}

	outcome := harness.New(harness.ParserFunc(parseVerilog), opts...).Run(ctx)
	if !outcome.OK() || !c.TruthTable {
		return nil
	}

	src, ok := outcome.Tree.(*ast.Source)
	if !ok || len(src.Modules) == 0 {
		fmt.Fprintln(stderr, "Warning: no module to evaluate")
		return nil
	}
	if err := printTruthTable(stdout, src, src.Modules[0].Name); err != nil {
		fmt.Fprintf(stderr, "Warning: truth table: %v\n", err)
	}
	return nil
}

func parseVerilog(_ context.Context, paths []string) (harness.Tree, error) {
	src, directives, err := ast.ParseFiles(paths)
	if err != nil {
		return nil, err
	}
	for _, d := range directives {
		logging.Logger.Debug("Ignoring directive", "file", d.File, "line", d.Line, "directive", d.Text)
	}
	return src, nil
}

func printTruthTable(w io.Writer, src *ast.Source, top string) error {
	m, err := irgen.GenerateIR(src, top)
	if err != nil {
		return err
	}
	logging.Logger.Debug("Generated netlist", "module", m.Name, "gates", len(m.Gates))
	i, err := interpret.NewInterpreter(m)
	if err != nil {
		return err
	}
	return i.TruthTable(w)
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("vsmoke"),
		kong.Description("Parse a small Verilog snippet and print its syntax tree."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := cli.Run(context.Background(), os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
