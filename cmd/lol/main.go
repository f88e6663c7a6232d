// lol compiles and runs LOLCODE programs.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/chazu/lolcode/manifest"
	"github.com/chazu/lolcode/pkg/cache"
	"github.com/chazu/lolcode/pkg/driver"
	"github.com/chazu/lolcode/server"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("lolcode.cli")

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("lol", flag.ContinueOnError)
	fs.SetOutput(stderr)

	disasm := fs.Bool("disasm", false, "Print the disassembled chunk to stderr before running")
	fs.BoolVar(disasm, "d", false, "Shorthand for --disasm")
	debugVM := fs.Bool("debug-vm", false, "Trace the stack and each instruction to stderr")
	noOptimize := fs.Bool("no-optimize", false, "Skip the AST optimizer")
	noCache := fs.Bool("no-cache", false, "Do not read or write the compiled-chunk cache")
	verbosity := fs.Int("v", 0, "Log verbosity (0 errors only, higher is chattier)")
	lspMode := fs.Bool("lsp", false, "Start the language server on stdio")
	output := fs.String("o", "", "Write the compiled chunk to this file instead of running")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: lol [options] <file.lol | file.lolc | ->\n\n")
		fmt.Fprintf(stderr, "Compiles and runs a LOLCODE program. '-' reads the program from stdin.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  lol hello.lol               # Run a program\n")
		fmt.Fprintf(stderr, "  lol -d hello.lol            # Show bytecode, then run\n")
		fmt.Fprintf(stderr, "  lol -o hello.lolc hello.lol # Compile to a chunk file\n")
		fmt.Fprintf(stderr, "  lol hello.lolc              # Run a compiled chunk\n")
		fmt.Fprintf(stderr, "  lol -lsp                    # Language server for editors\n")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	path := ""
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" && !*lspMode {
		fs.Usage()
		return 2
	}

	startDir := "."
	if path != "" && path != "-" {
		startDir = filepath.Dir(path)
	}
	m, err := manifest.FindAndLoad(startDir)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if m == nil {
		m = manifest.Default()
	}

	level := m.Log.Verbosity
	if set["v"] {
		level = *verbosity
	}
	commonlog.Configure(level, nil)
	if m.Dir != "" {
		log.Infof("using %s", filepath.Join(m.Dir, manifest.FileName))
	}

	opts := driver.OptionsFrom(m)
	opts.In, opts.Out, opts.Err = stdin, stdout, stderr
	if set["disasm"] || set["d"] {
		opts.Disasm = *disasm
	}
	if set["debug-vm"] {
		opts.DebugVM = *debugVM
	}
	if *noOptimize {
		opts.Optimize = false
	}

	if *lspMode {
		if err := server.NewLSP(opts.Optimize).Run(); err != nil {
			fmt.Fprintf(stderr, "lsp: %v\n", err)
			return 1
		}
		return 0
	}

	if m.Cache.Enabled && !*noCache {
		c, err := cache.Open(m.CachePath())
		if err != nil {
			log.Warningf("cache disabled: %s", err)
		} else {
			defer c.Close()
			opts.Cache = c
		}
	}

	d := driver.New(opts)
	if err := execute(d, path, *output, stdin); err != nil {
		d.Report(stderr, err)
		return 1
	}
	return 0
}

// execute runs or builds the program named by path.
func execute(d *driver.Driver, path, output string, stdin io.Reader) error {
	if path != "-" && output == "" {
		return d.RunFile(path)
	}

	name, src, err := readSource(path, stdin)
	if err != nil {
		return err
	}
	if output == "" {
		return d.RunSource(name, src)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", output, err)
	}
	if err := d.Build(name, src, f); err != nil {
		f.Close()
		os.Remove(output)
		return err
	}
	return f.Close()
}

func readSource(path string, stdin io.Reader) (string, string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("cannot read stdin: %w", err)
		}
		return "<stdin>", string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return path, string(data), nil
}
