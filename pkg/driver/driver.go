// Package driver runs the LOLCODE pipeline: parse, optimize, compile and
// execute, with optional chunk caching, disassembly and VM tracing.
package driver

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/lolcode/compiler"
	"github.com/chazu/lolcode/manifest"
	"github.com/chazu/lolcode/pkg/bytecode"
	"github.com/chazu/lolcode/pkg/cache"
	"github.com/chazu/lolcode/pkg/diag"
)

var log = commonlog.GetLogger("lolcode.driver")

// Options controls one pipeline run.
type Options struct {
	Optimize bool
	Disasm   bool
	DebugVM  bool

	// Cache, when non-nil, is consulted before compiling and filled after.
	Cache *cache.Cache

	Out io.Writer
	In  io.Reader
	// Err receives disassembly listings and VM traces.
	Err io.Writer
}

// OptionsFrom builds Options from a manifest. I/O defaults to the process
// streams; the cache is left for the caller to open.
func OptionsFrom(m *manifest.Manifest) Options {
	if m == nil {
		m = manifest.Default()
	}
	return Options{
		Optimize: m.Run.Optimize,
		Disasm:   m.Run.Disasm,
		DebugVM:  m.Run.DebugVM,
		Out:      os.Stdout,
		In:       os.Stdin,
		Err:      os.Stderr,
	}
}

// Driver holds the sources of the program being run so diagnostics can be
// rendered against them.
type Driver struct {
	opts    Options
	Sources *diag.Sources
}

// New creates a driver.
func New(opts Options) *Driver {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Err == nil {
		opts.Err = io.Discard
	}
	return &Driver{opts: opts, Sources: diag.NewSources()}
}

// Compile turns source text into a chunk. A cached chunk is returned when
// the cache holds one for the same source and optimizer setting.
func (d *Driver) Compile(name, src string) (*bytecode.Chunk, error) {
	d.Sources = diag.NewSources()
	file := d.Sources.Add(name, src)

	var key string
	if d.opts.Cache != nil {
		key = cache.Key(src, d.opts.Optimize)
		chunk, err := d.opts.Cache.Get(key)
		switch {
		case err == nil:
			log.Debugf("cache hit for %s", name)
			return d.finish(name, chunk)
		case !errors.Is(err, cache.ErrMiss):
			log.Warningf("cache lookup for %s: %s", name, err)
		}
	}

	chunk, err := compileSource(src, file, d.opts.Optimize)
	if err != nil {
		return nil, err
	}
	log.Debugf("compiled %s: %d bytes, %d constants", name, len(chunk.Code), len(chunk.Constants))

	if d.opts.Cache != nil {
		if err := d.opts.Cache.Put(key, chunk); err != nil {
			log.Warningf("cache store for %s: %s", name, err)
		}
	}
	return d.finish(name, chunk)
}

func (d *Driver) finish(name string, chunk *bytecode.Chunk) (*bytecode.Chunk, error) {
	if d.opts.Disasm {
		if _, err := io.WriteString(d.opts.Err, chunk.Disassemble(name)); err != nil {
			return nil, fmt.Errorf("write disassembly: %w", err)
		}
	}
	return chunk, nil
}

// Execute runs a compiled chunk.
func (d *Driver) Execute(chunk *bytecode.Chunk) error {
	vm := bytecode.NewVM(chunk)
	vm.Out = d.opts.Out
	if d.opts.In != nil {
		vm.In = bufio.NewReader(d.opts.In)
	}
	if d.opts.DebugVM {
		vm.Trace = d.opts.Err
	}
	return vm.Run()
}

// RunSource compiles and executes source text.
func (d *Driver) RunSource(name, src string) error {
	chunk, err := d.Compile(name, src)
	if err != nil {
		return err
	}
	return d.Execute(chunk)
}

// RunFile runs a source file or a compiled .lolc chunk.
func (d *Driver) RunFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}
	if bytecode.IsEncoded(data) {
		chunk, err := bytecode.Decode(data)
		if err != nil {
			return fmt.Errorf("cannot load %s: %w", path, err)
		}
		d.Sources = diag.NewSources()
		log.Infof("running compiled chunk %s", path)
		if _, err := d.finish(path, chunk); err != nil {
			return err
		}
		return d.Execute(chunk)
	}
	return d.RunSource(path, string(data))
}

// Build compiles source text and writes the encoded chunk to w.
func (d *Driver) Build(name, src string, w io.Writer) error {
	chunk, err := d.Compile(name, src)
	if err != nil {
		return err
	}
	data, err := chunk.Encode()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	return nil
}

// Report renders err against the driver's sources.
func (d *Driver) Report(w io.Writer, err error) {
	diag.Render(w, d.Sources, err)
}

// Check parses and compiles src without running it or touching a cache.
// It returns the first diagnostic, if any.
func Check(src string, optimize bool) error {
	_, err := compileSource(src, 0, optimize)
	return err
}

func compileSource(src string, file int, optimize bool) (*bytecode.Chunk, error) {
	interner := compiler.NewInterner()
	prog, err := compiler.Parse(src, file, interner)
	if err != nil {
		return nil, err
	}
	if optimize {
		prog = compiler.Optimize(prog)
	}
	return bytecode.Compile(prog, interner)
}
