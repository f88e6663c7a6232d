package driver

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/lolcode/manifest"
	"github.com/chazu/lolcode/pkg/cache"
	"github.com/chazu/lolcode/pkg/diag"
)

const factorial = `HAI 1.2
HOW IZ I fact YR n
  BOTH SAEM n AN 0
  O RLY?
    YA RLY
      FOUND YR 1
  OIC
  FOUND YR PRODUKT OF n AN I IZ fact YR DIFF OF n AN 1 MKAY
IF U SAY SO
VISIBLE I IZ fact YR 5 MKAY
KTHXBYE
`

func newTestDriver(opts Options) (*Driver, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	opts.Out = &out
	opts.Err = &errOut
	if opts.In == nil {
		opts.In = strings.NewReader("")
	}
	return New(opts), &out, &errOut
}

func TestRunSource(t *testing.T) {
	for _, optimize := range []bool{false, true} {
		d, out, _ := newTestDriver(Options{Optimize: optimize})
		if err := d.RunSource("fact.lol", factorial); err != nil {
			t.Fatalf("RunSource(optimize=%v) error: %v", optimize, err)
		}
		if out.String() != "120\n" {
			t.Errorf("output (optimize=%v) = %q, want %q", optimize, out.String(), "120\n")
		}
	}
}

func TestRunSourceReadsInput(t *testing.T) {
	d, out, _ := newTestDriver(Options{In: strings.NewReader("ceiling cat\n")})
	src := "HAI 1.2\nI HAS A name\nGIMMEH name\nVISIBLE \"O HAI \" name\nKTHXBYE\n"
	if err := d.RunSource("in.lol", src); err != nil {
		t.Fatalf("RunSource error: %v", err)
	}
	if out.String() != "O HAI ceiling cat\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind diag.Kind
		ok   bool
	}{
		{"valid", "HAI 1.2\nVISIBLE 1\nKTHXBYE\n", 0, true},
		{"unknown symbol", "HAI 1.2\nVISIBLE x\nKTHXBYE\n", diag.Scope, false},
		{"syntax", "HAI 1.2\nSUM OF 1 2\nKTHXBYE\n", diag.Syntax, false},
		{"bad character", "HAI 1.2\nVISIBLE 1 $\nKTHXBYE\n", diag.UnexpectedCharacter, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.src, true)
			if tt.ok {
				if err != nil {
					t.Fatalf("Check error: %v", err)
				}
				return
			}
			d, ok := diag.As(err)
			if !ok {
				t.Fatalf("Check error = %v, want a diagnostic", err)
			}
			if d.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", d.Kind, tt.kind)
			}
		})
	}
}

func TestReport(t *testing.T) {
	d, _, _ := newTestDriver(Options{})
	err := d.RunSource("bad.lol", "HAI 1.2\nVISIBLE x\nKTHXBYE\n")
	if err == nil {
		t.Fatal("expected an error")
	}
	var buf bytes.Buffer
	d.Report(&buf, err)
	got := buf.String()
	if !strings.Contains(got, "error[unknown-symbol]") {
		t.Errorf("report missing the kind tag:\n%s", got)
	}
	if !strings.Contains(got, "bad.lol:2:") {
		t.Errorf("report missing the location:\n%s", got)
	}
}

func TestRuntimeErrorSurfaces(t *testing.T) {
	d, _, _ := newTestDriver(Options{})
	err := d.RunSource("div.lol", "HAI 1.2\nVISIBLE QUOSHUNT OF 1 AN 0\nKTHXBYE\n")
	dg, ok := diag.As(err)
	if !ok {
		t.Fatalf("error = %v, want a diagnostic", err)
	}
	if dg.Kind != diag.Runtime {
		t.Errorf("kind = %v, want %v", dg.Kind, diag.Runtime)
	}
}

func TestDisasmAndTrace(t *testing.T) {
	d, out, errOut := newTestDriver(Options{Disasm: true, DebugVM: true})
	if err := d.RunSource("hi.lol", "HAI 1.2\nVISIBLE \"hi\"\nKTHXBYE\n"); err != nil {
		t.Fatalf("RunSource error: %v", err)
	}
	if out.String() != "hi\n" {
		t.Errorf("output = %q, want %q", out.String(), "hi\n")
	}
	listing := errOut.String()
	if !strings.Contains(listing, "; === hi.lol ===") {
		t.Errorf("missing disassembly header:\n%s", listing)
	}
	if !strings.Contains(listing, "HALT") {
		t.Errorf("missing traced instructions:\n%s", listing)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestDisasmWriteError(t *testing.T) {
	var out bytes.Buffer
	d := New(Options{Disasm: true, Out: &out, Err: failingWriter{}, In: strings.NewReader("")})
	err := d.RunSource("hi.lol", "HAI 1.2\nVISIBLE \"hi\"\nKTHXBYE\n")
	if err == nil || !strings.Contains(err.Error(), "write disassembly") {
		t.Fatalf("RunSource error = %v, want a disassembly write error", err)
	}
	if out.Len() != 0 {
		t.Errorf("program ran after the listing failed: %q", out.String())
	}
}

// Programs where a Min/Max comparison sees a non-number must print the
// same thing with and without the optimizer.
func TestOptimizerPreservesOutput(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"yarn", `BOTH SAEM "5" AN BIGGR OF "5" AN 1`, "FAIL\n"},
		{"troof", "BOTH SAEM WIN AN BIGGR OF WIN AN 0", "FAIL\n"},
		{"noob", "BOTH SAEM NOOB AN BIGGR OF NOOB AN -1", "FAIL\n"},
		{"smoosh", "DIFFRINT SMALLR OF SMOOSH 1 MKAY AN 2 AN SMOOSH 1 MKAY", "WIN\n"},
		{"yarn cast", "BOTH SAEM MAEK 3 A YARN AN BIGGR OF MAEK 3 A YARN AN 1", "FAIL\n"},
		{"numbers", "BOTH SAEM 5 AN BIGGR OF 5 AN 1", "WIN\n"},
		{"variable", "I HAS A n ITZ 4\nVISIBLE BOTH SAEM n AN SMALLR OF n AN 9", "WIN\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.expr
			if !strings.HasPrefix(body, "I HAS") {
				body = "VISIBLE " + body
			}
			src := "HAI 1.2\n" + body + "\nKTHXBYE\n"
			for _, optimize := range []bool{false, true} {
				d, out, _ := newTestDriver(Options{Optimize: optimize})
				if err := d.RunSource("opt.lol", src); err != nil {
					t.Fatalf("optimize=%v: RunSource error: %v", optimize, err)
				}
				if out.String() != tt.want {
					t.Errorf("optimize=%v: output = %q, want %q", optimize, out.String(), tt.want)
				}
			}
		})
	}
}

func TestBuildAndRunCompiled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fact.lolc")

	d, _, _ := newTestDriver(Options{Optimize: true})
	var buf bytes.Buffer
	if err := d.Build("fact.lol", factorial, &buf); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	d2, out, _ := newTestDriver(Options{})
	if err := d2.RunFile(path); err != nil {
		t.Fatalf("RunFile error: %v", err)
	}
	if out.String() != "120\n" {
		t.Errorf("output = %q, want %q", out.String(), "120\n")
	}
}

func TestRunFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fact.lol")
	if err := os.WriteFile(path, []byte(factorial), 0644); err != nil {
		t.Fatal(err)
	}
	d, out, _ := newTestDriver(Options{})
	if err := d.RunFile(path); err != nil {
		t.Fatalf("RunFile error: %v", err)
	}
	if out.String() != "120\n" {
		t.Errorf("output = %q, want %q", out.String(), "120\n")
	}
}

func TestRunFileMissing(t *testing.T) {
	d, _, _ := newTestDriver(Options{})
	if err := d.RunFile(filepath.Join(t.TempDir(), "nope.lol")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestCompileUsesCache(t *testing.T) {
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer c.Close()

	for i := 0; i < 2; i++ {
		d, out, _ := newTestDriver(Options{Optimize: true, Cache: c})
		if err := d.RunSource("fact.lol", factorial); err != nil {
			t.Fatalf("run %d error: %v", i, err)
		}
		if out.String() != "120\n" {
			t.Errorf("run %d output = %q, want %q", i, out.String(), "120\n")
		}
	}

	n, err := c.Len()
	if err != nil {
		t.Fatalf("Len error: %v", err)
	}
	if n != 1 {
		t.Errorf("cache entries = %d, want 1", n)
	}
}

func TestOptionsFrom(t *testing.T) {
	opts := OptionsFrom(nil)
	if !opts.Optimize || opts.Disasm || opts.DebugVM {
		t.Errorf("OptionsFrom(nil) = %+v, want optimize only", opts)
	}

	m := manifest.Default()
	m.Run.Optimize = false
	m.Run.DebugVM = true
	opts = OptionsFrom(m)
	if opts.Optimize || !opts.DebugVM {
		t.Errorf("OptionsFrom(m) = %+v", opts)
	}
}
