package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const hello = "HAI 1.2\nVISIBLE \"O HAI\"\nKTHXBYE\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCLI(args []string, stdin string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.lol", hello)
	code, out, stderr := runCLI([]string{"--no-cache", path}, "")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	if out != "O HAI\n" {
		t.Errorf("stdout = %q, want %q", out, "O HAI\n")
	}
}

func TestRunStdin(t *testing.T) {
	code, out, stderr := runCLI([]string{"--no-cache", "-"}, hello)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	if out != "O HAI\n" {
		t.Errorf("stdout = %q, want %q", out, "O HAI\n")
	}
}

func TestErrorsExitOne(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown symbol", "HAI 1.2\nVISIBLE x\nKTHXBYE\n", "error[unknown-symbol]"},
		{"syntax", "HAI 1.2\nSUM OF 1 2\nKTHXBYE\n", "error[syntax]"},
		{"runtime", "HAI 1.2\nVISIBLE MOD OF 1 AN 0\nKTHXBYE\n", "error[runtime]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.lol", tt.src)
			code, _, stderr := runCLI([]string{"--no-cache", path}, "")
			if code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			if !strings.Contains(stderr, tt.want) {
				t.Errorf("stderr missing %q:\n%s", tt.want, stderr)
			}
			if !strings.Contains(stderr, "bad.lol:") {
				t.Errorf("stderr missing the location:\n%s", stderr)
			}
		})
	}
}

func TestMissingFile(t *testing.T) {
	code, _, stderr := runCLI([]string{"--no-cache", filepath.Join(t.TempDir(), "nope.lol")}, "")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "cannot read") {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestUsage(t *testing.T) {
	code, _, stderr := runCLI(nil, "")
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "Usage: lol") {
		t.Errorf("stderr missing usage:\n%s", stderr)
	}
}

func TestDisasmFlag(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.lol", hello)
	for _, flag := range []string{"-d", "--disasm"} {
		code, out, stderr := runCLI([]string{"--no-cache", flag, path}, "")
		if code != 0 {
			t.Fatalf("%s: exit code = %d, stderr:\n%s", flag, code, stderr)
		}
		if out != "O HAI\n" {
			t.Errorf("%s: stdout = %q", flag, out)
		}
		if !strings.Contains(stderr, "; Code:") {
			t.Errorf("%s: stderr missing the listing:\n%s", flag, stderr)
		}
	}
}

func TestBuildAndRunChunk(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "hello.lol", hello)
	chunk := filepath.Join(dir, "hello.lolc")

	code, out, stderr := runCLI([]string{"--no-cache", "-o", chunk, src}, "")
	if code != 0 {
		t.Fatalf("build exit code = %d, stderr:\n%s", code, stderr)
	}
	if out != "" {
		t.Errorf("build printed %q, want nothing", out)
	}

	code, out, stderr = runCLI([]string{"--no-cache", chunk}, "")
	if code != 0 {
		t.Fatalf("run exit code = %d, stderr:\n%s", code, stderr)
	}
	if out != "O HAI\n" {
		t.Errorf("stdout = %q, want %q", out, "O HAI\n")
	}
}

func TestManifestEnablesCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lolcode.toml", "[cache]\nenabled = true\npath = \"build/cache.db\"\n")
	path := writeFile(t, dir, "hello.lol", hello)

	for i := 0; i < 2; i++ {
		code, out, stderr := runCLI([]string{path}, "")
		if code != 0 {
			t.Fatalf("run %d exit code = %d, stderr:\n%s", i, code, stderr)
		}
		if out != "O HAI\n" {
			t.Errorf("run %d stdout = %q", i, out)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "build", "cache.db")); err != nil {
		t.Errorf("cache database not created: %v", err)
	}
}

func TestManifestDisasm(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lolcode.toml", "[run]\ndisasm = true\n[cache]\nenabled = false\n")
	path := writeFile(t, dir, "hello.lol", hello)

	code, _, stderr := runCLI([]string{path}, "")
	if code != 0 {
		t.Fatalf("exit code = %d, stderr:\n%s", code, stderr)
	}
	if !strings.Contains(stderr, "; Code:") {
		t.Errorf("manifest disasm = true should print the listing:\n%s", stderr)
	}
}
