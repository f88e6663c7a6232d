package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `
[run]
optimize = false
debug-vm = true
disasm = true

[cache]
enabled = false
path = "/tmp/lol.db"

[log]
verbosity = 2
`)

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if m.Run.Optimize {
		t.Error("run optimize = true, want false")
	}
	if !m.Run.DebugVM {
		t.Error("run debug-vm = false, want true")
	}
	if !m.Run.Disasm {
		t.Error("run disasm = false, want true")
	}
	if m.Cache.Enabled {
		t.Error("cache enabled = true, want false")
	}
	if m.CachePath() != "/tmp/lol.db" {
		t.Errorf("cache path = %q, want /tmp/lol.db", m.CachePath())
	}
	if m.Log.Verbosity != 2 {
		t.Errorf("log verbosity = %d, want 2", m.Log.Verbosity)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[log]\nverbosity = 1\n")

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if !m.Run.Optimize {
		t.Error("run optimize = false, want the default true")
	}
	if !m.Cache.Enabled {
		t.Error("cache enabled = false, want the default true")
	}
	want := filepath.Join(m.Dir, ".lolcode", "cache.db")
	if m.CachePath() != want {
		t.Errorf("cache path = %q, want %q", m.CachePath(), want)
	}
}

func TestDefault(t *testing.T) {
	m := Default()
	if !m.Run.Optimize || m.Run.DebugVM || m.Run.Disasm {
		t.Errorf("Default().Run = %+v, want optimize only", m.Run)
	}
	if m.CachePath() != filepath.Join(".lolcode", "cache.db") {
		t.Errorf("Default().CachePath() = %q", m.CachePath())
	}
}

func TestLoadManifestMissing(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("expected error for missing lolcode.toml")
	}
}

func TestLoadManifestInvalid(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[run\noptimize = ")
	if _, err := Load(dir); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[run]\ndisasm = true\n")

	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(sub)
	if err != nil {
		t.Fatalf("FindAndLoad failed: %v", err)
	}
	if m == nil {
		t.Fatal("FindAndLoad returned nil, expected manifest")
	}
	if !m.Run.Disasm {
		t.Error("run disasm = false, want true")
	}
	abs, _ := filepath.Abs(root)
	if m.Dir != abs {
		t.Errorf("Dir = %q, want %q", m.Dir, abs)
	}
}

func TestFindAndLoadNotFound(t *testing.T) {
	m, err := FindAndLoad(t.TempDir())
	if err != nil {
		t.Fatalf("FindAndLoad error: %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest when none exists")
	}
}
