// Package manifest handles lolcode.toml run configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file looked for next to and above a program.
const FileName = "lolcode.toml"

// Manifest represents a lolcode.toml configuration.
type Manifest struct {
	Run   RunConfig   `toml:"run"`
	Cache CacheConfig `toml:"cache"`
	Log   LogConfig   `toml:"log"`

	// Dir is the directory containing the lolcode.toml file (set at load time).
	Dir string `toml:"-"`
}

// RunConfig controls the compile pipeline and the VM.
type RunConfig struct {
	Optimize bool `toml:"optimize"`
	DebugVM  bool `toml:"debug-vm"`
	Disasm   bool `toml:"disasm"`
}

// CacheConfig configures the compiled-chunk cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// LogConfig configures diagnostics logging.
type LogConfig struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no manifest exists.
func Default() *Manifest {
	return &Manifest{
		Run:   RunConfig{Optimize: true},
		Cache: CacheConfig{Enabled: true, Path: filepath.Join(".lolcode", "cache.db")},
	}
}

// Load parses a lolcode.toml file from the given directory. Keys the file
// leaves out keep their Default values.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := Default()
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	if m.Cache.Path == "" {
		m.Cache.Path = Default().Cache.Path
	}
	return m, nil
}

// FindAndLoad walks up from startDir to find a lolcode.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// CachePath returns the cache database path, resolved against Dir when
// relative.
func (m *Manifest) CachePath() string {
	if filepath.IsAbs(m.Cache.Path) || m.Dir == "" {
		return m.Cache.Path
	}
	return filepath.Join(m.Dir, m.Cache.Path)
}
