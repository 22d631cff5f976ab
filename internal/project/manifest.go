// Package project handles pl0.toml project configuration: search-path
// defaults and diagnostic preferences shared by every file in a directory,
// so the driver doesn't need a pile of repeated flags.
package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Manifest represents a pl0.toml project configuration.
type Manifest struct {
	Project     ProjectInfo `toml:"project"`
	Source      Source      `toml:"source"`
	Diagnostics Diagnostics `toml:"diagnostics"`

	// Dir is the directory containing the pl0.toml file (set at load time).
	Dir string `toml:"-"`
}

// ProjectInfo contains project metadata.
type ProjectInfo struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures where source files and the compile-history database
// live relative to the project root.
type Source struct {
	Dirs      []string `toml:"dirs"`
	Entry     string   `toml:"entry"`
	HistoryDB string   `toml:"history_db"`
}

// Diagnostics configures default rendering behavior, overridable per
// invocation by command-line flags.
type Diagnostics struct {
	Colors  bool `toml:"colors"`
	Verbose bool `toml:"verbose"`
}

// Load parses a pl0.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "pl0.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if len(m.Source.Dirs) == 0 {
		m.Source.Dirs = []string{"."}
	}
	if m.Source.HistoryDB == "" {
		m.Source.HistoryDB = ".pl0/history.db"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir looking for a pl0.toml file. It
// returns a nil Manifest (and nil error) if none is found, letting callers
// fall back to hardcoded defaults.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "pl0.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (m *Manifest) SourceDirPaths() []string {
	var paths []string
	for _, d := range m.Source.Dirs {
		paths = append(paths, filepath.Join(m.Dir, d))
	}
	return paths
}

// HistoryDBPath returns the absolute path to the compile-history database.
func (m *Manifest) HistoryDBPath() string {
	return filepath.Join(m.Dir, m.Source.HistoryDB)
}
