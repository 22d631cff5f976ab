package project

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	toml := `
[project]
name = "sample"
version = "0.1.0"
`
	if err := os.WriteFile(filepath.Join(dir, "pl0.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Project.Name != "sample" {
		t.Fatalf("got name %q", m.Project.Name)
	}
	if len(m.Source.Dirs) != 1 || m.Source.Dirs[0] != "." {
		t.Fatalf("expected default source dir '.', got %v", m.Source.Dirs)
	}
	if m.Source.HistoryDB != ".pl0/history.db" {
		t.Fatalf("expected default history db path, got %q", m.Source.HistoryDB)
	}
}

func TestLoadHonorsExplicitHistoryDB(t *testing.T) {
	dir := t.TempDir()
	toml := `
[project]
name = "sample"

[source]
history_db = "custom/path.db"
`
	if err := os.WriteFile(filepath.Join(dir, "pl0.toml"), []byte(toml), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Source.HistoryDB != "custom/path.db" {
		t.Fatalf("expected explicit history_db to be honored, got %q", m.Source.HistoryDB)
	}
	want := filepath.Join(m.Dir, "custom/path.db")
	if got := m.HistoryDBPath(); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFindAndLoadWalksUpToRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "pl0.toml"), []byte("[project]\nname=\"x\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	m, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("find and load: %v", err)
	}
	if m == nil {
		t.Fatal("expected manifest to be found by walking up")
	}
	if m.Project.Name != "x" {
		t.Fatalf("got %q", m.Project.Name)
	}
}

func TestFindAndLoadReturnsNilWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	m, err := FindAndLoad(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != nil {
		t.Fatal("expected nil manifest when no pl0.toml exists")
	}
}
