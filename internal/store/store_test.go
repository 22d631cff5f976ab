package store

import (
	"path/filepath"
	"testing"
)

func TestRecordAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := s.Record("prog.pl0", 0, 1, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	if _, err := s.Record("prog.pl0", 2, 0, 1); err != nil {
		t.Fatalf("record: %v", err)
	}

	sessions, err := s.Recent("prog.pl0", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	// newest first
	if sessions[0].Errors != 2 || sessions[0].ExitCode != 1 {
		t.Fatalf("unexpected newest session: %+v", sessions[0])
	}
}
