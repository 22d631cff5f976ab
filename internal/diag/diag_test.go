package diag

import (
	"bytes"
	"strings"
	"testing"
)

func TestReportIncludesCaretAndMessage(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	e.UseColors = false
	e.SetSource("x := 1\n", "test.pl0")

	e.Error(Location{Line: 1, Column: 1, Length: 1}, "use of undeclared identifier 'x'")

	out := buf.String()
	if !strings.Contains(out, "test.pl0:1:1: error: use of undeclared identifier 'x'") {
		t.Fatalf("missing header line in output:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Fatalf("missing caret in output:\n%s", out)
	}
}

func TestErrorAndWarningCounts(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	e.SetSource("", "test.pl0")

	e.Error(Location{Line: 1, Column: 1}, "boom")
	e.Warning(Location{Line: 1, Column: 1}, "hmm")

	if e.ErrorCount() != 1 || e.WarningCount() != 1 {
		t.Fatalf("got errors=%d warnings=%d", e.ErrorCount(), e.WarningCount())
	}
	if !e.HasErrors() {
		t.Fatal("expected HasErrors to be true")
	}
}

func TestCollectorForwardsAndRecords(t *testing.T) {
	var buf bytes.Buffer
	inner := New(&buf)
	inner.SetSource("", "test.pl0")
	c := &Collector{Inner: inner}

	c.Report(Diagnostic{Level: Error, Location: Location{Line: 1, Column: 1}, Message: "oops"})

	if len(c.Diagnostics) != 1 {
		t.Fatalf("expected 1 recorded diagnostic, got %d", len(c.Diagnostics))
	}
	if inner.ErrorCount() != 1 {
		t.Fatal("expected forwarding to increment inner engine's tally")
	}
}

func TestErrorExpectedAttachesAssignFixIt(t *testing.T) {
	var buf bytes.Buffer
	e := New(&buf)
	e.SetSource("x = 1\n", "test.pl0")

	e.ErrorExpected(Location{Line: 1, Column: 3, Length: 1}, "':='", "=")

	if !strings.Contains(buf.String(), "try:") {
		t.Fatalf("expected a fix-it line in output:\n%s", buf.String())
	}
}
