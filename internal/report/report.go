// Package report defines an opt-in, machine-readable summary of a compile
// run — tokens, declared symbols, and diagnostics — encoded as CBOR in
// canonical mode for byte-stable output. It deliberately carries no
// bytecode: this is a companion artifact for tooling, not a persisted
// object format.
package report

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"github.com/sweeter-byte/pl0/internal/diag"
	"github.com/sweeter-byte/pl0/internal/symtab"
	"github.com/sweeter-byte/pl0/internal/token"
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("report: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// TokenEntry is one lexical token as recorded for external tooling.
type TokenEntry struct {
	Type   string `cbor:"type"`
	Value  string `cbor:"value"`
	Line   int    `cbor:"line"`
	Column int    `cbor:"column"`
}

// SymbolEntry is one declared name as recorded for external tooling.
type SymbolEntry struct {
	Name     string `cbor:"name"`
	Category string `cbor:"category"`
	Level    int    `cbor:"level"`
	Payload  int    `cbor:"payload"`
}

// DiagnosticEntry is one reported diagnostic.
type DiagnosticEntry struct {
	Level      string `cbor:"level"`
	Line       int    `cbor:"line"`
	Column     int    `cbor:"column"`
	Message    string `cbor:"message"`
	Suggestion string `cbor:"suggestion,omitempty"`
	Fix        string `cbor:"fix,omitempty"`
}

// Report is the full compile-run summary.
type Report struct {
	SessionID   string            `cbor:"session_id"`
	SourceFile  string            `cbor:"source_file"`
	GeneratedAt time.Time         `cbor:"generated_at"`
	Success     bool              `cbor:"success"`
	Tokens      []TokenEntry      `cbor:"tokens"`
	Symbols     []SymbolEntry     `cbor:"symbols"`
	Diagnostics []DiagnosticEntry `cbor:"diagnostics"`
}

// New builds a Report from the artifacts of one compile run.
func New(sourceFile string, tokens []token.Token, symbols []symtab.Symbol, diags []diag.Diagnostic, success bool) *Report {
	r := &Report{
		SessionID:   uuid.NewString(),
		SourceFile:  sourceFile,
		GeneratedAt: time.Now(),
		Success:     success,
	}
	for _, t := range tokens {
		r.Tokens = append(r.Tokens, TokenEntry{Type: t.Type.String(), Value: t.Value, Line: t.Line, Column: t.Column})
	}
	for _, s := range symbols {
		r.Symbols = append(r.Symbols, SymbolEntry{Name: s.Name, Category: s.Category.String(), Level: s.Level, Payload: s.Payload})
	}
	for _, d := range diags {
		r.Diagnostics = append(r.Diagnostics, DiagnosticEntry{
			Level: d.Level.String(), Line: d.Location.Line, Column: d.Location.Column,
			Message: d.Message, Suggestion: d.Suggestion, Fix: d.Fix,
		})
	}
	return r
}

// Marshal serializes r to canonical CBOR bytes.
func (r *Report) Marshal() ([]byte, error) {
	return encMode.Marshal(r)
}

// Unmarshal deserializes CBOR bytes into a Report.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: unmarshal: %w", err)
	}
	return &r, nil
}
