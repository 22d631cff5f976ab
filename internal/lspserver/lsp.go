// Package lspserver implements a minimal Language Server Protocol server
// exposing PL/0's diagnostic engine to editors: as a document opens or
// changes, its text is lexed and parsed in memory and any diagnostics are
// pushed back to the client. It does not attempt hover or completion —
// those need a real type system, which PL/0 doesn't have.
package lspserver

import (
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/sweeter-byte/pl0/internal/diag"
	"github.com/sweeter-byte/pl0/internal/lexer"
	"github.com/sweeter-byte/pl0/internal/parser"
)

const serverName = "pl0-lsp"

// Server bridges LSP document lifecycle events to the PL/0 front end.
type Server struct {
	mu   sync.Mutex
	docs map[string]string

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// New creates an unstarted Server.
func New(version string) *Server {
	if version == "" {
		version = "0.1.0"
	}
	s := &Server{docs: make(map[string]string), version: version}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,

		TextDocumentDidOpen:   s.didOpen,
		TextDocumentDidChange: s.didChange,
		TextDocumentDidClose:  s.didClose,
	}

	s.server = glspserver.NewServer(&s.handler, serverName, false)
	return s
}

// RunStdio starts the server on stdio, blocking until the client disconnects.
func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "pl0 language server initializing")

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) == 0 {
		return nil
	}
	last := params.ContentChanges[len(params.ContentChanges)-1]
	whole, ok := last.(protocol.TextDocumentContentChangeEventWhole)
	if !ok {
		return nil
	}

	s.mu.Lock()
	s.docs[string(uri)] = whole.Text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, whole.Text)
	return nil
}

func (s *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// publishDiagnostics runs the lexer and parser over text, collecting every
// diagnostic without ever writing to stdout/stderr, and reports the result
// to the client.
func (s *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	collector := &diag.Collector{}

	buf := lexer.FromString(text)
	lx := lexer.New(buf, collector)
	tokens := lx.Tokenize()

	p := parser.New(tokens, collector)
	p.Parse()

	out := make([]protocol.Diagnostic, 0, len(collector.Diagnostics))
	for _, d := range collector.Diagnostics {
		out = append(out, toProtocolDiagnostic(d))
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: out,
	})
}

func toProtocolDiagnostic(d diag.Diagnostic) protocol.Diagnostic {
	line := uint32(0)
	if d.Location.Line > 0 {
		line = uint32(d.Location.Line - 1)
	}
	col := uint32(0)
	if d.Location.Column > 0 {
		col = uint32(d.Location.Column - 1)
	}
	length := uint32(1)
	if d.Location.Length > 0 {
		length = uint32(d.Location.Length)
	}

	sev := severityFor(d.Level)
	msg := d.Message
	if d.Suggestion != "" {
		msg += " (" + d.Suggestion + ")"
	}

	return protocol.Diagnostic{
		Range: protocol.Range{
			Start: protocol.Position{Line: line, Character: col},
			End:   protocol.Position{Line: line, Character: col + length},
		},
		Severity: &sev,
		Source:   strPtr("pl0"),
		Message:  msg,
	}
}

func severityFor(l diag.Level) protocol.DiagnosticSeverity {
	switch l {
	case diag.Error:
		return protocol.DiagnosticSeverityError
	case diag.Warning:
		return protocol.DiagnosticSeverityWarning
	default:
		return protocol.DiagnosticSeverityInformation
	}
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }
