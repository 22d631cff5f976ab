// Package parser implements a single-pass recursive-descent parser for PL/0
// that emits stack-machine code directly as it recognizes each production —
// there is no intermediate AST.
package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/sweeter-byte/pl0/internal/code"
	"github.com/sweeter-byte/pl0/internal/diag"
	"github.com/sweeter-byte/pl0/internal/symtab"
	"github.com/sweeter-byte/pl0/internal/token"
)

// Parser walks a fixed token slice once, declaring symbols and emitting
// instructions as it goes.
type Parser struct {
	tokens   []token.Token
	position int

	syms *symtab.Table
	code *code.Program
	diag diag.Sink

	hasError bool

	trace  io.Writer
	indent int
}

// SetTrace enables a parse-tree trace written to w as each rule is entered,
// for the driver's -a/--ast flag. Pass nil to disable.
func (p *Parser) SetTrace(w io.Writer) { p.trace = w }

func (p *Parser) enter(rule string) {
	if p.trace == nil {
		return
	}
	fmt.Fprintf(p.trace, "%s├─ %s\n", strings.Repeat("  ", p.indent), rule)
	p.indent++
}

func (p *Parser) exit() {
	if p.trace == nil {
		return
	}
	p.indent--
}

// New creates a Parser over tokens, reporting to sink (which may be nil).
func New(tokens []token.Token, sink diag.Sink) *Parser {
	if len(tokens) == 0 {
		tokens = []token.Token{token.New(token.EOF, "", 1, 1)}
	}
	return &Parser{
		tokens: tokens,
		syms:   symtab.New(),
		code:   &code.Program{},
		diag:   sink,
	}
}

// Program returns the emitted instruction stream.
func (p *Parser) Program() *code.Program { return p.code }

// Symbols returns the top-level symbol table, useful for -s/--symbols dumps.
func (p *Parser) Symbols() *symtab.Table { return p.syms }

// HasErrors reports whether any syntax or semantic error was seen.
func (p *Parser) HasErrors() bool { return p.hasError }

// --- token navigation ---

func (p *Parser) current() token.Token {
	if p.position >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.position]
}

func (p *Parser) previous() token.Token {
	if p.position > 0 {
		return p.tokens[p.position-1]
	}
	return p.tokens[0]
}

func (p *Parser) advance() {
	if p.position < len(p.tokens)-1 {
		p.position++
	}
}

func (p *Parser) check(t token.Type) bool {
	return p.current().Type == t
}

func (p *Parser) match(t token.Type) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// --- error reporting and recovery ---

func foundText(t token.Token) string {
	if t.Type == token.EOF {
		return "end of file"
	}
	return t.Value
}

func (p *Parser) reportAt(t token.Token, message string) {
	p.hasError = true
	if p.diag != nil {
		p.diag.Report(diag.Diagnostic{
			Level:    diag.Error,
			Location: diag.Location{Line: t.Line, Column: t.Column, Length: t.Length},
			Message:  message,
		})
	}
}

func (p *Parser) reportAtSuggest(t token.Token, message, suggestion string) {
	p.hasError = true
	if p.diag != nil {
		p.diag.Report(diag.Diagnostic{
			Level:      diag.Error,
			Location:   diag.Location{Line: t.Line, Column: t.Column, Length: t.Length},
			Message:    message,
			Suggestion: suggestion,
		})
	}
}

// reportExpected reports "expected X, found Y" against the current token,
// attaching the same handful of context-sensitive suggestions the original
// gives for common typos.
func (p *Parser) reportExpected(expected string) {
	tok := p.current()
	p.hasError = true
	if p.diag == nil {
		return
	}
	msg := fmt.Sprintf("expected %s, found %s", expected, quoteFound(tok))
	d := diag.Diagnostic{
		Level:    diag.Error,
		Location: diag.Location{Line: tok.Line, Column: tok.Column, Length: tok.Length},
		Message:  msg,
	}
	switch expected {
	case "';'":
		switch tok.Type {
		case token.BEGIN:
			d = d.WithSuggestion("add ';' before 'begin'")
		case token.IDENT:
			d = d.WithSuggestion("statements must be separated by ';'")
		case token.END:
			d = d.WithSuggestion("add ';' after the last statement before 'end'")
		}
	case "':='":
		if tok.Type == token.EQ {
			d = d.WithSuggestion("use ':=' for assignment, '=' is for comparison").WithFix(":=")
		}
	case "'then'":
		d = d.WithSuggestion("'if' condition must be followed by 'then'")
	case "'do'":
		d = d.WithSuggestion("'while' condition must be followed by 'do'")
	case "'end'":
		d = d.WithSuggestion("'begin' must have a matching 'end'")
	case "')'":
		d = d.WithSuggestion("missing closing parenthesis")
	case "'('":
		d = d.WithSuggestion("missing opening parenthesis")
	}
	p.diag.Report(d)
}

func quoteFound(t token.Token) string {
	if t.Type == token.EOF {
		return "end of file"
	}
	return "'" + t.Value + "'"
}

// expect consumes t.Type if it matches, otherwise reports and synchronizes.
func (p *Parser) expect(t token.Type, expected string) {
	if p.check(t) {
		p.advance()
		return
	}
	p.reportExpected(expected)
	p.synchronize()
}

// expectSemicolon has its own error path: when the offender looks like the
// start of another statement, the diagnostic points just past the previous
// token instead of at the offender, matching a missing-punctuation report
// rather than an unexpected-token report.
func (p *Parser) expectSemicolon() {
	if p.check(token.SEMICOLON) {
		p.advance()
		return
	}
	tok := p.current()
	prev := p.previous()
	p.hasError = true
	if p.diag != nil {
		switch tok.Type {
		case token.IDENT, token.BEGIN, token.IF, token.WHILE, token.CALL, token.READ, token.WRITE:
			p.diag.Report(diag.Diagnostic{
				Level:      diag.Error,
				Location:   diag.Location{Line: prev.Line, Column: prev.Column + prev.Length, Length: 1},
				Message:    "expected ';'",
				Suggestion: fmt.Sprintf("add ';' after '%s'", prev.Value),
			})
		default:
			p.diag.Report(diag.Diagnostic{
				Level:    diag.Error,
				Location: diag.Location{Line: tok.Line, Column: tok.Column, Length: tok.Length},
				Message:  fmt.Sprintf("expected ';', found '%s'", tok.Value),
			})
		}
	}
	p.synchronize()
}

// synchronize skips tokens until a statement boundary: a consumed ';', or an
// unconsumed block/declaration keyword or end of file.
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if p.check(token.SEMICOLON) {
			p.advance()
			return
		}
		switch p.current().Type {
		case token.BEGIN, token.END, token.CONST, token.VAR, token.PROCEDURE:
			return
		}
		p.advance()
	}
}

// --- grammar ---

// Parse recognizes <prog> -> program <id> ; <block> and returns whether the
// input was free of errors.
func (p *Parser) Parse() bool {
	p.parseProgram()
	return !p.hasError
}

func (p *Parser) parseProgram() {
	p.enter("<program>")
	defer p.exit()

	p.expect(token.PROGRAM, "'program'")

	if p.check(token.IDENT) {
		p.advance()
	} else {
		p.reportExpected("program name (identifier)")
	}

	p.expect(token.SEMICOLON, "';'")

	// The program scope stays open so Symbols() can still list its entries
	// after parsing.
	p.syms.EnterScope()
	p.parseBlock()

	p.code.Emit(code.OPR, 0, code.RET)

	if !p.check(token.EOF) {
		tok := p.current()
		p.reportAtSuggest(tok, "unexpected token after end of program", "program should end after the main block")
	}
}

// parseBlock recognizes <block> -> [<condecl>][<vardecl>][<proc>]<body>. It
// is used identically for the top-level program and every procedure: a
// leading jump over the declaration prologue, then the declarations, a
// backpatched jump target, a frame-size INT, then the body.
func (p *Parser) parseBlock() {
	p.enter("<block>")
	defer p.exit()

	jmpAddr := p.code.Emit(code.JMP, 0, 0)

	if p.check(token.CONST) {
		p.parseCondecl()
	}
	if p.check(token.VAR) {
		p.parseVardecl()
	}
	for p.check(token.PROCEDURE) {
		p.parseProc()
	}

	p.code.Backpatch(jmpAddr, p.code.NextAddress())

	p.code.Emit(code.INT, 0, p.syms.FrameSize())

	p.parseBody()
}

// parseCondecl recognizes <condecl> -> const <const>{,<const>};, with
// <const> -> id := [+|-]<integer>. The signed-initializer extension exists
// because the grammar otherwise gives no way to declare a negative constant.
func (p *Parser) parseCondecl() {
	p.enter("<const-declaration>")
	defer p.exit()

	p.expect(token.CONST, "'const'")

	for {
		if !p.check(token.IDENT) {
			p.reportExpected("identifier")
			break
		}
		nameTok := p.current()
		name := nameTok.Value
		p.advance()

		if p.check(token.EQ) {
			p.hasError = true
			if p.diag != nil {
				tok := p.current()
				p.diag.Report(diag.Diagnostic{
					Level:    diag.Error,
					Location: diag.Location{Line: tok.Line, Column: tok.Column, Length: tok.Length},
					Message:  "use ':=' for constant definition, not '='",
				}.WithSuggestion("PL/0 uses ':=' for both assignment and constant definition").WithFix(":="))
			}
			p.advance()
		} else {
			p.expect(token.ASSIGN, "':='")
		}

		negative := false
		if p.check(token.MINUS) {
			negative = true
			p.advance()
		} else if p.check(token.PLUS) {
			p.advance()
		}

		if p.check(token.INT) {
			value := parseIntLiteral(p.current().Value)
			if negative {
				value = -value
			}
			if _, exists := p.syms.LookupCurrent(name); exists {
				p.reportAtSuggest(nameTok, fmt.Sprintf("redeclaration of '%s'", name),
					fmt.Sprintf("'%s' is already declared in this scope", name))
			} else {
				p.syms.Declare(name, symtab.Constant, value)
			}
			p.advance()
		} else {
			p.reportExpected("integer value")
		}

		if !p.match(token.COMMA) {
			break
		}
	}

	p.expectSemicolon()
}

// parseVardecl recognizes <vardecl> -> var <id>{,<id>};.
func (p *Parser) parseVardecl() {
	p.enter("<var-declaration>")
	defer p.exit()

	p.expect(token.VAR, "'var'")

	for {
		if !p.check(token.IDENT) {
			p.reportExpected("identifier")
			break
		}
		nameTok := p.current()
		name := nameTok.Value
		if _, exists := p.syms.LookupCurrent(name); exists {
			p.reportAtSuggest(nameTok, fmt.Sprintf("redeclaration of '%s'", name),
				fmt.Sprintf("'%s' is already declared in this scope", name))
		} else {
			p.syms.Declare(name, symtab.Variable, 0)
		}
		p.advance()

		if !p.match(token.COMMA) {
			break
		}
	}

	p.expectSemicolon()
}

// parseProc recognizes <proc> -> procedure <id>([<id>{,<id>}]);<block>;.
// The procedure's own symbol is declared in the ENCLOSING scope (so sibling
// procedures and the caller can see it) before a new scope is entered for
// its parameters and body.
func (p *Parser) parseProc() {
	p.enter("<procedure>")
	defer p.exit()

	p.expect(token.PROCEDURE, "'procedure'")

	var name string
	if p.check(token.IDENT) {
		nameTok := p.current()
		name = nameTok.Value
		if _, exists := p.syms.LookupCurrent(name); exists {
			p.reportAt(nameTok, fmt.Sprintf("redeclaration of procedure '%s'", name))
		} else {
			p.syms.Declare(name, symtab.Procedure, p.code.NextAddress())
		}
		p.advance()
	} else {
		p.reportExpected("procedure name")
	}

	p.expect(token.LPAREN, "'('")

	p.syms.EnterScope()

	if p.check(token.IDENT) {
		for {
			if p.check(token.IDENT) {
				p.syms.Declare(p.current().Value, symtab.Variable, 0)
				p.advance()
			}
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	p.expect(token.RPAREN, "')'")
	p.expectSemicolon()

	p.parseBlock()

	p.code.Emit(code.OPR, 0, code.RET)

	p.syms.ExitScope()

	p.expectSemicolon()
}

// parseBody recognizes <body> -> begin <statement>{;<statement>} end,
// allowing a trailing semicolon before 'end'.
func (p *Parser) parseBody() {
	p.enter("<body>")
	defer p.exit()

	p.expect(token.BEGIN, "'begin'")

	p.parseStatement()

	for p.match(token.SEMICOLON) {
		if p.check(token.END) {
			break
		}
		p.parseStatement()
	}

	if !p.check(token.END) {
		switch p.current().Type {
		case token.IDENT, token.IF, token.WHILE, token.CALL, token.READ, token.WRITE, token.BEGIN:
			p.hasError = true
			if p.diag != nil {
				tok := p.current()
				p.diag.Report(diag.Diagnostic{
					Level:      diag.Error,
					Location:   diag.Location{Line: tok.Line, Column: tok.Column, Length: tok.Length},
					Message:    "expected ';' between statements",
					Suggestion: "statements must be separated by ';'",
				})
			}
		default:
			p.reportExpected("'end'")
		}
	}

	p.expect(token.END, "'end'")
}

// parseStatement recognizes every statement form. Assignment, read, and
// call targets are resolved against the symbol table inline; on an
// undeclared name or a category mismatch it reports and still tries to
// consume the rest of the statement so one bad line doesn't cascade.
func (p *Parser) parseStatement() {
	p.enter("<statement>")
	defer p.exit()

	switch {
	case p.check(token.IDENT):
		p.parseAssignment()
	case p.match(token.IF):
		p.parseIf()
	case p.match(token.WHILE):
		p.parseWhile()
	case p.match(token.CALL):
		p.parseCall()
	case p.check(token.BEGIN):
		p.parseBody()
	case p.match(token.READ):
		p.parseRead()
	case p.match(token.WRITE):
		p.parseWrite()
	default:
		switch p.current().Type {
		case token.SEMICOLON, token.END, token.ELSE, token.EOF:
			// empty statement, allowed
		default:
			tok := p.current()
			p.reportAtSuggest(tok, "unexpected token in statement",
				"expected statement starting with identifier, 'if', 'while', 'call', 'begin', 'read', or 'write'")
		}
	}
}

func (p *Parser) parseAssignment() {
	varTok := p.current()
	name := varTok.Value
	sym, ok := p.syms.Lookup(name)

	if !ok {
		p.reportAtSuggest(varTok, fmt.Sprintf("use of undeclared identifier '%s'", name),
			fmt.Sprintf("declare '%s' with 'var' before use", name))
		p.advance()
		p.recoverAssignmentTail()
		return
	}

	switch sym.Category {
	case symtab.Constant:
		p.reportAtSuggest(varTok, fmt.Sprintf("cannot assign to constant '%s'", name),
			fmt.Sprintf("'%s' was declared as 'const'", name))
		p.advance()
		p.recoverAssignmentTail()
		return
	case symtab.Procedure:
		p.reportAtSuggest(varTok, fmt.Sprintf("cannot assign to procedure '%s'", name),
			fmt.Sprintf("did you mean 'call %s(...)'?", name))
		p.advance()
		p.recoverAssignmentTail()
		return
	}

	p.advance()

	if p.check(token.EQ) {
		p.hasError = true
		if p.diag != nil {
			tok := p.current()
			p.diag.Report(diag.Diagnostic{
				Level:    diag.Error,
				Location: diag.Location{Line: tok.Line, Column: tok.Column, Length: tok.Length},
				Message:  "use ':=' for assignment, not '='",
			}.WithSuggestion("'=' is for comparison, ':=' is for assignment").WithFix(":="))
		}
		p.advance()
	} else {
		p.expect(token.ASSIGN, "':='")
	}

	p.parseExp()

	levelDiff := p.syms.Level() - sym.Level
	p.code.Emit(code.STO, levelDiff, sym.Payload)
}

// recoverAssignmentTail is reached after reporting an error on the target of
// an assignment; it consumes ':=' or '=' plus the right-hand expression so a
// bad target doesn't desynchronize the rest of the statement list.
func (p *Parser) recoverAssignmentTail() {
	if p.check(token.ASSIGN) || p.check(token.EQ) {
		p.advance()
		p.parseExp()
	}
}

func (p *Parser) parseIf() {
	p.parseLexp()
	p.expect(token.THEN, "'then'")

	jpcAddr := p.code.Emit(code.JPC, 0, 0)

	p.parseStatement()

	if p.match(token.ELSE) {
		jmpAddr := p.code.Emit(code.JMP, 0, 0)
		p.code.Backpatch(jpcAddr, p.code.NextAddress())
		p.parseStatement()
		p.code.Backpatch(jmpAddr, p.code.NextAddress())
	} else {
		p.code.Backpatch(jpcAddr, p.code.NextAddress())
	}
}

func (p *Parser) parseWhile() {
	loopAddr := p.code.NextAddress()

	p.parseLexp()
	p.expect(token.DO, "'do'")

	jpcAddr := p.code.Emit(code.JPC, 0, 0)

	p.parseStatement()

	p.code.Emit(code.JMP, 0, loopAddr)
	p.code.Backpatch(jpcAddr, p.code.NextAddress())
}

// parseCall recognizes call <id>([<exp>{,<exp>}]). Argument expressions are
// parsed and their code emitted for side effects (and to consume the
// tokens), but the callee's block prologue never reserves parameter slots
// beyond what its own <proc> declared, so no calling convention actually
// delivers these values into the callee's frame. This mirrors the original
// implementation's own call-site behavior rather than inventing a working
// argument-passing scheme it never had.
func (p *Parser) parseCall() {
	callLevel, callAddr, canCall := 0, 0, false
	if p.check(token.IDENT) {
		procTok := p.current()
		name := procTok.Value
		sym, ok := p.syms.Lookup(name)

		switch {
		case !ok:
			p.reportAtSuggest(procTok, fmt.Sprintf("call to undeclared procedure '%s'", name),
				"declare procedure before calling it")
		case sym.Category != symtab.Procedure:
			kind := "variable"
			if sym.Category == symtab.Constant {
				kind = "constant"
			}
			p.reportAtSuggest(procTok, fmt.Sprintf("'%s' is a %s, not a procedure", name, kind),
				"only procedures can be called")
		default:
			callLevel, callAddr, canCall = p.syms.Level()-sym.Level, sym.Payload, true
		}
		p.advance()
	} else {
		p.reportExpected("procedure name")
	}

	p.expect(token.LPAREN, "'('")

	if !p.check(token.RPAREN) {
		for {
			p.parseExp()
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	p.expect(token.RPAREN, "')'")

	if canCall {
		p.code.Emit(code.CAL, callLevel, callAddr)
	}
}

func (p *Parser) parseRead() {
	p.expect(token.LPAREN, "'('")

	for {
		if !p.check(token.IDENT) {
			p.reportExpected("identifier")
			break
		}
		varTok := p.current()
		name := varTok.Value
		sym, ok := p.syms.Lookup(name)

		switch {
		case !ok:
			p.reportAt(varTok, fmt.Sprintf("use of undeclared identifier '%s'", name))
		case sym.Category == symtab.Constant:
			p.reportAtSuggest(varTok, fmt.Sprintf("cannot read into constant '%s'", name),
				fmt.Sprintf("'%s' was declared as 'const'", name))
		case sym.Category == symtab.Procedure:
			p.reportAt(varTok, fmt.Sprintf("cannot read into procedure '%s'", name))
		default:
			levelDiff := p.syms.Level() - sym.Level
			p.code.Emit(code.RED, levelDiff, sym.Payload)
		}
		p.advance()

		if !p.match(token.COMMA) {
			break
		}
	}

	p.expect(token.RPAREN, "')'")
}

func (p *Parser) parseWrite() {
	p.expect(token.LPAREN, "'('")

	for {
		p.parseExp()
		p.code.Emit(code.WRT, 0, 0)
		if !p.match(token.COMMA) {
			break
		}
	}

	p.expect(token.RPAREN, "')'")
}

// parseLexp recognizes <lexp> -> <exp> <lop> <exp> | odd <exp>.
func (p *Parser) parseLexp() {
	p.enter("<condition>")
	defer p.exit()

	if p.match(token.ODD) {
		p.parseExp()
		p.code.Emit(code.OPR, 0, code.ODD)
		return
	}

	p.parseExp()

	relOp := p.current().Type
	switch relOp {
	case token.EQ, token.NEQ, token.LT, token.LEQ, token.GT, token.GEQ:
		p.advance()
		p.parseExp()
		switch relOp {
		case token.EQ:
			p.code.Emit(code.OPR, 0, code.EQ)
		case token.NEQ:
			p.code.Emit(code.OPR, 0, code.NEQ)
		case token.LT:
			p.code.Emit(code.OPR, 0, code.LT)
		case token.LEQ:
			p.code.Emit(code.OPR, 0, code.LEQ)
		case token.GT:
			p.code.Emit(code.OPR, 0, code.GT)
		case token.GEQ:
			p.code.Emit(code.OPR, 0, code.GEQ)
		}
	default:
		p.reportAtSuggest(p.current(), "expected relational operator (=, <>, <, <=, >, >=)",
			"conditions require a comparison")
	}
}

// parseExp recognizes <exp> -> [+|-]<term>{<aop><term>}.
func (p *Parser) parseExp() {
	p.enter("<expression>")
	defer p.exit()

	negative := false
	if p.match(token.PLUS) {
		// unary +, no code needed
	} else if p.match(token.MINUS) {
		negative = true
	}

	p.parseTerm()

	if negative {
		p.code.Emit(code.OPR, 0, code.NEG)
	}

	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.current().Type
		p.advance()
		p.parseTerm()
		if op == token.PLUS {
			p.code.Emit(code.OPR, 0, code.ADD)
		} else {
			p.code.Emit(code.OPR, 0, code.SUB)
		}
	}
}

// parseTerm recognizes <term> -> <factor>{<mop><factor>}.
func (p *Parser) parseTerm() {
	p.enter("<term>")
	defer p.exit()

	p.parseFactor()

	for p.check(token.STAR) || p.check(token.SLASH) {
		op := p.current().Type
		p.advance()
		p.parseFactor()
		if op == token.STAR {
			p.code.Emit(code.OPR, 0, code.MUL)
		} else {
			p.code.Emit(code.OPR, 0, code.DIV)
		}
	}
}

// parseFactor recognizes <factor> -> <id> | <integer> | (<exp>).
func (p *Parser) parseFactor() {
	p.enter("<factor>")
	defer p.exit()

	switch {
	case p.check(token.IDENT):
		idTok := p.current()
		name := idTok.Value
		sym, ok := p.syms.Lookup(name)

		if !ok {
			p.reportAtSuggest(idTok, fmt.Sprintf("use of undeclared identifier '%s'", name),
				fmt.Sprintf("declare '%s' before use", name))
		} else {
			levelDiff := p.syms.Level() - sym.Level
			switch sym.Category {
			case symtab.Constant:
				p.code.Emit(code.LIT, 0, sym.Payload)
			case symtab.Variable:
				p.code.Emit(code.LOD, levelDiff, sym.Payload)
			default:
				p.reportAtSuggest(idTok, fmt.Sprintf("procedure '%s' cannot be used as a value", name),
					"procedures cannot appear in expressions")
			}
		}
		p.advance()

	case p.check(token.INT):
		value := parseIntLiteral(p.current().Value)
		p.code.Emit(code.LIT, 0, value)
		p.advance()

	case p.match(token.LPAREN):
		p.parseExp()
		p.expect(token.RPAREN, "')'")

	default:
		tok := p.current()
		if tok.Type == token.EOF {
			p.reportAtSuggest(tok, "unexpected end of file in expression", "expression is incomplete")
		} else {
			p.reportAtSuggest(tok, "expected expression (identifier, number, or '(')",
				fmt.Sprintf("found '%s' which cannot start an expression", tok.Value))
		}
	}
}

// parseIntLiteral converts a decimal digit string already validated by the
// lexer. Overflow was reported there; no range check is made here.
func parseIntLiteral(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}
