// Package lexer implements PL/0's longest-match tokenizer over a
// double-buffered input source.
package lexer

import (
	"strconv"
	"strings"

	"github.com/sweeter-byte/pl0/internal/diag"
	"github.com/sweeter-byte/pl0/internal/token"
)

// Lexer scans one input Buffer into a token stream. It never aborts on a
// malformed lexeme: it emits an ERROR token, sets a sticky error flag, and
// keeps going so the parser can surface further diagnostics in one pass.
type Lexer struct {
	buf  *Buffer
	diag diag.Sink

	hasError bool
}

// New creates a Lexer reading from buf and reporting to sink. sink may be
// nil, in which case diagnostics are swallowed (only the sticky error flag
// is observable).
func New(buf *Buffer, sink diag.Sink) *Lexer {
	return &Lexer{buf: buf, diag: sink}
}

// HasErrors reports whether any lexical error was seen.
func (l *Lexer) HasErrors() bool { return l.hasError }

// SourceLines exposes the buffer's accumulated source lines for the
// diagnostic engine.
func (l *Lexer) SourceLines() []string { return l.buf.SourceLines() }

func isAlpha(c byte) bool  { return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isAlnum(c byte) bool  { return isAlpha(c) || isDigit(c) }
func isSpace(c byte) bool  { return c == ' ' || c == '\t' || c == '\r' || c == '\n' }

func isValidTokenStart(c byte) bool {
	return isAlpha(c) || isDigit(c) ||
		c == '+' || c == '-' || c == '*' || c == '/' ||
		c == '(' || c == ')' || c == ',' || c == ';' ||
		c == '=' || c == '<' || c == '>' || c == ':'
}

func utf8Len(first byte) int {
	switch {
	case first&0x80 == 0:
		return 1
	case first&0xE0 == 0xC0:
		return 2
	case first&0xF0 == 0xE0:
		return 3
	case first&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}

// Tokenize consumes the entire buffer and returns the token stream,
// terminated by exactly one EOF token.
func (l *Lexer) Tokenize() []token.Token {
	var tokens []token.Token
	for !l.buf.IsEOF() {
		l.skipWhitespace()
		if l.buf.IsEOF() {
			break
		}
		c := l.buf.Current()
		switch {
		case isAlpha(c) || c == '_':
			tokens = append(tokens, l.readIdentifierOrKeyword())
		case isDigit(c):
			tokens = append(tokens, l.readNumber())
		default:
			tokens = append(tokens, l.readOperator())
		}
	}
	tokens = append(tokens, token.NewWithLength(token.EOF, "", l.buf.Line(), l.buf.Column(), 0))
	return tokens
}

func (l *Lexer) skipWhitespace() {
	for isSpace(l.buf.Current()) {
		l.buf.Advance()
	}
}

func (l *Lexer) report(d diag.Diagnostic) {
	l.hasError = true
	if l.diag != nil {
		l.diag.Report(d)
	}
}

func (l *Lexer) readIdentifierOrKeyword() token.Token {
	l.buf.MarkLexemeStart()
	startLine, startCol := l.buf.LexemeStartLine(), l.buf.LexemeStartColumn()

	var value strings.Builder
	for isAlnum(l.buf.Current()) || l.buf.Current() == '_' {
		value.WriteByte(l.buf.Current())
		l.buf.Advance()
	}
	text := value.String()

	if len(text) > 0 && text[0] == '_' {
		l.report(diag.Diagnostic{
			Level:    diag.Error,
			Location: diag.Location{Line: startLine, Column: startCol},
			Message:  "identifier cannot start with underscore",
		}.WithSuggestion("identifiers must start with a letter"))
		return token.New(token.ERROR, text, startLine, startCol)
	}

	lower := strings.ToLower(text)
	typ := token.IDENT
	if kw, ok := token.Keywords[lower]; ok {
		typ = kw
	}
	return token.New(typ, text, startLine, startCol)
}

func (l *Lexer) readNumber() token.Token {
	l.buf.MarkLexemeStart()
	startLine, startCol := l.buf.LexemeStartLine(), l.buf.LexemeStartColumn()

	var value strings.Builder
	for isDigit(l.buf.Current()) {
		value.WriteByte(l.buf.Current())
		l.buf.Advance()
	}
	text := value.String()

	if isAlpha(l.buf.Current()) || l.buf.Current() == '_' {
		invalid := text
		for isAlnum(l.buf.Current()) || l.buf.Current() == '_' {
			invalid += string(l.buf.Current())
			l.buf.Advance()
		}
		l.report(diag.Diagnostic{
			Level:    diag.Error,
			Location: diag.Location{Line: startLine, Column: startCol, Length: len(invalid)},
			Message:  "invalid identifier '" + invalid + "'",
		}.WithSuggestion("identifiers cannot start with a digit"))
		return token.New(token.ERROR, invalid, startLine, startCol)
	}

	if n, err := strconv.ParseInt(text, 10, 64); err != nil {
		l.report(diag.Diagnostic{
			Level:    diag.Error,
			Location: diag.Location{Line: startLine, Column: startCol, Length: len(text)},
			Message:  "integer literal overflow",
		})
	} else if n > 2147483647 || n < -2147483648 {
		l.diagReportOnly(diag.Diagnostic{
			Level:    diag.Warning,
			Location: diag.Location{Line: startLine, Column: startCol, Length: len(text)},
			Message:  "integer literal is too large",
		}.WithSuggestion("maximum value is 2147483647"))
	}

	return token.New(token.INT, text, startLine, startCol)
}

// diagReportOnly reports without setting the sticky error flag, used for
// warnings.
func (l *Lexer) diagReportOnly(d diag.Diagnostic) {
	if l.diag != nil {
		l.diag.Report(d)
	}
}

func (l *Lexer) readOperator() token.Token {
	l.buf.MarkLexemeStart()
	startLine, startCol := l.buf.LexemeStartLine(), l.buf.LexemeStartColumn()
	c := l.buf.Current()

	switch c {
	case '+':
		l.buf.Advance()
		return token.New(token.PLUS, "+", startLine, startCol)
	case '-':
		l.buf.Advance()
		return token.New(token.MINUS, "-", startLine, startCol)
	case '*':
		l.buf.Advance()
		return token.New(token.STAR, "*", startLine, startCol)
	case '/':
		l.buf.Advance()
		return token.New(token.SLASH, "/", startLine, startCol)
	case '(':
		l.buf.Advance()
		return token.New(token.LPAREN, "(", startLine, startCol)
	case ')':
		l.buf.Advance()
		return token.New(token.RPAREN, ")", startLine, startCol)
	case ',':
		l.buf.Advance()
		return token.New(token.COMMA, ",", startLine, startCol)
	case ';':
		l.buf.Advance()
		return token.New(token.SEMICOLON, ";", startLine, startCol)
	case '=':
		l.buf.Advance()
		return token.New(token.EQ, "=", startLine, startCol)
	case '<':
		l.buf.Advance()
		switch l.buf.Current() {
		case '=':
			l.buf.Advance()
			return token.NewWithLength(token.LEQ, "<=", startLine, startCol, 2)
		case '>':
			l.buf.Advance()
			return token.NewWithLength(token.NEQ, "<>", startLine, startCol, 2)
		}
		return token.New(token.LT, "<", startLine, startCol)
	case '>':
		l.buf.Advance()
		if l.buf.Current() == '=' {
			l.buf.Advance()
			return token.NewWithLength(token.GEQ, ">=", startLine, startCol, 2)
		}
		return token.New(token.GT, ">", startLine, startCol)
	case ':':
		l.buf.Advance()
		if l.buf.Current() == '=' {
			l.buf.Advance()
			return token.NewWithLength(token.ASSIGN, ":=", startLine, startCol, 2)
		}
		l.report(diag.Diagnostic{
			Level:    diag.Error,
			Location: diag.Location{Line: startLine, Column: startCol},
			Message:  "unexpected ':' - did you mean ':='?",
		}.WithSuggestion("use ':=' for assignment").WithFix(":="))
		return token.New(token.ERROR, ":", startLine, startCol)
	case '!':
		l.buf.Advance()
		if l.buf.Current() == '=' {
			l.buf.Advance()
			l.report(diag.Diagnostic{
				Level:    diag.Error,
				Location: diag.Location{Line: startLine, Column: startCol, Length: 2},
				Message:  "'!=' is not valid in PL/0",
			}.WithSuggestion("use '<>' for not-equal comparison").WithFix("<>"))
			return token.NewWithLength(token.ERROR, "!=", startLine, startCol, 2)
		}
		l.report(diag.Diagnostic{
			Level:    diag.Error,
			Location: diag.Location{Line: startLine, Column: startCol},
			Message:  "'!' is not valid in PL/0",
		}.WithSuggestion("PL/0 does not have logical operators"))
		return token.New(token.ERROR, "!", startLine, startCol)
	case '&', '|':
		op := c
		l.buf.Advance()
		opStr := string(op)
		if l.buf.Current() == op {
			l.buf.Advance()
			opStr += string(op)
		}
		l.report(diag.Diagnostic{
			Level:    diag.Error,
			Location: diag.Location{Line: startLine, Column: startCol, Length: len(opStr)},
			Message:  "'" + opStr + "' is not valid in PL/0",
		}.WithSuggestion("PL/0 does not have logical operators"))
		return token.New(token.ERROR, opStr, startLine, startCol)
	default:
		return l.readInvalid(startLine, startCol, c)
	}
}

func (l *Lexer) readInvalid(startLine, startCol int, c byte) token.Token {
	if c >= 0x80 {
		var invalid []byte
		n := utf8Len(c)
		for i := 0; i < n; i++ {
			invalid = append(invalid, l.buf.Current())
			l.buf.Advance()
		}
		for !l.buf.IsEOF() && !isSpace(l.buf.Current()) {
			b := l.buf.Current()
			if b < 0x80 && isValidTokenStart(b) {
				break
			}
			if b >= 0x80 {
				n = utf8Len(b)
				for i := 0; i < n && !l.buf.IsEOF(); i++ {
					invalid = append(invalid, l.buf.Current())
					l.buf.Advance()
				}
			} else {
				invalid = append(invalid, l.buf.Current())
				l.buf.Advance()
			}
		}
		text := string(invalid)
		l.report(diag.Diagnostic{
			Level:    diag.Error,
			Location: diag.Location{Line: startLine, Column: startCol, Length: len(text)},
			Message:  "invalid character(s) '" + text + "'",
		}.WithSuggestion("PL/0 only supports ASCII characters"))
		return token.New(token.ERROR, text, startLine, startCol)
	}

	invalid := []byte{c}
	l.buf.Advance()
	for !l.buf.IsEOF() && !isSpace(l.buf.Current()) {
		b := l.buf.Current()
		if isValidTokenStart(b) {
			break
		}
		if b >= 0x80 {
			break
		}
		invalid = append(invalid, b)
		l.buf.Advance()
	}
	text := string(invalid)
	d := diag.Diagnostic{
		Level:    diag.Error,
		Location: diag.Location{Line: startLine, Column: startCol, Length: len(text)},
		Message:  "unexpected character '" + text + "'",
	}
	switch text {
	case "{", "}":
		d = d.WithSuggestion("use 'begin' and 'end' for blocks in PL/0")
	case "[", "]":
		d = d.WithSuggestion("PL/0 does not support arrays")
	case `"`, "'":
		d = d.WithSuggestion("PL/0 does not support string literals")
	}
	l.report(d)
	return token.New(token.ERROR, text, startLine, startCol)
}
