package lexer

import (
	"io"
	"os"
	"strings"
)

// bufSize is the block size of each half-buffer; it plays the same role as
// a disk block size in the classic two-buffer scanning scheme.
const bufSize = 4096

// sentinel is a byte value that cannot appear in legal PL/0 source, used to
// mark the end of each half-buffer so the scanning loop needs only a single
// comparison to detect a boundary.
const sentinel byte = 0

// Buffer is a double-buffer-with-sentinels input source (Aho, Sethi &
// Ullman's "Dragon Book" scheme). It delivers source bytes to the lexer
// with O(1) steady-state memory regardless of file size.
//
// Layout: one contiguous slice of 2*bufSize+2 bytes, partitioned as
// [half1 bufSize][sentinel][half2 bufSize][sentinel]. lexemeBegin marks the
// start of the token currently being scanned; forward is the scanning
// cursor. Reading past a sentinel refills the *other* half and wraps
// forward into it, unless the sentinel marks genuine end of input.
type Buffer struct {
	src    io.Reader
	closer io.Closer

	buf                            []byte
	lexemeBegin, forward           int
	buffer1, buffer2               int
	sentinel1, sentinel2           int
	eof1, eof2, inputExhausted     bool

	line, column                   int
	lexemeStartLine, lexemeStartCol int

	sourceLines    []string
	currentLineBuf strings.Builder
}

// FromFile opens filename and returns a Buffer reading from it. The Buffer
// owns the file and closes it on Close.
func FromFile(filename string) (*Buffer, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	b := newBuffer(f, f)
	b.fill()
	return b, nil
}

// FromString returns a Buffer reading from an in-memory source string. The
// source lines are cached up front, matching the original's behavior of
// having a complete line index available even before the lexer runs.
func FromString(source string) *Buffer {
	b := newBuffer(strings.NewReader(source), nil)
	b.sourceLines = splitLines(source)
	b.fill()
	return b
}

// FromReader wraps an arbitrary reader (e.g. a caller-supplied stream);
// ownership of the underlying resource stays with the caller.
func FromReader(r io.Reader) *Buffer {
	b := newBuffer(r, nil)
	b.fill()
	return b
}

func splitLines(source string) []string {
	lines := strings.Split(source, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}

func newBuffer(r io.Reader, closer io.Closer) *Buffer {
	b := &Buffer{
		src:    r,
		closer: closer,
		buf:    make([]byte, 2*bufSize+2),
		line:   1, column: 1,
		lexemeStartLine: 1, lexemeStartCol: 1,
	}
	b.buffer1 = 0
	b.sentinel1 = bufSize
	b.buffer2 = bufSize + 1
	b.sentinel2 = 2*bufSize + 1
	b.buf[b.sentinel1] = sentinel
	b.buf[b.sentinel2] = sentinel
	b.lexemeBegin = b.buffer1
	b.forward = b.buffer1
	return b
}

// fill loads the first half-buffer; called once at construction.
func (b *Buffer) fill() {
	b.loadHalf(b.buffer1, &b.eof1)
}

func (b *Buffer) loadHalf(start int, eofFlag *bool) {
	if b.inputExhausted {
		*eofFlag = true
		b.buf[start] = sentinel
		return
	}
	n, err := io.ReadFull(b.src, b.buf[start:start+bufSize])
	if n < bufSize {
		b.buf[start+n] = sentinel
		*eofFlag = true
		b.inputExhausted = true
	} else {
		*eofFlag = false
	}
	_ = err // short/EOF reads are folded into the sentinel/eof-flag protocol above
}

// Close releases the underlying resource if the Buffer owns one.
func (b *Buffer) Close() error {
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

// Current returns the byte at forward. Reaching a half's sentinel before
// Advance has had a chance to refill it (e.g. right after construction of
// an empty source) is handled as a fallback switch, mirroring the
// original's defensive currentChar().
func (b *Buffer) Current() byte {
	c := b.buf[b.forward]
	if c != sentinel {
		return c
	}
	switch b.forward {
	case b.sentinel1:
		if b.eof1 {
			return sentinel
		}
		b.loadHalf(b.buffer2, &b.eof2)
		b.forward = b.buffer2
		return b.buf[b.forward]
	case b.sentinel2:
		if b.eof2 {
			return sentinel
		}
		b.loadHalf(b.buffer1, &b.eof1)
		b.forward = b.buffer1
		return b.buf[b.forward]
	default:
		// A sentinel byte appearing mid-half never legally occurs in PL/0
		// source, so treat it as genuine end of input.
		return sentinel
	}
}

// Peek looks ahead by offset bytes (offset>=1) without leaving Current's
// position advanced. The lexer itself does not call Peek: it checks the
// second byte of a two-character operator by advancing and reading Current.
func (b *Buffer) Peek(offset int) byte {
	savedForward := b.forward
	savedLine, savedCol := b.line, b.column
	result := sentinel
	for i := 0; i < offset; i++ {
		b.Advance()
		if b.IsEOF() {
			result = sentinel
			break
		}
		if i == offset-1 {
			result = b.Current()
		}
	}
	b.forward = savedForward
	b.line, b.column = savedLine, savedCol
	return result
}

// Advance moves forward one byte ahead, tracking line/column, caching
// completed source lines for the diagnostic engine, and refilling the
// other half-buffer when forward crosses into a sentinel slot.
func (b *Buffer) Advance() {
	c := b.buf[b.forward]
	if c == sentinel {
		return
	}
	b.trackPosition(c)
	b.forward++

	if b.buf[b.forward] == sentinel {
		switch b.forward {
		case b.sentinel1:
			if !b.eof1 {
				b.loadHalf(b.buffer2, &b.eof2)
				b.forward = b.buffer2
			}
		case b.sentinel2:
			if !b.eof2 {
				b.loadHalf(b.buffer1, &b.eof1)
				b.forward = b.buffer1
			}
		}
	}
}

// Retract moves forward one byte back. Per the Design Notes, this does not
// attempt to re-synthesize line/column across a newline. The lexer itself
// never calls Retract.
func (b *Buffer) Retract() {
	switch b.forward {
	case b.buffer1:
		b.forward = b.sentinel2 - 1
	case b.buffer2:
		b.forward = b.sentinel1 - 1
	default:
		b.forward--
	}
	if b.column > 1 {
		b.column--
	}
}

func (b *Buffer) trackPosition(c byte) {
	if c == '\n' {
		if len(b.sourceLines) < b.line {
			b.sourceLines = append(b.sourceLines, b.currentLineBuf.String())
		}
		b.currentLineBuf.Reset()
		b.line++
		b.column = 1
	} else if c != '\r' {
		b.currentLineBuf.WriteByte(c)
		b.column++
	}
}

// MarkLexemeStart records the current position as the start of the token
// now being scanned.
func (b *Buffer) MarkLexemeStart() {
	b.lexemeBegin = b.forward
	b.lexemeStartLine, b.lexemeStartCol = b.line, b.column
}

// Lexeme returns the text between lexemeBegin and forward (exclusive),
// walking index-by-index the same way the original walks pointers so a
// lexeme spanning exactly one buffer wrap is reassembled correctly.
func (b *Buffer) Lexeme() string {
	var out []byte
	p := b.lexemeBegin
	for p != b.forward {
		if b.buf[p] != sentinel {
			out = append(out, b.buf[p])
		}
		p++
		if p == b.sentinel1+1 {
			p = b.buffer2
		} else if p == b.sentinel2+1 {
			p = b.buffer1
		}
	}
	return string(out)
}

// SkipLexeme advances lexemeBegin to forward without capturing any text,
// used to discard skipped whitespace.
func (b *Buffer) SkipLexeme() {
	b.lexemeBegin = b.forward
}

func (b *Buffer) Line() int             { return b.line }
func (b *Buffer) Column() int           { return b.column }
func (b *Buffer) LexemeStartLine() int  { return b.lexemeStartLine }
func (b *Buffer) LexemeStartColumn() int { return b.lexemeStartCol }

// IsEOF reports whether the buffer has reached genuine end of input.
func (b *Buffer) IsEOF() bool {
	return b.Current() == sentinel
}

// SourceLines returns the lines accumulated so far, for the diagnostic
// engine. A file-backed buffer builds this incrementally as it scans; a
// string-backed buffer has it available immediately.
func (b *Buffer) SourceLines() []string {
	lines := append([]string(nil), b.sourceLines...)
	if b.currentLineBuf.Len() > 0 {
		lines = append(lines, b.currentLineBuf.String())
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	return lines
}
