package lexer

import (
	"fmt"
	"io"

	"github.com/sweeter-byte/pl0/internal/token"
)

// PrintTokens renders tokens as a fixed-width table, used by the driver's
// --tokens/-t flag.
func PrintTokens(w io.Writer, tokens []token.Token, useColor bool) {
	reset, bold, cyan, green, yellow, blue, red := "", "", "", "", "", "", ""
	if useColor {
		reset, bold, cyan, green, yellow, blue, red = "\033[0m", "\033[1m", "\033[36m", "\033[32m", "\033[33m", "\033[34m", "\033[31m"
	}

	fmt.Fprintf(w, "\n%s%sTOKENS%s\n", bold, cyan, reset)
	fmt.Fprintf(w, "%s%-6s %-6s %-14s %s%s\n", bold, "Line", "Col", "Type", "Value", reset)

	for _, t := range tokens {
		color := ""
		switch {
		case t.Type == token.ERROR:
			color = red
		case t.Type >= token.PROGRAM && t.Type <= token.ODD:
			color = green
		case t.Type == token.IDENT || t.Type == token.INT:
			color = yellow
		}
		val := t.Value
		if len(val) > 18 {
			val = val[:15] + "..."
		}
		fmt.Fprintf(w, "%s%-6d%s %-6d %s%-14s%s %s\n", blue, t.Line, reset, t.Column, color, typeName(t.Type), reset, val)
	}
	fmt.Fprintln(w)
}

func typeName(t token.Type) string {
	switch t {
	case token.EOF:
		return "EOF"
	case token.ERROR:
		return "ERROR"
	case token.IDENT:
		return "IDENT"
	case token.INT:
		return "NUMBER"
	default:
		return t.String()
	}
}
