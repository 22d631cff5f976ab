// Command pl0 is the PL/0 compiler and interpreter driver: it lexes,
// parses, optionally dumps intermediate state, and optionally runs the
// resulting program, matching the phase structure of the original
// standalone compiler.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/sweeter-byte/pl0/internal/banner"
	"github.com/sweeter-byte/pl0/internal/diag"
	"github.com/sweeter-byte/pl0/internal/lexer"
	"github.com/sweeter-byte/pl0/internal/lspserver"
	"github.com/sweeter-byte/pl0/internal/parser"
	"github.com/sweeter-byte/pl0/internal/project"
	"github.com/sweeter-byte/pl0/internal/report"
	"github.com/sweeter-byte/pl0/internal/store"
	"github.com/sweeter-byte/pl0/internal/token"
	"github.com/sweeter-byte/pl0/internal/vm"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

type flags struct {
	tokens  bool
	ast     bool
	symbols bool
	code    bool
	source  bool
	all     bool
	noRun   bool
	debug   bool

	lexerOnly   bool
	parseOnly   bool
	compileOnly bool

	noColor bool
	verbose bool

	showVersion bool
	showHelp    bool

	// ambient-stack additions beyond the core phase flags
	reportPath string
	lsp        bool
	noHistory  bool
}

func run(args []string) int {
	fs := flag.NewFlagSet("pl0", flag.ContinueOnError)
	var f flags

	fs.BoolVar(&f.tokens, "tokens", false, "print the token table")
	fs.BoolVar(&f.tokens, "t", false, "shorthand for --tokens")
	fs.BoolVar(&f.ast, "ast", false, "print the parse-tree trace")
	fs.BoolVar(&f.ast, "a", false, "shorthand for --ast")
	fs.BoolVar(&f.symbols, "symbols", false, "print the symbol table")
	fs.BoolVar(&f.symbols, "s", false, "shorthand for --symbols")
	fs.BoolVar(&f.code, "code", false, "print the instruction listing")
	fs.BoolVar(&f.code, "c", false, "shorthand for --code")
	fs.BoolVar(&f.source, "source", false, "echo the source with line numbers before phases")
	fs.BoolVar(&f.all, "all", false, "enable --tokens --ast --symbols --code --source")
	fs.BoolVar(&f.noRun, "no-run", false, "don't execute the generated code")
	fs.BoolVar(&f.debug, "debug", false, "per-step execution trace with a stack snapshot")
	fs.BoolVar(&f.debug, "d", false, "shorthand for --debug")
	fs.BoolVar(&f.lexerOnly, "lexer-only", false, "stop after lexing; implies --tokens --no-run")
	fs.BoolVar(&f.parseOnly, "parse-only", false, "stop after parsing; implies --ast --no-run")
	fs.BoolVar(&f.compileOnly, "compile-only", false, "stop after code generation; implies --no-run")
	fs.BoolVar(&f.noColor, "no-color", false, "disable ANSI color escapes")
	fs.BoolVar(&f.verbose, "verbose", false, "print phase banners")
	fs.BoolVar(&f.verbose, "V", false, "shorthand for --verbose")
	fs.BoolVar(&f.showVersion, "version", false, "print version information and exit")
	fs.BoolVar(&f.showVersion, "v", false, "shorthand for --version")
	fs.BoolVar(&f.showHelp, "help", false, "print usage information and exit")
	fs.BoolVar(&f.showHelp, "h", false, "shorthand for --help")
	fs.StringVar(&f.reportPath, "report", "", "write a CBOR compile report to this path")
	fs.BoolVar(&f.lsp, "lsp", false, "run as a language server over stdio, ignoring all other flags")
	fs.BoolVar(&f.noHistory, "no-history", false, "don't record this run in the project's compile history")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pl0 [options] <file.pl0>\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if f.showHelp {
		fs.Usage()
		return 0
	}

	if f.lsp {
		return runLSP()
	}

	if f.all {
		f.tokens, f.ast, f.symbols, f.code, f.source = true, true, true, true, true
	}
	if f.lexerOnly {
		f.tokens, f.noRun = true, true
	}
	if f.parseOnly {
		f.ast, f.noRun = true, true
	}
	if f.compileOnly {
		f.noRun = true
	}

	useColor := !f.noColor && term.IsTerminal(int(os.Stdout.Fd()))

	if f.showVersion {
		banner.PrintVersion(os.Stdout, version, useColor)
		return 0
	}

	banner.PrintLogo(os.Stdout, useColor)

	if fs.NArg() < 1 {
		fs.Usage()
		return 1
	}

	path, err := findFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "pl0: %v\n", err)
		return 1
	}

	proj, err := project.FindAndLoad(filepath.Dir(path))
	if err != nil {
		fmt.Fprintf(os.Stderr, "pl0: warning: %v\n", err)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pl0: %v\n", err)
		return 1
	}

	if f.source {
		printSource(os.Stdout, string(source))
	}

	engine := diag.New(os.Stderr)
	engine.Filename = path
	engine.UseColors = useColor
	engine.SetSource(string(source), path)
	collector := &diag.Collector{Inner: engine}

	if f.verbose {
		fmt.Fprintln(os.Stdout, "-- lexing --")
	}
	buf := lexer.FromString(string(source))
	lx := lexer.New(buf, collector)
	tokens := lx.Tokenize()

	if f.tokens {
		lexer.PrintTokens(os.Stdout, tokens, useColor)
	}

	ok := !lx.HasErrors()
	var p *parser.Parser

	if !f.lexerOnly {
		if f.verbose {
			fmt.Fprintln(os.Stdout, "-- parsing --")
		}
		p = parser.New(tokens, collector)
		if f.ast {
			p.SetTrace(os.Stdout)
		}
		ok = p.Parse() && ok

		if f.symbols {
			printSymbols(os.Stdout, p)
		}
		if f.code {
			printCode(os.Stdout, p)
		}

		if f.reportPath != "" {
			if err := writeReport(f.reportPath, path, tokens, p, collector, ok); err != nil {
				fmt.Fprintf(os.Stderr, "pl0: %v\n", err)
			}
		}

		if !f.noRun && ok {
			if f.verbose {
				fmt.Fprintln(os.Stdout, "-- running --")
			}
			m := vm.New(p.Program(), os.Stdin, os.Stdout)
			if f.debug {
				m.SetTrace(os.Stderr)
			}
			if err := m.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "pl0: runtime error: %v\n", err)
				ok = false
			}
		}
	}

	engine.PrintSummary()
	banner.PrintBuildResult(os.Stdout, ok, useColor)

	if !f.noHistory {
		recordHistory(historyDBPath(proj), path, engine, ok)
	}

	if !ok {
		return 1
	}
	return 0
}

func printSource(w *os.File, source string) {
	fmt.Fprintln(w, "-- source --")
	lines := strings.Split(strings.TrimRight(source, "\n"), "\n")
	for i, line := range lines {
		fmt.Fprintf(w, "%4d | %s\n", i+1, line)
	}
}

func printSymbols(w *os.File, p *parser.Parser) {
	fmt.Fprintln(w, "\nSYMBOLS")
	for _, sym := range p.Symbols().All() {
		fmt.Fprintf(w, "  %-9s %-12s level=%d payload=%d\n", sym.Category, sym.Name, sym.Level, sym.Payload)
	}
	fmt.Fprintln(w)
}

func printCode(w *os.File, p *parser.Parser) {
	fmt.Fprintln(w, "\nCODE")
	for i, instr := range p.Program().Instructions {
		fmt.Fprintf(w, "%4d  %s\n", i, instr)
	}
	fmt.Fprintln(w)
}

func writeReport(path, sourceFile string, tokens []token.Token, p *parser.Parser, collector *diag.Collector, ok bool) error {
	r := report.New(sourceFile, tokens, p.Symbols().All(), collector.Diagnostics, ok)
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// historyDBPath returns the manifest's configured history database path, or
// the same default a manifest would apply (".pl0/history.db" under the
// current directory) when no pl0.toml was found.
func historyDBPath(proj *project.Manifest) string {
	if proj != nil {
		return proj.HistoryDBPath()
	}
	return filepath.Join(".", ".pl0", "history.db")
}

func recordHistory(dbPath, path string, engine *diag.Engine, ok bool) {
	s, err := store.Open(dbPath)
	if err != nil {
		return
	}
	defer s.Close()

	exitCode := 0
	if !ok {
		exitCode = 1
	}
	s.Record(path, engine.ErrorCount(), engine.WarningCount(), exitCode)
}

// findFile resolves a bare name the same way the original compiler did:
// try the literal path, then a few conventional test-fixture locations.
func findFile(name string) (string, error) {
	candidates := []string{
		name,
		name + ".pl0",
		filepath.Join("test", name),
		filepath.Join("test", name+".pl0"),
		filepath.Join("..", "test", name),
		filepath.Join("..", "test", name+".pl0"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("file not found: %s", name)
}

func runLSP() int {
	s := lspserver.New(version)
	if err := s.RunStdio(); err != nil {
		fmt.Fprintf(os.Stderr, "pl0: lsp: %v\n", err)
		return 1
	}
	return 0
}
