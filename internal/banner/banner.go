// Package banner renders the driver's startup logo, version block, and
// build-result banners. Nothing here is load-bearing; the driver has no flag
// that silences it.
package banner

import (
	"fmt"
	"io"
)

// ANSI color codes, matching the palette the original driver used.
const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	cyan    = "\033[36m"
	magenta = "\033[35m"
	green   = "\033[32m"
)

const miniLogo = `
    ____  __    ____  ______
   / __ \/ /   / __ \/ ____/
  / /_/ / /   / / / / /
 / ____/ /___/ /_/ / /___
/_/   /_____/\____/\____/
        COMPILER
`

const versionBlock = `
╔══════════════════════════════════════════════════════════════════╗
║                        PL/0 COMPILER                              ║
╠══════════════════════════════════════════════════════════════════╣
║  A compiler and interpreter for the PL/0 programming language     ║
║  Single-pass parsing with Clang-style diagnostics                 ║
╚══════════════════════════════════════════════════════════════════╝
`

// PrintLogo writes the mini logo, printed by the driver at the start of every
// compile run (not for --help or --version).
func PrintLogo(w io.Writer, useColor bool) {
	if useColor {
		fmt.Fprint(w, cyan)
	}
	fmt.Fprintln(w, miniLogo)
	if useColor {
		fmt.Fprint(w, reset)
	}
}

// PrintVersion writes the version banner.
func PrintVersion(w io.Writer, version string, useColor bool) {
	if useColor {
		fmt.Fprint(w, green, bold)
	}
	fmt.Fprintln(w, versionBlock)
	fmt.Fprintf(w, "version %s\n", version)
	if useColor {
		fmt.Fprint(w, reset)
	}
}

// PrintBuildResult writes a one-line pass/fail banner after a compile run.
func PrintBuildResult(w io.Writer, success bool, useColor bool) {
	if success {
		if useColor {
			fmt.Fprint(w, green, bold)
		}
		fmt.Fprintln(w, "✓ build successful")
	} else {
		if useColor {
			fmt.Fprint(w, "\033[1;31m")
		}
		fmt.Fprintln(w, "✗ build failed")
	}
	if useColor {
		fmt.Fprint(w, reset)
	}
}
