package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/FabienTschanz/DSCParser/core"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// printDiagnostics lists the non-fatal interpretation notes of one document,
// one row per diagnostic, indented beneath the file line.
func printDiagnostics(w io.Writer, diags core.Diagnostics) {
	for _, d := range diags {
		line := d.String()
		if d.Line > 0 {
			line = fmt.Sprintf("%s (line %d)", line, d.Line)
		}
		fmt.Fprintf(w, "  %s %s\n", yellow("!"), line)
	}
}

// colorizeDiff repaints unified diff lines for terminal reading. Headers
// come out bold, additions green, removals red, hunk markers cyan.
func colorizeDiff(diff string) string {
	lines := strings.Split(diff, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			lines[i] = bold(line)
		case strings.HasPrefix(line, "@@"):
			lines[i] = cyan(line)
		case strings.HasPrefix(line, "+"):
			lines[i] = green(line)
		case strings.HasPrefix(line, "-"):
			lines[i] = red(line)
		}
	}
	return strings.Join(lines, "\n")
}

// plural appends an s for counts other than one.
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
