// Package output prints styled status lines and summaries to the terminal.
//
// Functions use lipgloss for styling but keep the details away from callers:
//
//	output.Success("Wrote 4 files")
//	output.Info("Dependency analysis")
//	output.Step("docs/dependency_map.json")
//	output.Error("analysis failed")
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	keyStyle     = lipgloss.NewStyle().Bold(true)

	mu          sync.Mutex
	out         io.Writer = os.Stdout
	verboseMode bool
)

// SetVerbose enables or disables verbose output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

// SetOutput redirects all output and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return prev
}

func writeLine(s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(out, s)
}

// Success prints a completed operation in green.
func Success(msg string) {
	writeLine(successStyle.Render("✅ " + msg))
}

// Error prints a failure in red.
func Error(msg string) {
	writeLine(errorStyle.Render("❌ " + msg))
}

// Warn prints a recoverable problem in yellow.
func Warn(msg string) {
	writeLine(warnStyle.Render("⚠️  " + msg))
}

// Info prints a status line in cyan.
func Info(msg string) {
	writeLine(infoStyle.Render("ℹ️  " + msg))
}

// Step prints an indented gray sub-item.
func Step(msg string) {
	writeLine(stepStyle.Render("   " + msg))
}

// Verbose prints a debug line only when verbose mode is enabled.
func Verbose(msg string) {
	mu.Lock()
	v := verboseMode
	mu.Unlock()
	if v {
		writeLine(stepStyle.Render("🔍 " + msg))
	}
}

// Row is one key/value line of a summary table.
type Row struct {
	Key   string
	Value string
}

// Table prints rows as an aligned two-column list. Values wider than the
// terminal are truncated.
func Table(rows []Row) {
	width := 0
	for _, r := range rows {
		if n := lipgloss.Width(r.Key); n > width {
			width = n
		}
	}
	maxValue := TerminalWidth() - width - 5
	for _, r := range rows {
		key := keyStyle.Render(r.Key + strings.Repeat(" ", width-lipgloss.Width(r.Key)))
		writeLine("   " + key + "  " + truncate(r.Value, maxValue))
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if max <= 0 || len(runes) <= max {
		return s
	}
	if max < 3 {
		return "..."[:max]
	}
	return string(runes[:max-3]) + "..."
}

// TerminalWidth returns the stdout terminal width, or 80 when it cannot be
// detected.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
