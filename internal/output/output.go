// Package output prints styled status lines for the server's CLI
// subcommands.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

// Writer receives all output; tests swap it for a buffer.
var Writer io.Writer = os.Stdout

func line(icon string, format string, args ...any) {
	fmt.Fprintf(Writer, "%s%s\n", icon, fmt.Sprintf(format, args...))
}

// Success prints a success message
func Success(format string, args ...any) { line(successStyle.Render("✓ "), format, args...) }

// Warning prints a warning message
func Warning(format string, args ...any) { line(warningStyle.Render("⚠ "), format, args...) }

// Error prints an error message
func Error(format string, args ...any) { line(errorStyle.Render("✗ "), format, args...) }

// Info prints an info message
func Info(format string, args ...any) { line(infoStyle.Render("ℹ "), format, args...) }

// Muted prints a dimmed message, used for secrets and long values.
func Muted(format string, args ...any) {
	fmt.Fprintln(Writer, mutedStyle.Render(fmt.Sprintf(format, args...)))
}
