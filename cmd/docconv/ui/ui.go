// Package ui provides terminal output for the docconv CLI.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

var (
	verboseFlag bool

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// InitUI applies the color and verbosity settings.
func InitUI(noColor, verbose bool) {
	verboseFlag = verbose
	if noColor {
		color.NoColor = true
	}
}

// Verbose reports whether verbose output was requested.
func Verbose() bool {
	return verboseFlag
}

// Success displays a success message.
func Success(format string, args ...any) {
	color.New(color.FgGreen).Fprintf(stdout, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Error displays an error message to stderr.
func Error(format string, args ...any) {
	color.New(color.FgRed).Fprintf(stderr, "✗ %s\n", fmt.Sprintf(format, args...))
}

// Warning displays a warning message.
func Warning(format string, args ...any) {
	color.New(color.FgYellow).Fprintf(stdout, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Info displays an informational message.
func Info(format string, args ...any) {
	color.New(color.FgCyan).Fprintf(stdout, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Step displays a step indicator message.
func Step(format string, args ...any) {
	color.New(color.FgBlue).Fprintf(stdout, "→ %s\n", fmt.Sprintf(format, args...))
}

// Section displays a section header.
func Section(title string) {
	color.New(color.Bold).Fprintf(stdout, "\n%s\n", title)
	fmt.Fprintf(stdout, "%s\n\n", strings.Repeat("=", len(title)))
}

// KeyValue displays a key-value pair.
func KeyValue(key, value string) {
	fmt.Fprintf(stdout, "  %s: %s\n", key, value)
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	d = d.Round(time.Second)

	minutes := d / time.Minute
	seconds := (d - minutes*time.Minute) / time.Second
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
