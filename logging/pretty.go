package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// PrettyLogger writes human-facing command output.
type PrettyLogger struct {
	writer io.Writer
	styles PrettyStyles
}

// PrettyStyles contains lipgloss styles for different message kinds
type PrettyStyles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Key     lipgloss.Style
	Value   lipgloss.Style
	Path    lipgloss.Style
}

// DefaultPrettyStyles returns the default styling for command output
func DefaultPrettyStyles() PrettyStyles {
	return PrettyStyles{
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true), // Green
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),            // Yellow
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),  // Red
		Key:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),             // Gray
		Value:   lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true), // Cyan
		Path:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Italic(true),
	}
}

// NewPrettyLogger creates a pretty logger writing to stdout
func NewPrettyLogger() *PrettyLogger {
	return &PrettyLogger{
		writer: os.Stdout,
		styles: DefaultPrettyStyles(),
	}
}

// WithWriter sets a custom writer for pretty output
func (p *PrettyLogger) WithWriter(w io.Writer) *PrettyLogger {
	p.writer = w
	return p
}

// Success prints a message with a checkmark
func (p *PrettyLogger) Success(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.styles.Success.Render("✓"),
		p.styles.Success.Render(message))
}

// Warn prints a warning
func (p *PrettyLogger) Warn(message string) {
	fmt.Fprintf(p.writer, "%s %s\n",
		p.styles.Warning.Render("⚠"),
		p.styles.Warning.Render(message))
}

// Error prints an error with its cause
func (p *PrettyLogger) Error(message string, err error) {
	fmt.Fprintf(p.writer, "%s %s",
		p.styles.Error.Render("✗"),
		p.styles.Error.Render(message))
	if err != nil {
		fmt.Fprintf(p.writer, ": %s", p.styles.Error.Render(err.Error()))
	}
	fmt.Fprintln(p.writer)
}

// Field prints a key-value pair
func (p *PrettyLogger) Field(key string, value interface{}) {
	fmt.Fprintf(p.writer, "%s: %s\n",
		p.styles.Key.Render(key),
		p.styles.Value.Render(fmt.Sprint(value)))
}

// Path prints a labelled file path
func (p *PrettyLogger) Path(label string, path string) {
	fmt.Fprintf(p.writer, "%s: %s\n",
		p.styles.Key.Render(label),
		p.styles.Path.Render(path))
}
