package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const helpWidth = 72

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208"))
	sectionStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("208"))
	commandStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	flagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

// SetStyledHelp applies the styled help to cmd and, through inheritance, to
// its subcommands.
func SetStyledHelp(cmd *cobra.Command) {
	cmd.SetHelpFunc(func(c *cobra.Command, _ []string) {
		renderHelp(c.OutOrStdout(), c)
	})
}

// PrintError prints a styled error with a help hint.
func PrintError(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s\n", errorStyle.Render("Error:"), err.Error())
	fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", mutedStyle.Render(fmt.Sprintf("Run '%s --help' for usage.", cmd.CommandPath())))
}

// wrapText wraps text at width, keeping existing line breaks.
func wrapText(text string, width int) string {
	var out []string
	for _, paragraph := range strings.Split(text, "\n") {
		if len(paragraph) <= width {
			out = append(out, paragraph)
			continue
		}
		var line string
		for _, word := range strings.Fields(paragraph) {
			switch {
			case line == "":
				line = word
			case len(line)+1+len(word) <= width:
				line += " " + word
			default:
				out = append(out, line)
				line = word
			}
		}
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func renderHelp(w io.Writer, cmd *cobra.Command) {
	fmt.Fprintln(w, " "+titleStyle.Render(strings.ToUpper(cmd.CommandPath())))
	if cmd.Short != "" {
		fmt.Fprintln(w, " "+cmd.Short)
	}
	if cmd.Long != "" && cmd.Long != cmd.Short {
		fmt.Fprintln(w)
		for _, line := range strings.Split(wrapText(cmd.Long, helpWidth), "\n") {
			fmt.Fprintln(w, " "+line)
		}
	}

	fmt.Fprintln(w, "\n "+sectionStyle.Render("USAGE"))
	if cmd.Runnable() {
		fmt.Fprintf(w, " %s\n", cmd.UseLine())
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, " %s [command]\n", cmd.CommandPath())

		width := 0
		for _, sub := range cmd.Commands() {
			if sub.IsAvailableCommand() {
				width = max(width, len(sub.Name()))
			}
		}
		fmt.Fprintln(w, "\n "+sectionStyle.Render("COMMANDS"))
		for _, sub := range cmd.Commands() {
			if !sub.IsAvailableCommand() {
				continue
			}
			pad := strings.Repeat(" ", width-len(sub.Name()))
			fmt.Fprintf(w, " %s%s  %s\n", commandStyle.Render(sub.Name()), pad, sub.Short)
		}
	}

	var flags []*pflag.Flag
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden {
			flags = append(flags, f)
		}
	})
	cmd.InheritedFlags().VisitAll(func(f *pflag.Flag) {
		if !f.Hidden && cmd.Flags().Lookup(f.Name) == nil {
			flags = append(flags, f)
		}
	})
	if len(flags) > 0 {
		width := 0
		for _, f := range flags {
			width = max(width, len(formatFlagName(f)))
		}
		fmt.Fprintln(w, "\n "+sectionStyle.Render("FLAGS"))
		for _, f := range flags {
			name := formatFlagName(f)
			usage := f.Usage
			if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "[]" {
				usage += mutedStyle.Render(fmt.Sprintf(" (default: %s)", f.DefValue))
			}
			fmt.Fprintf(w, " %s%s  %s\n", flagStyle.Render(name), strings.Repeat(" ", width-len(name)), usage)
		}
	}

	if cmd.Example != "" {
		fmt.Fprintln(w, "\n "+sectionStyle.Render("EXAMPLES"))
		for _, line := range strings.Split(cmd.Example, "\n") {
			trimmed := strings.TrimSpace(line)
			if strings.HasPrefix(trimmed, "#") {
				fmt.Fprintln(w, "  "+mutedStyle.Render(trimmed))
				continue
			}
			fmt.Fprintln(w, "  "+trimmed)
		}
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintf(w, "\n Use \"%s [command] --help\" for more information.\n", cmd.CommandPath())
	}
}

// formatFlagName renders "-f, --flag" or "    --flag".
func formatFlagName(f *pflag.Flag) string {
	if f.Shorthand != "" {
		return fmt.Sprintf("-%s, --%s", f.Shorthand, f.Name)
	}
	return fmt.Sprintf("    --%s", f.Name)
}
