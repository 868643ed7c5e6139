package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm shows a warning box listing items and asks a yes/no question.
// Only "y" or "yes" (any case) confirms; EOF or anything else declines.
func Confirm(in io.Reader, out io.Writer, title string, items []string, question string) bool {
	width := GetTerminalWidth()

	lines := []string{"", WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, title)), ""}
	bullet := lipgloss.NewStyle().Foreground(TextColor)
	for _, item := range items {
		lines = append(lines, bullet.Render("   • "+item))
	}
	lines = append(lines, "")

	_, _ = fmt.Fprintln(out, ResultBoxStyle(width, WarningColor).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(question+" [y/N]: "))

	input, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && input == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return true
	}

	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Operation cancelled."))
	_, _ = fmt.Fprintln(out)
	return false
}

// ConfirmOverwrite asks before replacing existing files.
func ConfirmOverwrite(in io.Reader, out io.Writer, paths []string) bool {
	return Confirm(in, out, "FILES EXIST", paths, "Overwrite these files?")
}
