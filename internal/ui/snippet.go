package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Snippet is a boxed block of generated text, such as a rendered
// homeserver.yaml or reverse proxy configuration.
type Snippet struct {
	Title    string   // e.g., "homeserver.yaml"
	Lines    []string // Content split into lines
	MaxLines int      // Truncate after this many lines; 0 shows everything
	Width    int      // Terminal width
}

// NewSnippet creates a snippet for the given content.
func NewSnippet(title, content string) *Snippet {
	content = strings.TrimRight(content, "\n")
	return &Snippet{
		Title: title,
		Lines: strings.Split(content, "\n"),
		Width: GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (s *Snippet) SetWidth(width int) *Snippet {
	s.Width = width
	return s
}

// SetMaxLines limits how many lines are shown
func (s *Snippet) SetMaxLines(max int) *Snippet {
	s.MaxLines = max
	return s
}

// Render returns the styled snippet box as a string
func (s *Snippet) Render() string {
	width := s.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	lines := s.Lines
	if s.MaxLines > 0 && len(lines) > s.MaxLines {
		hidden := len(lines) - s.MaxLines
		lines = append(lines[:s.MaxLines:s.MaxLines], fmt.Sprintf("... (%d more lines)", hidden))
	}

	inner := lipgloss.JoinVertical(lipgloss.Left,
		SnippetTitleStyle.Render(s.Title),
		"",
		SnippetContentStyle.Render(strings.Join(lines, "\n")),
	)
	return SnippetBoxStyle(width).Render(inner)
}

// String implements fmt.Stringer
func (s *Snippet) String() string {
	return s.Render()
}
