package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Param is one labelled value shown in a header or result box. A slice of
// params keeps the order the caller chose.
type Param struct {
	Key   string
	Value string
}

// P is shorthand for building a Param.
func P(key, value string) Param {
	return Param{Key: key, Value: value}
}

// Header represents a command header with title, command, and parameters.
type Header struct {
	Title   string  // e.g., "RENDER CONFIGURATION"
	Command string  // e.g., "topology-cfg render"
	Params  []Param // e.g., {"Session", "default"}, {"Output", "./out"}
	Width   int     // Terminal width for responsive rendering
}

// NewHeader creates a new header with the given values
func NewHeader(title, command string, params ...Param) *Header {
	return &Header{
		Title:   title,
		Command: command,
		Params:  params,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (h *Header) SetWidth(width int) *Header {
	h.Width = width
	return h
}

// Render returns the styled header as a string
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	titleLine := HeaderTitleStyle.Render(strings.ToUpper(h.Title))
	commandLine := HeaderCommandStyle.Render(h.Command)
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, commandLine)

	if len(h.Params) > 0 {
		dividerWidth := width - 6
		if dividerWidth < 10 {
			dividerWidth = 10
		}
		divider := RenderHorizontalDivider(dividerWidth, "─")

		keyWidth := 0
		for _, p := range h.Params {
			if n := lipgloss.Width(p.Key); n > keyWidth {
				keyWidth = n
			}
		}

		paramLines := make([]string, 0, len(h.Params))
		for _, p := range h.Params {
			key := p.Key + ":" + strings.Repeat(" ", keyWidth-lipgloss.Width(p.Key))
			paramLines = append(paramLines,
				HeaderParamKeyStyle.Render(key)+" "+HeaderParamValueStyle.Render(p.Value))
		}
		content = lipgloss.JoinVertical(lipgloss.Left, content, divider, strings.Join(paramLines, "\n"))
	}

	return HeaderBorderStyle(width).Render(content)
}

// String implements fmt.Stringer
func (h *Header) String() string {
	return h.Render()
}
