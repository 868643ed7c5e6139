package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultType indicates success or failure
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Result represents a result box (success, failure, or warning)
type Result struct {
	Type      ResultType // Success, failure, or warning
	Title     string     // e.g., "Configuration written"
	Details   []Param    // Key-value details to display
	Error     error      // Error (for failure results)
	HintTitle string     // Heading for Hints, defaults by type
	Hints     []string   // Next steps or troubleshooting tips
	Width     int        // Terminal width
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Param) *Result {
	return &Result{
		Type:    ResultSuccess,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, troubleshooting ...string) *Result {
	return &Result{
		Type:  ResultFailure,
		Title: title,
		Error: err,
		Hints: troubleshooting,
		Width: GetTerminalWidth(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details ...Param) *Result {
	return &Result{
		Type:    ResultWarning,
		Title:   title,
		Details: details,
		Width:   GetTerminalWidth(),
	}
}

// SetWidth sets the terminal width for responsive rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail key-value pair
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, P(key, value))
	return r
}

// AddHint appends a next step or troubleshooting tip
func (r *Result) AddHint(hint string) *Result {
	r.Hints = append(r.Hints, hint)
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var (
		title      string
		color      lipgloss.Color
		hintHeader string
	)
	switch r.Type {
	case ResultFailure:
		title = ErrorTitleStyle.Render(fmt.Sprintf("   %s  FAILED  ─  %s", FailureMarker, r.Title))
		color = ErrorColor
		hintHeader = "Troubleshooting:"
	case ResultWarning:
		title = WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, r.Title))
		color = WarningColor
		hintHeader = "Next steps:"
	default:
		title = SuccessTitleStyle.Render(fmt.Sprintf("   %s  SUCCESS  ─  %s", SuccessMarker, r.Title))
		color = SuccessColor
		hintHeader = "Next steps:"
	}
	if r.HintTitle != "" {
		hintHeader = r.HintTitle
	}

	lines := []string{"", title, ""}

	for _, d := range r.Details {
		keyStyled := ResultKeyStyle.Render(fmt.Sprintf("   %s:", d.Key))
		lines = append(lines, keyStyled+" "+ResultValueStyle.Render(d.Value))
	}
	if len(r.Details) > 0 {
		lines = append(lines, "")
	}

	if r.Error != nil {
		lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
	}

	if len(r.Hints) > 0 {
		hintLines := []string{HintTitleStyle.Render(hintHeader), ""}
		for _, hint := range r.Hints {
			hintLines = append(hintLines, HintItemStyle.Render("  • "+hint))
		}
		lines = append(lines, HintBoxStyle(width).Render(strings.Join(hintLines, "\n")), "")
	}

	return ResultBoxStyle(width, color).Render(strings.Join(lines, "\n"))
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
