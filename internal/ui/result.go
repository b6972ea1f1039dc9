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

// Result is the box printed when a command finishes.
type Result struct {
	Type            ResultType
	Title           string   // e.g., "Export complete"
	Details         []Detail // Rendered in order
	Error           error    // Failure only
	Troubleshooting []string // Failure only
	Width           int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details []Detail) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: Width()}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, troubleshooting []string) *Result {
	return &Result{
		Type:            ResultFailure,
		Title:           title,
		Error:           err,
		Troubleshooting: troubleshooting,
		Width:           Width(),
	}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details []Detail) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: Width()}
}

// AddDetail appends a detail line.
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Detail{Key: key, Value: value})
	return r
}

// Render returns the styled result box as a string
func (r *Result) Render() string {
	width := r.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	var color lipgloss.Color
	var title string
	switch r.Type {
	case ResultFailure:
		color = ErrorColor
		title = ErrorTitleStyle.Render(fmt.Sprintf("   %s  FAILED  ─  %s", FailureMarker, r.Title))
	case ResultWarning:
		color = WarningColor
		title = WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, r.Title))
	default:
		color = SuccessColor
		title = SuccessTitleStyle.Render(fmt.Sprintf("   %s  SUCCESS  ─  %s", SuccessMarker, r.Title))
	}

	lines := []string{"", title, ""}
	for _, d := range r.Details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	if len(r.Details) > 0 {
		lines = append(lines, "")
	}

	if r.Type == ResultFailure {
		if r.Error != nil {
			lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
		}
		if len(r.Troubleshooting) > 0 {
			tips := []string{TroubleshootingTitleStyle.Render("Troubleshooting:"), ""}
			for _, tip := range r.Troubleshooting {
				tips = append(tips, TroubleshootingItemStyle.Render("  • "+tip))
			}
			box := lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(MutedColor).
				Width(width-8).
				Padding(0, 1).
				Render(strings.Join(tips, "\n"))
			lines = append(lines, box, "")
		}
	}

	return boxStyle(color, width).Render(strings.Join(lines, "\n"))
}
