package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Detail is one "Key: value" line. Details render in slice order.
type Detail struct {
	Key   string
	Value string
}

// Header is the banner printed before a command runs.
type Header struct {
	Title   string
	Command string
	Params  []Detail
	Width   int
}

// NewHeader creates a header sized to the terminal.
func NewHeader(title, command string, params []Detail) *Header {
	return &Header{Title: title, Command: command, Params: params, Width: Width()}
}

// Render returns the bordered banner.
func (h *Header) Render() string {
	width := h.Width
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}

	top := lipgloss.JoinVertical(lipgloss.Left,
		HeaderTitleStyle.Render(strings.ToUpper(h.Title)),
		HeaderCommandStyle.Render(h.Command),
	)
	sections := []string{top}
	if len(h.Params) > 0 {
		lines := make([]string, len(h.Params))
		for i, p := range h.Params {
			lines[i] = HeaderParamKeyStyle.Render(p.Key+":") + " " + HeaderParamValueStyle.Render(p.Value)
		}
		sections = append(sections, divider(width-6), strings.Join(lines, "\n"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
