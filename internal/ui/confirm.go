package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirm prints a warning box and a y/N prompt, then reads one line from
// in. Only "y" or "yes" (any case) confirms; EOF declines.
func Confirm(in io.Reader, out io.Writer, title string, warnings []string) bool {
	width := Width()

	lines := []string{"", WarningTitleStyle.Render(fmt.Sprintf("   %s  %s", WarningMarker, title)), ""}
	for _, w := range warnings {
		lines = append(lines, lipgloss.NewStyle().Foreground(TextColor).Render("   • "+w))
	}
	if len(warnings) > 0 {
		lines = append(lines, "")
	}
	_, _ = fmt.Fprintln(out, boxStyle(WarningColor, width).Render(strings.Join(lines, "\n")))
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render("Continue? [y/N]: "))

	answer, err := bufio.NewReader(in).ReadString('\n')
	_, _ = fmt.Fprintln(out)
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	_, _ = fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("  Cancelled."))
	return false
}
