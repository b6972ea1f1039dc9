package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/muurk/skylog/internal/version"
)

// Application branding constants
const (
	AppName   = "SKYLOG"
	GitHubURL = "github.com/muurk/skylog"
)

// AppVersion returns the application version from the centralized version package
func AppVersion() string {
	return version.Version
}

// Layout constants for responsive terminal width
const (
	MinTerminalWidth = 72 // Minimum supported terminal width
	DefaultHeight    = 30 // Used until the first WindowSizeMsg arrives
	MaxDropdownRows  = 6  // Candidates shown under a lookup field
)

// Color palette
var (
	PrimaryColor   = lipgloss.Color("#7D56F4") // Purple
	SecondaryColor = lipgloss.Color("#43BF6D") // Green
	WarningColor   = lipgloss.Color("#FFA500") // Orange
	ErrorColor     = lipgloss.Color("#FF0000") // Red

	TextColor      = lipgloss.Color("#FFFFFF")
	SubtleColor    = lipgloss.Color("#626262")
	BorderColor    = lipgloss.Color("#7D56F4")
	HighlightColor = lipgloss.Color("#43BF6D")
)

// Common styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(1, 0).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Italic(true)

	LabelStyle = lipgloss.NewStyle().
			Width(22).
			Foreground(SubtleColor)

	FocusedLabelStyle = lipgloss.NewStyle().
				Width(22).
				Foreground(PrimaryColor).
				Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	PlaceholderStyle = lipgloss.NewStyle().
				Foreground(SubtleColor).
				Italic(true)

	FieldErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	CheckStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	CandidateStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(TextColor)

	SelectedCandidateStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(HighlightColor).
				Bold(true)

	DisabledDayStyle = lipgloss.NewStyle().
				Foreground(SubtleColor)

	CursorDayStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	ButtonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor)

	FocusedButtonStyle = lipgloss.NewStyle().
				Padding(0, 2).
				Border(lipgloss.RoundedBorder()).
				BorderForeground(PrimaryColor).
				Foreground(PrimaryColor).
				Bold(true)

	ErrorBoxStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ErrorColor).
			Padding(0, 2)

	WarningBoxStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(WarningColor).
			Padding(0, 2)

	SuccessBoxStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor).
			Padding(0, 2)

	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)
)

// RenderTitle renders a title with consistent styling
func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

// RenderSubtitle renders a subtitle with consistent styling
func RenderSubtitle(text string) string {
	return SubtitleStyle.Render(text)
}

// RenderError renders an error message
func RenderError(text string) string {
	return ErrorBoxStyle.Render("✗ " + text)
}

// RenderWarning renders a warning message
func RenderWarning(text string) string {
	return WarningBoxStyle.Render("⚠ " + text)
}

// RenderSuccess renders a success message
func RenderSuccess(text string) string {
	return SuccessBoxStyle.Render("✓ " + text)
}

// InitialSize reports the terminal size before Bubble Tea sends the first
// WindowSizeMsg, falling back to MinTerminalWidth x DefaultHeight when
// stdout is not a terminal.
func InitialSize() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return MinTerminalWidth, DefaultHeight
	}
	return w, h
}

// BuildHeaderContent creates header content with app name and the signed-in user
func BuildHeaderContent(user string) string {
	left := lipgloss.NewStyle().
		Foreground(TextColor).
		Bold(true).
		Render(AppName + " v" + AppVersion())

	right := lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(GitHubURL)
	if user != "" {
		right = lipgloss.NewStyle().
			Foreground(SubtleColor).
			Render("signed in as " + user)
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
}

// BuildFooterContent creates footer content with help text
func BuildFooterContent(helpText string) string {
	return lipgloss.NewStyle().
		Foreground(SubtleColor).
		Render(helpText)
}

// RenderApplicationContainer wraps a screen in the shared header, footer
// and border, filling the terminal.
//
//	func (m Model) View() string {
//	    return RenderApplicationContainer(m.buildContent(), helpText, user, m.Width, m.Height)
//	}
func RenderApplicationContainer(content, footerText, user string, terminalWidth, terminalHeight int) string {
	if terminalWidth < MinTerminalWidth {
		terminalWidth = MinTerminalWidth
	}
	if terminalHeight <= 0 {
		terminalHeight = DefaultHeight
	}

	headerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Bottom: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	footerStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.Border{Top: "─"}).
		BorderForeground(BorderColor).
		Width(terminalWidth-4).
		Padding(0, 1)

	contentStyle := lipgloss.NewStyle().
		Width(terminalWidth-4).
		Padding(0, 1)

	innerContent := lipgloss.JoinVertical(
		lipgloss.Left,
		headerStyle.Render(BuildHeaderContent(user)),
		contentStyle.Render(content),
		footerStyle.Render(BuildFooterContent(footerText)),
	)

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(BorderColor).
		Width(terminalWidth - 2).
		Height(terminalHeight - 2).
		AlignVertical(lipgloss.Top)

	return lipgloss.Place(
		terminalWidth,
		terminalHeight,
		lipgloss.Left,
		lipgloss.Top,
		borderStyle.Render(innerContent),
	)
}
