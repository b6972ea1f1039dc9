package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// StepStatus represents the current state of a step
type StepStatus int

const (
	StepPending  StepStatus = iota // Not yet started
	StepRunning                    // Currently executing
	StepComplete                   // Successfully completed
	StepFailed                     // Failed
	StepSkipped                    // Skipped
)

// Step is one line of a multi-step operation.
type Step struct {
	Number  int
	Name    string
	Status  StepStatus
	Message string // e.g. "12 flights"
}

// Progress tracks steps and renders a bar with a step list.
type Progress struct {
	Steps   []Step
	Percent float64 // 0.0 - 1.0
	bar     progress.Model
}

// NewProgress creates a tracker for the named steps.
func NewProgress(names []string) *Progress {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Number: i + 1, Name: name}
	}
	return &Progress{
		Steps: steps,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}
}

// SetWidth sizes the bar to fit width.
func (p *Progress) SetWidth(width int) *Progress {
	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}
	if barWidth > 50 {
		barWidth = 50
	}
	p.bar = progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth))
	return p
}

// Update records a step's status. Out-of-range steps are ignored.
func (p *Progress) Update(number int, status StepStatus, message string) bool {
	if number < 1 || number > len(p.Steps) {
		return false
	}
	p.Steps[number-1].Status = status
	p.Steps[number-1].Message = message

	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			done++
		}
	}
	p.Percent = float64(done) / float64(len(p.Steps))
	return true
}

// Render returns the bar followed by every step line.
func (p *Progress) Render() string {
	var b strings.Builder
	b.WriteString(p.renderBar())
	b.WriteString("\n\n")
	for i, s := range p.Steps {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(p.renderStep(s))
	}
	return b.String()
}

func (p *Progress) renderBar() string {
	done := 0
	for _, s := range p.Steps {
		if s.Status == StepComplete || s.Status == StepSkipped {
			done++
		}
	}
	return lipgloss.NewStyle().
		PaddingLeft(2).
		Render(fmt.Sprintf("%s  %3.0f%%  [%d/%d]", p.bar.ViewAs(p.Percent), p.Percent*100, done, len(p.Steps)))
}

// renderStep renders "  [1/3] Name ... ✓  (note)".
func (p *Progress) renderStep(step Step) string {
	var marker string
	var style lipgloss.Style
	switch step.Status {
	case StepComplete:
		marker, style = StepMarkerComplete, StepCompleteStyle
	case StepRunning:
		marker, style = StepMarkerRunning, StepRunningStyle
	case StepFailed:
		marker, style = FailureMarker, ErrorTitleStyle
	case StepSkipped:
		marker, style = StepMarkerSkipped, StepPendingStyle
	default:
		marker, style = StepMarkerPending, StepPendingStyle
	}

	var b strings.Builder
	fmt.Fprintf(&b, "  [%d/%d] ", step.Number, len(p.Steps))
	b.WriteString(style.Render(step.Name))

	padding := 45 - lipgloss.Width(step.Name)
	if padding < 1 {
		padding = 1
	}
	b.WriteString(strings.Repeat(" ", padding))
	b.WriteString(style.Render(marker))

	if step.Message != "" {
		b.WriteString("  ")
		b.WriteString(StepNoteStyle.Render("(" + step.Message + ")"))
	}
	return b.String()
}
