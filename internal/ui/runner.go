package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// RunnerConfig describes one command run.
type RunnerConfig struct {
	Title           string   // e.g. "Export Flights"
	Command         string   // e.g. "skylog export"
	Params          []Detail // Shown in the header
	StepNames       []string
	Troubleshooting []string  // Shown on failure
	Output          io.Writer // Default os.Stdout
	Width           int       // Default terminal width
}

// StepFunc reports progress on step number (1-based).
type StepFunc func(number int, status StepStatus, message string)

// Operation is the work a Runner wraps. The details it returns are added to
// the success box.
type Operation func(ctx context.Context, step StepFunc) ([]Detail, error)

// Runner prints header, steps and result around an Operation.
type Runner struct {
	config   RunnerConfig
	progress *Progress
	now      func() time.Time
}

// NewRunner applies defaults to config.
func NewRunner(config RunnerConfig) *Runner {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Width == 0 {
		config.Width = Width()
	}
	return &Runner{
		config:   config,
		progress: NewProgress(config.StepNames).SetWidth(config.Width),
		now:      time.Now,
	}
}

// Progress exposes the step tracker.
func (r *Runner) Progress() *Progress {
	return r.progress
}

// Run prints the header, runs op and prints the result. op's error is
// returned unchanged.
func (r *Runner) Run(ctx context.Context, op Operation) error {
	out := r.config.Output
	start := r.now()

	header := NewHeader(r.config.Title, r.config.Command, r.config.Params)
	header.Width = r.config.Width
	_, _ = fmt.Fprintln(out, header.Render())
	_, _ = fmt.Fprintln(out)

	details, err := op(ctx, r.step)
	elapsed := r.now().Sub(start).Round(time.Millisecond)

	_, _ = fmt.Fprintln(out)
	var result *Result
	if err != nil {
		result = NewFailureResult(r.config.Title+" failed", err, r.config.Troubleshooting)
	} else {
		result = NewSuccessResult(r.config.Title+" complete", details)
		result.AddDetail("Duration", elapsed.String())
	}
	result.Width = r.config.Width
	_, _ = fmt.Fprintln(out, result.Render())
	return err
}

// step prints finished steps on their own line. Running steps end in a
// carriage return so the finished line overwrites them.
func (r *Runner) step(number int, status StepStatus, message string) {
	if !r.progress.Update(number, status, message) {
		return
	}
	line := r.progress.renderStep(r.progress.Steps[number-1])
	if status == StepRunning {
		_, _ = fmt.Fprint(r.config.Output, line+"\r")
		return
	}
	_, _ = fmt.Fprintln(r.config.Output, line)
}

// PrintSuccess writes a success box to w.
func PrintSuccess(w io.Writer, title string, details []Detail) {
	_, _ = fmt.Fprintln(w, NewSuccessResult(title, details).Render())
}

// PrintWarning writes a warning box to w.
func PrintWarning(w io.Writer, title string, details []Detail) {
	_, _ = fmt.Fprintln(w, NewWarningResult(title, details).Render())
}
