// Package ui renders the non-interactive output of skylog commands.
//
// The interactive flight form lives in wizard/tui. Commands such as
// `skylog export` and `skylog login send` print once and exit: a header
// naming the operation, one line per step as it completes, and a result
// box. Nothing here reads key presses except Confirm, which reads one line.
//
// # Usage Pattern
//
//	runner := ui.NewRunner(ui.RunnerConfig{
//	    Title:     "Export Flights",
//	    Command:   "skylog export",
//	    Params:    []ui.Detail{{Key: "Output", Value: "flights.pdf"}},
//	    StepNames: []string{"Loading flights", "Rendering PDF"},
//	    Output:    cmd.OutOrStdout(),
//	})
//
//	err := runner.Run(ctx, func(ctx context.Context, step ui.StepFunc) ([]ui.Detail, error) {
//	    step(1, ui.StepRunning, "")
//	    // ... do work ...
//	    step(1, ui.StepComplete, "12 flights")
//	    return []ui.Detail{{Key: "Pages", Value: "1"}}, nil
//	})
//
// # Logging Integration
//
// zap logging is silent unless SKYLOG_LOG_LEVEL or --log-level is set, so
// the curated output here is what the user sees.
package ui
