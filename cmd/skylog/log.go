package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/muurk/skylog/internal/config"
	"github.com/muurk/skylog/internal/wizard/tui"
)

// logFile receives zap output while the form owns the terminal.
const logFile = "skylog.log"

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Open the interactive flight form",
	Long: `Open the full-screen flight form.

Pick the departure and arrival airports and the airline from the
dropdowns, choose the date from the calendar and fill in the flight
number and arrival time. Enable round trip to log the return flight in
the same submission. ctrl+f shows the flights you have logged.`,
	Example: `  # Open the form (also the default with no command)
  skylog
  skylog log`,
	RunE: runLog,
}

func init() {
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	if !isInteractive() {
		return fmt.Errorf("the flight form needs an interactive terminal; use 'skylog flights' to list flights")
	}

	dir, err := config.GetConfigDir()
	if err != nil {
		return err
	}
	if err := initLogging(filepath.Join(dir, logFile)); err != nil {
		return err
	}

	a, err := openApp(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser(cmd.Context())
	if err != nil {
		return err
	}
	pub, err := a.publisher()
	if err != nil {
		return err
	}

	if err := tui.Run(tui.Options{
		Catalog:   a.catalog,
		Submitter: a.submitter(pub),
		Flights:   a.flights,
		User:      user,
	}); err != nil {
		return fmt.Errorf("flight form error: %w", err)
	}
	return nil
}
