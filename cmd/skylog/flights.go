package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/skylog/internal/export"
	"github.com/muurk/skylog/internal/flightlog"
	"github.com/muurk/skylog/internal/ui"
)

var (
	flightsFormat string
	flightsFollow bool
	exportOut     string
)

var flightsCmd = &cobra.Command{
	Use:   "flights",
	Short: "List your logged flights",
	Long: `List the flights you have logged, newest first.

With --follow the list is printed again whenever a flight is logged,
including from another skylog process sharing the same database.`,
	Example: `  # Table output
  skylog flights

  # JSON for scripting
  skylog flights --format json

  # Keep watching for new flights
  skylog flights --follow`,
	RunE: runFlights,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export your flight log as PDF",
	Example: `  skylog export --out flights.pdf`,
	RunE:  runExport,
}

func init() {
	flightsCmd.Flags().StringVar(&flightsFormat, "format", "table", "Output format (table, json)")
	flightsCmd.Flags().BoolVar(&flightsFollow, "follow", false, "Print the list again after every change")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "flights.pdf", "PDF file to write")

	rootCmd.AddCommand(flightsCmd)
	rootCmd.AddCommand(exportCmd)
}

func runFlights(cmd *cobra.Command, args []string) error {
	if flightsFormat != "table" && flightsFormat != "json" {
		return fmt.Errorf("unknown format %q (use table or json)", flightsFormat)
	}

	a, err := openApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	show := func(flights []flightlog.Flight) error {
		if flightsFormat == "json" {
			return writeJSON(out, flights)
		}
		return writeFlightsTable(out, flights)
	}

	if !flightsFollow {
		flights, err := a.flights.FlightsFor(cmd.Context(), user.UID)
		if err != nil {
			return err
		}
		return show(flights)
	}

	return a.flights.Follow(cmd.Context(), user.UID, func(flights []flightlog.Flight, err error) {
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "refresh failed: %v\n", err)
			return
		}
		if flightsFormat == "table" {
			fmt.Fprintf(out, "\n%s\n", time.Now().Format("15:04:05"))
		}
		_ = show(flights)
	})
}

// writeFlightsTable prints flights as aligned columns.
func writeFlightsTable(w io.Writer, flights []flightlog.Flight) error {
	if len(flights) == 0 {
		_, err := fmt.Fprintln(w, "No flights logged yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tFROM\tTO\tAIRLINE\tFLIGHT\tARRIVES\tGUESTS\tCANDIDATE")
	for _, f := range flights {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			f.Date, f.From, f.To, f.Airline, f.FlightNumber, f.ArrivalTime, f.NumOfGuests, f.CandidateName)
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.requireUser(cmd.Context())
	if err != nil {
		return err
	}

	runner := ui.NewRunner(ui.RunnerConfig{
		Title:   "Export Flights",
		Command: "skylog export",
		Params: []ui.Detail{
			{Key: "User", Value: user.Email},
			{Key: "Output", Value: exportOut},
		},
		StepNames: []string{"Loading flights", "Rendering PDF"},
		Troubleshooting: []string{
			"Check the output directory exists and is writable",
			"Run 'skylog flights' to confirm the log loads",
			"Run with --log-level debug for details",
		},
		Output: cmd.OutOrStdout(),
	})
	return runner.Run(cmd.Context(), func(ctx context.Context, step ui.StepFunc) ([]ui.Detail, error) {
		step(1, ui.StepRunning, "")
		flights, err := a.flights.FlightsFor(ctx, user.UID)
		if err != nil {
			step(1, ui.StepFailed, "")
			return nil, err
		}
		step(1, ui.StepComplete, fmt.Sprintf("%d flights", len(flights)))

		step(2, ui.StepRunning, "")
		if err := writePDFFile(exportOut, displayOr(user.DisplayName(), user.Email), flights); err != nil {
			step(2, ui.StepFailed, "")
			return nil, err
		}
		step(2, ui.StepComplete, "")

		return []ui.Detail{
			{Key: "File", Value: exportOut},
			{Key: "Flights", Value: fmt.Sprint(len(flights))},
		}, nil
	})
}

func writePDFFile(path, owner string, flights []flightlog.Flight) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.WriteFlightsPDF(f, owner, flights, time.Now()); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
