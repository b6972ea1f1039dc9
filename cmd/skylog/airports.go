package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/muurk/skylog/internal/flightform"
	"github.com/muurk/skylog/internal/reference"
)

var searchAirlines bool

var airportsCmd = &cobra.Command{
	Use:   "airports [query]",
	Short: "Search the airport and airline lists",
	Long: `Search the airports offered by the flight form, matching the query
against codes, cities and names the same way the form's dropdown does.`,
	Example: `  skylog airports york
  skylog airports --airlines delta`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := reference.Load()
		if err != nil {
			return err
		}
		query := strings.Join(args, " ")
		if searchAirlines {
			return writeAirlines(cmd.OutOrStdout(), flightform.FilterAirlines(query, catalog.Airlines()))
		}
		return writeAirports(cmd.OutOrStdout(), flightform.FilterAirports(query, catalog.Airports(), nil))
	},
}

func init() {
	airportsCmd.Flags().BoolVar(&searchAirlines, "airlines", false, "Search airlines instead of airports")
	rootCmd.AddCommand(airportsCmd)
}

func writeAirports(w io.Writer, airports []reference.Airport) error {
	if len(airports) == 0 {
		_, err := fmt.Fprintln(w, "No matches.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, a := range airports {
		fmt.Fprintf(tw, "%s\t%s\n", a.Display(), a.Detail())
	}
	return tw.Flush()
}

func writeAirlines(w io.Writer, airlines []reference.Airline) error {
	if len(airlines) == 0 {
		_, err := fmt.Fprintln(w, "No matches.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, a := range airlines {
		fmt.Fprintf(tw, "%s\t%s\n", a.Code, a.Name)
	}
	return tw.Flush()
}
