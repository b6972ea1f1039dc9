// Skylog logs candidate interview flights.
//
// Running without arguments opens the interactive flight form. Other
// commands sign in by magic link, list and export recorded flights, and
// run the HTTP API for other clients on the network.
//
// Usage:
//
//	skylog [command] [flags]
//
// See 'skylog --help' for available commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/skylog/internal/logging"
	"github.com/muurk/skylog/internal/urls"
	"github.com/muurk/skylog/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "skylog",
	Short: "Log candidate flights",
	Long: `SkyLog records the flights candidates take to interviews.

Each submitted leg is forwarded to the flight-info endpoint and stored in
your flight log. Round trips are logged as two legs.

If no command is specified, the interactive flight form opens.

Getting started: ` + urls.GettingStarted,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: runLog,
}

func init() {
	// Assigned here rather than in the literal: the hook refers to rootCmd.
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if cmd == rootCmd || cmd == logCmd {
			// The form owns the terminal; its logging is set up in runLog.
			return nil
		}
		return initLogging("stderr")
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults to the config file or SKYLOG_LOG_LEVEL")

	rootCmd.AddCommand(versionCmd)
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJSON {
			return writeJSON(cmd.OutOrStdout(), version.Get())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "skylog %s\n", version.Full())
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version information as JSON")
}
