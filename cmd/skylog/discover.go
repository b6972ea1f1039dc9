package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/skylog/internal/discovery"
	"github.com/muurk/skylog/internal/urls"
)

var (
	discoverTimeout int
	discoverJSON    bool
	discoverName    string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find SkyLog servers on the local network",
	Long: `Browse the local network for servers started with 'skylog serve --advertise'.`,
	Example: `  # Scan for 5 seconds (default)
  skylog discover

  # Longer scan for busy networks
  skylog discover --timeout 15

  # Wait for one server and print its URL
  skylog discover --name "skylog on office-mac"`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverTimeout, "timeout", 5, "Scan timeout in seconds")
	discoverCmd.Flags().BoolVar(&discoverJSON, "json", false, "Print servers as JSON")
	discoverCmd.Flags().StringVar(&discoverName, "name", "", "Stop at the server with this instance name and print its URL")
	rootCmd.AddCommand(discoverCmd)
}

func runDiscover(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	scanner := discovery.NewScanner()
	scanner.Timeout = time.Duration(discoverTimeout) * time.Second

	if discoverName != "" {
		inst, err := scanner.WaitForServer(cmd.Context(), discoverName)
		if err != nil {
			return err
		}
		if discoverJSON {
			return writeJSON(out, inst)
		}
		fmt.Fprintln(out, inst.BaseURL())
		return nil
	}

	if !discoverJSON {
		fmt.Fprintf(out, "Scanning for SkyLog servers (timeout: %ds)...\n\n", discoverTimeout)
	}
	servers, err := scanner.ScanForServers(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if discoverJSON {
		return writeJSON(out, servers)
	}
	if len(servers) == 0 {
		fmt.Fprintln(out, "No servers found.")
		fmt.Fprintln(out, "\nTroubleshooting:")
		fmt.Fprintln(out, "  - Start a server with 'skylog serve --advertise'")
		fmt.Fprintln(out, "  - Check both machines are on the same network segment")
		fmt.Fprintln(out, "  - Allow mDNS (UDP port 5353) through the firewall")
		fmt.Fprintln(out, "  - Try increasing --timeout")
		fmt.Fprintf(out, "\nSee %s\n", urls.Discovery)
		return nil
	}

	fmt.Fprintf(out, "Found %d server(s):\n\n", len(servers))
	for i, s := range servers {
		fmt.Fprintf(out, "%d. %s\n", i+1, s.Name)
		fmt.Fprintf(out, "   URL:     %s\n", s.BaseURL())
		if v := s.Version(); v != "" {
			fmt.Fprintf(out, "   Version: %s\n", v)
		}
		if s.Hostname != "" {
			fmt.Fprintf(out, "   Host:    %s\n", s.Hostname)
		}
		fmt.Fprintln(out)
	}
	return nil
}
