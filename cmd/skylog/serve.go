package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/skylog/internal/discovery"
	"github.com/muurk/skylog/internal/errreport"
	"github.com/muurk/skylog/internal/logging"
	"github.com/muurk/skylog/internal/server"
	"github.com/muurk/skylog/internal/version"
)

var (
	serveAddr      string
	serveOrigins   []string
	serveAdvertise bool
	serveName      string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the SkyLog HTTP API so browser and mobile clients can sign in,
log flights and follow their flight list live over a websocket.

Sign-in links are printed to this process's output. With --advertise the
server registers itself on the local network so 'skylog discover' finds it.
Flags override the server section of the config file.`,
	Example: `  # Listen on the configured address (default :8080)
  skylog serve

  # Allow a web client and advertise on the LAN
  skylog serve --origin http://localhost:5173 --advertise

  # Pick a free port
  skylog serve --addr 127.0.0.1:0`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, :8080)")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "Allowed browser origin; repeatable, \"*\" allows any")
	serveCmd.Flags().BoolVar(&serveAdvertise, "advertise", false, "Advertise the server on the local network via mDNS")
	serveCmd.Flags().StringVar(&serveName, "name", "", "mDNS instance name (default \"skylog on <hostname>\")")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	pub, err := a.publisher()
	if err != nil {
		return err
	}

	cfg := a.settings.Server
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if len(serveOrigins) > 0 {
		cfg.AllowedOrigins = serveOrigins
	}
	if cmd.Flags().Changed("advertise") {
		cfg.Advertise = serveAdvertise
	}
	if serveName != "" {
		cfg.InstanceName = serveName
	}

	srv, err := server.New(server.Config{
		Addr:           cfg.Addr,
		AllowedOrigins: cfg.AllowedOrigins,
		Debug:          logLevel == "debug",
	}, server.Deps{
		Auth:      a.auth,
		Flights:   a.flights,
		Publisher: pub,
		Reporter:  a.reporter,
		Catalog:   a.catalog,
		Message:   errreport.UserMessage,
		Now:       time.Now,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	addr, err := srv.Listen()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "SkyLog API %s listening on %s\n", version.Version, addr)

	if cfg.Advertise {
		tcp, ok := addr.(*net.TCPAddr)
		if !ok {
			return fmt.Errorf("cannot advertise non-TCP address %s", addr)
		}
		ad, err := discovery.Advertise(instanceName(cfg.InstanceName), tcp.Port, map[string]string{
			"version": version.Version,
			"path":    "/api",
		})
		if err != nil {
			logging.Warn("Could not advertise on the local network", zap.Error(err))
		} else {
			defer ad.Shutdown()
		}
	}

	return srv.Serve(cmd.Context())
}

// instanceName returns name, or "skylog on <hostname>".
func instanceName(name string) string {
	if name != "" {
		return name
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "skylog"
	}
	return "skylog on " + host
}
