// Topology-server serves the Synapse topology wizard over HTTP.
//
// It exposes the screen transition function, the session's answers and the
// rendered configuration as a JSON API, and pushes every state change to
// WebSocket subscribers so a browser front end can follow along. The session
// can be persisted to the same registry topology-cfg uses and announced over
// mDNS for 'topology-cfg scan'.
//
// Usage:
//
//	topology-server server [flags]
//
// See 'topology-server server --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/synapse-topology/internal/config"
	"github.com/muurk/synapse-topology/internal/server"
	"github.com/muurk/synapse-topology/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "topology-server",
	Short: "Synapse Topology Wizard API server",
	Long: `Serve the Synapse topology wizard as an HTTP and WebSocket API.

For the interactive terminal wizard, use the separate 'topology-cfg' utility.`,
	Version: version.Version,
}

func init() {
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(versionCmd)
}

// Server command and flags
var (
	certPath     string
	keyPath      string
	host         string
	port         int
	logLevel     string
	sessionName  string
	registryPath string
	announce     bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the API server",
	Long: `Start the wizard API server.

The server speaks plain HTTP unless --cert and --key are given. With
--session the wizard state is loaded from and saved to the session registry
after every change, so the terminal wizard and the server can take turns on
the same session.

When --port is not given the server_port preference from the registry is
used, falling back to 8888.`,
	Example: `  # Start on the preferred port with an in-memory session
  topology-server server

  # Persist to the "staging" session and announce over mDNS
  topology-server server --session staging --announce

  # Serve over TLS
  topology-server server --cert fullchain.pem --key privkey.pem --port 8443`,
	RunE: runServer,
}

func init() {
	serverCmd.Flags().StringVar(&certPath, "cert", "", "Path to TLS certificate file (plain HTTP if not provided)")
	serverCmd.Flags().StringVar(&keyPath, "key", "", "Path to TLS private key file")
	serverCmd.Flags().StringVar(&host, "host", "", "Server hostname (empty = listen on all interfaces)")
	serverCmd.Flags().IntVar(&port, "port", 0, "Server port (default from preferences, then 8888)")
	serverCmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	serverCmd.Flags().StringVar(&sessionName, "session", "", "Persist the wizard to this registry session")
	serverCmd.Flags().StringVar(&registryPath, "config", "", "Path to the session registry (default in the user config dir)")
	serverCmd.Flags().BoolVar(&announce, "announce", false, "Announce the server over mDNS")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Validate: Either both cert and key are provided, or neither
	if (certPath != "" && keyPath == "") || (certPath == "" && keyPath != "") {
		return fmt.Errorf("both --cert and --key must be provided together, or neither")
	}

	if certPath != "" {
		if _, err := os.Stat(certPath); os.IsNotExist(err) {
			return fmt.Errorf("certificate file not found: %s", certPath)
		}
		if _, err := os.Stat(keyPath); os.IsNotExist(err) {
			return fmt.Errorf("private key file not found: %s", keyPath)
		}
	}

	if !cmd.Flags().Changed("port") {
		p, err := preferredPort()
		if err != nil {
			return err
		}
		port = p
	}

	cfg := &server.Config{
		Host:         host,
		Port:         port,
		CertPath:     certPath,
		KeyPath:      keyPath,
		LogLevel:     logLevel,
		SessionName:  sessionName,
		RegistryPath: registryPath,
		Announce:     announce,
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start()
}

// preferredPort reads the server_port preference from the registry.
func preferredPort() (int, error) {
	var (
		reg *config.Registry
		err error
	)
	if registryPath != "" {
		reg, err = config.LoadRegistryFrom(registryPath)
	} else {
		reg, err = config.LoadRegistry()
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load session registry: %w", err)
	}
	if reg.Preferences != nil && reg.Preferences.ServerPort > 0 {
		return reg.Preferences.ServerPort, nil
	}
	return config.DefaultServerPort, nil
}

// Version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("topology-server %s\n", version.Get())
	},
}
