package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/anthemctl/internal/logging"
	"github.com/muurk/anthemctl/internal/relay"
)

// Relay flags
var (
	relayHost    string
	relayPort    int
	relayDebug   bool
	relayVerbose bool
)

func init() {
	relayCmd.Flags().StringVar(&relayHost, "listen", "127.0.0.1", "Address to listen on (empty = all interfaces)")
	relayCmd.Flags().IntVar(&relayPort, "listen-port", 8765, "Port to listen on")
	relayCmd.Flags().BoolVar(&relayDebug, "debug", false, "Forward raw protocol traffic to clients")
	relayCmd.Flags().BoolVarP(&relayVerbose, "verbose", "v", false, "Log at info level when --log-level is not set")
	addSupervisorFlags(relayCmd)
	rootCmd.AddCommand(relayCmd)
}

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Bridge receiver events to WebSocket clients",
	Long: `Keep a session with the receiver and bridge it to WebSocket clients.

Clients connect to ws://<listen>:<listen-port>/ws. Each client first gets a
hello message and a snapshot of the receiver state, then every change event
as JSON. Clients send JSON commands:

  {"id":"1","op":"power","zone":1,"value":true}
  {"id":"2","op":"volume","zone":1,"value":40}
  {"id":"3","op":"input","value":3}

and receive a result message with the same id. GET /healthz reports the
session state.

The receiver session is re-established with exponential backoff when it
drops; clients stay connected meanwhile.`,
	Example: `  # Local clients only
  anthemctl relay

  # Listen on all interfaces with wire traffic forwarded
  anthemctl relay --listen "" --debug`,
	Args: cobra.NoArgs,
	RunE: runRelay,
}

func runRelay(cmd *cobra.Command, args []string) error {
	if relayVerbose && logLevel == "" {
		if err := logging.Initialize("info"); err != nil {
			return err
		}
	}

	t, err := resolveTarget()
	if err != nil {
		return err
	}
	ctrl, sup, err := newSupervisor(t)
	if err != nil {
		return err
	}

	srv := relay.New(relay.Config{
		Host:         relayHost,
		Port:         relayPort,
		ForwardDebug: relayDebug,
	}, ctrl)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.Start(ctx)
	}()
	supErr := make(chan error, 1)
	go func() {
		supErr <- sup.Run(ctx)
	}()

	fmt.Printf("Relaying %s on ws://%s/ws (Ctrl+C to stop)\n", t.label(), displayAddr(relayHost, relayPort))

	select {
	case err := <-srvErr:
		cancel()
		<-supErr
		return err
	case err := <-supErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("Receiver session ended", zap.Error(err))
		}
		cancel()
		if serr := <-srvErr; serr != nil {
			return serr
		}
		return ignoreCanceled(err)
	}
}

func displayAddr(host string, port int) string {
	if host == "" {
		host = "0.0.0.0"
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
