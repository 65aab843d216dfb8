// Anthemctl controls Anthem A/V receivers over their IP control protocol.
//
// It connects to the receiver's control port (TCP 14999), waits until the
// receiver has reported its identity and zone state, and then issues
// commands, shows state, or follows the receiver's change events. The
// relay command bridges the event stream to WebSocket clients.
//
// Usage:
//
//	anthemctl [command] [flags]
//
// Receivers are addressed with --host or by a profile from the config file
// (see 'anthemctl config init'). See 'anthemctl --help' for available
// commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/anthemctl/internal/config"
	"github.com/muurk/anthemctl/internal/logging"
	"github.com/muurk/anthemctl/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()
	if err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

// Global flags
var (
	receiverName string
	hostFlag     string
	portFlag     int
	configPath   string
	logLevel     string
	zoneFlag     int
	jsonOutput   bool
)

var rootCmd = &cobra.Command{
	Use:   "anthemctl",
	Short: "Anthem A/V receiver control",
	Long: `Control Anthem MRX and AVM receivers over the network.

Commands connect to the receiver's IP control port, wait until the receiver
is ready, and then act. Both the MRX x10/x20 and MRX x40 / AVM 70/90
command vocabularies are supported; the right one is picked from the model
the receiver reports.

Receivers are addressed directly with --host, or by name from the profiles
in the config file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := logLevel
		if level == "" {
			if reg, err := loadRegistry(); err == nil && reg.Preferences != nil {
				level = reg.Preferences.LogLevel
			}
		}
		return logging.Initialize(level)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVarP(&receiverName, "receiver", "r", "", "Receiver profile name (default: the configured default receiver)")
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "Receiver host or IP address (skips profiles)")
	rootCmd.PersistentFlags().IntVar(&portFlag, "port", 0, "Receiver control port (default 14999)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); logs go to stderr")

	rootCmd.Version = version.Info().String()

	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print build information as JSON")
	rootCmd.AddCommand(versionCmd)
}

// loadRegistry loads the config file named by --config, or the global one.
func loadRegistry() (*config.Registry, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.LoadRegistry()
}

// saveRegistry writes reg back to where loadRegistry read it from.
func saveRegistry(reg *config.Registry) error {
	if configPath != "" {
		return reg.SaveFile(configPath)
	}
	return reg.Save()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.Info()
		if jsonOutput {
			return printJSON(info)
		}
		fmt.Printf("anthemctl %s\n", info)
		fmt.Printf("  built with %s\n", info.GoVersion)
		return nil
	},
}
