package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/muurk/anthemctl/internal/config"
)

// Profile flags for 'config add'
var (
	addZone2Name      string
	addMainName       string
	addReconnectDelay time.Duration
	addDefault        bool
)

func init() {
	configAddCmd.Flags().StringVar(&addMainName, "main-name", "Main", "Display name of the main zone")
	configAddCmd.Flags().StringVar(&addZone2Name, "zone2-name", "", "Register zone 2 under this display name")
	configAddCmd.Flags().DurationVar(&addReconnectDelay, "reconnect-delay", 0, "Initial reconnect backoff for this receiver")
	configAddCmd.Flags().BoolVar(&addDefault, "default", false, "Make this the default receiver")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configAddCmd)
	configCmd.AddCommand(configRemoveCmd)
	configCmd.AddCommand(configDefaultCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage receiver profiles",
	Long: `Manage the configuration file holding receiver profiles and preferences.

The file lives at $XDG_CONFIG_HOME/anthemctl/config.yaml (usually
~/.config/anthemctl/config.yaml) unless --config is given.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an example configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		var err error
		if path != "" {
			err = config.CreateDefaultConfigFile(path)
		} else {
			path, err = config.CreateDefaultConfig()
		}
		if err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
		fmt.Println("Edit the living-room profile to match your receiver, or add one with 'anthemctl config add'.")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(reg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	},
}

var configAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add or replace a receiver profile",
	Long: `Add or replace a receiver profile. The profile takes the receiver
address from the global --host and --port flags.`,
	Example: `  anthemctl config add den --host 192.168.1.50
  anthemctl config add house --host mrx.lan --zone2-name Patio --default`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if hostFlag == "" {
			return fmt.Errorf("--host is required")
		}
		reg, err := loadRegistry()
		if err != nil {
			return err
		}

		rcv := newProfile()
		if err := reg.SetReceiver(args[0], rcv); err != nil {
			return err
		}
		if addDefault || len(reg.Receivers) == 1 {
			reg.Preferences.DefaultReceiver = args[0]
		}
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("Saved profile %q (%s)\n", args[0], rcv.Host)
		return nil
	},
}

// newProfile builds a receiver profile from the 'config add' flags.
func newProfile() *config.Receiver {
	rcv := &config.Receiver{
		Host:           hostFlag,
		Port:           portFlag,
		ReconnectDelay: config.Duration(addReconnectDelay),
	}
	if addZone2Name != "" || addMainName != "Main" {
		rcv.Zones = []config.Zone{{ID: 1, Name: addMainName, Main: true}}
		if addZone2Name != "" {
			rcv.Zones = append(rcv.Zones, config.Zone{ID: 2, Name: addZone2Name})
		}
	}
	return rcv
}

var configRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a receiver profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if !reg.RemoveReceiver(args[0]) {
			return fmt.Errorf("unknown receiver profile %q", args[0])
		}
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("Removed profile %q\n", args[0])
		return nil
	},
}

var configDefaultCmd = &cobra.Command{
	Use:   "default [name]",
	Short: "Show or set the default receiver",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := loadRegistry()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			if reg.Preferences.DefaultReceiver == "" {
				fmt.Println("No default receiver set")
			} else {
				fmt.Println(reg.Preferences.DefaultReceiver)
			}
			return nil
		}

		if reg.GetReceiver(args[0]) == nil {
			return fmt.Errorf("unknown receiver profile %q (known: %v)", args[0], reg.ReceiverNames())
		}
		reg.Preferences.DefaultReceiver = args[0]
		if err := saveRegistry(reg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		fmt.Printf("Default receiver is now %q\n", args[0])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			fmt.Println(configPath)
			return nil
		}
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}
