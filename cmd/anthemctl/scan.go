package main

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/anthemctl/internal/config"
	"github.com/muurk/anthemctl/internal/discovery"
)

// Scan flags
var (
	scanTimeout time.Duration
	scanSave    bool
)

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 0, "Scan timeout (default: discover_timeout preference, 5s)")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Add a profile for every receiver found")
	scanCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for Anthem receivers on the network",
	Long: `Scan for Anthem receivers using mDNS/DNS-SD discovery.

Receivers advertise their web interface over mDNS; this command lists every
advertisement whose name looks like an Anthem MRX or AVM, with the address
to use for IP control.`,
	Example: `  # Scan with the default timeout
  anthemctl scan

  # Longer scan, saving profiles for what is found
  anthemctl scan --timeout 15s --save`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	timeout := scanTimeout
	if timeout == 0 && reg.Preferences != nil {
		timeout = reg.Preferences.DiscoverTimeout.Std()
	}

	if !jsonOutput {
		fmt.Printf("Scanning for Anthem receivers (timeout: %s)...\n\n", timeout)
	}

	receivers, err := discovery.DiscoverReceivers(cmd.Context(), timeout)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if jsonOutput {
		return printJSON(receivers)
	}

	if len(receivers) == 0 {
		fmt.Println("No receivers found.")
		fmt.Println("\nTroubleshooting:")
		fmt.Println("  - Ensure the receiver is on and connected to this network")
		fmt.Println("  - Enable IP control in the receiver's network setup menu")
		fmt.Println("  - Try increasing --timeout for slower networks")
		fmt.Println("  - Use --host to address the receiver directly")
		return nil
	}

	fmt.Printf("Found %d receiver(s):\n\n", len(receivers))
	for i, r := range receivers {
		fmt.Printf("%d. %s\n", i+1, r.Instance)
		fmt.Printf("   Model:    %s\n", r.Model)
		fmt.Printf("   Address:  %s\n", r.Address())
		if r.Hostname != "" {
			fmt.Printf("   Hostname: %s\n", r.Hostname)
		}
		fmt.Println()
	}

	if !scanSave {
		fmt.Println("Use 'anthemctl status --host <ip>' to connect, or rerun with --save to add profiles")
		return nil
	}

	added := saveDiscovered(reg, receivers)
	if err := saveRegistry(reg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	for _, name := range added {
		fmt.Printf("Added profile %q\n", name)
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// profileName derives a profile name from an mDNS instance name.
func profileName(instance string) string {
	name := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(instance), "-"), "-")
	if name == "" {
		return "receiver"
	}
	return name
}

// saveDiscovered adds a profile for each receiver whose address is not
// already configured and returns the new profile names. The first one
// becomes the default if there is none.
func saveDiscovered(reg *config.Registry, receivers []*discovery.Receiver) []string {
	known := make(map[string]bool)
	for _, rcv := range reg.Receivers {
		known[rcv.Host] = true
	}

	var added []string
	for _, r := range receivers {
		if known[r.IP] {
			continue
		}
		name := profileName(r.Instance)
		for i := 2; reg.GetReceiver(name) != nil; i++ {
			name = fmt.Sprintf("%s-%d", profileName(r.Instance), i)
		}

		rcv := &config.Receiver{Host: r.IP, Model: r.Model.String(), LastSeen: r.DiscoveredAt}
		if r.ControlPort != 0 {
			rcv.Port = r.ControlPort
		}
		if err := reg.SetReceiver(name, rcv); err != nil {
			continue
		}
		known[r.IP] = true
		added = append(added, name)
	}

	if len(added) > 0 && reg.Preferences != nil && reg.Preferences.DefaultReceiver == "" {
		reg.Preferences.DefaultReceiver = added[0]
	}
	return added
}
