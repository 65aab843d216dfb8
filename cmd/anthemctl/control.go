package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/protocol"
	"github.com/muurk/anthemctl/internal/relay"
	"github.com/muurk/anthemctl/internal/ui"
)

var volumeSteps int

func init() {
	for _, cmd := range []*cobra.Command{powerCmd, muteCmd, volumeCmd, inputCmd, modeCmd, arcCmd, dolbyCmd, keyCmd} {
		addCommandFlags(cmd)
		cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the resulting zone state as JSON")
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{brightnessCmd, menuCmd} {
		addSessionFlags(cmd)
		cmd.Flags().DurationVar(&settleTimeout, "settle", defaultSettle, "How long to wait for the receiver to confirm the command")
		rootCmd.AddCommand(cmd)
	}

	addSessionFlags(statusCmd)
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the receiver state as JSON")
	rootCmd.AddCommand(statusCmd)

	volumeCmd.Flags().IntVar(&volumeSteps, "steps", 1, "Number of steps for up/down")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show receiver and zone state",
	Long: `Connect to the receiver, wait until it is ready, and show its identity
and the state of every configured zone.`,
	Example: `  # Default receiver
  anthemctl status

  # Receiver by address, as JSON
  anthemctl status --host 192.168.1.50 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(_ context.Context, _ target, ctrl *controller.Controller) error {
			if jsonOutput {
				return printJSON(relay.SnapshotOf(ctrl))
			}
			ui.NewPrinter(os.Stdout).PrintStatus(ui.StatusOf(ctrl))
			return nil
		})
	},
}

var powerCmd = &cobra.Command{
	Use:   "power <on|off|toggle>",
	Short: "Switch a zone on or off",
	Example: `  anthemctl power on
  anthemctl power off --zone 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sw, err := parseSwitch(args[0], true)
		if err != nil {
			return err
		}
		return withZone(cmd, func(ctx context.Context, ctrl *controller.Controller, z controller.Zone) (string, bool, error) {
			on := sw == switchOn
			if sw == switchToggle {
				on = !z.Power.Value()
			}
			confirmed, err := runCommand(ctx, ctrl,
				func() error { return ctrl.SetPower(z.ID, on) },
				func(ev controller.Event) bool {
					e, ok := ev.(controller.ZonePowerChanged)
					return ok && e.Zone == z.ID && e.On == on
				})
			return "Power " + onOffText(on), confirmed, err
		})
	},
}

var muteCmd = &cobra.Command{
	Use:   "mute <on|off|toggle>",
	Short: "Mute or unmute a zone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sw, err := parseSwitch(args[0], true)
		if err != nil {
			return err
		}
		return withZone(cmd, func(ctx context.Context, ctrl *controller.Controller, z controller.Zone) (string, bool, error) {
			if sw == switchToggle {
				confirmed, err := runCommand(ctx, ctrl,
					func() error { return ctrl.ToggleMute(z.ID) },
					func(ev controller.Event) bool {
						e, ok := ev.(controller.ZoneMuteChanged)
						return ok && e.Zone == z.ID
					})
				return "Mute toggled", confirmed, err
			}
			muted := sw == switchOn
			confirmed, err := runCommand(ctx, ctrl,
				func() error { return ctrl.SetMute(z.ID, muted) },
				func(ev controller.Event) bool {
					e, ok := ev.(controller.ZoneMuteChanged)
					return ok && e.Zone == z.ID && e.Muted == muted
				})
			return "Mute " + onOffText(muted), confirmed, err
		})
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume <0-100|up|down>",
	Short: "Set or step a zone's volume",
	Long: `Set a zone's volume as a percentage, or step it up or down.

Percentages are only reported by MRX x40 and AVM 70/90 receivers; older
models accept up and down steps and report volume in dB.`,
	Example: `  anthemctl volume 45
  anthemctl volume up --steps 3
  anthemctl volume down --zone 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		step, err := parseStep(args[0], 0, 100)
		if err != nil {
			return err
		}
		if volumeSteps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}
		return withZone(cmd, func(ctx context.Context, ctrl *controller.Controller, z controller.Zone) (string, bool, error) {
			if !step.relative() {
				confirmed, err := runCommand(ctx, ctrl,
					func() error { return ctrl.SetVolumePercentage(z.ID, step.Absolute) },
					func(ev controller.Event) bool {
						e, ok := ev.(controller.ZoneVolumeChanged)
						return ok && e.Zone == z.ID && e.Percent == step.Absolute
					})
				return fmt.Sprintf("Volume %d%%", step.Absolute), confirmed, err
			}

			move, title := ctrl.VolumeUp, "Volume up"
			if step.Down {
				move, title = ctrl.VolumeDown, "Volume down"
			}
			seen := 0
			confirmed, err := runCommand(ctx, ctrl,
				func() error {
					for i := 0; i < volumeSteps; i++ {
						if err := move(z.ID); err != nil {
							return err
						}
					}
					return nil
				},
				func(ev controller.Event) bool {
					if e, ok := ev.(controller.ZoneVolumeChanged); ok && e.Zone == z.ID {
						seen++
					}
					return seen >= volumeSteps
				})
			return title, confirmed, err
		})
	},
}

var inputCmd = &cobra.Command{
	Use:   "input <number|name|next>",
	Short: "Select a zone's input",
	Example: `  anthemctl input 3
  anthemctl input "Blu-ray"
  anthemctl input next`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withZone(cmd, func(ctx context.Context, ctrl *controller.Controller, z controller.Zone) (string, bool, error) {
			if args[0] == "next" {
				confirmed, err := runCommand(ctx, ctrl,
					func() error { return ctrl.NextInput(z.ID) },
					func(ev controller.Event) bool {
						e, ok := ev.(controller.ZoneInputChanged)
						return ok && e.Zone == z.ID
					})
				return "Next input", confirmed, err
			}

			input, err := parseInput(args[0], ctrl.Inputs())
			if err != nil {
				return "", false, err
			}
			confirmed, err := runCommand(ctx, ctrl,
				func() error { return ctrl.SetInput(z.ID, input) },
				func(ev controller.Event) bool {
					e, ok := ev.(controller.ZoneInputChanged)
					return ok && e.Zone == z.ID && e.Input == input
				})
			return "Input " + strconv.Itoa(input), confirmed, err
		})
	},
}

var modeCmd = &cobra.Command{
	Use:   "mode <code|name|up|down>",
	Short: "Select the audio listening mode",
	Long: `Select the main zone's audio listening mode by code or name, or step
through the modes. Selecting by code or name needs an MRX x40 or AVM 70/90
receiver; 'anthemctl status' shows the active mode.`,
	Example: `  anthemctl mode "dolby surround"
  anthemctl mode up`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withZone(cmd, func(ctx context.Context, ctrl *controller.Controller, z controller.Zone) (string, bool, error) {
			isALM := func(ev controller.Event) bool {
				e, ok := ev.(controller.ZoneALMChanged)
				return ok && e.Zone == z.ID
			}
			switch args[0] {
			case "up", "down":
				up := args[0] == "up"
				confirmed, err := runCommand(ctx, ctrl,
					func() error { return ctrl.StepAudioListeningMode(z.ID, up) }, isALM)
				return "Listening mode " + args[0], confirmed, err
			}

			mode, err := parseMode(args[0], ctrl.Dialect())
			if err != nil {
				return "", false, err
			}
			confirmed, err := runCommand(ctx, ctrl,
				func() error { return ctrl.SetAudioListeningMode(z.ID, mode) },
				func(ev controller.Event) bool {
					e, ok := ev.(controller.ZoneALMChanged)
					return ok && e.Zone == z.ID && e.Mode == mode
				})
			return "Listening mode " + strconv.Itoa(mode), confirmed, err
		})
	},
}

var arcCmd = &cobra.Command{
	Use:   "arc <on|off>",
	Short: "Enable or disable audio return channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sw, err := parseSwitch(args[0], false)
		if err != nil {
			return err
		}
		enabled := sw == switchOn
		return withZone(cmd, func(ctx context.Context, ctrl *controller.Controller, z controller.Zone) (string, bool, error) {
			confirmed, err := runCommand(ctx, ctrl,
				func() error { return ctrl.SetARCEnabled(z.ID, enabled) },
				func(ev controller.Event) bool {
					e, ok := ev.(controller.ZoneARCEnabledChanged)
					return ok && e.Zone == z.ID && e.Enabled == enabled
				})
			return "ARC " + onOffText(enabled), confirmed, err
		})
	},
}

var dolbyCmd = &cobra.Command{
	Use:   "dolby <off|movie|music|night>",
	Short: "Set Dolby post-processing for the active input",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := parseDolby(args[0])
		if err != nil {
			return err
		}
		return withZone(cmd, func(ctx context.Context, ctrl *controller.Controller, z controller.Zone) (string, bool, error) {
			confirmed, err := runCommand(ctx, ctrl,
				func() error { return ctrl.SetDolbyPostProcessing(z.ID, mode) },
				func(ev controller.Event) bool {
					e, ok := ev.(controller.ZoneDolbyChanged)
					return ok && e.Zone == z.ID && e.Mode == mode
				})
			return "Dolby " + mode.String(), confirmed, err
		})
	},
}

var keyCmd = &cobra.Command{
	Use:   "key <up|down|left|right|select>",
	Short: "Send a remote-control key press",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code, err := protocol.ParseKeyCode(args[0])
		if err != nil {
			return err
		}
		return withZone(cmd, func(ctx context.Context, ctrl *controller.Controller, z controller.Zone) (string, bool, error) {
			_, err := runCommand(ctx, ctrl, func() error { return ctrl.SendKey(z.ID, code) }, nil)
			return "Key " + args[0], false, err
		})
	},
}

var brightnessCmd = &cobra.Command{
	Use:   "brightness <level>",
	Short: "Set the front panel brightness",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid brightness %q", args[0])
		}
		return withSession(cmd, func(ctx context.Context, t target, ctrl *controller.Controller) error {
			confirmed, err := runCommand(ctx, ctrl,
				func() error { return ctrl.SetPanelBrightness(level) },
				func(ev controller.Event) bool {
					e, ok := ev.(controller.PanelBrightnessChanged)
					return ok && e.Level == level
				})
			if err != nil {
				return reportFailure("Panel brightness", err)
			}
			return reportReceiver(t, "Panel brightness "+args[0], confirmed)
		})
	},
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Show or hide the on-screen setup menu",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, t target, ctrl *controller.Controller) error {
			if _, err := runCommand(ctx, ctrl, ctrl.ToggleMenu, nil); err != nil {
				return reportFailure("Menu", err)
			}
			return reportReceiver(t, "Menu toggled", false)
		})
	},
}
