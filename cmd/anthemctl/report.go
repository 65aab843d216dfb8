package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/anthemctl/internal/controller"
	"github.com/muurk/anthemctl/internal/ui"
)

// reportedError is an error already shown to the user in a result box.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// zoneAction runs a command against the zone selected by --zone and returns
// the result title.
type zoneAction func(ctx context.Context, ctrl *controller.Controller, z controller.Zone) (title string, confirmed bool, err error)

// withZone opens a session, runs fn on the selected zone and reports the
// zone's resulting state.
func withZone(cmd *cobra.Command, fn zoneAction) error {
	return withSession(cmd, func(ctx context.Context, t target, ctrl *controller.Controller) error {
		z, err := zoneOf(ctrl)
		if err != nil {
			return err
		}

		title, confirmed, err := fn(ctx, ctrl, z)
		if title == "" {
			title = cmd.Short
		}
		if err != nil {
			return reportFailure(title, err)
		}
		return reportZone(t, ctrl, z.ID, title, confirmed)
	})
}

func reportZone(t target, ctrl *controller.Controller, id int, title string, confirmed bool) error {
	z, _ := ctrl.Zone(id)
	if jsonOutput {
		return printJSON(z)
	}

	params := []ui.Param{{Key: "Receiver", Value: t.label()}}
	params = append(params, ui.ZoneParams(ui.StatusOf(ctrl), z)...)
	if !confirmed {
		params = append(params, ui.Param{Key: "Note", Value: "sent, not confirmed by receiver"})
	}
	ui.NewPrinter(os.Stdout).PrintSuccess(title, params)
	return nil
}

func reportReceiver(t target, title string, confirmed bool) error {
	params := []ui.Param{{Key: "Receiver", Value: t.label()}}
	if !confirmed {
		params = append(params, ui.Param{Key: "Note", Value: "sent, not confirmed by receiver"})
	}
	ui.NewPrinter(os.Stdout).PrintSuccess(title, params)
	return nil
}

func reportFailure(title string, err error) error {
	ui.NewPrinter(os.Stderr).PrintError(title, err)
	return &reportedError{err: err}
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func onOffText(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
