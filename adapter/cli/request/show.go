package request

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/upkeep/adapter/cli"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		result, err := app.Coordinator.Get(cmd.Context(), app.Principal, id)
		if err != nil {
			return fmt.Errorf("failed to load request: %w", err)
		}
		return render(cmd, result, func(w io.Writer) {
			cli.PrintRequest(w, result, app.Location)
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "Show the schedule changes of a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		result, err := app.Coordinator.ChangeLog(cmd.Context(), app.Principal, id)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		return render(cmd, result, func(w io.Writer) {
			cli.PrintChangeLog(w, result, app.Location)
		})
	},
}
