package request

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/upkeep/adapter/cli"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/queries"
	"github.com/spf13/cobra"
)

var (
	listStatus string
	listText   string
	listLimit  int
	listOffset int
	mineDevice string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every request (operators)",
	Long: `List maintenance requests across all owners, newest first.

Examples:
  upkeep request list
  upkeep request list --status pending_factory_review
  upkeep request list --search boiler --limit 20`,
	Aliases: []string{"ls"},
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		result, err := app.Coordinator.ListAll(cmd.Context(), app.Principal, queries.ListAllQuery{
			Status: listStatus,
			Text:   listText,
			Limit:  listLimit,
			Offset: listOffset,
		})
		if err != nil {
			return fmt.Errorf("failed to list requests: %w", err)
		}
		return render(cmd, result, func(w io.Writer) {
			cli.PrintRequests(w, result, app.Location)
		})
	},
}

var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own requests",
	Long: `List your maintenance requests, newest first.

Examples:
  upkeep request mine
  upkeep request mine --device boiler-1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		result, err := app.Coordinator.ListMine(cmd.Context(), app.Principal, mineDevice)
		if err != nil {
			return fmt.Errorf("failed to list requests: %w", err)
		}
		return render(cmd, result, func(w io.Writer) {
			cli.PrintRequests(w, result, app.Location)
		})
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	listCmd.Flags().StringVarP(&listText, "search", "q", "", "match device or service type")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 0, "maximum number of requests (default 100)")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "skip this many requests")

	mineCmd.Flags().StringVarP(&mineDevice, "device", "d", "", "only requests for this device")
}
