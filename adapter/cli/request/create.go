package request

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/upkeep/adapter/cli"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application"
	"github.com/spf13/cobra"
)

var (
	createDevice  string
	createService string
)

var createCmd = &cobra.Command{
	Use:   "create [slot]",
	Short: "Book a maintenance visit",
	Long: `Book a maintenance visit for one of your devices. The slot is RFC 3339
or "YYYY-MM-DD HH:MM" in the scheduling time zone and must be in the future.

Examples:
  upkeep request create "2030-01-07 10:00" --service yearly --device boiler-1
  upkeep request create 2030-01-07T10:00:00Z -s one_time`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		slot, err := app.ParseSlot(args[0])
		if err != nil {
			return fmt.Errorf("invalid slot %q: %w", args[0], err)
		}

		result, err := app.Coordinator.Create(cmd.Context(), app.Principal, application.CreateInput{
			DeviceRef:   createDevice,
			Slot:        slot,
			ServiceType: createService,
		})
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		return render(cmd, result, func(w io.Writer) {
			fmt.Fprintf(w, "Request created: %s\n", result.ID)
			cli.PrintRequest(w, result, app.Location)
		})
	},
}

func init() {
	createCmd.Flags().StringVarP(&createService, "service", "s", "", "service type (yearly, monthly, one_time)")
	createCmd.Flags().StringVarP(&createDevice, "device", "d", "", "device reference")
	_ = createCmd.MarkFlagRequired("service")
}
