package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/upkeep/internal/maintenance/application/queries"
	"github.com/spf13/cobra"
)

var (
	availabilityDays int
	availabilityJSON bool
)

var availabilityCmd = &cobra.Command{
	Use:   "availability [from] [to]",
	Short: "Show which maintenance slots are already taken",
	Long: `Show occupied slots per date between two dates (inclusive, YYYY-MM-DD).
Without dates the next 14 days are shown. Availability is advisory: a taken
slot can still be booked.

Examples:
  upkeep availability
  upkeep availability 2030-01-07 2030-01-13
  upkeep availability --days 30 --json`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}

		today := time.Now().In(app.Location)
		from, to := today, today.AddDate(0, 0, availabilityDays-1)
		if len(args) > 0 {
			if from, err = time.ParseInLocation(queries.DateLayout, args[0], app.Location); err != nil {
				return fmt.Errorf("invalid from date (use YYYY-MM-DD): %w", err)
			}
			to = from.AddDate(0, 0, availabilityDays-1)
		}
		if len(args) > 1 {
			if to, err = time.ParseInLocation(queries.DateLayout, args[1], app.Location); err != nil {
				return fmt.Errorf("invalid to date (use YYYY-MM-DD): %w", err)
			}
		}

		result, err := app.Coordinator.Availability(cmd.Context(), app.Principal, from, to)
		if err != nil {
			return fmt.Errorf("failed to load availability: %w", err)
		}
		if availabilityJSON {
			return PrintJSON(cmd.OutOrStdout(), result)
		}
		PrintAvailability(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	availabilityCmd.Flags().IntVar(&availabilityDays, "days", 14, "number of days to show when to is omitted")
	availabilityCmd.Flags().BoolVar(&availabilityJSON, "json", false, "print JSON")
	rootCmd.AddCommand(availabilityCmd)
}
