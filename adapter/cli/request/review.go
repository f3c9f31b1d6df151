package request

import (
	"fmt"
	"io"
	"time"

	"github.com/felixgeelhaar/upkeep/adapter/cli"
	"github.com/felixgeelhaar/upkeep/internal/maintenance/application"
	"github.com/spf13/cobra"
)

var (
	reviewStatus   string
	reviewPropose  string
	reviewApprove  bool
	reviewWithdraw bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [id]",
	Short: "Review a request (operators)",
	Long: `Set the status, propose a different time or approve a request.
Proposing a new time sends the request back to the owner for approval.

Examples:
  upkeep request review 1b0e... --propose "2030-01-07 11:00" --approve
  upkeep request review 1b0e... --status completed
  upkeep request review 1b0e... --withdraw`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if reviewApprove && reviewWithdraw {
			return fmt.Errorf("--approve and --withdraw are mutually exclusive")
		}

		var in application.ReviewInput
		if cmd.Flags().Changed("status") {
			in.Status = &reviewStatus
		}
		if reviewPropose != "" {
			t, err := app.ParseSlot(reviewPropose)
			if err != nil {
				return fmt.Errorf("invalid proposed time %q: %w", reviewPropose, err)
			}
			in.FactoryProposedAt = &t
		}
		if reviewApprove || reviewWithdraw {
			approved := reviewApprove
			in.FactoryApproved = &approved
		}

		result, err := app.Coordinator.FactoryReview(cmd.Context(), app.Principal, id, in)
		if err != nil {
			return fmt.Errorf("failed to review request: %w", err)
		}
		return render(cmd, result, func(w io.Writer) {
			fmt.Fprintln(w, "Request reviewed")
			cli.PrintRequest(w, result, app.Location)
		})
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve [id]",
	Short: "Accept the time proposed by the service desk",
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
		result, err := app.Coordinator.UserApprove(cmd.Context(), app.Principal, id)
		if err != nil {
			return fmt.Errorf("failed to approve request: %w", err)
		}
		return render(cmd, result, func(w io.Writer) {
			fmt.Fprintln(w, "Request approved")
			cli.PrintRequest(w, result, app.Location)
		})
	},
}

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule [id] [slot]",
	Short: "Move your request to another slot",
	Long: `Move an open request to another slot. Any time proposed by the service
desk is discarded and the request goes back to review.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		slot, err := app.ParseSlot(args[1])
		if err != nil {
			return fmt.Errorf("invalid slot %q: %w", args[1], err)
		}
		result, err := app.Coordinator.Reschedule(cmd.Context(), app.Principal, id, slot)
		if err != nil {
			return fmt.Errorf("failed to reschedule request: %w", err)
		}
		return render(cmd, result, func(w io.Writer) {
			fmt.Fprintf(w, "Request rescheduled to %s\n", slot.In(app.Location).Format(time.RFC1123))
			cli.PrintRequest(w, result, app.Location)
		})
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Withdraw your request",
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
		if err := app.Coordinator.Cancel(cmd.Context(), app.Principal, id); err != nil {
			return fmt.Errorf("failed to cancel request: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Request cancelled: %s\n", id)
		return nil
	},
}

func init() {
	reviewCmd.Flags().StringVar(&reviewStatus, "status", "", "new status")
	reviewCmd.Flags().StringVar(&reviewPropose, "propose", "", "proposed time (RFC 3339 or YYYY-MM-DD HH:MM)")
	reviewCmd.Flags().BoolVar(&reviewApprove, "approve", false, "mark the request factory-approved")
	reviewCmd.Flags().BoolVar(&reviewWithdraw, "withdraw", false, "withdraw factory approval")
}
