// Package request holds the maintenance request commands.
package request

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/upkeep/adapter/cli"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var asJSON bool

// Cmd is the request command group
var Cmd = &cobra.Command{
	Use:     "request",
	Aliases: []string{"req"},
	Short:   "Manage maintenance requests",
	Long: `Book, review, approve, reschedule and cancel maintenance requests.

Owners create, approve, reschedule and cancel their own requests.
Operators list every request and review them.`,
}

func init() {
	Cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print JSON")

	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(mineCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(historyCmd)
	Cmd.AddCommand(reviewCmd)
	Cmd.AddCommand(approveCmd)
	Cmd.AddCommand(rescheduleCmd)
	Cmd.AddCommand(cancelCmd)
}

func parseID(arg string) (uuid.UUID, error) {
	id, err := uuid.Parse(arg)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid request id %q: %w", arg, err)
	}
	return id, nil
}

// render prints v as JSON with --json and through text otherwise.
func render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	if asJSON {
		return cli.PrintJSON(cmd.OutOrStdout(), v)
	}
	text(cmd.OutOrStdout())
	return nil
}
