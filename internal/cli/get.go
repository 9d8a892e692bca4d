package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coinboard/coinboard/internal/currency"
	"github.com/coinboard/coinboard/internal/tui"
)

// getCardWidth is the card width for non-interactive output.
const getCardWidth = 60

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show the latest price for one currency",
		Long:  "Fetches the detail record for the currency at the given 1-based listing position and prints its price card.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := currency.ParseID(args[0])
			if err != nil {
				return err
			}
			return runGet(cmd, id)
		},
	}
}

func runGet(cmd *cobra.Command, id currency.ID) error {
	client := newAPIClient(cmd)
	detail, err := client.GetCurrency(cmd.Context(), id)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderDetailCard(detail, getCardWidth))
	return nil
}
