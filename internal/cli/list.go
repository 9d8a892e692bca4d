package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known currencies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			return runList(cmd, output)
		},
	}
	cmd.Flags().String("output", "table", "output format: table or json")
	return cmd
}

func runList(cmd *cobra.Command, output string) error {
	client := newAPIClient(cmd)
	summaries, err := client.ListCurrencies(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if output == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	fmt.Fprintf(out, "%4s  %-30s %s\n", "ID", "NAME", "SYMBOL")
	for _, summary := range summaries {
		fmt.Fprintf(out, "%4d  %-30s %s\n", summary.ID, summary.Name, summary.Symbol)
	}

	printer := message.NewPrinter(language.English)
	fmt.Fprintln(out, printer.Sprintf("\n%d currencies", len(summaries)))
	return nil
}
