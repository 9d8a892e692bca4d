package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/coinboard/coinboard/internal/tui"
)

// errNotATerminal is returned when the dashboard is started without a TTY.
var errNotATerminal = errors.New("the dashboard needs an interactive terminal; use `coinboard list` or `coinboard get` instead")

func newDashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dash",
		Short: "Open the interactive dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDash(cmd)
		},
	}
}

func runDash(cmd *cobra.Command) error {
	if !isTerminal(os.Stdout) {
		return errNotATerminal
	}

	client := newAPIClient(cmd)
	model := tui.NewDashboardModel(cmd.Context(), client)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}
