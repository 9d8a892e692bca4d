// Package cli wires the coinboard command surface: the interactive
// dashboard, plain listing/detail output, the live stream watcher, and the
// backend server.
package cli

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/coinboard/coinboard/internal/api"
	"github.com/coinboard/coinboard/internal/config"
	"github.com/coinboard/coinboard/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// ctxKey keys CLI values stored on the command context.
type ctxKey int

const configKey ctxKey = iota

// configFromCmd returns the effective configuration resolved in
// PersistentPreRunE.
func configFromCmd(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Set once during command setup.

// NewRootCmd creates the root cobra command for the coinboard CLI.
func NewRootCmd(ver string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "coinboard",
		Short:   "Terminal cryptocurrency dashboard",
		Long:    "coinboard: browse cryptocurrencies and watch their latest prices from a REST backend",
		Version: ver,
		Example: rootCmdExample,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			log := logging.NewLogger(cfg.Logging.ToLoggingConfig())
			logger = logging.ComponentLogger(log, "cli")

			ctx := context.WithValue(cmd.Context(), configKey, cfg)
			ctx = logging.WithContext(ctx, log)
			cmd.SetContext(ctx)

			logger.Debug().Str("command", cmd.Name()).Msg("command started")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Bare `coinboard` opens the dashboard.
			return runDash(cmd)
		},
	}

	cmd.PersistentFlags().String("config", "", "path to config file (default ~/.coinboard/config.yaml)")
	cmd.PersistentFlags().String("api-url", "", "backend base URL (default "+api.DefaultBaseURL+")")
	cmd.PersistentFlags().Duration("timeout", 0, "per-request timeout (default "+api.DefaultTimeout.String()+")")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().Bool("skip-version-check", false, "skip backend API version compatibility check")

	cmd.AddCommand(newDashCmd(), newListCmd(), newGetCmd(), newWatchCmd(), newServeCmd())

	return cmd
}

// resolveConfig loads the configuration and applies flag overrides on top.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if apiURL, _ := cmd.Flags().GetString("api-url"); apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout != 0 {
		cfg.API.Timeout = config.Duration(timeout)
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "console"
		cfg.Logging.File = ""
	}

	return cfg, nil
}

// newAPIClient builds the backend client from the resolved configuration.
func newAPIClient(cmd *cobra.Command) *api.Client {
	cfg := configFromCmd(cmd)
	skip, _ := cmd.Flags().GetBool("skip-version-check")
	return api.NewClient(api.Options{
		BaseURL:          cfg.API.BaseURL,
		Timeout:          cfg.API.Timeout.Std(),
		SkipVersionCheck: skip,
	})
}

const rootCmdExample = `  # Open the interactive dashboard
  coinboard

  # List known currencies
  coinboard list

  # Show the latest price for currency 1
  coinboard get 1

  # Follow live price updates
  coinboard watch 1

  # Run the backend (needs a CoinMarketCap API key)
  COINBOARD_CMC_API_KEY=... coinboard serve`
