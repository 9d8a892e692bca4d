package cli

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coinboard/coinboard/internal/cmc"
	"github.com/coinboard/coinboard/internal/config"
	"github.com/coinboard/coinboard/internal/logging"
	"github.com/coinboard/coinboard/internal/server"
)

// errNoAPIKey is returned when serve starts without upstream credentials.
var errNoAPIKey = errors.New("no CoinMarketCap API key configured: set server.cmc_api_key or " + config.EnvCMCAPIKey)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coinboard backend",
		Long: "Serves /cryptocurrencies and /cryptocurrencies/{id} from an in-memory snapshot " +
			"refreshed periodically from CoinMarketCap, plus a websocket stream of updates on /stream.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config, 127.0.0.1:8000)")
	return cmd
}

func runServe(cmd *cobra.Command) error {
	cfg := configFromCmd(cmd)
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if cfg.Server.CMCAPIKey == "" {
		return errNoAPIKey
	}

	store := server.NewStore()
	hub := server.NewHub()
	upstream := cmc.NewClient(cfg.Server.CMCBaseURL, cfg.Server.CMCAPIKey)
	refresher := server.NewRefresher(upstream, store, hub, cfg.Server.RefreshInterval.Std())

	srv := server.New(cfg.Server.Addr, store, hub, refresher, *logging.FromContext(cmd.Context()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Run(ctx)
}
