package cli

import (
	"errors"
	"fmt"
	"net/url"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/coinboard/coinboard/internal/currency"
)

// streamRow is the wire shape of one streamed listing entry.
type streamRow struct {
	Name     string             `json:"name"`
	Symbol   string             `json:"symbol"`
	Price    currency.Price     `json:"price"`
	SyncedAt currency.Timestamp `json:"sync_timestamp"`
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch [id]",
		Short: "Follow live price updates from the backend stream",
		Long: "Connects to the backend websocket stream and prints a line per update. " +
			"With an id argument only the currency at that listing position is printed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter currency.ID
			if len(args) == 1 {
				id, err := currency.ParseID(args[0])
				if err != nil {
					return err
				}
				filter = id
			}
			return runWatch(cmd, filter)
		},
	}
}

func runWatch(cmd *cobra.Command, filter currency.ID) error {
	cfg := configFromCmd(cmd)
	streamURL, err := streamURLFor(cfg.API.BaseURL)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", streamURL, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Close the connection when the context ends so ReadJSON unblocks.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	out := cmd.OutOrStdout()
	logger.Info().Str("url", streamURL).Msg("watching price stream")

	for {
		var rows []streamRow
		if err := conn.ReadJSON(&rows); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("stream closed: %w", err)
		}

		for i, row := range rows {
			id := currency.ID(i + 1)
			if filter.Valid() && id != filter {
				continue
			}
			fmt.Fprintf(out, "%4d  %-30s %12s  %s\n",
				id, row.Name, row.Price.Display(), row.SyncedAt.Display())
		}
	}
}

// streamURLFor derives the websocket stream URL from the backend base URL.
func streamURLFor(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid backend URL %q: %w", baseURL, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("backend URL must be http(s) or ws(s)")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/stream"
	return u.String(), nil
}
