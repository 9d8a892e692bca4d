package server

import (
	"context"
	"time"

	"github.com/coinboard/coinboard/internal/cmc"
	"github.com/coinboard/coinboard/internal/currency"
	"github.com/coinboard/coinboard/internal/logging"
)

// listingSource is the upstream the refresher pulls from.
type listingSource interface {
	Listings(ctx context.Context) ([]cmc.Listing, error)
}

// Refresher periodically replaces the store snapshot with fresh upstream
// listings and notifies the hub. A failed pull is logged and leaves the
// previous snapshot serving.
type Refresher struct {
	source   listingSource
	store    *Store
	hub      *Hub
	interval time.Duration
}

// NewRefresher wires a refresher. hub may be nil when no stream is served.
func NewRefresher(source listingSource, store *Store, hub *Hub, interval time.Duration) *Refresher {
	return &Refresher{
		source:   source,
		store:    store,
		hub:      hub,
		interval: interval,
	}
}

// Run pulls once immediately, then on every interval tick until ctx is
// cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	logger := logging.FromContext(ctx)

	listings, err := r.source.Listings(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("price refresh failed, keeping previous snapshot")
		return
	}

	rows := make([]currency.Detail, len(listings))
	for i, listing := range listings {
		rows[i] = currency.Detail{
			Name:     listing.Name,
			Symbol:   listing.Symbol,
			Price:    listing.Price,
			SyncedAt: listing.UpdatedAt,
		}
	}
	r.store.Replace(rows)

	if r.hub != nil {
		r.hub.Broadcast(r.store.List())
	}

	logger.Info().Int("currencies", len(rows)).Msg("price snapshot refreshed")
}
