// Package cmc is a thin client for the CoinMarketCap Pro API, the upstream
// source the coinboard backend syncs its price snapshot from.
package cmc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/coinboard/coinboard/internal/currency"
)

// DefaultBaseURL is the CoinMarketCap Pro API root.
const DefaultBaseURL = "https://pro-api.coinmarketcap.com"

// authHeader carries the API key on every request.
const authHeader = "X-CMC_PRO_API_KEY"

// defaultTimeout bounds upstream calls; the refresher runs on a schedule
// and must not wedge on a slow upstream.
const defaultTimeout = 30 * time.Second

// Listing is one row of the latest-listings response, reduced to the
// fields the backend snapshot keeps.
type Listing struct {
	Name      string
	Symbol    string
	Price     currency.Price
	UpdatedAt currency.Timestamp
}

// Client calls the CoinMarketCap API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient builds a Client for baseURL (DefaultBaseURL when empty)
// authenticated with apiKey.
func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// quote is the USD leg of a CMC quote block.
type quote struct {
	Price       currency.Price     `json:"price"`
	LastUpdated currency.Timestamp `json:"last_updated"`
}

// listingRow is the wire shape of one listings/quotes entry.
type listingRow struct {
	Name   string           `json:"name"`
	Symbol string           `json:"symbol"`
	Quote  map[string]quote `json:"quote"`
}

func (r *listingRow) toListing() (Listing, error) {
	usd, ok := r.Quote["USD"]
	if !ok {
		return Listing{}, fmt.Errorf("row %q has no USD quote", r.Name)
	}
	return Listing{
		Name:      r.Name,
		Symbol:    r.Symbol,
		Price:     usd.Price,
		UpdatedAt: usd.LastUpdated,
	}, nil
}

// Listings fetches the latest listings in CoinMarketCap rank order.
func (c *Client) Listings(ctx context.Context) ([]Listing, error) {
	var body struct {
		Data []listingRow `json:"data"`
	}
	if err := c.getJSON(ctx, "/v1/cryptocurrency/listings/latest", nil, &body); err != nil {
		return nil, fmt.Errorf("cmc listings: %w", err)
	}

	listings := make([]Listing, 0, len(body.Data))
	for i := range body.Data {
		listing, err := body.Data[i].toListing()
		if err != nil {
			return nil, fmt.Errorf("cmc listings: %w", err)
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// Quote fetches the latest quote for one CoinMarketCap currency id.
func (c *Client) Quote(ctx context.Context, id int) (Listing, error) {
	var body struct {
		Data map[string]listingRow `json:"data"`
	}
	params := url.Values{"id": {strconv.Itoa(id)}}
	if err := c.getJSON(ctx, "/v2/cryptocurrency/quotes/latest", params, &body); err != nil {
		return Listing{}, fmt.Errorf("cmc quote %d: %w", id, err)
	}

	row, ok := body.Data[strconv.Itoa(id)]
	if !ok {
		return Listing{}, fmt.Errorf("cmc quote %d: id missing from response", id)
	}
	listing, err := row.toListing()
	if err != nil {
		return Listing{}, fmt.Errorf("cmc quote %d: %w", id, err)
	}
	return listing, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set(authHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("upstream returned %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
