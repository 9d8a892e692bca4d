// Package api is the REST client for the coinboard backend: the currency
// listing and per-currency detail endpoints the dashboard is built on.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/coinboard/coinboard/internal/currency"
	"github.com/coinboard/coinboard/internal/logging"
)

// DefaultBaseURL is the backend address observed in development setups.
const DefaultBaseURL = "http://127.0.0.1:8000"

// DefaultTimeout bounds each request; the dashboard performs no retries, so
// a hung fetch would otherwise pin the pane in its loading state forever.
const DefaultTimeout = 10 * time.Second

// apiVersionHeader carries the backend's advertised API version.
const apiVersionHeader = "X-Api-Version"

// supportedAPIVersions is the semver range of backend APIs this client
// understands.
const supportedAPIVersions = ">= 1.0.0, < 2.0.0"

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d for %s", e.Code, e.Path)
}

// NotFound reports whether the error is a 404 from the backend, i.e. the
// requested position is outside the current listing.
func (e *StatusError) NotFound() bool { return e.Code == http.StatusNotFound }

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root; DefaultBaseURL when empty.
	BaseURL string
	// Timeout is the per-request bound; DefaultTimeout when zero.
	Timeout time.Duration
	// SkipVersionCheck disables the X-Api-Version compatibility warning.
	SkipVersionCheck bool
}

// Client talks to the coinboard backend.
type Client struct {
	baseURL          string
	httpClient       *http.Client
	skipVersionCheck bool

	versionOnce sync.Once
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:          baseURL,
		httpClient:       &http.Client{Timeout: timeout},
		skipVersionCheck: opts.SkipVersionCheck,
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.baseURL }

// listingRow is the wire shape of one /cryptocurrencies entry. Position in
// the array implies the identifier; the row itself carries none.
type listingRow struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// ListCurrencies fetches the full currency listing and assigns each row its
// 1-based position as the identifier.
func (c *Client) ListCurrencies(ctx context.Context) ([]currency.Summary, error) {
	var rows []listingRow
	if err := c.getJSON(ctx, "/cryptocurrencies", &rows); err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}

	summaries := make([]currency.Summary, len(rows))
	for i, row := range rows {
		summaries[i] = currency.Summary{
			ID:     currency.ID(i + 1),
			Name:   row.Name,
			Symbol: row.Symbol,
		}
	}
	return summaries, nil
}

// GetCurrency fetches the detail record for the currency at position id.
// The response does not echo the identifier, so it is merged back into the
// record here; the view derives the image reference from it.
func (c *Client) GetCurrency(ctx context.Context, id currency.ID) (*currency.Detail, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("get currency: invalid id %d", id)
	}

	var detail currency.Detail
	if err := c.getJSON(ctx, "/cryptocurrencies/"+id.String(), &detail); err != nil {
		return nil, fmt.Errorf("get currency %d: %w", id, err)
	}
	detail.ID = id
	if err := detail.Validate(); err != nil {
		return nil, fmt.Errorf("get currency %d: malformed response: %w", id, err)
	}
	return &detail, nil
}

// getJSON performs one GET and decodes the body into out.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.checkAPIVersion(ctx, resp)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Code: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// checkAPIVersion warns once per process when the backend advertises a
// version outside the supported range. Absent or unparseable headers are
// ignored: older backends predate the header.
func (c *Client) checkAPIVersion(ctx context.Context, resp *http.Response) {
	if c.skipVersionCheck {
		return
	}
	raw := resp.Header.Get(apiVersionHeader)
	if raw == "" {
		return
	}
	c.versionOnce.Do(func() {
		ver, err := semver.NewVersion(raw)
		if err != nil {
			return
		}
		constraint, err := semver.NewConstraint(supportedAPIVersions)
		if err != nil {
			return
		}
		if !constraint.Check(ver) {
			logging.FromContext(ctx).Warn().
				Str("component", "api").
				Str("backend_version", raw).
				Str("supported", supportedAPIVersions).
				Msg("backend API version outside supported range")
		}
	})
}
