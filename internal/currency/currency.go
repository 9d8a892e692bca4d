// Package currency defines the dashboard's data model: positional currency
// identifiers, listing summaries and price detail records, plus the display
// formatting rules for prices and sync timestamps.
package currency

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// imageHostURL is the third-party host serving coin logos keyed by the same
// positional identifier the backend uses. There is no fallback if an image
// does not exist there.
const imageHostURL = "https://s2.coinmarketcap.com/static/img/coins/64x64"

// ID addresses one currency as a 1-based position into the backend listing.
// The backend assigns no stable keys: if the listing ever reorders, an ID
// held across refreshes may point at a different currency.
type ID int

// ParseID converts a display-layer string key into an ID. Menu widgets and
// argv hand us strings; nothing past this boundary works with string keys.
func ParseID(s string) (ID, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid currency id %q: %w", s, err)
	}
	id := ID(n)
	if !id.Valid() {
		return 0, fmt.Errorf("invalid currency id %d: must be >= 1", n)
	}
	return id, nil
}

// Valid reports whether the ID is addressable (positions are 1-based).
func (id ID) Valid() bool { return id >= 1 }

// String returns the ID as it appears in request paths.
func (id ID) String() string { return strconv.Itoa(int(id)) }

// ImageURL returns the logo URL for the currency at this position.
func (id ID) ImageURL() string {
	return fmt.Sprintf("%s/%d.png", imageHostURL, int(id))
}

// Summary is one row of the currency listing, enough to build a menu entry.
type Summary struct {
	ID     ID     `json:"id"`
	Name   string `json:"name"`
	Symbol string `json:"symbol,omitempty"`
}

// Detail is the latest price snapshot for one currency.
type Detail struct {
	ID       ID        `json:"id"`
	Name     string    `json:"name"`
	Symbol   string    `json:"symbol,omitempty"`
	Price    Price     `json:"price"`
	SyncedAt Timestamp `json:"sync_timestamp"`
}

// Validate rejects records the display layer must not see: the view trusts
// its input once non-nil, so malformed responses fail here instead.
func (d *Detail) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("currency record has no name")
	}
	if d.SyncedAt.Time().IsZero() {
		return fmt.Errorf("currency %q has no sync timestamp", d.Name)
	}
	return nil
}

// ImageURL returns the logo URL derived from the record's position.
func (d *Detail) ImageURL() string { return d.ID.ImageURL() }

// Price is a decimal amount in USD. The backend serves it as a JSON number
// or a string depending on the upstream row, so both forms decode.
type Price struct {
	dec decimal.Decimal
}

// NewPrice builds a Price from a decimal string. It panics on malformed
// input and is intended for literals in tests and fixtures.
func NewPrice(s string) Price {
	return Price{dec: decimal.RequireFromString(s)}
}

// Decimal returns the underlying decimal value.
func (p Price) Decimal() decimal.Decimal { return p.dec }

// Display renders the price for the card: a dollar sign and exactly three
// fractional digits, no grouping ("123.4567" -> "$123.457").
func (p Price) Display() string {
	return "$" + p.dec.StringFixed(3)
}

// String returns the undecorated decimal form.
func (p Price) String() string { return p.dec.String() }

// UnmarshalJSON accepts both `12.34` and `"12.34"`.
func (p *Price) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid price %s: %w", string(data), err)
	}
	p.dec = dec
	return nil
}

// MarshalJSON writes the price as a JSON string to keep full precision.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.dec.String())), nil
}

// Timestamp is the instant a price row was last synced. The wire form is
// either RFC 3339 / ISO-8601 or epoch seconds.
type Timestamp struct {
	t time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{t: t} }

// Time returns the wrapped instant.
func (ts Timestamp) Time() time.Time { return ts.t }

// Display renders the instant using the viewer's local date/time
// conventions.
func (ts Timestamp) Display() string {
	return ts.t.Local().Format("02 Jan 2006 15:04:05 MST")
}

// UnmarshalJSON accepts RFC 3339 strings, ISO-8601 without zone, and epoch
// seconds (integer or float).
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		raw := s[1 : len(s)-1]
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, raw); err == nil {
				ts.t = t
				return nil
			}
		}
		return fmt.Errorf("invalid timestamp %q", raw)
	}
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", s, err)
	}
	ts.t = time.Unix(int64(sec), 0).UTC()
	return nil
}

// MarshalJSON writes the instant as RFC 3339 UTC.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(ts.t.UTC().Format(time.RFC3339))), nil
}
