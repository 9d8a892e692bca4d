package currency

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ID
		wantErr bool
	}{
		{name: "first position", input: "1", want: 1},
		{name: "larger position", input: "42", want: 42},
		{name: "zero is not addressable", input: "0", wantErr: true},
		{name: "negative", input: "-3", wantErr: true},
		{name: "not a number", input: "btc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIDImageURL(t *testing.T) {
	assert.Equal(t, "https://s2.coinmarketcap.com/static/img/coins/64x64/7.png", ID(7).ImageURL())
}

func TestPriceUnmarshal(t *testing.T) {
	t.Run("string form", func(t *testing.T) {
		var p Price
		require.NoError(t, json.Unmarshal([]byte(`"123.4567"`), &p))
		assert.Equal(t, "123.4567", p.String())
	})

	t.Run("number form", func(t *testing.T) {
		var p Price
		require.NoError(t, json.Unmarshal([]byte(`50000.1`), &p))
		assert.Equal(t, "50000.1", p.String())
	})

	t.Run("garbage", func(t *testing.T) {
		var p Price
		assert.Error(t, json.Unmarshal([]byte(`"not-a-price"`), &p))
	})
}

func TestPriceDisplay(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "123.4567", want: "$123.457"},
		{input: "50000.1", want: "$50000.100"},
		{input: "0.5", want: "$0.500"},
		{input: "1", want: "$1.000"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPrice(tt.input).Display())
		})
	}
}

func TestTimestampUnmarshal(t *testing.T) {
	t.Run("rfc3339", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2024-01-01T00:00:00Z"`), &ts))
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ts.Time().UTC())
	})

	t.Run("iso without zone", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`"2024-01-01T12:30:00"`), &ts))
		assert.Equal(t, 12, ts.Time().Hour())
	})

	t.Run("epoch seconds", func(t *testing.T) {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(`1704067200`), &ts))
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ts.Time())
	})

	t.Run("garbage", func(t *testing.T) {
		var ts Timestamp
		assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	})
}

func TestTimestampDisplayIsViewerLocal(t *testing.T) {
	instant := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	want := instant.Local().Format("02 Jan 2006 15:04:05 MST")
	assert.Equal(t, want, NewTimestamp(instant).Display())
}

func TestDetailValidate(t *testing.T) {
	valid := Detail{
		ID:       1,
		Name:     "Bitcoin",
		Price:    NewPrice("50000.1"),
		SyncedAt: NewTimestamp(time.Now()),
	}
	assert.NoError(t, valid.Validate())

	noName := valid
	noName.Name = ""
	assert.Error(t, noName.Validate())

	noTimestamp := valid
	noTimestamp.SyncedAt = Timestamp{}
	assert.Error(t, noTimestamp.Validate())
}

func TestPriceRoundTrip(t *testing.T) {
	data, err := json.Marshal(NewPrice("123.4567"))
	require.NoError(t, err)
	assert.Equal(t, `"123.4567"`, string(data))
}
