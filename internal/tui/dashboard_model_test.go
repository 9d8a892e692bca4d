package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinboard/coinboard/internal/currency"
)

// stubFetcher serves canned listings and details and records every detail
// fetch issued.
type stubFetcher struct {
	mu        sync.Mutex
	summaries []currency.Summary
	listErr   error
	detailErr error
	fetched   []currency.ID
}

func (s *stubFetcher) ListCurrencies(context.Context) ([]currency.Summary, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.summaries, nil
}

func (s *stubFetcher) GetCurrency(_ context.Context, id currency.ID) (*currency.Detail, error) {
	s.mu.Lock()
	s.fetched = append(s.fetched, id)
	s.mu.Unlock()

	if s.detailErr != nil {
		return nil, s.detailErr
	}
	return detailFor(id), nil
}

func (s *stubFetcher) fetchedIDs() []currency.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]currency.ID(nil), s.fetched...)
}

func detailFor(id currency.ID) *currency.Detail {
	names := map[currency.ID]string{1: "Bitcoin", 2: "Ethereum", 3: "Cardano"}
	return &currency.Detail{
		ID:       id,
		Name:     names[id],
		Price:    currency.NewPrice("50000.1"),
		SyncedAt: currency.NewTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func twoCurrencies() []currency.Summary {
	return []currency.Summary{
		{ID: 1, Name: "Bitcoin", Symbol: "BTC"},
		{ID: 2, Name: "Ethereum", Symbol: "ETH"},
	}
}

// drain executes cmd, flattening batches, and feeds every resulting message
// except spinner ticks back into the model. Returns the settled model.
func drain(t *testing.T, m DashboardModel, cmd tea.Cmd) DashboardModel {
	t.Helper()
	for _, msg := range collect(cmd) {
		model, next := m.Update(msg)
		m = model.(DashboardModel)
		m = drain(t, m, next)
	}
	return m
}

// collect runs cmd and returns the produced messages, expanding batches and
// dropping spinner ticks.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	switch msg := msg.(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, sub := range msg {
			out = append(out, collect(sub)...)
		}
		return out
	case spinner.TickMsg:
		// Irrelevant to the behaviors under test, and feeding it back
		// would schedule the next tick forever.
		return nil
	default:
		return []tea.Msg{msg}
	}
}

func loadedModel(t *testing.T, fetcher *stubFetcher) DashboardModel {
	t.Helper()
	m := NewDashboardModel(context.Background(), fetcher)

	model, cmd := m.Update(currenciesLoadedMsg{summaries: fetcher.summaries})
	m = model.(DashboardModel)
	require.Equal(t, ViewStateBrowse, m.State())
	_ = cmd
	return m
}

func TestInitialStateIsLoading(t *testing.T) {
	m := NewDashboardModel(context.Background(), &stubFetcher{})
	assert.Equal(t, ViewStateLoadingList, m.State())
	assert.NotNil(t, m.Init())
}

func TestMenuDerivedFromListing(t *testing.T) {
	fetcher := &stubFetcher{summaries: twoCurrencies()}
	m := loadedModel(t, fetcher)

	items := m.menu.Items()
	require.Len(t, items, 2)
	first, ok := items[0].(menuItem)
	require.True(t, ok)
	assert.Equal(t, currency.ID(1), first.summary.ID)
	assert.Equal(t, "Bitcoin", first.Title())
	second := items[1].(menuItem)
	assert.Equal(t, currency.ID(2), second.summary.ID)
	assert.Equal(t, "Ethereum", second.Title())
}

func TestDefaultSelectionIsFirstCurrency(t *testing.T) {
	fetcher := &stubFetcher{summaries: twoCurrencies()}
	m := loadedModel(t, fetcher)

	assert.Equal(t, currency.ID(1), m.Selected())
	assert.Equal(t, DetailLoading, m.DetailPane())
	assert.Nil(t, m.Detail())
}

func TestSelectionLoadsBeforeResponse(t *testing.T) {
	fetcher := &stubFetcher{summaries: twoCurrencies()}
	m := loadedModel(t, fetcher)

	// The pane is Loading immediately after selection, before any fetch
	// result has been delivered.
	model, cmd := m.selectCurrency(2)
	m = model.(DashboardModel)
	assert.Equal(t, DetailLoading, m.DetailPane())
	assert.Nil(t, m.Detail())
	require.NotNil(t, cmd)

	// Exactly one fetch was issued, for the selected identifier.
	m = drain(t, m, cmd)
	assert.Equal(t, []currency.ID{2}, fetcher.fetchedIDs())
	assert.Equal(t, DetailReady, m.DetailPane())
	assert.Equal(t, "Ethereum", m.Detail().Name)
}

func TestStaleResultNeverOverwritesNewerSelection(t *testing.T) {
	fetcher := &stubFetcher{summaries: twoCurrencies()}
	m := loadedModel(t, fetcher)

	// Select 1 then 2 without letting either fetch resolve.
	model, firstCmd := m.selectCurrency(1)
	m = model.(DashboardModel)
	firstGen := m.fetchSeq

	model, secondCmd := m.selectCurrency(2)
	m = model.(DashboardModel)
	secondGen := m.fetchSeq
	require.Greater(t, secondGen, firstGen)

	// The fetch for 2 resolves first and is displayed.
	m = drain(t, m, secondCmd)
	require.Equal(t, DetailReady, m.DetailPane())
	assert.Equal(t, "Ethereum", m.Detail().Name)

	// The fetch for 1 resolves late; its result must be discarded.
	m = drain(t, m, firstCmd)
	assert.Equal(t, DetailReady, m.DetailPane())
	assert.Equal(t, "Ethereum", m.Detail().Name, "stale result overwrote a newer selection")
}

func TestStaleErrorDiscarded(t *testing.T) {
	fetcher := &stubFetcher{summaries: twoCurrencies()}
	m := loadedModel(t, fetcher)

	model, _ := m.selectCurrency(1)
	m = model.(DashboardModel)
	staleGen := m.fetchSeq

	model, cmd := m.selectCurrency(2)
	m = model.(DashboardModel)
	m = drain(t, m, cmd)
	require.Equal(t, DetailReady, m.DetailPane())

	model, _ = m.Update(detailErrMsg{gen: staleGen, err: assert.AnError})
	m = model.(DashboardModel)
	assert.Equal(t, DetailReady, m.DetailPane(), "stale error must not disturb the displayed record")
}

func TestReselectingSameCurrencyRefetches(t *testing.T) {
	fetcher := &stubFetcher{summaries: twoCurrencies()}
	m := loadedModel(t, fetcher)

	model, cmd := m.selectCurrency(1)
	m = drain(t, model.(DashboardModel), cmd)
	require.Equal(t, "Bitcoin", m.Detail().Name)

	model, cmd = m.selectCurrency(1)
	m = drain(t, model.(DashboardModel), cmd)

	assert.Equal(t, []currency.ID{1, 1}, fetcher.fetchedIDs())
	assert.Equal(t, "Bitcoin", m.Detail().Name, "reselection must never display another currency")
}

func TestEnterSelectsHighlightedCurrency(t *testing.T) {
	fetcher := &stubFetcher{summaries: twoCurrencies()}
	m := loadedModel(t, fetcher)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(DashboardModel)
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = model.(DashboardModel)

	assert.Equal(t, currency.ID(2), m.Selected())
	assert.Equal(t, DetailLoading, m.DetailPane())

	m = drain(t, m, cmd)
	assert.Equal(t, "Ethereum", m.Detail().Name)
}

func TestListLoadFailureSurfacesError(t *testing.T) {
	fetcher := &stubFetcher{listErr: assert.AnError}
	m := NewDashboardModel(context.Background(), fetcher)

	m = drain(t, m, m.fetchCurrencies())
	assert.Equal(t, ViewStateError, m.State())
	assert.Contains(t, m.View(), "Could not load currencies")
}

func TestDetailLoadFailureSurfacesError(t *testing.T) {
	fetcher := &stubFetcher{summaries: twoCurrencies(), detailErr: assert.AnError}
	m := loadedModel(t, fetcher)

	model, cmd := m.selectCurrency(1)
	m = drain(t, model.(DashboardModel), cmd)

	assert.Equal(t, DetailFailed, m.DetailPane())
	assert.Nil(t, m.Detail())
}

func TestEmptyListing(t *testing.T) {
	fetcher := &stubFetcher{summaries: nil}
	m := NewDashboardModel(context.Background(), fetcher)

	m = drain(t, m, m.fetchCurrencies())
	assert.Equal(t, ViewStateBrowse, m.State())
	assert.Equal(t, DetailFailed, m.DetailPane())
	assert.Empty(t, m.menu.Items())
}

func TestQuitKeys(t *testing.T) {
	fetcher := &stubFetcher{summaries: twoCurrencies()}
	m := loadedModel(t, fetcher)

	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = model.(DashboardModel)
	assert.Equal(t, ViewStateQuitting, m.State())
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
