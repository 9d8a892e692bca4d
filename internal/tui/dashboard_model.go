// Package tui implements the interactive dashboard: a currency menu on the
// left, a price card for the selected currency on the right.
package tui

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/coinboard/coinboard/internal/currency"
)

// Fetcher is the slice of the backend client the dashboard needs.
type Fetcher interface {
	ListCurrencies(ctx context.Context) ([]currency.Summary, error)
	GetCurrency(ctx context.Context, id currency.ID) (*currency.Detail, error)
}

// ViewState is the top-level dashboard state.
type ViewState int

const (
	// ViewStateLoadingList is the initial state while the menu loads.
	ViewStateLoadingList ViewState = iota
	// ViewStateBrowse shows the menu and the detail pane.
	ViewStateBrowse
	// ViewStateError means the currency listing could not be loaded.
	ViewStateError
	// ViewStateQuitting means the user asked to exit.
	ViewStateQuitting
)

// DetailState is the state of the detail pane within ViewStateBrowse.
type DetailState int

const (
	// DetailLoading means a fetch for the current selection is in flight.
	DetailLoading DetailState = iota
	// DetailReady means the pane shows the current selection's record.
	DetailReady
	// DetailFailed means the fetch for the current selection failed.
	DetailFailed
)

// currenciesLoadedMsg delivers the menu model source.
type currenciesLoadedMsg struct {
	summaries []currency.Summary
}

// currenciesErrMsg reports a listing load failure.
type currenciesErrMsg struct {
	err error
}

// detailLoadedMsg delivers a detail record. gen identifies which selection
// the fetch was issued for.
type detailLoadedMsg struct {
	gen    int
	detail *currency.Detail
}

// detailErrMsg reports a detail fetch failure for generation gen.
type detailErrMsg struct {
	gen int
	err error
}

// menuItem adapts a currency summary to the bubbles list widget. The item
// carries the typed identifier so selection never round-trips through a
// display string.
type menuItem struct {
	summary currency.Summary
}

func (i menuItem) Title() string       { return i.summary.Name }
func (i menuItem) Description() string { return i.summary.Symbol }
func (i menuItem) FilterValue() string { return i.summary.Name }

// errEmptyListing is shown when the backend knows no currencies yet.
var errEmptyListing = errors.New("backend returned an empty currency listing")

// Key bindings.
const (
	keyQuit    = "q"
	keyCtrlC   = "ctrl+c"
	keyEnter   = "enter"
	keyRefresh = "r"
)

// Layout constants.
const (
	defaultWidth  = 100
	defaultHeight = 30
	menuWidth     = 34
)

// DashboardModel is the Bubble Tea model for the dashboard.
//
//nolint:recvcheck // Bubble Tea requires value receivers for Init/Update/View.
type DashboardModel struct {
	ctx    context.Context
	client Fetcher

	state       ViewState
	detailState DetailState

	menu    list.Model
	spinner spinner.Model

	// selected is the currently selected currency identifier; the zero
	// value means nothing is selected yet.
	selected currency.ID

	// fetchSeq tags detail fetches. Every selection bumps it; results
	// carrying a stale tag are discarded so an earlier selection's slow
	// response can never overwrite a later one.
	fetchSeq int

	detail    *currency.Detail
	detailErr error
	listErr   error

	width  int
	height int
}

// NewDashboardModel builds the initial model around client.
func NewDashboardModel(ctx context.Context, client Fetcher) DashboardModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = HeaderStyle

	delegate := list.NewDefaultDelegate()
	menu := list.New(nil, delegate, menuWidth, defaultHeight-2)
	menu.Title = "Currencies"
	menu.SetShowStatusBar(false)
	menu.DisableQuitKeybindings()

	return DashboardModel{
		ctx:     ctx,
		client:  client,
		state:   ViewStateLoadingList,
		menu:    menu,
		spinner: sp,
		width:   defaultWidth,
		height:  defaultHeight,
	}
}

// Init kicks off the currency listing fetch.
func (m DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchCurrencies())
}

// Update handles messages (Bubble Tea interface).
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.menu.SetSize(menuWidth, msg.Height-2)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case currenciesLoadedMsg:
		return m.handleCurrenciesLoaded(msg)

	case currenciesErrMsg:
		m.state = ViewStateError
		m.listErr = msg.err
		return m, nil

	case detailLoadedMsg:
		if msg.gen != m.fetchSeq {
			// Response from a superseded selection.
			return m, nil
		}
		m.detail = msg.detail
		m.detailErr = nil
		m.detailState = DetailReady
		return m, nil

	case detailErrMsg:
		if msg.gen != m.fetchSeq {
			return m, nil
		}
		m.detail = nil
		m.detailErr = msg.err
		m.detailState = DetailFailed
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m DashboardModel) handleCurrenciesLoaded(msg currenciesLoadedMsg) (tea.Model, tea.Cmd) {
	items := make([]list.Item, len(msg.summaries))
	for i, summary := range msg.summaries {
		items[i] = menuItem{summary: summary}
	}
	m.menu.SetItems(items)
	m.state = ViewStateBrowse

	if len(msg.summaries) == 0 {
		m.detailState = DetailFailed
		m.detailErr = errEmptyListing
		return m, nil
	}

	// Default selection is the first currency.
	return m.selectCurrency(msg.summaries[0].ID)
}

func (m DashboardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyQuit, keyCtrlC:
		if m.menu.FilterState() == list.Filtering {
			break
		}
		m.state = ViewStateQuitting
		return m, tea.Quit
	case keyEnter:
		if m.state == ViewStateBrowse && m.menu.FilterState() != list.Filtering {
			if item, ok := m.menu.SelectedItem().(menuItem); ok {
				return m.selectCurrency(item.summary.ID)
			}
			return m, nil
		}
	case keyRefresh:
		if m.state == ViewStateBrowse && m.menu.FilterState() != list.Filtering && m.selected.Valid() {
			return m.selectCurrency(m.selected)
		}
	}

	var cmd tea.Cmd
	m.menu, cmd = m.menu.Update(msg)
	return m, cmd
}

// selectCurrency is the single mutation point for the selection. It clears
// the displayed detail, forces the loading state, and issues exactly one
// fetch tagged with a fresh generation.
func (m DashboardModel) selectCurrency(id currency.ID) (tea.Model, tea.Cmd) {
	m.selected = id
	m.detail = nil
	m.detailErr = nil
	m.detailState = DetailLoading
	m.fetchSeq++
	return m, tea.Batch(m.fetchDetail(m.fetchSeq, id), m.spinner.Tick)
}

// fetchCurrencies loads the menu model source.
func (m DashboardModel) fetchCurrencies() tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		summaries, err := client.ListCurrencies(ctx)
		if err != nil {
			return currenciesErrMsg{err: err}
		}
		return currenciesLoadedMsg{summaries: summaries}
	}
}

// fetchDetail loads one detail record, tagged with the generation it was
// issued for.
func (m DashboardModel) fetchDetail(gen int, id currency.ID) tea.Cmd {
	ctx, client := m.ctx, m.client
	return func() tea.Msg {
		detail, err := client.GetCurrency(ctx, id)
		if err != nil {
			return detailErrMsg{gen: gen, err: err}
		}
		return detailLoadedMsg{gen: gen, detail: detail}
	}
}

// Selected returns the current selection.
func (m DashboardModel) Selected() currency.ID { return m.selected }

// State returns the top-level view state.
func (m DashboardModel) State() ViewState { return m.state }

// DetailPane returns the detail pane state.
func (m DashboardModel) DetailPane() DetailState { return m.detailState }

// Detail returns the displayed record, nil while loading or failed.
func (m DashboardModel) Detail() *currency.Detail { return m.detail }
