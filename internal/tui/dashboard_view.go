package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/coinboard/coinboard/internal/currency"
)

// View renders the dashboard (Bubble Tea interface).
func (m DashboardModel) View() string {
	switch m.state {
	case ViewStateQuitting:
		return ""
	case ViewStateLoadingList:
		return fmt.Sprintf("\n  %s Loading currencies...\n", m.spinner.View())
	case ViewStateError:
		return ErrorStyle.Render(fmt.Sprintf("Could not load currencies: %v", m.listErr)) +
			SubtleStyle.Render("\nPress q to quit")
	case ViewStateBrowse:
		return m.renderBrowseView()
	default:
		return ""
	}
}

func (m DashboardModel) renderBrowseView() string {
	menu := m.menu.View()
	pane := m.renderDetailPane()
	body := lipgloss.JoinHorizontal(lipgloss.Top, menu, "  ", pane)
	hints := SubtleStyle.Render("enter: select | r: refresh | /: filter | q: quit")
	return lipgloss.JoinVertical(lipgloss.Left, body, hints)
}

// renderDetailPane picks the card for the current detail pane state.
func (m DashboardModel) renderDetailPane() string {
	cardWidth := m.width - menuWidth - 6
	if cardWidth < 30 {
		cardWidth = 30
	}

	switch m.detailState {
	case DetailReady:
		return RenderDetailCard(m.detail, cardWidth)
	case DetailFailed:
		content := ErrorStyle.Render("Load failed") + "\n\n" +
			ValueStyle.Render(fmt.Sprintf("%v", m.detailErr)) + "\n\n" +
			SubtleStyle.Render("Press r to retry")
		return BoxStyle.Width(cardWidth).Render(content)
	case DetailLoading:
		fallthrough
	default:
		return BoxStyle.Width(cardWidth).Render(m.spinner.View() + " Loading...")
	}
}

// RenderDetailCard renders the price card for a detail record. It is a pure
// function of its input: nil renders the indeterminate placeholder, and a
// non-nil record is trusted to be well-formed.
func RenderDetailCard(detail *currency.Detail, width int) string {
	if detail == nil {
		return BoxStyle.Width(width).Render("Loading...")
	}

	var content strings.Builder

	title := detail.Name
	if detail.Symbol != "" {
		title += " (" + detail.Symbol + ")"
	}
	content.WriteString(TitleStyle.Render(title))
	content.WriteString("\n")
	content.WriteString(SubtleStyle.Render(detail.ImageURL()))
	content.WriteString("\n\n")

	content.WriteString(LabelStyle.Render("Price:   "))
	content.WriteString(PriceStyle.Render(detail.Price.Display()))
	content.WriteString("\n")

	content.WriteString(LabelStyle.Render("Updated: "))
	content.WriteString(ValueStyle.Render(detail.SyncedAt.Display()))

	return BoxStyle.Width(width).Render(content.String())
}
