// Package detail renders a single campaign with its live insights section.
package detail

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/campaign-pulse/tui/internal/client"
	"github.com/campaign-pulse/tui/internal/format"
	"github.com/campaign-pulse/tui/internal/theme"
	"github.com/campaign-pulse/tui/internal/views/dashboard"
	"github.com/campaign-pulse/tui/internal/views/pulse"
)

const (
	panelWidth = 72
	labelWidth = 14
	cardWidth  = 20
)

var (
	stylePanel = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.ColorBorder).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed).
			Width(labelWidth)

	styleValue = lipgloss.NewStyle().
			Foreground(theme.ColorBright)

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorBright)

	styleFooter = lipgloss.NewStyle().
			Foreground(theme.ColorDimmed)

	styleSectionHeader = lipgloss.NewStyle().
				Bold(true).
				Foreground(theme.ColorBright)
)

// Model holds one campaign and the latest stream state for it.
type Model struct {
	Width    int
	Campaign *client.Campaign
	Live     client.State

	pulse pulse.Model
}

// New creates a detail model for c seeded with the fetched insights.
func New(c *client.Campaign, initial client.Insights) Model {
	return Model{
		Campaign: c,
		Live:     client.State{CampaignID: c.ID, Insights: initial, Status: client.StreamIdle},
		pulse:    pulse.New(),
	}
}

// SetLive stores a new stream state. The indicator pulses only while live.
func (m *Model) SetLive(st client.State) tea.Cmd {
	m.Live = st
	if st.Status == client.StreamLive {
		return m.pulse.Start()
	}
	m.pulse.Stop()
	return nil
}

// Update forwards animation frames to the indicator.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.pulse, cmd = m.pulse.Update(msg)
	return m, cmd
}

// Indicator returns the stream status text shown beside the section title.
func (m Model) Indicator() string {
	switch m.Live.Status {
	case client.StreamLive:
		return m.pulse.View() + " " + lipgloss.NewStyle().Foreground(theme.ColorLive).Render("Live")
	case client.StreamConnecting:
		return theme.StyleDimmed.Render("Connecting…")
	case client.StreamReconnecting:
		return theme.StyleDimmed.Render("Reconnecting…")
	case client.StreamError:
		return theme.StyleError.Render("Live updates unavailable")
	default:
		return theme.StyleDimmed.Render("Paused")
	}
}

// View renders the campaign panel followed by the insights section.
func (m Model) View() string {
	if m.Campaign == nil {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		stylePanel.Width(panelWidth).Render(m.renderCampaign()),
		m.renderInsights(),
		styleFooter.Render("  [esc] back  [r] reload  [?] help"),
	)
}

func (m Model) renderCampaign() string {
	c := m.Campaign
	var b strings.Builder

	b.WriteString(styleTitle.Render(c.Name) + "  " + theme.StatusBadge(string(c.Status)) + "\n")
	b.WriteString(strings.Repeat("─", panelWidth-4) + "\n")

	writeRow(&b, "ID", format.Truncate(c.ID, 40))
	writeRow(&b, "Start Date", format.Date(c.CreatedAt))
	writeRow(&b, "Budget", format.Currency(c.Budget))
	writeRow(&b, "Daily Budget", format.Currency(c.DailyBudget))
	platforms := "-"
	if len(c.Platforms) > 0 {
		platforms = strings.Join(c.Platforms, ", ")
	}
	writeRow(&b, "Platforms", platforms)
	if c.BrandID != 0 {
		writeRow(&b, "Brand", fmt.Sprintf("%d", c.BrandID))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Cards returns the insight figures in display order.
func (m Model) Cards() []dashboard.Card {
	in := m.Live.Insights
	return []dashboard.Card{
		{Label: "Clicks", Value: format.Number(in.Clicks), Color: theme.ColorClicks},
		{Label: "Conversions", Value: format.Number(in.Conversions), Color: theme.ColorConversions},
		{Label: "Spend", Value: format.Currency(in.Spend), Color: theme.ColorSpend},
		{Label: "CTR", Value: format.Percent(in.CTR), Color: theme.ColorRate},
		{Label: "CPC", Value: format.Currency(in.CPC), Color: theme.ColorRate},
		{Label: "Conversion Rate", Value: format.Percent(in.ConversionRate), Color: theme.ColorRate},
	}
}

func (m Model) renderInsights() string {
	header := styleSectionHeader.Render("  Performance Insights") + "  " + m.Indicator()

	width := max(m.Width, panelWidth)
	perRow := max(1, (width-2)/(cardWidth+2))
	cards := m.Cards()
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		var rendered []string
		for _, c := range cards[i:min(i+perRow, len(cards))] {
			rendered = append(rendered, dashboard.RenderCard(c, cardWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	lines := []string{"", header}
	lines = append(lines, rows...)
	if ts := m.Live.Insights.Timestamp.String(); ts != "" {
		lines = append(lines, theme.StyleDimmed.Render("  Updated "+ts))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString(styleLabel.Render(label+":") + styleValue.Render(value) + "\n")
}
