// Package dashboard renders the overview page: aggregate insight cards for
// every campaign.
package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/campaign-pulse/tui/internal/client"
	"github.com/campaign-pulse/tui/internal/format"
	"github.com/campaign-pulse/tui/internal/theme"
)

const cardWidth = 22

// Model holds the overview state.
type Model struct {
	Width    int
	insights *client.InsightsAggregate
}

// New creates an empty overview.
func New() Model {
	return Model{}
}

// SetInsights replaces the aggregate.
func (m *Model) SetInsights(agg *client.InsightsAggregate) {
	m.insights = agg
}

// Loaded reports whether an aggregate has been received.
func (m Model) Loaded() bool { return m.insights != nil }

// Card is one labelled figure.
type Card struct {
	Label string
	Value string
	Color lipgloss.Color
}

// Cards returns the overview figures in display order.
func (m Model) Cards() []Card {
	a := m.insights
	if a == nil {
		return nil
	}
	return []Card{
		{Label: "Total Campaigns", Value: format.Number(float64(a.TotalCampaigns)), Color: theme.ColorBright},
		{Label: "Active", Value: format.Number(float64(a.ActiveCampaigns)), Color: theme.ColorActive},
		{Label: "Paused", Value: format.Number(float64(a.PausedCampaigns)), Color: theme.ColorPaused},
		{Label: "Completed", Value: format.Number(float64(a.CompletedCampaigns)), Color: theme.ColorCompleted},
		{Label: "Impressions", Value: format.Number(a.TotalImpressions), Color: theme.ColorBright},
		{Label: "Clicks", Value: format.Number(a.TotalClicks), Color: theme.ColorClicks},
		{Label: "Conversions", Value: format.Number(a.TotalConversions), Color: theme.ColorConversions},
		{Label: "Spend", Value: format.Currency(a.TotalSpend), Color: theme.ColorSpend},
		{Label: "Avg CTR", Value: format.Percent(a.AvgCTR), Color: theme.ColorRate},
		{Label: "Avg CPC", Value: format.Currency(a.AvgCPC), Color: theme.ColorRate},
		{Label: "Conversion Rate", Value: format.Percent(a.AvgConversionRate), Color: theme.ColorRate},
	}
}

// View renders the cards in as many columns as the width allows.
func (m Model) View() string {
	width := max(m.Width, 40)

	header := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBright).
		Render("  Campaign Overview")

	cards := m.Cards()
	if len(cards) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			header,
			theme.StyleDimmed.Render("  No insights yet"),
		)
	}

	perRow := max(1, (width-2)/(cardWidth+2))
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		var rendered []string
		for _, c := range cards[i:end] {
			rendered = append(rendered, RenderCard(c, cardWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	summary := theme.StyleDimmed.Render(fmt.Sprintf("  %s of %s campaigns running",
		format.Number(float64(m.insights.ActiveCampaigns)),
		format.Number(float64(m.insights.TotalCampaigns))))

	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(rows, "\n"), summary)
}

// RenderCard draws a bordered label/value card. The detail page reuses it.
func RenderCard(c Card, width int) string {
	label := theme.StyleDimmed.Render(c.Label)
	value := lipgloss.NewStyle().Bold(true).Foreground(c.Color).Render(c.Value)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(label + "\n" + value)
}
