package status

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/campaign-pulse/tui/internal/client"
	"github.com/campaign-pulse/tui/internal/theme"
)

// Model holds the status bar state.
type Model struct {
	Page    string
	APIHost string
	Stream  client.Status
	// Streaming is false when no campaign subscription exists.
	Streaming bool
	Attempts  int
	Focused   bool
	Loading   string // spinner frame while a fetch is in flight
	Width     int
}

// New creates a status bar model.
func New(apiHost string) Model {
	return Model{APIHost: apiHost, Focused: true, Stream: client.StreamIdle}
}

// SetStream records the subscription state shown on the right.
func (m *Model) SetStream(st client.State) {
	m.Streaming = true
	m.Stream = st.Status
	m.Attempts = st.Attempts
}

// ClearStream hides the stream section.
func (m *Model) ClearStream() {
	m.Streaming = false
	m.Stream = client.StreamIdle
	m.Attempts = 0
}

// StreamLabel returns the text for the stream section.
func (m Model) StreamLabel() string {
	if !m.Streaming {
		return "no stream"
	}
	label := string(m.Stream)
	if m.Stream == client.StreamReconnecting && m.Attempts > 0 {
		label = fmt.Sprintf("%s (attempt %d)", label, m.Attempts)
	}
	return label
}

// View renders the status bar.
func (m Model) View() string {
	width := max(m.Width, 40)

	title := theme.StyleHeader.Render("Campaign Pulse")
	page := theme.StyleDimmed.Render(m.Page)
	host := theme.StyleDimmed.Render(m.APIHost)

	streamColor := theme.StreamColor(string(m.Stream))
	if !m.Streaming {
		streamColor = theme.ColorDimmed
	}
	stream := lipgloss.NewStyle().Foreground(streamColor).
		Render(theme.StreamGlyph(string(m.Stream)) + " " + m.StreamLabel())

	focus := lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("focused")
	if !m.Focused {
		focus = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("background")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := title + sep + page + sep + host + sep + stream + sep + focus
	if m.Loading != "" {
		content += sep + m.Loading + " loading"
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
