// Package theme provides the Lip Gloss color palette and reusable styles
// for the campaign dashboard. It is a leaf package with no internal imports
// to avoid import cycles.
package theme

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Campaign status colors.
var (
	ColorActive    = lipgloss.Color("#22c55e")
	ColorPaused    = lipgloss.Color("#d97706")
	ColorCompleted = lipgloss.Color("#3b82f6")
	ColorDefault   = lipgloss.Color("#9ca3af")
)

// Stream status colors.
var (
	ColorLive         = lipgloss.Color("#22c55e")
	ColorConnecting   = lipgloss.Color("#7c3aed")
	ColorReconnecting = lipgloss.Color("#d97706")
	ColorStreamError  = lipgloss.Color("#dc2626")
	ColorStreamIdle   = lipgloss.Color("#4b5563")
)

// Metric card accents.
var (
	ColorClicks      = lipgloss.Color("#2563eb")
	ColorConversions = lipgloss.Color("#a855f7")
	ColorSpend       = lipgloss.Color("#f59e0b")
	ColorRate        = lipgloss.Color("#06b6d4")
)

// UI chrome colors.
var (
	ColorBorder  = lipgloss.Color("#4b5563")
	ColorDimmed  = lipgloss.Color("#6b7280")
	ColorBright  = lipgloss.Color("#f9fafb")
	ColorBg      = lipgloss.Color("#111827")
	ColorHealthy = lipgloss.Color("#22c55e")
	ColorWarning = lipgloss.Color("#d97706")
	ColorDanger  = lipgloss.Color("#dc2626")
)

// StatusColor returns the badge color for a campaign status.
func StatusColor(status string) lipgloss.Color {
	switch status {
	case "active":
		return ColorActive
	case "paused":
		return ColorPaused
	case "completed":
		return ColorCompleted
	default:
		return ColorDefault
	}
}

// StatusBadge renders a campaign status as a colored, capitalised badge.
func StatusBadge(status string) string {
	label := status
	if label == "" {
		label = "unknown"
	}
	label = strings.ToUpper(label[:1]) + label[1:]
	return lipgloss.NewStyle().
		Foreground(StatusColor(status)).
		Bold(true).
		Render("● " + label)
}

// StreamColor returns the color for a stream connection status.
func StreamColor(status string) lipgloss.Color {
	switch status {
	case "live":
		return ColorLive
	case "connecting":
		return ColorConnecting
	case "reconnecting":
		return ColorReconnecting
	case "error":
		return ColorStreamError
	default:
		return ColorStreamIdle
	}
}

// StreamGlyph returns a glyph for a stream connection status.
func StreamGlyph(status string) string {
	switch status {
	case "live":
		return "●"
	case "connecting":
		return "◎"
	case "reconnecting":
		return "◌"
	case "error":
		return "✗"
	default:
		return "○"
	}
}

// Reusable styles.
var (
	StyleBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder)

	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleDimmed = lipgloss.NewStyle().
			Foreground(ColorDimmed)

	StyleSelected = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBright)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorDanger)
)
