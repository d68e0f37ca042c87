// Package help renders the key reference overlay from Markdown.
package help

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/campaign-pulse/tui/internal/theme"
)

// Section groups bindings under a heading.
type Section struct {
	Title    string
	Bindings []key.Binding
}

// Markdown builds the overlay source. Disabled bindings are skipped.
func Markdown(sections []Section) string {
	var b strings.Builder
	b.WriteString("# Keys\n\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Title)
		b.WriteString("| Key | Action |\n|---|---|\n")
		for _, kb := range s.Bindings {
			if !kb.Enabled() {
				continue
			}
			h := kb.Help()
			fmt.Fprintf(&b, "| `%s` | %s |\n", h.Key, h.Desc)
		}
		b.WriteString("\n")
	}
	b.WriteString("Live insights pause while the terminal is in the background and resume when it regains focus.\n")
	return b.String()
}

// Render turns the Markdown into styled terminal output wrapped at width.
// If glamour fails the raw Markdown is returned.
func Render(sections []Section, width int) string {
	md := Markdown(sections)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-8, 20)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// View renders the overlay panel.
func View(sections []Section, width int) string {
	body := Render(sections, width)
	footer := theme.StyleDimmed.Render("esc: close")
	return lipgloss.NewStyle().
		Width(max(width-4, 30)).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(strings.TrimRight(body, "\n") + "\n" + footer)
}
