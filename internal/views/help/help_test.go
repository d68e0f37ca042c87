package help

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
)

func sections() []Section {
	disabled := key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hidden action"))
	disabled.SetEnabled(false)
	return []Section{
		{
			Title: "Navigation",
			Bindings: []key.Binding{
				key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
				disabled,
			},
		},
	}
}

func TestMarkdownListsEnabledBindings(t *testing.T) {
	md := Markdown(sections())
	if !strings.Contains(md, "## Navigation") {
		t.Error("missing section heading")
	}
	if !strings.Contains(md, "| `q` | quit |") {
		t.Errorf("missing quit row:\n%s", md)
	}
	if strings.Contains(md, "hidden action") {
		t.Error("disabled binding rendered")
	}
}

func TestViewRendersContent(t *testing.T) {
	v := View(sections(), 80)
	if !strings.Contains(v, "quit") {
		t.Errorf("view missing binding text:\n%s", v)
	}
	if !strings.Contains(v, "esc: close") {
		t.Error("view missing footer")
	}
}
