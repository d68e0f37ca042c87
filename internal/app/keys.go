package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/campaign-pulse/tui/internal/views/help"
)

// KeyMap defines all keyboard bindings for the TUI.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding
	Enter      key.Binding
	Back       key.Binding
	Overview   key.Binding
	Campaigns  key.Binding
	Search     key.Binding
	Filter     key.Binding
	SortName   key.Binding
	SortBudget key.Binding
	SortDate   key.Binding
	Reload     key.Binding
	Log        key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "prev campaign"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next campaign"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("h", "left"),
			key.WithHelp("h/←", "previous page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("l", "right"),
			key.WithHelp("l/→", "next page"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open campaign"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back / close overlay"),
		),
		Overview: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "overview"),
		),
		Campaigns: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "campaigns"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search by name"),
		),
		Filter: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "cycle status filter"),
		),
		SortName: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "sort by name"),
		),
		SortBudget: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "sort by budget"),
		),
		SortDate: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "sort by start date"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload / retry"),
		),
		Log: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "event log"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// HelpSections groups the bindings for the help overlay.
func (k KeyMap) HelpSections() []help.Section {
	return []help.Section{
		{Title: "Navigation", Bindings: []key.Binding{k.Overview, k.Campaigns, k.Enter, k.Back, k.Quit}},
		{Title: "Campaigns", Bindings: []key.Binding{k.Up, k.Down, k.PrevPage, k.NextPage, k.Search, k.Filter, k.SortName, k.SortBudget, k.SortDate}},
		{Title: "Other", Bindings: []key.Binding{k.Reload, k.Log, k.Help}},
	}
}
