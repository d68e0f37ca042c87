// Package campaigns renders the searchable, sortable and paginated campaign
// table with its budget stats row.
package campaigns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/campaign-pulse/tui/internal/client"
	"github.com/campaign-pulse/tui/internal/format"
	"github.com/campaign-pulse/tui/internal/theme"
)

const DefaultPageSize = 5

// SortKey names a sortable column.
type SortKey string

const (
	SortName    SortKey = "name"
	SortBudget  SortKey = "budget"
	SortCreated SortKey = "created_at"
)

// filterCycle is the order the status filter steps through. "" means all.
var filterCycle = []client.CampaignStatus{"", client.StatusActive, client.StatusPaused, client.StatusCompleted}

// Model holds the table state. Page is 1-based.
type Model struct {
	Width    int
	PageSize int

	all      []client.Campaign
	search   textinput.Model
	status   client.CampaignStatus
	sortKey  SortKey
	desc     bool
	page     int
	selected int
}

// New creates an empty table sorted by creation date, newest first.
func New(pageSize int) Model {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	ti := textinput.New()
	ti.Placeholder = "Search campaign..."
	ti.Prompt = "/ "
	ti.CharLimit = 64
	ti.Width = 30

	return Model{
		PageSize: pageSize,
		search:   ti,
		sortKey:  SortCreated,
		desc:     true,
		page:     1,
	}
}

// SetCampaigns replaces the data set. Filters and sort are kept; the page
// is clamped on the next read.
func (m *Model) SetCampaigns(cs []client.Campaign) {
	m.all = cs
	m.clampSelection()
}

// Campaigns returns the unfiltered data set.
func (m Model) Campaigns() []client.Campaign { return m.all }

// Searching reports whether the search box has focus.
func (m Model) Searching() bool { return m.search.Focused() }

// FocusSearch gives the search box focus.
func (m *Model) FocusSearch() tea.Cmd { return m.search.Focus() }

// BlurSearch returns focus to the table.
func (m *Model) BlurSearch() { m.search.Blur() }

// Query returns the current search text.
func (m Model) Query() string { return m.search.Value() }

// SetQuery sets the search text and goes back to page 1.
func (m *Model) SetQuery(q string) {
	m.search.SetValue(q)
	m.resetPage()
}

// UpdateSearch feeds a message to the focused search box. Any edit resets
// the page.
func (m Model) UpdateSearch(msg tea.Msg) (Model, tea.Cmd) {
	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.resetPage()
	}
	return m, cmd
}

// StatusFilter returns the active status filter; "" means all.
func (m Model) StatusFilter() client.CampaignStatus { return m.status }

// SetStatusFilter filters by status and goes back to page 1.
func (m *Model) SetStatusFilter(s client.CampaignStatus) {
	m.status = s
	m.resetPage()
}

// CycleStatusFilter steps all → active → paused → completed → all.
func (m *Model) CycleStatusFilter() {
	next := 0
	for i, s := range filterCycle {
		if s == m.status {
			next = (i + 1) % len(filterCycle)
			break
		}
	}
	m.SetStatusFilter(filterCycle[next])
}

// Sort returns the active key and direction.
func (m Model) Sort() (SortKey, bool) { return m.sortKey, m.desc }

// SortBy toggles direction when key is already active; a new key starts
// descending. Either way the table goes back to page 1.
func (m *Model) SortBy(key SortKey) {
	if m.sortKey == key {
		m.desc = !m.desc
	} else {
		m.sortKey = key
		m.desc = true
	}
	m.resetPage()
}

// NextPage and PrevPage move within [1, TotalPages].
func (m *Model) NextPage() {
	_, total, _, _ := m.window()
	m.page = min(m.currentPage()+1, total)
	m.selected = 0
}

func (m *Model) PrevPage() {
	m.page = max(m.currentPage()-1, 1)
	m.selected = 0
}

// Page returns the clamped current page.
func (m Model) Page() int { return m.currentPage() }

// TotalPages is at least 1.
func (m Model) TotalPages() int {
	_, total, _, _ := m.window()
	return total
}

// MoveDown and MoveUp move the cursor within the visible page, wrapping.
func (m *Model) MoveDown() {
	if n := len(m.Visible()); n > 0 {
		m.selected = (m.selected + 1) % n
	}
}

func (m *Model) MoveUp() {
	if n := len(m.Visible()); n > 0 {
		m.selected = (m.selected - 1 + n) % n
	}
}

// Selected returns the campaign under the cursor.
func (m Model) Selected() (client.Campaign, bool) {
	rows := m.Visible()
	if len(rows) == 0 {
		return client.Campaign{}, false
	}
	return rows[min(m.selected, len(rows)-1)], true
}

// Matching returns the filtered and sorted campaigns across all pages.
func (m Model) Matching() []client.Campaign {
	out := Filter(m.all, m.search.Value(), m.status)
	SortCampaigns(out, m.sortKey, m.desc)
	return out
}

// Visible returns the rows on the current page.
func (m Model) Visible() []client.Campaign {
	rows := m.Matching()
	_, _, start, end := paginate(len(rows), m.page, m.PageSize)
	return rows[start:end]
}

// Summary returns "Showing a to b of n campaigns", or "" when nothing
// matches.
func (m Model) Summary() string {
	n := len(m.Matching())
	if n == 0 {
		return ""
	}
	_, _, start, end := paginate(n, m.page, m.PageSize)
	return fmt.Sprintf("Showing %d to %d of %d campaigns", start+1, end, n)
}

// PageLabel returns "Page x of y".
func (m Model) PageLabel() string {
	page, total, _, _ := m.window()
	return fmt.Sprintf("Page %d of %d", page, total)
}

// EmptyMessage distinguishes "nothing matches" from "nothing exists".
func (m Model) EmptyMessage() string {
	if strings.TrimSpace(m.search.Value()) != "" || m.status != "" {
		return "No campaigns match your filters"
	}
	return "No campaigns found"
}

// Stats are the figures shown above the table, over every campaign.
type Stats struct {
	TotalBudget      float64
	TotalDailyBudget float64
	Active           int
	Total            int
}

// Stats sums budgets and counts active campaigns.
func (m Model) Stats() Stats {
	var s Stats
	for _, c := range m.all {
		s.TotalBudget += c.Budget
		s.TotalDailyBudget += c.DailyBudget
		if c.Status == client.StatusActive {
			s.Active++
		}
	}
	s.Total = len(m.all)
	return s
}

func (m *Model) resetPage() {
	m.page = 1
	m.selected = 0
}

func (m *Model) clampSelection() {
	m.page = m.currentPage()
	if n := len(m.Visible()); m.selected >= n {
		m.selected = max(n-1, 0)
	}
}

func (m Model) currentPage() int {
	page, _, _, _ := m.window()
	return page
}

func (m Model) window() (page, totalPages, start, end int) {
	return paginate(len(m.Matching()), m.page, m.PageSize)
}

// Filter keeps campaigns whose name contains search (case-insensitive) and
// whose status equals status, unless status is empty.
func Filter(cs []client.Campaign, search string, status client.CampaignStatus) []client.Campaign {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]client.Campaign, 0, len(cs))
	for _, c := range cs {
		if needle != "" && !strings.Contains(strings.ToLower(c.Name), needle) {
			continue
		}
		if status != "" && c.Status != status {
			continue
		}
		out = append(out, c)
	}
	return out
}

// SortCampaigns sorts cs in place. Names compare with English collation.
func SortCampaigns(cs []client.Campaign, key SortKey, desc bool) {
	col := collate.New(language.English, collate.IgnoreCase)
	less := func(a, b client.Campaign) bool {
		switch key {
		case SortName:
			return col.CompareString(a.Name, b.Name) < 0
		case SortBudget:
			return a.Budget < b.Budget
		default:
			return format.ParseDate(a.CreatedAt).Before(format.ParseDate(b.CreatedAt))
		}
	}
	sort.SliceStable(cs, func(i, j int) bool {
		if desc {
			return less(cs[j], cs[i])
		}
		return less(cs[i], cs[j])
	})
}

// paginate clamps page into [1, totalPages] and returns the slice bounds
// for n rows.
func paginate(n, page, size int) (int, int, int, int) {
	if size <= 0 {
		size = DefaultPageSize
	}
	totalPages := max(1, (n+size-1)/size)
	page = min(max(1, page), totalPages)
	start := (page - 1) * size
	end := min(start+size, n)
	return page, totalPages, start, end
}

var (
	dimStyle    = lipgloss.NewStyle().Foreground(theme.ColorDimmed)
	brightStyle = lipgloss.NewStyle().Foreground(theme.ColorBright)
	statStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// View renders the filters, stats, table and pager.
func (m Model) View() string {
	width := max(m.Width, 60)

	sections := []string{
		m.renderStats(width),
		m.renderFilters(),
		m.renderTable(width),
	}
	if s := m.Summary(); s != "" {
		sections = append(sections, dimStyle.Render("  "+s+"    "+m.PageLabel()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStats(width int) string {
	s := m.Stats()
	stats := []string{
		statStyle.Foreground(theme.ColorBright).Render(fmt.Sprintf("Campaigns: %d", s.Total)),
		statStyle.Foreground(theme.ColorActive).Render(fmt.Sprintf("Active: %d", s.Active)),
		statStyle.Foreground(theme.ColorSpend).Render("Total budget: " + format.Currency(s.TotalBudget)),
		statStyle.Foreground(theme.ColorRate).Render("Daily budget: " + format.Currency(s.TotalDailyBudget)),
	}
	content := strings.Join(stats, lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | "))

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}

func (m Model) renderFilters() string {
	status := "All Status"
	if m.status != "" {
		status = theme.StatusBadge(string(m.status))
	}
	parts := []string{
		"  " + m.search.View(),
		dimStyle.Render("status:") + " " + status,
		dimStyle.Render("sort:") + " " + m.sortLabel(),
	}
	return strings.Join(parts, "   ")
}

func (m Model) sortLabel() string {
	names := map[SortKey]string{SortName: "Name", SortBudget: "Budget", SortCreated: "Date"}
	arrow := "↑"
	if m.desc {
		arrow = "↓"
	}
	return brightStyle.Render(names[m.sortKey] + " " + arrow)
}

const (
	colName     = 26
	colStatus   = 13
	colBudget   = 14
	colDaily    = 12
	colPlatform = 18
	colDate     = 12
)

func (m Model) renderTable(width int) string {
	header := fmt.Sprintf("  %-*s %-*s %*s %*s  %-*s %-*s",
		colName, "Campaign Name",
		colStatus, "Status",
		colBudget, "Budget",
		colDaily, "Daily Budget",
		colPlatform, "Platform",
		colDate, "Start Date",
	)
	lines := []string{
		dimStyle.Render(header),
		dimStyle.Render("  " + strings.Repeat("─", min(width-4, colName+colStatus+colBudget+colDaily+colPlatform+colDate+7))),
	}

	rows := m.Visible()
	if len(rows) == 0 {
		lines = append(lines, "", dimStyle.Render("  "+m.EmptyMessage()), "")
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	sel := min(m.selected, len(rows)-1)
	for i, c := range rows {
		prefix := "  "
		nameStyle := brightStyle
		if i == sel && !m.Searching() {
			prefix = "> "
			nameStyle = theme.StyleSelected
		}
		line := prefix +
			nameStyle.Width(colName).Render(format.Truncate(c.Name, colName-1)) + " " +
			lipgloss.NewStyle().Width(colStatus).Render(theme.StatusBadge(string(c.Status))) + " " +
			brightStyle.Width(colBudget).Align(lipgloss.Right).Render(format.Currency(c.Budget)) + " " +
			brightStyle.Width(colDaily).Align(lipgloss.Right).Render(format.Currency(c.DailyBudget)) + "  " +
			dimStyle.Width(colPlatform).Render(format.Truncate(strings.Join(c.Platforms, ", "), colPlatform-1)) + " " +
			dimStyle.Width(colDate).Render(format.Date(c.CreatedAt))
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
