package app

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/campaign-pulse/tui/internal/client"
	"github.com/campaign-pulse/tui/internal/logging"
	"github.com/campaign-pulse/tui/internal/theme"
	"github.com/campaign-pulse/tui/internal/views/campaigns"
	"github.com/campaign-pulse/tui/internal/views/dashboard"
	"github.com/campaign-pulse/tui/internal/views/debug"
	"github.com/campaign-pulse/tui/internal/views/detail"
	"github.com/campaign-pulse/tui/internal/views/help"
	"github.com/campaign-pulse/tui/internal/views/status"
)

// Page identifies the main view.
type Page int

const (
	PageOverview Page = iota
	PageCampaigns
	PageDetail
)

func (p Page) String() string {
	switch p {
	case PageCampaigns:
		return "Campaigns"
	case PageDetail:
		return "Campaign"
	default:
		return "Overview"
	}
}

// Overlay identifies which modal is active.
type Overlay int

const (
	OverlayNone Overlay = iota
	OverlayHelp
	OverlayLog
)

// API is the subset of *client.APIClient the UI calls.
type API interface {
	FetchCampaigns(ctx context.Context) (*client.CampaignList, error)
	FetchInsights(ctx context.Context) (*client.InsightsAggregate, error)
	FetchCampaign(ctx context.Context, id string) (*client.Campaign, error)
	FetchCampaignInsights(ctx context.Context, id string) (*client.Insights, error)
}

// Options configures the root model.
type Options struct {
	API     API
	Streams *client.StreamClient
	APIHost string
	// PageSize is the campaigns table page size.
	PageSize int
	// PauseOnBlur closes the live stream while the terminal is unfocused.
	PauseOnBlur bool
	// InitialCampaign opens a campaign's detail page on start.
	InitialCampaign string
}

// Model is the root Bubble Tea model.
type Model struct {
	api     API
	streams *client.StreamClient
	opts    Options
	ctx     context.Context
	cancel  context.CancelFunc
	log     zerolog.Logger

	keys   KeyMap
	width  int
	height int

	page    Page
	overlay Overlay
	focused bool

	// Per-page fetch errors, shown with a retry hint.
	errs map[Page]error

	// Live stream for the detail page.
	sub       *client.Subscription
	subCtx    context.Context
	subCancel context.CancelFunc
	detailID  string

	loading int

	// Sub-views.
	statusBar status.Model
	overview  dashboard.Model
	table     campaigns.Model
	detail    detail.Model
	events    debug.Model
	spinner   spinner.Model
}

// New creates the root model.
func New(opts Options) Model {
	ctx, cancel := context.WithCancel(context.Background())
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorConnecting)

	m := Model{
		api:       opts.API,
		streams:   opts.Streams,
		opts:      opts,
		ctx:       ctx,
		cancel:    cancel,
		log:       logging.With("app"),
		keys:      DefaultKeyMap(),
		focused:   true,
		errs:      make(map[Page]error),
		loading:   2,
		statusBar: status.New(opts.APIHost),
		overview:  dashboard.New(),
		table:     campaigns.New(opts.PageSize),
		events:    debug.New(),
		spinner:   sp,
	}
	m.statusBar.Page = m.page.String()
	if opts.InitialCampaign != "" {
		m.detailID = opts.InitialCampaign
		m.page = PageDetail
		m.statusBar.Page = m.page.String()
		m.loading++
	}
	return m
}

// --- Bubble Tea messages ---

type overviewLoadedMsg struct {
	insights *client.InsightsAggregate
	err      error
}

type campaignsLoadedMsg struct {
	list *client.CampaignList
	err  error
}

type detailLoadedMsg struct {
	id       string
	campaign *client.Campaign
	insights *client.Insights
	err      error
}

type streamChangedMsg struct {
	sub   *client.Subscription
	state client.State
}

// Init loads the overview and campaign list, and the initial campaign when
// one was requested.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.fetchOverview(), m.fetchCampaigns()}
	if m.detailID != "" {
		cmds = append(cmds, m.fetchDetail(m.detailID))
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		m.overview.Width = msg.Width
		m.table.Width = msg.Width
		m.detail.Width = msg.Width
		return m, nil

	case tea.FocusMsg:
		return m.setFocus(true), nil

	case tea.BlurMsg:
		return m.setFocus(false), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case overviewLoadedMsg:
		m.loading = max(m.loading-1, 0)
		if msg.err != nil {
			return m.fail(PageOverview, msg.err), nil
		}
		delete(m.errs, PageOverview)
		m.overview.SetInsights(msg.insights)
		m.events.Add(debug.KindAPI, "loaded aggregate insights")
		return m, nil

	case campaignsLoadedMsg:
		m.loading = max(m.loading-1, 0)
		if msg.err != nil {
			return m.fail(PageCampaigns, msg.err), nil
		}
		delete(m.errs, PageCampaigns)
		m.table.SetCampaigns(msg.list.Campaigns)
		m.events.Addf(debug.KindAPI, "loaded %d campaigns", len(msg.list.Campaigns))
		return m, nil

	case detailLoadedMsg:
		m.loading = max(m.loading-1, 0)
		if msg.id != m.detailID {
			return m, nil
		}
		if msg.err != nil {
			return m.fail(PageDetail, msg.err), nil
		}
		delete(m.errs, PageDetail)
		m.events.Addf(debug.KindAPI, "loaded campaign %s", msg.id)
		return m.startStream(msg.campaign, *msg.insights)

	case streamChangedMsg:
		if msg.sub != m.sub {
			return m, nil
		}
		prev := m.detail.Live.Status
		cmd := m.detail.SetLive(msg.state)
		m.statusBar.SetStream(msg.state)
		if msg.state.Status != prev {
			m.events.Addf(debug.KindStream, "%s → %s (attempts %d)", prev, msg.state.Status, msg.state.Attempts)
		}
		return m, tea.Batch(cmd, m.waitForStream())
	}

	// Animation frames for the live indicator.
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.page == PageCampaigns && m.table.Searching() {
		switch msg.Type {
		case tea.KeyEsc, tea.KeyEnter:
			m.table.BlurSearch()
			return m, nil
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.UpdateSearch(msg)
		return m, cmd
	}

	if m.overlay != OverlayNone {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.overlay = OverlayNone
		case m.overlay == OverlayLog && key.Matches(msg, m.keys.Up):
			m.events.ScrollUp(1)
		case m.overlay == OverlayLog && key.Matches(msg, m.keys.Down):
			m.events.ScrollDown(1)
		case key.Matches(msg, m.keys.Quit):
			return m.quit()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Help):
		m.overlay = OverlayHelp
		return m, nil

	case key.Matches(msg, m.keys.Log):
		m.overlay = OverlayLog
		return m, nil

	case key.Matches(msg, m.keys.Overview):
		return m.navigate(PageOverview), nil

	case key.Matches(msg, m.keys.Campaigns):
		return m.navigate(PageCampaigns), nil

	case key.Matches(msg, m.keys.Reload):
		return m.reload()

	case key.Matches(msg, m.keys.Back):
		if m.page == PageDetail {
			return m.navigate(PageCampaigns), nil
		}
		return m, nil
	}

	if m.page == PageCampaigns {
		return m.handleTableKey(msg)
	}
	return m, nil
}

func (m Model) handleTableKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		m.table.MoveDown()
	case key.Matches(msg, m.keys.Up):
		m.table.MoveUp()
	case key.Matches(msg, m.keys.NextPage):
		m.table.NextPage()
	case key.Matches(msg, m.keys.PrevPage):
		m.table.PrevPage()
	case key.Matches(msg, m.keys.Search):
		cmd := m.table.FocusSearch()
		return m, cmd
	case key.Matches(msg, m.keys.Filter):
		m.table.CycleStatusFilter()
	case key.Matches(msg, m.keys.SortName):
		m.table.SortBy(campaigns.SortName)
	case key.Matches(msg, m.keys.SortBudget):
		m.table.SortBy(campaigns.SortBudget)
	case key.Matches(msg, m.keys.SortDate):
		m.table.SortBy(campaigns.SortCreated)
	case key.Matches(msg, m.keys.Enter):
		c, ok := m.table.Selected()
		if !ok {
			return m, nil
		}
		return m.openDetail(c.ID)
	}
	return m, nil
}

// navigate switches page. Leaving the detail page tears its stream down.
func (m Model) navigate(p Page) Model {
	if m.page == PageDetail && p != PageDetail {
		m = m.closeStream()
		m.detailID = ""
	}
	if m.page != p {
		m.events.Add(debug.KindNav, p.String())
	}
	m.page = p
	m.statusBar.Page = p.String()
	return m
}

func (m Model) openDetail(id string) (tea.Model, tea.Cmd) {
	m = m.closeStream()
	m.detailID = id
	m.detail = detail.Model{Width: m.width}
	m = m.navigate(PageDetail)
	cmd := m.startFetch(m.fetchDetail(id))
	return m, cmd
}

func (m Model) reload() (tea.Model, tea.Cmd) {
	delete(m.errs, m.page)
	var cmd tea.Cmd
	switch m.page {
	case PageOverview:
		cmd = m.startFetch(m.fetchOverview())
		return m, cmd
	case PageCampaigns:
		cmd = m.startFetch(m.fetchCampaigns())
		return m, cmd
	default:
		if m.detailID == "" {
			return m, nil
		}
		return m.openDetail(m.detailID)
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m = m.closeStream()
	m.cancel()
	return m, tea.Quit
}

func (m Model) fail(p Page, err error) Model {
	m.errs[p] = err
	m.events.Addf(debug.KindError, "%s: %v", p, err)
	m.log.Error().Err(err).Str("page", p.String()).Msg("fetch failed")
	return m
}

func (m Model) setFocus(focused bool) Model {
	if m.focused == focused {
		return m
	}
	m.focused = focused
	m.statusBar.Focused = focused
	if focused {
		m.events.Add(debug.KindFocus, "terminal focused")
	} else {
		m.events.Add(debug.KindFocus, "terminal in background")
	}
	if m.opts.PauseOnBlur && m.sub != nil {
		m.sub.SetVisible(focused)
	}
	return m
}

// startStream subscribes to live insights for c.
func (m Model) startStream(c *client.Campaign, initial client.Insights) (tea.Model, tea.Cmd) {
	m = m.closeStream()
	m.detail = detail.New(c, initial)
	m.detail.Width = m.width
	if m.streams == nil {
		return m, nil
	}

	m.sub = m.streams.Start(c.ID, initial)
	if m.opts.PauseOnBlur && !m.focused {
		m.sub.SetVisible(false)
	}
	m.subCtx, m.subCancel = context.WithCancel(m.ctx)
	m.statusBar.SetStream(m.sub.State())
	return m, m.waitForStream()
}

func (m Model) closeStream() Model {
	if m.sub != nil {
		m.sub.Close()
		m.sub = nil
	}
	if m.subCancel != nil {
		m.subCancel()
		m.subCtx, m.subCancel = nil, nil
	}
	m.statusBar.ClearStream()
	return m
}

// --- Commands ---

// startFetch counts cmd as in flight; the loaded message handlers count it
// back down.
func (m *Model) startFetch(cmd tea.Cmd) tea.Cmd {
	m.loading++
	return cmd
}

func (m Model) fetchOverview() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		agg, err := api.FetchInsights(ctx)
		return overviewLoadedMsg{insights: agg, err: err}
	}
}

func (m Model) fetchCampaigns() tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		list, err := api.FetchCampaigns(ctx)
		return campaignsLoadedMsg{list: list, err: err}
	}
}

func (m Model) fetchDetail(id string) tea.Cmd {
	api, ctx := m.api, m.ctx
	return func() tea.Msg {
		c, err := api.FetchCampaign(ctx, id)
		if err != nil {
			return detailLoadedMsg{id: id, err: err}
		}
		in, err := api.FetchCampaignInsights(ctx, id)
		if err != nil {
			return detailLoadedMsg{id: id, err: err}
		}
		return detailLoadedMsg{id: id, campaign: c, insights: in}
	}
}

// waitForStream blocks until the current subscription changes or is torn
// down. A torn-down subscription yields no message.
func (m Model) waitForStream() tea.Cmd {
	sub, ctx := m.sub, m.subCtx
	if sub == nil || ctx == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-sub.Changed():
			return streamChangedMsg{sub: sub, state: sub.State()}
		case <-ctx.Done():
			return nil
		}
	}
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	bar := m.statusBar
	if m.loading > 0 {
		bar.Loading = m.spinner.View()
	}

	var body string
	switch m.overlay {
	case OverlayHelp:
		body = help.View(m.keys.HelpSections(), m.width)
	case OverlayLog:
		body = m.events.View(m.width, m.height-4)
	default:
		body = m.pageView()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		bar.View(),
		body,
		theme.StyleDimmed.Render("  "+m.hints()),
	)
}

func (m Model) pageView() string {
	if err := m.errs[m.page]; err != nil {
		return renderError(err)
	}
	switch m.page {
	case PageCampaigns:
		return m.table.View()
	case PageDetail:
		if m.detail.Campaign == nil {
			return theme.StyleDimmed.Render("  Loading campaign…")
		}
		return m.detail.View()
	default:
		return m.overview.View()
	}
}

func (m Model) hints() string {
	switch {
	case m.overlay != OverlayNone:
		return "esc:close"
	case m.page == PageCampaigns && m.table.Searching():
		return "type to search  enter/esc:done"
	case m.page == PageCampaigns:
		return "j/k:select  h/l:page  enter:open  /:search  s:status  n/b/c:sort  r:reload  ?:help  q:quit"
	case m.page == PageDetail:
		return "esc:back  r:reload  d:events  ?:help  q:quit"
	default:
		return "1:overview  2:campaigns  r:reload  d:events  ?:help  q:quit"
	}
}

var errorPanel = lipgloss.NewStyle().
	Padding(0, 1).
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(theme.ColorDanger)

// renderError draws the page-level error panel with its retry hint.
func renderError(err error) string {
	return errorPanel.Render(
		theme.StyleError.Render("Something went wrong") + "\n" +
			client.Message(err) + "\n\n" +
			theme.StyleDimmed.Render("[r] retry"),
	)
}
