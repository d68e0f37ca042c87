// Package pulse animates the live-updates indicator with a damped spring.
package pulse

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/campaign-pulse/tui/internal/theme"
)

const fps = 20

var (
	levels = []string{"·", "•", "●"}
	colors = []lipgloss.Color{"#14532d", "#16a34a", "#4ade80"}
)

// TickMsg advances one animation frame.
type TickMsg struct{ id int }

// Model is a dot whose brightness springs between dim and bright while
// running.
type Model struct {
	spring  harmonica.Spring
	pos     float64
	vel     float64
	target  float64
	running bool
	id      int
}

// New creates a stopped indicator.
func New() Model {
	return Model{
		spring: harmonica.NewSpring(harmonica.FPS(fps), 5.0, 0.35),
		target: 1,
	}
}

// Running reports whether frames are being scheduled.
func (m Model) Running() bool { return m.running }

// Start begins animating. It returns nil when already running.
func (m *Model) Start() tea.Cmd {
	if m.running {
		return nil
	}
	m.running = true
	m.id++
	return m.tick()
}

// Stop halts the animation. Frames already scheduled are discarded.
func (m *Model) Stop() {
	m.running = false
	m.id++
	m.pos, m.vel, m.target = 0, 0, 1
}

// Update steps the spring on its own ticks and ignores everything else.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	t, ok := msg.(TickMsg)
	if !ok || !m.running || t.id != m.id {
		return m, nil
	}
	m.pos, m.vel = m.spring.Update(m.pos, m.vel, m.target)
	if math.Abs(m.pos-m.target) < 0.05 && math.Abs(m.vel) < 0.5 {
		m.target = 1 - m.target
	}
	return m, m.tick()
}

// Level maps the spring position to a brightness step.
func (m Model) Level() int {
	p := math.Max(0, math.Min(1, m.pos))
	return min(int(p*float64(len(levels))), len(levels)-1)
}

// View renders the dot. A stopped indicator renders in the idle color.
func (m Model) View() string {
	if !m.running {
		return lipgloss.NewStyle().Foreground(theme.ColorStreamIdle).Render(levels[len(levels)-1])
	}
	l := m.Level()
	return lipgloss.NewStyle().Foreground(colors[l]).Render(levels[l])
}

func (m Model) tick() tea.Cmd {
	id := m.id
	return tea.Tick(time.Second/fps, func(time.Time) tea.Msg {
		return TickMsg{id: id}
	})
}
