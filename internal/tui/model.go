// Package tui renders the remote's screen in a terminal and maps keys
// and GPIO samples onto its buttons.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zortness/mag-loop-controller/internal/display"
	"github.com/zortness/mag-loop-controller/internal/remote/session"
)

// Poller handles one sample of inputs. *session.Session implements it.
type Poller interface {
	Poll(ctx context.Context, in session.Inputs) session.Result
}

// InputMsg carries a sample from the hardware buttons.
type InputMsg struct {
	Inputs session.Inputs
}

type tickMsg time.Time

// Model is the Bubble Tea model for the remote.
type Model struct {
	ctx      context.Context
	poller   Poller
	screen   *display.Screen
	keys     KeyMap
	interval time.Duration
	width    int

	poweredOff bool

	rendered string
	version  uint64
	drawn    bool
}

// NewModel creates the model. interval is how often an idle poll runs so
// the link check keeps going without input.
func NewModel(ctx context.Context, poller Poller, screen *display.Screen, interval time.Duration) *Model {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Model{
		ctx:      ctx,
		poller:   poller,
		screen:   screen,
		keys:     DefaultKeyMap(),
		interval: interval,
		width:    DefaultWidth,
	}
}

// PoweredOff reports whether the session asked to power off.
func (m *Model) PoweredOff() bool { return m.poweredOff }

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.poll(session.Inputs{}), m.tick())
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = min(msg.Width, 2*DefaultWidth)
			m.drawn = false
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Power):
			return m, m.poll(session.Inputs{B: true, Power: true})
		case key.Matches(msg, m.keys.A):
			return m, m.poll(session.Inputs{A: true})
		case key.Matches(msg, m.keys.B):
			return m, m.poll(session.Inputs{B: true})
		case key.Matches(msg, m.keys.C):
			return m, m.poll(session.Inputs{C: true})
		}
		return m, nil

	case InputMsg:
		return m, m.poll(msg.Inputs)

	case tickMsg:
		if m.poweredOff {
			return m, nil
		}
		return m, tea.Batch(m.poll(session.Inputs{}), m.tick())
	}
	return m, nil
}

// poll runs the session synchronously; a move blocks the UI until the
// controller answers.
func (m *Model) poll(in session.Inputs) tea.Cmd {
	if m.poweredOff {
		return nil
	}
	if m.poller.Poll(m.ctx, in) == session.PowerOff {
		m.poweredOff = true
		return tea.Quit
	}
	return nil
}

func (m *Model) View() string {
	if m.drawn && m.version == m.screen.Version() {
		return m.rendered
	}
	m.rendered = Render(m.screen, m.width) + "\n" +
		helpStyle.Render(helpLine(m.keys))
	m.version = m.screen.Version()
	m.drawn = true
	return m.rendered
}

// Render draws a screen width cells wide.
func Render(s *display.Screen, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	rows := []string{barStyle.Width(width).Render(s.Title())}

	body := make([]string, 0, bodyRows)
	for _, l := range s.Lines() {
		if l.Highlight {
			body = append(body, highlightStyle.Render(l.Text))
		} else {
			body = append(body, lineStyle.Render(l.Text))
		}
	}
	for _, st := range s.Status() {
		body = append(body, statusStyle.Width(width).Render(st))
	}
	for len(body) < bodyRows {
		body = append(body, "")
	}
	rows = append(rows, body...)

	keys := s.Keys()
	third := width / 3
	cells := make([]string, 0, len(keys))
	for _, k := range keys {
		cell := lipgloss.NewStyle().Width(third).Align(lipgloss.Center)
		if k != "" {
			cell = cell.Inherit(barStyle).Width(third - 2).Margin(0, 1)
		}
		cells = append(cells, cell.Render(k))
	}
	rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func helpLine(k KeyMap) string {
	var parts []string
	for _, b := range []key.Binding{k.A, k.B, k.C, k.Power, k.Quit} {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}
