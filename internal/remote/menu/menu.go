// Package menu is the remote's two-screen state machine: pick a
// controller, then step it.
package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/zortness/mag-loop-controller/internal/debug"
	"github.com/zortness/mag-loop-controller/internal/display"
	"github.com/zortness/mag-loop-controller/internal/remote/dispatch"
	"github.com/zortness/mag-loop-controller/internal/remote/history"
)

// Button is one of the three soft keys under the screen.
type Button int

const (
	ButtonA Button = iota // left
	ButtonB               // middle
	ButtonC               // right
)

func (b Button) String() string {
	switch b {
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	case ButtonC:
		return "C"
	}
	return fmt.Sprintf("Button(%d)", int(b))
}

// State is the active screen. Exactly one variant is live at a time.
type State interface {
	isState()
}

// SelectingHost lists the controllers with Selected highlighted.
type SelectingHost struct {
	Selected int
}

// Controlling steps Host by the preset at AngleIndex. There is no way
// back to SelectingHost.
type Controlling struct {
	Host       string
	AngleIndex int
}

func (SelectingHost) isState() {}
func (Controlling) isState()   {}

// Mover sends one rotate request and blocks until it completes.
type Mover interface {
	Dispatch(ctx context.Context, hostname string, degrees float64) dispatch.Outcome
}

// HistoryView exposes the recorded outcomes for drawing.
type HistoryView interface {
	Entries() []history.Entry
}

// Machine owns the menu state and draws it onto a screen.
type Machine struct {
	hosts  []string
	angles []float64
	start  int

	state State
	dirty bool

	screen  *display.Screen
	mover   Mover
	history HistoryView
}

// New creates a machine in SelectingHost with the first host selected.
// angleIndex is the preset used once a host is confirmed.
func New(hosts []string, angles []float64, angleIndex int, screen *display.Screen, mover Mover, hist HistoryView) (*Machine, error) {
	if len(hosts) == 0 {
		return nil, errors.New("menu: no host options")
	}
	if len(angles) == 0 {
		return nil, errors.New("menu: no angle options")
	}
	if angleIndex < 0 || angleIndex >= len(angles) {
		return nil, fmt.Errorf("menu: angle index %d out of range [0,%d)", angleIndex, len(angles))
	}
	if screen == nil || mover == nil || hist == nil {
		return nil, errors.New("menu: screen, mover and history are required")
	}
	return &Machine{
		hosts:   append([]string(nil), hosts...),
		angles:  append([]float64(nil), angles...),
		start:   angleIndex,
		state:   SelectingHost{},
		dirty:   true,
		screen:  screen,
		mover:   mover,
		history: hist,
	}, nil
}

// State returns the active state.
func (m *Machine) State() State { return m.state }

// Controlling reports whether a host has been confirmed.
func (m *Machine) Controlling() bool {
	_, ok := m.state.(Controlling)
	return ok
}

// Angle returns the selected preset, or 0 before a host is confirmed.
func (m *Machine) Angle() float64 {
	if s, ok := m.state.(Controlling); ok {
		return m.angles[s.AngleIndex]
	}
	return 0
}

// Dirty reports whether the next Render will redraw.
func (m *Machine) Dirty() bool { return m.dirty }

// Invalidate forces the next Render to redraw.
func (m *Machine) Invalidate() { m.dirty = true }

// Press applies one button to the active state.
func (m *Machine) Press(ctx context.Context, b Button) {
	switch s := m.state.(type) {
	case SelectingHost:
		m.state = m.selectHost(s, b)
	case Controlling:
		m.state = m.control(ctx, s, b)
	}
}

func (m *Machine) selectHost(s SelectingHost, b Button) State {
	switch b {
	case ButtonA:
		if s.Selected > 0 {
			s.Selected--
			m.dirty = true
		}
	case ButtonC:
		if s.Selected < len(m.hosts)-1 {
			s.Selected++
			m.dirty = true
		}
	case ButtonB:
		m.dirty = true
		host := m.hosts[s.Selected]
		debug.Live("Host selected: %s", host)
		return Controlling{Host: host, AngleIndex: m.start}
	}
	return s
}

func (m *Machine) control(ctx context.Context, s Controlling, b Button) State {
	switch b {
	case ButtonA:
		m.mover.Dispatch(ctx, s.Host, -m.angles[s.AngleIndex])
	case ButtonB:
		s.AngleIndex = (s.AngleIndex + 1) % len(m.angles)
		debug.Live("Step size: %.2f", m.angles[s.AngleIndex])
	case ButtonC:
		m.mover.Dispatch(ctx, s.Host, m.angles[s.AngleIndex])
	}
	m.dirty = true
	return s
}

// Render redraws the active screen if anything changed since the last
// redraw, and reports whether it did.
func (m *Machine) Render() bool {
	if !m.dirty {
		return false
	}
	m.screen.Clear()
	switch s := m.state.(type) {
	case SelectingHost:
		m.screen.SetTitle("Select Host")
		for i, h := range m.hosts {
			m.screen.AddLine(h, i == s.Selected)
		}
		m.screen.SetKeys("<", "SELECT", ">")
	case Controlling:
		m.screen.SetTitle(fmt.Sprintf("MagLoop Step %.2f", m.angles[s.AngleIndex]))
		for _, e := range m.history.Entries() {
			m.screen.AddLine(e.Text, false)
		}
		m.screen.SetKeys("<", "Step", ">")
	}
	m.dirty = false
	debug.Verbose("Redraw: %q", m.screen.Title())
	return true
}
