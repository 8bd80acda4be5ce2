// Package session runs one poll of the remote: power-off first, then the
// network link, then the menu.
package session

import (
	"context"
	"time"

	"github.com/zortness/mag-loop-controller/internal/clock"
	"github.com/zortness/mag-loop-controller/internal/debug"
	"github.com/zortness/mag-loop-controller/internal/display"
	"github.com/zortness/mag-loop-controller/internal/remote/menu"
)

// DefaultRetry is how long a failed link check blocks further attempts.
const DefaultRetry = time.Second

// Status lines drawn while the link comes up.
const (
	StatusConnecting = "Connecting..."
	StatusLinkFailed = "WiFi Failed"
	StatusPowerOff   = "Powering off"
)

// Inputs is one sample of the buttons. A, B and C are the debounced
// short presses; Power is the long press on B.
type Inputs struct {
	A, B, C bool
	Power   bool
}

func (in Inputs) pressed(b menu.Button) bool {
	switch b {
	case menu.ButtonA:
		return in.A
	case menu.ButtonB:
		return in.B
	case menu.ButtonC:
		return in.C
	}
	return false
}

// Any reports whether any input is set.
func (in Inputs) Any() bool { return in.A || in.B || in.C || in.Power }

// Link is the remote's network connection.
type Link interface {
	Connected() bool
	// Connect brings the link up and returns the local address.
	Connect(ctx context.Context) (string, error)
	Disconnect() error
}

// Result tells the caller what a poll did.
type Result int

const (
	Idle     Result = iota // nothing happened
	Acted                  // a button was handled
	LinkUp                 // the link was brought up
	LinkDown               // a link attempt failed
	Waiting                // a link retry is pending
	PowerOff               // the remote should shut down
)

func (r Result) String() string {
	switch r {
	case Idle:
		return "idle"
	case Acted:
		return "acted"
	case LinkUp:
		return "link-up"
	case LinkDown:
		return "link-down"
	case Waiting:
		return "waiting"
	case PowerOff:
		return "power-off"
	}
	return "unknown"
}

// Session ties the menu to the link and the screen.
type Session struct {
	menu   *menu.Machine
	link   Link
	screen *display.Screen
	clk    clock.Clock
	retry  time.Duration

	nextAttempt time.Time
}

// New creates a session. A zero retry uses DefaultRetry.
func New(m *menu.Machine, link Link, screen *display.Screen, clk clock.Clock, retry time.Duration) *Session {
	if retry <= 0 {
		retry = DefaultRetry
	}
	return &Session{menu: m, link: link, screen: screen, clk: clk, retry: retry}
}

// Poll handles one sample of inputs.
func (s *Session) Poll(ctx context.Context, in Inputs) Result {
	if in.Power {
		debug.Info("Going to sleep")
		if s.link.Connected() {
			if err := s.link.Disconnect(); err != nil {
				debug.Error(err)
			}
		}
		s.screen.Clear()
		s.screen.SetStatus(StatusPowerOff)
		return PowerOff
	}

	if s.menu.Controlling() && !s.link.Connected() {
		return s.connect(ctx)
	}

	controlling := s.menu.Controlling()
	acted := false
	for _, b := range buttonOrder(controlling) {
		if !in.pressed(b) {
			continue
		}
		debug.Live("Button %v", b)
		s.menu.Press(ctx, b)
		acted = true
		if s.menu.Controlling() != controlling {
			// The rest of the sample belongs to the old screen; the new
			// one starts with the next poll and its link check.
			break
		}
	}
	s.menu.Render()
	if acted {
		return Acted
	}
	return Idle
}

// buttonOrder applies the selection moves before the confirm while a
// host is being picked.
func buttonOrder(controlling bool) []menu.Button {
	if controlling {
		return []menu.Button{menu.ButtonA, menu.ButtonB, menu.ButtonC}
	}
	return []menu.Button{menu.ButtonA, menu.ButtonC, menu.ButtonB}
}

func (s *Session) connect(ctx context.Context) Result {
	now := s.clk.Now()
	if now.Before(s.nextAttempt) {
		return Waiting
	}

	s.menu.Invalidate()
	s.menu.Render()
	s.screen.AddStatus(StatusConnecting)

	addr, err := s.link.Connect(ctx)
	if err != nil {
		debug.Info("WiFi Failed: %v", err)
		s.screen.AddStatus(StatusLinkFailed)
		s.nextAttempt = s.clk.Now().Add(s.retry)
		return LinkDown
	}
	debug.Info("IP Address: %s", addr)
	s.screen.AddStatus(addr)
	return LinkUp
}
