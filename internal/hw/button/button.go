// Package button reads the remote's three push buttons from GPIO and
// turns them into held-for signals.
package button

import (
	"context"
	"fmt"
	"time"

	"github.com/zortness/mag-loop-controller/internal/clock"
	"github.com/zortness/mag-loop-controller/internal/debug"
	"github.com/zortness/mag-loop-controller/internal/hw/gpio"
)

// Button tracks one input and how long it has been held.
type Button struct {
	Pin        int
	ActiveHigh bool // pressed reads High; the default is active-low
	pressed    bool
	since      time.Time
}

// Update records the pin level sampled at now.
func (b *Button) Update(level gpio.Level, now time.Time) {
	pressed := level == gpio.Level(b.ActiveHigh)
	if pressed != b.pressed {
		b.pressed = pressed
		b.since = now
	}
}

// Pressed reports whether the button is currently down.
func (b *Button) Pressed() bool { return b.pressed }

// PressedFor reports whether the button has been down for at least d.
func (b *Button) PressedFor(d time.Duration, now time.Time) bool {
	return b.pressed && now.Sub(b.since) >= d
}

// Pins maps the three buttons, left to right.
type Pins struct {
	A, B, C int
	// ActiveLow buttons short to ground and get the internal pull-up.
	ActiveLow bool
}

// Timing controls how samples turn into presses.
type Timing struct {
	Hold      time.Duration // a short press
	LongPress time.Duration // B held this long means power off
	Settle    time.Duration // quiet time after a reported press
}

// DefaultTiming is 100ms hold, 1s long press, 250ms settle.
var DefaultTiming = Timing{
	Hold:      100 * time.Millisecond,
	LongPress: time.Second,
	Settle:    250 * time.Millisecond,
}

// State is one reported sample.
type State struct {
	A, B, C bool
	Power   bool
}

func (s State) Any() bool { return s.A || s.B || s.C || s.Power }

// Panel samples the three buttons.
type Panel struct {
	g      gpio.Driver
	clk    clock.Clock
	timing Timing
	a, b, c Button

	quietUntil time.Time
}

// NewPanel configures the pins as inputs, pulled up when active-low.
func NewPanel(g gpio.Driver, clk clock.Clock, pins Pins, timing Timing) (*Panel, error) {
	if timing.Hold <= 0 {
		timing.Hold = DefaultTiming.Hold
	}
	if timing.LongPress <= 0 {
		timing.LongPress = DefaultTiming.LongPress
	}
	if timing.Settle < 0 {
		timing.Settle = 0
	}
	p := &Panel{
		g:      g,
		clk:    clk,
		timing: timing,
		a:      Button{Pin: pins.A, ActiveHigh: !pins.ActiveLow},
		b:      Button{Pin: pins.B, ActiveHigh: !pins.ActiveLow},
		c:      Button{Pin: pins.C, ActiveHigh: !pins.ActiveLow},
	}
	mode := gpio.Input
	if pins.ActiveLow {
		mode = gpio.InputPullUp
	}
	for _, btn := range []*Button{&p.a, &p.b, &p.c} {
		if err := g.SetupPin(btn.Pin, mode); err != nil {
			return nil, fmt.Errorf("setup button pin %d: %w", btn.Pin, err)
		}
	}
	return p, nil
}

// Sample reads every pin and reports presses. After a press nothing is
// reported until Settle has passed.
func (p *Panel) Sample() (State, error) {
	now := p.clk.Now()
	for _, btn := range []*Button{&p.a, &p.b, &p.c} {
		lvl, err := p.g.ReadPin(btn.Pin)
		if err != nil {
			return State{}, fmt.Errorf("read button pin %d: %w", btn.Pin, err)
		}
		btn.Update(lvl, now)
	}
	if now.Before(p.quietUntil) {
		return State{}, nil
	}

	st := State{
		A:     p.a.PressedFor(p.timing.Hold, now),
		B:     p.b.PressedFor(p.timing.Hold, now),
		C:     p.c.PressedFor(p.timing.Hold, now),
		Power: p.b.PressedFor(p.timing.LongPress, now),
	}
	if st.Any() {
		p.quietUntil = now.Add(p.timing.Settle)
		debug.Trace("Buttons %+v", st)
	}
	return st, nil
}

// Run samples every interval and hands presses to emit until ctx ends or
// a read fails.
func (p *Panel) Run(ctx context.Context, interval time.Duration, emit func(State)) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		st, err := p.Sample()
		if err != nil {
			return err
		}
		if st.Any() {
			emit(st)
		}
	}
}
