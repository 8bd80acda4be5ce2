package stepper

import (
	"fmt"
	"time"

	"github.com/zortness/mag-loop-controller/internal/clock"
	"github.com/zortness/mag-loop-controller/internal/debug"
	"github.com/zortness/mag-loop-controller/internal/hw/gpio"
)

// Resolution is the number of microsteps the A4988 divides a full step into.
type Resolution int

const (
	Full      Resolution = 1
	Half      Resolution = 2
	Quarter   Resolution = 4
	Eighth    Resolution = 8
	Sixteenth Resolution = 16
)

// msLevels maps a resolution to the MS1, MS2, MS3 select levels.
var msLevels = map[Resolution][3]gpio.Level{
	Full:      {gpio.Low, gpio.Low, gpio.Low},
	Half:      {gpio.High, gpio.Low, gpio.Low},
	Quarter:   {gpio.Low, gpio.High, gpio.Low},
	Eighth:    {gpio.High, gpio.High, gpio.Low},
	Sixteenth: {gpio.High, gpio.High, gpio.High},
}

// Config holds the A4988 pin assignment (BCM numbering). A pin of 0 is not wired.
type Config struct {
	StepPin   int
	DirPin    int
	EnablePin int // active LOW (LOW=enabled)
	MS1Pin    int
	MS2Pin    int
	MS3Pin    int
}

// Stepper drives an A4988 carrier: power enable, direction latch,
// microstep resolution and the step pulse train. It is the only code
// that writes to those lines.
type Stepper struct {
	gpio       gpio.Driver
	clock      clock.Clock
	cfg        Config
	resolution Resolution
	enabled    bool
}

// NewStepper configures the pins as outputs and leaves the driver
// disabled at full-step resolution.
func NewStepper(g gpio.Driver, clk clock.Clock, cfg Config) (*Stepper, error) {
	if cfg.StepPin <= 0 || cfg.DirPin <= 0 {
		return nil, fmt.Errorf("step and dir pins are required (step=%d, dir=%d)", cfg.StepPin, cfg.DirPin)
	}
	for _, pin := range []int{cfg.StepPin, cfg.DirPin, cfg.EnablePin, cfg.MS1Pin, cfg.MS2Pin, cfg.MS3Pin} {
		if pin <= 0 {
			continue
		}
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, fmt.Errorf("setup pin %d: %w", pin, err)
		}
	}
	if err := g.WritePin(cfg.StepPin, gpio.Low); err != nil {
		return nil, err
	}

	s := &Stepper{gpio: g, clock: clk, cfg: cfg}
	if err := s.SetResolution(Full); err != nil {
		return nil, err
	}
	if err := s.Disable(); err != nil {
		return nil, err
	}
	return s, nil
}

// Enable turns on the motor driver (ENABLE=LOW). Coils are energized.
func (s *Stepper) Enable() error {
	s.enabled = true
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.Low)
}

// Disable turns off the motor driver (ENABLE=HIGH). Coils are released.
func (s *Stepper) Disable() error {
	s.enabled = false
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.High)
}

// Enabled reports whether the driver was last enabled.
func (s *Stepper) Enabled() bool { return s.enabled }

// SetDirection latches the direction line: HIGH for forward, LOW otherwise.
func (s *Stepper) SetDirection(forward bool) error {
	level := gpio.Low
	if forward {
		level = gpio.High
	}
	return s.gpio.WritePin(s.cfg.DirPin, level)
}

// SetResolution selects the microstep resolution on MS1-MS3.
func (s *Stepper) SetResolution(r Resolution) error {
	levels, ok := msLevels[r]
	if !ok {
		return fmt.Errorf("unsupported resolution 1/%d", r)
	}
	for i, pin := range []int{s.cfg.MS1Pin, s.cfg.MS2Pin, s.cfg.MS3Pin} {
		if pin <= 0 {
			continue
		}
		if err := s.gpio.WritePin(pin, levels[i]); err != nil {
			return err
		}
	}
	s.resolution = r
	return nil
}

// Resolution returns the currently selected microstep resolution.
func (s *Stepper) Resolution() Resolution { return s.resolution }

// Pulse emits count HIGH/LOW pairs on the step line, holding each half
// for halfPeriod. It blocks for count*2*halfPeriod. Direction and
// resolution must already be latched.
func (s *Stepper) Pulse(count int, halfPeriod time.Duration) error {
	if count <= 0 {
		return nil
	}
	debug.Verbose("Stepper: %d pulses at 1/%d, half-period %v", count, s.resolution, halfPeriod)
	for i := 0; i < count; i++ {
		if err := s.gpio.WritePin(s.cfg.StepPin, gpio.High); err != nil {
			return err
		}
		s.clock.Sleep(halfPeriod)
		if err := s.gpio.WritePin(s.cfg.StepPin, gpio.Low); err != nil {
			return err
		}
		s.clock.Sleep(halfPeriod)
	}
	return nil
}
