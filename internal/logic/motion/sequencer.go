package motion

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zortness/mag-loop-controller/internal/debug"
	"github.com/zortness/mag-loop-controller/internal/hw/stepper"
	"github.com/zortness/mag-loop-controller/internal/logic/steps"
)

// Motor is the subset of the A4988 driver the sequencer needs.
// *stepper.Stepper implements it.
type Motor interface {
	Enable() error
	Disable() error
	SetDirection(forward bool) error
	SetResolution(r stepper.Resolution) error
	Pulse(count int, halfPeriod time.Duration) error
}

// Timing selects pulse half-periods. Moves with more than FastThreshold
// full steps use NormalDelay, shorter moves and every partial step use
// LongDelay.
type Timing struct {
	FastThreshold int
	NormalDelay   time.Duration
	LongDelay     time.Duration
}

// DefaultTiming matches the magnetic-loop capacitor drive train.
var DefaultTiming = Timing{
	FastThreshold: 50,
	NormalDelay:   1000 * time.Microsecond,
	LongDelay:     5000 * time.Microsecond,
}

// FullStepDelay returns the half-period for a full-step phase of n steps.
func (t Timing) FullStepDelay(n int) time.Duration {
	if n > t.FastThreshold {
		return t.NormalDelay
	}
	return t.LongDelay
}

// Duration returns how long p occupies the motor, excluding GPIO latency.
func (t Timing) Duration(p steps.Plan) time.Duration {
	d := time.Duration(p.FullSteps) * 2 * t.FullStepDelay(p.FullSteps)
	return d + time.Duration(p.PartialSteps)*2*t.LongDelay
}

// Phase is the sequencer state.
type Phase int32

const (
	Idle Phase = iota
	FullStepPhase
	PartialStepPhase
)

func (p Phase) String() string {
	switch p {
	case FullStepPhase:
		return "full-step"
	case PartialStepPhase:
		return "partial-step"
	default:
		return "idle"
	}
}

// Sequencer executes plans on a single motor. Execute calls from
// concurrent requests are serialised; a started sequence always runs
// to completion.
type Sequencer struct {
	motor  Motor
	timing Timing
	fine   stepper.Resolution

	mu    sync.Mutex
	phase atomic.Int32
}

// NewSequencer creates a sequencer that covers partial steps at the
// fine resolution.
func NewSequencer(m Motor, timing Timing, fine stepper.Resolution) *Sequencer {
	return &Sequencer{
		motor:  m,
		timing: timing,
		fine:   fine,
	}
}

// Phase returns the phase the sequencer is currently in.
func (s *Sequencer) Phase() Phase {
	return Phase(s.phase.Load())
}

// Execute runs one plan: enable, latch direction, full-step phase,
// optional partial-step phase, disable. The motor is disabled on
// return even when a phase fails.
func (s *Sequencer) Execute(p steps.Plan) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	debug.Move(p.Direction.String(), p.FullSteps, p.PartialSteps)

	if err := s.motor.Enable(); err != nil {
		return fmt.Errorf("enable motor: %w", err)
	}
	defer func() {
		s.phase.Store(int32(Idle))
		if derr := s.motor.Disable(); derr != nil {
			err = errors.Join(err, fmt.Errorf("disable motor: %w", derr))
		}
	}()

	if err := s.motor.SetDirection(p.Direction == steps.CW); err != nil {
		return fmt.Errorf("latch direction: %w", err)
	}

	s.phase.Store(int32(FullStepPhase))
	if err := s.motor.SetResolution(stepper.Full); err != nil {
		return fmt.Errorf("select full steps: %w", err)
	}
	if err := s.motor.Pulse(p.FullSteps, s.timing.FullStepDelay(p.FullSteps)); err != nil {
		return fmt.Errorf("full-step phase: %w", err)
	}

	if p.PartialSteps > 0 {
		s.phase.Store(int32(PartialStepPhase))
		if err := s.motor.SetResolution(s.fine); err != nil {
			return fmt.Errorf("select 1/%d steps: %w", s.fine, err)
		}
		if err := s.motor.Pulse(p.PartialSteps, s.timing.LongDelay); err != nil {
			return fmt.Errorf("partial-step phase: %w", err)
		}
	}

	debug.Live("Move done")
	return nil
}
