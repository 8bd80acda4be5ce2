package steps

import "math"

const (
	// DegreesPerStep is the rotation of one full step of a 200 step/rev motor.
	DegreesPerStep = 1.8
	// ResolutionFactor is the number of microsteps per full step in fine mode.
	ResolutionFactor = 16
	// MaxFullSteps bounds a single move; 10000 revolutions of a 200 step/rev motor.
	MaxFullSteps = 2_000_000
)

// Unit selects how a request magnitude is interpreted.
type Unit int

const (
	UnitSteps Unit = iota
	UnitDegrees
)

func (u Unit) String() string {
	if u == UnitDegrees {
		return "degrees"
	}
	return "steps"
}

// Direction is the rotational sense of a move.
type Direction int

const (
	CW Direction = iota
	CCW
)

func (d Direction) String() string {
	if d == CCW {
		return "CCW"
	}
	return "CW"
}

// Request is a signed move: negative magnitudes turn CCW.
type Request struct {
	Magnitude float64
	Unit      Unit
}

// Plan is the pulse budget for one move. Partial steps are emitted at
// fine resolution after all full steps.
type Plan struct {
	Direction    Direction
	FullSteps    int
	PartialSteps int
}

// Empty reports whether the plan emits no pulses.
func (p Plan) Empty() bool {
	return p.FullSteps == 0 && p.PartialSteps == 0
}

// Translator converts requests into plans.
type Translator struct {
	degreesPerStep   float64
	resolutionFactor int
}

// NewTranslator creates a translator. Non-positive arguments fall back
// to DegreesPerStep and ResolutionFactor.
func NewTranslator(degreesPerStep float64, resolutionFactor int) *Translator {
	if degreesPerStep <= 0 || math.IsNaN(degreesPerStep) || math.IsInf(degreesPerStep, 0) {
		degreesPerStep = DegreesPerStep
	}
	if resolutionFactor <= 0 {
		resolutionFactor = ResolutionFactor
	}
	return &Translator{
		degreesPerStep:   degreesPerStep,
		resolutionFactor: resolutionFactor,
	}
}

// ResolutionFactor returns the fine resolution the partial steps use.
func (t *Translator) ResolutionFactor() int {
	return t.resolutionFactor
}

// FullSteps returns the signed, fractional full-step equivalent of r.
// Non-finite magnitudes count as zero.
func (t *Translator) FullSteps(r Request) float64 {
	m := r.Magnitude
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0
	}
	if r.Unit == UnitDegrees {
		return m / t.degreesPerStep
	}
	return m
}

// Translate builds the plan for r:
//
//	full    = floor(|s|)
//	partial = floor((|s| - full) * 100 / resolutionFactor)
//
// where s is the full-step equivalent of the request. A request beyond
// MaxFullSteps is malformed and yields an empty plan.
func (t *Translator) Translate(r Request) Plan {
	s := t.FullSteps(r)

	dir := CW
	if s < 0 {
		dir = CCW
	}

	abs := math.Abs(s)
	if abs > MaxFullSteps {
		return Plan{Direction: dir}
	}
	full := math.Floor(abs)
	partial := math.Floor((abs - full) * 100 / float64(t.resolutionFactor))

	return Plan{
		Direction:    dir,
		FullSteps:    int(full),
		PartialSteps: int(partial),
	}
}
