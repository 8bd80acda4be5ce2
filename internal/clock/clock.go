package clock

import (
	"runtime"
	"sync"
	"time"
)

// Clock provides monotonic time and blocking waits. The pulse generator
// and the host cache receive it so tests can run on virtual time.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// busyWaitLimit is the longest wait Real spins for. Longer waits
// sleep until the last millisecond and spin the remainder.
const busyWaitLimit = time.Millisecond

// Real is the wall clock. Sleep is precise to the resolution of
// time.Now: it yields to the scheduler for the bulk of long waits and
// busy-waits the tail, so a 1ms half-period is not stretched by timer
// slack.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	deadline := time.Now().Add(d)
	if d > busyWaitLimit {
		time.Sleep(d - busyWaitLimit)
	}
	for time.Now().Before(deadline) {
		runtime.Gosched()
	}
}

// Fake is a manually driven clock. Sleep advances virtual time
// immediately and records the requested duration.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewFake returns a Fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Sleep(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sleeps = append(f.sleeps, d)
	if d > 0 {
		f.now = f.now.Add(d)
	}
}

// Advance moves virtual time forward without recording a sleep.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// Sleeps returns a copy of every duration passed to Sleep.
func (f *Fake) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.sleeps...)
}

// Slept returns the total virtual time spent in Sleep.
func (f *Fake) Slept() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	var total time.Duration
	for _, d := range f.sleeps {
		if d > 0 {
			total += d
		}
	}
	return total
}
