// Package capture turns a pointer-drag gesture into a throttled sequence of
// point pairs.
package capture

import (
	"time"

	"LiveBoard/internal/state"
)

// InitialInterval is the sampling window used before any pair has been measured.
const InitialInterval = 80 * time.Millisecond

// IntervalFor maps the distance covered by the last pair to the next sampling
// window. Faster strokes get shorter windows.
func IntervalFor(distance float64) time.Duration {
	switch {
	case distance < 20:
		return 100 * time.Millisecond
	case distance < 50:
		return 75 * time.Millisecond
	case distance < 100:
		return 50 * time.Millisecond
	default:
		return 40 * time.Millisecond
	}
}

// Phase is the sampler's session state.
type Phase int

const (
	Idle Phase = iota
	Sampling
)

func (p Phase) String() string {
	if p == Sampling {
		return "sampling"
	}
	return "idle"
}

// Sample is one unit handed to the encoder. Prev is nil only for a gesture that
// ended before any pair was produced, in which case Curr is the pointer-down
// position.
type Sample struct {
	Prev *state.Point
	Curr state.Point
}

// Single reports whether the sample marks a point rather than a pair.
func (s Sample) Single() bool {
	return s.Prev == nil
}

// Sampler is a time-driven state machine. Callers pass the current time into
// every transition, which keeps it free of timers and goroutines; the owning
// event loop arms a timer for Deadline.
type Sampler struct {
	phase     Phase
	interval  time.Duration
	last      state.Point
	pending   *state.Point
	windowEnd time.Time
	emitted   int
}

// NewSampler returns an idle sampler.
func NewSampler() *Sampler {
	return &Sampler{interval: InitialInterval}
}

// Phase returns the current session state.
func (s *Sampler) Phase() Phase { return s.phase }

// Interval returns the window length that applies to the next window.
func (s *Sampler) Interval() time.Duration { return s.interval }

// Down starts a new gesture at p. Pairing state from an earlier gesture is
// discarded; the down position acts as the implicit first sample.
func (s *Sampler) Down(p state.Point, now time.Time) {
	s.phase = Sampling
	s.last = p
	s.pending = nil
	s.emitted = 0
	s.windowEnd = now.Add(s.interval)
}

// Move records p as the latest position of the current window. Windows that
// closed before now are flushed first and returned. Moves outside a gesture are
// dropped.
func (s *Sampler) Move(p state.Point, now time.Time) []Sample {
	if s.phase != Sampling {
		return nil
	}
	out := s.Advance(now)
	s.pending = &p
	return out
}

// Advance closes every window that ended at or before now. A window with a
// pending position yields exactly one pair; the distance of that pair sets the
// length of the following window.
func (s *Sampler) Advance(now time.Time) []Sample {
	var out []Sample
	for s.phase == Sampling && !now.Before(s.windowEnd) {
		end := s.windowEnd
		if s.pending == nil {
			// nothing moved; skip to the window containing now
			n := now.Sub(end)/s.interval + 1
			s.windowEnd = end.Add(n * s.interval)
			continue
		}
		prev, curr := s.last, *s.pending
		out = append(out, Sample{Prev: &prev, Curr: curr})
		s.interval = IntervalFor(prev.Distance(curr))
		s.last = curr
		s.pending = nil
		s.emitted++
		s.windowEnd = end.Add(s.interval)
	}
	return out
}

// Up ends the gesture. Windows already closed by now are flushed; the position
// pending in the open window is dropped, unless nothing was emitted yet, in
// which case it becomes the one pair of a short stroke. A gesture that never
// moved yields a single-point sample at the pointer-down position.
func (s *Sampler) Up(now time.Time) []Sample {
	if s.phase != Sampling {
		return nil
	}
	out := s.Advance(now)
	if s.emitted == 0 {
		if s.pending != nil {
			prev := s.last
			out = append(out, Sample{Prev: &prev, Curr: *s.pending})
		} else {
			out = append(out, Sample{Curr: s.last})
		}
	}
	s.phase = Idle
	s.pending = nil
	return out
}

// Leave ends the gesture when the pointer leaves the surface. It behaves like Up
// and needs no matching pointer-up.
func (s *Sampler) Leave(now time.Time) []Sample {
	return s.Up(now)
}

// Deadline returns when the open window closes. ok is false when there is
// nothing waiting to be emitted.
func (s *Sampler) Deadline() (deadline time.Time, ok bool) {
	if s.phase != Sampling || s.pending == nil {
		return time.Time{}, false
	}
	return s.windowEnd, true
}
