// Package stroke builds wire lines from sampled pointer pairs.
package stroke

import (
	"LiveBoard/internal/capture"
	"LiveBoard/internal/state"
)

// State is everything the encoder carries between samples.
type State struct {
	// OriginPending is true until the first line of a stroke has been built.
	OriginPending bool
	// StyleDirty is true when Style changed since the last line was built.
	StyleDirty bool
	Style      state.Style
}

// Encode builds the line for one sample. The first pair of a stroke carries its
// origin; a changed style is attached once, to the first line after the change.
func Encode(st State, smp capture.Sample) (State, state.Line) {
	ln := state.NewLine()
	to := smp.Curr
	ln.To = &to
	if st.OriginPending && smp.Prev != nil {
		from := *smp.Prev
		ln.From = &from
		st.OriginPending = false
	}
	if st.StyleDirty {
		style := st.Style
		ln.Style = &style
		st.StyleDirty = false
	}
	return st, ln
}

// Encoder wraps State for use from an event loop. It is not safe for concurrent
// use.
type Encoder struct {
	st State
}

// NewEncoder returns an encoder whose style matches what receivers assume by
// default, so nothing is marked dirty.
func NewEncoder(style state.Style) *Encoder {
	return &Encoder{st: State{Style: style}}
}

// BeginStroke marks the next line as the start of a stroke.
func (e *Encoder) BeginStroke() {
	e.st.OriginPending = true
}

// SetStyle replaces the active style. Setting an identical style is not a change.
func (e *Encoder) SetStyle(s state.Style) {
	if s == e.st.Style {
		return
	}
	e.st.Style = s
	e.st.StyleDirty = true
}

// SetColor changes the stroke colour of the active style.
func (e *Encoder) SetColor(c string) {
	s := e.st.Style
	s.StrokeStyle = c
	e.SetStyle(s)
}

// SetLineWidth changes the line width of the active style.
func (e *Encoder) SetLineWidth(w float64) {
	s := e.st.Style
	s.LineWidth = w
	e.SetStyle(s)
}

// Style returns the active style.
func (e *Encoder) Style() state.Style { return e.st.Style }

// State returns a copy of the encoder state.
func (e *Encoder) State() State { return e.st }

// Encode builds the line for smp and advances the encoder state.
func (e *Encoder) Encode(smp capture.Sample) state.Line {
	var ln state.Line
	e.st, ln = Encode(e.st, smp)
	return ln
}
