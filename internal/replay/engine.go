// Package replay rebuilds strokes on a surface from a stream of lines.
package replay

import (
	"log/slog"

	"LiveBoard/internal/state"
)

// Surface is the rendering collaborator. Only the engine calls it.
type Surface interface {
	BeginStroke()
	MoveTo(p state.Point)
	LineTo(p state.Point)
	Stroke()
	SetStrokeStyle(value string)
	SetLineWidth(w float64)
}

// CapSurface is implemented by surfaces that can change the line cap.
type CapSurface interface {
	SetLineCap(cap string)
}

// Pen is the replay state of one author.
type Pen struct {
	Last  *state.Point
	Style state.Style
}

// Pens maps each author to its pen.
type Pens map[state.SenderID]Pen

// Replay applies ln to pen and draws the result on s. Malformed lines leave the
// pen untouched.
//
// A line without From continues from the pen's last point. A single-point tap
// is sent the same way, so a tap from an author whose pen still holds the end
// of an earlier stroke replays as a line from that end to the tap; only an
// author's first line, or one after Forget, replays as a dot.
func Replay(pen Pen, ln state.Line, s Surface) (Pen, error) {
	if err := ln.Validate(); err != nil {
		return pen, err
	}
	if ln.From != nil {
		from := *ln.From
		pen.Last = &from
	}
	if ln.Style != nil {
		pen.Style = ln.Style.Over(pen.Style)
	}
	to := *ln.To

	applyStyle(pen.Style, s)
	s.BeginStroke()
	if pen.Last == nil {
		// pen-down without movement
		s.MoveTo(to)
		s.LineTo(to)
	} else {
		s.MoveTo(*pen.Last)
		s.LineTo(to)
	}
	s.Stroke()

	pen.Last = &to
	return pen, nil
}

func applyStyle(st state.Style, s Surface) {
	s.SetStrokeStyle(st.StrokeStyle)
	s.SetLineWidth(st.LineWidth)
	if c, ok := s.(CapSurface); ok && st.LineCap != "" {
		c.SetLineCap(st.LineCap)
	}
}

// Engine replays lines from any number of authors onto one surface. Each author
// has its own pen, so interleaved strokes never join. It is not safe for
// concurrent use; the board loop owns it.
type Engine struct {
	surface Surface
	base    state.Style
	pens    Pens
	log     *slog.Logger
}

// NewEngine returns an engine drawing on s, with base as every author's
// starting style.
func NewEngine(s Surface, base state.Style, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{surface: s, base: base, pens: make(Pens), log: log}
}

// Apply replays one line from sender. A malformed line is logged and dropped.
func (e *Engine) Apply(sender state.SenderID, ln state.Line) error {
	pen, ok := e.pens[sender]
	if !ok {
		pen = Pen{Style: e.base}
	}
	next, err := Replay(pen, ln, e.surface)
	if err != nil {
		e.log.Warn("dropping line", slog.String("sender", string(sender)), slog.String("error", err.Error()))
		return err
	}
	e.pens[sender] = next
	return nil
}

// Forget drops the pen of sender, e.g. when that author disconnects.
func (e *Engine) Forget(sender state.SenderID) {
	delete(e.pens, sender)
}

// Pen returns the current pen of sender.
func (e *Engine) Pen(sender state.SenderID) (Pen, bool) {
	p, ok := e.pens[sender]
	return p, ok
}

// Authors returns how many authors currently have a pen.
func (e *Engine) Authors() int {
	return len(e.pens)
}
