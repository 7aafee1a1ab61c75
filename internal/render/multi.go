package render

import (
	"LiveBoard/internal/replay"
	"LiveBoard/internal/state"
)

// Multi forwards every call to each of its surfaces, in order.
type Multi []replay.Surface

func (m Multi) BeginStroke() {
	for _, s := range m {
		s.BeginStroke()
	}
}

func (m Multi) MoveTo(p state.Point) {
	for _, s := range m {
		s.MoveTo(p)
	}
}

func (m Multi) LineTo(p state.Point) {
	for _, s := range m {
		s.LineTo(p)
	}
}

func (m Multi) Stroke() {
	for _, s := range m {
		s.Stroke()
	}
}

func (m Multi) SetStrokeStyle(value string) {
	for _, s := range m {
		s.SetStrokeStyle(value)
	}
}

func (m Multi) SetLineWidth(w float64) {
	for _, s := range m {
		s.SetLineWidth(w)
	}
}

func (m Multi) SetLineCap(cap string) {
	for _, s := range m {
		if c, ok := s.(replay.CapSurface); ok {
			c.SetLineCap(cap)
		}
	}
}
