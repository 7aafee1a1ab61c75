package state

import (
	"errors"
	"math"
)

// ErrMissingTo is returned for a segment that has no endpoint.
var ErrMissingTo = errors.New("segment has no 'to' point")

// Point is a position in surface-local coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Style describes how a segment is stroked. StrokeStyle is mandatory, every other
// field overrides the surface default only when set.
type Style struct {
	StrokeStyle string  `json:"strokeStyle"`
	LineWidth   float64 `json:"lineWidth,omitempty"`
	LineCap     string  `json:"lineCap,omitempty"`
	FillStyle   string  `json:"fillStyle,omitempty"`
}

// NewStyle returns a style with only the stroke colour set.
func NewStyle(strokeStyle string) Style {
	return Style{StrokeStyle: strokeStyle}
}

// Over returns s with every unset field taken from base.
func (s Style) Over(base Style) Style {
	out := base
	if s.StrokeStyle != "" {
		out.StrokeStyle = s.StrokeStyle
	}
	if s.LineWidth > 0 {
		out.LineWidth = s.LineWidth
	}
	if s.LineCap != "" {
		out.LineCap = s.LineCap
	}
	if s.FillStyle != "" {
		out.FillStyle = s.FillStyle
	}
	return out
}

// DefaultStyle is the surface-wide style every client starts from.
var DefaultStyle = Style{StrokeStyle: "#000000", LineWidth: 3, LineCap: "round"}

// Line is the unit sent over the wire. From is set only when a stroke leg starts,
// Style only when the author's style changed since its previous line.
type Line struct {
	From  *Point `json:"from,omitempty"`
	To    *Point `json:"to,omitempty"`
	Style *Style `json:"style,omitempty"`
}

// NewLine returns an empty line; callers fill in the fields they need.
func NewLine() Line {
	return Line{}
}

// Validate reports whether the line can be replayed.
func (l Line) Validate() error {
	if l.To == nil {
		return ErrMissingTo
	}
	return nil
}

// SenderID identifies the author of a line on a shared board.
type SenderID string
