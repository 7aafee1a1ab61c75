// Package render holds the surfaces the replay engine draws on.
package render

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ParseColor accepts #rgb, #rrggbb, #rrggbbaa and CSS colour names.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colornames.Map[s]; ok {
		return c, nil
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, fmt.Errorf("unknown colour %q", s)
	}
	hex := s[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("bad colour %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// path buffers one stroke until it is painted.
type path []pathPoint

type pathPoint struct {
	x, y float64
	move bool
}

// dot reports whether the path collapses to a single position.
func (p path) dot() (x, y float64, ok bool) {
	if len(p) == 0 {
		return 0, 0, false
	}
	for _, q := range p[1:] {
		if q.x != p[0].x || q.y != p[0].y {
			return 0, 0, false
		}
	}
	return p[0].x, p[0].y, true
}
