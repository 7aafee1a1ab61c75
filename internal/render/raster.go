package render

import (
	"image"
	"image/color"
	"image/draw"
	"io"
	"log/slog"
	"sync"

	"github.com/fogleman/gg"

	"LiveBoard/internal/state"
)

// Raster is an in-memory bitmap surface. Drawing and snapshotting may happen
// on different goroutines.
type Raster struct {
	mu    sync.Mutex
	dc    *gg.Context
	width float64
	path  path
}

// NewRaster returns a w×h surface filled with background.
func NewRaster(w, h int, background color.Color) *Raster {
	dc := gg.NewContext(w, h)
	dc.SetColor(background)
	dc.Clear()
	dc.SetColor(color.Black)
	dc.SetLineWidth(1)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	return &Raster{dc: dc, width: 1}
}

func (r *Raster) BeginStroke() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = r.path[:0]
}

func (r *Raster) MoveTo(p state.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = append(r.path, pathPoint{x: p.X, y: p.Y, move: true})
}

func (r *Raster) LineTo(p state.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.path = append(r.path, pathPoint{x: p.X, y: p.Y})
}

// Stroke paints the buffered path. A path that never leaves its first point is
// painted as a dot of the current line width.
func (r *Raster) Stroke() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if x, y, ok := r.path.dot(); ok {
		r.dc.DrawCircle(x, y, r.width/2)
		r.dc.Fill()
		return
	}
	for _, q := range r.path {
		if q.move {
			r.dc.MoveTo(q.x, q.y)
		} else {
			r.dc.LineTo(q.x, q.y)
		}
	}
	r.dc.Stroke()
}

func (r *Raster) SetStrokeStyle(value string) {
	c, err := ParseColor(value)
	if err != nil {
		slog.Debug("keeping stroke colour", slog.String("error", err.Error()))
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dc.SetColor(c)
}

func (r *Raster) SetLineWidth(w float64) {
	if w <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width = w
	r.dc.SetLineWidth(w)
}

func (r *Raster) SetLineCap(cap string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch cap {
	case "butt":
		r.dc.SetLineCap(gg.LineCapButt)
	case "square":
		r.dc.SetLineCap(gg.LineCapSquare)
	default:
		r.dc.SetLineCap(gg.LineCapRound)
	}
}

// Image returns a copy of the current bitmap.
func (r *Raster) Image() *image.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	src := r.dc.Image()
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// EncodePNG writes the bitmap as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dc.EncodePNG(w)
}

// SavePNG writes the bitmap to a PNG file.
func (r *Raster) SavePNG(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dc.SavePNG(path)
}
