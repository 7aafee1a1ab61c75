package ui

import (
	"image"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"LiveBoard/internal/board"
	"LiveBoard/internal/render"
	"LiveBoard/internal/state"
)

// BoardWidget shows the shared surface and feeds pointer input into the board.
type BoardWidget struct {
	widget.BaseWidget
	board   *board.Board
	surface *render.Raster
	image   *canvas.Raster
	size    fyne.Size
	drawing bool
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ desktop.Hoverable = (*BoardWidget)(nil)

// NewBoardWidget returns a widget of width×height showing surface.
func NewBoardWidget(b *board.Board, surface *render.Raster, width, height int) *BoardWidget {
	w := &BoardWidget{
		board:   b,
		surface: surface,
		size:    fyne.NewSize(float32(width), float32(height)),
	}
	w.image = canvas.NewRaster(func(int, int) image.Image {
		return surface.Image()
	})
	w.image.SetMinSize(w.size)
	w.ExtendBaseWidget(w)
	return w
}

// Redraw schedules a repaint; safe from any goroutine.
func (w *BoardWidget) Redraw() {
	fyne.Do(func() {
		w.image.Refresh()
	})
}

// toPoint converts a widget position to surface coordinates.
func (w *BoardWidget) toPoint(pos fyne.Position) state.Point {
	cur := w.Size()
	sx, sy := float32(1), float32(1)
	if cur.Width > 0 && cur.Height > 0 {
		sx, sy = w.size.Width/cur.Width, w.size.Height/cur.Height
	}
	return state.Point{X: float64(pos.X * sx), Y: float64(pos.Y * sy)}
}

func (w *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	w.drawing = true
	w.board.PointerDown(w.toPoint(e.Position))
}

func (w *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		w.endStroke(false)
	}
}

func (w *BoardWidget) Dragged(e *fyne.DragEvent) {
	if w.drawing {
		w.board.PointerMove(w.toPoint(e.Position))
	}
}

func (w *BoardWidget) DragEnd() {
	w.endStroke(false)
}

func (w *BoardWidget) MouseIn(*desktop.MouseEvent) {}

func (w *BoardWidget) MouseMoved(e *desktop.MouseEvent) {
	if w.drawing {
		w.board.PointerMove(w.toPoint(e.Position))
	}
}

func (w *BoardWidget) MouseOut() {
	w.endStroke(true)
}

func (w *BoardWidget) endStroke(left bool) {
	if !w.drawing {
		return
	}
	w.drawing = false
	if left {
		w.board.PointerLeave()
	} else {
		w.board.PointerUp()
	}
}

func (w *BoardWidget) MinSize() fyne.Size {
	return w.size
}

func (w *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(w.image)
}
