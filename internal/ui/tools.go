package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"LiveBoard/internal/board"
	"LiveBoard/internal/render"
)

// palette is the toolbar colour choice, as sent on the wire.
var palette = []string{"#000000", "#FF0000", "#00FF00", "#0000FF", "#FFFF00"}

// colorSwatch is a tappable square of one palette colour.
type colorSwatch struct {
	widget.BaseWidget
	value    string
	OnTapped func(string)
}

func newColorSwatch(value string, tapped func(string)) *colorSwatch {
	s := &colorSwatch{value: value, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	var fill color.Color = color.Black
	if c, err := render.ParseColor(s.value); err == nil {
		fill = c
	}
	rect := canvas.NewRectangle(fill)
	rect.SetMinSize(fyne.NewSize(32, 32))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.value)
	}
}

// NewToolbar builds the colour and width controls for b.
func NewToolbar(b *board.Board) fyne.CanvasObject {
	lastColor := palette[0]
	width := 3.0

	strokeSlider := widget.NewSlider(1, 50)
	strokeSlider.SetValue(width)
	strokeSlider.OnChanged = func(v float64) {
		width = v
		b.SetLineWidth(v)
	}

	tb := widget.NewToolbar(
		widget.NewToolbarAction(theme.DocumentCreateIcon(), func() {
			b.SetColor(lastColor)
			if width > 10 {
				strokeSlider.SetValue(3)
			}
		}),
		widget.NewToolbarAction(theme.DeleteIcon(), func() {
			b.SetColor("#FFFFFF")
			strokeSlider.SetValue(20)
		}),
	)

	swatches := make([]fyne.CanvasObject, 0, len(palette))
	for _, c := range palette {
		swatches = append(swatches, newColorSwatch(c, func(v string) {
			lastColor = v
			b.SetColor(v)
		}))
	}

	sliderContainer := container.New(layout.NewGridWrapLayout(fyne.NewSize(150, 35)), strokeSlider)

	return container.NewHBox(
		widget.NewLabel("Tool:"),
		tb,
		widget.NewSeparator(),
		widget.NewLabel("Color:"),
		container.NewHBox(swatches...),
		widget.NewSeparator(),
		widget.NewLabel("Size:"),
		sliderContainer,
		layout.NewSpacer(),
	)
}
