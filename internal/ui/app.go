package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"LiveBoard/internal/board"
)

// Window is the running desktop client.
type Window struct {
	app    fyne.App
	window fyne.Window
	status *widget.Label
	Board  *BoardWidget
}

// NewWindow lays out the toolbar, the board and a status line.
func NewWindow(title string, b *board.Board, bw *BoardWidget) *Window {
	a := app.New()
	w := a.NewWindow(title)

	status := widget.NewLabel("Ready")
	content := container.NewBorder(NewToolbar(b), status, nil, nil, container.NewCenter(bw))
	w.SetContent(content)
	w.Resize(fyne.NewSize(bw.size.Width+40, bw.size.Height+120))

	return &Window{app: a, window: w, status: status, Board: bw}
}

// SetStatus updates the status line; safe from any goroutine.
func (w *Window) SetStatus(text string) {
	fyne.Do(func() {
		w.status.SetText(text)
	})
}

// Run shows the window and blocks until it is closed.
func (w *Window) Run() {
	w.window.ShowAndRun()
}

// Quit closes the window from any goroutine.
func (w *Window) Quit() {
	w.app.Quit()
}
