package render

import (
	"io"

	"github.com/jung-kurt/gofpdf"

	"LiveBoard/internal/state"
)

// PDF records everything drawn into a single-page document the size of the
// board, one point per pixel.
type PDF struct {
	pdf   *gofpdf.Fpdf
	width float64
	path  path
}

// NewPDF returns a w×h point document.
func NewPDF(w, h float64) *PDF {
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	p.SetDrawColor(0, 0, 0)
	p.SetFillColor(0, 0, 0)
	p.SetLineWidth(1)
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")
	return &PDF{pdf: p, width: 1}
}

func (d *PDF) BeginStroke() { d.path = d.path[:0] }

func (d *PDF) MoveTo(p state.Point) {
	d.path = append(d.path, pathPoint{x: p.X, y: p.Y, move: true})
}

func (d *PDF) LineTo(p state.Point) {
	d.path = append(d.path, pathPoint{x: p.X, y: p.Y})
}

func (d *PDF) Stroke() {
	if x, y, ok := d.path.dot(); ok {
		d.pdf.Circle(x, y, d.width/2, "F")
		return
	}
	if len(d.path) == 0 {
		return
	}
	for _, q := range d.path {
		if q.move {
			d.pdf.MoveTo(q.x, q.y)
		} else {
			d.pdf.LineTo(q.x, q.y)
		}
	}
	d.pdf.DrawPath("D")
}

func (d *PDF) SetStrokeStyle(value string) {
	c, err := ParseColor(value)
	if err != nil {
		return
	}
	d.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	d.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

func (d *PDF) SetLineWidth(w float64) {
	if w <= 0 {
		return
	}
	d.width = w
	d.pdf.SetLineWidth(w)
}

func (d *PDF) SetLineCap(cap string) {
	switch cap {
	case "butt", "square":
		d.pdf.SetLineCapStyle(cap)
	default:
		d.pdf.SetLineCapStyle("round")
	}
}

// Write finishes the document and writes it to w. The document cannot be
// drawn on afterwards.
func (d *PDF) Write(w io.Writer) error {
	return d.pdf.Output(w)
}

// Save finishes the document and writes it to path.
func (d *PDF) Save(path string) error {
	return d.pdf.OutputFileAndClose(path)
}
