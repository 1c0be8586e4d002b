// Package export renders a saved stroke journal as a vector PDF.
package export

import (
	"errors"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/ayusman/airmarker/internal/store"
)

// Scale converts canvas pixels to PDF points.
const Scale = 0.5

// ErrInvalidSize is returned for a non-positive canvas size.
var ErrInvalidSize = errors.New("export: invalid canvas size")

// PDF writes one page the size of the canvas with a black background and
// every segment drawn in order with round caps, matching the raster.
func PDF(w io.Writer, width, height int, segments []store.Segment) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidSize
	}

	pw, ph := float64(width)*Scale, float64(height)*Scale
	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: pw, Ht: ph},
	})
	p.SetMargins(0, 0, 0)
	p.SetAutoPageBreak(false, 0)
	p.SetTitle("AirMarker drawing", true)
	p.AddPage()

	p.SetFillColor(0, 0, 0)
	p.Rect(0, 0, pw, ph, "F")

	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")
	for _, seg := range segments {
		p.SetDrawColor(int(seg.Color.R), int(seg.Color.G), int(seg.Color.B))
		p.SetLineWidth(float64(seg.Thickness) * Scale)
		p.Line(
			float64(seg.Start.X)*Scale, float64(seg.Start.Y)*Scale,
			float64(seg.End.X)*Scale, float64(seg.End.Y)*Scale,
		)
	}

	return p.Output(w)
}

// WriteFile writes the PDF to path.
func WriteFile(path string, width, height int, segments []store.Segment) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := PDF(f, width, height, segments); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
