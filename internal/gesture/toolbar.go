package gesture

import (
	"image"
	"image/color"
)

// DefaultToolbarHeight is the height in pixels of the swatch band at the
// top of the frame.
const DefaultToolbarHeight = 125

// Swatch is one selectable toolbar region. MinX and MaxX are exclusive
// bounds: a fingertip selects the swatch when MinX < x < MaxX.
type Swatch struct {
	Name   string
	MinX   int
	MaxX   int
	Color  color.RGBA
	Eraser bool
}

// Contains reports whether x lies strictly inside the swatch.
func (s Swatch) Contains(x int) bool {
	return x > s.MinX && x < s.MaxX
}

// Toolbar is the fixed band of swatches along the top of the frame.
type Toolbar struct {
	Height   int
	Swatches []Swatch
}

// DefaultToolbar returns the stock five-swatch layout for a 1280 pixel wide
// frame. The last swatch is the eraser, which paints with the empty color.
func DefaultToolbar() Toolbar {
	return Toolbar{
		Height: DefaultToolbarHeight,
		Swatches: []Swatch{
			{Name: "magenta", MinX: 150, MaxX: 350, Color: color.RGBA{R: 255, G: 0, B: 255, A: 255}},
			{Name: "green", MinX: 470, MaxX: 550, Color: color.RGBA{R: 0, G: 255, B: 0, A: 255}},
			{Name: "yellow", MinX: 700, MaxX: 750, Color: color.RGBA{R: 255, G: 255, B: 0, A: 255}},
			{Name: "red", MinX: 900, MaxX: 1000, Color: color.RGBA{R: 255, G: 0, B: 0, A: 255}},
			{Name: "eraser", MinX: 1150, MaxX: 1200, Color: color.RGBA{A: 255}, Eraser: true},
		},
	}
}

// Hit returns the index of the swatch under p, or -1 when p is outside the
// band or between swatches.
func (t Toolbar) Hit(p image.Point) int {
	if p.Y >= t.Height || p.Y < 0 {
		return -1
	}
	for i, s := range t.Swatches {
		if s.Contains(p.X) {
			return i
		}
	}
	return -1
}

// Swatch returns swatch i and whether it exists.
func (t Toolbar) Swatch(i int) (Swatch, bool) {
	if i < 0 || i >= len(t.Swatches) {
		return Swatch{}, false
	}
	return t.Swatches[i], true
}
