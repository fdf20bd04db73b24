package raster

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/srwiley/rasterx"
	"golang.org/x/image/math/fixed"
)

var (
	Black = color.RGBA{0, 0, 0, 255}
	White = color.RGBA{255, 255, 255, 255}
)

// NewCanvas returns a w x h RGBA image filled with bg.
func NewCanvas(w, h int, bg color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
	return dst
}

// FromMatrix paints a w x h image where dark(x, y) selects fg over bg.
// Rows are painted concurrently.
func FromMatrix(w, h int, dark func(x, y int) bool, fg, bg color.RGBA) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	parallelFor(h, func(y int) {
		for x := 0; x < w; x++ {
			if dark(x, y) {
				dst.SetRGBA(x, y, fg)
			} else {
				dst.SetRGBA(x, y, bg)
			}
		}
	})
	return dst
}

// CenterOffset returns the top-left point that centers an inner box in an outer one.
func CenterOffset(outerWidth, outerHeight, innerWidth, innerHeight int) image.Point {
	return image.Pt((outerWidth-innerWidth)/2, (outerHeight-innerHeight)/2)
}

// StrokeRoundRect strokes the outline of rect with rounded corners of the given radius.
// The stroke is centered on the rectangle edge.
func (d *Default) StrokeRoundRect(dst draw.Image, rect image.Rectangle, radius, width float64, c color.Color) {
	if width <= 0 || rect.Empty() {
		return
	}
	b := dst.Bounds()
	scanner := rasterx.NewScannerGV(b.Dx(), b.Dy(), dst, b)
	stroker := rasterx.NewStroker(b.Dx(), b.Dy(), scanner)
	stroker.SetStroke(fixed.Int26_6(width*64), 4<<6, rasterx.ButtCap, nil, rasterx.RoundGap, rasterx.Round)

	rasterx.AddRoundRect(
		float64(rect.Min.X), float64(rect.Min.Y),
		float64(rect.Max.X), float64(rect.Max.Y),
		radius, radius, 0, rasterx.RoundGap, stroker)

	stroker.SetColor(c)
	stroker.Draw()
}
