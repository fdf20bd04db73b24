// Package raster loads, scales, composites and writes raster images.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Format is an output container format.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
)

const DefaultJPEGQuality = 75

// ParseFormat accepts jpeg, jpg or png in any case. An empty string means JPEG.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	}
	return "", fmt.Errorf("unsupported image format: %q", s)
}

func (f Format) MimeType() string {
	if f == PNG {
		return "image/png"
	}
	return "image/jpeg"
}

func (f Format) Extension() string {
	if f == PNG {
		return ".png"
	}
	return ".jpg"
}

// Rasterizer is the set of image operations the QR compositor needs.
type Rasterizer interface {
	Load(r io.Reader) (image.Image, error)
	Scale(src image.Image, width, height int) image.Image
	Draw(dst draw.Image, src image.Image, at image.Point)
	StrokeRoundRect(dst draw.Image, rect image.Rectangle, radius, width float64, c color.Color)
	Write(w io.Writer, img image.Image, format Format) error
}

// Default implements Rasterizer with the standard decoders, x/image scaling
// and rasterx stroking. The zero value is usable.
type Default struct {
	JPEGQuality int
	// Render size for SVG input without explicit width and height.
	SVGFallbackWidth  int
	SVGFallbackHeight int
}

// NewDefault returns a Default rasterizer with the given JPEG quality.
func NewDefault(jpegQuality int) *Default {
	return &Default{
		JPEGQuality:       jpegQuality,
		SVGFallbackWidth:  defaultSVGSize,
		SVGFallbackHeight: defaultSVGSize,
	}
}

// Scale resamples src to exactly width x height with Catmull-Rom filtering.
// Aspect ratio is not preserved.
func (d *Default) Scale(src image.Image, width, height int) image.Image {
	b := src.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Src, nil)

	slog.Debug("Rasterizer: scaled image",
		"original_width", b.Dx(),
		"original_height", b.Dy(),
		"scaled_width", width,
		"scaled_height", height)
	return dst
}

// Draw composites src over dst with its top-left corner at at.
func (d *Default) Draw(dst draw.Image, src image.Image, at image.Point) {
	sb := src.Bounds()
	r := image.Rectangle{Min: at, Max: at.Add(sb.Size())}
	draw.Draw(dst, r, src, sb.Min, draw.Over)
}

// Write encodes img in the given format.
func (d *Default) Write(w io.Writer, img image.Image, format Format) error {
	if img == nil {
		return fmt.Errorf("cannot write nil image")
	}
	switch format {
	case PNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("failed to encode PNG image: %w", err)
		}
	case JPEG, "":
		quality := d.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("failed to encode JPEG image: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format: %q", format)
	}
	return nil
}
