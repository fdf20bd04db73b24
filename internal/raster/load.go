package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	defaultSVGSize = 256
	// maxSVGSize bounds each side of a rendered SVG.
	maxSVGSize = 4096
	// maxImagePixels bounds width*height of a decoded raster image.
	maxImagePixels = maxSVGSize * maxSVGSize
)

// ErrImageTooLarge is returned when an input declares dimensions beyond the
// rasterizer's limits. Nothing is allocated for such inputs.
var ErrImageTooLarge = errors.New("image dimensions too large")

// Load decodes a raster image (png, jpeg, gif, bmp, tiff, webp) or renders an SVG.
func (d *Default) Load(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to decode image: empty input")
	}

	if isSVGData(data) {
		return d.loadSVG(data)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxImagePixels/cfg.Height {
		return nil, fmt.Errorf("failed to decode image: %dx%d: %w", cfg.Width, cfg.Height, ErrImageTooLarge)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	slog.Debug("Rasterizer: decoded image",
		"format", format,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy())
	return img, nil
}

func (d *Default) loadSVG(data []byte) (image.Image, error) {
	w, h, ok := parseSvgExplicitSize(data)
	if !ok {
		w, h = d.SVGFallbackWidth, d.SVGFallbackHeight
		if w <= 0 || h <= 0 {
			w, h = defaultSVGSize, defaultSVGSize
		}
		slog.Debug("Rasterizer: SVG lacks explicit size; using fallback", "width", w, "height", h)
	}
	if w > maxSVGSize || h > maxSVGSize {
		return nil, fmt.Errorf("failed to render SVG: %dx%d exceeds %dx%d: %w", w, h, maxSVGSize, maxSVGSize, ErrImageTooLarge)
	}
	img, err := renderSVG(data, w, h)
	if err != nil {
		return nil, fmt.Errorf("failed to render SVG: %w", err)
	}
	return img, nil
}

// DetectFormat names the container of data from its leading bytes:
// "png", "jpeg", "gif", "svg", or "" when unknown.
func DetectFormat(data []byte) string {
	switch {
	case hasPNGSignature(data):
		return "png"
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "jpeg"
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif"
	case isSVGData(data):
		return "svg"
	}
	return ""
}

func hasPNGSignature(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	return bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})
}

// isSVGData looks for an <svg tag or the SVG namespace in the first 4KB.
func isSVGData(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	n := min(len(data), 4096)
	header := bytes.ToLower(bytes.TrimSpace(data[:n]))
	return bytes.Contains(header, []byte("<svg")) ||
		bytes.Contains(header, []byte("xmlns=\"http://www.w3.org/2000/svg\"")) ||
		bytes.Contains(header, []byte("xmlns='http://www.w3.org/2000/svg'"))
}

// parseSvgExplicitSize extracts width and height from the <svg> start tag.
// viewBox is not treated as a pixel size.
func parseSvgExplicitSize(data []byte) (int, int, bool) {
	n := min(len(data), 8192)
	s := strings.ToLower(string(data[:n]))
	i := strings.Index(s, "<svg")
	if i < 0 {
		return 0, 0, false
	}
	tag := s[i:]
	if j := strings.Index(tag, ">"); j >= 0 {
		tag = tag[:j]
	}

	w, wOk := parseNumericAttr(tag, "width")
	h, hOk := parseNumericAttr(tag, "height")
	if wOk && hOk {
		return w, h, true
	}
	return 0, 0, false
}

// parseNumericAttr reads the leading integer of a quoted attribute such as width="123px".
// Values past maxSVGSize are reported as maxSVGSize+1.
func parseNumericAttr(tag, attr string) (int, bool) {
	key := attr + "="
	pos := -1
	for from := 0; from < len(tag); {
		i := strings.Index(tag[from:], key)
		if i < 0 {
			break
		}
		i += from
		// Skip suffix matches such as stroke-width=.
		if i > 0 && strings.ContainsRune(" \t\r\n", rune(tag[i-1])) {
			pos = i
			break
		}
		from = i + len(key)
	}
	if pos < 0 {
		return 0, false
	}
	rest := tag[pos+len(key):]
	if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
		return 0, false
	}
	quote := rest[0]
	rest = rest[1:]
	if end := strings.IndexByte(rest, quote); end >= 0 {
		rest = rest[:end]
	}

	num := 0
	found := false
	for i := 0; i < len(rest); i++ {
		ch := rest[i]
		if ch < '0' || ch > '9' {
			break
		}
		found = true
		num = num*10 + int(ch-'0')
		if num > maxSVGSize {
			num = maxSVGSize + 1
			break
		}
	}
	if !found || num <= 0 {
		return 0, false
	}
	return num, true
}

// renderSVG rasterizes an SVG document onto a transparent w x h canvas.
func renderSVG(svgData []byte, w, h int) (image.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid target dimensions for SVG rendering: %dx%d", w, h)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}
	icon.SetTarget(0, 0, float64(w), float64(h))

	dst := NewCanvas(w, h, color.RGBA{})
	scanner := rasterx.NewScannerGV(w, h, dst, dst.Bounds())
	dasher := rasterx.NewDasher(w, h, scanner)
	icon.Draw(dasher, 1.0)
	return dst, nil
}
