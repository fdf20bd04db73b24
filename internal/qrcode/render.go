package qrcode

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"os"

	"github.com/putao520/qrcodesdk/internal/raster"
	"github.com/putao520/qrcodesdk/internal/symbol"
)

// Render produces the composited QR image for req.
// A logo that cannot be loaded is reported and skipped.
func (c *Codec) Render(req EncodeRequest) (image.Image, error) {
	if req.Content == "" {
		return nil, ErrEmptyContent
	}

	matrix, err := c.symbols.Encode(req.Content, symbol.EncodeHints{
		Width:   c.cfg.Size,
		Height:  c.cfg.Size,
		Margin:  c.cfg.Margin,
		Level:   symbol.LevelH,
		Charset: symbol.DefaultCharset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR symbol: %w", err)
	}

	img := raster.FromMatrix(matrix.Width(), matrix.Height(), matrix.Get, raster.Black, raster.White)

	logo, ok := c.loadLogo(req)
	if !ok {
		return img, nil
	}
	c.insertLogo(img, logo, req.Compress)
	return img, nil
}

// loadLogo returns the request's logo, or false when there is none to draw.
func (c *Codec) loadLogo(req EncodeRequest) (image.Image, bool) {
	if len(req.Logo) > 0 {
		logo, err := c.raster.Load(bytes.NewReader(req.Logo))
		if err != nil {
			c.report("insertLogo", err)
			return nil, false
		}
		return logo, true
	}

	if req.LogoPath == "" {
		return nil, false
	}
	f, err := os.Open(req.LogoPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Debug("QrCodec: logo file not found, skipping", "path", req.LogoPath)
		} else {
			c.report("insertLogo", err)
		}
		return nil, false
	}
	defer func() {
		_ = f.Close()
	}()

	logo, err := c.raster.Load(f)
	if err != nil {
		c.report("insertLogo", fmt.Errorf("logo %s: %w", req.LogoPath, err))
		return nil, false
	}
	return logo, true
}

// insertLogo draws logo centered on dst and frames it with a rounded border.
func (c *Codec) insertLogo(dst *image.RGBA, logo image.Image, compress bool) {
	lb := logo.Bounds()
	width, height := logoSize(lb.Dx(), lb.Dy(), compress, c.cfg.LogoMaxWidth, c.cfg.LogoMaxHeight)
	if compress {
		logo = c.raster.Scale(logo, width, height)
	}

	db := dst.Bounds()
	at := raster.CenterOffset(db.Dx(), db.Dy(), width, height)
	c.raster.Draw(dst, logo, at)

	frame := image.Rect(at.X, at.Y, at.X+width, at.Y+height)
	c.raster.StrokeRoundRect(dst, frame, c.cfg.BorderRadius, c.cfg.BorderWidth, c.borderColor)

	c.logger.Debug("QrCodec: logo inserted",
		"original_width", lb.Dx(),
		"original_height", lb.Dy(),
		"width", width,
		"height", height,
		"x", at.X,
		"y", at.Y)
}

// logoSize clamps width and height independently when compress is set.
// Aspect ratio is not preserved.
func logoSize(width, height int, compress bool, maxWidth, maxHeight int) (int, int) {
	if !compress {
		return width, height
	}
	if width > maxWidth {
		width = maxWidth
	}
	if height > maxHeight {
		height = maxHeight
	}
	return width, height
}

// Encode renders req and writes it to w. Nothing is written when rendering fails.
func (c *Codec) Encode(w io.Writer, req EncodeRequest) error {
	img, err := c.Render(req)
	if err != nil {
		return err
	}
	return c.raster.Write(w, img, c.format)
}
