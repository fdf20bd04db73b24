package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/putao520/qrcodesdk/internal/symbol"
)

// DecodeImage reads a QR code from img.
func (c *Codec) DecodeImage(img image.Image) (string, error) {
	if img == nil {
		return "", ErrNoSymbol
	}
	text, err := c.symbols.Decode(img, symbol.DecodeHints{Charset: symbol.DefaultCharset})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoSymbol, err)
	}
	return text, nil
}

// DecodeReader reads an image from r and decodes its QR code.
// Input that is not an image yields ("", false) without a diagnostic.
func (c *Codec) DecodeReader(r io.Reader) (string, bool) {
	img, err := c.raster.Load(r)
	if err != nil {
		c.logger.Debug("QrCodec: input is not a readable image", "error", err)
		return "", false
	}

	text, err := c.DecodeImage(img)
	if err != nil {
		c.report("decode", err)
		return "", false
	}
	return text, true
}

// DecodeBytes decodes an in-memory image.
func (c *Codec) DecodeBytes(data []byte) (string, bool) {
	return c.DecodeReader(bytes.NewReader(data))
}

// DecodePath opens path and decodes it. The file is always closed.
func (c *Codec) DecodePath(path string) (string, bool) {
	f, err := os.Open(path)
	if err != nil {
		c.report("decodePath", err)
		return "", false
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			c.report("decodePath", cerr)
		}
	}()
	return c.DecodeReader(f)
}
