package qrcode

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EncodeToFile renders content and writes it to destPath, creating parent
// directories as needed. Unlike the other encoders it returns every failure.
func (c *Codec) EncodeToFile(content, logoPath, destPath string, compress bool) error {
	img, err := c.Render(EncodeRequest{Content: content, LogoPath: logoPath, Compress: compress})
	if err != nil {
		return err
	}

	f, err := createFile(destPath)
	if err != nil {
		return err
	}
	if err := c.raster.Write(f, img, c.format); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write QR image to %s: %w", destPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", destPath, err)
	}
	return nil
}

// EncodeContentToFile writes a plain QR code for content to destPath.
func (c *Codec) EncodeContentToFile(content, destPath string) error {
	return c.EncodeToFile(content, "", destPath, false)
}

// EncodeToWriter renders content to w. It reports false, and writes nothing,
// when the image could not be produced.
func (c *Codec) EncodeToWriter(content, logoPath string, w io.Writer, compress bool) bool {
	if err := c.Encode(w, EncodeRequest{Content: content, LogoPath: logoPath, Compress: compress}); err != nil {
		c.report("encodeToWriter", err)
		return false
	}
	return true
}

// EncodeContentToWriter writes a plain QR code for content to w.
func (c *Codec) EncodeContentToWriter(content string, w io.Writer) bool {
	return c.EncodeToWriter(content, "", w, false)
}

// EncodeToBytes renders req into memory. It returns nil on failure.
func (c *Codec) EncodeToBytes(req EncodeRequest) []byte {
	var buf bytes.Buffer
	if err := c.Encode(&buf, req); err != nil {
		c.report("encodeToBytes", err)
		return nil
	}
	return buf.Bytes()
}

// CreateQR renders content with an optional, uncompressed logo. It returns nil on failure.
func (c *Codec) CreateQR(content, logoPath string) []byte {
	return c.EncodeToBytes(EncodeRequest{Content: content, LogoPath: logoPath})
}

// DataURI renders content as a base64 data URI suitable for an <img> src.
func (c *Codec) DataURI(content, logoPath string) (string, error) {
	var buf bytes.Buffer
	if err := c.Encode(&buf, EncodeRequest{Content: content, LogoPath: logoPath}); err != nil {
		return "", err
	}
	return "data:" + c.MimeType() + ";base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// createFile makes sure the parent directory of path exists and truncates path.
func createFile(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file %s: %w", path, err)
	}
	return f, nil
}
