// Package symbol wraps external QR symbol codecs behind a narrow interface.
//
// A Codec turns text into a pixel Matrix of dark and light cells and reads
// text back out of a raster image. Backends are registered by name in a
// Registry so callers can pick one from configuration.
package symbol

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// Level is a QR error-correction level.
type Level string

const (
	LevelL Level = "L"
	LevelM Level = "M"
	LevelQ Level = "Q"
	LevelH Level = "H"
)

const DefaultCharset = "UTF-8"

var (
	ErrEmptyContent = errors.New("content must not be empty")
	ErrUnknownCodec = errors.New("unknown symbol codec")
	ErrInvalidLevel = errors.New("invalid error correction level")
	// ErrContentTooLong means the content does not fit the largest symbol
	// version at the requested error-correction level.
	ErrContentTooLong = errors.New("content too long for a QR symbol")
)

// MaxByteContent is the byte-mode capacity of a version 40 symbol at level H
// (1273 bytes) less the UTF-8 ECI header the zxing backend prepends.
const MaxByteContent = 1272

// capacityMessages are the fragments the backends use for overflow errors.
var capacityMessages = []string{"data too big", "too long", "to much data"}

// wrapEncodeError tags backend overflow errors with ErrContentTooLong.
func wrapEncodeError(backend string, err error) error {
	msg := strings.ToLower(err.Error())
	for _, m := range capacityMessages {
		if strings.Contains(msg, m) {
			return fmt.Errorf("%s encode failed: %w: %w", backend, ErrContentTooLong, err)
		}
	}
	return fmt.Errorf("%s encode failed: %w", backend, err)
}

// ParseLevel accepts L, M, Q or H in any case.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToUpper(strings.TrimSpace(s))) {
	case LevelL:
		return LevelL, nil
	case LevelM:
		return LevelM, nil
	case LevelQ:
		return LevelQ, nil
	case LevelH:
		return LevelH, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// EncodeHints control the geometry and payload encoding of a symbol.
type EncodeHints struct {
	Width   int
	Height  int
	Margin  int // quiet zone in modules
	Level   Level
	Charset string
}

// DecodeHints control symbol recognition.
type DecodeHints struct {
	Charset   string
	TryHarder bool
}

// Codec encodes text into a pixel matrix and decodes text from an image.
type Codec interface {
	Name() string
	Encode(content string, hints EncodeHints) (*Matrix, error)
	Decode(img image.Image, hints DecodeHints) (string, error)
}

func (h EncodeHints) withDefaults() EncodeHints {
	if h.Level == "" {
		h.Level = LevelH
	}
	if h.Charset == "" {
		h.Charset = DefaultCharset
	}
	if h.Margin < 0 {
		h.Margin = 0
	}
	return h
}

func (h DecodeHints) withDefaults() DecodeHints {
	if h.Charset == "" {
		h.Charset = DefaultCharset
	}
	return h
}
