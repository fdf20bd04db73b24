package qrcode

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/putao520/qrcodesdk/internal/raster"
	"github.com/putao520/qrcodesdk/internal/symbol"
)

// Defaults for Config.
const (
	DefaultSize          = 200
	DefaultMargin        = 1
	DefaultLogoMaxWidth  = 60
	DefaultLogoMaxHeight = 60
	DefaultBorderWidth   = 3
	DefaultBorderRadius  = 6
	DefaultBorderColor   = "#FFFFFF"
	DefaultFormat        = "jpeg"
)

// CodecConfig selects a symbol codec by name. Remaining keys are passed to its factory.
type CodecConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

// Config holds the rendering parameters of a Codec.
type Config struct {
	Size          int         `yaml:"size"`
	Margin        int         `yaml:"margin"`
	LogoMaxWidth  int         `yaml:"logoMaxWidth"`
	LogoMaxHeight int         `yaml:"logoMaxHeight"`
	BorderWidth   float64     `yaml:"borderWidth"`
	BorderRadius  float64     `yaml:"borderRadius"`
	BorderColor   string      `yaml:"borderColor"`
	Format        string      `yaml:"format"`
	JPEGQuality   int         `yaml:"jpegQuality"`
	Codec         CodecConfig `yaml:"codec"`
}

// DefaultConfig returns the stock 200x200 JPEG configuration.
func DefaultConfig() Config {
	return Config{
		Size:          DefaultSize,
		Margin:        DefaultMargin,
		LogoMaxWidth:  DefaultLogoMaxWidth,
		LogoMaxHeight: DefaultLogoMaxHeight,
		BorderWidth:   DefaultBorderWidth,
		BorderRadius:  DefaultBorderRadius,
		BorderColor:   DefaultBorderColor,
		Format:        DefaultFormat,
		JPEGQuality:   raster.DefaultJPEGQuality,
		Codec:         CodecConfig{Name: symbol.DefaultCodecName},
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("size must be positive, got %d", c.Size)
	}
	if c.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %d", c.Margin)
	}
	if c.LogoMaxWidth <= 0 {
		return fmt.Errorf("logoMaxWidth must be positive, got %d", c.LogoMaxWidth)
	}
	if c.LogoMaxHeight <= 0 {
		return fmt.Errorf("logoMaxHeight must be positive, got %d", c.LogoMaxHeight)
	}
	if c.BorderWidth < 0 {
		return fmt.Errorf("borderWidth must not be negative, got %v", c.BorderWidth)
	}
	if c.BorderRadius < 0 {
		return fmt.Errorf("borderRadius must not be negative, got %v", c.BorderRadius)
	}
	if _, err := parseHexColor(c.BorderColor); err != nil {
		return err
	}
	if _, err := raster.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.JPEGQuality < 0 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpegQuality must be within 0..100, got %d", c.JPEGQuality)
	}
	if c.Codec.Name != "" && !symbol.DefaultRegistry.IsRegistered(c.Codec.Name) {
		return fmt.Errorf("%w: %s", symbol.ErrUnknownCodec, c.Codec.Name)
	}
	return nil
}

// parseHexColor accepts #RGB or #RRGGBB. Empty means white.
func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(s) {
	case 0:
		return raster.White, nil
	case 3:
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	case 6:
	default:
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}
