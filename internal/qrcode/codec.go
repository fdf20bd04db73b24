// Package qrcode renders text into QR-code images, optionally with a centered
// logo, and reads QR codes back out of images.
//
// A Codec is immutable after construction and safe for concurrent use. The
// best-effort entry points (EncodeToWriter, EncodeToBytes, CreateQR and the
// Decode* family) never return errors: failures produce an absent result and
// are reported to the diagnostic callback. EncodeToFile and Encode return
// errors to the caller.
package qrcode

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"github.com/putao520/qrcodesdk/internal/raster"
	"github.com/putao520/qrcodesdk/internal/symbol"
)

var (
	ErrEmptyContent   = symbol.ErrEmptyContent
	ErrContentTooLong = symbol.ErrContentTooLong
	ErrNoSymbol       = errors.New("no QR code found in image")
)

// DiagnosticFunc receives failures swallowed by best-effort operations.
type DiagnosticFunc func(op string, err error)

// EncodeRequest describes one QR image.
type EncodeRequest struct {
	Content string
	// LogoPath names a logo file. A missing file is treated as no logo.
	LogoPath string
	// Logo holds encoded logo bytes and takes precedence over LogoPath.
	Logo []byte
	// Compress clamps the logo to the configured maximum width and height.
	Compress bool
}

// Codec encodes and decodes QR images.
type Codec struct {
	cfg         Config
	format      raster.Format
	borderColor color.RGBA
	symbols     symbol.Codec
	raster      raster.Rasterizer
	logger      *slog.Logger
	diagnostic  DiagnosticFunc
}

// Option customizes a Codec.
type Option func(*Codec)

// WithLogger sets the logger used for debug output and the default diagnostic.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDiagnostic replaces the default diagnostic, which logs at debug level.
func WithDiagnostic(fn DiagnosticFunc) Option {
	return func(c *Codec) {
		c.diagnostic = fn
	}
}

// WithSymbolCodec overrides the codec named in Config.Codec.
func WithSymbolCodec(sc symbol.Codec) Option {
	return func(c *Codec) {
		c.symbols = sc
	}
}

// WithRasterizer overrides the default rasterizer.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(c *Codec) {
		c.raster = r
	}
}

// New validates cfg and builds a Codec.
func New(cfg Config, opts ...Option) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid qrcode configuration: %w", err)
	}
	format, _ := raster.ParseFormat(cfg.Format)
	border, _ := parseHexColor(cfg.BorderColor)

	c := &Codec{
		cfg:         cfg,
		format:      format,
		borderColor: border,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.symbols == nil {
		sc, err := symbol.New(cfg.Codec.Name, cfg.Codec.Params)
		if err != nil {
			return nil, err
		}
		c.symbols = sc
	}
	if c.raster == nil {
		c.raster = raster.NewDefault(cfg.JPEGQuality)
	}
	if c.diagnostic == nil {
		logger := c.logger
		c.diagnostic = func(op string, err error) {
			logger.Debug("QrCodec: operation failed", "op", op, "error", err)
		}
	}
	return c, nil
}

// NewDefault builds a Codec from DefaultConfig.
func NewDefault(opts ...Option) (*Codec, error) {
	return New(DefaultConfig(), opts...)
}

// Config returns the configuration the codec was built with.
func (c *Codec) Config() Config {
	return c.cfg
}

// Format returns the output container format.
func (c *Codec) Format() raster.Format {
	return c.format
}

// MimeType returns the content type of encoded output.
func (c *Codec) MimeType() string {
	return c.format.MimeType()
}

func (c *Codec) report(op string, err error) {
	if c.diagnostic != nil {
		c.diagnostic(op, err)
	}
}
