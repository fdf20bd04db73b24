package symbol

import (
	"fmt"
	"image"

	skip2 "github.com/skip2/go-qrcode"
)

// Skip2Codec encodes with skip2/go-qrcode. It has no reader, so decoding is
// delegated to a ZXingCodec.
type Skip2Codec struct {
	name   string
	reader *ZXingCodec
}

// NewSkip2Codec creates a skip2/go-qrcode backed codec.
func NewSkip2Codec(params map[string]any) (Codec, error) {
	return &Skip2Codec{
		name:   "skip2",
		reader: &ZXingCodec{name: "zxing", tryHarder: GetBoolParam(params, "tryHarder", false)},
	}, nil
}

func (c *Skip2Codec) Name() string {
	return c.name
}

// Encode builds a borderless symbol and lays it out with the requested margin.
// skip2 always writes byte mode, so the UTF-8 bytes of content go out as is.
func (c *Skip2Codec) Encode(content string, hints EncodeHints) (*Matrix, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	hints = hints.withDefaults()

	level, err := skip2Level(hints.Level)
	if err != nil {
		return nil, err
	}

	code, err := skip2.New(content, level)
	if err != nil {
		return nil, wrapEncodeError("skip2", err)
	}
	code.DisableBorder = true

	return layoutModules(code.Bitmap(), hints.Width, hints.Height, hints.Margin), nil
}

func (c *Skip2Codec) Decode(img image.Image, hints DecodeHints) (string, error) {
	return c.reader.Decode(img, hints)
}

func skip2Level(level Level) (skip2.RecoveryLevel, error) {
	switch level {
	case LevelL:
		return skip2.Low, nil
	case LevelM:
		return skip2.Medium, nil
	case LevelQ:
		return skip2.High, nil
	case LevelH:
		return skip2.Highest, nil
	}
	return skip2.Highest, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
}

func init() {
	if err := DefaultRegistry.Register("skip2", NewSkip2Codec); err != nil {
		panic(fmt.Sprintf("failed to register skip2 codec: %v", err))
	}
}
