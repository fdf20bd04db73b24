package symbol

import (
	"fmt"
	"image"
	"image/color"

	"github.com/boombuler/barcode/qr"
)

// BoombulerCodec encodes with boombuler/barcode and decodes through ZXing.
type BoombulerCodec struct {
	name   string
	reader *ZXingCodec
}

// NewBoombulerCodec creates a boombuler/barcode backed codec.
func NewBoombulerCodec(params map[string]any) (Codec, error) {
	return &BoombulerCodec{
		name:   "boombuler",
		reader: &ZXingCodec{name: "zxing", tryHarder: GetBoolParam(params, "tryHarder", false)},
	}, nil
}

func (c *BoombulerCodec) Name() string {
	return c.name
}

func (c *BoombulerCodec) Encode(content string, hints EncodeHints) (*Matrix, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	hints = hints.withDefaults()

	level, err := boombulerLevel(hints.Level)
	if err != nil {
		return nil, err
	}

	code, err := qr.Encode(content, level, qr.Unicode)
	if err != nil {
		return nil, wrapEncodeError("boombuler", err)
	}

	// The unscaled barcode is one pixel per module with no quiet zone.
	bounds := code.Bounds()
	modules := make([][]bool, bounds.Dy())
	for y := range modules {
		row := make([]bool, bounds.Dx())
		for x := range row {
			row[x] = isDark(code.At(bounds.Min.X+x, bounds.Min.Y+y))
		}
		modules[y] = row
	}

	return layoutModules(modules, hints.Width, hints.Height, hints.Margin), nil
}

func (c *BoombulerCodec) Decode(img image.Image, hints DecodeHints) (string, error) {
	return c.reader.Decode(img, hints)
}

func isDark(c color.Color) bool {
	g := color.GrayModel.Convert(c).(color.Gray)
	return g.Y < 128
}

func boombulerLevel(level Level) (qr.ErrorCorrectionLevel, error) {
	switch level {
	case LevelL:
		return qr.L, nil
	case LevelM:
		return qr.M, nil
	case LevelQ:
		return qr.Q, nil
	case LevelH:
		return qr.H, nil
	}
	return qr.H, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
}

func init() {
	if err := DefaultRegistry.Register("boombuler", NewBoombulerCodec); err != nil {
		panic(fmt.Sprintf("failed to register boombuler codec: %v", err))
	}
}
