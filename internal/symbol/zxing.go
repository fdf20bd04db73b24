package symbol

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/makiuchi-d/gozxing/qrcode/decoder"
)

// ZXingCodec encodes and decodes with gozxing, a Go port of ZXing.
type ZXingCodec struct {
	name      string
	tryHarder bool
}

// NewZXingCodec creates a gozxing backed codec from configuration parameters.
func NewZXingCodec(params map[string]any) (Codec, error) {
	return &ZXingCodec{
		name:      "zxing",
		tryHarder: GetBoolParam(params, "tryHarder", false),
	}, nil
}

func (c *ZXingCodec) Name() string {
	return c.name
}

// Encode renders content straight to a Width x Height pixel matrix.
func (c *ZXingCodec) Encode(content string, hints EncodeHints) (*Matrix, error) {
	if content == "" {
		return nil, ErrEmptyContent
	}
	hints = hints.withDefaults()

	level, err := zxingLevel(hints.Level)
	if err != nil {
		return nil, err
	}

	encodeHints := map[gozxing.EncodeHintType]interface{}{
		gozxing.EncodeHintType_ERROR_CORRECTION: level,
		gozxing.EncodeHintType_CHARACTER_SET:    hints.Charset,
		gozxing.EncodeHintType_MARGIN:           hints.Margin,
	}

	bits, err := qrcode.NewQRCodeWriter().Encode(content, gozxing.BarcodeFormat_QR_CODE, hints.Width, hints.Height, encodeHints)
	if err != nil {
		return nil, wrapEncodeError("zxing", err)
	}

	width := bits.GetWidth()
	height := bits.GetHeight()
	out := NewMatrix(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if bits.Get(x, y) {
				out.Set(x, y, true)
			}
		}
	}

	slog.Debug("ZXingCodec: encoded symbol",
		"content_length", len(content),
		"width", width,
		"height", height,
		"level", string(hints.Level))
	return out, nil
}

// Decode binarizes img with a hybrid (local block) threshold and reads a QR symbol.
func (c *ZXingCodec) Decode(img image.Image, hints DecodeHints) (string, error) {
	if img == nil {
		return "", fmt.Errorf("zxing decode: nil image")
	}
	hints = hints.withDefaults()

	source := gozxing.NewLuminanceSourceFromImage(img)
	bitmap, err := gozxing.NewBinaryBitmap(gozxing.NewHybridBinarizer(source))
	if err != nil {
		return "", fmt.Errorf("zxing binarize failed: %w", err)
	}

	decodeHints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_CHARACTER_SET: hints.Charset,
	}
	if hints.TryHarder || c.tryHarder {
		decodeHints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	result, err := qrcode.NewQRCodeReader().Decode(bitmap, decodeHints)
	if err != nil {
		return "", fmt.Errorf("zxing decode failed: %w", err)
	}
	return result.GetText(), nil
}

func zxingLevel(level Level) (decoder.ErrorCorrectionLevel, error) {
	switch level {
	case LevelL:
		return decoder.ErrorCorrectionLevel_L, nil
	case LevelM:
		return decoder.ErrorCorrectionLevel_M, nil
	case LevelQ:
		return decoder.ErrorCorrectionLevel_Q, nil
	case LevelH:
		return decoder.ErrorCorrectionLevel_H, nil
	}
	return decoder.ErrorCorrectionLevel_H, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
}

func init() {
	if err := DefaultRegistry.Register("zxing", NewZXingCodec); err != nil {
		panic(fmt.Sprintf("failed to register zxing codec: %v", err))
	}
}
