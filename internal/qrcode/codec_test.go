package qrcode

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/putao520/qrcodesdk/internal/raster"
	"github.com/putao520/qrcodesdk/internal/symbol"
	skip2 "github.com/skip2/go-qrcode"
)

type diagnosticRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (d *diagnosticRecorder) record(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, op)
}

func (d *diagnosticRecorder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

type failingSymbolCodec struct{}

func (failingSymbolCodec) Name() string { return "failing" }

func (failingSymbolCodec) Encode(string, symbol.EncodeHints) (*symbol.Matrix, error) {
	return nil, errors.New("encoder exploded")
}

func (failingSymbolCodec) Decode(image.Image, symbol.DecodeHints) (string, error) {
	return "", errors.New("decoder exploded")
}

func newTestCodec(t *testing.T, format string, opts ...Option) *Codec {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Format = format
	c, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("Failed to create codec: %v", err)
	}
	return c
}

func writeSolidPNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r>>8 > 200 && g>>8 < 60 && b>>8 < 60
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, format := range []string{"jpeg", "png"} {
		t.Run(format, func(t *testing.T) {
			c := newTestCodec(t, format)

			data := c.CreateQR("HELLO-WORLD", "")
			if data == nil {
				t.Fatal("Expected encoded bytes, got nil")
			}

			img, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("Failed to decode image container: %v", err)
			}
			if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 200 {
				t.Errorf("Expected 200x200 image, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
			}

			text, ok := c.DecodeBytes(data)
			if !ok {
				t.Fatal("Expected QR code to decode")
			}
			if text != "HELLO-WORLD" {
				t.Errorf("Expected HELLO-WORLD, got %q", text)
			}
		})
	}
}

func TestEncodeUnicodeRoundTrip(t *testing.T) {
	c := newTestCodec(t, "png")
	content := "二维码 Größe ✓"

	text, ok := c.DecodeBytes(c.CreateQR(content, ""))
	if !ok {
		t.Fatal("Expected QR code to decode")
	}
	if text != content {
		t.Errorf("Expected %q, got %q", content, text)
	}
}

func TestMissingLogoMatchesNoLogo(t *testing.T) {
	c := newTestCodec(t, "jpeg")
	missing := filepath.Join(t.TempDir(), "does-not-exist.png")

	without := c.CreateQR("HELLO-WORLD", "")
	with := c.EncodeToBytes(EncodeRequest{Content: "HELLO-WORLD", LogoPath: missing, Compress: true})

	if without == nil || with == nil {
		t.Fatal("Expected both encodings to succeed")
	}
	if !bytes.Equal(without, with) {
		t.Error("Expected a missing logo to produce the same bytes as no logo")
	}
}

func TestCompressedLogoIsClamped(t *testing.T) {
	dir := t.TempDir()
	logoPath := filepath.Join(dir, "logo.png")
	writeSolidPNG(t, logoPath, 100, 80, color.RGBA{R: 255, A: 255})

	c := newTestCodec(t, "png")
	data := c.EncodeToBytes(EncodeRequest{Content: "HELLO-WORLD", LogoPath: logoPath, Compress: true})
	if data == nil {
		t.Fatal("Expected encoded bytes, got nil")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Failed to decode PNG: %v", err)
	}

	minX, minY, maxX, maxY := 1<<30, 1<<30, -1, -1
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !isRed(img.At(x, y)) {
				continue
			}
			minX, minY = min(minX, x), min(minY, y)
			maxX, maxY = max(maxX, x), max(maxY, y)
		}
	}
	if maxX < 0 {
		t.Fatal("Expected a red logo region, found none")
	}

	w, h := maxX-minX+1, maxY-minY+1
	if w > 60 || h > 60 {
		t.Errorf("Expected red region within 60x60, got %dx%d", w, h)
	}
	if w < 50 || h < 50 {
		t.Errorf("Expected red region close to 60x60, got %dx%d", w, h)
	}
	if !isRed(img.At(100, 100)) {
		t.Errorf("Expected logo at the center, got %v", img.At(100, 100))
	}
}

func TestUncompressedLogoKeepsNaturalSize(t *testing.T) {
	dir := t.TempDir()
	logoPath := filepath.Join(dir, "logo.png")
	writeSolidPNG(t, logoPath, 90, 20, color.RGBA{R: 255, A: 255})

	c := newTestCodec(t, "png")
	img, err := c.Render(EncodeRequest{Content: "HELLO-WORLD", LogoPath: logoPath})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// 90x20 centered at (55,90); the stroke covers about 2px past each edge.
	if !isRed(img.At(60, 100)) {
		t.Errorf("Expected red at (60,100), got %v", img.At(60, 100))
	}
	if !isRed(img.At(140, 100)) {
		t.Errorf("Expected red at (140,100), got %v", img.At(140, 100))
	}
	if isRed(img.At(100, 80)) {
		t.Error("Expected no logo above the natural height")
	}
}

func TestLogoBorderIsStroked(t *testing.T) {
	dir := t.TempDir()
	logoPath := filepath.Join(dir, "logo.png")
	writeSolidPNG(t, logoPath, 60, 60, color.RGBA{R: 255, A: 255})

	c := newTestCodec(t, "png")
	img, err := c.Render(EncodeRequest{Content: "HELLO-WORLD", LogoPath: logoPath})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	// Logo spans [70,130); the top edge stroke is centered on y=70.
	r, g, b, _ := img.At(100, 70).RGBA()
	if r>>8 < 200 || g>>8 < 200 || b>>8 < 200 {
		t.Errorf("Expected white border at (100,70), got %v", img.At(100, 70))
	}
	if !isRed(img.At(100, 75)) {
		t.Errorf("Expected logo inside the border, got %v", img.At(100, 75))
	}
}

func TestLogoBytesTakePrecedence(t *testing.T) {
	logo := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			logo.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, logo); err != nil {
		t.Fatalf("Failed to encode logo: %v", err)
	}

	c := newTestCodec(t, "png")
	img, err := c.Render(EncodeRequest{
		Content:  "HELLO-WORLD",
		LogoPath: filepath.Join(t.TempDir(), "missing.png"),
		Logo:     buf.Bytes(),
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !isRed(img.At(100, 100)) {
		t.Errorf("Expected logo from bytes at the center, got %v", img.At(100, 100))
	}
}

func TestUnreadableLogoIsReported(t *testing.T) {
	dir := t.TempDir()
	logoPath := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(logoPath, []byte("not an image"), 0o644); err != nil {
		t.Fatalf("Failed to write logo: %v", err)
	}

	rec := &diagnosticRecorder{}
	c := newTestCodec(t, "jpeg", WithDiagnostic(rec.record))

	data := c.CreateQR("HELLO-WORLD", logoPath)
	if data == nil {
		t.Fatal("Expected the QR image despite a broken logo")
	}
	if rec.count() != 1 || rec.calls[0] != "insertLogo" {
		t.Errorf("Expected one insertLogo diagnostic, got %v", rec.calls)
	}
	if !bytes.Equal(data, c.CreateQR("HELLO-WORLD", "")) {
		t.Error("Expected a broken logo to leave the plain QR image")
	}
}

func TestLogoSize(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		compress      bool
		wantW, wantH  int
	}{
		{"no compress keeps size", 100, 80, false, 100, 80},
		{"both clamped", 100, 80, true, 60, 60},
		{"width only", 100, 40, true, 60, 40},
		{"height only", 30, 90, true, 30, 60},
		{"small unchanged", 20, 20, true, 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := logoSize(tt.width, tt.height, tt.compress, 60, 60)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
		})
	}
}

func TestEncodeToFileCreatesParents(t *testing.T) {
	c := newTestCodec(t, "jpeg")
	dest := filepath.Join(t.TempDir(), "a", "b", "code.jpg")

	if err := c.EncodeToFile("HELLO-WORLD", "", dest, false); err != nil {
		t.Fatalf("EncodeToFile failed: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("Expected %s to exist: %v", dest, err)
	}

	text, ok := c.DecodePath(dest)
	if !ok || text != "HELLO-WORLD" {
		t.Errorf("Expected HELLO-WORLD, got %q (ok=%v)", text, ok)
	}
}

func TestEncodeToFileUnderRegularFileFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write blocker: %v", err)
	}

	c := newTestCodec(t, "jpeg")
	err := c.EncodeToFile("HELLO-WORLD", "", filepath.Join(blocker, "sub", "code.jpg"), false)
	if err == nil {
		t.Fatal("Expected an error when the parent is a regular file")
	}
}

func TestEncodeToFileEmptyContent(t *testing.T) {
	c := newTestCodec(t, "jpeg")
	dest := filepath.Join(t.TempDir(), "code.jpg")

	err := c.EncodeContentToFile("", dest)
	if !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent, got %v", err)
	}
	if _, statErr := os.Stat(dest); statErr == nil {
		t.Error("Expected no file for empty content")
	}
}

func TestRenderContentTooLong(t *testing.T) {
	c := newTestCodec(t, "png")
	_, err := c.Render(EncodeRequest{Content: strings.Repeat("a", 1500)})
	if !errors.Is(err, ErrContentTooLong) {
		t.Errorf("Expected ErrContentTooLong, got %v", err)
	}
}

// writeForeignQR writes a PNG produced by an encoder independent of Codec.
func writeForeignQR(t *testing.T, content, path string) {
	t.Helper()
	if err := skip2.WriteFile(content, skip2.Highest, 256, path); err != nil {
		t.Fatalf("Failed to write foreign QR image: %v", err)
	}
}

func TestDecodePreexistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testvalue.png")
	writeForeignQR(t, "TESTVALUE", path)

	for _, format := range []string{"jpeg", "png"} {
		t.Run(format, func(t *testing.T) {
			rec := &diagnosticRecorder{}
			c := newTestCodec(t, format, WithDiagnostic(rec.record))

			text, ok := c.DecodePath(path)
			if !ok {
				t.Fatalf("Expected TESTVALUE image to decode, diagnostics: %v", rec.calls)
			}
			if text != "TESTVALUE" {
				t.Errorf("Expected TESTVALUE, got %q", text)
			}
		})
	}
}

func TestEncodeToWriter(t *testing.T) {
	rec := &diagnosticRecorder{}
	c := newTestCodec(t, "jpeg", WithDiagnostic(rec.record))

	var buf bytes.Buffer
	if !c.EncodeContentToWriter("HELLO-WORLD", &buf) {
		t.Fatal("Expected EncodeContentToWriter to succeed")
	}
	if buf.Len() == 0 {
		t.Error("Expected bytes written")
	}

	buf.Reset()
	if c.EncodeToWriter("", "", &buf, false) {
		t.Error("Expected empty content to fail")
	}
	if buf.Len() != 0 {
		t.Errorf("Expected nothing written, got %d bytes", buf.Len())
	}
	if rec.count() != 1 {
		t.Errorf("Expected one diagnostic, got %d", rec.count())
	}
}

func TestSymbolCodecFailureIsAbsent(t *testing.T) {
	rec := &diagnosticRecorder{}
	c := newTestCodec(t, "jpeg", WithSymbolCodec(failingSymbolCodec{}), WithDiagnostic(rec.record))

	if data := c.CreateQR("HELLO-WORLD", ""); data != nil {
		t.Errorf("Expected nil bytes, got %d bytes", len(data))
	}
	if rec.count() != 1 || rec.calls[0] != "encodeToBytes" {
		t.Errorf("Expected one encodeToBytes diagnostic, got %v", rec.calls)
	}

	if err := c.EncodeToFile("HELLO-WORLD", "", filepath.Join(t.TempDir(), "x.jpg"), false); err == nil {
		t.Error("Expected EncodeToFile to return the encoder error")
	}
}

func TestDecodeBlankImageIsAbsent(t *testing.T) {
	blank := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, blank); err != nil {
		t.Fatalf("Failed to encode blank image: %v", err)
	}

	rec := &diagnosticRecorder{}
	c := newTestCodec(t, "jpeg", WithDiagnostic(rec.record))

	text, ok := c.DecodeBytes(buf.Bytes())
	if ok {
		t.Errorf("Expected no result, got %q", text)
	}
	if rec.count() != 1 {
		t.Errorf("Expected one decode diagnostic, got %d", rec.count())
	}

	if _, err := c.DecodeImage(blank); !errors.Is(err, ErrNoSymbol) {
		t.Errorf("Expected ErrNoSymbol, got %v", err)
	}
}

func TestDecodeNonImage(t *testing.T) {
	rec := &diagnosticRecorder{}
	c := newTestCodec(t, "jpeg", WithDiagnostic(rec.record))

	if _, ok := c.DecodeReader(strings.NewReader("plain text")); ok {
		t.Error("Expected non-image input to yield no result")
	}
	if rec.count() != 0 {
		t.Errorf("Expected no diagnostic for non-image input, got %v", rec.calls)
	}

	if _, ok := c.DecodePath(filepath.Join(t.TempDir(), "missing.jpg")); ok {
		t.Error("Expected missing file to yield no result")
	}
	if rec.count() != 1 || rec.calls[0] != "decodePath" {
		t.Errorf("Expected one decodePath diagnostic, got %v", rec.calls)
	}
}

func TestDataURI(t *testing.T) {
	c := newTestCodec(t, "jpeg")
	uri, err := c.DataURI("HELLO-WORLD", "")
	if err != nil {
		t.Fatalf("DataURI failed: %v", err)
	}
	if !strings.HasPrefix(uri, "data:image/jpeg;base64,") {
		t.Errorf("Unexpected data URI prefix: %.40s", uri)
	}

	if _, err := c.DataURI("", ""); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent, got %v", err)
	}
}

func TestConcurrentEncodingIsDeterministic(t *testing.T) {
	c := newTestCodec(t, "png")
	want := c.CreateQR("HELLO-WORLD", "")

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.CreateQR("HELLO-WORLD", "")
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if !bytes.Equal(got, want) {
			t.Errorf("Result %d differs from the sequential encoding", i)
		}
	}
}

func TestMimeType(t *testing.T) {
	if got := newTestCodec(t, "jpeg").MimeType(); got != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", got)
	}
	c := newTestCodec(t, "png")
	if c.MimeType() != "image/png" || c.Format() != raster.PNG {
		t.Errorf("Expected PNG codec, got %s (%s)", c.MimeType(), c.Format())
	}
}
