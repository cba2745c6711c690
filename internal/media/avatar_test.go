package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
)

func pngOf(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return &buf
}

func TestAvatarShrinksKeepingAspect(t *testing.T) {
	out, err := Avatar(pngOf(t, 800, 400), 200, 200)
	if err != nil {
		t.Fatalf("Avatar: %v", err)
	}

	img, err := jpeg.Decode(out)
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}

	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("unexpected size %dx%d", b.Dx(), b.Dy())
	}
}

func TestAvatarNeverUpscales(t *testing.T) {
	out, err := Avatar(pngOf(t, 64, 48), 512, 512)
	if err != nil {
		t.Fatalf("Avatar: %v", err)
	}

	cfg, format, err := image.DecodeConfig(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if format != "jpeg" || cfg.Width != 64 || cfg.Height != 48 {
		t.Fatalf("unexpected %s %dx%d", format, cfg.Width, cfg.Height)
	}
}

func TestAvatarRejectsGarbage(t *testing.T) {
	_, err := Avatar(strings.NewReader("definitely not an image"), 100, 100)
	if !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
}
