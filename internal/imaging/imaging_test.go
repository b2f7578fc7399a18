package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func testJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func testPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func dims(t *testing.T, data []byte) (int, int) {
	t.Helper()
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestProcessPhotoPNG(t *testing.T) {
	p, err := ProcessPhoto(bytes.NewReader(testPNG(100, 80)))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}
	if p.MIME != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", p.MIME)
	}
	if w, h := dims(t, p.Image); w != 100 || h != 80 {
		t.Errorf("small photo should keep its size, got %dx%d", w, h)
	}
	if len(p.Thumbnail) == 0 {
		t.Error("expected a thumbnail")
	}
}

func TestProcessPhotoDownscales(t *testing.T) {
	p, err := ProcessPhoto(bytes.NewReader(testJPEG(2048, 1024)))
	if err != nil {
		t.Fatalf("ProcessPhoto: %v", err)
	}
	if w, h := dims(t, p.Image); w != MaxDimension || h != MaxDimension/2 {
		t.Errorf("expected %dx%d, got %dx%d", MaxDimension, MaxDimension/2, w, h)
	}
	if w, h := dims(t, p.Thumbnail); w != ThumbDimension || h != ThumbDimension/2 {
		t.Errorf("expected thumbnail %dx%d, got %dx%d", ThumbDimension, ThumbDimension/2, w, h)
	}
}

func TestProcessPhotoRejects(t *testing.T) {
	for name, data := range map[string][]byte{
		"text": []byte("not an image"),
		"gif":  []byte("GIF89a..."),
	} {
		if _, err := ProcessPhoto(bytes.NewReader(data)); !errors.Is(err, ErrUnsupported) {
			t.Errorf("%s: expected ErrUnsupported, got %v", name, err)
		}
	}
}

func TestProcessPhotoTooLarge(t *testing.T) {
	data := make([]byte, MaxUploadBytes+10)
	if _, err := ProcessPhoto(bytes.NewReader(data)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestFitPortrait(t *testing.T) {
	got := Fit(solid(300, 600, color.White), 100)
	if b := got.Bounds(); b.Dx() != 50 || b.Dy() != 100 {
		t.Errorf("expected 50x100, got %dx%d", b.Dx(), b.Dy())
	}
}
