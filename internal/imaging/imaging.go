// Package imaging normalizes condition photos taken at item intake.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// MaxDimension bounds the stored photo's width and height.
	MaxDimension = 1024
	// ThumbDimension bounds the thumbnail shown in the item table.
	ThumbDimension = 256
	// JPEGQuality is the compression quality for both outputs.
	JPEGQuality = 85
	// MaxUploadBytes caps the raw upload size.
	MaxUploadBytes = 10 << 20
)

// ErrUnsupported is returned for uploads that are not JPEG, PNG or WebP.
var ErrUnsupported = errors.New("unsupported image format")

// ErrTooLarge is returned when the upload exceeds MaxUploadBytes.
var ErrTooLarge = errors.New("image too large")

var accepted = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Photo is a normalized condition photo. Both images are JPEG.
type Photo struct {
	Image     []byte
	Thumbnail []byte
	MIME      string
}

// ProcessPhoto sniffs the upload's format from its bytes, downscales it to
// MaxDimension and ThumbDimension, and re-encodes both as JPEG.
func ProcessPhoto(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}

	if detected := http.DetectContentType(data); !accepted[detected] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, detected)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding photo: %w", err)
	}

	full, err := encodeJPEG(Fit(img, MaxDimension))
	if err != nil {
		return nil, err
	}
	thumb, err := encodeJPEG(Fit(img, ThumbDimension))
	if err != nil {
		return nil, err
	}

	return &Photo{Image: full, Thumbnail: thumb, MIME: "image/jpeg"}, nil
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit scales img down with Catmull-Rom so that neither side exceeds maxDim,
// keeping the aspect ratio. Smaller images are returned as they are.
func Fit(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxDim && h <= maxDim {
		return img
	}

	newW, newH := maxDim, maxDim
	if w > h {
		newH = max(1, h*maxDim/w)
	} else {
		newW = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}
