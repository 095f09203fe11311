package surface

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	"github.com/chai2010/webp"

	"github.com/AnyUserName/imgsqueeze/internal/format"
)

// ErrEmptyOutput is returned when an encoder produces no bytes.
var ErrEmptyOutput = errors.New("encoder returned empty output")

// LossyEncoder encodes an image at a normalised quality in [0,1].
type LossyEncoder interface {
	Format() format.Format
	Encode(img image.Image, quality float64) ([]byte, error)
}

// EncodeLossy clamps quality to [0,100], normalises it to [0,1] and hands
// the surface to enc. Zero-area surfaces cannot be encoded.
func EncodeLossy(enc LossyEncoder, img *image.NRGBA, quality int) ([]byte, error) {
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("encode %s: empty surface", enc.Format())
	}
	if quality < 0 {
		quality = 0
	}
	if quality > 100 {
		quality = 100
	}

	data, err := enc.Encode(img, float64(quality)/100)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc.Format(), err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("encode %s: %w", enc.Format(), ErrEmptyOutput)
	}
	return data, nil
}

// LossyEncoderFor returns the lossy encoder for f, or nil when f is not a
// lossy raster format.
func LossyEncoderFor(f format.Format) LossyEncoder {
	switch f {
	case format.JPEG:
		return JPEGEncoder{}
	case format.WEBP:
		return WebPEncoder{}
	}
	return nil
}

// JPEGEncoder encodes images to JPEG using Go's standard library.
type JPEGEncoder struct{}

func (JPEGEncoder) Format() format.Format { return format.JPEG }

func (JPEGEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	q := int(math.Round(quality * 100))
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024) // typical photo
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: q}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WebPEncoder encodes images to lossy WebP through libwebp.
type WebPEncoder struct{}

func (WebPEncoder) Format() format.Format { return format.WEBP }

func (WebPEncoder) Encode(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: float32(quality * 100)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
