// Package surface bridges a decoded natural-size image and a target-size
// pixel buffer. All functions are pure: inputs are never modified and every
// call returns a freshly allocated buffer.
package surface

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
)

// Draw resamples the full extent of src onto a tw x th surface. A zero-area
// target yields an empty buffer.
func Draw(src image.Image, tw, th int) (*image.NRGBA, error) {
	if tw < 0 || th < 0 {
		return nil, fmt.Errorf("draw: negative target size %dx%d", tw, th)
	}
	b := src.Bounds()
	if b.Dx() < 0 || b.Dy() < 0 {
		return nil, fmt.Errorf("draw: negative source size %dx%d", b.Dx(), b.Dy())
	}

	// imaging.Resize treats a zero side as "keep aspect ratio".
	if tw == 0 || th == 0 || b.Empty() {
		return image.NewNRGBA(image.Rect(0, 0, tw, th)), nil
	}

	if b.Dx() == tw && b.Dy() == th {
		return toNRGBA(src), nil
	}
	return imaging.Resize(src, tw, th, imaging.Lanczos), nil
}

// Pixels returns a tightly packed copy of the surface as non-premultiplied
// RGBA bytes, row-major, 4 bytes per pixel.
func Pixels(m *image.NRGBA) []byte {
	b := m.Bounds()
	w, h := b.Dx(), b.Dy()
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		off := m.PixOffset(b.Min.X, b.Min.Y+y)
		copy(out[y*w*4:(y+1)*w*4], m.Pix[off:off+w*4])
	}
	return out
}

func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
