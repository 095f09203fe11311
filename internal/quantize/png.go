package quantize

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"

	"github.com/pkg/errors"
)

// Encode quantizes a single RGBA frame of w x h pixels to at most colors
// palette entries and returns it as an indexed PNG. frames mirrors the
// multi-frame encoder contract but exactly one frame is accepted.
func Encode(frames [][]byte, w, h, colors int) ([]byte, error) {
	if len(frames) != 1 {
		return nil, errors.Errorf("png: expected exactly one frame, got %d", len(frames))
	}
	if w <= 0 || h <= 0 {
		return nil, errors.Errorf("png: invalid image size %dx%d", w, h)
	}
	if colors < 1 {
		return nil, errors.Errorf("png: palette budget must be positive, got %d", colors)
	}
	if colors > MaxColors {
		colors = MaxColors
	}
	pix := frames[0]
	if len(pix) != w*h*4 {
		return nil, errors.Errorf("png: frame holds %d bytes, want %d", len(pix), w*h*4)
	}

	src := &image.NRGBA{Pix: pix, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
	pm := Paletted(src, colors)

	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, pm); err != nil {
		return nil, errors.Wrap(err, "png: encode")
	}
	return buf.Bytes(), nil
}

// Paletted maps m onto a palette of at most colors entries. When m already
// fits the budget the mapping is exact, otherwise a median-cut palette is
// applied with Floyd-Steinberg error diffusion.
func Paletted(m *image.NRGBA, colors int) *image.Paletted {
	b := m.Bounds()
	hist := histogram(m)

	if len(hist) <= colors {
		pm := image.NewPaletted(b, nil)
		index := make(map[uint32]uint8, len(hist))
		for i, e := range hist {
			pm.Palette = append(pm.Palette, e.c)
			index[key(e.c)] = uint8(i)
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				pm.SetColorIndex(x, y, index[key(m.NRGBAAt(x, y))])
			}
		}
		return pm
	}

	pm := image.NewPaletted(b, medianCut(hist, colors))
	draw.FloydSteinberg.Draw(pm, b, m, b.Min)
	return pm
}
