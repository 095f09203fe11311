// Package codec holds the per-format encode strategies. A format selects
// exactly one strategy for the lifetime of a job.
package codec

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/AnyUserName/imgsqueeze/internal/format"
	"github.com/AnyUserName/imgsqueeze/internal/quantize"
	"github.com/AnyUserName/imgsqueeze/internal/surface"
	"github.com/AnyUserName/imgsqueeze/internal/svgo"
)

// Kind names an encode strategy.
type Kind int

const (
	RasterLossy Kind = iota + 1
	RasterIndexed
	Vector
)

func (k Kind) String() string {
	switch k {
	case RasterLossy:
		return "raster-lossy"
	case RasterIndexed:
		return "raster-indexed"
	case Vector:
		return "vector"
	}
	return "unknown"
}

// ErrEmptyOutput is returned when a collaborator produced no bytes.
var ErrEmptyOutput = errors.New("codec produced empty output")

// MinPalette is the smallest palette budget handed to the PNG encoder.
const MinPalette = 2

// KindFor selects the strategy for f.
func KindFor(f format.Format) (Kind, error) {
	switch f {
	case format.JPEG, format.WEBP:
		return RasterLossy, nil
	case format.PNG:
		return RasterIndexed, nil
	case format.SVG:
		return Vector, nil
	}
	return 0, fmt.Errorf("no strategy for %s: %w", f, format.ErrUnknownFormat)
}

// PaletteBudget maps quality 0..100 to a palette size in
// [MinPalette, quantize.MaxColors].
func PaletteBudget(quality int) int {
	n := int(math.Round(256 * float64(quality) / 100))
	if n < MinPalette {
		n = MinPalette
	}
	if n > quantize.MaxColors {
		n = quantize.MaxColors
	}
	return n
}

// Input is everything a strategy may read. Raster strategies use Image,
// the vector strategy uses Markup.
type Input struct {
	Format  format.Format
	Image   image.Image
	Markup  []byte
	Width   int
	Height  int
	Quality int
}

// Output is the encoded result of one strategy run.
type Output struct {
	Data        []byte
	Kind        Kind
	PaletteSize int
}

// Strategy encodes one family of formats.
type Strategy interface {
	Kind() Kind
	Encode(ctx context.Context, in Input) (Output, error)
}

// Set binds one strategy per Kind.
type Set struct {
	Lossy   Strategy
	Indexed Strategy
	Vector  Strategy
}

// DefaultSet returns the production strategies.
func DefaultSet() Set {
	return Set{
		Lossy:   LossyStrategy{EncoderFor: surface.LossyEncoderFor},
		Indexed: IndexedStrategy{Quantize: quantize.Encode},
		Vector:  VectorStrategy{Optimize: svgo.Optimize},
	}
}

// For returns the strategy bound to k.
func (s Set) For(k Kind) (Strategy, error) {
	var st Strategy
	switch k {
	case RasterLossy:
		st = s.Lossy
	case RasterIndexed:
		st = s.Indexed
	case Vector:
		st = s.Vector
	default:
		return nil, fmt.Errorf("unknown strategy kind %d", k)
	}
	if st == nil {
		return nil, fmt.Errorf("no %s strategy configured", k)
	}
	return st, nil
}

// Encode selects the strategy for in.Format and runs it.
func (s Set) Encode(ctx context.Context, in Input) (Output, error) {
	k, err := KindFor(in.Format)
	if err != nil {
		return Output{}, err
	}
	st, err := s.For(k)
	if err != nil {
		return Output{}, err
	}
	out, err := st.Encode(ctx, in)
	if err != nil {
		return Output{}, err
	}
	if len(out.Data) == 0 {
		return Output{}, fmt.Errorf("%s: %w", k, ErrEmptyOutput)
	}
	return out, nil
}
