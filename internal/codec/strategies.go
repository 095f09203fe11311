package codec

import (
	"context"
	"fmt"

	"github.com/AnyUserName/imgsqueeze/internal/format"
	"github.com/AnyUserName/imgsqueeze/internal/surface"
	"github.com/AnyUserName/imgsqueeze/internal/svgo"
)

// LossyStrategy draws to the target surface and re-encodes in the source
// format at the requested quality. JPEG stays JPEG and WEBP stays WEBP.
type LossyStrategy struct {
	EncoderFor func(format.Format) surface.LossyEncoder
}

func (LossyStrategy) Kind() Kind { return RasterLossy }

func (s LossyStrategy) Encode(_ context.Context, in Input) (Output, error) {
	enc := s.EncoderFor(in.Format)
	if enc == nil {
		return Output{}, fmt.Errorf("no lossy encoder for %s", in.Format)
	}
	if in.Image == nil {
		return Output{}, fmt.Errorf("lossy: no decoded image")
	}

	m, err := surface.Draw(in.Image, in.Width, in.Height)
	if err != nil {
		return Output{}, err
	}
	data, err := surface.EncodeLossy(enc, m, in.Quality)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: data, Kind: RasterLossy}, nil
}

// IndexedStrategy draws to the target surface and hands the raw pixels to
// an indexed-colour PNG encoder with a quality-derived palette budget.
type IndexedStrategy struct {
	Quantize func(frames [][]byte, w, h, colors int) ([]byte, error)
}

func (IndexedStrategy) Kind() Kind { return RasterIndexed }

func (s IndexedStrategy) Encode(_ context.Context, in Input) (Output, error) {
	if in.Image == nil {
		return Output{}, fmt.Errorf("indexed: no decoded image")
	}

	m, err := surface.Draw(in.Image, in.Width, in.Height)
	if err != nil {
		return Output{}, err
	}
	budget := PaletteBudget(in.Quality)
	data, err := s.Quantize([][]byte{surface.Pixels(m)}, in.Width, in.Height, budget)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: data, Kind: RasterIndexed, PaletteSize: budget}, nil
}

// VectorOptions keeps the viewBox so the output still scales and drops the
// hardcoded width/height so it stays responsive.
var VectorOptions = svgo.Options{Plugins: []svgo.Plugin{
	{Name: svgo.RemoveViewBox, Active: false},
	{Name: svgo.RemoveDimensions, Active: true},
}}

// VectorStrategy optimises markup structurally. Quality and target size
// have no effect.
type VectorStrategy struct {
	Optimize func(markup string, opts svgo.Options) (svgo.Result, error)
}

func (VectorStrategy) Kind() Kind { return Vector }

func (s VectorStrategy) Encode(_ context.Context, in Input) (Output, error) {
	if len(in.Markup) == 0 {
		return Output{}, fmt.Errorf("vector: no markup")
	}
	res, err := s.Optimize(string(in.Markup), VectorOptions)
	if err != nil {
		return Output{}, err
	}
	return Output{Data: []byte(res.Data), Kind: Vector}, nil
}
