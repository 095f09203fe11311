// Package compress runs one image through validate, decode, plan and
// encode, producing a smaller image of the same format.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"unicode/utf8"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/AnyUserName/imgsqueeze/internal/codec"
	"github.com/AnyUserName/imgsqueeze/internal/format"
	"github.com/AnyUserName/imgsqueeze/internal/planner"
	"github.com/AnyUserName/imgsqueeze/internal/source"
	"github.com/AnyUserName/imgsqueeze/internal/svgo"
)

// State is the lifecycle position of a job.
type State int

const (
	Pending State = iota
	Decoded
	Planned
	Encoded
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Decoded:
		return "decoded"
	case Planned:
		return "planned"
	case Encoded:
		return "encoded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Source is the decoded input of a job. Immutable once created.
type Source struct {
	Name   string
	MIME   string
	Format format.Format
	Width  int
	Height int
	Data   []byte
	Size   int
}

// Result is the output of a successful job. Data must not be modified.
type Result struct {
	Width  int
	Height int
	Data   []byte
	Format format.Format
	Size   int

	SourceSize  int
	Strategy    codec.Kind
	PaletteSize int

	// ScaleApplied and QualityApplied are false for vector sources, which
	// keep their natural size and ignore quality.
	ScaleApplied   bool
	QualityApplied bool
}

// Ratio returns output size over source size.
func (r *Result) Ratio() float64 {
	if r.SourceSize == 0 {
		return 0
	}
	return float64(r.Size) / float64(r.SourceSize)
}

// MIME returns the MIME type of the output.
func (r *Result) MIME() string { return r.Format.MIME() }

// Job compresses one source. A job runs at most once; it is not safe for
// concurrent use, but separate jobs share nothing and may run in parallel.
type Job struct {
	src      source.Provider
	opts     Options
	registry *format.Registry
	codecs   codec.Set

	state   State
	source  *Source
	decoded image.Image
	target  planner.Dimensions
	result  *Result
	err     error
}

// NewJob creates a pending job. Options are normalised here.
func NewJob(src source.Provider, opts Options, deps ...Option) *Job {
	j := &Job{
		src:    src,
		opts:   opts.Normalize(),
		codecs: codec.DefaultSet(),
	}
	for _, o := range deps {
		o(j)
	}
	if j.registry == nil {
		j.registry = format.NewRegistry(nil)
	}
	return j
}

// Compress creates a job and runs it. The job is returned even when it
// failed so callers can inspect its state.
func Compress(ctx context.Context, src source.Provider, opts Options, deps ...Option) (*Job, error) {
	j := NewJob(src, opts, deps...)
	return j, j.Run(ctx)
}

func (j *Job) State() State { return j.state }

func (j *Job) Options() Options { return j.opts }

// Source returns the validated source, or nil before decoding.
func (j *Job) Source() *Source { return j.source }

// Target returns the planned output size. Zero before planning.
func (j *Job) Target() planner.Dimensions { return j.target }

// Result returns the output, or nil unless the job is Encoded.
func (j *Job) Result() *Result { return j.result }

// Err returns the failure of a Failed job.
func (j *Job) Err() error { return j.err }

// Run executes the job. The context is checked between steps; a step in
// progress is never interrupted. Run on a terminal job returns ErrJobDone.
func (j *Job) Run(ctx context.Context) error {
	if j.state != Pending {
		return ErrJobDone
	}

	steps := []func(context.Context) error{j.decode, j.plan, j.encode}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return j.failed(err)
		}
		if err := step(ctx); err != nil {
			return j.failed(err)
		}
	}
	return nil
}

func (j *Job) failed(err error) error {
	j.state = Failed
	j.err = err
	j.decoded = nil
	j.result = nil
	return err
}

func (j *Job) decode(ctx context.Context) error {
	if j.src == nil {
		return fail("fetch", ErrDecode, fmt.Errorf("no source"))
	}
	blob, err := j.src.Fetch(ctx)
	if err != nil {
		return fail("fetch", ErrDecode, err)
	}

	f := format.Parse(blob.MIME)
	if !j.registry.IsSupported(f) {
		return fail("validate", ErrUnsupportedFormat, fmt.Errorf("%q", blob.MIME))
	}

	src := &Source{
		Name:   blob.Name,
		MIME:   blob.MIME,
		Format: f,
		Data:   blob.Data,
		Size:   len(blob.Data),
	}

	if f.IsVector() {
		if !utf8.Valid(blob.Data) {
			return fail("decode", ErrDecode, fmt.Errorf("svg markup is not valid UTF-8"))
		}
		w, h, err := svgo.Size(blob.Data)
		if err != nil {
			return fail("decode", ErrDecode, err)
		}
		src.Width, src.Height = w, h
	} else {
		m, err := imaging.Decode(bytes.NewReader(blob.Data), imaging.AutoOrientation(true))
		if err != nil {
			return fail("decode", ErrDecode, err)
		}
		b := m.Bounds()
		src.Width, src.Height = b.Dx(), b.Dy()
		j.decoded = m
	}

	j.source = src
	j.state = Decoded
	return nil
}

func (j *Job) plan(context.Context) error {
	d, err := planner.Plan(j.source.Format, j.source.Width, j.source.Height, j.opts.Scale)
	if err != nil {
		return fail("plan", ErrInvalidDimension, err)
	}
	j.target = d
	j.state = Planned
	return nil
}

func (j *Job) encode(ctx context.Context) error {
	out, err := j.codecs.Encode(ctx, codec.Input{
		Format:  j.source.Format,
		Image:   j.decoded,
		Markup:  j.vectorMarkup(),
		Width:   j.target.Width,
		Height:  j.target.Height,
		Quality: j.opts.Quality,
	})
	if err != nil {
		return fail("encode", ErrEncode, err)
	}

	raster := out.Kind != codec.Vector
	j.result = &Result{
		Width:          j.target.Width,
		Height:         j.target.Height,
		Data:           out.Data,
		Format:         j.source.Format,
		Size:           len(out.Data),
		SourceSize:     j.source.Size,
		Strategy:       out.Kind,
		PaletteSize:    out.PaletteSize,
		ScaleApplied:   raster,
		QualityApplied: raster,
	}
	j.decoded = nil
	j.state = Encoded
	return nil
}

func (j *Job) vectorMarkup() []byte {
	if !j.source.Format.IsVector() {
		return nil
	}
	return j.source.Data
}
