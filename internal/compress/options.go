package compress

import (
	"github.com/AnyUserName/imgsqueeze/internal/codec"
	"github.com/AnyUserName/imgsqueeze/internal/format"
	"github.com/AnyUserName/imgsqueeze/internal/planner"
)

// DefaultQuality is used when no quality is given.
const DefaultQuality = 75

// Options controls a job. The zero value means quality 0 at 0% scale;
// start from DefaultOptions.
type Options struct {
	// Quality is 0-100; higher keeps more detail and produces larger output.
	Quality int
	Scale   planner.Scale
}

// DefaultOptions returns quality 75 at 100% scale.
func DefaultOptions() Options {
	return Options{Quality: DefaultQuality, Scale: planner.Default()}
}

// Normalize clamps quality into [0,100] and the scale percentage into
// [0,100].
func (o Options) Normalize() Options {
	if o.Quality < 0 {
		o.Quality = 0
	}
	if o.Quality > 100 {
		o.Quality = 100
	}
	o.Scale = o.Scale.Normalize()
	return o
}

// Option injects a collaborator into a job.
type Option func(*Job)

// WithRegistry sets the format registry. Share one registry between jobs
// so the capability probe runs once per process.
func WithRegistry(r *format.Registry) Option {
	return func(j *Job) { j.registry = r }
}

// WithStrategies replaces the codec strategies.
func WithStrategies(s codec.Set) Option {
	return func(j *Job) { j.codecs = s }
}
