package format

import (
	"bytes"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/chai2010/webp"
)

// Probe reports whether the environment can encode f. It is only
// consulted for formats whose support depends on the host (WEBP).
type Probe func(f Format) bool

// Registry answers which formats the compressor accepts.
type Registry struct {
	probe Probe

	once sync.Once
	webp bool
}

// NewRegistry creates a registry using probe for host-dependent formats.
// A nil probe means DefaultProbe.
func NewRegistry(probe Probe) *Registry {
	if probe == nil {
		probe = DefaultProbe
	}
	return &Registry{probe: probe}
}

// IsSupported returns true for JPEG, PNG and SVG, and for WEBP when the
// capability probe passes. The probe runs at most once per registry.
func (r *Registry) IsSupported(f Format) bool {
	switch f {
	case JPEG, PNG, SVG:
		return true
	case WEBP:
		r.once.Do(func() {
			r.webp = r.probe(WEBP)
		})
		return r.webp
	}
	return false
}

// Supported returns all supported formats in a stable order.
func (r *Registry) Supported() []Format {
	var out []Format
	for _, f := range []Format{JPEG, PNG, SVG, WEBP} {
		if r.IsSupported(f) {
			out = append(out, f)
		}
	}
	return out
}

// String returns a summary of supported formats.
func (r *Registry) String() string {
	var names []string
	for _, f := range r.Supported() {
		names = append(names, f.String())
	}
	return fmt.Sprintf("formats: %s", strings.Join(names, ", "))
}

// DefaultProbe checks WEBP support by encoding a 1x1 image and looking
// for the RIFF/WEBP container signature in the output.
func DefaultProbe(f Format) bool {
	if f != WEBP {
		return true
	}
	var buf bytes.Buffer
	m := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	if err := webp.Encode(&buf, m, &webp.Options{Quality: 50}); err != nil {
		return false
	}
	b := buf.Bytes()
	return len(b) >= 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP"
}
