// Package planner computes target dimensions for a compression job from a
// scaling rule and the source's natural size.
package planner

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AnyUserName/imgsqueeze/internal/format"
)

// ErrInvalidDimension is returned when a target size cannot be derived.
var ErrInvalidDimension = errors.New("invalid dimension")

// MaxSide is the largest side a fixed width or height target may reach.
const MaxSide = 1 << 16

// Kind selects how a Scale is interpreted.
type Kind int

const (
	KindPercent Kind = iota
	KindWidth
	KindHeight
)

func (k Kind) String() string {
	switch k {
	case KindPercent:
		return "percent"
	case KindWidth:
		return "width"
	case KindHeight:
		return "height"
	}
	return "unknown"
}

// Scale is a scaling rule. Exactly one interpretation is active,
// chosen by Kind. The zero value is Percent(0); use Default for the
// identity transform.
type Scale struct {
	Kind  Kind
	Value int
}

// Percent scales both axes by p percent.
func Percent(p int) Scale { return Scale{Kind: KindPercent, Value: p} }

// FixedWidth scales to width w, deriving height from the aspect ratio.
func FixedWidth(w int) Scale { return Scale{Kind: KindWidth, Value: w} }

// FixedHeight scales to height h, deriving width from the aspect ratio.
func FixedHeight(h int) Scale { return Scale{Kind: KindHeight, Value: h} }

// Default is Percent(100).
func Default() Scale { return Percent(100) }

// Normalize clamps a percentage into [0,100]. Other kinds are returned
// unchanged; non-positive fixed sizes are handled by Plan.
func (s Scale) Normalize() Scale {
	if s.Kind != KindPercent {
		return s
	}
	if s.Value > 100 {
		s.Value = 100
	}
	if s.Value < 0 {
		s.Value = 0
	}
	return s
}

func (s Scale) String() string {
	switch s.Kind {
	case KindWidth:
		return fmt.Sprintf("w:%d", s.Value)
	case KindHeight:
		return fmt.Sprintf("h:%d", s.Value)
	}
	return fmt.Sprintf("%d%%", s.Value)
}

// ParseScale parses "50%", "50", "w:200" or "h:120".
func ParseScale(s string) (Scale, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Default(), nil
	}

	kind := KindPercent
	switch {
	case strings.HasPrefix(s, "w:"):
		kind, s = KindWidth, s[2:]
	case strings.HasPrefix(s, "h:"):
		kind, s = KindHeight, s[2:]
	default:
		s = strings.TrimSuffix(s, "%")
	}

	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return Scale{}, fmt.Errorf("parse scale %q: %w", s, err)
	}
	return Scale{Kind: kind, Value: v}, nil
}

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// Plan returns the target dimensions for an image of natural size w x h.
// Vector sources are never rescaled.
func Plan(f format.Format, w, h int, s Scale) (Dimensions, error) {
	if w < 0 || h < 0 {
		return Dimensions{}, fmt.Errorf("%w: natural size %dx%d", ErrInvalidDimension, w, h)
	}
	natural := Dimensions{Width: w, Height: h}
	if f.IsVector() {
		return natural, nil
	}

	s = s.Normalize()
	switch s.Kind {
	case KindPercent:
		return Dimensions{
			Width:  round(float64(w) * float64(s.Value) / 100),
			Height: round(float64(h) * float64(s.Value) / 100),
		}, nil

	case KindWidth:
		if s.Value <= 0 {
			return natural, nil
		}
		if w == 0 {
			return Dimensions{}, fmt.Errorf("%w: cannot derive height from zero width", ErrInvalidDimension)
		}
		return bounded(float64(s.Value), float64(s.Value)*float64(h)/float64(w))

	case KindHeight:
		if s.Value <= 0 {
			return natural, nil
		}
		if h == 0 {
			return Dimensions{}, fmt.Errorf("%w: cannot derive width from zero height", ErrInvalidDimension)
		}
		return bounded(float64(s.Value)*float64(w)/float64(h), float64(s.Value))
	}

	return Dimensions{}, fmt.Errorf("%w: unknown scale kind %d", ErrInvalidDimension, s.Kind)
}

// bounded rounds a derived size and rejects sides outside [0, MaxSide].
// The check runs on the float so huge values cannot wrap around.
func bounded(w, h float64) (Dimensions, error) {
	rw, rh := math.Round(w), math.Round(h)
	if math.IsNaN(rw) || math.IsNaN(rh) || rw < 0 || rh < 0 || rw > MaxSide || rh > MaxSide {
		return Dimensions{}, fmt.Errorf("%w: target %.0fx%.0f exceeds %d px per side", ErrInvalidDimension, rw, rh, MaxSide)
	}
	return Dimensions{Width: int(rw), Height: int(rh)}, nil
}

func round(v float64) int {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	return int(r)
}
