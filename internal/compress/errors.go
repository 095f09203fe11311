package compress

import (
	"errors"
	"fmt"
)

// Failure kinds. Every failed job returns an *Error matching exactly one of
// these through errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrDecode            = errors.New("decode error")
	ErrInvalidDimension  = errors.New("invalid dimension")
	ErrEncode            = errors.New("encode error")
)

// ErrJobDone is returned when Run is called on a job that already
// finished, successfully or not.
var ErrJobDone = errors.New("job already ran")

// Error is a step failure: Op names the step, Kind is one of the sentinel
// errors above and Err is the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the failure kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

func fail(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}
