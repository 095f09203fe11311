package format

import (
	"errors"
	"strings"
)

// Format identifies an image encoding the compressor knows about.
type Format int

const (
	Unknown Format = iota
	JPEG
	PNG
	SVG
	WEBP
)

// ErrUnknownFormat is returned for formats outside the supported set.
var ErrUnknownFormat = errors.New("unknown image format")

// MIME types as reported by source providers.
const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMESVG  = "image/svg+xml"
	MIMEWEBP = "image/webp"
)

var byMIME = map[string]Format{
	MIMEJPEG:    JPEG,
	"image/jpg": JPEG,
	MIMEPNG:     PNG,
	MIMESVG:     SVG,
	MIMEWEBP:    WEBP,
}

// Parse maps a MIME-like identifier to a Format. Parameters such as
// "; charset=utf-8" are ignored. Unrecognised types map to Unknown.
func Parse(mime string) Format {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return byMIME[mime]
}

// MIME returns the canonical MIME type, or "" for Unknown.
func (f Format) MIME() string {
	switch f {
	case JPEG:
		return MIMEJPEG
	case PNG:
		return MIMEPNG
	case SVG:
		return MIMESVG
	case WEBP:
		return MIMEWEBP
	}
	return ""
}

func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	case SVG:
		return "svg"
	case WEBP:
		return "webp"
	}
	return "unknown"
}

// IsVector reports whether f is resolution-independent markup.
func (f Format) IsVector() bool { return f == SVG }

// ExtensionFor returns the file extension (without dot) for f.
func ExtensionFor(f Format) (string, error) {
	switch f {
	case JPEG:
		return "jpeg", nil
	case PNG:
		return "png", nil
	case SVG:
		return "svg", nil
	case WEBP:
		return "webp", nil
	}
	return "", ErrUnknownFormat
}

// FromName maps a format name or file extension ("jpg", ".png", "svg")
// to a Format.
func FromName(name string) Format {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".") {
	case "jpeg", "jpg":
		return JPEG
	case "png":
		return PNG
	case "svg":
		return SVG
	case "webp":
		return WEBP
	}
	return Unknown
}
