package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]Format{
		"image/jpeg":                   JPEG,
		"IMAGE/JPEG":                   JPEG,
		"image/jpg":                    JPEG,
		"image/png":                    PNG,
		"image/svg+xml":                SVG,
		"image/svg+xml; charset=utf-8": SVG,
		"image/webp":                   WEBP,
		"image/bmp":                    Unknown,
		"":                             Unknown,
	}
	for mime, want := range cases {
		assert.Equal(t, want, Parse(mime), mime)
	}
}

func TestFromName(t *testing.T) {
	assert.Equal(t, JPEG, FromName("jpg"))
	assert.Equal(t, JPEG, FromName(".JPEG"))
	assert.Equal(t, PNG, FromName("png"))
	assert.Equal(t, SVG, FromName(".svg"))
	assert.Equal(t, WEBP, FromName("webp"))
	assert.Equal(t, Unknown, FromName("gif"))
}

func TestExtensionFor(t *testing.T) {
	for f, want := range map[Format]string{JPEG: "jpeg", PNG: "png", SVG: "svg", WEBP: "webp"} {
		ext, err := ExtensionFor(f)
		require.NoError(t, err)
		assert.Equal(t, want, ext)
	}

	_, err := ExtensionFor(Unknown)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestRegistry_IsSupported(t *testing.T) {
	r := NewRegistry(func(Format) bool { return false })

	assert.True(t, r.IsSupported(JPEG))
	assert.True(t, r.IsSupported(PNG))
	assert.True(t, r.IsSupported(SVG))
	assert.False(t, r.IsSupported(WEBP))
	assert.False(t, r.IsSupported(Unknown))
	assert.Equal(t, []Format{JPEG, PNG, SVG}, r.Supported())
	assert.Equal(t, "formats: jpeg, png, svg", r.String())
}

func TestRegistry_ProbeRunsOnce(t *testing.T) {
	calls := 0
	r := NewRegistry(func(f Format) bool {
		calls++
		return f == WEBP
	})

	for i := 0; i < 5; i++ {
		assert.True(t, r.IsSupported(WEBP))
	}
	assert.Equal(t, 1, calls)

	// Probe is never consulted for always-supported formats.
	r.IsSupported(JPEG)
	assert.Equal(t, 1, calls)
}

func TestDefaultProbe(t *testing.T) {
	assert.True(t, DefaultProbe(WEBP))
	assert.True(t, NewRegistry(nil).IsSupported(WEBP))
}
