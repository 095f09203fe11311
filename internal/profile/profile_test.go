package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgsqueeze/internal/planner"
)

func TestBuiltin_Get(t *testing.T) {
	p := Builtin().Get("web")
	assert.Equal(t, "web", p.Name)
	assert.Equal(t, 70, p.Quality)
	assert.True(t, p.HashNames)

	p = Builtin().Get("")
	assert.Equal(t, DefaultName, p.Name)
	assert.Equal(t, 75, p.Quality)

	p = Builtin().Get("nope")
	assert.Equal(t, "nope", p.Name)
	assert.Equal(t, 75, p.Quality)
}

func TestBuiltinOptions(t *testing.T) {
	for _, name := range Builtin().Names() {
		o, err := Builtin().Get(name).Options()
		require.NoError(t, err, name)
		assert.GreaterOrEqual(t, o.Quality, 0)
		assert.LessOrEqual(t, o.Quality, 100)
	}

	o, err := Builtin().Get("thumbnail").Options()
	require.NoError(t, err)
	assert.Equal(t, planner.FixedWidth(320), o.Scale)
}

func TestBuiltinIsCopied(t *testing.T) {
	s := Builtin()
	s["web"] = Profile{Name: "web", Quality: 1}
	assert.Equal(t, 70, Builtin().Get("web").Quality)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
web:
  quality: 65
banner:
  quality: 80
  scale: "h:400"
  hash_names: true
`), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)

	web := s.Get("web")
	assert.Equal(t, 65, web.Quality)
	assert.Equal(t, "w:1600", web.Scale)
	assert.True(t, web.NoRegressSize)

	banner := s.Get("banner")
	assert.Equal(t, "banner", banner.Name)
	assert.Equal(t, 80, banner.Quality)
	o, err := banner.Options()
	require.NoError(t, err)
	assert.Equal(t, planner.FixedHeight(400), o.Scale)

	assert.Equal(t, []string{"archive", "banner", "default", "thumbnail", "web"}, s.Names())
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte("web: [1, 2"))
	assert.Error(t, err)

	_, err = Parse([]byte("web:\n  scale: huge\n"))
	assert.Error(t, err)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestOptionsClamp(t *testing.T) {
	o, err := Profile{Quality: 140, Scale: "180%"}.Options()
	require.NoError(t, err)
	assert.Equal(t, 100, o.Quality)
	assert.Equal(t, planner.Percent(100), o.Scale)
}
