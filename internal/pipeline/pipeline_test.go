package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgsqueeze/internal/compress"
	"github.com/AnyUserName/imgsqueeze/internal/format"
	"github.com/AnyUserName/imgsqueeze/internal/hasher"
	"github.com/AnyUserName/imgsqueeze/internal/planner"
	"github.com/AnyUserName/imgsqueeze/internal/report"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: uint8((x * y) % 256), A: 255})
		}
	}
	return img
}

func writeJPEG(t *testing.T, path string, w, h, q int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(w, h), &jpeg.Options{Quality: q}))
	writeFile(t, path, buf.Bytes())
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(w, h)))
	writeFile(t, path, buf.Bytes())
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

const logo = `<?xml version="1.0"?>
<!-- generator comment that is long enough to matter -->
<svg xmlns="http://www.w3.org/2000/svg" width="64" height="32" viewBox="0 0 64 32">
  <metadata>exported by an editor</metadata>
  <rect x="4" y="4" width="20" height="20" fill="#0af"/>
</svg>
`

func registry() *format.Registry {
	return format.NewRegistry(func(format.Format) bool { return true })
}

func fixtures(t *testing.T) string {
	in := t.TempDir()
	writeJPEG(t, filepath.Join(in, "photo.jpg"), 200, 100, 95)
	writePNG(t, filepath.Join(in, "icons", "app.png"), 48, 48)
	writeFile(t, filepath.Join(in, "logo.svg"), []byte(logo))
	writeFile(t, filepath.Join(in, "broken.png"), []byte("not a png at all"))
	writeFile(t, filepath.Join(in, "notes.txt"), []byte("ignored"))
	writePNG(t, filepath.Join(in, ".cache", "hidden.png"), 8, 8)
	return in
}

func TestScanImages(t *testing.T) {
	in := fixtures(t)
	sources, err := ScanImages(in, "")
	require.NoError(t, err)

	byKey := map[string]Source{}
	for _, s := range sources {
		byKey[s.Key] = s
	}
	assert.Len(t, sources, 4)
	assert.Contains(t, byKey, "photo")
	assert.Contains(t, byKey, "icons/app")
	assert.Contains(t, byKey, "logo")
	assert.Contains(t, byKey, "broken")
	assert.Equal(t, format.JPEG, byKey["photo"].Format)
	assert.Equal(t, "icons/app.png", byKey["icons/app"].RelPath)
}

func TestScanImages_SkipsOutputDir(t *testing.T) {
	in := fixtures(t)
	out := filepath.Join(in, "out")
	writePNG(t, filepath.Join(out, "old.png"), 4, 4)

	sources, err := ScanImages(in, out)
	require.NoError(t, err)
	for _, s := range sources {
		assert.NotEqual(t, "out/old", s.Key)
	}
}

func TestRun(t *testing.T) {
	in := fixtures(t)
	out := t.TempDir()

	p := New(Config{
		InputDir:  in,
		OutputDir: out,
		Profile:   "test",
		Options:   compress.Options{Quality: 50, Scale: planner.Percent(50)},
		Workers:   2,
		Registry:  registry(),
	})
	r, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "test", r.Profile)
	assert.Equal(t, 50, r.Quality)
	assert.Equal(t, "50%", r.Scale)
	assert.Len(t, r.Entries, 3)
	assert.Contains(t, r.Failures, "broken.png")
	assert.Equal(t, 1, r.Stats.Failed)
	assert.Equal(t, 3, r.Stats.TotalOutputs)

	photo := r.Entries["photo.jpg"]
	require.NotNil(t, photo.Output)
	assert.Equal(t, "photo.jpeg", photo.Output.Path)
	assert.Equal(t, 100, photo.Output.Width)
	assert.Equal(t, 50, photo.Output.Height)
	assert.Equal(t, "raster-lossy", photo.Output.Strategy)

	icon := r.Entries["icons/app.png"]
	require.NotNil(t, icon.Output)
	assert.Equal(t, "icons/app.png", icon.Output.Path)
	assert.Equal(t, 128, icon.Output.PaletteSize)

	svg := r.Entries["logo.svg"]
	require.NotNil(t, svg.Output)
	assert.Equal(t, 64, svg.Output.Width)
	assert.False(t, svg.Output.ScaleApplied)

	for _, e := range r.Entries {
		_, err := os.Stat(filepath.Join(out, filepath.FromSlash(e.Output.Path)))
		assert.NoError(t, err, e.Output.Path)
	}

	require.NoError(t, report.WriteJSON(r, filepath.Join(out, report.FileName)))
	assert.Empty(t, report.Validate(r, out))
}

func TestRun_HashNames(t *testing.T) {
	in := t.TempDir()
	writeJPEG(t, filepath.Join(in, "a.jpg"), 64, 64, 95)

	r, err := New(Config{
		InputDir: in, OutputDir: t.TempDir(), Options: compress.DefaultOptions(),
		HashNames: true, Registry: registry(),
	}).Run(context.Background())
	require.NoError(t, err)

	e := r.Entries["a.jpg"]
	require.NotNil(t, e.Output)
	assert.Regexp(t, regexp.MustCompile(`^a\.[0-9a-f]{8}\.jpeg$`), e.Output.Path)
	assert.Equal(t, e.Output.Hash[:8], e.Output.Path[2:10])
}

func TestRun_NoRegressSize(t *testing.T) {
	in := t.TempDir()
	writeJPEG(t, filepath.Join(in, "tiny.jpg"), 64, 64, 5)
	out := t.TempDir()

	r, err := New(Config{
		InputDir: in, OutputDir: out,
		Options:       compress.Options{Quality: 100, Scale: planner.Default()},
		NoRegressSize: true, Registry: registry(),
	}).Run(context.Background())
	require.NoError(t, err)

	e := r.Entries["tiny.jpg"]
	assert.Nil(t, e.Output)
	assert.Equal(t, report.SkippedRegress, e.Skipped)
	assert.Equal(t, 1, r.Stats.SkippedRegress)

	_, err = os.Stat(filepath.Join(out, "tiny.jpeg"))
	assert.True(t, os.IsNotExist(err))
}

func TestRun_Errors(t *testing.T) {
	empty := t.TempDir()
	_, err := New(Config{InputDir: empty, OutputDir: t.TempDir()}).Run(context.Background())
	assert.Error(t, err)

	_, err = New(Config{InputDir: empty, OutputDir: empty}).Run(context.Background())
	assert.Error(t, err)

	bad := t.TempDir()
	writeFile(t, filepath.Join(bad, "x.png"), []byte("nope"))
	_, err = New(Config{InputDir: bad, OutputDir: t.TempDir(), Registry: registry()}).Run(context.Background())
	assert.ErrorContains(t, err, "all 1 images failed")
}

func TestNewSource(t *testing.T) {
	in := t.TempDir()
	path := filepath.Join(in, "sub", "pic.JPG")
	writeJPEG(t, path, 4, 4, 80)

	s, err := NewSource(in, path)
	require.NoError(t, err)
	assert.Equal(t, "sub/pic", s.Key)
	assert.Equal(t, format.JPEG, s.Format)
	assert.True(t, IsImage(path))
	assert.False(t, IsImage("a.gif"))

	_, err = NewSource(in, filepath.Join(t.TempDir(), "x.png"))
	assert.Error(t, err)
}

func TestScanImages_SharedStemKeepsExtension(t *testing.T) {
	in := t.TempDir()
	writeJPEG(t, filepath.Join(in, "a.jpg"), 8, 8, 80)
	writeJPEG(t, filepath.Join(in, "a.jpeg"), 8, 8, 80)
	writePNG(t, filepath.Join(in, "sub", "a.png"), 8, 8)

	sources, err := ScanImages(in, "")
	require.NoError(t, err)

	keys := map[string]string{}
	for _, s := range sources {
		keys[s.RelPath] = s.Key
	}
	assert.Equal(t, "a.jpg", keys["a.jpg"])
	assert.Equal(t, "a.jpeg", keys["a.jpeg"])
	assert.Equal(t, "sub/a", keys["sub/a.png"])
}

func TestRun_SharedStemWritesDistinctOutputs(t *testing.T) {
	in := t.TempDir()
	writeJPEG(t, filepath.Join(in, "a.jpg"), 64, 32, 95)
	writeJPEG(t, filepath.Join(in, "a.jpeg"), 32, 64, 95)
	out := t.TempDir()

	r, err := New(Config{
		InputDir: in, OutputDir: out, Options: compress.DefaultOptions(), Registry: registry(),
	}).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, r.Failures)

	jpg, jpeg := r.Entries["a.jpg"].Output, r.Entries["a.jpeg"].Output
	require.NotNil(t, jpg)
	require.NotNil(t, jpeg)
	assert.Equal(t, "a.jpg.jpeg", jpg.Path)
	assert.Equal(t, "a.jpeg.jpeg", jpeg.Path)
	assert.Equal(t, 64, jpg.Width)
	assert.Equal(t, 32, jpeg.Width)
	assert.Empty(t, report.Validate(r, out))
}

func TestRun_MislabelledSourceDoesNotOverwrite(t *testing.T) {
	in := t.TempDir()
	// x.jpg holds PNG data, so its output is a .png like its neighbour's.
	writePNG(t, filepath.Join(in, "x.jpg"), 16, 16)
	writePNG(t, filepath.Join(in, "x.png"), 24, 24)
	out := t.TempDir()

	r, err := New(Config{
		InputDir: in, OutputDir: out, Options: compress.DefaultOptions(), Registry: registry(),
	}).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, r.Failures)

	a, b := r.Entries["x.jpg"].Output, r.Entries["x.png"].Output
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, "x.jpg.png", a.Path)
	assert.Equal(t, "x.png.png", b.Path)
	assert.Empty(t, report.Validate(r, out))
}

func TestProcess_RefusesOutputOfAnotherSource(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeJPEG(t, filepath.Join(in, "one.jpg"), 32, 32, 95)
	writeJPEG(t, filepath.Join(in, "two.jpg"), 16, 16, 95)

	one, err := NewSource(in, filepath.Join(in, "one.jpg"))
	require.NoError(t, err)
	two, err := NewSource(in, filepath.Join(in, "two.jpg"))
	require.NoError(t, err)
	two.Key = one.Key

	p := New(Config{InputDir: in, OutputDir: out, Options: compress.DefaultOptions(), Registry: registry()})
	first, err := p.Process(context.Background(), one)
	require.NoError(t, err)
	written, err := os.ReadFile(filepath.Join(out, "one.jpeg"))
	require.NoError(t, err)

	_, err = p.Process(context.Background(), two)
	assert.ErrorContains(t, err, "already written for one.jpg")

	after, err := os.ReadFile(filepath.Join(out, "one.jpeg"))
	require.NoError(t, err)
	assert.Equal(t, written, after)
	assert.Equal(t, first.Output.Hash, hasher.ContentHash(after, 16))

	// The same source may rewrite its own output.
	_, err = p.Process(context.Background(), one)
	assert.NoError(t, err)
}

func TestNewSourceIn(t *testing.T) {
	in := t.TempDir()
	single := filepath.Join(in, "sub", "pic.jpg")
	writeJPEG(t, single, 4, 4, 80)

	s, err := NewSourceIn(in, single)
	require.NoError(t, err)
	assert.Equal(t, "sub/pic", s.Key)

	writePNG(t, filepath.Join(in, "sub", "pic.png"), 4, 4)
	writeFile(t, filepath.Join(in, "sub", "pic.txt"), []byte("not an image"))
	s, err = NewSourceIn(in, single)
	require.NoError(t, err)
	assert.Equal(t, "sub/pic.jpg", s.Key)
}
