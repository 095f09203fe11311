package source

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func encoded(t *testing.T, enc func(*bytes.Buffer, image.Image) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, image.NewNRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	return encoded(t, func(b *bytes.Buffer, m image.Image) error { return png.Encode(b, m) })
}

func jpegBytes(t *testing.T) []byte {
	return encoded(t, func(b *bytes.Buffer, m image.Image) error { return jpeg.Encode(b, m, nil) })
}

func bmpBytes(t *testing.T) []byte {
	return encoded(t, func(b *bytes.Buffer, m image.Image) error { return bmp.Encode(b, m) })
}

func TestDetect(t *testing.T) {
	assert.Equal(t, "image/png", Detect(pngBytes(t)))
	assert.Equal(t, "image/jpeg", Detect(jpegBytes(t)))
	assert.Equal(t, "image/bmp", Detect(bmpBytes(t)))
	assert.Equal(t, "image/svg+xml", Detect([]byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)))
	assert.Equal(t, "image/svg+xml", Detect([]byte(`<?xml version="1.0"?>`+"\n"+`<svg width="1" height="1"></svg>`)))
}

func TestBytes(t *testing.T) {
	blob, err := Bytes(pngBytes(t), "").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image/png", blob.MIME)

	blob, err = Bytes([]byte("<svg/>"), "IMAGE/SVG+XML").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", blob.MIME)
	assert.Empty(t, blob.Name)

	_, err = Bytes(nil, "").Fetch(context.Background())
	assert.Error(t, err)
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "banner.jpg")
	require.NoError(t, os.WriteFile(path, jpegBytes(t), 0o644))

	blob, err := File(path).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", blob.MIME)
	assert.Equal(t, "banner", blob.Name)

	_, err = File(filepath.Join(dir, "missing.png")).Fetch(context.Background())
	assert.Error(t, err)
}

func TestURL(t *testing.T) {
	client := resty.New()
	httpmock.ActivateNonDefault(client.GetClient())
	defer httpmock.DeactivateAndReset()

	data := pngBytes(t)
	httpmock.RegisterResponder("GET", "https://example.net/img/cat.png",
		func(req *http.Request) (*http.Response, error) {
			rsp := httpmock.NewBytesResponse(200, data)
			rsp.Header.Set("Content-Type", "image/PNG; charset=binary")
			return rsp, nil
		})
	httpmock.RegisterResponder("GET", "https://example.net/raw",
		httpmock.NewBytesResponder(200, data))
	httpmock.RegisterResponder("GET", "https://example.net/missing",
		httpmock.NewStringResponder(404, "not found"))

	t.Run("content type", func(t *testing.T) {
		blob, err := URL("https://example.net/img/cat.png", client).Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "image/png", blob.MIME)
		assert.Equal(t, "cat", blob.Name)
		assert.Equal(t, data, blob.Data)
	})

	t.Run("sniffed", func(t *testing.T) {
		blob, err := URL("https://example.net/raw", client).Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "image/png", blob.MIME)
	})

	t.Run("status", func(t *testing.T) {
		_, err := URL("https://example.net/missing", client).Fetch(context.Background())
		assert.Error(t, err)
	})
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://example.net/a.png"))
	assert.True(t, IsURL("HTTP://example.net"))
	assert.False(t, IsURL("./a.png"))
}
