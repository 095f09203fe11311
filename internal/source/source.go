// Package source supplies raw image bytes and their MIME type to the
// compressor from in-memory buffers, files or URLs.
package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
)

// Blob is a fetched source: raw bytes plus a lowercase MIME type.
type Blob struct {
	Data []byte
	MIME string
	// Name is a display name derived from the locator, without extension.
	Name string
}

// Provider fetches a Blob. Implementations fail when the locator is
// unreachable.
type Provider interface {
	Fetch(ctx context.Context) (*Blob, error)
}

// Detect sniffs the MIME type of data. Markup that mentions an <svg> root
// is reported as image/svg+xml even when the sniffer only sees XML/text.
func Detect(data []byte) string {
	m := mimetype.Detect(data)
	mime := strings.ToLower(m.String())
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "image/svg+xml" {
		return mime
	}
	if m.Is("text/xml") || m.Is("text/plain") || m.Is("application/xml") || m.Is("text/html") {
		if bytes.Contains(data, []byte("<svg")) {
			return "image/svg+xml"
		}
	}
	return mime
}

type bytesProvider struct {
	data []byte
	mime string
}

// Bytes serves data directly. An empty mime is sniffed from the content.
func Bytes(data []byte, mime string) Provider {
	return &bytesProvider{data: data, mime: mime}
}

func (p *bytesProvider) Fetch(context.Context) (*Blob, error) {
	if len(p.data) == 0 {
		return nil, fmt.Errorf("source: empty buffer")
	}
	mime := strings.ToLower(strings.TrimSpace(p.mime))
	if mime == "" {
		mime = Detect(p.data)
	}
	return &Blob{Data: p.data, MIME: mime}, nil
}

type fileProvider struct {
	path string
}

// File reads the image at path.
func File(path string) Provider {
	return &fileProvider{path: path}
}

func (p *fileProvider) Fetch(ctx context.Context) (*Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", p.path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("source: %s is empty", p.path)
	}
	return &Blob{Data: data, MIME: Detect(data), Name: stem(p.path)}, nil
}

type urlProvider struct {
	locator string
	client  *resty.Client
}

// URL downloads the image at locator. A nil client uses resty defaults.
func URL(locator string, client *resty.Client) Provider {
	if client == nil {
		client = resty.New()
	}
	return &urlProvider{locator: locator, client: client}
}

func (p *urlProvider) Fetch(ctx context.Context) (*Blob, error) {
	resp, err := p.client.R().SetContext(ctx).Get(p.locator)
	if err != nil {
		return nil, fmt.Errorf("source: get %s: %w", p.locator, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("source: get %s: invalid response status (%d)", p.locator, resp.StatusCode())
	}
	data := resp.Body()
	if len(data) == 0 {
		return nil, fmt.Errorf("source: get %s: empty body", p.locator)
	}

	mime := strings.ToLower(resp.Header().Get("Content-Type"))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if !strings.HasPrefix(mime, "image/") {
		mime = Detect(data)
	}

	var name string
	if u, err := url.Parse(p.locator); err == nil {
		name = stem(u.Path)
	}
	return &Blob{Data: data, MIME: mime, Name: name}, nil
}

// IsURL reports whether locator looks like an http(s) URL.
func IsURL(locator string) bool {
	l := strings.ToLower(locator)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

func stem(p string) string {
	base := filepath.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
