// Package export turns compression results into files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/imgsqueeze/internal/compress"
	"github.com/AnyUserName/imgsqueeze/internal/format"
)

// DefaultName is used when the source has no usable name.
const DefaultName = "download"

// FileName returns name + "." + the extension for f. An empty name
// becomes DefaultName.
func FileName(name string, f format.Format) (string, error) {
	ext, err := format.ExtensionFor(f)
	if err != nil {
		return "", err
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		name = DefaultName
	}
	return name + "." + ext, nil
}

// Save writes res into dir under FileName(name, res.Format) and returns
// the written path. The directory is created when missing.
func Save(dir, name string, res *compress.Result) (string, error) {
	if res == nil || len(res.Data) == 0 {
		return "", fmt.Errorf("export: no result to save")
	}
	file, err := FileName(filepath.Base(name), res.Format)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("export: create dir: %w", err)
	}

	path := filepath.Join(dir, file)
	if err := os.WriteFile(path, res.Data, 0o644); err != nil {
		return "", fmt.Errorf("export: write %s: %w", path, err)
	}
	return path, nil
}
