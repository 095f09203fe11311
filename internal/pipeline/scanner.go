package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AnyUserName/imgsqueeze/internal/format"
)

// Source represents a discovered image file.
type Source struct {
	// AbsPath is the absolute path to the file on disk.
	AbsPath string
	// RelPath is the path relative to the input directory, with forward
	// slashes.
	RelPath string
	// Key is the output path stem: RelPath without its extension, or the
	// whole RelPath when another image in the same directory shares the stem.
	Key string
	// Format is guessed from the extension; the job sniffs the content.
	Format format.Format
	// Size is the file size in bytes.
	Size int64
}

// IsImage reports whether path has an extension the compressor accepts.
func IsImage(path string) bool {
	return format.FromName(filepath.Ext(path)) != format.Unknown
}

// NewSource describes the file at path relative to root.
func NewSource(root, path string) (Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Source{}, err
	}
	if info.IsDir() {
		return Source{}, fmt.Errorf("%s is a directory", path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return Source{}, err
	}
	if strings.HasPrefix(rel, "..") {
		return Source{}, fmt.Errorf("%s is outside %s", path, root)
	}

	ext := filepath.Ext(rel)
	return Source{
		AbsPath: path,
		RelPath: filepath.ToSlash(rel),
		Key:     filepath.ToSlash(strings.TrimSuffix(rel, ext)),
		Format:  format.FromName(ext),
		Size:    info.Size(),
	}, nil
}

// NewSourceIn is NewSource for a single file seen outside a full scan. It
// reads the file's directory so the Key matches what ScanImages would
// assign.
func NewSourceIn(root, path string) (Source, error) {
	s, err := NewSource(root, path)
	if err != nil {
		return Source{}, err
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		return Source{}, err
	}
	base := filepath.Base(path)
	for _, e := range entries {
		name := e.Name()
		if name == base || e.IsDir() || strings.HasPrefix(name, ".") || !IsImage(name) {
			continue
		}
		if stem(name) == stem(base) {
			s.Key = s.RelPath
			break
		}
	}
	return s, nil
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// disambiguate keeps the extension in the Key of every source whose stem
// is shared with another, so a.jpg and a.jpeg do not write the same file.
func disambiguate(sources []Source) {
	seen := make(map[string]int, len(sources))
	for _, s := range sources {
		seen[s.Key]++
	}
	for i := range sources {
		if seen[sources[i].Key] > 1 {
			sources[i].Key = sources[i].RelPath
		}
	}
}

// ScanImages walks the input directory and returns all image sources.
// Hidden files and directories are skipped, as is skipDir (typically the
// output directory when it lives inside the input).
func ScanImages(inputDir, skipDir string) ([]Source, error) {
	var sources []Source

	err := filepath.Walk(inputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		hidden := strings.HasPrefix(info.Name(), ".") && path != inputDir
		if info.IsDir() {
			if hidden || (skipDir != "" && path == skipDir && path != inputDir) {
				return filepath.SkipDir
			}
			return nil
		}
		if hidden || !IsImage(path) {
			return nil
		}

		s, err := NewSource(inputDir, path)
		if err != nil {
			return err
		}
		sources = append(sources, s)
		return nil
	})
	if err != nil {
		return nil, err
	}

	disambiguate(sources)
	return sources, nil
}
