package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/AnyUserName/imgsqueeze/internal/format"
	"github.com/AnyUserName/imgsqueeze/internal/hasher"
)

// Validate checks the report for consistency and verifies every output
// file under baseDir. It returns one message per problem, sorted.
func Validate(r *Report, baseDir string) []string {
	var errs []string

	if r.Version != SupportedVersion {
		errs = append(errs, fmt.Sprintf("unsupported report version: %d", r.Version))
	}

	seen := map[string]string{}
	for key, e := range r.Entries {
		if e.Source.Width < 0 || e.Source.Height < 0 {
			errs = append(errs, fmt.Sprintf("entry %q: invalid source dimensions %dx%d",
				key, e.Source.Width, e.Source.Height))
		}
		if e.Output == nil {
			if e.Skipped == "" {
				errs = append(errs, fmt.Sprintf("entry %q: no output and no skip reason", key))
			}
			continue
		}

		o := e.Output
		if o.Format != e.Source.Format {
			errs = append(errs, fmt.Sprintf("entry %q: output format %q differs from source %q",
				key, o.Format, e.Source.Format))
		}
		if _, err := format.ExtensionFor(format.FromName(o.Format)); err != nil {
			errs = append(errs, fmt.Sprintf("entry %q: unknown output format %q", key, o.Format))
		}
		if o.Width <= 0 || o.Height <= 0 {
			errs = append(errs, fmt.Sprintf("entry %q: invalid output dimensions %dx%d",
				key, o.Width, o.Height))
		}
		if o.Path == "" {
			errs = append(errs, fmt.Sprintf("entry %q: missing output path", key))
			continue
		}
		if other, dup := seen[o.Path]; dup {
			errs = append(errs, fmt.Sprintf("entry %q: output path %q already used by %q", key, o.Path, other))
		}
		seen[o.Path] = key

		full := filepath.Join(baseDir, filepath.FromSlash(o.Path))
		info, err := os.Stat(full)
		if err != nil {
			errs = append(errs, fmt.Sprintf("entry %q: file not found: %s", key, o.Path))
			continue
		}
		if info.Size() != o.Size {
			errs = append(errs, fmt.Sprintf("entry %q: size mismatch: report=%d, disk=%d",
				key, o.Size, info.Size()))
		}
		if o.Hash != "" {
			sum, err := hasher.FileHash(full, len(o.Hash))
			if err != nil {
				errs = append(errs, fmt.Sprintf("entry %q: hash %s: %v", key, o.Path, err))
			} else if sum != o.Hash {
				errs = append(errs, fmt.Sprintf("entry %q: hash mismatch: report=%s, disk=%s", key, o.Hash, sum))
			}
		}
	}

	cp := *r
	cp.ComputeStats()
	want := cp.Stats
	if r.Stats.TotalEntries != want.TotalEntries {
		errs = append(errs, fmt.Sprintf("stats.total_entries mismatch: %d != %d", r.Stats.TotalEntries, want.TotalEntries))
	}
	if r.Stats.TotalOutputs != want.TotalOutputs {
		errs = append(errs, fmt.Sprintf("stats.total_outputs mismatch: %d != %d", r.Stats.TotalOutputs, want.TotalOutputs))
	}

	sort.Strings(errs)
	return errs
}
