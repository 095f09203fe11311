// Package report describes the JSON summary written by a batch run.
package report

// FileName is the report written into the output directory.
const FileName = "imgsqueeze.report.json"

// SupportedVersion is the current schema version.
const SupportedVersion = 1

// Report is the top-level output of a batch run.
type Report struct {
	Version     int               `json:"version"`
	GeneratedAt string            `json:"generated_at"`
	Profile     string            `json:"profile"`
	Quality     int               `json:"quality"`
	Scale       string            `json:"scale"`
	BuildInfo   *BuildInfo        `json:"build_info,omitempty"`
	Entries     map[string]Entry  `json:"entries"`
	Failures    map[string]string `json:"failures,omitempty"` // key -> error
	Stats       Stats             `json:"stats"`
}

// BuildInfo captures run parameters for diagnostics.
type BuildInfo struct {
	Workers   int  `json:"workers"`
	HashNames bool `json:"hash_names"`
}

// Entry describes one source image and its compressed output.
type Entry struct {
	Source SourceInfo  `json:"source"`
	Output *OutputInfo `json:"output,omitempty"` // nil when skipped
	// Skipped holds the reason no output was written.
	Skipped string `json:"skipped,omitempty"`
}

// Skip reasons.
const SkippedRegress = "not smaller than source"

// SourceInfo holds metadata about the source image.
type SourceInfo struct {
	Path   string `json:"path"`
	Format string `json:"format"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

// OutputInfo is the compressed file written for an entry.
type OutputInfo struct {
	Path           string `json:"path"` // relative to the report
	Format         string `json:"format"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	Size           int64  `json:"size"`
	Hash           string `json:"hash"` // 16 hex chars of xxhash64
	Strategy       string `json:"strategy"`
	PaletteSize    int    `json:"palette_size,omitempty"`
	ScaleApplied   bool   `json:"scale_applied"`
	QualityApplied bool   `json:"quality_applied"`
}

// Stats aggregates run metrics.
type Stats struct {
	TotalInputBytes  int64 `json:"total_input_bytes"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	TotalEntries     int   `json:"total_entries"`
	TotalOutputs     int   `json:"total_outputs"`
	SkippedRegress   int   `json:"skipped_regress,omitempty"`
	Failed           int   `json:"failed,omitempty"`
}
