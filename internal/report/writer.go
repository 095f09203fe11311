package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// New creates an empty report.
func New(profile string) *Report {
	return &Report{
		Version:     SupportedVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Profile:     profile,
		Entries:     make(map[string]Entry),
	}
}

// ComputeStats recalculates aggregate statistics from entries.
func (r *Report) ComputeStats() {
	var s Stats
	s.TotalEntries = len(r.Entries)
	s.Failed = len(r.Failures)
	for _, e := range r.Entries {
		s.TotalInputBytes += e.Source.Size
		if e.Output != nil {
			s.TotalOutputs++
			s.TotalOutputBytes += e.Output.Size
		} else if e.Skipped == SkippedRegress {
			s.SkippedRegress++
		}
	}
	r.Stats = s
}

// Ratio returns output bytes over the input bytes of entries that
// produced an output.
func (r *Report) Ratio() float64 {
	var in int64
	for _, e := range r.Entries {
		if e.Output != nil {
			in += e.Source.Size
		}
	}
	if in == 0 {
		return 0
	}
	return float64(r.Stats.TotalOutputBytes) / float64(in)
}

// WriteJSON serializes the report to path.
func WriteJSON(r *Report, path string) error {
	r.ComputeStats()

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON loads a report. A directory is searched for FileName.
func ReadJSON(path string) (*Report, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, "", fmt.Errorf("parse report: %w", err)
	}
	return &r, path, nil
}
