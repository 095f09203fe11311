package pipeline

import (
	"context"
	"fmt"
	"path"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/AnyUserName/imgsqueeze/internal/compress"
	"github.com/AnyUserName/imgsqueeze/internal/export"
	"github.com/AnyUserName/imgsqueeze/internal/hasher"
	"github.com/AnyUserName/imgsqueeze/internal/report"
	"github.com/AnyUserName/imgsqueeze/internal/source"
)

// processResult holds the outcome of one source image.
type processResult struct {
	key   string
	entry report.Entry
	err   error
}

// Process compresses one source and writes its output under the output
// directory, mirroring the source's relative directory.
func (p *Pipeline) Process(ctx context.Context, src Source) (report.Entry, error) {
	l := log.WithField("path", src.RelPath)

	job, err := compress.Compress(ctx, source.File(src.AbsPath), p.cfg.Options,
		compress.WithRegistry(p.registry))
	if err != nil {
		return report.Entry{}, err
	}
	res := job.Result()
	in := job.Source()

	entry := report.Entry{Source: report.SourceInfo{
		Path:   src.RelPath,
		Format: in.Format.String(),
		Width:  in.Width,
		Height: in.Height,
		Size:   int64(in.Size),
	}}

	if !res.ScaleApplied || !res.QualityApplied {
		l.Info("quality/scale not applied to vector source")
	}

	if p.cfg.NoRegressSize && res.Size >= res.SourceSize {
		l.WithFields(log.Fields{"size": res.Size, "source_size": res.SourceSize}).
			Debug("skip: output not smaller than source")
		entry.Skipped = report.SkippedRegress
		return entry, nil
	}

	name := path.Base(src.Key)
	if p.cfg.HashNames {
		name = hasher.HashedName(name, res.Data)
	}
	dir := filepath.Join(p.cfg.OutputDir, filepath.FromSlash(path.Dir(src.Key)))
	file, err := export.FileName(name, res.Format)
	if err != nil {
		return report.Entry{}, err
	}
	if err := p.claim(filepath.Join(dir, file), src.RelPath); err != nil {
		return report.Entry{}, err
	}
	written, err := export.Save(dir, name, res)
	if err != nil {
		return report.Entry{}, err
	}
	rel, err := filepath.Rel(p.cfg.OutputDir, written)
	if err != nil {
		return report.Entry{}, fmt.Errorf("relative output path: %w", err)
	}

	entry.Output = &report.OutputInfo{
		Path:           filepath.ToSlash(rel),
		Format:         res.Format.String(),
		Width:          res.Width,
		Height:         res.Height,
		Size:           int64(res.Size),
		Hash:           hasher.ContentHash(res.Data, 16),
		Strategy:       res.Strategy.String(),
		PaletteSize:    res.PaletteSize,
		ScaleApplied:   res.ScaleApplied,
		QualityApplied: res.QualityApplied,
	}
	l.WithFields(log.Fields{
		"output": entry.Output.Path,
		"size":   res.Size,
		"ratio":  fmt.Sprintf("%.2f", res.Ratio()),
	}).Debug("done")
	return entry, nil
}
