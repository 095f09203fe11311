// Package pipeline compresses every image under a directory on a worker
// pool and summarises the run in a report.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/gammazero/workerpool"
	log "github.com/sirupsen/logrus"

	"github.com/AnyUserName/imgsqueeze/internal/compress"
	"github.com/AnyUserName/imgsqueeze/internal/format"
	"github.com/AnyUserName/imgsqueeze/internal/report"
)

// Config holds all parameters for a batch run.
type Config struct {
	InputDir  string
	OutputDir string
	// Profile is the profile name recorded in the report.
	Profile string
	Options compress.Options
	Workers int
	// HashNames embeds a content hash in output file names.
	HashNames bool
	// NoRegressSize skips outputs that are not smaller than the source.
	NoRegressSize bool
	// Registry is shared by all jobs; nil creates one.
	Registry *format.Registry
}

// Pipeline orchestrates a batch run.
type Pipeline struct {
	cfg      Config
	registry *format.Registry

	mu sync.Mutex
	// claimed maps an output path to the RelPath of the source writing it.
	claimed map[string]string
}

// New creates a configured pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = format.NewRegistry(nil)
	}
	return &Pipeline{cfg: cfg, registry: reg, claimed: make(map[string]string)}
}

// claim reserves an output path for one source. A second source asking for
// the same path gets an error instead of overwriting the first.
func (p *Pipeline) claim(out, rel string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if owner, ok := p.claimed[out]; ok && owner != rel {
		return fmt.Errorf("output %s already written for %s", out, owner)
	}
	p.claimed[out] = rel
	return nil
}

// Run compresses every image under the input directory and returns the
// report. Individual failures are recorded in the report; Run only fails
// when nothing could be processed.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	in, err := filepath.Abs(p.cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve input path: %w", err)
	}
	out, err := filepath.Abs(p.cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}
	if in == out {
		return nil, fmt.Errorf("output directory must differ from input directory %s", in)
	}
	p.cfg.InputDir, p.cfg.OutputDir = in, out

	log.WithField("registry", p.registry.String()).Debug("pipeline start")

	sources, err := ScanImages(in, out)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no images found in %s", in)
	}
	log.WithFields(log.Fields{"images": len(sources), "workers": p.cfg.Workers}).Info("found images")

	results := make([]processResult, len(sources))
	wp := workerpool.New(p.cfg.Workers)
	for i, src := range sources {
		i, src := i, src
		wp.Submit(func() {
			log.WithField("path", src.RelPath).Debug("processing")
			entry, err := p.Process(ctx, src)
			results[i] = processResult{key: src.RelPath, entry: entry, err: err}
		})
	}
	wp.StopWait()

	r := report.New(p.cfg.Profile)
	r.Quality = p.cfg.Options.Quality
	r.Scale = p.cfg.Options.Scale.String()

	var failed int
	for _, res := range results {
		if res.err != nil {
			failed++
			if r.Failures == nil {
				r.Failures = make(map[string]string)
			}
			r.Failures[res.key] = res.err.Error()
			log.WithField("path", res.key).WithError(res.err).Error("compress failed")
			continue
		}
		r.Entries[res.key] = res.entry
	}

	if failed == len(sources) {
		return nil, fmt.Errorf("all %d images failed to process", failed)
	}
	if failed > 0 {
		log.Warnf("%d of %d images had errors", failed, len(sources))
	}

	r.BuildInfo = &report.BuildInfo{Workers: p.cfg.Workers, HashNames: p.cfg.HashNames}
	r.ComputeStats()
	return r, nil
}
