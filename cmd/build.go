package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgsqueeze/internal/pipeline"
	"github.com/AnyUserName/imgsqueeze/internal/report"
)

var (
	buildOutDir  string
	buildWorkers int
)

var buildCmd = &cobra.Command{
	Use:   "build <input_dir>",
	Short: "Compress every image in a directory and write a report",
	Long: `Scans the input directory for images (png, jpg, jpeg, webp, svg),
compresses each one in its own format and writes the results, mirroring the
input tree, into the output directory together with imgsqueeze.report.json.

With --hash-names output files are content-addressed: <name>.<hash>.ext`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildOutDir, "out", "o", "./imgsqueeze_out", "output directory")
	buildCmd.Flags().IntVarP(&buildWorkers, "workers", "w", 0, "parallel workers (0 = NumCPU)")
	buildCmd.Flags().Bool("hash-names", false, "embed a content hash in output names (default from profile)")
	buildCmd.Flags().Bool("no-regress-size", false, "skip outputs not smaller than the source (default from profile)")
	rootCmd.AddCommand(buildCmd)
}

func newPipeline(inputDir, outDir string, st settings) *pipeline.Pipeline {
	return pipeline.New(pipeline.Config{
		InputDir:      inputDir,
		OutputDir:     outDir,
		Profile:       st.profile.Name,
		Options:       st.options,
		Workers:       buildWorkers,
		HashNames:     st.hashNames,
		NoRegressSize: st.noRegressSize,
		Registry:      registry,
	})
}

func runBuild(cmd *cobra.Command, args []string) error {
	start := time.Now()

	st, err := resolveSettings()
	if err != nil {
		return err
	}
	absOutput, err := filepath.Abs(buildOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	r, err := newPipeline(args[0], absOutput, st).Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	reportPath := filepath.Join(absOutput, report.FileName)
	if err := report.WriteJSON(r, reportPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	printBuildReport(r, time.Since(start))
	return nil
}

func printBuildReport(r *report.Report, elapsed time.Duration) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	fmt.Println()
	bold.Println("  imgsqueeze build complete")
	fmt.Println()

	s := r.Stats
	fmt.Printf("  Images:      %d\n", s.TotalEntries)
	fmt.Printf("  Written:     %d\n", s.TotalOutputs)
	fmt.Printf("  Input size:  %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size: %s\n", formatBytes(s.TotalOutputBytes))
	green.Printf("  Ratio:       %.1f%% of original\n", r.Ratio()*100)
	if s.SkippedRegress > 0 {
		yellow.Printf("  Skipped:     %d (not smaller than original)\n", s.SkippedRegress)
	}
	if s.Failed > 0 {
		red.Printf("  Failed:      %d\n", s.Failed)
	}
	fmt.Printf("  Settings:    profile=%s quality=%d scale=%s\n", r.Profile, r.Quality, r.Scale)
	fmt.Printf("  Time:        %s\n", elapsed.Round(time.Millisecond))
	if r.BuildInfo != nil {
		fmt.Printf("  Workers:     %d\n", r.BuildInfo.Workers)
	}
	fmt.Println()

	// Top 10 heaviest sources.
	type entrySize struct {
		key        string
		inputSize  int64
		outputSize int64
	}
	var items []entrySize
	for key, e := range r.Entries {
		if e.Output == nil {
			continue
		}
		items = append(items, entrySize{key, e.Source.Size, e.Output.Size})
	}
	if len(items) > 0 {
		sort.Slice(items, func(i, j int) bool {
			if items[i].inputSize != items[j].inputSize {
				return items[i].inputSize > items[j].inputSize
			}
			return items[i].key < items[j].key
		})
		n := len(items)
		if n > 10 {
			n = 10
		}
		fmt.Printf("  Top %d heaviest (original → compressed):\n", n)
		for _, it := range items[:n] {
			saved := float64(0)
			if it.inputSize > 0 {
				saved = (1 - float64(it.outputSize)/float64(it.inputSize)) * 100
			}
			fmt.Printf("    %-40s %8s → %8s  (−%.0f%%)\n",
				truncKey(it.key, 40),
				formatBytes(it.inputSize),
				formatBytes(it.outputSize),
				saved,
			)
		}
		fmt.Println()
	}

	fmt.Printf("  Formats:     %s\n", strings.Join(outputFormats(r), ", "))
	data, _ := json.Marshal(r)
	fmt.Printf("  Report:      %s (%s)\n", report.FileName, formatBytes(int64(len(data))))
	fmt.Println()
}

func outputFormats(r *report.Report) []string {
	set := map[string]bool{}
	for _, e := range r.Entries {
		if e.Output != nil {
			set[e.Output.Format] = true
		}
	}
	var out []string
	for _, f := range []string{"jpeg", "png", "webp", "svg"} {
		if set[f] {
			out = append(out, f)
		}
	}
	return out
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func truncKey(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max+3:]
}
