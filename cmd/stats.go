package cmd

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgsqueeze/internal/report"
)

var statsCmd = &cobra.Command{
	Use:   "stats <out_dir_or_report>",
	Short: "Display statistics for a build output directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(_ *cobra.Command, args []string) error {
	r, _, err := report.ReadJSON(args[0])
	if err != nil {
		return err
	}
	printStats(r)
	return nil
}

func printStats(r *report.Report) {
	fmt.Println()
	fmt.Printf("  Report version:   %d\n", r.Version)
	fmt.Printf("  Generated:        %s\n", r.GeneratedAt)
	fmt.Printf("  Profile:          %s (quality %d, scale %s)\n", r.Profile, r.Quality, r.Scale)
	if r.BuildInfo != nil {
		fmt.Printf("  Workers:          %d\n", r.BuildInfo.Workers)
		fmt.Printf("  Hashed names:     %t\n", r.BuildInfo.HashNames)
	}
	fmt.Println()

	s := r.Stats
	fmt.Printf("  Total images:     %d\n", s.TotalEntries)
	fmt.Printf("  Written:          %d\n", s.TotalOutputs)
	fmt.Printf("  Input size:       %s\n", formatBytes(s.TotalInputBytes))
	fmt.Printf("  Output size:      %s\n", formatBytes(s.TotalOutputBytes))
	if ratio := r.Ratio(); ratio > 0 {
		fmt.Printf("  Compression:      %.1f%% of original\n", ratio*100)
	}
	fmt.Println()

	// Per-format and per-strategy breakdown.
	type bucket struct {
		count int
		in    int64
		out   int64
	}
	formats := map[string]bucket{}
	strategies := map[string]int{}
	var vector int
	for _, e := range r.Entries {
		if e.Output == nil {
			continue
		}
		b := formats[e.Output.Format]
		b.count++
		b.in += e.Source.Size
		b.out += e.Output.Size
		formats[e.Output.Format] = b
		strategies[e.Output.Strategy]++
		if !e.Output.ScaleApplied {
			vector++
		}
	}

	fmt.Println("  Format breakdown:")
	for _, f := range []string{"jpeg", "png", "webp", "svg"} {
		if b, ok := formats[f]; ok {
			fmt.Printf("    %-6s  %4d files  %9s → %9s\n", f, b.count, formatBytes(b.in), formatBytes(b.out))
		}
	}
	fmt.Println()

	var names []string
	for k := range strategies {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Println("  Strategy breakdown:")
	for _, k := range names {
		fmt.Printf("    %-15s %4d\n", k, strategies[k])
	}
	if vector > 0 {
		fmt.Printf("  Quality/scale not applied: %d vector sources\n", vector)
	}

	// Warnings.
	var warnings []string
	for key, e := range r.Entries {
		if e.Output == nil && e.Skipped != "" {
			warnings = append(warnings, fmt.Sprintf("%q skipped: %s", key, e.Skipped))
		}
	}
	for key, msg := range r.Failures {
		warnings = append(warnings, fmt.Sprintf("%q failed: %s", key, msg))
	}
	if len(warnings) > 0 {
		sort.Strings(warnings)
		warn := color.New(color.FgYellow).SprintFunc()
		fmt.Println()
		fmt.Printf("  Warnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("    %s %s\n", warn("⚠"), w)
		}
	}
	fmt.Println()
}
