package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgsqueeze/internal/pipeline"
	"github.com/AnyUserName/imgsqueeze/internal/watch"
)

var watchOutDir string

var watchCmd = &cobra.Command{
	Use:   "watch <input_dir>",
	Short: "Compress images as they are added to or changed in a directory",
	Long: `Watches the input directory tree and compresses every image that is
created or modified, once it has been quiet for 500ms. Output goes to the
output directory using the same layout as build. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutDir, "out", "o", "./imgsqueeze_out", "output directory")
	watchCmd.Flags().Bool("hash-names", false, "embed a content hash in output names (default from profile)")
	watchCmd.Flags().Bool("no-regress-size", false, "skip outputs not smaller than the source (default from profile)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	st, err := resolveSettings()
	if err != nil {
		return err
	}
	absInput, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("resolve input path: %w", err)
	}
	absOutput, err := filepath.Abs(watchOutDir)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if absInput == absOutput {
		return fmt.Errorf("output directory must differ from input directory %s", absInput)
	}
	if err := os.MkdirAll(absOutput, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	p := newPipeline(absInput, absOutput, st)
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	w, err := watch.New(watch.Config{
		Root:  absInput,
		Skip:  absOutput,
		Match: pipeline.IsImage,
		Handle: func(ctx context.Context, path string) {
			src, err := pipeline.NewSourceIn(absInput, path)
			if err != nil {
				log.WithField("path", path).WithError(err).Debug("ignored")
				return
			}
			entry, err := p.Process(ctx, src)
			switch {
			case err != nil:
				log.WithField("path", src.RelPath).WithError(err).Error("compress failed")
			case entry.Output == nil:
				fmt.Printf("%s %s (%s)\n", yellow("-"), src.RelPath, entry.Skipped)
			default:
				fmt.Printf("%s %s → %s  %s → %s\n", green("✓"), src.RelPath, entry.Output.Path,
					formatBytes(entry.Source.Size), formatBytes(entry.Output.Size))
			}
		},
	})
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"input": absInput, "output": absOutput}).Info("watching")
	return w.Run(cmd.Context())
}
