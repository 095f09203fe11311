package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgsqueeze/internal/compress"
	"github.com/AnyUserName/imgsqueeze/internal/export"
	"github.com/AnyUserName/imgsqueeze/internal/hasher"
	"github.com/AnyUserName/imgsqueeze/internal/source"
)

var (
	compressOutDir  string
	compressTimeout time.Duration
)

var compressCmd = &cobra.Command{
	Use:   "compress <file|url>",
	Short: "Compress a single image file or URL",
	Long: `Compresses a single image from a file path or an http(s) URL.

The output keeps the source format and is written as <name>.<ext> in the
output directory; sources without a usable name are saved as download.<ext>.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompress,
}

func init() {
	compressCmd.Flags().StringVarP(&compressOutDir, "out", "o", ".", "output directory")
	compressCmd.Flags().DurationVar(&compressTimeout, "timeout", 30*time.Second, "download timeout for URLs")
	compressCmd.Flags().Bool("hash-names", false, "embed a content hash in the output name")
	rootCmd.AddCommand(compressCmd)
}

func runCompress(cmd *cobra.Command, args []string) error {
	st, err := resolveSettings()
	if err != nil {
		return err
	}

	locator := args[0]
	var src source.Provider
	if source.IsURL(locator) {
		client := resty.New().
			SetTimeout(compressTimeout).
			SetHeader("User-Agent", "imgsqueeze/"+version)
		src = source.URL(locator, client)
	} else {
		src = source.File(locator)
	}

	start := time.Now()
	job, err := compress.Compress(cmd.Context(), src, st.options, compress.WithRegistry(registry))
	if err != nil {
		return fmt.Errorf("compress %s: %w", locator, err)
	}
	res := job.Result()
	if !res.ScaleApplied || !res.QualityApplied {
		log.WithField("source", locator).Info("quality/scale not applied to vector source")
	}

	name := job.Source().Name
	if st.hashNames {
		if name == "" {
			name = export.DefaultName
		}
		name = hasher.HashedName(name, res.Data)
	}
	path, err := export.Save(compressOutDir, name, res)
	if err != nil {
		return err
	}

	in := job.Source()
	green := color.New(color.FgGreen, color.Bold).SprintFunc()
	fmt.Printf("%s %s\n", green("✓"), path)
	fmt.Printf("  %dx%d → %dx%d  %s → %s  (%.1f%%)  %s  %s\n",
		in.Width, in.Height, res.Width, res.Height,
		formatBytes(int64(in.Size)), formatBytes(int64(res.Size)),
		res.Ratio()*100, res.Strategy, time.Since(start).Round(time.Millisecond))
	return nil
}
